package game

import (
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/catalog"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/weighted"
)

// Outcome is the closed set of effects a fortune, hazard or encounter table can produce.
type Outcome interface {
	outcome() string
}

type CoinDelta struct{ Amount int }
type StarDelta struct{ Amount int }
type GrantItem struct{ ItemID string } // empty picks a random catalog item
type StealCoins struct{ Amount int }
type Revolution struct{}
type TeleportToStart struct{}

func (CoinDelta) outcome() string       { return "coins" }
func (StarDelta) outcome() string       { return "stars" }
func (GrantItem) outcome() string       { return "item" }
func (StealCoins) outcome() string      { return "steal" }
func (Revolution) outcome() string      { return "revolution" }
func (TeleportToStart) outcome() string { return "teleport_start" }

// TableEntry is one named, weighted row of an outcome table.
type TableEntry struct {
	Name    string
	Weight  int
	Outcome Outcome
}

var fortuneTable = []TableEntry{
	{"small_purse", 30, CoinDelta{Amount: 5}},
	{"big_purse", 20, CoinDelta{Amount: 10}},
	{"treasure", 8, CoinDelta{Amount: 20}},
	{"gift_box", 20, GrantItem{}},
	{"pickpocket", 12, StealCoins{Amount: 5}},
	{"shooting_star", 2, StarDelta{Amount: 1}},
	{"dud", 8, CoinDelta{Amount: 0}},
}

var hazardTable = []TableEntry{
	{"toll", 30, CoinDelta{Amount: -5}},
	{"fine", 25, CoinDelta{Amount: -10}},
	{"robbery", 10, CoinDelta{Amount: -20}},
	{"star_thief", 5, StarDelta{Amount: -1}},
	{"kicked_home", 15, TeleportToStart{}},
	{"revolution", 5, Revolution{}},
	{"pity_coins", 10, CoinDelta{Amount: 3}},
}

var encounterTable = []TableEntry{
	{"jackpot", 15, CoinDelta{Amount: 20}},
	{"bankrupt", 15, CoinDelta{Amount: -20}},
	{"star_gift", 8, StarDelta{Amount: 1}},
	{"star_tax", 8, StarDelta{Amount: -1}},
	{"revolution", 14, Revolution{}},
	{"heist", 15, StealCoins{Amount: 10}},
	{"present", 15, GrantItem{}},
	{"exile", 10, TeleportToStart{}},
}

// favourable reports whether an outcome helps the player who draws it.
func favourable(o Outcome) bool {
	switch v := o.(type) {
	case CoinDelta:
		return v.Amount > 0
	case StarDelta:
		return v.Amount > 0
	case GrantItem, StealCoins:
		return true
	}
	return false
}

// outcomeTable returns the weighted entries for a space type, with the fortune boost applied.
func outcomeTable(t catalog.SpaceType, finale FinaleModifier) []weighted.Entry[TableEntry] {
	var rows []TableEntry
	switch t {
	case catalog.SpaceFortune:
		rows = fortuneTable
	case catalog.SpaceHazard:
		rows = hazardTable
	case catalog.SpaceEncounter:
		rows = encounterTable
	default:
		return nil
	}
	out := make([]weighted.Entry[TableEntry], len(rows))
	for i, r := range rows {
		w := r.Weight
		if t == catalog.SpaceFortune && finale == FinaleFortuneBoost && favourable(r.Outcome) {
			w *= 2
		}
		out[i] = weighted.Entry[TableEntry]{Weight: w, Value: r}
	}
	return out
}
