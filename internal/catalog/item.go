package catalog

import (
	"encoding/json"
	"fmt"
)

// Effect is the closed set of things an item can do. New kinds are added here and handled
// by the engine's type switch.
type Effect interface {
	effectKind() string
}

type DiceMultiplier struct{ Factor int }
type DiceChoice struct{}
type CoinSteal struct{ Amount int }
type PositionSwap struct{}
type StarDiscount struct{ Amount int }
type StarTeleport struct{}
type DuelStart struct{ Stake int }

func (DiceMultiplier) effectKind() string { return "dice_multiplier" }
func (DiceChoice) effectKind() string     { return "dice_choice" }
func (CoinSteal) effectKind() string      { return "coin_steal" }
func (PositionSwap) effectKind() string   { return "position_swap" }
func (StarDiscount) effectKind() string   { return "star_discount" }
func (StarTeleport) effectKind() string   { return "star_teleport" }
func (DuelStart) effectKind() string      { return "duel_start" }

// EffectKind returns the wire name of an effect.
func EffectKind(e Effect) string {
	if e == nil {
		return ""
	}
	return e.effectKind()
}

func effectFromKind(kind string, amount int) (Effect, error) {
	switch kind {
	case "dice_multiplier":
		if amount < 2 {
			amount = 2
		}
		return DiceMultiplier{Factor: amount}, nil
	case "dice_choice":
		return DiceChoice{}, nil
	case "coin_steal":
		return CoinSteal{Amount: amount}, nil
	case "position_swap":
		return PositionSwap{}, nil
	case "star_discount":
		return StarDiscount{Amount: amount}, nil
	case "star_teleport":
		return StarTeleport{}, nil
	case "duel_start":
		return DuelStart{Stake: amount}, nil
	}
	return nil, fmt.Errorf("unknown item effect %q", kind)
}

func effectAmount(e Effect) int {
	switch v := e.(type) {
	case DiceMultiplier:
		return v.Factor
	case CoinSteal:
		return v.Amount
	case StarDiscount:
		return v.Amount
	case DuelStart:
		return v.Stake
	}
	return 0
}

// Item is a purchasable, holdable consumable.
type Item struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Price   int    `json:"price"`   // tier 1 price
	MinTier int    `json:"minTier"` // lowest shop tier that stocks it
	Effect  Effect `json:"-"`
}

type itemJSON struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Price   int    `json:"price"`
	MinTier int    `json:"minTier"`
	Effect  string `json:"effect"`
	Amount  int    `json:"amount,omitempty"`
}

func (it Item) MarshalJSON() ([]byte, error) {
	return json.Marshal(itemJSON{
		ID:      it.ID,
		Name:    it.Name,
		Price:   it.Price,
		MinTier: it.MinTier,
		Effect:  EffectKind(it.Effect),
		Amount:  effectAmount(it.Effect),
	})
}

func (it *Item) UnmarshalJSON(data []byte) error {
	var raw itemJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	eff, err := effectFromKind(raw.Effect, raw.Amount)
	if err != nil {
		return fmt.Errorf("item %s: %w", raw.ID, err)
	}
	*it = Item{ID: raw.ID, Name: raw.Name, Price: raw.Price, MinTier: raw.MinTier, Effect: eff}
	return nil
}

// tierScale is the percentage applied to an item's base price in each shop tier.
var tierScale = map[int]int{1: 100, 2: 125, 3: 150}

// PriceAt returns the item's price in a shop of the given tier.
func (it *Item) PriceAt(tier int) int {
	scale, ok := tierScale[tier]
	if !ok {
		scale = 100
	}
	return it.Price * scale / 100
}
