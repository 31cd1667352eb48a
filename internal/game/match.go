// internal/game/match.go
package game

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/catalog"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/models"
)

// Phase is a step of the match state machine.
type Phase string

const (
	PhaseTurnStart       Phase = "turn_start"
	PhaseItemUse         Phase = "item_use"
	PhaseDiceRoll        Phase = "dice_roll"
	PhaseMoving          Phase = "moving"
	PhaseSpaceEvent      Phase = "space_event"
	PhaseTurnEnd         Phase = "turn_end"
	PhaseMinigameIntro   Phase = "minigame_intro"
	PhaseMinigame        Phase = "minigame"
	PhaseMinigameResults Phase = "minigame_results"
	PhaseGameEnd         Phase = "game_end"
)

// successors lists the only phases each phase may move to.
var successors = map[Phase][]Phase{
	"":                   {PhaseTurnStart},
	PhaseTurnStart:       {PhaseItemUse},
	PhaseItemUse:         {PhaseDiceRoll},
	PhaseDiceRoll:        {PhaseMoving},
	PhaseMoving:          {PhaseSpaceEvent},
	PhaseSpaceEvent:      {PhaseTurnEnd},
	PhaseTurnEnd:         {PhaseTurnStart, PhaseMinigameIntro},
	PhaseMinigameIntro:   {PhaseMinigame},
	PhaseMinigame:        {PhaseMinigameResults},
	PhaseMinigameResults: {PhaseMinigameIntro, PhaseTurnStart, PhaseGameEnd},
}

func canAdvance(from, to Phase) bool {
	for _, p := range successors[from] {
		if p == to {
			return true
		}
	}
	return false
}

// Engine constants.
const (
	gainDelta      = 3
	lossDelta      = -3
	baseStarPrice  = 20
	minStarPrice   = 5
	diceSides      = 10
	minigameReward = 10
	versusReward   = 20
	giftAllAmount  = 5
	eventSteal     = 5
	finaleWindow   = 5
	maxChatLength  = 200
)

// SubEventKind distinguishes the decisions that can interrupt a turn.
type SubEventKind string

const (
	SubEventShop      SubEventKind = "shop"
	SubEventStarOffer SubEventKind = "star_offer"
)

// ShopOffer is one item in an open shop.
type ShopOffer struct {
	ItemID string `json:"itemId"`
	Name   string `json:"name"`
	Price  int    `json:"price"`
}

// SubEvent is a decision the acting player owes before the turn can continue.
type SubEvent struct {
	Kind     SubEventKind
	PlayerID uuid.UUID
	Price    int         // star offer
	Offers   []ShopOffer // shop
	origin   Phase       // where the turn resumes once answered
}

// TurnRecord summarises one player turn.
type TurnRecord struct {
	Turn      int               `json:"turn"`
	PlayerID  uuid.UUID         `json:"playerId"`
	Roll      int               `json:"roll"`
	From      string            `json:"from"`
	To        string            `json:"to"`
	Landed    catalog.SpaceType `json:"landed"`
	CoinDelta int               `json:"coinDelta"`
	StarDelta int               `json:"starDelta"`
}

// turnState is reset at the start of every player turn.
type turnState struct {
	diceFactor   int
	diceChoice   int
	discount     int
	roll         int
	from         string
	coinsAtStart int
	starsAtStart int
}

// Match is one running game. Every field is guarded by Mu.
type Match struct {
	ID           uuid.UUID
	LobbyID      uuid.UUID
	Board        *catalog.Board
	Players      []*models.Player
	Settings     models.MatchSettings
	ShowTutorial bool

	Turn      int
	MaxTurns  int
	Current   int
	Phase     Phase
	StarSpace string
	StarPrice int
	MovesLeft int

	Pending  *SubEvent
	Duel     *Duel
	Versus   bool
	Minigame *MinigameSession
	Finale   FinaleModifier
	History  []TurnRecord

	Ended     bool
	StartedAt time.Time
	EndedAt   time.Time
	Result    *Summary

	turn         turnState
	versusPlayed bool
	encounter    int // sequence of the spin awaiting reveal, 0 when none
	spinSeq      int
	botTask      *botTask
	rng          *rand.Rand
	actionIndex  int

	Mu sync.Mutex
}

func (m *Match) current() *models.Player {
	return m.Players[m.Current]
}

func (m *Match) player(id uuid.UUID) *models.Player {
	for _, p := range m.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (m *Match) opponents(id uuid.UUID) []*models.Player {
	out := make([]*models.Player, 0, len(m.Players)-1)
	for _, p := range m.Players {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}

func (m *Match) randomOpponent(id uuid.UUID) *models.Player {
	opps := m.opponents(id)
	if len(opps) == 0 {
		return nil
	}
	return opps[m.rng.Intn(len(opps))]
}

// finalTurn is true on the last turn of a match longer than one turn.
func (m *Match) finalTurn() bool {
	return m.MaxTurns > 1 && m.Turn == m.MaxTurns
}

func (m *Match) turnsLeft() int {
	return m.MaxTurns - m.Turn + 1
}

// starPriceWith applies the finale modifier and a discount to the base price.
func (m *Match) starPriceWith(discount int) int {
	price := m.StarPrice
	if m.Finale == FinaleStarDiscount {
		price /= 2
	}
	price -= discount
	if price < minStarPrice {
		price = minStarPrice
	}
	return price
}

// autoPlayed reports whether the engine acts for p.
func autoPlayed(p *models.Player) bool {
	return p.IsBot || !p.Connected
}
