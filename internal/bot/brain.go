// Package bot picks actions for CPU-controlled and disconnected players. It never touches a
// match: every decision is computed from a Situation and fed back through the engine's
// normal entry points.
package bot

import (
	"math/rand"

	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/catalog"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/models"
)

// Situation is a read-only copy of everything a decision needs.
type Situation struct {
	Self      models.Player
	Opponents []models.Player
	Board     *catalog.Board
	StarSpace string
	StarPrice int
	TurnsLeft int
	Items     []*catalog.Item // resolved Self.Items, same order
}

// Offer is one shop slot.
type Offer struct {
	Item  *catalog.Item
	Price int
}

// Brain makes decisions for one difficulty tier.
type Brain struct {
	Level models.Difficulty
	tune  Tuning
	rng   *rand.Rand
}

// NewBrain returns a brain for level; unknown levels play as normal.
func NewBrain(level models.Difficulty, rng *rand.Rand) *Brain {
	t, ok := Tunings[level]
	if !ok {
		level = models.DifficultyNormal
		t = Tunings[level]
	}
	return &Brain{Level: level, tune: t, rng: rng}
}

func (b *Brain) careless() bool {
	return b.tune.IgnoreBest > 0 && b.rng.Float64() < b.tune.IgnoreBest
}

func (s Situation) canAffordStar() bool {
	return s.StarSpace != "" && s.Self.Coins >= s.StarPrice
}

func (s Situation) starDistance(from string) int {
	if s.Board == nil || s.StarSpace == "" {
		return -1
	}
	return s.Board.DistanceTo(from, s.StarSpace)
}

// ScoreSpace is the static value of ending on a space plus a bonus for nearing an affordable star.
func ScoreSpace(s Situation, spaceID string) float64 {
	sp, ok := s.Board.Space(spaceID)
	if !ok {
		return 0
	}
	v := spaceValue[sp.Type]
	if s.canAffordStar() {
		if d := s.starDistance(spaceID); d >= 0 {
			v += starProximityBonus / float64(d+1)
		}
	}
	return v
}

// ChooseSpace picks one of the connected spaces at a junction.
func (b *Brain) ChooseSpace(s Situation, options []string) string {
	if len(options) == 0 {
		return ""
	}
	if len(options) == 1 {
		return options[0]
	}
	best, bestScore := options[0], ScoreSpace(s, options[0])
	for _, o := range options[1:] {
		if sc := ScoreSpace(s, o); sc > bestScore {
			best, bestScore = o, sc
		}
	}
	if b.careless() {
		return options[b.rng.Intn(len(options))]
	}
	return best
}

// ChooseItem returns the inventory index of the item to use this turn, if any.
func (b *Brain) ChooseItem(s Situation) (int, bool) {
	if len(s.Items) == 0 {
		return -1, false
	}
	if b.careless() {
		return -1, false
	}
	for i, it := range s.Items {
		if wantsToUse(s, it.Effect) {
			return i, true
		}
	}
	return -1, false
}

func wantsToUse(s Situation, eff catalog.Effect) bool {
	selfDist := s.starDistance(s.Self.Space)
	switch e := eff.(type) {
	case catalog.DiceMultiplier:
		if s.TurnsLeft <= endgameTurns {
			return true
		}
		return s.canAffordStar() && selfDist > closeToStar/2 && selfDist <= closeToStar*e.Factor
	case catalog.DiceChoice:
		if s.TurnsLeft <= endgameTurns {
			return true
		}
		return s.canAffordStar() && selfDist > 0 && selfDist <= closeToStar
	case catalog.CoinSteal:
		for _, o := range s.Opponents {
			if o.Coins > s.Self.Coins || o.Coins >= richOpponent {
				return true
			}
		}
		return false
	case catalog.PositionSwap:
		for _, o := range s.Opponents {
			d := s.starDistance(o.Space)
			if d >= 0 && (selfDist < 0 || d < selfDist) {
				return true
			}
		}
		return false
	case catalog.StarTeleport:
		return s.canAffordStar()
	case catalog.DuelStart:
		for _, o := range s.Opponents {
			if o.Coins >= s.Self.Coins+10 {
				return true
			}
		}
		return false
	case catalog.StarDiscount:
		// held until a purchase consumes it
		return false
	}
	return false
}

// DiceValue picks the face for a dice-choice item: land on the star if it is in reach.
func (b *Brain) DiceValue(s Situation) int {
	d := s.starDistance(s.Self.Space)
	if s.canAffordStar() && d >= 1 && d <= 10 && !b.careless() {
		// stepping onto the star with moves to spare opens the offer, so overshoot by one
		if d < 10 {
			return d + 1
		}
		return d
	}
	return 10
}

// WantsStar decides a star-purchase offer.
func (b *Brain) WantsStar(s Situation, price int) bool {
	return s.Self.Coins >= price
}

// ChooseShopItem picks an offer or skips. It never spends coins it needs for an affordable star.
func (b *Brain) ChooseShopItem(s Situation, offers []Offer) (string, bool) {
	if len(offers) == 0 || len(s.Self.Items) >= models.MaxItems {
		return "", false
	}
	if b.careless() {
		if b.rng.Intn(2) == 0 {
			return "", false
		}
		o := offers[b.rng.Intn(len(offers))]
		return o.Item.ID, o.Price <= s.Self.Coins
	}
	var pick *Offer
	for i := range offers {
		o := &offers[i]
		if o.Price > s.Self.Coins {
			continue
		}
		if s.canAffordStar() && s.Self.Coins-o.Price < s.StarPrice {
			continue
		}
		if _, isDiscount := o.Item.Effect.(catalog.StarDiscount); isDiscount && b.Level == models.DifficultyEasy {
			continue
		}
		if pick == nil || o.Price > pick.Price {
			pick = o
		}
	}
	if pick == nil {
		return "", false
	}
	return pick.Item.ID, true
}

// MinigameScore draws a score from the tier's range.
func (b *Brain) MinigameScore() float64 {
	span := b.tune.ScoreMax - b.tune.ScoreMin
	return float64(b.tune.ScoreMin + b.rng.Intn(span+1))
}
