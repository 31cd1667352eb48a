package bot

import (
	"time"

	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/catalog"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/models"
)

// Tuning scales decision quality per difficulty tier.
type Tuning struct {
	IgnoreBest float64 // chance the computed best choice is thrown away for a random one
	ScoreMin   int     // minigame score range
	ScoreMax   int
	Think      time.Duration // simulated delay before acting
}

// Tunings is indexed by difficulty. Harder bots think faster.
var Tunings = map[models.Difficulty]Tuning{
	models.DifficultyEasy:   {IgnoreBest: 0.5, ScoreMin: 0, ScoreMax: 60, Think: 2500 * time.Millisecond},
	models.DifficultyNormal: {IgnoreBest: 0.2, ScoreMin: 20, ScoreMax: 80, Think: 1500 * time.Millisecond},
	models.DifficultyHard:   {IgnoreBest: 0, ScoreMin: 40, ScoreMax: 100, Think: 800 * time.Millisecond},
}

// spaceValue ranks where a bot would like to end its move.
var spaceValue = map[catalog.SpaceType]float64{
	catalog.SpaceGain:      10,
	catalog.SpaceEncounter: 8,
	catalog.SpaceFortune:   7,
	catalog.SpaceShop:      6,
	catalog.SpaceEvent:     4,
	catalog.SpaceStart:     3,
	catalog.SpaceVersus:    2,
	catalog.SpaceLoss:      1,
	catalog.SpaceHazard:    0,
}

const (
	starProximityBonus = 20.0
	closeToStar        = 10 // one unmodified roll
	endgameTurns       = 3
	richOpponent       = 20
)

// ThinkTime returns the delay for a difficulty, defaulting to normal.
func ThinkTime(level models.Difficulty) time.Duration {
	if t, ok := Tunings[level]; ok {
		return t.Think
	}
	return Tunings[models.DifficultyNormal].Think
}
