package game

import "github.com/google/uuid"

// FinaleModifier is the rule drawn once when the last turns begin.
type FinaleModifier string

const (
	FinaleNone           FinaleModifier = ""
	FinaleCoinMultiplier FinaleModifier = "coin_multiplier"
	FinaleMinigameReward FinaleModifier = "minigame_reward"
	FinaleLossToGain     FinaleModifier = "loss_to_gain"
	FinaleDiceMultiplier FinaleModifier = "dice_multiplier"
	FinaleStarDiscount   FinaleModifier = "star_discount"
	FinaleEncounters     FinaleModifier = "encounter_frequency"
	FinaleFortuneBoost   FinaleModifier = "fortune_boost"
)

var finaleModifiers = []FinaleModifier{
	FinaleCoinMultiplier,
	FinaleMinigameReward,
	FinaleLossToGain,
	FinaleDiceMultiplier,
	FinaleStarDiscount,
	FinaleEncounters,
	FinaleFortuneBoost,
}

// maybeDrawFinale draws the modifier when exactly finaleWindow turns remain.
func (e *Engine) maybeDrawFinale(m *Match) {
	if m.Finale != FinaleNone || m.turnsLeft() != finaleWindow {
		return
	}
	m.Finale = finaleModifiers[m.rng.Intn(len(finaleModifiers))]
	e.log.WithField("match", m.ID).Infof("finale modifier %s", m.Finale)
	e.emit(m, uuid.Nil, EventFinaleModifier, map[string]interface{}{
		"modifier":  m.Finale,
		"turnsLeft": m.turnsLeft(),
	})
}
