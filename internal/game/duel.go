package game

import (
	"github.com/google/uuid"

	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/catalog"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/models"
)

// Duel is a two-player stake contest started by an item.
type Duel struct {
	ChallengerID uuid.UUID
	TargetID     uuid.UUID
	Stake        int
	Session      *MinigameSession // nil when settled by a dice roll
}

// startDuel caps the stake at the poorer balance and runs a duel minigame, or a paired
// roll when the catalog has none.
func (e *Engine) startDuel(m *Match, challenger, target *models.Player, stake int) {
	if challenger.Coins < stake {
		stake = challenger.Coins
	}
	if target.Coins < stake {
		stake = target.Coins
	}
	d := &Duel{ChallengerID: challenger.ID, TargetID: target.ID, Stake: stake}
	m.Duel = d
	payload := map[string]interface{}{
		"challengerId": d.ChallengerID,
		"targetId":     d.TargetID,
		"stake":        d.Stake,
	}

	games := e.cat.MinigamesOfKind(catalog.KindDuel)
	if len(games) == 0 {
		payload["mode"] = "roll"
		e.emit(m, challenger.ID, EventDuelStarted, payload)
		a := 1 + m.rng.Intn(diceSides)
		b := 1 + m.rng.Intn(diceSides)
		winner := d.ChallengerID
		if b > a {
			winner = d.TargetID
		}
		e.resolveDuel(m, d, winner, map[string]interface{}{
			"rolls": map[string]int{d.ChallengerID.String(): a, d.TargetID.String(): b},
		})
		return
	}

	game := games[m.rng.Intn(len(games))]
	s := newSession(ModeDuel, game, []uuid.UUID{d.ChallengerID, d.TargetID}, nil, 0)
	s.StartedAt = e.now()
	d.Session = s
	payload["mode"] = "minigame"
	payload["minigameId"] = game.ID
	payload["sessionId"] = s.ID
	e.emit(m, challenger.ID, EventDuelStarted, payload)

	for _, p := range []*models.Player{challenger, target} {
		if autoPlayed(p) {
			e.autoScore(m, s, p)
		}
	}
	if s.complete() {
		e.finishDuelSession(m, d, false)
		return
	}
	e.after(m, keyDuel, e.timings.DuelCeiling, func(m *Match) {
		if m.Duel != d || s.Ended {
			return
		}
		e.log.WithField("match", m.ID).Debugf("duel %s hit its time ceiling", s.ID)
		e.finishDuelSession(m, d, true)
	})
}

// finishDuelSession scores the duel minigame. Ties, and duels nobody scored in, go to the challenger.
// resumeTurn moves the turn on to the roll when the duel ends after the item call returned.
func (e *Engine) finishDuelSession(m *Match, d *Duel, resumeTurn bool) {
	s := d.Session
	e.sched.Cancel(m.ID, keyDuel)
	winner := d.ChallengerID
	if w := s.winners(); len(w) == 1 {
		winner = w[0]
	}
	e.settle(m, s, []uuid.UUID{winner})

	scores := make(map[string]float64, len(s.Scores))
	for id, sc := range s.Scores {
		scores[id.String()] = sc
	}
	e.resolveDuel(m, d, winner, map[string]interface{}{"scores": scores})
	if resumeTurn && m.Phase == PhaseItemUse {
		e.setPhase(m, PhaseDiceRoll)
	}
}

// resolveDuel moves the stake from loser to winner.
func (e *Engine) resolveDuel(m *Match, d *Duel, winnerID uuid.UUID, payload map[string]interface{}) {
	loserID := d.TargetID
	if winnerID == d.TargetID {
		loserID = d.ChallengerID
	}
	winner, loser := m.player(winnerID), m.player(loserID)
	amount := -loser.AddCoins(-d.Stake)
	winner.AddCoins(amount)
	m.Duel = nil

	payload["challengerId"] = d.ChallengerID
	payload["targetId"] = d.TargetID
	payload["winnerId"] = winnerID
	payload["stake"] = d.Stake
	payload["transferred"] = amount
	e.emit(m, winnerID, EventDuelResolved, payload)
}
