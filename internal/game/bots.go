package game

import (
	"github.com/google/uuid"

	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/bot"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/catalog"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/models"
)

// brainFor returns the decision maker for p. Disconnected humans play as normal bots.
func (e *Engine) brainFor(m *Match, p *models.Player) *bot.Brain {
	level := models.DifficultyNormal
	if p.IsBot {
		level = p.Difficulty
	}
	return bot.NewBrain(level, m.rng)
}

// awaiting returns the player the match is waiting on outside of minigames, if any.
func awaiting(m *Match) *models.Player {
	if m.Ended {
		return nil
	}
	if m.Pending != nil {
		return m.player(m.Pending.PlayerID)
	}
	if m.Duel != nil {
		return nil
	}
	switch m.Phase {
	case PhaseItemUse, PhaseDiceRoll, PhaseMoving:
		return m.current()
	}
	return nil
}

// botTask identifies the decision an armed auto-play timer is waiting to make.
type botTask struct {
	playerID uuid.UUID
	phase    Phase
	pending  *SubEvent
}

// drive schedules the next automatic action when the match waits on a bot or a
// disconnected player. Caller holds m.Mu.
func (e *Engine) drive(m *Match) {
	p := awaiting(m)
	if p == nil || !autoPlayed(p) {
		if m.botTask != nil {
			m.botTask = nil
			e.sched.Cancel(m.ID, keyBot)
		}
		return
	}
	task := botTask{playerID: p.ID, phase: m.Phase, pending: m.Pending}
	if m.botTask != nil && *m.botTask == task {
		return
	}
	m.botTask = &task
	level := models.DifficultyNormal
	if p.IsBot {
		level = p.Difficulty
	}
	e.after(m, keyBot, e.timings.BotThink(level), func(m *Match) {
		if m.botTask == nil || *m.botTask != task {
			return
		}
		m.botTask = nil
		p := awaiting(m)
		if p == nil || p.ID != task.playerID || m.Phase != task.phase || m.Pending != task.pending || !autoPlayed(p) {
			return
		}
		if err := e.botStep(m, p); err != nil {
			e.log.WithField("match", m.ID).Warnf("auto-play for %s in %s failed: %v", p.ID, m.Phase, err)
		}
	})
}

func (e *Engine) situation(m *Match, p *models.Player) bot.Situation {
	s := bot.Situation{
		Self:      p.Clone(),
		Board:     m.Board,
		StarSpace: m.StarSpace,
		StarPrice: m.starPriceWith(0),
		TurnsLeft: m.turnsLeft(),
	}
	for _, o := range m.opponents(p.ID) {
		s.Opponents = append(s.Opponents, o.Clone())
	}
	for _, id := range p.Items {
		if it, err := e.cat.Item(id); err == nil {
			s.Items = append(s.Items, it)
		}
	}
	return s
}

// botStep performs one decision through the same paths a human intent takes.
func (e *Engine) botStep(m *Match, p *models.Player) error {
	brain := e.brainFor(m, p)
	s := e.situation(m, p)

	if sub := m.Pending; sub != nil {
		switch sub.Kind {
		case SubEventStarOffer:
			return e.answerStar(m, p.ID, brain.WantsStar(s, sub.Price))
		case SubEventShop:
			offers := make([]bot.Offer, 0, len(sub.Offers))
			for _, o := range sub.Offers {
				if it, err := e.cat.Item(o.ItemID); err == nil {
					offers = append(offers, bot.Offer{Item: it, Price: o.Price})
				}
			}
			if id, ok := brain.ChooseShopItem(s, offers); ok {
				if err := e.buyItem(m, p.ID, id); err == nil {
					return nil
				}
			}
			return e.closeShop(m, p.ID, "skipped")
		}
		return nil
	}

	switch m.Phase {
	case PhaseItemUse:
		idx, use := brain.ChooseItem(s)
		if !use || idx >= len(s.Items) {
			return e.skipItem(m, p.ID)
		}
		opts := ItemOptions{}
		if _, ok := s.Items[idx].Effect.(catalog.DiceChoice); ok {
			opts.DiceValue = brain.DiceValue(s)
		}
		if err := e.useItem(m, p.ID, idx, opts); err != nil {
			return e.skipItem(m, p.ID)
		}
		return nil
	case PhaseDiceRoll:
		return e.roll(m, p.ID)
	case PhaseMoving:
		sp, ok := m.Board.Space(p.Space)
		if !ok {
			return ErrInvalidMove
		}
		return e.move(m, p.ID, brain.ChooseSpace(s, sp.Next))
	}
	return nil
}
