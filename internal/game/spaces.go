package game

import (
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/catalog"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/models"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/weighted"
)

// effectiveType applies the finale conversions to a space type.
func effectiveType(m *Match, t catalog.SpaceType) catalog.SpaceType {
	switch {
	case t == catalog.SpaceLoss && m.Finale == FinaleLossToGain:
		return catalog.SpaceGain
	case t == catalog.SpaceEvent && m.Finale == FinaleEncounters:
		return catalog.SpaceEncounter
	}
	return t
}

// coinSpaceDelta is the signed amount a gain or loss space pays this turn.
func coinSpaceDelta(m *Match, t catalog.SpaceType) int {
	delta := gainDelta
	if t == catalog.SpaceLoss {
		delta = lossDelta
	}
	if m.finalTurn() {
		delta *= 2
	}
	if m.Finale == FinaleCoinMultiplier {
		delta *= 2
	}
	return delta
}

func (e *Engine) resolveSpace(m *Match, p *models.Player, sp *catalog.Space) {
	t := effectiveType(m, sp.Type)
	payload := map[string]interface{}{
		"playerId": p.ID,
		"space":    sp.ID,
		"type":     t,
	}

	switch t {
	case catalog.SpaceGain, catalog.SpaceLoss:
		payload["coins"] = p.AddCoins(coinSpaceDelta(m, t))
		e.emit(m, p.ID, EventSpaceResolved, payload)
		e.finishSpace(m)

	case catalog.SpaceEvent:
		events := sp.EventList()
		ev := events[m.rng.Intn(len(events))]
		payload["event"] = ev
		e.applyRandomEvent(m, p, ev, payload)
		e.emit(m, p.ID, EventRandomEvent, payload)
		e.finishSpace(m)

	case catalog.SpaceShop:
		e.openShop(m, p, sp)

	case catalog.SpaceVersus:
		m.Versus = true
		e.emit(m, p.ID, EventVersusQueued, payload)
		e.finishSpace(m)

	case catalog.SpaceFortune, catalog.SpaceHazard:
		e.drawOutcome(m, p, t, payload)
		e.finishSpace(m)

	case catalog.SpaceEncounter:
		e.spinEncounter(m, p, payload)

	default:
		e.emit(m, p.ID, EventSpaceResolved, payload)
		e.finishSpace(m)
	}
}

func (e *Engine) applyRandomEvent(m *Match, p *models.Player, ev catalog.RandomEvent, payload map[string]interface{}) {
	switch ev {
	case catalog.EventGiftAll:
		for _, pl := range m.Players {
			pl.AddCoins(giftAllAmount)
		}
		payload["amount"] = giftAllAmount
	case catalog.EventSteal:
		if victim := m.randomOpponent(p.ID); victim != nil {
			taken := -victim.AddCoins(-eventSteal)
			p.AddCoins(taken)
			payload["victimId"] = victim.ID
			payload["amount"] = taken
		}
	case catalog.EventShuffle:
		spaces := make([]string, len(m.Players))
		for i, pl := range m.Players {
			spaces[i] = pl.Space
		}
		m.rng.Shuffle(len(spaces), func(i, j int) { spaces[i], spaces[j] = spaces[j], spaces[i] })
		positions := make(map[string]string, len(m.Players))
		for i, pl := range m.Players {
			pl.Space = spaces[i]
			positions[pl.ID.String()] = pl.Space
		}
		payload["positions"] = positions
	case catalog.EventTeleport:
		options := m.Board.NonStartSpaces()
		if len(options) > 0 {
			p.Space = options[m.rng.Intn(len(options))]
			payload["to"] = p.Space
		}
	}
}

// drawOutcome picks and applies one row of the table for t.
func (e *Engine) drawOutcome(m *Match, p *models.Player, t catalog.SpaceType, payload map[string]interface{}) {
	row, ok := weighted.Pick(m.rng, outcomeTable(t, m.Finale))
	if !ok {
		e.emit(m, p.ID, EventSpaceResolved, payload)
		return
	}
	payload["outcome"] = row.Name
	e.applyOutcome(m, p, row.Outcome, payload)
	e.emit(m, p.ID, EventOutcome, payload)
}

func (e *Engine) applyOutcome(m *Match, p *models.Player, o Outcome, payload map[string]interface{}) {
	switch v := o.(type) {
	case CoinDelta:
		payload["coins"] = p.AddCoins(v.Amount)
	case StarDelta:
		payload["stars"] = p.AddStars(v.Amount)
	case GrantItem:
		id := v.ItemID
		if id == "" {
			items := e.cat.Items()
			if len(items) == 0 {
				return
			}
			id = items[m.rng.Intn(len(items))].ID
		}
		if p.AddItem(id) {
			payload["itemId"] = id
		} else {
			payload["itemId"] = ""
			payload["reason"] = "inventory_full"
		}
	case StealCoins:
		if victim := m.randomOpponent(p.ID); victim != nil {
			taken := -victim.AddCoins(-v.Amount)
			p.AddCoins(taken)
			payload["victimId"] = victim.ID
			payload["coins"] = taken
		}
	case Revolution:
		total := 0
		for _, pl := range m.Players {
			total += pl.Coins
		}
		share := total / len(m.Players)
		for _, pl := range m.Players {
			pl.Coins = share
		}
		payload["share"] = share
	case TeleportToStart:
		p.Space = m.Board.Start
		payload["to"] = p.Space
	}
}

// spinEncounter shows the spin and reveals the outcome after a delay.
func (e *Engine) spinEncounter(m *Match, p *models.Player, payload map[string]interface{}) {
	m.spinSeq++
	seq := m.spinSeq
	m.encounter = seq
	playerID := p.ID
	e.emit(m, p.ID, EventEncounterSpin, payload)
	e.after(m, keyEncounter, e.timings.EncounterSpin, func(m *Match) {
		if m.encounter != seq || m.Phase != PhaseSpaceEvent || m.current().ID != playerID {
			return
		}
		m.encounter = 0
		p := m.current()
		sp, _ := m.Board.Space(p.Space)
		e.drawOutcome(m, p, catalog.SpaceEncounter, map[string]interface{}{
			"playerId": playerID,
			"space":    sp.ID,
			"type":     catalog.SpaceEncounter,
		})
		e.finishSpace(m)
	})
}
