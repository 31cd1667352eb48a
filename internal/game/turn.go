package game

import (
	"github.com/google/uuid"

	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/catalog"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/models"
)

// ItemOptions carries the extra input some items need.
type ItemOptions struct {
	DiceValue int       // dice choice
	Target    uuid.UUID // duel opponent; uuid.Nil picks one at random
}

// Roll rolls the dice for the current player.
func (e *Engine) Roll(matchID, playerID uuid.UUID) error {
	return e.withMatch(matchID, func(m *Match) error {
		return e.roll(m, playerID)
	})
}

// Move takes one step toward a connected space.
func (e *Engine) Move(matchID, playerID uuid.UUID, target string) error {
	return e.withMatch(matchID, func(m *Match) error {
		return e.move(m, playerID, target)
	})
}

// UseItem uses the held item at index.
func (e *Engine) UseItem(matchID, playerID uuid.UUID, index int, opts ItemOptions) error {
	return e.withMatch(matchID, func(m *Match) error {
		return e.useItem(m, playerID, index, opts)
	})
}

// SkipItem passes on item use and moves on to the roll.
func (e *Engine) SkipItem(matchID, playerID uuid.UUID) error {
	return e.withMatch(matchID, func(m *Match) error {
		return e.skipItem(m, playerID)
	})
}

// BuyStar accepts the pending star offer.
func (e *Engine) BuyStar(matchID, playerID uuid.UUID) error {
	return e.withMatch(matchID, func(m *Match) error {
		return e.answerStar(m, playerID, true)
	})
}

// DeclineStar turns the pending star offer down.
func (e *Engine) DeclineStar(matchID, playerID uuid.UUID) error {
	return e.withMatch(matchID, func(m *Match) error {
		return e.answerStar(m, playerID, false)
	})
}

// beginTurn resets per-turn state and opens the item phase for the current player.
func (e *Engine) beginTurn(m *Match) {
	p := m.current()
	m.turn = turnState{from: p.Space, coinsAtStart: p.Coins, starsAtStart: p.Stars}
	m.MovesLeft = 0
	if !e.setPhase(m, PhaseTurnStart) {
		return
	}
	e.emit(m, p.ID, EventTurnStart, map[string]interface{}{
		"playerId":  p.ID,
		"turn":      m.Turn,
		"maxTurns":  m.MaxTurns,
		"finalTurn": m.finalTurn(),
	})
	e.setPhase(m, PhaseItemUse)
	if len(p.Items) == 0 {
		e.emit(m, p.ID, EventItemSkipped, map[string]interface{}{"playerId": p.ID, "auto": true})
		e.setPhase(m, PhaseDiceRoll)
	}
}

func (e *Engine) skipItem(m *Match, playerID uuid.UUID) error {
	p, err := requireTurn(m, playerID, PhaseItemUse)
	if err != nil {
		return err
	}
	e.emit(m, p.ID, EventItemSkipped, map[string]interface{}{"playerId": p.ID})
	e.setPhase(m, PhaseDiceRoll)
	return nil
}

func (e *Engine) useItem(m *Match, playerID uuid.UUID, index int, opts ItemOptions) error {
	p, err := requireTurn(m, playerID, PhaseItemUse)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(p.Items) {
		return ErrItemNotHeld
	}
	def, err := e.cat.Item(p.Items[index])
	if err != nil {
		return ErrItemNotHeld
	}

	// validate before the item is consumed
	var duelTarget *models.Player
	switch def.Effect.(type) {
	case catalog.DiceChoice:
		if opts.DiceValue < 1 || opts.DiceValue > diceSides {
			return ErrInvalidDice
		}
	case catalog.DuelStart:
		if opts.Target != uuid.Nil {
			duelTarget = m.player(opts.Target)
			if duelTarget == nil || duelTarget.ID == p.ID {
				return ErrNotInMatch
			}
		} else {
			duelTarget = m.randomOpponent(p.ID)
		}
		if duelTarget == nil {
			return ErrNotInMatch
		}
	}

	p.RemoveItemAt(index)
	p.Stats.ItemsUsed++
	payload := map[string]interface{}{
		"playerId": p.ID,
		"itemId":   def.ID,
		"effect":   catalog.EffectKind(def.Effect),
	}

	switch eff := def.Effect.(type) {
	case catalog.DiceMultiplier:
		m.turn.diceFactor = eff.Factor
	case catalog.DiceChoice:
		m.turn.diceChoice = opts.DiceValue
		payload["value"] = opts.DiceValue
	case catalog.CoinSteal:
		if victim := m.randomOpponent(p.ID); victim != nil {
			taken := -victim.AddCoins(-eff.Amount)
			p.AddCoins(taken)
			payload["victimId"] = victim.ID
			payload["amount"] = taken
		}
	case catalog.PositionSwap:
		if other := m.randomOpponent(p.ID); other != nil {
			p.Space, other.Space = other.Space, p.Space
			payload["otherId"] = other.ID
			payload["space"] = p.Space
			payload["otherSpace"] = other.Space
		}
	case catalog.StarDiscount:
		m.turn.discount = eff.Amount
	case catalog.StarTeleport:
		p.Space = m.StarSpace
		payload["space"] = p.Space
	case catalog.DuelStart:
		payload["targetId"] = duelTarget.ID
	}
	e.emit(m, p.ID, EventItemUsed, payload)

	switch eff := def.Effect.(type) {
	case catalog.StarTeleport:
		if e.offerStar(m, p, PhaseItemUse) {
			return nil
		}
	case catalog.DuelStart:
		e.startDuel(m, p, duelTarget, eff.Stake)
		if m.Duel != nil {
			return nil
		}
	}
	e.setPhase(m, PhaseDiceRoll)
	return nil
}

func (e *Engine) roll(m *Match, playerID uuid.UUID) error {
	p, err := requireTurn(m, playerID, PhaseDiceRoll)
	if err != nil {
		return err
	}
	face := m.turn.diceChoice
	if face == 0 {
		face = 1 + m.rng.Intn(diceSides)
	}
	total := face
	if m.turn.diceFactor > 1 {
		total *= m.turn.diceFactor
	}
	if m.Finale == FinaleDiceMultiplier {
		total *= 2
	}
	m.turn.roll = total
	m.MovesLeft = total
	e.emit(m, p.ID, EventDiceRolled, map[string]interface{}{
		"playerId": p.ID,
		"face":     face,
		"total":    total,
	})
	e.setPhase(m, PhaseMoving)
	e.continueMoving(m, p)
	return nil
}

func (e *Engine) move(m *Match, playerID uuid.UUID, target string) error {
	p, err := requireTurn(m, playerID, PhaseMoving)
	if err != nil {
		return err
	}
	if !m.Board.Connected(p.Space, target) {
		return ErrInvalidMove
	}
	e.step(m, p, target)
	e.continueMoving(m, p)
	return nil
}

// step moves p one space and offers the star when passing over it.
func (e *Engine) step(m *Match, p *models.Player, target string) {
	from := p.Space
	p.Space = target
	m.MovesLeft--
	p.Stats.SpacesTraveled++
	e.emit(m, p.ID, EventMoved, map[string]interface{}{
		"playerId":  p.ID,
		"from":      from,
		"to":        target,
		"movesLeft": m.MovesLeft,
	})
	if target == m.StarSpace && m.MovesLeft > 0 {
		e.offerStar(m, p, PhaseMoving)
	}
}

// continueMoving walks forced steps until a junction, an offer or the end of the roll.
func (e *Engine) continueMoving(m *Match, p *models.Player) {
	for m.Pending == nil && m.MovesLeft > 0 {
		sp, ok := m.Board.Space(p.Space)
		if !ok {
			e.log.WithField("match", m.ID).Errorf("player %s stands on unknown space %s", p.ID, p.Space)
			return
		}
		if len(sp.Next) != 1 {
			e.emit(m, p.ID, EventJunction, map[string]interface{}{
				"playerId":  p.ID,
				"space":     sp.ID,
				"options":   sp.Next,
				"movesLeft": m.MovesLeft,
			})
			return
		}
		e.step(m, p, sp.Next[0])
	}
	if m.Pending == nil && m.MovesLeft == 0 {
		e.land(m, p)
	}
}

// land resolves the space the roll ended on.
func (e *Engine) land(m *Match, p *models.Player) {
	if !e.setPhase(m, PhaseSpaceEvent) {
		return
	}
	sp, _ := m.Board.Space(p.Space)
	p.RecordLanding(string(sp.Type))
	e.resolveSpace(m, p, sp)
}

// finishSpace closes the current turn once its space effect has been applied.
func (e *Engine) finishSpace(m *Match) {
	p := m.current()
	landed := catalog.SpaceType(p.LastLanded)
	m.History = append(m.History, TurnRecord{
		Turn:      m.Turn,
		PlayerID:  p.ID,
		Roll:      m.turn.roll,
		From:      m.turn.from,
		To:        p.Space,
		Landed:    landed,
		CoinDelta: p.Coins - m.turn.coinsAtStart,
		StarDelta: p.Stars - m.turn.starsAtStart,
	})
	if !e.setPhase(m, PhaseTurnEnd) {
		return
	}
	e.endTurn(m)
}

// endTurn hands the turn to the next player or closes the round with a minigame.
func (e *Engine) endTurn(m *Match) {
	if m.Current+1 < len(m.Players) {
		m.Current++
		e.beginTurn(m)
		return
	}
	e.startIntro(m, false)
}

// nextRound runs after the last minigame of a round.
func (e *Engine) nextRound(m *Match) {
	m.Versus = false
	m.versusPlayed = false
	m.Turn++
	if m.Turn > m.MaxTurns {
		e.endMatch(m)
		return
	}
	m.Current = 0
	e.maybeDrawFinale(m)
	e.beginTurn(m)
}

// starOfferPrice is what p pays right now and the inventory index of a coupon that would be spent.
func (e *Engine) starOfferPrice(m *Match, p *models.Player) (int, int) {
	if m.turn.discount > 0 {
		return m.starPriceWith(m.turn.discount), -1
	}
	for i, id := range p.Items {
		it, err := e.cat.Item(id)
		if err != nil {
			continue
		}
		if d, ok := it.Effect.(catalog.StarDiscount); ok {
			return m.starPriceWith(d.Amount), i
		}
	}
	return m.starPriceWith(0), -1
}

// offerStar opens a purchase offer if p can afford it. It reports whether an offer is pending.
func (e *Engine) offerStar(m *Match, p *models.Player, origin Phase) bool {
	price, _ := e.starOfferPrice(m, p)
	if p.Coins < price {
		e.emit(m, p.ID, EventStarDeclined, map[string]interface{}{
			"playerId": p.ID,
			"price":    price,
			"reason":   "insufficient_coins",
		})
		return false
	}
	sub := &SubEvent{Kind: SubEventStarOffer, PlayerID: p.ID, Price: price, origin: origin}
	m.Pending = sub
	e.emit(m, p.ID, EventStarOffer, map[string]interface{}{
		"playerId": p.ID,
		"price":    price,
		"space":    m.StarSpace,
	})
	e.after(m, keyOffer, e.timings.OfferTimeout, func(m *Match) {
		if m.Pending != sub {
			return
		}
		e.log.WithField("match", m.ID).Debugf("star offer to %s timed out", sub.PlayerID)
		_ = e.answerStar(m, sub.PlayerID, false)
	})
	return true
}

func (e *Engine) answerStar(m *Match, playerID uuid.UUID, buy bool) error {
	sub := m.Pending
	if sub == nil || sub.Kind != SubEventStarOffer {
		return ErrNoPendingOffer
	}
	if sub.PlayerID != playerID {
		return ErrNotYourTurn
	}
	p := m.player(playerID)
	if buy {
		price, coupon := e.starOfferPrice(m, p)
		if p.Coins < price {
			return ErrInsufficientCoins
		}
		if coupon >= 0 {
			p.RemoveItemAt(coupon)
			p.Stats.ItemsUsed++
		}
		p.AddCoins(-price)
		p.AddStars(1)
		m.turn.discount = 0
		m.Pending = nil
		e.sched.Cancel(m.ID, keyOffer)
		e.emit(m, p.ID, EventStarPurchased, map[string]interface{}{
			"playerId":     p.ID,
			"price":        price,
			"couponUsed":   coupon >= 0,
			"stars":        p.Stars,
			"coins":        p.Coins,
			"vacatedSpace": m.StarSpace,
		})
		e.relocateStar(m)
	} else {
		m.Pending = nil
		e.sched.Cancel(m.ID, keyOffer)
		e.emit(m, p.ID, EventStarDeclined, map[string]interface{}{"playerId": p.ID})
	}
	e.resume(m, p, sub.origin)
	return nil
}

// relocateStar moves the star to a different eligible space.
func (e *Engine) relocateStar(m *Match) {
	var options []string
	for _, id := range m.Board.StarSpaces() {
		if id != m.StarSpace {
			options = append(options, id)
		}
	}
	if len(options) == 0 {
		return
	}
	from := m.StarSpace
	m.StarSpace = options[m.rng.Intn(len(options))]
	e.emit(m, uuid.Nil, EventStarMoved, map[string]interface{}{"from": from, "to": m.StarSpace})
}

// resume continues the turn from where an answered sub-event interrupted it.
func (e *Engine) resume(m *Match, p *models.Player, origin Phase) {
	switch origin {
	case PhaseMoving:
		e.continueMoving(m, p)
	case PhaseItemUse:
		e.setPhase(m, PhaseDiceRoll)
	case PhaseSpaceEvent:
		e.finishSpace(m)
	}
}
