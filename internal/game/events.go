package game

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/cache"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/models"
)

// EventType names an outbound match event.
type EventType string

const (
	EventMatchStarted      EventType = "match_started"
	EventPhase             EventType = "phase"
	EventTurnStart         EventType = "turn_start"
	EventItemUsed          EventType = "item_used"
	EventItemSkipped       EventType = "item_skipped"
	EventDiceRolled        EventType = "dice_rolled"
	EventMoved             EventType = "moved"
	EventJunction          EventType = "junction"
	EventStarOffer         EventType = "star_offer"
	EventStarPurchased     EventType = "star_purchased"
	EventStarDeclined      EventType = "star_declined"
	EventStarMoved         EventType = "star_moved"
	EventSpaceResolved     EventType = "space_resolved"
	EventRandomEvent       EventType = "random_event"
	EventOutcome           EventType = "outcome"
	EventEncounterSpin     EventType = "encounter_spin"
	EventShopOpened        EventType = "shop_opened"
	EventShopPurchase      EventType = "shop_purchase"
	EventShopClosed        EventType = "shop_closed"
	EventVersusQueued      EventType = "versus_queued"
	EventDuelStarted       EventType = "duel_started"
	EventDuelResolved      EventType = "duel_resolved"
	EventMinigameIntro     EventType = "minigame_intro"
	EventMinigameStart     EventType = "minigame_start"
	EventMinigameScore     EventType = "minigame_score"
	EventMinigameResults   EventType = "minigame_results"
	EventFinaleModifier    EventType = "finale_modifier"
	EventBonusStars        EventType = "bonus_stars"
	EventMatchEnd          EventType = "match_end"
	EventPlayerConnection  EventType = "player_connection"
	EventChat              EventType = "chat"
	EventEmote             EventType = "emote"
	EventPrivateSyncState  EventType = "private_sync_state"
	EventPrivateShopOffers EventType = "private_shop_offers"
)

// emit broadcasts to the whole match room and records the action. Caller holds m.Mu.
func (e *Engine) emit(m *Match, actor uuid.UUID, typ EventType, payload map[string]interface{}) {
	e.out.Broadcast(m.ID, models.Event{Type: string(typ), Room: m.ID, Payload: payload})
	e.logAction(m, actor, string(typ), payload)
}

// emitTo sends a private event. Private events are not written to the action log.
func (e *Engine) emitTo(m *Match, userID uuid.UUID, typ EventType, payload map[string]interface{}) {
	e.out.SendTo(userID, models.Event{Type: string(typ), Room: m.ID, Payload: payload})
}

// logAction hands a record to the action log without blocking the match.
func (e *Engine) logAction(m *Match, actor uuid.UUID, actionType string, payload map[string]interface{}) {
	m.actionIndex++
	if e.actions == nil {
		return
	}
	if payload == nil {
		payload = map[string]interface{}{}
	}
	rec := cache.ActionRecord{
		MatchID:       m.ID,
		ActionIndex:   m.actionIndex,
		ActorUserID:   actor,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     e.now().UnixMilli(),
	}
	go func(rec cache.ActionRecord) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := e.actions.Publish(ctx, rec); err != nil {
			e.log.WithField("match", rec.MatchID).Warnf("publish action %d: %v", rec.ActionIndex, err)
		}
	}(rec)
}
