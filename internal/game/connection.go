package game

import (
	"strings"

	"github.com/google/uuid"

	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/models"
)

// SetConnected flags a player as connected or not. While disconnected the player is
// auto-played; on reconnect they receive a private snapshot.
func (e *Engine) SetConnected(matchID, playerID uuid.UUID, connected bool) error {
	return e.withMatch(matchID, func(m *Match) error {
		p := m.player(playerID)
		if p == nil {
			return ErrNotInMatch
		}
		if p.Connected == connected {
			if connected {
				e.sendSnapshot(m, playerID)
			}
			return nil
		}
		p.Connected = connected
		e.emit(m, playerID, EventPlayerConnection, map[string]interface{}{
			"playerId":  playerID,
			"connected": connected,
		})
		if connected {
			e.sendSnapshot(m, playerID)
			return nil
		}

		// settle anything the player still owes a running contest
		if d := m.Duel; d != nil && d.Session != nil && !d.Session.Ended && d.Session.has(playerID) && !d.Session.hasSubmitted(playerID) {
			e.autoScore(m, d.Session, p)
			if d.Session.complete() {
				e.finishDuelSession(m, d, true)
			}
		}
		if s := m.Minigame; s != nil && m.Phase == PhaseMinigame && !s.Ended && s.has(playerID) && !s.hasSubmitted(playerID) {
			e.autoScore(m, s, p)
			if s.complete() {
				e.resolveMinigame(m)
			}
		}
		return nil
	})
}

// Chat relays a message to the match room.
func (e *Engine) Chat(matchID, playerID uuid.UUID, text string) error {
	text = models.Truncate(strings.TrimSpace(text), maxChatLength)
	if text == "" {
		return nil
	}
	return e.relay(matchID, playerID, EventChat, map[string]interface{}{"playerId": playerID, "text": text})
}

// Emote relays an emote id to the match room.
func (e *Engine) Emote(matchID, playerID uuid.UUID, emote string) error {
	if emote == "" || len(emote) > 32 {
		return nil
	}
	return e.relay(matchID, playerID, EventEmote, map[string]interface{}{"playerId": playerID, "emote": emote})
}

// relay broadcasts without touching turn state.
func (e *Engine) relay(matchID, playerID uuid.UUID, typ EventType, payload map[string]interface{}) error {
	m, ok := e.matches.Get(matchID)
	if !ok {
		return ErrMatchNotFound
	}
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.player(playerID) == nil {
		return ErrNotInMatch
	}
	e.emit(m, playerID, typ, payload)
	return nil
}

// ActiveMatch returns the running match userID plays in. Ended matches waiting for cleanup are skipped.
func (e *Engine) ActiveMatch(userID uuid.UUID) (uuid.UUID, bool) {
	for _, m := range e.matches.ByPlayer(userID) {
		m.Mu.Lock()
		ended := m.Ended
		m.Mu.Unlock()
		if !ended {
			return m.ID, true
		}
	}
	return uuid.Nil, false
}
