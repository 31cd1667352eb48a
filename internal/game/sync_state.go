// internal/game/sync_state.go
package game

import (
	"github.com/google/uuid"

	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/models"
)

// PlayerView is a player as any member of the room may see it.
type PlayerView struct {
	ID        uuid.UUID          `json:"id"`
	Name      string             `json:"name"`
	IsBot     bool               `json:"isBot"`
	Character string             `json:"character"`
	Coins     int                `json:"coins"`
	Stars     int                `json:"stars"`
	Items     []string           `json:"items"`
	Space     string             `json:"space"`
	Order     int                `json:"order"`
	Connected bool               `json:"connected"`
	IsCurrent bool               `json:"isCurrent"`
	Stats     models.PlayerStats `json:"stats"`
}

// PendingView describes an open offer. Shop contents are only shown to the shopper.
type PendingView struct {
	Kind     SubEventKind `json:"kind"`
	PlayerID uuid.UUID    `json:"playerId"`
	Price    int          `json:"price,omitempty"`
	Offers   []ShopOffer  `json:"offers,omitempty"`
}

// MinigameView hides other participants' scores until the session ends.
type MinigameView struct {
	SessionID  uuid.UUID             `json:"sessionId"`
	MinigameID string                `json:"minigameId"`
	Mode       MinigameMode          `json:"mode"`
	Versus     bool                  `json:"versus"`
	Teams      [][]uuid.UUID         `json:"teams,omitempty"`
	Submitted  []uuid.UUID           `json:"submitted"`
	Scores     map[uuid.UUID]float64 `json:"scores,omitempty"`
	Ended      bool                  `json:"ended"`
}

// DuelView is the public state of a running duel.
type DuelView struct {
	ChallengerID uuid.UUID     `json:"challengerId"`
	TargetID     uuid.UUID     `json:"targetId"`
	Stake        int           `json:"stake"`
	Minigame     *MinigameView `json:"minigame,omitempty"`
}

// MatchView is the sanitized snapshot sent to late joiners and reconnecting players.
type MatchView struct {
	MatchID         uuid.UUID            `json:"matchId"`
	LobbyID         uuid.UUID            `json:"lobbyId"`
	BoardID         string               `json:"boardId"`
	Settings        models.MatchSettings `json:"settings"`
	Turn            int                  `json:"turn"`
	MaxTurns        int                  `json:"maxTurns"`
	Phase           Phase                `json:"phase"`
	CurrentPlayerID uuid.UUID            `json:"currentPlayerId"`
	StarSpace       string               `json:"starSpace"`
	StarPrice       int                  `json:"starPrice"`
	MovesLeft       int                  `json:"movesLeft"`
	Finale          FinaleModifier       `json:"finale,omitempty"`
	Versus          bool                 `json:"versus"`
	Pending         *PendingView         `json:"pending,omitempty"`
	Duel            *DuelView            `json:"duel,omitempty"`
	Minigame        *MinigameView        `json:"minigame,omitempty"`
	Players         []PlayerView         `json:"players"`
	Ended           bool                 `json:"ended"`
	Result          *Summary             `json:"result,omitempty"`
}

// Snapshot returns the match as seen by forUser.
func (e *Engine) Snapshot(matchID, forUser uuid.UUID) (MatchView, error) {
	m, ok := e.matches.Get(matchID)
	if !ok {
		return MatchView{}, ErrMatchNotFound
	}
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return snapshot(m, forUser), nil
}

func (e *Engine) sendSnapshot(m *Match, userID uuid.UUID) {
	view := snapshot(m, userID)
	e.emitTo(m, userID, EventPrivateSyncState, map[string]interface{}{"state": view})
}

func minigameView(s *MinigameSession, forUser uuid.UUID) *MinigameView {
	v := &MinigameView{
		SessionID:  s.ID,
		MinigameID: s.Game.ID,
		Mode:       s.Mode,
		Versus:     s.Versus,
		Teams:      s.Teams,
		Submitted:  []uuid.UUID{},
		Ended:      s.Ended,
	}
	for _, id := range s.Participants {
		if s.hasSubmitted(id) {
			v.Submitted = append(v.Submitted, id)
		}
	}
	if s.Ended {
		v.Scores = make(map[uuid.UUID]float64, len(s.Scores))
		for id, sc := range s.Scores {
			v.Scores[id] = sc
		}
	} else if sc, ok := s.Scores[forUser]; ok {
		v.Scores = map[uuid.UUID]float64{forUser: sc}
	}
	return v
}

func snapshot(m *Match, forUser uuid.UUID) MatchView {
	v := MatchView{
		MatchID:   m.ID,
		LobbyID:   m.LobbyID,
		BoardID:   m.Board.ID,
		Settings:  m.Settings,
		Turn:      m.Turn,
		MaxTurns:  m.MaxTurns,
		Phase:     m.Phase,
		StarSpace: m.StarSpace,
		StarPrice: m.starPriceWith(0),
		MovesLeft: m.MovesLeft,
		Finale:    m.Finale,
		Versus:    m.Versus,
		Ended:     m.Ended,
		Result:    m.Result,
	}
	if m.Current < len(m.Players) {
		v.CurrentPlayerID = m.current().ID
	}
	for _, p := range m.Players {
		c := p.Clone()
		v.Players = append(v.Players, PlayerView{
			ID:        c.ID,
			Name:      c.Name,
			IsBot:     c.IsBot,
			Character: c.Character,
			Coins:     c.Coins,
			Stars:     c.Stars,
			Items:     c.Items,
			Space:     c.Space,
			Order:     c.Order,
			Connected: c.Connected,
			IsCurrent: !m.Ended && c.ID == v.CurrentPlayerID,
			Stats:     c.Stats,
		})
	}
	if sub := m.Pending; sub != nil {
		pv := &PendingView{Kind: sub.Kind, PlayerID: sub.PlayerID, Price: sub.Price}
		if sub.PlayerID == forUser {
			pv.Offers = append([]ShopOffer(nil), sub.Offers...)
		}
		v.Pending = pv
	}
	if d := m.Duel; d != nil {
		dv := &DuelView{ChallengerID: d.ChallengerID, TargetID: d.TargetID, Stake: d.Stake}
		if d.Session != nil {
			dv.Minigame = minigameView(d.Session, forUser)
		}
		v.Duel = dv
	}
	if m.Minigame != nil {
		v.Minigame = minigameView(m.Minigame, forUser)
	}
	return v
}
