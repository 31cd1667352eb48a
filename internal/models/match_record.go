package models

import (
	"time"

	"github.com/google/uuid"
)

// MatchRecord is the persisted summary of a finished match.
type MatchRecord struct {
	ID           uuid.UUID           `json:"id"`
	LobbyID      uuid.UUID           `json:"lobby_id"`
	BoardID      string              `json:"board_id"`
	Turns        int                 `json:"turns"`
	StartedAt    time.Time           `json:"started_at"`
	EndedAt      time.Time           `json:"ended_at"`
	Participants []ParticipantRecord `json:"participants"`
}

// ParticipantRecord is one player's final line in a MatchRecord.
type ParticipantRecord struct {
	UserID       uuid.UUID `json:"user_id"`
	Name         string    `json:"name"`
	IsBot        bool      `json:"is_bot"`
	Placement    int       `json:"placement"`
	Stars        int       `json:"stars"`
	Coins        int       `json:"coins"`
	BonusStars   int       `json:"bonus_stars"`
	MinigamesWon int       `json:"minigames_won"`
	Credits      int       `json:"credits"`
}
