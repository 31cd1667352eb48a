package models

import "github.com/google/uuid"

// Seat is one player handed from a lobby to a new match.
type Seat struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	IsBot      bool       `json:"isBot"`
	Difficulty Difficulty `json:"difficulty,omitempty"`
	Character  string     `json:"character"`
}

// MatchConfig is the frozen snapshot a lobby produces when its vote resolves.
type MatchConfig struct {
	MatchID      uuid.UUID     `json:"matchId"` // uuid.Nil lets the engine pick one
	LobbyID      uuid.UUID     `json:"lobbyId"`
	BoardID      string        `json:"boardId"`
	Seats        []Seat        `json:"seats"`
	Settings     MatchSettings `json:"settings"`
	ShowTutorial bool          `json:"showTutorial"`
}
