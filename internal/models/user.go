package models

import "github.com/google/uuid"

// User is a persistent account record.
type User struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Password string    `json:"password,omitempty"`
	Username string    `json:"username"`

	IsEphemeral bool `json:"is_ephemeral"`
	Credits     int  `json:"credits"`
}

// Profile holds lifetime counters for an account.
type Profile struct {
	UserID       uuid.UUID `json:"user_id"`
	GamesPlayed  int       `json:"games_played"`
	Wins         int       `json:"wins"`
	TotalStars   int       `json:"total_stars"`
	TotalCoins   int       `json:"total_coins"`
	MinigamesWon int       `json:"minigames_won"`
	Rating       int       `json:"rating"`
}

// ProfileDelta is added to a Profile's counters.
type ProfileDelta struct {
	GamesPlayed  int `json:"games_played"`
	Wins         int `json:"wins"`
	TotalStars   int `json:"total_stars"`
	TotalCoins   int `json:"total_coins"`
	MinigamesWon int `json:"minigames_won"`
	Rating       int `json:"rating"`
}

// Add returns p with d applied.
func (p Profile) Add(d ProfileDelta) Profile {
	p.GamesPlayed += d.GamesPlayed
	p.Wins += d.Wins
	p.TotalStars += d.TotalStars
	p.TotalCoins += d.TotalCoins
	p.MinigamesWon += d.MinigamesWon
	p.Rating += d.Rating
	return p
}
