// internal/models/settings.go
package models

// Difficulty is a CPU player's skill tier.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyNormal Difficulty = "normal"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is one of the known tiers.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyNormal, DifficultyHard:
		return true
	}
	return false
}

// Allowed values for each lobby setting. Anything else falls back to the default.
var (
	AllowedTurns         = []int{1, 5, 10, 15, 20, 25, 30}
	AllowedStartingCoins = []int{0, 5, 10, 20, 50}
	AllowedMaxPlayers    = []int{2, 3, 4, 5, 6, 7, 8}
)

// MatchSettings is chosen in the lobby and copied into a match at creation.
type MatchSettings struct {
	Turns         int        `json:"turns"`
	StartingCoins int        `json:"startingCoins"`
	BonusStars    bool       `json:"bonusStars"`
	CPUDifficulty Difficulty `json:"cpuDifficulty"`
	MaxPlayers    int        `json:"maxPlayers"`
}

// DefaultSettings returns the settings a new lobby starts with.
func DefaultSettings() MatchSettings {
	return MatchSettings{
		Turns:         10,
		StartingCoins: 10,
		BonusStars:    true,
		CPUDifficulty: DifficultyNormal,
		MaxPlayers:    4,
	}
}

// SettingsPatch carries a partial update; nil fields are left untouched.
type SettingsPatch struct {
	Turns         *int        `json:"turns,omitempty"`
	StartingCoins *int        `json:"startingCoins,omitempty"`
	BonusStars    *bool       `json:"bonusStars,omitempty"`
	CPUDifficulty *Difficulty `json:"cpuDifficulty,omitempty"`
	MaxPlayers    *int        `json:"maxPlayers,omitempty"`
}

// Apply merges the patch into s. Values outside the allow-lists are replaced by defaults.
func (s MatchSettings) Apply(p SettingsPatch) MatchSettings {
	def := DefaultSettings()
	if p.Turns != nil {
		s.Turns = oneOf(*p.Turns, AllowedTurns, def.Turns)
	}
	if p.StartingCoins != nil {
		s.StartingCoins = oneOf(*p.StartingCoins, AllowedStartingCoins, def.StartingCoins)
	}
	if p.BonusStars != nil {
		s.BonusStars = *p.BonusStars
	}
	if p.CPUDifficulty != nil {
		s.CPUDifficulty = *p.CPUDifficulty
		if !s.CPUDifficulty.Valid() {
			s.CPUDifficulty = def.CPUDifficulty
		}
	}
	if p.MaxPlayers != nil {
		s.MaxPlayers = oneOf(*p.MaxPlayers, AllowedMaxPlayers, def.MaxPlayers)
	}
	return s
}

func oneOf(v int, allowed []int, fallback int) int {
	for _, a := range allowed {
		if a == v {
			return v
		}
	}
	return fallback
}
