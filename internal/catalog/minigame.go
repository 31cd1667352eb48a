package catalog

// MinigameKind is the scoring classification a minigame is built for.
type MinigameKind string

const (
	KindFFA  MinigameKind = "ffa"
	KindTeam MinigameKind = "team"
	KindDuel MinigameKind = "duel"
)

// Minigame is an opaque named contest. The engine only scores it.
type Minigame struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Kind        MinigameKind `json:"kind"`
	DurationSec int          `json:"durationSec"`
}

// Character is a selectable player avatar.
type Character struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Price in account credits; 0 means every account may pick it.
	Price int `json:"price,omitempty"`
}
