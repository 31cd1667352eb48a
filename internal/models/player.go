package models

import "github.com/google/uuid"

// MaxItems is the inventory capacity of a player in a match.
const MaxItems = 3

// PlayerStats are the cumulative per-match counters used for bonus stars and profile updates.
type PlayerStats struct {
	MinigamesWon    int            `json:"minigamesWon"`
	MinigamesPlayed int            `json:"minigamesPlayed"`
	SpacesTraveled  int            `json:"spacesTraveled"`
	ItemsUsed       int            `json:"itemsUsed"`
	Landings        map[string]int `json:"landings"` // space type -> times landed
}

// Player is a participant inside a running match.
type Player struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	IsBot      bool       `json:"isBot"`
	Difficulty Difficulty `json:"difficulty,omitempty"`
	Character  string     `json:"character"`

	Coins int      `json:"coins"`
	Stars int      `json:"stars"`
	Items []string `json:"items"`

	Space      string `json:"space"`
	LastLanded string `json:"lastLanded,omitempty"` // type of the space the last move ended on
	Order      int    `json:"order"`
	Connected  bool   `json:"connected"`

	Stats PlayerStats `json:"stats"`
}

// NewPlayer builds a player with empty counters.
func NewPlayer(id uuid.UUID, name string, order int) *Player {
	return &Player{
		ID:        id,
		Name:      name,
		Order:     order,
		Items:     make([]string, 0, MaxItems),
		Connected: true,
		Stats:     PlayerStats{Landings: make(map[string]int)},
	}
}

// AddCoins applies delta, clamping the balance at zero, and returns the change actually applied.
func (p *Player) AddCoins(delta int) int {
	before := p.Coins
	p.Coins += delta
	if p.Coins < 0 {
		p.Coins = 0
	}
	return p.Coins - before
}

// AddStars applies delta, clamping at zero, and returns the change actually applied.
func (p *Player) AddStars(delta int) int {
	before := p.Stars
	p.Stars += delta
	if p.Stars < 0 {
		p.Stars = 0
	}
	return p.Stars - before
}

// AddItem appends an item if there is room.
func (p *Player) AddItem(itemID string) bool {
	if len(p.Items) >= MaxItems {
		return false
	}
	p.Items = append(p.Items, itemID)
	return true
}

// HasItem returns the index of the first held copy of itemID, or -1.
func (p *Player) HasItem(itemID string) int {
	for i, id := range p.Items {
		if id == itemID {
			return i
		}
	}
	return -1
}

// RemoveItemAt drops the item at idx and returns its id.
func (p *Player) RemoveItemAt(idx int) (string, bool) {
	if idx < 0 || idx >= len(p.Items) {
		return "", false
	}
	id := p.Items[idx]
	p.Items = append(p.Items[:idx], p.Items[idx+1:]...)
	return id, true
}

// RecordLanding bumps the per-space-type landing counter.
func (p *Player) RecordLanding(spaceType string) {
	if p.Stats.Landings == nil {
		p.Stats.Landings = make(map[string]int)
	}
	p.Stats.Landings[spaceType]++
	p.LastLanded = spaceType
}

// Clone returns a deep copy safe to hand to code that must not mutate match state.
func (p *Player) Clone() Player {
	c := *p
	c.Items = append([]string(nil), p.Items...)
	c.Stats.Landings = make(map[string]int, len(p.Stats.Landings))
	for k, v := range p.Stats.Landings {
		c.Stats.Landings[k] = v
	}
	return c
}
