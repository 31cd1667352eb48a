package catalog

import (
	"fmt"
)

// SpaceType tags a board space with the effect resolved when a player lands on it.
type SpaceType string

const (
	SpaceGain      SpaceType = "gain"
	SpaceLoss      SpaceType = "loss"
	SpaceEvent     SpaceType = "event"
	SpaceShop      SpaceType = "shop"
	SpaceVersus    SpaceType = "versus"
	SpaceFortune   SpaceType = "fortune"
	SpaceHazard    SpaceType = "hazard"
	SpaceEncounter SpaceType = "encounter"
	SpaceStart     SpaceType = "start"
)

func (t SpaceType) valid() bool {
	switch t {
	case SpaceGain, SpaceLoss, SpaceEvent, SpaceShop, SpaceVersus,
		SpaceFortune, SpaceHazard, SpaceEncounter, SpaceStart:
		return true
	}
	return false
}

// RandomEvent names one of the effects an event space can pick from.
type RandomEvent string

const (
	EventGiftAll  RandomEvent = "gift_all"
	EventSteal    RandomEvent = "steal"
	EventShuffle  RandomEvent = "shuffle"
	EventTeleport RandomEvent = "teleport"
)

// DefaultEvents is used by event spaces that configure no list of their own.
var DefaultEvents = []RandomEvent{EventGiftAll, EventSteal, EventShuffle, EventTeleport}

// Space is a node of the board graph.
type Space struct {
	ID           string        `json:"id"`
	Type         SpaceType     `json:"type"`
	StarEligible bool          `json:"starEligible,omitempty"`
	Events       []RandomEvent `json:"events,omitempty"`
	ShopTier     int           `json:"shopTier,omitempty"`
	Next         []string      `json:"next"`
}

// EventList returns the space's configured events or the default list.
func (s *Space) EventList() []RandomEvent {
	if len(s.Events) == 0 {
		return DefaultEvents
	}
	return s.Events
}

// Board is a directed graph of spaces. Branching is more than one entry in Next.
type Board struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Start    string   `json:"start"`
	Disabled bool     `json:"disabled,omitempty"`
	Spaces   []*Space `json:"spaces"`

	index map[string]*Space
}

func (b *Board) build() error {
	b.index = make(map[string]*Space, len(b.Spaces))
	for _, s := range b.Spaces {
		if !s.Type.valid() {
			return fmt.Errorf("board %s: space %s has unknown type %q", b.ID, s.ID, s.Type)
		}
		if _, dup := b.index[s.ID]; dup {
			return fmt.Errorf("board %s: duplicate space %s", b.ID, s.ID)
		}
		b.index[s.ID] = s
	}
	if _, ok := b.index[b.Start]; !ok {
		return fmt.Errorf("board %s: start space %q missing", b.ID, b.Start)
	}
	eligible := 0
	for _, s := range b.Spaces {
		if len(s.Next) == 0 {
			return fmt.Errorf("board %s: space %s is a dead end", b.ID, s.ID)
		}
		for _, n := range s.Next {
			if _, ok := b.index[n]; !ok {
				return fmt.Errorf("board %s: space %s links to unknown %s", b.ID, s.ID, n)
			}
		}
		if s.StarEligible {
			eligible++
		}
	}
	// the star must always be able to move somewhere else after a purchase
	if eligible < 2 {
		return fmt.Errorf("board %s: needs at least 2 star-eligible spaces, has %d", b.ID, eligible)
	}
	return nil
}

// Space looks up a space by id.
func (b *Board) Space(id string) (*Space, bool) {
	s, ok := b.index[id]
	return s, ok
}

// Connected reports whether to is directly reachable from from.
func (b *Board) Connected(from, to string) bool {
	s, ok := b.index[from]
	if !ok {
		return false
	}
	for _, n := range s.Next {
		if n == to {
			return true
		}
	}
	return false
}

// StarSpaces returns the ids of every star-eligible space in board order.
func (b *Board) StarSpaces() []string {
	var out []string
	for _, s := range b.Spaces {
		if s.StarEligible {
			out = append(out, s.ID)
		}
	}
	return out
}

// NonStartSpaces returns every space id that is not of type start.
func (b *Board) NonStartSpaces() []string {
	var out []string
	for _, s := range b.Spaces {
		if s.Type != SpaceStart {
			out = append(out, s.ID)
		}
	}
	return out
}

// Distances runs a breadth-first search along outgoing edges and returns the step count from
// origin to every reachable space.
func (b *Board) Distances(origin string) map[string]int {
	dist := map[string]int{origin: 0}
	queue := []string{origin}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		s, ok := b.index[cur]
		if !ok {
			continue
		}
		for _, n := range s.Next {
			if _, seen := dist[n]; !seen {
				dist[n] = dist[cur] + 1
				queue = append(queue, n)
			}
		}
	}
	return dist
}

// DistanceTo returns the shortest step count from origin to target, or -1 if unreachable.
func (b *Board) DistanceTo(origin, target string) int {
	if d, ok := b.Distances(origin)[target]; ok {
		return d
	}
	return -1
}
