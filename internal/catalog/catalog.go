// Package catalog holds the read-only content a match is played with: boards, items,
// minigames and characters. Everything is looked up by id.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
)

// ErrNotFound is returned by every lookup for an unknown id.
var ErrNotFound = errors.New("catalog: not found")

// Catalog is immutable after New returns and is safe for concurrent reads.
type Catalog struct {
	boards     map[string]*Board
	boardOrder []string
	items      map[string]*Item
	itemOrder  []string
	minigames  map[string]*Minigame
	gameOrder  []string
	characters map[string]*Character
}

// Content is the serialized form of a catalog.
type Content struct {
	Boards     []*Board     `json:"boards"`
	Items      []*Item      `json:"items"`
	Minigames  []*Minigame  `json:"minigames"`
	Characters []*Character `json:"characters"`
}

// New validates and indexes content.
func New(c Content) (*Catalog, error) {
	cat := &Catalog{
		boards:     make(map[string]*Board),
		items:      make(map[string]*Item),
		minigames:  make(map[string]*Minigame),
		characters: make(map[string]*Character),
	}
	for _, b := range c.Boards {
		if err := b.build(); err != nil {
			return nil, err
		}
		if _, dup := cat.boards[b.ID]; dup {
			return nil, fmt.Errorf("duplicate board %s", b.ID)
		}
		cat.boards[b.ID] = b
		cat.boardOrder = append(cat.boardOrder, b.ID)
	}
	for _, it := range c.Items {
		if it.Effect == nil {
			return nil, fmt.Errorf("item %s has no effect", it.ID)
		}
		if it.Price <= 0 {
			return nil, fmt.Errorf("item %s must have a positive price", it.ID)
		}
		if it.MinTier < 1 {
			it.MinTier = 1
		}
		cat.items[it.ID] = it
		cat.itemOrder = append(cat.itemOrder, it.ID)
	}
	for _, mg := range c.Minigames {
		switch mg.Kind {
		case KindFFA, KindTeam, KindDuel:
		default:
			return nil, fmt.Errorf("minigame %s has unknown kind %q", mg.ID, mg.Kind)
		}
		cat.minigames[mg.ID] = mg
		cat.gameOrder = append(cat.gameOrder, mg.ID)
	}
	for _, ch := range c.Characters {
		cat.characters[ch.ID] = ch
	}
	if len(cat.boards) == 0 {
		return nil, errors.New("catalog has no boards")
	}
	return cat, nil
}

// Load reads a JSON content file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var c Content
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return New(c)
}

func (c *Catalog) Board(id string) (*Board, error) {
	b, ok := c.boards[id]
	if !ok {
		return nil, fmt.Errorf("board %q: %w", id, ErrNotFound)
	}
	return b, nil
}

// VotableBoards returns every enabled board, in catalog order.
func (c *Catalog) VotableBoards() []*Board {
	var out []*Board
	for _, id := range c.boardOrder {
		if b := c.boards[id]; !b.Disabled {
			out = append(out, b)
		}
	}
	return out
}

func (c *Catalog) Item(id string) (*Item, error) {
	it, ok := c.items[id]
	if !ok {
		return nil, fmt.Errorf("item %q: %w", id, ErrNotFound)
	}
	return it, nil
}

// Items returns every item in catalog order.
func (c *Catalog) Items() []*Item {
	out := make([]*Item, 0, len(c.itemOrder))
	for _, id := range c.itemOrder {
		out = append(out, c.items[id])
	}
	return out
}

// ShopItems returns the items stocked by a shop of the given tier.
func (c *Catalog) ShopItems(tier int) []*Item {
	var out []*Item
	for _, id := range c.itemOrder {
		if it := c.items[id]; it.MinTier <= tier {
			out = append(out, it)
		}
	}
	return out
}

func (c *Catalog) Minigame(id string) (*Minigame, error) {
	mg, ok := c.minigames[id]
	if !ok {
		return nil, fmt.Errorf("minigame %q: %w", id, ErrNotFound)
	}
	return mg, nil
}

// MinigamesOfKind returns the minigames built for kind, in catalog order.
func (c *Catalog) MinigamesOfKind(kind MinigameKind) []*Minigame {
	var out []*Minigame
	for _, id := range c.gameOrder {
		if mg := c.minigames[id]; mg.Kind == kind {
			out = append(out, mg)
		}
	}
	return out
}

func (c *Catalog) Character(id string) (*Character, error) {
	ch, ok := c.characters[id]
	if !ok {
		return nil, fmt.Errorf("character %q: %w", id, ErrNotFound)
	}
	return ch, nil
}

// Characters returns every character sorted by id.
func (c *Catalog) Characters() []*Character {
	out := make([]*Character, 0, len(c.characters))
	for _, ch := range c.characters {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
