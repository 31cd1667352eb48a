package game

import (
	"sync"

	"github.com/google/uuid"
)

// MatchStore holds the running matches keyed by id.
type MatchStore struct {
	mu      sync.Mutex
	matches map[uuid.UUID]*Match
}

func NewMatchStore() *MatchStore {
	return &MatchStore{
		matches: make(map[uuid.UUID]*Match),
	}
}

func (s *MatchStore) Add(m *Match) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[m.ID] = m
}

func (s *MatchStore) Get(id uuid.UUID) (*Match, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	return m, ok
}

func (s *MatchStore) Delete(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.matches[id]
	delete(s.matches, id)
	return ok
}

func (s *MatchStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.matches)
}

// ByPlayer returns every held match the user plays in, ended ones included. Players never change
// after creation, so they are read without the match lock.
func (s *MatchStore) ByPlayer(userID uuid.UUID) []*Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Match
	for _, m := range s.matches {
		for _, p := range m.Players {
			if p.ID == userID {
				out = append(out, m)
				break
			}
		}
	}
	return out
}
