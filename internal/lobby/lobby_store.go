// internal/lobby/lobby_store.go
package lobby

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// LobbyStore manages active lobbies in memory.
// It provides thread-safe access to add, retrieve, and delete lobbies, and indexes join codes.
type LobbyStore struct {
	mu      sync.Mutex           // Protects both maps.
	lobbies map[uuid.UUID]*Lobby // Map of lobby ID to Lobby object pointer.
	codes   map[string]uuid.UUID // Join code to lobby ID.
}

// NewLobbyStore initializes and returns an empty LobbyStore.
func NewLobbyStore() *LobbyStore {
	return &LobbyStore{
		lobbies: make(map[uuid.UUID]*Lobby),
		codes:   make(map[string]uuid.UUID),
	}
}

// AddLobby stores lobby and gives it a join code no other stored lobby uses.
// newCode is called until it yields an unused code.
func (s *LobbyStore) AddLobby(lobby *Lobby, newCode func() string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.lobbies[lobby.ID]; exists {
		return false // Avoid overwriting existing lobby.
	}
	code := newCode()
	for {
		if _, taken := s.codes[code]; !taken {
			break
		}
		code = newCode()
	}
	lobby.Code = code
	s.lobbies[lobby.ID] = lobby
	s.codes[code] = lobby.ID
	return true
}

// DeleteLobby removes a lobby and releases its join code. It reports whether the lobby was present.
func (s *LobbyStore) DeleteLobby(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, exists := s.lobbies[id]
	if !exists {
		return false
	}
	delete(s.lobbies, id)
	if s.codes[l.Code] == id {
		delete(s.codes, l.Code)
	}
	return true
}

// GetLobby retrieves a lobby by its ID.
func (s *LobbyStore) GetLobby(id uuid.UUID) (*Lobby, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lobbies[id]
	return l, ok
}

// GetByCode resolves a join code.
func (s *LobbyStore) GetByCode(code string) (*Lobby, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.codes[code]
	if !ok {
		return nil, false
	}
	l, ok := s.lobbies[id]
	return l, ok
}

// GetLobbies returns the active lobbies ordered by creation time.
// Returning a copy lets the caller iterate while other goroutines modify the store.
func (s *LobbyStore) GetLobbies() []*Lobby {
	s.mu.Lock()
	out := make([]*Lobby, 0, len(s.lobbies))
	for _, l := range s.lobbies {
		out = append(out, l)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Len returns the number of stored lobbies.
func (s *LobbyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lobbies)
}
