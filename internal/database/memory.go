package database

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/cache"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/models"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/rating"
)

type actionKey struct {
	match uuid.UUID
	index int
}

// MemoryStore keeps everything in process memory. Its contents are lost on restart.
type MemoryStore struct {
	mu        sync.Mutex
	users     map[uuid.UUID]*models.User
	emails    map[string]uuid.UUID
	profiles  map[uuid.UUID]models.Profile
	inventory map[uuid.UUID]map[string]bool
	matches   map[uuid.UUID]models.MatchRecord
	abandoned map[uuid.UUID]bool
	actions   map[actionKey]cache.ActionRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:     make(map[uuid.UUID]*models.User),
		emails:    make(map[string]uuid.UUID),
		profiles:  make(map[uuid.UUID]models.Profile),
		inventory: make(map[uuid.UUID]map[string]bool),
		matches:   make(map[uuid.UUID]models.MatchRecord),
		abandoned: make(map[uuid.UUID]bool),
		actions:   make(map[actionKey]cache.ActionRecord),
	}
}

func (s *MemoryStore) CreateUser(_ context.Context, u *models.User) error {
	if err := prepareUser(u); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; ok {
		return fmt.Errorf("user %s already exists", u.ID)
	}
	if u.Email != "" {
		if _, ok := s.emails[u.Email]; ok {
			return ErrDuplicateEmail
		}
		s.emails[u.Email] = u.ID
	}
	cp := *u
	s.users[u.ID] = &cp
	s.profiles[u.ID] = models.Profile{UserID: u.ID, Rating: rating.Default}
	return nil
}

func (s *MemoryStore) UpdateUserCredentials(_ context.Context, u *models.User) error {
	if err := prepareUser(u); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	if u.Email != stored.Email {
		if owner, taken := s.emails[u.Email]; taken && owner != u.ID {
			return ErrDuplicateEmail
		}
		delete(s.emails, stored.Email)
		if u.Email != "" {
			s.emails[u.Email] = u.ID
		}
	}
	stored.Email = u.Email
	stored.Password = u.Password
	stored.Username = u.Username
	stored.IsEphemeral = u.IsEphemeral
	return nil
}

func (s *MemoryStore) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	id, ok := s.emails[email]
	s.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	return s.GetUserByID(ctx, id)
}

func (s *MemoryStore) GetProfile(_ context.Context, userID uuid.UUID) (models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return models.Profile{UserID: userID}, ErrNotFound
	}
	return p, nil
}

func (s *MemoryStore) SetProfile(_ context.Context, p models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[p.UserID]; !ok {
		return ErrNotFound
	}
	s.profiles[p.UserID] = p
	return nil
}

func (s *MemoryStore) UpdateProfile(_ context.Context, userID uuid.UUID, d models.ProfileDelta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return ErrNotFound
	}
	s.profiles[userID] = p.Add(d)
	return nil
}

func (s *MemoryStore) GetInventory(_ context.Context, userID uuid.UUID) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]string, 0, len(s.inventory[userID]))
	for id := range s.inventory[userID] {
		items = append(items, id)
	}
	sort.Strings(items)
	return items, nil
}

func (s *MemoryStore) SetOwned(_ context.Context, userID uuid.UUID, itemID string, owned bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return ErrNotFound
	}
	if !owned {
		delete(s.inventory[userID], itemID)
		return nil
	}
	if s.inventory[userID] == nil {
		s.inventory[userID] = make(map[string]bool)
	}
	s.inventory[userID][itemID] = true
	return nil
}

func (s *MemoryStore) CreditCurrency(_ context.Context, userID uuid.UUID, amount int) error {
	if amount < 0 {
		return fmt.Errorf("credit of negative amount %d", amount)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.Credits += amount
	return nil
}

func (s *MemoryStore) DebitCurrency(_ context.Context, userID uuid.UUID, amount int) error {
	if amount < 0 {
		return fmt.Errorf("debit of negative amount %d", amount)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	if u.Credits < amount {
		return ErrInsufficientFunds
	}
	u.Credits -= amount
	return nil
}

func (s *MemoryStore) RecordMatch(_ context.Context, rec models.MatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.Participants = append([]models.ParticipantRecord(nil), rec.Participants...)
	s.matches[rec.ID] = rec
	delete(s.abandoned, rec.ID)
	return nil
}

// Match returns a recorded match.
func (s *MemoryStore) Match(id uuid.UUID) (models.MatchRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.matches[id]
	return rec, ok
}

func (s *MemoryStore) InsertActions(_ context.Context, recs []cache.ActionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range recs {
		k := actionKey{match: rec.MatchID, index: rec.ActionIndex}
		if _, dup := s.actions[k]; !dup {
			s.actions[k] = rec
		}
	}
	return nil
}

func (s *MemoryStore) MarkAbandoned(_ context.Context, matchID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, done := s.matches[matchID]; !done {
		s.abandoned[matchID] = true
	}
	return nil
}

// Actions returns the stored action records of a match ordered by index.
func (s *MemoryStore) Actions(matchID uuid.UUID) []cache.ActionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []cache.ActionRecord
	for k, rec := range s.actions {
		if k.match == matchID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ActionIndex < out[j].ActionIndex })
	return out
}

// Abandoned reports whether MarkAbandoned flagged the match.
func (s *MemoryStore) Abandoned(matchID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.abandoned[matchID]
}

var (
	_ Store      = (*MemoryStore)(nil)
	_ ActionSink = (*MemoryStore)(nil)
	_ Store      = (*PgStore)(nil)
	_ ActionSink = (*PgStore)(nil)
)
