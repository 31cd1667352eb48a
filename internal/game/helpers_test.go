package game

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/catalog"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/models"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/rating"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/schedule"
)

// mockBroadcaster collects events instead of sending them over WS.
type mockBroadcaster struct {
	mu           sync.Mutex
	allEvents    []models.Event
	playerEvents map[uuid.UUID][]models.Event
}

func newMockBroadcaster() *mockBroadcaster {
	return &mockBroadcaster{playerEvents: make(map[uuid.UUID][]models.Event)}
}

func (mb *mockBroadcaster) Broadcast(_ uuid.UUID, ev models.Event) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.allEvents = append(mb.allEvents, ev)
}

func (mb *mockBroadcaster) SendTo(userID uuid.UUID, ev models.Event) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.playerEvents[userID] = append(mb.playerEvents[userID], ev)
}

// ofType returns every broadcast event with the given type.
func (mb *mockBroadcaster) ofType(typ EventType) []models.Event {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	var out []models.Event
	for _, ev := range mb.allEvents {
		if ev.Type == string(typ) {
			out = append(out, ev)
		}
	}
	return out
}

func (mb *mockBroadcaster) lastPlayerEvent(playerID uuid.UUID) *models.Event {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	events := mb.playerEvents[playerID]
	if len(events) == 0 {
		return nil
	}
	return &events[len(events)-1]
}

// fakeStore records what the engine persists.
type fakeStore struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]models.ProfileDelta
	credits  map[uuid.UUID]int
	matches  []models.MatchRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{profiles: map[uuid.UUID]models.ProfileDelta{}, credits: map[uuid.UUID]int{}}
}

func (s *fakeStore) GetProfile(_ context.Context, userID uuid.UUID) (models.Profile, error) {
	return models.Profile{UserID: userID, Rating: rating.Default}, nil
}

func (s *fakeStore) UpdateProfile(_ context.Context, userID uuid.UUID, d models.ProfileDelta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[userID] = d
	return nil
}

func (s *fakeStore) CreditCurrency(_ context.Context, userID uuid.UUID, amount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credits[userID] += amount
	return nil
}

func (s *fakeStore) RecordMatch(_ context.Context, rec models.MatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches = append(s.matches, rec)
	return nil
}

func (s *fakeStore) recorded() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.matches)
}

// ringBoard is a loop r0 -> r1 -> ... -> r0 with one space type per entry. r0 is the start.
func ringBoard(id string, stars []int, types ...catalog.SpaceType) *catalog.Board {
	b := &catalog.Board{ID: id, Name: id, Start: "r0"}
	for i, t := range types {
		b.Spaces = append(b.Spaces, &catalog.Space{
			ID:       fmt.Sprintf("r%d", i),
			Type:     t,
			ShopTier: 1,
			Next:     []string{fmt.Sprintf("r%d", (i+1)%len(types))},
		})
	}
	for _, i := range stars {
		b.Spaces[i].StarEligible = true
	}
	return b
}

func repeat(t catalog.SpaceType, n int) []catalog.SpaceType {
	out := make([]catalog.SpaceType, n)
	for i := range out {
		out[i] = t
	}
	return out
}

// testCatalog pairs the given boards with the default items and a small minigame set.
func testCatalog(t *testing.T, boards ...*catalog.Board) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New(catalog.Content{
		Boards: boards,
		Items:  catalog.Default().Items(),
		Minigames: []*catalog.Minigame{
			{ID: "race", Name: "Race", Kind: catalog.KindFFA, DurationSec: 30},
			{ID: "tug", Name: "Tug", Kind: catalog.KindTeam, DurationSec: 30},
			{ID: "quickdraw", Name: "Quickdraw", Kind: catalog.KindDuel, DurationSec: 15},
		},
		Characters: []*catalog.Character{{ID: "jojo", Name: "Jojo"}},
	})
	require.NoError(t, err)
	return cat
}

type testEnv struct {
	engine *Engine
	sched  *schedule.Manual
	out    *mockBroadcaster
	store  *fakeStore
}

func newTestEnv(t *testing.T, cat *catalog.Catalog) *testEnv {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	env := &testEnv{
		sched: schedule.NewManual(),
		out:   newMockBroadcaster(),
		store: newFakeStore(),
	}
	env.engine = NewEngine(Options{
		Catalog:     cat,
		Scheduler:   env.sched,
		Broadcaster: env.out,
		Store:       env.store,
		Logger:      log,
		Seed:        func() int64 { return 7 },
		Now:         func() time.Time { return testNow },
	})
	return env
}

func humanSeats(n int) []models.Seat {
	seats := make([]models.Seat, n)
	for i := range seats {
		seats[i] = models.Seat{ID: uuid.New(), Name: fmt.Sprintf("player%d", i+1), Character: "jojo"}
	}
	return seats
}

func testSettings(turns, coins int) models.MatchSettings {
	s := models.DefaultSettings()
	s.Turns = turns
	s.StartingCoins = coins
	return s
}

// start builds a match, lets tweak adjust it before the first turn, then launches it.
func (env *testEnv) start(t *testing.T, cfg models.MatchConfig, tweak func(m *Match)) *Match {
	t.Helper()
	m, err := env.engine.newMatch(cfg)
	require.NoError(t, err)
	if tweak != nil {
		tweak(m)
	}
	env.engine.matches.Add(m)
	m.Mu.Lock()
	env.engine.launch(m)
	env.engine.drive(m)
	m.Mu.Unlock()
	return m
}

var testNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

// state reads a value under the match lock.
func state[T any](m *Match, fn func(m *Match) T) T {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return fn(m)
}
