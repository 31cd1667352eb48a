// Package game is the match engine. It owns every running match, advances the phase state
// machine and resolves spaces, items, shops, duels and minigames.
package game

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/bot"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/cache"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/catalog"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/metrics"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/models"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/schedule"
)

// Store is the persistence the engine reports finished matches to.
type Store interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (models.Profile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, delta models.ProfileDelta) error
	CreditCurrency(ctx context.Context, userID uuid.UUID, amount int) error
	RecordMatch(ctx context.Context, rec models.MatchRecord) error
}

// ActionPublisher receives a record of every accepted action.
type ActionPublisher interface {
	Publish(ctx context.Context, rec cache.ActionRecord) error
}

// Timings are the delays of every deferred continuation.
type Timings struct {
	EncounterSpin   time.Duration
	MinigameIntro   time.Duration
	MinigameCeiling time.Duration
	DuelCeiling     time.Duration
	ResultsDisplay  time.Duration
	OfferTimeout    time.Duration
	CleanupGrace    time.Duration
	BotThink        func(models.Difficulty) time.Duration
}

func DefaultTimings() Timings {
	return Timings{
		EncounterSpin:   3 * time.Second,
		MinigameIntro:   5 * time.Second,
		MinigameCeiling: 60 * time.Second,
		DuelCeiling:     30 * time.Second,
		ResultsDisplay:  6 * time.Second,
		OfferTimeout:    20 * time.Second,
		CleanupGrace:    2 * time.Minute,
		BotThink:        bot.ThinkTime,
	}
}

// withDefaults fills every zero field from DefaultTimings.
func (t Timings) withDefaults() Timings {
	def := DefaultTimings()
	fill := func(v *time.Duration, d time.Duration) {
		if *v <= 0 {
			*v = d
		}
	}
	fill(&t.EncounterSpin, def.EncounterSpin)
	fill(&t.MinigameIntro, def.MinigameIntro)
	fill(&t.MinigameCeiling, def.MinigameCeiling)
	fill(&t.DuelCeiling, def.DuelCeiling)
	fill(&t.ResultsDisplay, def.ResultsDisplay)
	fill(&t.OfferTimeout, def.OfferTimeout)
	fill(&t.CleanupGrace, def.CleanupGrace)
	if t.BotThink == nil {
		t.BotThink = def.BotThink
	}
	return t
}

// Scheduler keys. One task per key and match.
const (
	keyBot       = "bot"
	keyEncounter = "encounter"
	keyIntro     = "minigame_intro"
	keyMinigame  = "minigame_timeout"
	keyDuel      = "duel_timeout"
	keyResults   = "results"
	keyOffer     = "offer"
	keyCleanup   = "cleanup"
)

// Options configures an Engine. Catalog is required; everything else has a default.
type Options struct {
	Catalog     *catalog.Catalog
	Scheduler   schedule.Scheduler
	Broadcaster models.Broadcaster
	Store       Store
	Actions     ActionPublisher
	Metrics     *metrics.Metrics
	Logger      *logrus.Logger
	Timings     Timings
	Seed        func() int64
	Now         func() time.Time
}

// Engine runs every match of the process.
type Engine struct {
	matches *MatchStore
	cat     *catalog.Catalog
	sched   schedule.Scheduler
	out     models.Broadcaster
	store   Store
	actions ActionPublisher
	metrics *metrics.Metrics
	log     *logrus.Logger
	timings Timings
	seed    func() int64
	now     func() time.Time

	// OnMatchEnd is invoked once per match after the end summary is broadcast.
	OnMatchEnd func(lobbyID, matchID uuid.UUID)
}

func NewEngine(opts Options) *Engine {
	e := &Engine{
		matches: NewMatchStore(),
		cat:     opts.Catalog,
		sched:   opts.Scheduler,
		out:     opts.Broadcaster,
		store:   opts.Store,
		actions: opts.Actions,
		metrics: opts.Metrics,
		log:     opts.Logger,
		timings: opts.Timings,
		seed:    opts.Seed,
		now:     opts.Now,
	}
	if e.cat == nil {
		e.cat = catalog.Default()
	}
	if e.sched == nil {
		e.sched = schedule.NewTimers()
	}
	if e.out == nil {
		e.out = models.BroadcastFuncs{}
	}
	if e.log == nil {
		e.log = logrus.StandardLogger()
	}
	e.timings = e.timings.withDefaults()
	if e.seed == nil {
		e.seed = cryptoSeed
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// cryptoSeed seeds a match's PRNG from crypto/rand.
func cryptoSeed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}

// Matches exposes the registry for lookups by transport code.
func (e *Engine) Matches() *MatchStore {
	return e.matches
}

// StartMatch builds a match from a lobby snapshot and begins the first turn.
func (e *Engine) StartMatch(cfg models.MatchConfig) (uuid.UUID, error) {
	m, err := e.newMatch(cfg)
	if err != nil {
		return uuid.Nil, err
	}
	e.matches.Add(m)
	e.metrics.MatchStarted()

	m.Mu.Lock()
	defer m.Mu.Unlock()
	e.launch(m)
	e.drive(m)
	return m.ID, nil
}

func (e *Engine) newMatch(cfg models.MatchConfig) (*Match, error) {
	board, err := e.cat.Board(cfg.BoardID)
	if err != nil {
		return nil, err
	}
	if len(cfg.Seats) == 0 {
		return nil, fmt.Errorf("match needs at least one player")
	}
	if cfg.MatchID != uuid.Nil {
		if _, taken := e.matches.Get(cfg.MatchID); taken {
			return nil, fmt.Errorf("match %s already running", cfg.MatchID)
		}
	}
	settings := cfg.Settings
	if settings.Turns < 1 {
		settings.Turns = models.DefaultSettings().Turns
	}

	id := cfg.MatchID
	if id == uuid.Nil {
		id = uuid.New()
	}
	m := &Match{
		ID:           id,
		LobbyID:      cfg.LobbyID,
		Board:        board,
		Settings:     settings,
		ShowTutorial: cfg.ShowTutorial,
		Turn:         1,
		MaxTurns:     settings.Turns,
		StarPrice:    baseStarPrice,
		rng:          rand.New(rand.NewSource(e.seed())),
	}
	for i, seat := range cfg.Seats {
		p := models.NewPlayer(seat.ID, seat.Name, i)
		p.IsBot = seat.IsBot
		p.Character = seat.Character
		if p.IsBot {
			p.Difficulty = seat.Difficulty
			if !p.Difficulty.Valid() {
				p.Difficulty = settings.CPUDifficulty
			}
		}
		p.Coins = settings.StartingCoins
		p.Space = board.Start
		m.Players = append(m.Players, p)
	}
	stars := board.StarSpaces()
	m.StarSpace = stars[m.rng.Intn(len(stars))]
	return m, nil
}

// launch announces the match and starts the first turn. Caller holds m.Mu.
func (e *Engine) launch(m *Match) {
	m.StartedAt = e.now()
	order := make([]uuid.UUID, len(m.Players))
	for i, p := range m.Players {
		order[i] = p.ID
	}
	e.log.WithField("match", m.ID).Infof("match started on %s with %d players", m.Board.ID, len(m.Players))
	e.emit(m, uuid.Nil, EventMatchStarted, map[string]interface{}{
		"matchId":      m.ID,
		"lobbyId":      m.LobbyID,
		"boardId":      m.Board.ID,
		"settings":     m.Settings,
		"order":        order,
		"starSpace":    m.StarSpace,
		"showTutorial": m.ShowTutorial,
	})
	e.maybeDrawFinale(m)
	e.beginTurn(m)
}

// withMatch serializes an operation on one match and hands auto-play back to bots afterwards.
func (e *Engine) withMatch(id uuid.UUID, fn func(m *Match) error) error {
	m, ok := e.matches.Get(id)
	if !ok {
		return ErrMatchNotFound
	}
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.Ended {
		return ErrMatchEnded
	}
	if err := fn(m); err != nil {
		return err
	}
	e.drive(m)
	return nil
}

// after schedules fn against the match with the given id. The callback re-looks the match up
// and does nothing if it is gone or ended; fn must check anything else it depends on.
func (e *Engine) after(m *Match, key string, d time.Duration, fn func(m *Match)) {
	id := m.ID
	e.sched.Schedule(id, key, d, func() {
		m, ok := e.matches.Get(id)
		if !ok {
			e.log.WithField("match", id).Debugf("discarding %s: match gone", key)
			return
		}
		m.Mu.Lock()
		defer m.Mu.Unlock()
		if m.Ended {
			return
		}
		fn(m)
		e.drive(m)
	})
}

// setPhase moves the state machine, refusing transitions that skip a successor.
func (e *Engine) setPhase(m *Match, next Phase) bool {
	if !canAdvance(m.Phase, next) {
		e.log.WithField("match", m.ID).Errorf("illegal phase transition %s -> %s", m.Phase, next)
		return false
	}
	m.Phase = next
	payload := map[string]interface{}{
		"phase": next,
		"turn":  m.Turn,
	}
	if m.Current < len(m.Players) {
		payload["playerId"] = m.current().ID
	}
	e.out.Broadcast(m.ID, models.Event{Type: string(EventPhase), Room: m.ID, Payload: payload})
	return true
}

// requireTurn checks membership, phase and turn ownership.
func requireTurn(m *Match, playerID uuid.UUID, phase Phase) (*models.Player, error) {
	p := m.player(playerID)
	if p == nil {
		return nil, ErrNotInMatch
	}
	if m.Phase != phase {
		return nil, fmt.Errorf("%w: match is in %s", ErrWrongPhase, m.Phase)
	}
	if m.current().ID != playerID {
		return nil, ErrNotYourTurn
	}
	if m.Pending != nil {
		return nil, ErrOfferPending
	}
	if m.Duel != nil {
		return nil, ErrDuelPending
	}
	return p, nil
}
