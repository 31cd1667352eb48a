// Package lobby is the lobby orchestrator: roster assembly, settings, the board and tutorial
// vote, and the handoff of a frozen snapshot to the match engine.
package lobby

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/catalog"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/metrics"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/models"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/schedule"
)

// Launcher starts a match from a lobby snapshot. *game.Engine satisfies it.
type Launcher interface {
	StartMatch(cfg models.MatchConfig) (uuid.UUID, error)
}

const (
	codeLength     = 6
	codeAlphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxBoardChoice = 4
	maxNameLength  = 32
	maxChatLength  = 200

	keyVote = "vote"
)

// Options configures an Orchestrator. Catalog and Launcher are required.
type Options struct {
	Catalog     *catalog.Catalog
	Launcher    Launcher
	Scheduler   schedule.Scheduler
	Broadcaster models.Broadcaster
	Metrics     *metrics.Metrics
	Logger      *logrus.Logger
	VoteWindow  time.Duration
	Seed        func() int64
	Now         func() time.Time
}

// Orchestrator owns every lobby of the process.
type Orchestrator struct {
	lobbies    *LobbyStore
	cat        *catalog.Catalog
	launcher   Launcher
	sched      schedule.Scheduler
	out        models.Broadcaster
	metrics    *metrics.Metrics
	log        *logrus.Logger
	voteWindow time.Duration
	seed       func() int64
	now        func() time.Time

	// joinMu is held from the one-lobby-per-user check to the insert in Create and Join.
	// It is taken before any lobby lock.
	joinMu sync.Mutex
}

func NewOrchestrator(opts Options) *Orchestrator {
	o := &Orchestrator{
		lobbies:    NewLobbyStore(),
		cat:        opts.Catalog,
		launcher:   opts.Launcher,
		sched:      opts.Scheduler,
		out:        opts.Broadcaster,
		metrics:    opts.Metrics,
		log:        opts.Logger,
		voteWindow: opts.VoteWindow,
		seed:       opts.Seed,
		now:        opts.Now,
	}
	if o.cat == nil {
		o.cat = catalog.Default()
	}
	if o.sched == nil {
		o.sched = schedule.NewTimers()
	}
	if o.out == nil {
		o.out = models.BroadcastFuncs{}
	}
	if o.log == nil {
		o.log = logrus.StandardLogger()
	}
	if o.voteWindow <= 0 {
		o.voteWindow = 20 * time.Second
	}
	if o.seed == nil {
		o.seed = func() int64 {
			var b [8]byte
			if _, err := crand.Read(b[:]); err != nil {
				return time.Now().UnixNano()
			}
			return int64(binary.LittleEndian.Uint64(b[:]))
		}
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

// Lobbies exposes the registry.
func (o *Orchestrator) Lobbies() *LobbyStore {
	return o.lobbies
}

func (o *Orchestrator) emit(l *Lobby, typ string, payload map[string]interface{}) {
	o.out.Broadcast(l.ID, models.Event{Type: typ, Room: l.ID, Payload: payload})
}

// emitState broadcasts the full lobby after a roster or settings change.
func (o *Orchestrator) emitState(l *Lobby, reason string) {
	o.emit(l, EventLobbyState, map[string]interface{}{"reason": reason, "lobby": l.view()})
}

// withLobby serializes an operation on one lobby.
func (o *Orchestrator) withLobby(id uuid.UUID, fn func(l *Lobby) error) error {
	l, ok := o.lobbies.GetLobby(id)
	if !ok {
		return ErrLobbyNotFound
	}
	l.Mu.Lock()
	defer l.Mu.Unlock()
	return fn(l)
}

func (o *Orchestrator) requireHost(l *Lobby, userID uuid.UUID) error {
	if l.member(userID) == nil {
		return ErrNotMember
	}
	if l.HostID != userID {
		return ErrNotHost
	}
	return nil
}

func cleanName(name, fallback string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return fallback
	}
	return models.Truncate(name, maxNameLength)
}

// defaultCharacter picks the first catalog character, or none.
func (o *Orchestrator) defaultCharacter() string {
	if chars := o.cat.Characters(); len(chars) > 0 {
		return chars[0].ID
	}
	return ""
}

// Create opens a lobby hosted by hostID.
func (o *Orchestrator) Create(hostID uuid.UUID, hostName, name string, public bool) (View, error) {
	o.joinMu.Lock()
	defer o.joinMu.Unlock()
	if _, busy := o.FindByMember(hostID); busy {
		return View{}, ErrAlreadyMember
	}
	hostName = cleanName(hostName, "Host")
	l := &Lobby{
		ID:        uuid.New(),
		Name:      cleanName(name, hostName+"'s party"),
		HostID:    hostID,
		Public:    public,
		State:     StateWaiting,
		Settings:  models.DefaultSettings(),
		CreatedAt: o.now(),
		rng:       rand.New(rand.NewSource(o.seed())),
	}
	l.Members = []*Member{{UserID: hostID, Name: hostName, Slot: 0, Character: o.defaultCharacter()}}
	o.lobbies.AddLobby(l, func() string { return joinCode(l.rng) })
	o.metrics.LobbyOpened()
	o.log.WithField("lobby", l.ID).Infof("lobby %q created by %s with code %s", l.Name, hostID, l.Code)

	l.Mu.Lock()
	defer l.Mu.Unlock()
	return l.view(), nil
}

func joinCode(rng *rand.Rand) string {
	b := make([]byte, codeLength)
	for i := range b {
		b[i] = codeAlphabet[rng.Intn(len(codeAlphabet))]
	}
	return string(b)
}

// Get returns a snapshot of the lobby.
func (o *Orchestrator) Get(id uuid.UUID) (View, error) {
	var v View
	err := o.withLobby(id, func(l *Lobby) error {
		v = l.view()
		return nil
	})
	return v, err
}

// List returns the public lobbies still waiting for players.
func (o *Orchestrator) List() []View {
	var out []View
	for _, l := range o.lobbies.GetLobbies() {
		l.Mu.Lock()
		if l.Public && l.State == StateWaiting {
			out = append(out, l.view())
		}
		l.Mu.Unlock()
	}
	return out
}

// FindByMember returns the lobby a user is in, if any.
func (o *Orchestrator) FindByMember(userID uuid.UUID) (uuid.UUID, bool) {
	for _, l := range o.lobbies.GetLobbies() {
		l.Mu.Lock()
		found := l.member(userID) != nil && l.State != StateFinished
		l.Mu.Unlock()
		if found {
			return l.ID, true
		}
	}
	return uuid.Nil, false
}

// Join adds userID to the lobby. Joining a lobby one is already in is a no-op.
func (o *Orchestrator) Join(id, userID uuid.UUID, name string) (View, error) {
	o.joinMu.Lock()
	defer o.joinMu.Unlock()
	if other, busy := o.FindByMember(userID); busy && other != id {
		return View{}, ErrAlreadyMember
	}
	var v View
	err := o.withLobby(id, func(l *Lobby) error {
		if l.member(userID) != nil {
			v = l.view()
			return nil
		}
		if l.State != StateWaiting {
			return ErrNotWaiting
		}
		if l.full() {
			return ErrLobbyFull
		}
		m := &Member{UserID: userID, Name: cleanName(name, "Player"), Slot: l.freeSlot(), Character: o.defaultCharacter()}
		l.Members = append(l.Members, m)
		o.log.WithField("lobby", l.ID).Debugf("%s joined in slot %d", userID, m.Slot)
		o.emit(l, EventMemberJoined, map[string]interface{}{"member": *m})
		o.emitState(l, EventMemberJoined)
		v = l.view()
		return nil
	})
	return v, err
}

// JoinByCode resolves a join code and joins that lobby.
func (o *Orchestrator) JoinByCode(code string, userID uuid.UUID, name string) (View, error) {
	l, ok := o.lobbies.GetByCode(strings.ToUpper(strings.TrimSpace(code)))
	if !ok {
		return View{}, ErrLobbyNotFound
	}
	return o.Join(l.ID, userID, name)
}

// Leave removes userID. A departing host hands over to the next member by slot; the last human
// to leave closes the lobby.
func (o *Orchestrator) Leave(id, userID uuid.UUID) error {
	return o.withLobby(id, func(l *Lobby) error {
		m := l.member(userID)
		if m == nil {
			return ErrNotMember
		}
		kept := l.Members[:0]
		for _, x := range l.Members {
			if x.UserID != userID {
				kept = append(kept, x)
			}
		}
		l.Members = kept
		log := o.log.WithField("lobby", l.ID)
		o.emit(l, EventMemberLeft, map[string]interface{}{"userId": userID})

		if len(l.Members) == 0 {
			o.close(l, "empty")
			return nil
		}
		if l.HostID == userID {
			next := l.Members[0]
			for _, x := range l.Members[1:] {
				if x.Slot < next.Slot {
					next = x
				}
			}
			l.HostID = next.UserID
			log.Infof("host left, %s promoted", next.UserID)
			o.emit(l, EventHostChanged, map[string]interface{}{"hostId": next.UserID})
		}
		if b := l.Ballot; b != nil && l.State == StateVoting {
			delete(b.Boards, userID)
			delete(b.Tutorial, userID)
			if o.allVoted(l) {
				o.resolve(l)
				return nil
			}
		}
		o.emitState(l, EventMemberLeft)
		return nil
	})
}

// close removes the lobby from the registry. Caller holds l.Mu.
func (o *Orchestrator) close(l *Lobby, reason string) {
	o.sched.CancelAll(l.ID)
	if o.lobbies.DeleteLobby(l.ID) {
		o.metrics.LobbyClosed()
	}
	o.emit(l, EventLobbyClosed, map[string]interface{}{"reason": reason})
	o.log.WithField("lobby", l.ID).Infof("lobby closed: %s", reason)
}

// AddBot seats a CPU player. An invalid difficulty falls back to the lobby's CPU difficulty.
func (o *Orchestrator) AddBot(id, userID uuid.UUID, difficulty models.Difficulty) (Bot, error) {
	var added Bot
	err := o.withLobby(id, func(l *Lobby) error {
		if err := o.requireHost(l, userID); err != nil {
			return err
		}
		if l.State != StateWaiting {
			return ErrNotWaiting
		}
		if l.full() {
			return ErrLobbyFull
		}
		if !difficulty.Valid() {
			difficulty = l.Settings.CPUDifficulty
		}
		l.botSeq++
		b := &Bot{
			ID:         uuid.New(),
			Name:       fmt.Sprintf("CPU %d", l.botSeq),
			Slot:       l.freeSlot(),
			Difficulty: difficulty,
		}
		if chars := o.cat.Characters(); len(chars) > 0 {
			b.Character = chars[l.rng.Intn(len(chars))].ID
		}
		l.Bots = append(l.Bots, b)
		added = *b
		o.emit(l, EventBotAdded, map[string]interface{}{"bot": added})
		o.emitState(l, EventBotAdded)
		return nil
	})
	return added, err
}

// RemoveBot frees a CPU seat.
func (o *Orchestrator) RemoveBot(id, userID, botID uuid.UUID) error {
	return o.withLobby(id, func(l *Lobby) error {
		if err := o.requireHost(l, userID); err != nil {
			return err
		}
		if l.State != StateWaiting {
			return ErrNotWaiting
		}
		if l.bot(botID) == nil {
			return ErrBotNotFound
		}
		kept := l.Bots[:0]
		for _, b := range l.Bots {
			if b.ID != botID {
				kept = append(kept, b)
			}
		}
		l.Bots = kept
		o.emit(l, EventBotRemoved, map[string]interface{}{"botId": botID})
		o.emitState(l, EventBotRemoved)
		return nil
	})
}

// UpdateBot changes a CPU seat's difficulty.
func (o *Orchestrator) UpdateBot(id, userID, botID uuid.UUID, difficulty models.Difficulty) error {
	return o.withLobby(id, func(l *Lobby) error {
		if err := o.requireHost(l, userID); err != nil {
			return err
		}
		if l.State != StateWaiting {
			return ErrNotWaiting
		}
		b := l.bot(botID)
		if b == nil {
			return ErrBotNotFound
		}
		if !difficulty.Valid() {
			difficulty = l.Settings.CPUDifficulty
		}
		b.Difficulty = difficulty
		o.emit(l, EventBotUpdated, map[string]interface{}{"bot": *b})
		return nil
	})
}

// UpdateSettings merges a patch. Values outside the allowed choices fall back to defaults, and a
// player cap below the current roster keeps the previous cap.
func (o *Orchestrator) UpdateSettings(id, userID uuid.UUID, patch models.SettingsPatch) (models.MatchSettings, error) {
	var out models.MatchSettings
	err := o.withLobby(id, func(l *Lobby) error {
		if err := o.requireHost(l, userID); err != nil {
			return err
		}
		if l.State != StateWaiting {
			return ErrNotWaiting
		}
		next := l.Settings.Apply(patch)
		if next.MaxPlayers < l.size() {
			next.MaxPlayers = l.Settings.MaxPlayers
		}
		l.Settings = next
		out = next
		o.emit(l, EventSettingsUpdated, map[string]interface{}{"settings": next})
		return nil
	})
	return out, err
}

// SetReady flags a member ready or not.
func (o *Orchestrator) SetReady(id, userID uuid.UUID, ready bool) error {
	return o.withLobby(id, func(l *Lobby) error {
		m := l.member(userID)
		if m == nil {
			return ErrNotMember
		}
		if l.State != StateWaiting {
			return ErrNotWaiting
		}
		m.Ready = ready
		o.emit(l, EventReadyChanged, map[string]interface{}{"userId": userID, "ready": ready})
		return nil
	})
}

// SetCharacter picks a catalog character for a member.
func (o *Orchestrator) SetCharacter(id, userID uuid.UUID, characterID string) error {
	if _, err := o.cat.Character(characterID); err != nil {
		return err
	}
	return o.withLobby(id, func(l *Lobby) error {
		m := l.member(userID)
		if m == nil {
			return ErrNotMember
		}
		if l.State != StateWaiting {
			return ErrNotWaiting
		}
		m.Character = characterID
		o.emit(l, EventCharacterChanged, map[string]interface{}{"userId": userID, "character": characterID})
		return nil
	})
}

// Chat relays a message to the lobby room.
func (o *Orchestrator) Chat(id, userID uuid.UUID, text string) error {
	text = models.Truncate(strings.TrimSpace(text), maxChatLength)
	return o.withLobby(id, func(l *Lobby) error {
		m := l.member(userID)
		if m == nil {
			return ErrNotMember
		}
		if text == "" {
			return nil
		}
		o.emit(l, EventChat, map[string]interface{}{"userId": userID, "name": m.Name, "text": text})
		return nil
	})
}

// MatchEnded is called by the engine once the lobby's match is over. The lobby is superseded by
// the match and is removed.
func (o *Orchestrator) MatchEnded(id, matchID uuid.UUID) {
	err := o.withLobby(id, func(l *Lobby) error {
		if l.State != StatePlaying || l.MatchID != matchID {
			return nil
		}
		l.State = StateFinished
		o.emit(l, EventFinished, map[string]interface{}{"matchId": matchID})
		o.close(l, "finished")
		return nil
	})
	if err != nil {
		o.log.WithField("lobby", id).Debugf("match %s ended after its lobby closed", matchID)
	}
}
