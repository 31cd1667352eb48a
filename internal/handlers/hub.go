// internal/handlers/hub.go
package handlers

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/lobby"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/metrics"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/models"
)

// outBuffer is how many frames may queue for one socket before it is dropped as too slow.
const outBuffer = 64

// client is one open socket. A user has at most one; a newer socket replaces the older.
type client struct {
	userID uuid.UUID
	out    chan []byte
	done   chan struct{}
	once   sync.Once
	slow   atomic.Bool
	// set when a newer socket of the same user took over
	replaced atomic.Bool
}

func newClient(userID uuid.UUID) *client {
	return &client{userID: userID, out: make(chan []byte, outBuffer), done: make(chan struct{})}
}

// kick tells the socket's pumps to stop.
func (c *client) kick() {
	c.once.Do(func() { close(c.done) })
}

// Hub tracks sockets and the room each user listens to. It implements models.Broadcaster.
// Room membership belongs to the user, not the socket, so it survives a reconnect.
type Hub struct {
	mu       sync.RWMutex
	clients  map[uuid.UUID]*client
	rooms    map[uuid.UUID]map[uuid.UUID]struct{}
	userRoom map[uuid.UUID]uuid.UUID

	log     *logrus.Logger
	metrics *metrics.Metrics
}

func NewHub(log *logrus.Logger, m *metrics.Metrics) *Hub {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Hub{
		clients:  make(map[uuid.UUID]*client),
		rooms:    make(map[uuid.UUID]map[uuid.UUID]struct{}),
		userRoom: make(map[uuid.UUID]uuid.UUID),
		log:      log,
		metrics:  m,
	}
}

// register installs c as the user's socket and kicks any older one.
func (h *Hub) register(c *client) {
	h.mu.Lock()
	old := h.clients[c.userID]
	h.clients[c.userID] = c
	h.mu.Unlock()
	if old != nil {
		old.replaced.Store(true)
		old.kick()
	}
	h.metrics.SocketOpened()
}

// unregister removes c unless a newer socket already replaced it. It reports whether c was current.
func (h *Hub) unregister(c *client) bool {
	h.mu.Lock()
	current := h.clients[c.userID] == c
	if current {
		delete(h.clients, c.userID)
	}
	h.mu.Unlock()
	c.kick()
	h.metrics.SocketClosed()
	return current
}

// Connected reports whether the user has an open socket.
func (h *Hub) Connected(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// Join moves the user into room, leaving any previous room.
func (h *Hub) Join(userID, room uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.joinLocked(userID, room)
}

func (h *Hub) joinLocked(userID, room uuid.UUID) {
	h.leaveLocked(userID)
	members := h.rooms[room]
	if members == nil {
		members = make(map[uuid.UUID]struct{})
		h.rooms[room] = members
	}
	members[userID] = struct{}{}
	h.userRoom[userID] = room
}

// Leave takes the user out of whatever room they are in.
func (h *Hub) Leave(userID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(userID)
}

func (h *Hub) leaveLocked(userID uuid.UUID) {
	room, ok := h.userRoom[userID]
	if !ok {
		return
	}
	delete(h.userRoom, userID)
	if members := h.rooms[room]; members != nil {
		delete(members, userID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// MoveRoom moves every member of from into to.
func (h *Hub) MoveRoom(from, to uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID := range h.rooms[from] {
		h.joinLocked(userID, to)
	}
}

// RoomOf returns the room the user listens to.
func (h *Hub) RoomOf(userID uuid.UUID) (uuid.UUID, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.userRoom[userID]
	return room, ok
}

// Members returns the users of room.
func (h *Hub) Members(room uuid.UUID) []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]uuid.UUID, 0, len(h.rooms[room]))
	for id := range h.rooms[room] {
		out = append(out, id)
	}
	return out
}

func (h *Hub) Broadcast(room uuid.UUID, ev models.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.Errorf("marshal %s for room %s: %v", ev.Type, room, err)
		return
	}
	h.mu.RLock()
	targets := make([]*client, 0, len(h.rooms[room]))
	for userID := range h.rooms[room] {
		if c, ok := h.clients[userID]; ok {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range targets {
		h.deliver(c, data)
	}
}

func (h *Hub) SendTo(userID uuid.UUID, ev models.Event) {
	h.mu.RLock()
	c, ok := h.clients[userID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.Errorf("marshal %s for %s: %v", ev.Type, userID, err)
		return
	}
	h.deliver(c, data)
}

// deliver never blocks the caller, which usually holds a lobby or match lock.
func (h *Hub) deliver(c *client, data []byte) {
	select {
	case <-c.done:
	case c.out <- data:
	default:
		h.log.Warnf("socket of %s is not draining, dropping it", c.userID)
		c.slow.Store(true)
		c.kick()
	}
}

// LobbyBroadcaster is the Broadcaster handed to the lobby orchestrator. When a lobby announces its
// match, the announcement goes out first and then the whole room follows into the match room, so
// the first match event already reaches every member. A failed start moves them back.
func (h *Hub) LobbyBroadcaster() models.Broadcaster {
	return models.BroadcastFuncs{
		BroadcastFn: func(room uuid.UUID, ev models.Event) {
			matchID, _ := ev.Payload["matchId"].(uuid.UUID)
			switch ev.Type {
			case lobby.EventMatchStarting:
				h.Broadcast(room, ev)
				h.MoveRoom(room, matchID)
			case lobby.EventStartFailed:
				h.MoveRoom(matchID, room)
				h.Broadcast(room, ev)
			default:
				h.Broadcast(room, ev)
			}
		},
		SendToFn: h.SendTo,
	}
}
