// internal/lobby/lobby.go
package lobby

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/models"
)

// State is a lobby's lifecycle step.
type State string

const (
	StateWaiting  State = "waiting"
	StateVoting   State = "voting"
	StatePlaying  State = "playing"
	StateFinished State = "finished"
)

// Member is a human in the lobby.
type Member struct {
	UserID    uuid.UUID `json:"userId"`
	Name      string    `json:"name"`
	Slot      int       `json:"slot"`
	Ready     bool      `json:"ready"`
	Character string    `json:"character"`
}

// Bot is a CPU seat. Bots share the slot namespace with members.
type Bot struct {
	ID         uuid.UUID         `json:"id"`
	Name       string            `json:"name"`
	Slot       int               `json:"slot"`
	Difficulty models.Difficulty `json:"difficulty"`
	Character  string            `json:"character"`
}

// Ballot holds the board and tutorial votes of one voting round.
type Ballot struct {
	Options  []string
	Boards   map[uuid.UUID]string // member or bot id -> board id
	Tutorial map[uuid.UUID]bool
	Deadline time.Time
	botsCast bool
}

func newBallot(options []string, deadline time.Time) *Ballot {
	return &Ballot{
		Options:  options,
		Boards:   make(map[uuid.UUID]string),
		Tutorial: make(map[uuid.UUID]bool),
		Deadline: deadline,
	}
}

func (b *Ballot) offered(boardID string) bool {
	for _, o := range b.Options {
		if o == boardID {
			return true
		}
	}
	return false
}

// tally counts votes per offered board.
func (b *Ballot) tally() map[string]int {
	counts := make(map[string]int, len(b.Options))
	for _, o := range b.Options {
		counts[o] = 0
	}
	for _, v := range b.Boards {
		counts[v]++
	}
	return counts
}

// showTutorial is a strict majority of yes votes. Ties and silence mean no.
func (b *Ballot) showTutorial() bool {
	yes, no := 0, 0
	for _, v := range b.Tutorial {
		if v {
			yes++
		} else {
			no++
		}
	}
	return yes > no
}

// Lobby is an in-memory room where players gather before a match. Every field is guarded by Mu.
type Lobby struct {
	ID        uuid.UUID
	Name      string
	HostID    uuid.UUID
	Public    bool
	Code      string
	State     State
	Members   []*Member
	Bots      []*Bot
	Settings  models.MatchSettings
	Ballot    *Ballot
	BoardID   string
	MatchID   uuid.UUID
	Tutorial  bool
	CreatedAt time.Time

	resolved bool
	botSeq   int
	rng      *rand.Rand

	Mu sync.Mutex
}

func (l *Lobby) member(id uuid.UUID) *Member {
	for _, m := range l.Members {
		if m.UserID == id {
			return m
		}
	}
	return nil
}

func (l *Lobby) bot(id uuid.UUID) *Bot {
	for _, b := range l.Bots {
		if b.ID == id {
			return b
		}
	}
	return nil
}

func (l *Lobby) size() int {
	return len(l.Members) + len(l.Bots)
}

func (l *Lobby) full() bool {
	return l.size() >= l.Settings.MaxPlayers
}

// freeSlot returns the lowest slot no member or bot holds.
func (l *Lobby) freeSlot() int {
	taken := make(map[int]bool, l.size())
	for _, m := range l.Members {
		taken[m.Slot] = true
	}
	for _, b := range l.Bots {
		taken[b.Slot] = true
	}
	for i := 0; ; i++ {
		if !taken[i] {
			return i
		}
	}
}

// voters returns the ids of everyone who votes on the board: members and bots.
func (l *Lobby) voters() []uuid.UUID {
	out := make([]uuid.UUID, 0, l.size())
	for _, m := range l.Members {
		out = append(out, m.UserID)
	}
	for _, b := range l.Bots {
		out = append(out, b.ID)
	}
	return out
}

// canStart is the start gate: two or more seats and every guest ready.
func (l *Lobby) canStart() bool {
	if l.size() < 2 {
		return false
	}
	for _, m := range l.Members {
		if m.UserID != l.HostID && !m.Ready {
			return false
		}
	}
	return true
}

// seats lists every participant in slot order.
func (l *Lobby) seats() []models.Seat {
	type slotted struct {
		slot int
		seat models.Seat
	}
	var all []slotted
	for _, m := range l.Members {
		all = append(all, slotted{m.Slot, models.Seat{ID: m.UserID, Name: m.Name, Character: m.Character}})
	}
	for _, b := range l.Bots {
		all = append(all, slotted{b.Slot, models.Seat{ID: b.ID, Name: b.Name, IsBot: true, Difficulty: b.Difficulty, Character: b.Character}})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].slot < all[j].slot })
	out := make([]models.Seat, len(all))
	for i, s := range all {
		out[i] = s.seat
	}
	return out
}

// VoteView is the public state of a running vote.
type VoteView struct {
	Options  []string       `json:"options"`
	Counts   map[string]int `json:"counts"`
	Voted    []uuid.UUID    `json:"voted"`
	Deadline time.Time      `json:"deadline"`
}

// View is the serializable snapshot of a lobby.
type View struct {
	ID       uuid.UUID            `json:"id"`
	Name     string               `json:"name"`
	HostID   uuid.UUID            `json:"hostId"`
	Public   bool                 `json:"public"`
	Code     string               `json:"code"`
	State    State                `json:"state"`
	Members  []Member             `json:"members"`
	Bots     []Bot                `json:"bots"`
	Settings models.MatchSettings `json:"settings"`
	Vote     *VoteView            `json:"vote,omitempty"`
	BoardID  string               `json:"boardId,omitempty"`
	MatchID  uuid.UUID            `json:"matchId,omitempty"`
}

func (l *Lobby) view() View {
	v := View{
		ID:       l.ID,
		Name:     l.Name,
		HostID:   l.HostID,
		Public:   l.Public,
		Code:     l.Code,
		State:    l.State,
		Members:  make([]Member, 0, len(l.Members)),
		Bots:     make([]Bot, 0, len(l.Bots)),
		Settings: l.Settings,
		BoardID:  l.BoardID,
		MatchID:  l.MatchID,
	}
	for _, m := range l.Members {
		v.Members = append(v.Members, *m)
	}
	for _, b := range l.Bots {
		v.Bots = append(v.Bots, *b)
	}
	if b := l.Ballot; b != nil {
		vv := &VoteView{Options: b.Options, Counts: b.tally(), Deadline: b.Deadline}
		for _, id := range l.voters() {
			if _, ok := b.Boards[id]; ok {
				vv.Voted = append(vv.Voted, id)
			}
		}
		v.Vote = vv
	}
	return v
}
