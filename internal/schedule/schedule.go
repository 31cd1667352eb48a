// internal/schedule/schedule.go

// Package schedule runs deferred continuations keyed by the id of the lobby or match that owns them.
// A task scheduled under an (owner, key) pair replaces any earlier task with the same pair, and every
// task of an owner can be cancelled at teardown. Callbacks must re-validate their owner's state.
package schedule

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Scheduler is implemented by Timers (production) and Manual (tests).
type Scheduler interface {
	Schedule(owner uuid.UUID, key string, delay time.Duration, fn func())
	Cancel(owner uuid.UUID, key string)
	CancelAll(owner uuid.UUID)
}

type taskKey struct {
	owner uuid.UUID
	key   string
}

// Timers backs each task with a time.AfterFunc timer.
type Timers struct {
	mu     sync.Mutex
	timers map[taskKey]*time.Timer
}

// NewTimers returns an empty timer-backed scheduler.
func NewTimers() *Timers {
	return &Timers{timers: make(map[taskKey]*time.Timer)}
}

// Schedule registers fn to run after delay, replacing a pending task with the same owner and key.
func (s *Timers) Schedule(owner uuid.UUID, key string, delay time.Duration, fn func()) {
	k := taskKey{owner: owner, key: key}

	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.timers[k]; ok {
		old.Stop()
	}

	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		s.mu.Lock()
		current, ok := s.timers[k]
		if !ok || current != t {
			// replaced or cancelled after firing began
			s.mu.Unlock()
			return
		}
		delete(s.timers, k)
		s.mu.Unlock()
		fn()
	})
	s.timers[k] = t
}

// Cancel stops a single pending task.
func (s *Timers) Cancel(owner uuid.UUID, key string) {
	k := taskKey{owner: owner, key: key}
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[k]; ok {
		t.Stop()
		delete(s.timers, k)
	}
}

// CancelAll stops every pending task of owner.
func (s *Timers) CancelAll(owner uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, t := range s.timers {
		if k.owner == owner {
			t.Stop()
			delete(s.timers, k)
		}
	}
}

// Pending reports how many tasks are waiting.
func (s *Timers) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
