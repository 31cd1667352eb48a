package schedule

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// ManualTask is a task held by Manual until a test fires it.
type ManualTask struct {
	Owner uuid.UUID
	Key   string
	Delay time.Duration
	fn    func()
}

// Manual never fires on its own. Tests drive time by calling Fire, RunNext or RunAll.
type Manual struct {
	mu    sync.Mutex
	tasks []*ManualTask
}

// NewManual returns an empty manual scheduler.
func NewManual() *Manual {
	return &Manual{}
}

func (m *Manual) Schedule(owner uuid.UUID, key string, delay time.Duration, fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(owner, key)
	m.tasks = append(m.tasks, &ManualTask{Owner: owner, Key: key, Delay: delay, fn: fn})
}

func (m *Manual) Cancel(owner uuid.UUID, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(owner, key)
}

func (m *Manual) CancelAll(owner uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.tasks[:0]
	for _, t := range m.tasks {
		if t.Owner != owner {
			kept = append(kept, t)
		}
	}
	m.tasks = kept
}

func (m *Manual) removeLocked(owner uuid.UUID, key string) {
	for i, t := range m.tasks {
		if t.Owner == owner && t.Key == key {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			return
		}
	}
}

// Has reports whether a task with key is pending for owner.
func (m *Manual) Has(owner uuid.UUID, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tasks {
		if t.Owner == owner && t.Key == key {
			return true
		}
	}
	return false
}

// Len returns the number of pending tasks.
func (m *Manual) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// Fire runs the pending task with key for owner, if any. The callback runs without the scheduler lock.
func (m *Manual) Fire(owner uuid.UUID, key string) bool {
	m.mu.Lock()
	var task *ManualTask
	for i, t := range m.tasks {
		if t.Owner == owner && t.Key == key {
			task = t
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			break
		}
	}
	m.mu.Unlock()
	if task == nil {
		return false
	}
	task.fn()
	return true
}

// RunNext fires the oldest pending task.
func (m *Manual) RunNext() bool {
	m.mu.Lock()
	if len(m.tasks) == 0 {
		m.mu.Unlock()
		return false
	}
	task := m.tasks[0]
	m.tasks = m.tasks[1:]
	m.mu.Unlock()
	task.fn()
	return true
}

// RunAll fires tasks, including ones scheduled by earlier callbacks, until none remain or limit is hit.
// It returns the number of tasks fired.
func (m *Manual) RunAll(limit int) int {
	n := 0
	for n < limit && m.RunNext() {
		n++
	}
	return n
}

// RunUntil fires tasks until cond returns true, nothing is pending, or limit is hit.
func (m *Manual) RunUntil(limit int, cond func() bool) bool {
	for i := 0; i < limit; i++ {
		if cond() {
			return true
		}
		if !m.RunNext() {
			return cond()
		}
	}
	return cond()
}
