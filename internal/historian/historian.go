// internal/historian/historian.go

// Package historian drains the match action log into durable storage and marks matches abandoned
// once they stop producing actions without ever reaching their end.
package historian

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/cache"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/database"
)

// endActionType is the action that closes a match's history.
const endActionType = "match_end"

// Source yields action records. Pop returns nil, nil when nothing arrived within timeout.
type Source interface {
	Pop(ctx context.Context, timeout time.Duration) (*cache.ActionRecord, error)
}

// Options configures a Service. Zero values fall back to defaults.
type Options struct {
	BatchSize     int
	FlushDelay    time.Duration
	Inactivity    time.Duration
	SweepInterval time.Duration
	PopTimeout    time.Duration
	Logger        *logrus.Logger
	Now           func() time.Time
}

// Service batches records from a Source into an ActionSink.
type Service struct {
	src  Source
	sink database.ActionSink
	opts Options
	log  *logrus.Entry

	batchMu sync.Mutex
	batch   []cache.ActionRecord

	activityMu   sync.Mutex
	lastActivity map[uuid.UUID]time.Time
}

func New(src Source, sink database.ActionSink, opts Options) *Service {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 20
	}
	if opts.FlushDelay <= 0 {
		opts.FlushDelay = 500 * time.Millisecond
	}
	if opts.Inactivity <= 0 {
		opts.Inactivity = 10 * time.Minute
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = time.Minute
	}
	if opts.PopTimeout <= 0 {
		opts.PopTimeout = 3 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		src:          src,
		sink:         sink,
		opts:         opts,
		log:          opts.Logger.WithField("component", "historian"),
		batch:        make([]cache.ActionRecord, 0, opts.BatchSize),
		lastActivity: make(map[uuid.UUID]time.Time),
	}
}

// Run drains and sweeps until ctx is cancelled, then flushes what is left.
func (s *Service) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.readLoop(ctx) })
	g.Go(func() error { return s.flushLoop(ctx) })
	g.Go(func() error { return s.inactivityLoop(ctx) })

	s.log.Info("historian started")
	err := g.Wait()

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Flush(flushCtx)
	s.log.Info("historian stopped")
	return err
}

func (s *Service) readLoop(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		rec, err := s.src.Pop(ctx, s.opts.PopTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.log.Errorf("pop: %v", err)
			time.Sleep(s.opts.FlushDelay)
			continue
		}
		if rec == nil {
			continue
		}
		s.Accept(ctx, *rec)
	}
}

func (s *Service) flushLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.opts.FlushDelay)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Flush(ctx)
		}
	}
}

func (s *Service) inactivityLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.opts.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Accept tracks the record's match and adds it to the batch, flushing when the batch is full.
func (s *Service) Accept(ctx context.Context, rec cache.ActionRecord) {
	s.activityMu.Lock()
	if rec.ActionType == endActionType {
		delete(s.lastActivity, rec.MatchID)
	} else {
		s.lastActivity[rec.MatchID] = s.opts.Now()
	}
	s.activityMu.Unlock()

	s.batchMu.Lock()
	s.batch = append(s.batch, rec)
	full := len(s.batch) >= s.opts.BatchSize
	s.batchMu.Unlock()

	if full {
		s.Flush(ctx)
	}
}

// Flush writes the current batch in one call. A failed batch is put back for the next flush.
func (s *Service) Flush(ctx context.Context) {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	if len(s.batch) == 0 {
		return
	}
	pending := make([]cache.ActionRecord, len(s.batch))
	copy(pending, s.batch)

	if err := s.sink.InsertActions(ctx, pending); err != nil {
		s.log.Errorf("flush %d actions: %v", len(pending), err)
		return
	}
	s.batch = s.batch[:0]
	s.log.Debugf("flushed %d actions", len(pending))
}

// Sweep marks every match idle longer than the inactivity window as abandoned.
func (s *Service) Sweep(ctx context.Context) {
	now := s.opts.Now()
	var idle []uuid.UUID
	s.activityMu.Lock()
	for id, last := range s.lastActivity {
		if now.Sub(last) > s.opts.Inactivity {
			idle = append(idle, id)
			delete(s.lastActivity, id)
		}
	}
	s.activityMu.Unlock()

	for _, id := range idle {
		if err := s.sink.MarkAbandoned(ctx, id); err != nil {
			s.log.WithField("match", id).Errorf("mark abandoned: %v", err)
			continue
		}
		s.log.WithField("match", id).Info("marked abandoned after inactivity")
	}
}

// Tracked returns how many matches are being watched for inactivity.
func (s *Service) Tracked() int {
	s.activityMu.Lock()
	defer s.activityMu.Unlock()
	return len(s.lastActivity)
}
