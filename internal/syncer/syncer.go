// Package syncer keeps stored job snapshots in line with the
// scheduler's queue. It periodically lists jobs from a JobSource,
// upserts them into storage, and marks jobs that dropped out of the
// queue as completed - tomato removes finished jobs from its listing,
// so disappearance is how completion is observed.
package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/battlab/cycler-queue-service/internal/scheduler"
	"github.com/battlab/cycler-queue-service/internal/storage"
	"go.uber.org/zap"
)

// Config holds the syncer configuration.
type Config struct {
	// SyncInterval is how often to sync jobs from the scheduler.
	SyncInterval time.Duration
	// InitialDelay is how long to wait before the first sync.
	InitialDelay time.Duration
	// StaleAfter is how long a non-terminal job may be absent from the
	// queue before it is considered completed. Should be a few sync
	// intervals so one failed listing does not complete everything.
	StaleAfter time.Duration
}

// DefaultConfig returns a default syncer configuration.
func DefaultConfig() Config {
	return Config{
		SyncInterval: 30 * time.Second,
		InitialDelay: 5 * time.Second,
		StaleAfter:   2 * time.Minute,
	}
}

// Syncer synchronizes jobs from a scheduler to storage.
type Syncer struct {
	source scheduler.JobSource
	store  storage.Store
	config Config
	log    *zap.Logger

	stopCh  chan struct{}
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

// New creates a new Syncer. A nil logger disables logging.
func New(source scheduler.JobSource, store storage.Store, config Config, log *zap.Logger) *Syncer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Syncer{
		source: source,
		store:  store,
		config: config,
		log:    log,
		stopCh: make(chan struct{}),
	}
}

// Start begins the background sync process.
func (s *Syncer) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}

	s.running = true
	s.wg.Add(1)
	go s.runLoop()
	s.log.Info("job syncer started",
		zap.Duration("interval", s.config.SyncInterval),
		zap.String("scheduler", string(s.source.Type())))
}

// Stop halts the background sync process.
func (s *Syncer) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()
	s.log.Info("job syncer stopped")
}

func (s *Syncer) runLoop() {
	defer s.wg.Done()

	select {
	case <-time.After(s.config.InitialDelay):
	case <-s.stopCh:
		return
	}

	s.SyncOnce(context.Background())

	ticker := time.NewTicker(s.config.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.SyncOnce(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// SyncOnce performs a single sync pass. Exported so callers can force
// a sync outside the regular schedule.
func (s *Syncer) SyncOnce(ctx context.Context) {
	start := time.Now()

	jobs, err := s.source.ListJobs(ctx)
	if err != nil {
		// A failed listing must not mask the queue state; skip the
		// stale sweep too, otherwise everything would complete.
		s.log.Error("job sync failed to list jobs", zap.Error(err))
		return
	}

	var upsertErrors int
	for _, job := range jobs {
		if err := s.store.UpsertJob(ctx, job); err != nil {
			upsertErrors++
			s.log.Error("job sync failed to upsert job",
				zap.String("job_id", job.ID), zap.Error(err))
		}
	}

	completed, err := s.store.MarkCompletedNotSeenSince(ctx, start.Add(-s.config.StaleAfter))
	if err != nil {
		s.log.Error("job sync failed to sweep stale jobs", zap.Error(err))
	}

	s.log.Info("job sync completed",
		zap.Int("jobs", len(jobs)),
		zap.Int("errors", upsertErrors),
		zap.Int("newly_completed", completed),
		zap.Duration("duration", time.Since(start)))
}
