package syncer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/battlab/cycler-queue-service/internal/domain"
	"github.com/battlab/cycler-queue-service/internal/scheduler"
	"github.com/battlab/cycler-queue-service/internal/storage"
)

// failingSource always fails to list jobs.
type failingSource struct{}

func (failingSource) Type() domain.SchedulerType { return domain.SchedulerTypeMock }
func (failingSource) ListJobs(context.Context) ([]*domain.Job, error) {
	return nil, errors.New("daemon unreachable")
}
func (failingSource) GetJob(context.Context, string) (*domain.Job, error) { return nil, nil }
func (failingSource) Submit(context.Context, scheduler.SubmitRequest) (string, error) {
	return "", errors.New("daemon unreachable")
}
func (failingSource) Cancel(context.Context, string) (bool, error) { return false, nil }
func (failingSource) DetailedInfo(context.Context, string) (string, error) {
	return "", errors.New("daemon unreachable")
}

func newTestStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := storage.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	if err := store.Migrate(); err != nil {
		t.Fatalf("failed to migrate test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSyncOnce_UpsertsJobs(t *testing.T) {
	store := newTestStore(t)
	source := scheduler.NewMockJobSource()
	source.QueueDelay = time.Hour

	ctx := context.Background()
	payload := &domain.CyclingPayload{
		Version: "0.1",
		Sample:  domain.BatterySample{Name: "cell-a"},
		Method:  []domain.CyclingMethod{{Technique: "open_circuit_voltage"}},
	}
	id, err := source.Submit(ctx, scheduler.SubmitRequest{Payload: payload})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	s := New(source, store, DefaultConfig(), nil)
	s.SyncOnce(ctx)

	job, err := store.GetJob(ctx, id)
	if err != nil {
		t.Fatalf("job not stored after sync: %v", err)
	}
	if job.State != domain.JobStateQueued {
		t.Errorf("State = %v, want queued", job.State)
	}
}

func TestSyncOnce_MarksVanishedJobsCompleted(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// A job from a previous sync that the queue no longer reports.
	err := store.UpsertJob(ctx, &domain.Job{
		ID:         "old-7",
		State:      domain.JobStateRunning,
		Scheduler:  domain.SchedulerTypeMock,
		LastSeenAt: time.Now().Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("UpsertJob returned error: %v", err)
	}

	cfg := DefaultConfig()
	cfg.StaleAfter = time.Minute
	s := New(scheduler.NewMockJobSource(), store, cfg, nil)
	s.SyncOnce(ctx)

	job, err := store.GetJob(ctx, "old-7")
	if err != nil {
		t.Fatalf("GetJob returned error: %v", err)
	}
	if job.State != domain.JobStateDone {
		t.Errorf("vanished job state = %v, want done", job.State)
	}
}

func TestSyncOnce_ListFailureSkipsStaleSweep(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.UpsertJob(ctx, &domain.Job{
		ID:         "7",
		State:      domain.JobStateRunning,
		LastSeenAt: time.Now().Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("UpsertJob returned error: %v", err)
	}

	cfg := DefaultConfig()
	cfg.StaleAfter = time.Minute
	s := New(failingSource{}, store, cfg, nil)
	s.SyncOnce(ctx)

	job, err := store.GetJob(ctx, "7")
	if err != nil {
		t.Fatalf("GetJob returned error: %v", err)
	}
	if job.State != domain.JobStateRunning {
		t.Errorf("State = %v; a failed listing must not complete jobs", job.State)
	}
}

func TestStartStop(t *testing.T) {
	store := newTestStore(t)
	cfg := Config{SyncInterval: 10 * time.Millisecond, InitialDelay: 0, StaleAfter: time.Hour}
	s := New(scheduler.NewMockJobSource(), store, cfg, nil)

	s.Start()
	s.Start() // idempotent
	time.Sleep(50 * time.Millisecond)
	s.Stop()
	s.Stop() // idempotent
}
