// Package storage provides database persistence for job snapshots.
// It supports both SQLite (default) and PostgreSQL backends behind one
// database/sql implementation.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/battlab/cycler-queue-service/internal/domain"
)

// Store defines the interface for job persistence.
type Store interface {
	// UpsertJob creates or refreshes a job snapshot.
	UpsertJob(ctx context.Context, job *domain.Job) error

	// GetJob retrieves a job by ID. Returns domain.ErrJobNotFound if
	// the job doesn't exist.
	GetJob(ctx context.Context, id string) (*domain.Job, error)

	// ListJobs retrieves jobs matching the filter criteria. Returns
	// the page of jobs and the total count before pagination.
	ListJobs(ctx context.Context, filter domain.JobFilter) ([]*domain.Job, int, error)

	// DeleteJob deletes a job by ID. Returns domain.ErrJobNotFound if
	// the job doesn't exist.
	DeleteJob(ctx context.Context, id string) error

	// JobStateCounts returns the number of jobs in each state.
	JobStateCounts(ctx context.Context) (map[domain.JobState]int, error)

	// PipelineJobCounts returns the number of non-terminal jobs per
	// pipeline, for jobs that have been assigned one.
	PipelineJobCounts(ctx context.Context) (map[string]int, error)

	// MarkCompletedNotSeenSince marks every non-terminal job whose
	// snapshot was last refreshed before cutoff as done. tomato drops
	// completed jobs from its queue listing, so disappearing from the
	// queue is how completion is observed. Returns the number of jobs
	// transitioned.
	MarkCompletedNotSeenSince(ctx context.Context, cutoff time.Time) (int, error)

	// Migrate creates or updates the database schema.
	Migrate() error

	// Close releases the underlying database handle.
	Close() error
}

// New creates a new store for the given database type. Supported types
// are "sqlite" and "postgres".
func New(dbType, dsn string) (Store, error) {
	switch strings.ToLower(dbType) {
	case "sqlite", "sqlite3":
		return NewSQLiteStore(dsn)
	case "postgres", "postgresql":
		return NewPostgresStore(dsn)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}
}
