// Package scheduler provides an abstraction layer for job scheduling
// backends. It defines the JobSource interface the rest of the service
// consumes, a tomato-backed implementation driving the ketchup CLI
// through a pluggable transport, and a mock implementation for tests
// and demos.
package scheduler

import (
	"context"

	"github.com/battlab/cycler-queue-service/internal/domain"
)

// SubmitRequest carries everything needed to submit a new cycling job.
type SubmitRequest struct {
	// JobName is an optional human-readable label.
	JobName string
	// Payload is the cycling payload to run. Required.
	Payload *domain.CyclingPayload
}

// JobSource defines the interface for driving a job scheduling backend.
// Implementations must be safe for concurrent use.
type JobSource interface {
	// Type returns the scheduler type identifier.
	Type() domain.SchedulerType

	// ListJobs returns a snapshot of all jobs currently known to the
	// scheduler's queue.
	ListJobs(ctx context.Context) ([]*domain.Job, error)

	// GetJob returns a specific job by its scheduler-assigned id.
	// Returns nil and no error if the job is not found.
	GetJob(ctx context.Context, id string) (*domain.Job, error)

	// Submit submits a new job and returns the id the scheduler
	// assigned to it.
	Submit(ctx context.Context, req SubmitRequest) (string, error)

	// Cancel asks the scheduler to cancel a job. The boolean reports
	// whether the scheduler accepted the cancellation; the error is
	// reserved for transport failures.
	Cancel(ctx context.Context, id string) (bool, error)

	// DetailedInfo returns the scheduler's detailed report on a job,
	// verbatim, for logging purposes.
	DetailedInfo(ctx context.Context, id string) (string, error)
}

// Observer receives outcome notifications from a JobSource so callers
// can feed them into metrics without coupling the source to a metrics
// implementation. All methods may be called concurrently.
type Observer interface {
	// SubmissionResult is called once per Submit with the outcome.
	SubmissionResult(ok bool)
	// CancellationResult is called once per Cancel with the outcome.
	CancellationResult(ok bool)
	// ParseFailure is called when scheduler output could not be parsed.
	ParseFailure(op string)
}

// NopObserver is an Observer that discards everything.
type NopObserver struct{}

func (NopObserver) SubmissionResult(bool)   {}
func (NopObserver) CancellationResult(bool) {}
func (NopObserver) ParseFailure(string)     {}
