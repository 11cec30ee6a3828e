// Package domain contains the core business entities for the cycler
// queue service. Domain entities are pure Go types with no dependencies
// on external packages (API, database, scheduler) - all other layers
// depend on domain, domain depends on nothing else.
package domain

import (
	"errors"
	"time"
)

// Common errors returned by storage and service operations.
var (
	ErrJobNotFound      = errors.New("job not found")
	ErrJobAlreadyExists = errors.New("job already exists")
	ErrInvalidJobState  = errors.New("invalid job state")
)

// JobState represents the canonical state of a cycling job.
type JobState string

const (
	JobStateQueued       JobState = "queued"
	JobStateRunning      JobState = "running"
	JobStateDone         JobState = "done"
	JobStateUndetermined JobState = "undetermined"
)

// IsTerminal returns true if the job state is final. Done conflates
// successful, errored and cancelled completions; the outcome has to be
// read from the job's result artifacts.
func (s JobState) IsTerminal() bool {
	return s == JobStateDone
}

// IsValid returns true if the job state is a recognized state.
func (s JobState) IsValid() bool {
	switch s {
	case JobStateQueued, JobStateRunning, JobStateDone, JobStateUndetermined:
		return true
	default:
		return false
	}
}

// SchedulerType identifies the type of scheduler backend.
type SchedulerType string

const (
	SchedulerTypeMock   SchedulerType = "mock"
	SchedulerTypeTomato SchedulerType = "tomato"
)

// Job represents one cycling job with its metadata and current state.
type Job struct {
	ID          string        `json:"id"`
	State       JobState      `json:"state"`
	Pipeline    string        `json:"pipeline,omitempty"`
	SampleName  string        `json:"sample_name,omitempty"`
	JobName     string        `json:"job_name,omitempty"`
	RawState    string        `json:"raw_state,omitempty"`
	RawFields   []string      `json:"raw_fields,omitempty"`
	Scheduler   SchedulerType `json:"scheduler,omitempty"`
	SubmitTime  *time.Time    `json:"submit_time,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	LastSeenAt  time.Time     `json:"last_seen_at"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// IsInTerminalState returns true if the job is in a terminal state.
func (j *Job) IsInTerminalState() bool {
	return j.State.IsTerminal()
}

// JobFilter contains optional filters for listing jobs.
type JobFilter struct {
	State    *JobState
	Pipeline *string
	Limit    int
	Offset   int
}
