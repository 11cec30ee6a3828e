package scheduler

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/battlab/cycler-queue-service/internal/domain"
	"github.com/battlab/cycler-queue-service/internal/tomato"
)

// MockJobSource provides a simulated queue for testing and development.
// Submitted jobs move queued -> running -> done on a fixed timetable,
// imitating a tomato daemon with a couple of pipelines.
type MockJobSource struct {
	mu        sync.RWMutex
	jobs      map[string]*mockJob
	nextID    int
	pipelines []string

	// QueueDelay and RunDuration control how long a job stays queued
	// and running before advancing.
	QueueDelay  time.Duration
	RunDuration time.Duration
}

type mockJob struct {
	job         domain.Job
	submittedAt time.Time
	cancelled   bool
}

// NewMockJobSource creates a new mock job source.
func NewMockJobSource() *MockJobSource {
	return &MockJobSource{
		jobs:        make(map[string]*mockJob),
		nextID:      1,
		pipelines:   []string{"pipeline-01", "pipeline-02"},
		QueueDelay:  10 * time.Second,
		RunDuration: 2 * time.Minute,
	}
}

// Type returns the scheduler type.
func (m *MockJobSource) Type() domain.SchedulerType {
	return domain.SchedulerTypeMock
}

// ListJobs returns all simulated jobs, ordered by id.
func (m *MockJobSource) ListJobs(ctx context.Context) ([]*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	var jobs []*domain.Job
	for _, mj := range m.jobs {
		m.advance(mj, now)
		job := mj.job
		jobs = append(jobs, &job)
	}

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].ID < jobs[j].ID })
	return jobs, nil
}

// GetJob returns a simulated job by id, or nil if unknown.
func (m *MockJobSource) GetJob(ctx context.Context, id string) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	mj, ok := m.jobs[id]
	if !ok {
		return nil, nil
	}
	m.advance(mj, time.Now())
	job := mj.job
	return &job, nil
}

// Submit creates a new simulated job and returns its id.
func (m *MockJobSource) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	if req.Payload == nil {
		return "", tomato.ErrMissingPayload
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	id := strconv.Itoa(m.nextID)
	m.nextID++

	m.jobs[id] = &mockJob{
		job: domain.Job{
			ID:         id,
			State:      domain.JobStateQueued,
			SampleName: req.Payload.Sample.Name,
			JobName:    req.JobName,
			RawState:   "q",
			Scheduler:  domain.SchedulerTypeMock,
			SubmitTime: &now,
			LastSeenAt: now,
		},
		submittedAt: now,
	}

	return id, nil
}

// Cancel marks a simulated job as done.
func (m *MockJobSource) Cancel(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	mj, ok := m.jobs[id]
	if !ok || mj.job.State.IsTerminal() {
		return false, nil
	}

	now := time.Now()
	mj.cancelled = true
	mj.job.State = domain.JobStateDone
	mj.job.RawState = "cd"
	mj.job.CompletedAt = &now
	return true, nil
}

// DetailedInfo returns a human-readable report on a simulated job.
func (m *MockJobSource) DetailedInfo(ctx context.Context, id string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	mj, ok := m.jobs[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrJobNotFound, id)
	}
	return fmt.Sprintf("jobid = %s\nstatus = %s\npipeline = %s\n",
		mj.job.ID, mj.job.RawState, mj.job.Pipeline), nil
}

// advance moves a job along the simulated lifecycle. Caller must hold
// the write lock.
func (m *MockJobSource) advance(mj *mockJob, now time.Time) {
	if mj.cancelled || mj.job.State.IsTerminal() {
		return
	}

	age := now.Sub(mj.submittedAt)
	switch {
	case age < m.QueueDelay:
		mj.job.State = domain.JobStateQueued
		mj.job.RawState = "qw"
	case age < m.QueueDelay+m.RunDuration:
		mj.job.State = domain.JobStateRunning
		mj.job.RawState = "r"
		mj.job.Pipeline = m.pipelineFor(mj.job.ID)
	default:
		mj.job.State = domain.JobStateDone
		mj.job.RawState = "c"
		done := mj.submittedAt.Add(m.QueueDelay + m.RunDuration)
		mj.job.CompletedAt = &done
	}
	mj.job.LastSeenAt = now
}

func (m *MockJobSource) pipelineFor(id string) string {
	n, err := strconv.Atoi(id)
	if err != nil {
		n = len(id)
	}
	return m.pipelines[n%len(m.pipelines)]
}
