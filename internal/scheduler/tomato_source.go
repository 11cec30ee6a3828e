package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/battlab/cycler-queue-service/internal/domain"
	"github.com/battlab/cycler-queue-service/internal/tomato"
	"go.uber.org/zap"
)

// TomatoConfig contains configuration for driving a tomato daemon
// through its ketchup CLI.
type TomatoConfig struct {
	// ScriptDir is where submission scripts are written. Empty means
	// the system temp directory.
	ScriptDir string
	// Runner executes the rendered commands. Defaults to a LocalRunner.
	Runner Runner
	// Scripts persists submission scripts. Defaults to a DirScriptWriter
	// over ScriptDir.
	Scripts ScriptWriter
	// Observer receives submission/cancellation outcomes. Optional.
	Observer Observer
	// Logger is the service logger. A nil logger disables logging.
	Logger *zap.Logger
}

// TomatoJobSource drives the tomato scheduler. All command rendering
// and output parsing is delegated to the tomato adapter; this type only
// wires the adapter to a transport and converts its records into the
// domain job model.
type TomatoJobSource struct {
	adapter  *tomato.Adapter
	runner   Runner
	scripts  ScriptWriter
	observer Observer
	log      *zap.Logger
}

// NewTomatoJobSource creates a new tomato job source.
func NewTomatoJobSource(cfg TomatoConfig) *TomatoJobSource {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	runner := cfg.Runner
	if runner == nil {
		runner = &LocalRunner{}
	}
	scripts := cfg.Scripts
	if scripts == nil {
		scripts = &DirScriptWriter{Dir: cfg.ScriptDir}
	}
	observer := cfg.Observer
	if observer == nil {
		observer = NopObserver{}
	}

	return &TomatoJobSource{
		adapter:  tomato.NewAdapter(log),
		runner:   runner,
		scripts:  scripts,
		observer: observer,
		log:      log,
	}
}

// Type returns the scheduler type.
func (s *TomatoJobSource) Type() domain.SchedulerType {
	return domain.SchedulerTypeTomato
}

// ListJobs fetches the full queue from tomato.
func (s *TomatoJobSource) ListJobs(ctx context.Context) ([]*domain.Job, error) {
	return s.listJobs(ctx, nil)
}

// GetJob fetches a single job by id. Returns nil and no error if
// tomato no longer reports the job.
func (s *TomatoJobSource) GetJob(ctx context.Context, id string) (*domain.Job, error) {
	jobs, err := s.listJobs(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, nil
	}
	return jobs[0], nil
}

func (s *TomatoJobSource) listJobs(ctx context.Context, ids []string) ([]*domain.Job, error) {
	command, err := s.adapter.JobListCommand(ids)
	if err != nil {
		return nil, err
	}

	exitCode, stdout, stderr, err := s.runner.Run(ctx, command)
	if err != nil {
		return nil, fmt.Errorf("failed to run %q: %w", command, err)
	}

	infos, err := s.adapter.ParseJobList(exitCode, stdout, stderr)
	if err != nil {
		s.observer.ParseFailure("status")
		return nil, err
	}

	now := time.Now()
	jobs := make([]*domain.Job, 0, len(infos))
	for _, info := range infos {
		jobs = append(jobs, convertJobInfo(info, now))
	}
	return jobs, nil
}

// Submit renders the submission script, writes it to the script dir
// and submits it through ketchup, returning the assigned job id.
func (s *TomatoJobSource) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	tmpl := tomato.SubmissionTemplate{JobName: req.JobName}
	if req.Payload != nil {
		tmpl.Payload = req.Payload
	}

	script, err := s.adapter.SubmissionScript(tmpl, tomato.ResourceSpec{})
	if err != nil {
		s.observer.SubmissionResult(false)
		return "", err
	}

	path, err := s.scripts.WriteScript(req.JobName, script)
	if err != nil {
		s.observer.SubmissionResult(false)
		return "", err
	}

	command := s.adapter.SubmitCommand(tomato.EscapeShellArg(path))
	s.log.Info("submitting job", zap.String("command", command))

	exitCode, stdout, stderr, err := s.runner.Run(ctx, command)
	if err != nil {
		s.observer.SubmissionResult(false)
		return "", fmt.Errorf("failed to run %q: %w", command, err)
	}

	jobID, err := s.adapter.ParseSubmissionOutput(exitCode, stdout, stderr)
	if err != nil {
		s.observer.SubmissionResult(false)
		return "", err
	}

	s.observer.SubmissionResult(true)
	return jobID, nil
}

// Cancel asks tomato to cancel a job. Cancellation is best-effort: a
// scheduler-side failure is reported as false, not as an error.
func (s *TomatoJobSource) Cancel(ctx context.Context, id string) (bool, error) {
	command := s.adapter.KillCommand(id)
	s.log.Info("cancelling job", zap.String("job_id", id), zap.String("command", command))

	exitCode, stdout, stderr, err := s.runner.Run(ctx, command)
	if err != nil {
		return false, fmt.Errorf("failed to run %q: %w", command, err)
	}

	ok := s.adapter.ParseKillOutput(exitCode, stdout, stderr)
	s.observer.CancellationResult(ok)
	return ok, nil
}

// DetailedInfo returns ketchup's detailed status report verbatim.
func (s *TomatoJobSource) DetailedInfo(ctx context.Context, id string) (string, error) {
	command := s.adapter.DetailedInfoCommand(id)

	exitCode, stdout, stderr, err := s.runner.Run(ctx, command)
	if err != nil {
		return "", fmt.Errorf("failed to run %q: %w", command, err)
	}
	if exitCode != 0 {
		return "", &tomato.CommandError{Op: "status", ExitCode: exitCode, Stdout: stdout, Stderr: stderr}
	}

	return stdout, nil
}

// convertJobInfo converts an adapter JobInfo into the domain job model.
func convertJobInfo(info tomato.JobInfo, seenAt time.Time) *domain.Job {
	job := &domain.Job{
		ID:         info.JobID,
		State:      convertState(info.State),
		RawFields:  info.RawFields,
		Scheduler:  domain.SchedulerTypeTomato,
		LastSeenAt: seenAt,
	}
	if info.Pipeline != nil {
		job.Pipeline = *info.Pipeline
	}
	if len(info.RawFields) > 1 {
		job.RawState = info.RawFields[1]
	}
	return job
}

// convertState maps the adapter's canonical states onto the domain
// enum. The sets are identical; the switch keeps the mapping explicit.
func convertState(s tomato.JobState) domain.JobState {
	switch s {
	case tomato.StateQueued:
		return domain.JobStateQueued
	case tomato.StateRunning:
		return domain.JobStateRunning
	case tomato.StateDone:
		return domain.JobStateDone
	default:
		return domain.JobStateUndetermined
	}
}
