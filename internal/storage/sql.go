package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/battlab/cycler-queue-service/internal/domain"
)

// sqlStore implements Store over database/sql. The SQL it issues is the
// common subset understood by both SQLite and PostgreSQL: $N
// placeholders, ON CONFLICT upserts, TEXT and TIMESTAMP columns.
type sqlStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id           TEXT PRIMARY KEY,
	state        TEXT NOT NULL,
	pipeline     TEXT NOT NULL DEFAULT '',
	sample_name  TEXT NOT NULL DEFAULT '',
	job_name     TEXT NOT NULL DEFAULT '',
	raw_state    TEXT NOT NULL DEFAULT '',
	raw_fields   TEXT NOT NULL DEFAULT '',
	scheduler    TEXT NOT NULL DEFAULT '',
	submit_time  TIMESTAMP,
	completed_at TIMESTAMP,
	last_seen_at TIMESTAMP NOT NULL,
	created_at   TIMESTAMP NOT NULL,
	updated_at   TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_jobs_state ON jobs (state);
CREATE INDEX IF NOT EXISTS idx_jobs_pipeline ON jobs (pipeline);
`

// Migrate creates the schema if it does not exist.
func (s *sqlStore) Migrate() error {
	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *sqlStore) Close() error {
	return s.db.Close()
}

// UpsertJob creates or refreshes a job snapshot.
func (s *sqlStore) UpsertJob(ctx context.Context, job *domain.Job) error {
	now := time.Now()
	createdAt := job.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (id, state, pipeline, sample_name, job_name, raw_state, raw_fields,
		                  scheduler, submit_time, completed_at, last_seen_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			state        = excluded.state,
			pipeline     = excluded.pipeline,
			raw_state    = excluded.raw_state,
			raw_fields   = excluded.raw_fields,
			scheduler    = excluded.scheduler,
			completed_at = excluded.completed_at,
			last_seen_at = excluded.last_seen_at,
			updated_at   = excluded.updated_at
	`, job.ID, job.State, job.Pipeline, job.SampleName, job.JobName, job.RawState,
		strings.Join(job.RawFields, " "), job.Scheduler, nullTime(job.SubmitTime),
		nullTime(job.CompletedAt), job.LastSeenAt, createdAt, now)
	if err != nil {
		return fmt.Errorf("failed to upsert job %s: %w", job.ID, err)
	}
	return nil
}

// GetJob retrieves a job by ID.
func (s *sqlStore) GetJob(ctx context.Context, id string) (*domain.Job, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, state, pipeline, sample_name, job_name, raw_state, raw_fields,
		       scheduler, submit_time, completed_at, last_seen_at, created_at, updated_at
		FROM jobs WHERE id = $1
	`, id)

	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job %s: %w", id, err)
	}
	return job, nil
}

// ListJobs retrieves jobs matching the filter, newest first, plus the
// total count before pagination.
func (s *sqlStore) ListJobs(ctx context.Context, filter domain.JobFilter) ([]*domain.Job, int, error) {
	where, args := buildJobFilter(filter)

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM jobs"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count jobs: %w", err)
	}

	query := `
		SELECT id, state, pipeline, sample_name, job_name, raw_state, raw_fields,
		       scheduler, submit_time, completed_at, last_seen_at, created_at, updated_at
		FROM jobs` + where + " ORDER BY created_at DESC, id DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to list jobs: %w", err)
	}

	return jobs, total, nil
}

// DeleteJob deletes a job by ID.
func (s *sqlStore) DeleteJob(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM jobs WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete job %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

// JobStateCounts returns the number of jobs in each state.
func (s *sqlStore) JobStateCounts(ctx context.Context) (map[domain.JobState]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT state, COUNT(*) FROM jobs GROUP BY state")
	if err != nil {
		return nil, fmt.Errorf("failed to count jobs by state: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.JobState]int)
	for rows.Next() {
		var state domain.JobState
		var n int
		if err := rows.Scan(&state, &n); err != nil {
			return nil, fmt.Errorf("failed to scan state count: %w", err)
		}
		counts[state] = n
	}
	return counts, rows.Err()
}

// PipelineJobCounts returns the number of non-terminal jobs per
// assigned pipeline.
func (s *sqlStore) PipelineJobCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT pipeline, COUNT(*) FROM jobs
		WHERE pipeline <> '' AND state IN ($1, $2, $3)
		GROUP BY pipeline
	`, domain.JobStateQueued, domain.JobStateRunning, domain.JobStateUndetermined)
	if err != nil {
		return nil, fmt.Errorf("failed to count jobs by pipeline: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var pipeline string
		var n int
		if err := rows.Scan(&pipeline, &n); err != nil {
			return nil, fmt.Errorf("failed to scan pipeline count: %w", err)
		}
		counts[pipeline] = n
	}
	return counts, rows.Err()
}

// MarkCompletedNotSeenSince transitions stale non-terminal jobs to done.
func (s *sqlStore) MarkCompletedNotSeenSince(ctx context.Context, cutoff time.Time) (int, error) {
	now := time.Now()
	res, err := s.db.ExecContext(ctx, `
		UPDATE jobs
		SET state = $1, completed_at = $2, updated_at = $3
		WHERE state IN ($4, $5, $6) AND last_seen_at < $7
	`, domain.JobStateDone, now, now,
		domain.JobStateQueued, domain.JobStateRunning, domain.JobStateUndetermined, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to mark stale jobs completed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (*domain.Job, error) {
	var (
		job        domain.Job
		rawFields  string
		submitTime sql.NullTime
		completed  sql.NullTime
	)
	err := row.Scan(&job.ID, &job.State, &job.Pipeline, &job.SampleName, &job.JobName,
		&job.RawState, &rawFields, &job.Scheduler, &submitTime, &completed,
		&job.LastSeenAt, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if rawFields != "" {
		job.RawFields = strings.Fields(rawFields)
	}
	if submitTime.Valid {
		t := submitTime.Time
		job.SubmitTime = &t
	}
	if completed.Valid {
		t := completed.Time
		job.CompletedAt = &t
	}
	return &job, nil
}

func buildJobFilter(filter domain.JobFilter) (string, []any) {
	var conds []string
	var args []any

	if filter.State != nil {
		args = append(args, *filter.State)
		conds = append(conds, fmt.Sprintf("state = $%d", len(args)))
	}
	if filter.Pipeline != nil {
		args = append(args, *filter.Pipeline)
		conds = append(conds, fmt.Sprintf("pipeline = $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
