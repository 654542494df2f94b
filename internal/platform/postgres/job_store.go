package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/braydenidzenga/ZettaNote-sub001/internal/platform/logger"
	"github.com/braydenidzenga/ZettaNote-sub001/internal/store"
	"github.com/braydenidzenga/ZettaNote-sub001/internal/task"
)

// PostgresJobStore implements the task.TaskStore interface using PostgreSQL.
// The jobs table is the durable queue record: a job row survives process
// crashes and is requeued by the runner's recovery pass, which is what gives
// the orchestrator its at-least-once delivery property.
type PostgresJobStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresJobStore creates a new PostgresJobStore.
func NewPostgresJobStore(db store.DBTX, logger *slog.Logger) *PostgresJobStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresJobStore{
		db:     db,
		logger: logger.With(slog.String("component", "job_store")),
	}
}

// Ensure PostgresJobStore implements task.TaskStore interface
var _ task.TaskStore = (*PostgresJobStore)(nil)

// WithTx returns a new PostgresJobStore that uses the provided transaction.
func (s *PostgresJobStore) WithTx(tx *sql.Tx) task.TaskStore {
	return &PostgresJobStore{
		db:     tx,
		logger: s.logger,
	}
}

// SaveTask persists a task to the database.
func (s *PostgresJobStore) SaveTask(ctx context.Context, t task.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO jobs (id, type, payload, status, attempts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 0, $5, $5)
	`

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, query,
		t.ID(),
		t.Type(),
		t.Payload(),
		t.Status(),
		now,
	)

	if err != nil {
		log.Error("failed to save job",
			slog.String("job_id", t.ID().String()),
			slog.String("job_type", t.Type()),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to save job to database: %w", MapError(err))
	}

	return nil
}

// UpdateTaskStatus updates the status of a job in the database.
// Unknown job IDs are treated as a no-op so status writes racing a manual
// cleanup of old rows never fail the runner.
func (s *PostgresJobStore) UpdateTaskStatus(
	ctx context.Context,
	taskID uuid.UUID,
	status task.TaskStatus,
	errorMsg string,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE jobs
		SET status = $1, error_message = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := s.db.ExecContext(ctx, query,
		status,
		errorMsg,
		time.Now().UTC(),
		taskID,
	)

	if err != nil {
		log.Error("failed to update job status",
			slog.String("job_id", taskID.String()),
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to update job status: %w", MapError(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		log.Warn("no job found with ID to update status",
			slog.String("job_id", taskID.String()))
		return nil
	}

	return nil
}

// IncrementAttempts records one execution attempt for a job.
func (s *PostgresJobStore) IncrementAttempts(ctx context.Context, taskID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE jobs
		SET attempts = attempts + 1, updated_at = $2
		WHERE id = $1
	`

	_, err := s.db.ExecContext(ctx, query, taskID, time.Now().UTC())
	if err != nil {
		log.Error("failed to increment job attempts",
			slog.String("job_id", taskID.String()),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to increment job attempts: %w", MapError(err))
	}

	return nil
}

// GetPendingTasks retrieves all jobs with "pending" status.
func (s *PostgresJobStore) GetPendingTasks(ctx context.Context) ([]*task.JobRecord, error) {
	return s.getJobsByStatus(ctx, task.TaskStatusPending, 0)
}

// GetProcessingTasks retrieves jobs with "processing" status.
// If olderThan is non-zero, only returns jobs that have been in this state
// longer than the specified duration.
func (s *PostgresJobStore) GetProcessingTasks(
	ctx context.Context,
	olderThan time.Duration,
) ([]*task.JobRecord, error) {
	return s.getJobsByStatus(ctx, task.TaskStatusProcessing, olderThan)
}

// getJobsByStatus is a helper method to get jobs by status with optional age filter.
func (s *PostgresJobStore) getJobsByStatus(
	ctx context.Context,
	status task.TaskStatus,
	olderThan time.Duration,
) ([]*task.JobRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var query string
	var args []any

	if olderThan > 0 {
		query = `
			SELECT id, type, payload, status, attempts, error_message, created_at, updated_at
			FROM jobs
			WHERE status = $1 AND updated_at < $2
			ORDER BY created_at ASC
		`
		args = []any{status, time.Now().UTC().Add(-olderThan)}
	} else {
		query = `
			SELECT id, type, payload, status, attempts, error_message, created_at, updated_at
			FROM jobs
			WHERE status = $1
			ORDER BY created_at ASC
		`
		args = []any{status}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query jobs by status",
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to query jobs by status: %w", MapError(err))
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var jobs []*task.JobRecord

	for rows.Next() {
		var record task.JobRecord
		var jobStatus string
		var errorMessage sql.NullString

		if err := rows.Scan(
			&record.ID,
			&record.Type,
			&record.Payload,
			&jobStatus,
			&record.Attempts,
			&errorMessage,
			&record.CreatedAt,
			&record.UpdatedAt,
		); err != nil {
			log.Error("failed to scan job row",
				slog.String("status", string(status)),
				slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}

		record.Status = task.TaskStatus(jobStatus)
		record.ErrorMessage = errorMessage.String
		jobs = append(jobs, &record)
	}

	if err := rows.Err(); err != nil {
		log.Error("error iterating job rows",
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("error iterating job rows: %w", err)
	}

	return jobs, nil
}
