package task

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the current state of a job.
type TaskStatus string

// Possible job status values. The set is closed: stores and the runner only
// ever write these four values, and transitions go pending -> processing ->
// completed|failed (with failed-and-requeued going back to pending).
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Job type constants.
const (
	// JobTypeCleanup is the full cleanup pass: orphan sweep plus one
	// reclamation batch.
	JobTypeCleanup = "cleanup"

	// JobTypeOrphanScan is the sweep-only job that marks orphaned items
	// pending deletion without reclaiming anything.
	JobTypeOrphanScan = "orphan_scan"
)

// Task represents a unit of background work to be processed.
type Task interface {
	// ID returns the job's unique identifier
	ID() uuid.UUID

	// Type returns the job type identifier
	Type() string

	// Payload returns the job data as a byte slice
	Payload() []byte

	// Status returns the current job status
	Status() TaskStatus

	// Execute runs the job logic
	Execute(ctx context.Context) error
}

// JobRecord is the persisted form of a job. The store deals in records;
// the runner rebuilds executable Tasks from them via registered factories.
type JobRecord struct {
	ID           uuid.UUID
	Type         string
	Payload      []byte
	Status       TaskStatus
	Attempts     int
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TaskFactory rebuilds an executable Task from its persisted record.
// Used during crash recovery to requeue jobs from a previous process.
type TaskFactory func(record *JobRecord) (Task, error)

// TaskStore defines the interface for persisting jobs.
type TaskStore interface {
	// SaveTask persists a job to the database
	SaveTask(ctx context.Context, t Task) error

	// UpdateTaskStatus updates the status of a job
	UpdateTaskStatus(ctx context.Context, taskID uuid.UUID, status TaskStatus, errorMsg string) error

	// IncrementAttempts records one execution attempt for a job
	IncrementAttempts(ctx context.Context, taskID uuid.UUID) error

	// GetPendingTasks retrieves all jobs with "pending" status
	GetPendingTasks(ctx context.Context) ([]*JobRecord, error)

	// GetProcessingTasks retrieves jobs with "processing" status.
	// If olderThan is non-zero, only returns jobs that have been in this
	// state longer than the specified duration.
	GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]*JobRecord, error)

	// WithTx returns a new TaskStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) TaskStore
}
