package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/braydenidzenga/ZettaNote-sub001/internal/service"
)

// CleanupRunner is the slice of the cleanup service the jobs need.
type CleanupRunner interface {
	RunCleanup(ctx context.Context, batchSize int) (service.CleanupResult, error)
	RunOrphanScan(ctx context.Context) (int, error)
}

// cleanupPayload is the persisted job payload for cleanup jobs.
type cleanupPayload struct {
	BatchSize int `json:"batch_size"`
}

// CleanupTask runs one full cleanup pass: orphan sweep plus a reclamation
// batch. The pass is idempotent, so at-least-once delivery is safe.
type CleanupTask struct {
	id      uuid.UUID
	payload []byte
	status  TaskStatus
	service CleanupRunner
	logger  *slog.Logger
}

// NewCleanupTask creates a new CleanupTask with the given batch size.
func NewCleanupTask(svc CleanupRunner, batchSize int, logger *slog.Logger) (*CleanupTask, error) {
	if svc == nil {
		return nil, fmt.Errorf("cleanup service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	payload, err := json.Marshal(cleanupPayload{BatchSize: batchSize})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cleanup payload: %w", err)
	}

	return &CleanupTask{
		id:      uuid.New(),
		payload: payload,
		status:  TaskStatusPending,
		service: svc,
		logger:  logger,
	}, nil
}

// ID returns the job's unique identifier.
func (t *CleanupTask) ID() uuid.UUID {
	return t.id
}

// Type returns the job type identifier.
func (t *CleanupTask) Type() string {
	return JobTypeCleanup
}

// Payload returns the job data as a byte slice.
func (t *CleanupTask) Payload() []byte {
	return t.payload
}

// Status returns the current job status.
func (t *CleanupTask) Status() TaskStatus {
	return t.status
}

// Execute runs the cleanup pass.
func (t *CleanupTask) Execute(ctx context.Context) error {
	var p cleanupPayload
	if err := json.Unmarshal(t.payload, &p); err != nil {
		return fmt.Errorf("failed to unmarshal cleanup payload: %w", err)
	}

	result, err := t.service.RunCleanup(ctx, p.BatchSize)
	if err != nil {
		return fmt.Errorf("cleanup run failed: %w", err)
	}

	t.logger.Info("cleanup job finished",
		slog.String("job_id", t.id.String()),
		slog.Int("marked_pending", result.MarkedPending),
		slog.Int("deleted", result.Deleted),
		slog.Int("failed", result.Failed))

	return nil
}

// NewCleanupTaskFactory returns a factory that rebuilds cleanup jobs from
// their persisted records.
func NewCleanupTaskFactory(svc CleanupRunner, logger *slog.Logger) TaskFactory {
	return func(record *JobRecord) (Task, error) {
		if record.Type != JobTypeCleanup {
			return nil, fmt.Errorf("unexpected job type %q", record.Type)
		}
		if logger == nil {
			logger = slog.Default()
		}
		return &CleanupTask{
			id:      record.ID,
			payload: record.Payload,
			status:  record.Status,
			service: svc,
			logger:  logger,
		}, nil
	}
}

// OrphanScanTask runs the sweep-only job: mark orphaned items pending
// deletion without reclaiming anything.
type OrphanScanTask struct {
	id      uuid.UUID
	status  TaskStatus
	service CleanupRunner
	logger  *slog.Logger
}

// NewOrphanScanTask creates a new OrphanScanTask.
func NewOrphanScanTask(svc CleanupRunner, logger *slog.Logger) (*OrphanScanTask, error) {
	if svc == nil {
		return nil, fmt.Errorf("cleanup service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &OrphanScanTask{
		id:      uuid.New(),
		status:  TaskStatusPending,
		service: svc,
		logger:  logger,
	}, nil
}

// ID returns the job's unique identifier.
func (t *OrphanScanTask) ID() uuid.UUID {
	return t.id
}

// Type returns the job type identifier.
func (t *OrphanScanTask) Type() string {
	return JobTypeOrphanScan
}

// Payload returns the job data as a byte slice.
func (t *OrphanScanTask) Payload() []byte {
	return []byte("{}")
}

// Status returns the current job status.
func (t *OrphanScanTask) Status() TaskStatus {
	return t.status
}

// Execute runs the orphan scan.
func (t *OrphanScanTask) Execute(ctx context.Context) error {
	marked, err := t.service.RunOrphanScan(ctx)
	if err != nil {
		return fmt.Errorf("orphan scan failed: %w", err)
	}

	t.logger.Info("orphan scan job finished",
		slog.String("job_id", t.id.String()),
		slog.Int("marked", marked))

	return nil
}

// NewOrphanScanTaskFactory returns a factory that rebuilds orphan scan jobs
// from their persisted records.
func NewOrphanScanTaskFactory(svc CleanupRunner, logger *slog.Logger) TaskFactory {
	return func(record *JobRecord) (Task, error) {
		if record.Type != JobTypeOrphanScan {
			return nil, fmt.Errorf("unexpected job type %q", record.Type)
		}
		if logger == nil {
			logger = slog.Default()
		}
		return &OrphanScanTask{
			id:      record.ID,
			status:  record.Status,
			service: svc,
			logger:  logger,
		}, nil
	}
}
