package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// TaskRunnerConfig holds configuration for the task runner.
type TaskRunnerConfig struct {
	// WorkerCount determines how many concurrent workers process jobs.
	// Cleanup runs with a single worker so at most one pass touches the
	// registry and the object store at a time.
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory job queue
	QueueSize int

	// MaxAttempts is the number of times a job is executed before it is
	// marked failed. Attempts are recorded in the jobs table.
	MaxAttempts int

	// InitialBackoff is the delay before the first retry; each further
	// retry doubles it.
	InitialBackoff time.Duration

	// StuckTaskAge defines how long a job can be in processing state
	// before it's considered stuck and reset
	StuckTaskAge time.Duration

	// StuckTaskCheckInterval defines how often to check for stuck jobs
	// If zero, defaults to 5 minutes
	StuckTaskCheckInterval time.Duration
}

// DefaultTaskRunnerConfig returns a TaskRunnerConfig with reasonable defaults.
func DefaultTaskRunnerConfig() TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount:            1,
		QueueSize:              100,
		MaxAttempts:            3,
		InitialBackoff:         5 * time.Second,
		StuckTaskAge:           30 * time.Minute,
		StuckTaskCheckInterval: 5 * time.Minute,
	}
}

// TaskRunner manages background job processing.
type TaskRunner struct {
	store      TaskStore
	taskChan   chan Task
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	config     TaskRunnerConfig
	logger     *slog.Logger
	factories  map[string]TaskFactory
	errHandler func(t Task, err error)
}

// NewTaskRunner creates a new TaskRunner.
func NewTaskRunner(store TaskStore, config TaskRunnerConfig, logger *slog.Logger) *TaskRunner {
	if config.WorkerCount <= 0 {
		config.WorkerCount = 1
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = 5 * time.Second
	}
	if config.StuckTaskCheckInterval == 0 {
		config.StuckTaskCheckInterval = 5 * time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &TaskRunner{
		store:      store,
		taskChan:   make(chan Task, config.QueueSize),
		ctx:        ctx,
		cancelFunc: cancel,
		wg:         sync.WaitGroup{},
		config:     config,
		logger:     logger,
		factories:  make(map[string]TaskFactory),
		errHandler: func(t Task, err error) {
			// Default error handler just logs the error
			logger.Error("job execution failed",
				"job_id", t.ID(),
				"job_type", t.Type(),
				"error", err)
		},
	}
}

// RegisterFactory registers a factory used to rebuild jobs of the given
// type from their persisted records during recovery. Must be called before
// Start.
func (r *TaskRunner) RegisterFactory(jobType string, factory TaskFactory) {
	r.factories[jobType] = factory
}

// SetErrorHandler allows setting a custom error handler function.
func (r *TaskRunner) SetErrorHandler(handler func(t Task, err error)) {
	r.errHandler = handler
}

// Submit adds a new job to the queue. The job is persisted before it is
// queued so a crash between the two re-delivers it on the next start.
func (r *TaskRunner) Submit(ctx context.Context, t Task) error {
	if err := r.store.SaveTask(ctx, t); err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}

	select {
	case r.taskChan <- t:
		return nil
	default:
		// Queue is full; the job is persisted and will be picked up by
		// the next recovery pass, but the caller should know.
		return fmt.Errorf("job queue is full, try again later")
	}
}

// Start recovers unfinished jobs and begins processing.
func (r *TaskRunner) Start() error {
	if err := r.Recover(); err != nil {
		return fmt.Errorf("failed to recover jobs: %w", err)
	}

	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}

	r.wg.Add(1)
	go r.stuckTaskMonitor()

	return nil
}

// Stop gracefully shuts down the task runner.
func (r *TaskRunner) Stop() {
	r.cancelFunc()
	r.wg.Wait()
	close(r.taskChan)
}

// Recover loads unfinished jobs from the database and requeues them.
// Jobs that were mid-flight when the previous process died are reset to
// pending first.
func (r *TaskRunner) Recover() error {
	ctx := context.Background()

	pending, err := r.store.GetPendingTasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to get pending jobs: %w", err)
	}

	// All processing jobs regardless of age: the process just started,
	// so anything still marked processing was interrupted.
	processing, err := r.store.GetProcessingTasks(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to get processing jobs: %w", err)
	}

	r.logger.Info("recovering unfinished jobs",
		"pending_count", len(pending),
		"processing_count", len(processing))

	for _, record := range pending {
		r.requeueRecord(ctx, record)
	}

	for _, record := range processing {
		if err := r.store.UpdateTaskStatus(ctx, record.ID, TaskStatusPending, "Reset after recovery"); err != nil {
			r.logger.Error("failed to reset interrupted job",
				"job_id", record.ID,
				"job_type", record.Type,
				"error", err)
			continue
		}
		r.requeueRecord(ctx, record)
	}

	return nil
}

// requeueRecord rebuilds a job from its record and puts it on the queue.
func (r *TaskRunner) requeueRecord(ctx context.Context, record *JobRecord) {
	factory, ok := r.factories[record.Type]
	if !ok {
		r.logger.Error("no factory registered for job type, marking failed",
			"job_id", record.ID,
			"job_type", record.Type)
		if err := r.store.UpdateTaskStatus(ctx, record.ID, TaskStatusFailed,
			"no factory registered for job type"); err != nil {
			r.logger.Error("failed to mark unrecoverable job failed",
				"job_id", record.ID, "error", err)
		}
		return
	}

	t, err := factory(record)
	if err != nil {
		r.logger.Error("failed to rebuild job from record, marking failed",
			"job_id", record.ID,
			"job_type", record.Type,
			"error", err)
		if updateErr := r.store.UpdateTaskStatus(ctx, record.ID, TaskStatusFailed, err.Error()); updateErr != nil {
			r.logger.Error("failed to mark unrecoverable job failed",
				"job_id", record.ID, "error", updateErr)
		}
		return
	}

	select {
	case r.taskChan <- t:
	default:
		r.logger.Error("failed to requeue job, queue is full",
			"job_id", record.ID,
			"job_type", record.Type)
	}
}

// worker processes jobs from the queue.
func (r *TaskRunner) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("starting worker", "worker_id", id)

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Debug("stopping worker", "worker_id", id)
			return

		case t, ok := <-r.taskChan:
			if !ok {
				r.logger.Debug("job channel closed, stopping worker", "worker_id", id)
				return
			}

			r.processTask(t, id)
		}
	}
}

// processTask executes a single job with retries. Each attempt is recorded
// in the jobs table; retries back off exponentially from InitialBackoff.
func (r *TaskRunner) processTask(t Task, workerID int) {
	// Status writes use a background context so a shutdown mid-job can
	// still record the outcome; only Execute observes cancellation.
	ctx := context.Background()
	logger := r.logger.With(
		"job_id", t.ID(),
		"job_type", t.Type(),
		"worker_id", workerID,
	)

	if err := r.store.UpdateTaskStatus(ctx, t.ID(), TaskStatusProcessing, ""); err != nil {
		logger.Error("failed to update job status to processing", "error", err)
		return
	}

	logger.Info("processing job")

	var lastErr error
	backoff := r.config.InitialBackoff

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		if err := r.store.IncrementAttempts(ctx, t.ID()); err != nil {
			logger.Error("failed to record job attempt", "error", err)
		}

		lastErr = t.Execute(r.ctx)
		if lastErr == nil {
			logger.Info("job completed successfully", "attempts", attempt)
			if updateErr := r.store.UpdateTaskStatus(ctx, t.ID(), TaskStatusCompleted, ""); updateErr != nil {
				logger.Error("failed to update job status to completed", "error", updateErr)
			}
			return
		}

		logger.Error("job attempt failed",
			"attempt", attempt,
			"max_attempts", r.config.MaxAttempts,
			"error", lastErr)

		if attempt == r.config.MaxAttempts {
			break
		}

		select {
		case <-r.ctx.Done():
			// Shutting down; leave the job in processing state so the
			// next start's recovery pass requeues it.
			logger.Info("shutdown during retry backoff, job will be recovered")
			return
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	if updateErr := r.store.UpdateTaskStatus(ctx, t.ID(), TaskStatusFailed, lastErr.Error()); updateErr != nil {
		logger.Error("failed to update job status to failed", "error", updateErr)
	}
	r.errHandler(t, lastErr)
}

// stuckTaskMonitor periodically resets jobs that have been in "processing"
// state for too long and requeues them.
func (r *TaskRunner) stuckTaskMonitor() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.StuckTaskCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return

		case <-ticker.C:
			ctx := context.Background()

			stuck, err := r.store.GetProcessingTasks(ctx, r.config.StuckTaskAge)
			if err != nil {
				r.logger.Error("failed to check for stuck jobs", "error", err)
				continue
			}

			if len(stuck) == 0 {
				continue
			}

			r.logger.Info("found stuck jobs", "count", len(stuck))

			for _, record := range stuck {
				if err := r.store.UpdateTaskStatus(ctx, record.ID, TaskStatusPending,
					"Reset after being stuck in processing state"); err != nil {
					r.logger.Error("failed to reset stuck job status",
						"job_id", record.ID,
						"job_type", record.Type,
						"error", err)
					continue
				}

				r.requeueRecord(ctx, record)
			}
		}
	}
}
