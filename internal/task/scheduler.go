package task

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// SchedulerConfig holds the recurring schedule for the cleanup pipeline.
type SchedulerConfig struct {
	// CleanupInterval is the period between full cleanup passes.
	CleanupInterval time.Duration

	// OrphanScanInterval is the period between sweep-only passes. The
	// sweep is cheap and runs on its own cadence as a safety net for
	// missed edit-triggered transitions.
	OrphanScanInterval time.Duration

	// BatchSize bounds each reclamation batch.
	BatchSize int
}

// DefaultSchedulerConfig returns a SchedulerConfig with production defaults.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		CleanupInterval:    6 * time.Hour,
		OrphanScanInterval: 12 * time.Hour,
		BatchSize:          100,
	}
}

// TaskSubmitter is the slice of the runner the scheduler needs.
type TaskSubmitter interface {
	Submit(ctx context.Context, t Task) error
}

// Scheduler submits cleanup jobs on a recurring schedule. When constructed
// without a runner or service it degrades to a no-op: the server keeps
// serving and background scheduling is simply disabled.
type Scheduler struct {
	runner     TaskSubmitter
	cleanupSvc CleanupRunner
	config     SchedulerConfig
	logger     *slog.Logger
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	started    bool
	mu         sync.Mutex
}

// NewScheduler creates a new Scheduler.
// runner or cleanupSvc may be nil when the durable queue is unavailable at
// startup; Start then logs a warning and does nothing.
func NewScheduler(
	runner TaskSubmitter,
	cleanupSvc CleanupRunner,
	config SchedulerConfig,
	logger *slog.Logger,
) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 6 * time.Hour
	}
	if config.OrphanScanInterval <= 0 {
		config.OrphanScanInterval = 12 * time.Hour
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}

	return &Scheduler{
		runner:     runner,
		cleanupSvc: cleanupSvc,
		config:     config,
		logger:     logger.With(slog.String("component", "scheduler")),
	}
}

// Enabled reports whether background scheduling is active.
func (s *Scheduler) Enabled() bool {
	return s.runner != nil && s.cleanupSvc != nil
}

// Start begins the recurring schedule. A full cleanup pass is submitted
// immediately so a long-down server catches up without waiting a full
// interval.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return
	}

	if !s.Enabled() {
		s.logger.Warn("job queue unavailable, background cleanup scheduling disabled")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.started = true

	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Info("cleanup scheduler started",
		slog.Duration("cleanup_interval", s.config.CleanupInterval),
		slog.Duration("orphan_scan_interval", s.config.OrphanScanInterval),
		slog.Int("batch_size", s.config.BatchSize))
}

// Stop halts the schedule. Jobs already submitted keep running in the
// task runner.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.cancel()
	s.wg.Wait()
	s.started = false
}

// loop drives both tickers. The immediate submission happens here rather
// than in Start so Start never blocks on a full queue.
func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	s.submitCleanup(ctx)

	cleanupTicker := time.NewTicker(s.config.CleanupInterval)
	defer cleanupTicker.Stop()

	orphanTicker := time.NewTicker(s.config.OrphanScanInterval)
	defer orphanTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-cleanupTicker.C:
			s.submitCleanup(ctx)
		case <-orphanTicker.C:
			s.submitOrphanScan(ctx)
		}
	}
}

func (s *Scheduler) submitCleanup(ctx context.Context) {
	t, err := NewCleanupTask(s.cleanupSvc, s.config.BatchSize, s.logger)
	if err != nil {
		s.logger.Error("failed to build cleanup job", slog.String("error", err.Error()))
		return
	}

	if err := s.runner.Submit(ctx, t); err != nil {
		s.logger.Error("failed to submit cleanup job", slog.String("error", err.Error()))
		return
	}

	s.logger.Debug("submitted scheduled cleanup job", slog.String("job_id", t.ID().String()))
}

func (s *Scheduler) submitOrphanScan(ctx context.Context) {
	t, err := NewOrphanScanTask(s.cleanupSvc, s.logger)
	if err != nil {
		s.logger.Error("failed to build orphan scan job", slog.String("error", err.Error()))
		return
	}

	if err := s.runner.Submit(ctx, t); err != nil {
		s.logger.Error("failed to submit orphan scan job", slog.String("error", err.Error()))
		return
	}

	s.logger.Debug("submitted scheduled orphan scan job", slog.String("job_id", t.ID().String()))
}
