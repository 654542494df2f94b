package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/braydenidzenga/ZettaNote-sub001/internal/config"
	"github.com/braydenidzenga/ZettaNote-sub001/internal/metrics"
	"github.com/braydenidzenga/ZettaNote-sub001/internal/objectstore"
	s3store "github.com/braydenidzenga/ZettaNote-sub001/internal/objectstore/s3"
	"github.com/braydenidzenga/ZettaNote-sub001/internal/platform/postgres"
	"github.com/braydenidzenga/ZettaNote-sub001/internal/service"
	"github.com/braydenidzenga/ZettaNote-sub001/internal/task"
)

// application holds the wired dependencies of the running server.
// Everything is injected explicitly; nothing reaches for package-level state.
type application struct {
	config *config.Config
	logger *slog.Logger

	db      *sql.DB
	objects objectstore.Store

	mediaService   *service.MediaService
	cleanupService *service.CleanupService

	taskRunner *task.TaskRunner
	scheduler  *task.Scheduler
}

// newApplication wires the full dependency graph: database, object store,
// services, durable job runner, and the recurring cleanup schedule.
//
// A failure to start the job runner is not fatal: the server degrades to
// serving the admin surface with background scheduling disabled.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	db, err := openDatabase(cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := runMigrations(db, logger); err != nil {
		closeQuietly(db, logger)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	objects, err := s3store.New(ctx, s3store.Config{
		Bucket:          cfg.Storage.Bucket,
		Region:          cfg.Storage.Region,
		Endpoint:        cfg.Storage.Endpoint,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		UsePathStyle:    cfg.Storage.UsePathStyle,
		OpTimeout:       cfg.Storage.OpTimeout,
	})
	if err != nil {
		closeQuietly(db, logger)
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}

	instrumented := objectstore.NewInstrumentedStore(objects, metrics.NewObjectStoreMetrics())

	mediaStore := postgres.NewPostgresMediaStore(db, logger)
	cleanupMetrics := metrics.NewCleanupMetrics()

	mediaService := service.NewMediaService(
		db, mediaStore, instrumented, cfg.Cleanup.GracePeriod, logger)
	cleanupService := service.NewCleanupService(
		mediaStore, instrumented, cfg.Cleanup.GracePeriod, cleanupMetrics, logger)

	app := &application{
		config:         cfg,
		logger:         logger,
		db:             db,
		objects:        instrumented,
		mediaService:   mediaService,
		cleanupService: cleanupService,
	}

	app.setupBackgroundJobs(cleanupService)

	return app, nil
}

// setupBackgroundJobs builds the durable runner and the recurring cleanup
// schedule. On failure the scheduler is constructed disabled so the rest of
// the server keeps working.
func (app *application) setupBackgroundJobs(cleanupService *service.CleanupService) {
	jobStore := postgres.NewPostgresJobStore(app.db, app.logger)

	runnerConfig := task.DefaultTaskRunnerConfig()
	runnerConfig.MaxAttempts = app.config.Cleanup.MaxAttempts
	runnerConfig.InitialBackoff = app.config.Cleanup.InitialBackoff

	runner := task.NewTaskRunner(jobStore, runnerConfig, app.logger)
	runner.RegisterFactory(task.JobTypeCleanup,
		task.NewCleanupTaskFactory(cleanupService, app.logger))
	runner.RegisterFactory(task.JobTypeOrphanScan,
		task.NewOrphanScanTaskFactory(cleanupService, app.logger))

	if err := runner.Start(); err != nil {
		app.logger.Warn("job runner failed to start, background cleanup disabled",
			slog.String("error", err.Error()))
		app.scheduler = task.NewScheduler(nil, nil, task.SchedulerConfig{}, app.logger)
		return
	}

	app.taskRunner = runner
	app.scheduler = task.NewScheduler(runner, cleanupService, task.SchedulerConfig{
		CleanupInterval:    app.config.Cleanup.Interval,
		OrphanScanInterval: app.config.Cleanup.OrphanScanInterval,
		BatchSize:          app.config.Cleanup.BatchSize,
	}, app.logger)
	app.scheduler.Start()
}

// serve runs the HTTP server until shutdown.
func (app *application) serve(ctx context.Context) error {
	return app.startHTTPServer(ctx, app.setupRouter())
}

// cleanup releases resources in reverse dependency order.
func (app *application) cleanup() {
	if app.scheduler != nil {
		app.scheduler.Stop()
	}
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}
	if app.objects != nil {
		if err := app.objects.Close(); err != nil {
			app.logger.Error("failed to close object store", slog.String("error", err.Error()))
		}
	}
	if app.db != nil {
		closeQuietly(app.db, app.logger)
	}
}

func closeQuietly(db *sql.DB, logger *slog.Logger) {
	if err := db.Close(); err != nil {
		logger.Error("failed to close database", slog.String("error", err.Error()))
	}
}
