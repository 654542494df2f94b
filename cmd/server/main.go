// Package main implements the entry point for the media registry server:
// it keeps uploaded images in sync with the documents that embed them and
// garbage-collects unreferenced blobs after a grace period.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/braydenidzenga/ZettaNote-sub001/internal/config"
	"github.com/braydenidzenga/ZettaNote-sub001/internal/platform/logger"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

// run loads configuration, wires the application, and serves until a
// shutdown signal arrives.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger := logger.Setup(cfg.Server.LogLevel)

	appLogger.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("bucket", cfg.Storage.Bucket),
		slog.Duration("grace_period", cfg.Cleanup.GracePeriod))

	ctx := context.Background()

	app, err := newApplication(ctx, cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.cleanup()

	return app.serve(ctx)
}
