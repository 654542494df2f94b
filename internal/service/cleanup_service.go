package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/braydenidzenga/ZettaNote-sub001/internal/objectstore"
	"github.com/braydenidzenga/ZettaNote-sub001/internal/platform/logger"
	"github.com/braydenidzenga/ZettaNote-sub001/internal/store"
)

// CleanupResult summarizes one cleanup run.
type CleanupResult struct {
	// MarkedPending is the number of orphaned items transitioned to
	// pending deletion by the sweep phase.
	MarkedPending int `json:"marked_pending"`

	// Deleted is the number of items whose blobs were removed and whose
	// registry rows reached the terminal deleted state.
	Deleted int `json:"deleted"`

	// Failed is the number of items whose object-store delete failed.
	// They stay pending and are retried on the next run.
	Failed int `json:"failed"`

	// Processed is the number of reclaimable items examined this run.
	Processed int `json:"processed"`
}

// CleanupMetricsRecorder records cleanup pipeline metrics.
// A nil recorder disables metrics without branching at every call site.
type CleanupMetricsRecorder interface {
	RecordOrphansMarked(count int)
	RecordItemsReclaimed(count int)
	RecordDeleteFailures(count int)
	RecordReclaimableBacklog(count int)
	RecordRunDuration(durationSeconds float64, success bool)
}

// CleanupService detects orphaned media items and reclaims their blobs
// after the grace period.
type CleanupService struct {
	mediaStore  store.MediaStore
	objects     objectstore.Store
	gracePeriod time.Duration
	metrics     CleanupMetricsRecorder
	logger      *slog.Logger
}

// NewCleanupService creates a new CleanupService.
// metrics may be nil to disable instrumentation.
func NewCleanupService(
	mediaStore store.MediaStore,
	objects objectstore.Store,
	gracePeriod time.Duration,
	metrics CleanupMetricsRecorder,
	log *slog.Logger,
) *CleanupService {
	if mediaStore == nil {
		panic("mediaStore cannot be nil")
	}
	if objects == nil {
		panic("objects cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &CleanupService{
		mediaStore:  mediaStore,
		objects:     objects,
		gracePeriod: gracePeriod,
		metrics:     metrics,
		logger:      log.With(slog.String("component", "cleanup_service")),
	}
}

// RunOrphanScan finds active items with an empty usage set and marks them
// pending deletion. It is the defensive companion to the edit-triggered
// transition and is safe to run at any frequency: already-pending and
// re-referenced items are skipped by the conditional update.
func (s *CleanupService) RunOrphanScan(ctx context.Context) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	orphans, err := s.mediaStore.FindOrphaned(ctx)
	if err != nil {
		return 0, NewMediaServiceError("RunOrphanScan", "failed to find orphans", err)
	}

	marked := 0
	for _, item := range orphans {
		if err := s.mediaStore.MarkPending(ctx, item.ID, s.gracePeriod); err != nil {
			log.Error("failed to mark orphan pending deletion",
				slog.String("media_id", item.ID.String()),
				slog.String("error", err.Error()))
			continue
		}
		marked++
	}

	if s.metrics != nil {
		s.metrics.RecordOrphansMarked(marked)
	}

	if marked > 0 {
		log.Info("orphan scan marked items pending deletion",
			slog.Int("found", len(orphans)),
			slog.Int("marked", marked))
	}

	return marked, nil
}

// RunCleanup performs a full cleanup pass: an orphan sweep followed by one
// reclamation batch of up to batchSize items past their grace period.
//
// Per-item failures are isolated: a failed object-store delete is counted
// and the item stays pending for the next run. The registry row is marked
// deleted only after the external delete returned, so a crash between the
// two leaves a pending row whose retry hits the store's idempotent
// not-found-is-success delete.
func (s *CleanupService) RunCleanup(ctx context.Context, batchSize int) (CleanupResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	start := time.Now()

	var result CleanupResult

	marked, err := s.RunOrphanScan(ctx)
	if err != nil {
		s.recordRun(start, false)
		return result, err
	}
	result.MarkedPending = marked

	reclaimable, err := s.mediaStore.FindReclaimable(ctx, batchSize)
	if err != nil {
		s.recordRun(start, false)
		return result, NewMediaServiceError("RunCleanup", "failed to find reclaimable items", err)
	}

	if s.metrics != nil {
		s.metrics.RecordReclaimableBacklog(len(reclaimable))
	}

	for _, item := range reclaimable {
		if err := ctx.Err(); err != nil {
			s.recordRun(start, false)
			return result, err
		}

		result.Processed++

		err := s.objects.Delete(ctx, item.LocationRef)
		if err != nil && !errors.Is(err, objectstore.ErrNotFound) {
			result.Failed++
			log.Error("failed to delete blob, item stays pending",
				slog.String("media_id", item.ID.String()),
				slog.String("location_ref", item.LocationRef),
				slog.String("error", err.Error()))
			continue
		}

		if err := s.mediaStore.MarkDeleted(ctx, item.ID); err != nil {
			// The blob is gone; the row stays pending and the retry's
			// delete is a no-op on the remote side.
			result.Failed++
			log.Error("blob deleted but failed to mark item deleted",
				slog.String("media_id", item.ID.String()),
				slog.String("error", err.Error()))
			continue
		}

		result.Deleted++
	}

	if s.metrics != nil {
		s.metrics.RecordItemsReclaimed(result.Deleted)
		s.metrics.RecordDeleteFailures(result.Failed)
	}
	s.recordRun(start, true)

	log.Info("cleanup run finished",
		slog.Int("marked_pending", result.MarkedPending),
		slog.Int("deleted", result.Deleted),
		slog.Int("failed", result.Failed),
		slog.Int("processed", result.Processed),
		slog.Duration("duration", time.Since(start)))

	return result, nil
}

func (s *CleanupService) recordRun(start time.Time, success bool) {
	if s.metrics != nil {
		s.metrics.RecordRunDuration(time.Since(start).Seconds(), success)
	}
}
