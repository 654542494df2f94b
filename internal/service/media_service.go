package service

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/braydenidzenga/ZettaNote-sub001/internal/domain"
	"github.com/braydenidzenga/ZettaNote-sub001/internal/extract"
	"github.com/braydenidzenga/ZettaNote-sub001/internal/objectstore"
	"github.com/braydenidzenga/ZettaNote-sub001/internal/platform/logger"
	"github.com/braydenidzenga/ZettaNote-sub001/internal/store"
)

// RefChange summarizes the reference-set changes applied for one document save.
type RefChange struct {
	// Added holds the media IDs newly referenced by the document.
	Added []uuid.UUID

	// Removed holds the media IDs the document no longer references.
	Removed []uuid.UUID
}

// MediaService keeps the media registry in sync with document content and
// registers uploaded blobs.
type MediaService struct {
	db          *sql.DB
	mediaStore  store.MediaStore
	objects     objectstore.Store
	gracePeriod time.Duration
	logger      *slog.Logger
}

// NewMediaService creates a new MediaService.
// db may be nil when the store is an in-memory fake; reference updates then
// run without an enclosing transaction.
func NewMediaService(
	db *sql.DB,
	mediaStore store.MediaStore,
	objects objectstore.Store,
	gracePeriod time.Duration,
	log *slog.Logger,
) *MediaService {
	if mediaStore == nil {
		panic("mediaStore cannot be nil")
	}
	if objects == nil {
		panic("objects cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &MediaService{
		db:          db,
		mediaStore:  mediaStore,
		objects:     objects,
		gracePeriod: gracePeriod,
		logger:      log.With(slog.String("component", "media_service")),
	}
}

// RecordUpload stores a blob in the object store and registers it in the
// media registry. The registry row starts active with an empty usage set;
// the document save that embeds it adds the first reference. If registration
// fails the uploaded blob is deleted again so no unregistered object leaks.
func (s *MediaService) RecordUpload(
	ctx context.Context,
	ownerID uuid.UUID,
	filename string,
	reader io.Reader,
	size int64,
	contentType string,
) (*domain.MediaItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if ownerID == uuid.Nil {
		return nil, NewMediaServiceError("RecordUpload", "owner ID is required", ErrInvalidInput)
	}

	result, err := s.objects.Upload(ctx, filename, reader, size, contentType)
	if err != nil {
		return nil, NewMediaServiceError("RecordUpload", "failed to store blob", err)
	}

	id, err := uuid.Parse(result.ID)
	if err != nil {
		return nil, NewMediaServiceError("RecordUpload", "object store returned malformed ID", err)
	}

	item, err := domain.NewMediaItem(id, ownerID, result.LocationRef)
	if err != nil {
		return nil, NewMediaServiceError("RecordUpload", "invalid media item", err)
	}

	if err := s.mediaStore.Create(ctx, item); err != nil {
		// Compensate so a failed registration does not strand the blob.
		if delErr := s.objects.Delete(ctx, result.LocationRef); delErr != nil {
			log.Error("failed to delete blob after registration failure",
				slog.String("location_ref", result.LocationRef),
				slog.String("error", delErr.Error()))
		}
		return nil, NewMediaServiceError("RecordUpload", "failed to register media item", err)
	}

	log.Info("registered uploaded media",
		slog.String("media_id", id.String()),
		slog.String("location_ref", result.LocationRef),
		slog.Int64("size_bytes", size))

	return item, nil
}

// HandleDocumentSave reconciles the registry with a document edit. It
// extracts image references from the previous and current content, diffs
// them, and applies the additions and removals. Items whose last reference
// is removed transition to pending deletion inside the same statement, so a
// crash mid-save can never leave a dangling active orphan for the removals
// already applied.
func (s *MediaService) HandleDocumentSave(
	ctx context.Context,
	documentID uuid.UUID,
	previous, current string,
) (RefChange, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if documentID == uuid.Nil {
		return RefChange{}, NewMediaServiceError(
			"HandleDocumentSave", "document ID is required", ErrInvalidInput)
	}

	added, removed := extract.Diff(extract.RefSet(previous), extract.RefSet(current))
	change := RefChange{Added: added, Removed: removed}

	if len(added) == 0 && len(removed) == 0 {
		return change, nil
	}

	apply := func(ms store.MediaStore) error {
		if err := ms.AddReferences(ctx, documentID, added); err != nil {
			return fmt.Errorf("failed to add references: %w", err)
		}
		if err := ms.RemoveReferences(ctx, documentID, removed, s.gracePeriod); err != nil {
			return fmt.Errorf("failed to remove references: %w", err)
		}
		return nil
	}

	var err error
	if s.db != nil {
		err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
			return apply(s.mediaStore.WithTx(tx))
		})
	} else {
		err = apply(s.mediaStore)
	}
	if err != nil {
		return RefChange{}, NewMediaServiceError(
			"HandleDocumentSave", "failed to update reference sets", err)
	}

	log.Debug("reconciled document references",
		slog.String("document_id", documentID.String()),
		slog.Int("added", len(added)),
		slog.Int("removed", len(removed)))

	return change, nil
}

// HandleDocumentDelete removes every reference the document held, as if it
// had been saved with empty content.
func (s *MediaService) HandleDocumentDelete(
	ctx context.Context,
	documentID uuid.UUID,
	content string,
) (RefChange, error) {
	return s.HandleDocumentSave(ctx, documentID, content, "")
}

// GetMediaItem retrieves a registry entry by ID.
func (s *MediaService) GetMediaItem(ctx context.Context, id uuid.UUID) (*domain.MediaItem, error) {
	item, err := s.mediaStore.GetByID(ctx, id)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: %s", ErrMediaNotFound, id)
		}
		return nil, NewMediaServiceError("GetMediaItem", "failed to load media item", err)
	}
	return item, nil
}
