package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/braydenidzenga/ZettaNote-sub001/internal/domain"
	"github.com/braydenidzenga/ZettaNote-sub001/internal/platform/logger"
	"github.com/braydenidzenga/ZettaNote-sub001/internal/store"
)

// PostgresMediaStore implements the store.MediaStore interface
// using a PostgreSQL database as the storage backend.
//
// The usage set is stored as a JSONB array of document IDs on the
// media_items row itself, so every reference mutation is a single UPDATE
// holding the row lock. Concurrent edits to the same item serialize on that
// lock and re-evaluate their conditions against the committed row, which is
// what makes the usage-empty status flip fire exactly once.
type PostgresMediaStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresMediaStore creates a new PostgreSQL implementation of the MediaStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresMediaStore(db store.DBTX, logger *slog.Logger) *PostgresMediaStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresMediaStore{
		db:     db,
		logger: logger.With(slog.String("component", "media_store")),
	}
}

// Ensure PostgresMediaStore implements store.MediaStore interface
var _ store.MediaStore = (*PostgresMediaStore)(nil)

// WithTx returns a new PostgresMediaStore that uses the provided transaction.
func (s *PostgresMediaStore) WithTx(tx *sql.Tx) store.MediaStore {
	return &PostgresMediaStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.MediaStore.Create
// It saves a new media item to the database, handling domain validation.
// Returns store.ErrMediaExists if the ID is already registered.
func (s *PostgresMediaStore) Create(ctx context.Context, item *domain.MediaItem) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := item.Validate(); err != nil {
		log.Warn("media item validation failed during create",
			slog.String("error", err.Error()),
			slog.String("media_id", item.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	usage, err := marshalUsage(item.Usage)
	if err != nil {
		return fmt.Errorf("failed to encode usage set: %w", err)
	}

	query := `
		INSERT INTO media_items
			(id, location_ref, owner_id, usage, status, delete_after, created_at, last_referenced_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		item.ID,
		item.LocationRef,
		item.OwnerID,
		usage,
		item.Status,
		item.DeleteAfter,
		item.CreatedAt,
		item.LastReferencedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			log.Warn("duplicate media ID during create",
				slog.String("media_id", item.ID.String()))
			return fmt.Errorf("%w: %s", store.ErrMediaExists, item.ID)
		}

		log.Error("failed to create media item",
			slog.String("error", err.Error()),
			slog.String("media_id", item.ID.String()),
			slog.String("owner_id", item.OwnerID.String()))
		return MapError(err)
	}

	log.Info("media item created",
		slog.String("media_id", item.ID.String()),
		slog.String("owner_id", item.OwnerID.String()),
		slog.String("location_ref", item.LocationRef))
	return nil
}

// mediaColumns is the select list shared by all read queries.
const mediaColumns = `id, location_ref, owner_id, usage, status, delete_after, created_at, last_referenced_at`

// GetByID implements store.MediaStore.GetByID
// Returns store.ErrMediaNotFound if the item does not exist.
func (s *PostgresMediaStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.MediaItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + mediaColumns + `
		FROM media_items
		WHERE id = $1
	`

	item, err := scanMediaItem(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("media item not found", slog.String("media_id", id.String()))
			return nil, store.ErrMediaNotFound
		}
		log.Error("failed to get media item by ID",
			slog.String("error", err.Error()),
			slog.String("media_id", id.String()))
		return nil, MapError(err)
	}

	return item, nil
}

// AddReferences implements store.MediaStore.AddReferences
// Each ID is handled by a single conditional UPDATE: membership add is
// idempotent, last_referenced_at is refreshed, and a pending_deletion item
// is revived to active with its deadline cleared. Deleted and unknown IDs
// match no row and are ignored.
func (s *PostgresMediaStore) AddReferences(ctx context.Context, documentID uuid.UUID, ids []uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE media_items
		SET usage = CASE
				WHEN usage ? $2::text THEN usage
				ELSE usage || to_jsonb($2::text)
			END,
			status = 'active',
			delete_after = NULL,
			last_referenced_at = $3
		WHERE id = $1 AND status <> 'deleted'
	`

	now := time.Now().UTC()
	for _, id := range ids {
		result, err := s.db.ExecContext(ctx, query, id, documentID.String(), now)
		if err != nil {
			log.Error("failed to add media reference",
				slog.String("error", err.Error()),
				slog.String("media_id", id.String()),
				slog.String("document_id", documentID.String()))
			return MapError(err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			// Unknown or already-deleted media; tolerated by design.
			log.Debug("ignoring reference to unknown or deleted media",
				slog.String("media_id", id.String()),
				slog.String("document_id", documentID.String()))
		}
	}

	return nil
}

// RemoveReferences implements store.MediaStore.RemoveReferences
// Membership removal and the conditional flip to pending_deletion happen in
// the same UPDATE, so the transition fires exactly once even under
// concurrent removals.
func (s *PostgresMediaStore) RemoveReferences(
	ctx context.Context,
	documentID uuid.UUID,
	ids []uuid.UUID,
	gracePeriod time.Duration,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE media_items
		SET usage = usage - $2::text,
			status = CASE
				WHEN jsonb_array_length(usage - $2::text) = 0 AND status = 'active' THEN 'pending_deletion'
				ELSE status
			END,
			delete_after = CASE
				WHEN jsonb_array_length(usage - $2::text) = 0 AND status = 'active' THEN $3::timestamptz
				ELSE delete_after
			END
		WHERE id = $1 AND usage ? $2::text
	`

	deleteAfter := time.Now().UTC().Add(gracePeriod)
	for _, id := range ids {
		_, err := s.db.ExecContext(ctx, query, id, documentID.String(), deleteAfter)
		if err != nil {
			log.Error("failed to remove media reference",
				slog.String("error", err.Error()),
				slog.String("media_id", id.String()),
				slog.String("document_id", documentID.String()))
			return MapError(err)
		}
	}

	return nil
}

// FindOrphaned implements store.MediaStore.FindOrphaned
// Returns all active items with an empty usage set.
func (s *PostgresMediaStore) FindOrphaned(ctx context.Context) ([]*domain.MediaItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + mediaColumns + `
		FROM media_items
		WHERE status = 'active' AND jsonb_array_length(usage) = 0
		ORDER BY last_referenced_at ASC
	`

	items, err := s.queryMediaItems(ctx, query)
	if err != nil {
		log.Error("failed to query orphaned media items",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	log.Debug("found orphaned media items", slog.Int("count", len(items)))
	return items, nil
}

// MarkPending implements store.MediaStore.MarkPending
// The WHERE clause re-checks the orphan condition, so a sweep racing a
// revival or a concurrent sweep is a harmless no-op.
func (s *PostgresMediaStore) MarkPending(ctx context.Context, id uuid.UUID, gracePeriod time.Duration) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE media_items
		SET status = 'pending_deletion', delete_after = $2
		WHERE id = $1 AND status = 'active' AND jsonb_array_length(usage) = 0
	`

	deleteAfter := time.Now().UTC().Add(gracePeriod)
	result, err := s.db.ExecContext(ctx, query, id, deleteAfter)
	if err != nil {
		log.Error("failed to mark media item pending deletion",
			slog.String("error", err.Error()),
			slog.String("media_id", id.String()))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// No longer an orphan; nothing to do.
		log.Debug("media item no longer eligible for pending transition",
			slog.String("media_id", id.String()))
		return nil
	}

	log.Info("media item marked pending deletion",
		slog.String("media_id", id.String()),
		slog.Time("delete_after", deleteAfter))
	return nil
}

// FindReclaimable implements store.MediaStore.FindReclaimable
// Returns up to limit expired pending_deletion items, oldest deadline first.
func (s *PostgresMediaStore) FindReclaimable(ctx context.Context, limit int) ([]*domain.MediaItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT ` + mediaColumns + `
		FROM media_items
		WHERE status = 'pending_deletion' AND delete_after <= $1
		ORDER BY delete_after ASC
		LIMIT $2
	`

	items, err := s.queryMediaItems(ctx, query, time.Now().UTC(), limit)
	if err != nil {
		log.Error("failed to query reclaimable media items",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	log.Debug("found reclaimable media items", slog.Int("count", len(items)))
	return items, nil
}

// MarkDeleted implements store.MediaStore.MarkDeleted
// Returns store.ErrMediaNotFound if no pending_deletion item with the ID exists.
func (s *PostgresMediaStore) MarkDeleted(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE media_items
		SET status = 'deleted', delete_after = NULL
		WHERE id = $1 AND status = 'pending_deletion'
	`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		log.Error("failed to mark media item deleted",
			slog.String("error", err.Error()),
			slog.String("media_id", id.String()))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		log.Debug("no pending media item found to mark deleted",
			slog.String("media_id", id.String()))
		return store.ErrMediaNotFound
	}

	log.Info("media item marked deleted", slog.String("media_id", id.String()))
	return nil
}

// queryMediaItems runs a media select and scans all rows.
func (s *PostgresMediaStore) queryMediaItems(
	ctx context.Context,
	query string,
	args ...any,
) ([]*domain.MediaItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	items := []*domain.MediaItem{}
	for rows.Next() {
		item, err := scanMediaItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan media row: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating media rows: %w", err)
	}

	return items, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanMediaItem decodes one media_items row, including the JSONB usage set.
func scanMediaItem(row rowScanner) (*domain.MediaItem, error) {
	var item domain.MediaItem
	var usage []byte
	var status string
	var deleteAfter sql.NullTime

	err := row.Scan(
		&item.ID,
		&item.LocationRef,
		&item.OwnerID,
		&usage,
		&status,
		&deleteAfter,
		&item.CreatedAt,
		&item.LastReferencedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(usage, &item.Usage); err != nil {
		return nil, fmt.Errorf("failed to decode usage set: %w", err)
	}

	item.Status = domain.MediaStatus(status)
	if deleteAfter.Valid {
		t := deleteAfter.Time.UTC()
		item.DeleteAfter = &t
	}

	return &item, nil
}

// marshalUsage encodes the usage set for the JSONB column. A nil set is
// stored as an empty array so jsonb_array_length is always defined.
func marshalUsage(usage []uuid.UUID) ([]byte, error) {
	if usage == nil {
		usage = []uuid.UUID{}
	}
	return json.Marshal(usage)
}
