package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/braydenidzenga/ZettaNote-sub001/internal/domain"
)

// MediaStore is the media registry: the single source of truth for media
// reference counts and lifecycle status.
//
// Implementations must express each mutation as an atomic set-mutation plus
// conditional status update (a single conditional statement, not
// read-then-write), so concurrent document edits touching the same item
// cannot race: two documents dropping their reference to one item must both
// succeed, and the item must land in pending_deletion exactly once.
type MediaStore interface {
	// Create persists a new media item record after an upload completes.
	// Returns ErrMediaExists if the ID is already registered.
	Create(ctx context.Context, item *domain.MediaItem) error

	// GetByID retrieves a media item by its unique ID.
	// Returns ErrMediaNotFound if the item does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.MediaItem, error)

	// AddReferences adds documentID to the usage set of each given media
	// item and refreshes its last-referenced timestamp. Already-present
	// membership is a no-op; unknown and deleted IDs are ignored (the media
	// may have been reclaimed already, and that must not error the caller).
	//
	// Re-reference policy: a pending_deletion item that gains a reference
	// before reclamation runs is revived to active with its delete-after
	// deadline cleared, in the same atomic update. Forcing a fresh upload
	// would silently break existing embeds when an edit is undone inside
	// the grace window, so the registry takes the item back instead.
	AddReferences(ctx context.Context, documentID uuid.UUID, ids []uuid.UUID) error

	// RemoveReferences removes documentID from the usage set of each given
	// media item. If an active item's usage becomes empty, the same atomic
	// update transitions it to pending_deletion with a delete-after
	// deadline of now plus gracePeriod. Unknown IDs and absent memberships
	// are ignored.
	RemoveReferences(ctx context.Context, documentID uuid.UUID, ids []uuid.UUID, gracePeriod time.Duration) error

	// FindOrphaned returns all active items with an empty usage set. This is
	// the defensive sweep input: it catches items whose edit-triggered
	// transition did not fire (e.g., a crash between the set mutation and
	// the status write). Idempotent and safe to run repeatedly.
	FindOrphaned(ctx context.Context) ([]*domain.MediaItem, error)

	// MarkPending transitions an orphaned active item to pending_deletion
	// with a delete-after deadline of now plus gracePeriod. Identical in
	// effect to the edit-triggered transition; a no-op when the item is no
	// longer an orphan (re-referenced or already transitioned).
	MarkPending(ctx context.Context, id uuid.UUID, gracePeriod time.Duration) error

	// FindReclaimable returns up to limit pending_deletion items whose
	// delete-after deadline has passed, oldest deadline first, bounding
	// worst-case staleness.
	FindReclaimable(ctx context.Context, limit int) ([]*domain.MediaItem, error)

	// MarkDeleted transitions a pending_deletion item to the terminal
	// deleted state. Called only after the object-store delete succeeded.
	// Returns ErrMediaNotFound if no pending item with the ID exists.
	MarkDeleted(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new MediaStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller
	// (typically a service).
	WithTx(tx *sql.Tx) MediaStore
}
