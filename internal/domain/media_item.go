package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// MediaStatus represents the lifecycle state of a media item.
type MediaStatus string

// Possible media status values. The set is closed: every transition is a
// method on MediaItem, so an item can never hold an out-of-band status or a
// pending_deletion state without a deadline.
const (
	MediaStatusActive          MediaStatus = "active"
	MediaStatusPendingDeletion MediaStatus = "pending_deletion"
	MediaStatusDeleted         MediaStatus = "deleted"
)

// Common validation errors for MediaItem
var (
	ErrEmptyMediaID          = errors.New("media ID cannot be empty")
	ErrEmptyMediaOwnerID     = errors.New("media owner ID cannot be empty")
	ErrEmptyMediaLocationRef = errors.New("media location ref cannot be empty")
	ErrMissingDeleteAfter    = errors.New("pending_deletion requires a delete-after deadline")
	ErrUnexpectedDeleteAfter = errors.New("delete-after deadline is only valid for pending_deletion")
	ErrPendingWithUsage      = errors.New("pending_deletion media cannot have usage entries")
)

// MediaItem is the registry record for one uploaded media object.
// Usage is the authoritative set of document IDs referencing the item;
// the reference count is always derived from it, never stored separately.
type MediaItem struct {
	ID               uuid.UUID   `json:"id"`
	LocationRef      string      `json:"location_ref"`
	OwnerID          uuid.UUID   `json:"owner_id"`
	Usage            []uuid.UUID `json:"usage"`
	Status           MediaStatus `json:"status"`
	DeleteAfter      *time.Time  `json:"delete_after,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	LastReferencedAt time.Time   `json:"last_referenced_at"`
}

// NewMediaItem creates a new active MediaItem for an upload that just
// completed. The ID and location ref come from the object store, which is
// the source of truth for both.
func NewMediaItem(id uuid.UUID, ownerID uuid.UUID, locationRef string) (*MediaItem, error) {
	now := time.Now().UTC()
	item := &MediaItem{
		ID:               id,
		LocationRef:      locationRef,
		OwnerID:          ownerID,
		Usage:            nil,
		Status:           MediaStatusActive,
		CreatedAt:        now,
		LastReferencedAt: now,
	}

	if err := item.Validate(); err != nil {
		return nil, err
	}

	return item, nil
}

// Validate checks if the MediaItem holds valid data and satisfies the
// status invariants. Returns an error if any check fails.
func (m *MediaItem) Validate() error {
	if m.ID == uuid.Nil {
		return ErrEmptyMediaID
	}

	if m.OwnerID == uuid.Nil {
		return ErrEmptyMediaOwnerID
	}

	if m.LocationRef == "" {
		return ErrEmptyMediaLocationRef
	}

	if !isValidMediaStatus(m.Status) {
		return ErrInvalidMediaStatus
	}

	switch m.Status {
	case MediaStatusPendingDeletion:
		if m.DeleteAfter == nil {
			return ErrMissingDeleteAfter
		}
		if len(m.Usage) > 0 {
			return ErrPendingWithUsage
		}
	default:
		if m.DeleteAfter != nil {
			return ErrUnexpectedDeleteAfter
		}
	}

	return nil
}

// HasUsage reports whether documentID is a member of the usage set.
func (m *MediaItem) HasUsage(documentID uuid.UUID) bool {
	for _, id := range m.Usage {
		if id == documentID {
			return true
		}
	}
	return false
}

// AddUsage records a document reference. Adding an already-present member
// is a no-op for the set; LastReferencedAt is refreshed either way.
// A pending_deletion item gaining a reference is revived to active.
// Deleted items are terminal and reject new references.
func (m *MediaItem) AddUsage(documentID uuid.UUID) error {
	if m.Status == MediaStatusDeleted {
		return ErrInvalidTransition
	}

	if !m.HasUsage(documentID) {
		m.Usage = append(m.Usage, documentID)
	}
	m.Status = MediaStatusActive
	m.DeleteAfter = nil
	m.LastReferencedAt = time.Now().UTC()
	return nil
}

// RemoveUsage drops a document reference. When the last reference of an
// active item is removed, the item transitions to pending_deletion with
// the given grace period. Removing an absent member is a no-op.
func (m *MediaItem) RemoveUsage(documentID uuid.UUID, gracePeriod time.Duration) {
	kept := m.Usage[:0]
	for _, id := range m.Usage {
		if id != documentID {
			kept = append(kept, id)
		}
	}
	m.Usage = kept

	if len(m.Usage) == 0 && m.Status == MediaStatusActive {
		deadline := time.Now().UTC().Add(gracePeriod)
		m.Status = MediaStatusPendingDeletion
		m.DeleteAfter = &deadline
	}
}

// IsOrphaned reports whether the item is active with an empty usage set.
// Such items exist only transiently (or after a missed transition) and are
// picked up by the orphan sweep.
func (m *MediaItem) IsOrphaned() bool {
	return m.Status == MediaStatusActive && len(m.Usage) == 0
}

// MarkPending transitions an orphaned active item to pending_deletion with
// the given grace period. Returns ErrInvalidTransition if the item is not
// active or still has references.
func (m *MediaItem) MarkPending(gracePeriod time.Duration) error {
	if m.Status != MediaStatusActive || len(m.Usage) > 0 {
		return ErrInvalidTransition
	}

	deadline := time.Now().UTC().Add(gracePeriod)
	m.Status = MediaStatusPendingDeletion
	m.DeleteAfter = &deadline
	return nil
}

// MarkDeleted transitions a pending_deletion item to the terminal deleted
// state after the object-store delete succeeded.
func (m *MediaItem) MarkDeleted() error {
	if m.Status != MediaStatusPendingDeletion {
		return ErrInvalidTransition
	}

	m.Status = MediaStatusDeleted
	m.DeleteAfter = nil
	return nil
}

// isValidMediaStatus checks if the given status is a valid MediaStatus.
func isValidMediaStatus(status MediaStatus) bool {
	switch status {
	case MediaStatusActive, MediaStatusPendingDeletion, MediaStatusDeleted:
		return true
	default:
		return false
	}
}
