// Package objectstore defines the blob storage abstraction for uploaded media.
//
// The object store is the source of truth for media identifiers and location
// refs: Upload assigns both, and the registry records them. The interface is
// designed for S3-compatible backends; [s3.Store] is the production
// implementation and [MockStore] backs tests.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Common errors returned by Store implementations.
var (
	// ErrNotFound is returned when the requested object does not exist.
	ErrNotFound = errors.New("object not found")

	// ErrBucketNotFound is returned when the configured bucket does not exist.
	ErrBucketNotFound = errors.New("bucket not found")

	// ErrAccessDenied is returned when the credentials lack permission for the operation.
	ErrAccessDenied = errors.New("access denied")

	// ErrClosed is returned when the store has been closed.
	ErrClosed = errors.New("object store is closed")
)

// ObjectError wraps an error with the object key for context.
type ObjectError struct {
	Op  string // Operation that failed (e.g., "Upload", "Delete")
	Key string // Object key
	Err error  // Underlying error
}

func (e *ObjectError) Error() string {
	return fmt.Sprintf("objectstore: %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *ObjectError) Unwrap() error {
	return e.Err
}

// UploadResult describes one stored object. The store assigns the ID and
// the location ref; callers persist both in the media registry.
type UploadResult struct {
	// ID is the opaque media identifier assigned by the store.
	ID string

	// LocationRef is the locator needed to fetch or delete the blob.
	LocationRef string

	// SizeBytes is the number of bytes stored.
	SizeBytes int64

	// ContentType is the MIME type recorded with the object.
	ContentType string
}

// ObjectMeta contains metadata about a stored object.
type ObjectMeta struct {
	// Key is the object's location ref.
	Key string

	// Size is the object's size in bytes.
	Size int64

	// ContentType is the MIME type of the object.
	ContentType string
}

// Store is the interface for blob storage operations.
//
// All methods accept a context for cancellation and deadline propagation.
// Upload and Delete are blocking I/O; implementations bound each call with
// a configurable timeout.
//
// Thread Safety: Implementations must be safe for concurrent use.
type Store interface {
	// Upload stores a blob and assigns it an identifier and location ref.
	//
	// locationHint is advisory (typically the original filename); the store
	// may use it to derive the stored key but owns the final naming. The
	// reader is consumed until EOF; size must match the total bytes read.
	Upload(ctx context.Context, locationHint string, reader io.Reader, size int64, contentType string) (UploadResult, error)

	// Delete removes a blob by its location ref.
	//
	// Delete is idempotent: deleting a non-existent object succeeds
	// silently. A prior reclamation run may have deleted the blob and
	// crashed before recording it, so not-found must not be an error.
	Delete(ctx context.Context, locationRef string) error

	// Head retrieves object metadata without the body.
	// Returns ErrNotFound if the object doesn't exist.
	Head(ctx context.Context, locationRef string) (ObjectMeta, error)

	// Close releases resources associated with the store.
	// After Close returns, all other methods will return ErrClosed.
	Close() error
}
