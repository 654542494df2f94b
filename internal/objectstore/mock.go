package objectstore

import (
	"context"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MockStore is an in-memory implementation of the Store interface for testing.
type MockStore struct {
	mu      sync.RWMutex
	objects map[string]mockObject
	deleted []string

	// DeleteErr, when set, is returned by Delete for matching location refs.
	// Used by tests to simulate object-store outages.
	DeleteErr map[string]error
}

type mockObject struct {
	data        []byte
	contentType string
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		objects: make(map[string]mockObject),
	}
}

// Upload stores the blob in memory under a generated media key.
func (s *MockStore) Upload(
	ctx context.Context,
	locationHint string,
	reader io.Reader,
	size int64,
	contentType string,
) (UploadResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return UploadResult{}, &ObjectError{Op: "Upload", Key: locationHint, Err: err}
	}

	id := uuid.New()
	key := "media/" + id.String() + strings.ToLower(path.Ext(locationHint))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = mockObject{data: data, contentType: contentType}

	return UploadResult{
		ID:          id.String(),
		LocationRef: key,
		SizeBytes:   int64(len(data)),
		ContentType: contentType,
	}, nil
}

// Delete removes the blob. Missing objects are ignored, matching the
// idempotent-delete contract.
func (s *MockStore) Delete(ctx context.Context, locationRef string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err, ok := s.DeleteErr[locationRef]; ok {
		return &ObjectError{Op: "Delete", Key: locationRef, Err: err}
	}

	delete(s.objects, locationRef)
	s.deleted = append(s.deleted, locationRef)
	return nil
}

// Head returns metadata for a stored blob.
func (s *MockStore) Head(ctx context.Context, locationRef string) (ObjectMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[locationRef]
	if !ok {
		return ObjectMeta{}, &ObjectError{Op: "Head", Key: locationRef, Err: ErrNotFound}
	}

	return ObjectMeta{
		Key:         locationRef,
		Size:        int64(len(obj.data)),
		ContentType: obj.contentType,
	}, nil
}

// Close is a no-op for the mock.
func (s *MockStore) Close() error {
	return nil
}

// Put stores a blob under an explicit key, bypassing key generation.
// Test helper for seeding known location refs.
func (s *MockStore) Put(locationRef string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[locationRef] = mockObject{data: data, contentType: "application/octet-stream"}
}

// Exists reports whether a blob is currently stored. Test helper.
func (s *MockStore) Exists(locationRef string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[locationRef]
	return ok
}

// Deleted returns the location refs passed to successful Delete calls,
// in order. Test helper.
func (s *MockStore) Deleted() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.deleted...)
}
