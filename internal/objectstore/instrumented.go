package objectstore

import (
	"context"
	"io"
	"time"
)

// MetricsRecorder is the interface for recording object store operation
// metrics. This allows the objectstore package to be decoupled from the
// metrics package.
type MetricsRecorder interface {
	RecordUpload(durationSeconds float64, success bool, bytes int64)
	RecordDelete(durationSeconds float64, success bool)
	RecordHead(durationSeconds float64, success bool)
}

// InstrumentedStore wraps a Store and records metrics for each operation.
type InstrumentedStore struct {
	store   Store
	metrics MetricsRecorder
}

// NewInstrumentedStore creates an instrumented wrapper around a Store.
// If metrics is nil, no metrics are recorded and operations pass through directly.
func NewInstrumentedStore(store Store, metrics MetricsRecorder) *InstrumentedStore {
	return &InstrumentedStore{
		store:   store,
		metrics: metrics,
	}
}

// Upload stores a blob and records the operation duration and size.
func (s *InstrumentedStore) Upload(
	ctx context.Context,
	locationHint string,
	reader io.Reader,
	size int64,
	contentType string,
) (UploadResult, error) {
	start := time.Now()
	result, err := s.store.Upload(ctx, locationHint, reader, size, contentType)
	if s.metrics != nil {
		s.metrics.RecordUpload(time.Since(start).Seconds(), err == nil, size)
	}
	return result, err
}

// Delete removes a blob and records the operation duration.
func (s *InstrumentedStore) Delete(ctx context.Context, locationRef string) error {
	start := time.Now()
	err := s.store.Delete(ctx, locationRef)
	if s.metrics != nil {
		s.metrics.RecordDelete(time.Since(start).Seconds(), err == nil)
	}
	return err
}

// Head retrieves object metadata and records the operation duration.
func (s *InstrumentedStore) Head(ctx context.Context, locationRef string) (ObjectMeta, error) {
	start := time.Now()
	meta, err := s.store.Head(ctx, locationRef)
	if s.metrics != nil {
		s.metrics.RecordHead(time.Since(start).Seconds(), err == nil)
	}
	return meta, err
}

// Close releases the underlying store's resources.
func (s *InstrumentedStore) Close() error {
	return s.store.Close()
}
