// Package s3 implements the objectstore.Store interface using the AWS SDK
// for S3-compatible storage.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/braydenidzenga/ZettaNote-sub001/internal/objectstore"
)

// mediaKeyPrefix is the key prefix under which all uploads are stored.
const mediaKeyPrefix = "media/"

// Config configures an S3 store.
type Config struct {
	// Bucket is the name of the S3 bucket.
	Bucket string

	// Region is the AWS region (e.g., "us-east-1").
	// Required for AWS S3, optional for S3-compatible endpoints.
	Region string

	// Endpoint is the S3 endpoint URL (e.g., "http://localhost:9000" for MinIO).
	// If empty, uses the default AWS endpoint for the region.
	Endpoint string

	// AccessKeyID is the AWS access key ID.
	// If empty, uses the default credential chain.
	AccessKeyID string

	// SecretAccessKey is the AWS secret access key.
	// If empty, uses the default credential chain.
	SecretAccessKey string

	// UsePathStyle enables path-style addressing (required for MinIO and
	// some S3-compatible stores).
	UsePathStyle bool

	// OpTimeout bounds each blocking store call. Zero means no bound.
	OpTimeout time.Duration
}

// Store implements objectstore.Store using AWS S3.
type Store struct {
	client    *s3.Client
	bucket    string
	opTimeout time.Duration
	closed    bool
	mu        sync.RWMutex
}

// New creates a new S3 store with the given configuration.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3: bucket name is required")
	}

	opts := []func(*config.LoadOptions) error{}

	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	} else {
		opts = append(opts, config.WithRegion("us-east-1"))
	}

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3: failed to load AWS config: %w", err)
	}

	s3Opts := []func(*s3.Options){
		func(o *s3.Options) {
			o.UsePathStyle = cfg.UsePathStyle
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
			}
		},
	}

	return &Store{
		client:    s3.NewFromConfig(awsCfg, s3Opts...),
		bucket:    cfg.Bucket,
		opTimeout: cfg.OpTimeout,
	}, nil
}

// Upload stores a blob under a freshly assigned media key.
// The key is mediaKeyPrefix plus a new UUID, keeping the extension (if any)
// of the location hint so downstream consumers can infer the format.
func (s *Store) Upload(
	ctx context.Context,
	locationHint string,
	reader io.Reader,
	size int64,
	contentType string,
) (objectstore.UploadResult, error) {
	if err := s.checkClosed(); err != nil {
		return objectstore.UploadResult{}, err
	}

	id := uuid.New()
	key := mediaKeyPrefix + id.String() + strings.ToLower(path.Ext(locationHint))

	ctx, cancel := s.boundCtx(ctx)
	defer cancel()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          reader,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return objectstore.UploadResult{}, s.wrapError("Upload", key, err)
	}

	return objectstore.UploadResult{
		ID:          id.String(),
		LocationRef: key,
		SizeBytes:   size,
		ContentType: contentType,
	}, nil
}

// Delete removes an object.
// Delete is idempotent: deleting a non-existent object succeeds silently.
// This matches S3 behavior and enables safe retries by the reclamation worker.
func (s *Store) Delete(ctx context.Context, locationRef string) error {
	if err := s.checkClosed(); err != nil {
		return err
	}

	ctx, cancel := s.boundCtx(ctx)
	defer cancel()

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(locationRef),
	})
	if err != nil {
		wrapped := s.wrapError("Delete", locationRef, err)
		if errors.Is(wrapped, objectstore.ErrNotFound) {
			return nil
		}
		return wrapped
	}

	return nil
}

// Head retrieves object metadata without the body.
func (s *Store) Head(ctx context.Context, locationRef string) (objectstore.ObjectMeta, error) {
	if err := s.checkClosed(); err != nil {
		return objectstore.ObjectMeta{}, err
	}

	ctx, cancel := s.boundCtx(ctx)
	defer cancel()

	output, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(locationRef),
	})
	if err != nil {
		return objectstore.ObjectMeta{}, s.wrapError("Head", locationRef, err)
	}

	meta := objectstore.ObjectMeta{Key: locationRef}
	if output.ContentLength != nil {
		meta.Size = *output.ContentLength
	}
	if output.ContentType != nil {
		meta.ContentType = *output.ContentType
	}
	return meta, nil
}

// Close marks the store closed. Subsequent calls return ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// checkClosed returns ErrClosed if Close has been called.
func (s *Store) checkClosed() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return objectstore.ErrClosed
	}
	return nil
}

// boundCtx applies the configured per-operation timeout, if any.
func (s *Store) boundCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.opTimeout)
}

// wrapError maps AWS errors to objectstore sentinel errors.
func (s *Store) wrapError(op, key string, err error) error {
	if err == nil {
		return nil
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.HTTPStatusCode() {
		case http.StatusNotFound:
			return &objectstore.ObjectError{Op: op, Key: key, Err: objectstore.ErrNotFound}
		case http.StatusForbidden:
			return &objectstore.ObjectError{Op: op, Key: key, Err: objectstore.ErrAccessDenied}
		}
	}

	var noSuchBucket *types.NoSuchBucket
	if errors.As(err, &noSuchBucket) {
		return &objectstore.ObjectError{Op: op, Key: key, Err: objectstore.ErrBucketNotFound}
	}

	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return &objectstore.ObjectError{Op: op, Key: key, Err: objectstore.ErrNotFound}
	}

	return &objectstore.ObjectError{Op: op, Key: key, Err: err}
}
