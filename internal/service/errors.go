package service

import (
	"errors"
	"fmt"
)

// Common service-level sentinel errors.
var (
	// ErrInvalidInput indicates the caller passed invalid arguments.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMediaNotFound indicates the requested media item does not exist.
	ErrMediaNotFound = errors.New("media item not found")
)

// MediaServiceError is a custom error type for media service errors.
type MediaServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for MediaServiceError.
func (e *MediaServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("media service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("media service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *MediaServiceError) Unwrap() error {
	return e.Err
}

// NewMediaServiceError creates a new MediaServiceError.
func NewMediaServiceError(operation, message string, err error) *MediaServiceError {
	return &MediaServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
