package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidMediaStatus is returned when a media status is not one of
	// the closed set of states.
	ErrInvalidMediaStatus = errors.New("invalid media status")

	// ErrInvalidTransition is returned when a status transition is not
	// permitted by the media state machine.
	ErrInvalidTransition = errors.New("invalid status transition")
)
