package model

import (
	"errors"
	"fmt"
)

// Common errors used across the application
var (
	// Submission errors
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidCarID = errors.New("carID must be a string or a number")

	// Persistence errors
	ErrStoreUnavailable = errors.New("store unavailable")

	// Configuration errors
	ErrUnknownPolicy = errors.New("unknown score policy")
)

// ValidationError reports a missing or unusable submission field.
// It matches ErrInvalidInput with errors.Is.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements error
func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("Missing fields: %s", e.Field)
	}
	return fmt.Sprintf("Invalid field %s: %s", e.Field, e.Reason)
}

// Unwrap lets callers match the error against ErrInvalidInput
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// StoreError wraps a backend failure so it matches ErrStoreUnavailable while
// keeping the underlying cause reachable.
func StoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
