// Package domain defines the core business entities and errors.
package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidState is returned when an operation would violate a domain
	// invariant. Callers should treat it as a rejected operation.
	ErrInvalidState = errors.New("invalid state")

	// ErrCycle is returned when a parent assignment would make a task its own ancestor.
	ErrCycle = fmt.Errorf("%w: cycle", ErrInvalidState)

	// ErrParentNotCompleted is returned when completing a task whose parent is still open.
	ErrParentNotCompleted = fmt.Errorf("%w: parent not completed", ErrInvalidState)

	// ErrWipLimitExceeded is returned when an assignment would push a user past
	// their configured work-in-progress limit.
	ErrWipLimitExceeded = errors.New("wip limit exceeded")
)

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a ValidationError for the given field.
// If err is nil, ErrValidation is wrapped.
func NewValidationError(field, message string, err error) *ValidationError {
	if err == nil {
		err = ErrValidation
	}
	return &ValidationError{
		Field:   field,
		Message: message,
		Err:     err,
	}
}
