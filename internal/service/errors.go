package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/kanban-api/internal/domain"
	"github.com/phrazzld/kanban-api/internal/store"
)

// ServiceError wraps an unexpected failure with the service and operation it
// happened in. It is the opaque infrastructure error of the service layer.
type ServiceError struct {
	// Service is the service that failed (e.g., "task", "column")
	Service string
	// Operation is the operation that failed (e.g., "assign_user")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s failed: %s: %v", e.Service, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s service %s failed: %s", e.Service, e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
// Known error kinds are returned directly without wrapping.
func NewServiceError(service, operation, message string, err error) error {
	if err == nil {
		return nil
	}
	if IsKnownError(err) {
		return err
	}
	return &ServiceError{
		Service:   service,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// IsKnownError reports whether err is one of the error kinds callers are
// expected to handle rather than an infrastructure failure.
func IsKnownError(err error) bool {
	var validationErr *domain.ValidationError
	switch {
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, store.ErrConflict),
		errors.Is(err, store.ErrDuplicate),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrWipLimitExceeded),
		errors.Is(err, domain.ErrValidation),
		errors.As(err, &validationErr):
		return true
	}
	return false
}
