package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/phrazzld/kanban-api/internal/domain"
	"github.com/phrazzld/kanban-api/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestServiceError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *ServiceError
		expected string
	}{
		{
			name: "with underlying error",
			err: &ServiceError{
				Service:   "task",
				Operation: "create",
				Message:   "unit of work failed",
				Err:       errors.New("database connection failed"),
			},
			expected: "task service create failed: unit of work failed: database connection failed",
		},
		{
			name: "without underlying error",
			err: &ServiceError{
				Service:   "column",
				Operation: "create_service",
				Message:   "uow cannot be nil",
			},
			expected: "column service create_service failed: uow cannot be nil",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestServiceError_ErrorsIs(t *testing.T) {
	underlyingErr := errors.New("database connection failed")
	serviceErr := &ServiceError{Service: "user", Operation: "create_user", Err: underlyingErr}

	t.Run("errors.Is works with wrapped error", func(t *testing.T) {
		assert.True(t, errors.Is(serviceErr, underlyingErr))
	})

	t.Run("errors.Is returns false for different errors", func(t *testing.T) {
		assert.False(t, errors.Is(serviceErr, errors.New("different error")))
	})

	t.Run("errors.As finds nested ServiceError", func(t *testing.T) {
		wrapped := fmt.Errorf("handler: %w", serviceErr)
		var target *ServiceError
		assert.True(t, errors.As(wrapped, &target))
		assert.Equal(t, "user", target.Service)
		assert.Equal(t, "create_user", target.Operation)
	})
}

func TestNewServiceError(t *testing.T) {
	t.Run("nil error stays nil", func(t *testing.T) {
		assert.NoError(t, NewServiceError("task", "get", "failed", nil))
	})

	known := []struct {
		name string
		err  error
	}{
		{name: "not found", err: store.ErrTaskNotFound},
		{name: "conflict", err: store.NewStoreError("task", "update", "stale version", store.ErrConflict)},
		{name: "duplicate", err: store.ErrEmailExists},
		{name: "invalid entity", err: fmt.Errorf("%w: column missing", store.ErrInvalidEntity)},
		{name: "cycle", err: domain.ErrCycle},
		{name: "parent not completed", err: domain.ErrParentNotCompleted},
		{name: "wip limit", err: fmt.Errorf("%w: user is full", domain.ErrWipLimitExceeded)},
		{name: "validation", err: domain.ErrTaskTitleEmpty},
	}
	for _, tt := range known {
		tt := tt
		t.Run("passes through "+tt.name, func(t *testing.T) {
			err := NewServiceError("task", "op", "failed", tt.err)
			assert.Same(t, tt.err, err)
			assert.True(t, IsKnownError(err))
		})
	}

	t.Run("wraps infrastructure failures", func(t *testing.T) {
		base := errors.New("connection reset")
		err := NewServiceError("task", "patch", "unit of work failed", base)

		var serviceErr *ServiceError
		assert.True(t, errors.As(err, &serviceErr))
		assert.Equal(t, "task", serviceErr.Service)
		assert.Equal(t, "patch", serviceErr.Operation)
		assert.True(t, errors.Is(err, base))
		assert.False(t, IsKnownError(err))
	})
}
