package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/kanban-api/internal/domain"
)

// SubTaskStore defines the interface for sub-task persistence.
type SubTaskStore interface {
	// Create saves a new sub-task.
	// Returns ErrInvalidEntity if the owning task does not exist.
	Create(ctx context.Context, sub *domain.SubTask) error

	// GetByID retrieves a sub-task by its unique ID.
	// Returns ErrSubTaskNotFound if the sub-task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.SubTask, error)

	// ListByTask returns the sub-tasks of a task ordered by position, ties broken by id.
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.SubTask, error)

	// Update persists the full sub-task state.
	// Returns ErrSubTaskNotFound if the sub-task does not exist.
	Update(ctx context.Context, sub *domain.SubTask) error

	// Delete removes a sub-task.
	// Returns ErrSubTaskNotFound if the sub-task does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// CountByTask returns the number of sub-tasks owned by a task.
	CountByTask(ctx context.Context, taskID uuid.UUID) (int, error)

	// Count returns the total number of sub-tasks.
	Count(ctx context.Context) (int, error)
}
