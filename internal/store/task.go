package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/kanban-api/internal/domain"
)

// TaskStore defines the interface for task persistence.
//
// Implementations persist the task side of every relationship: labels,
// assigned user ids and the parent reference. ChildIDs is derived from the
// parent references of other tasks on read.
type TaskStore interface {
	// Create saves a new task.
	// Returns validation errors if the task data is invalid.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// List returns every task ordered by position ascending, ties broken by id.
	List(ctx context.Context) ([]*domain.Task, error)

	// ListWithDeadline returns every task that has a non-null deadline.
	ListWithDeadline(ctx context.Context) ([]*domain.Task, error)

	// ListChildren returns the direct children of a task ordered by position.
	ListChildren(ctx context.Context, parentID uuid.UUID) ([]*domain.Task, error)

	// Update persists the full task state.
	// The write only succeeds if the stored version equals task.Version; on
	// success task.Version is incremented. Returns ErrTaskNotFound if the task
	// does not exist and ErrConflict if the version is stale.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// Count returns the total number of tasks.
	Count(ctx context.Context) (int, error)
}

// LabelIndex answers label aggregation queries. It is kept apart from
// TaskStore so an indexed implementation can replace a full scan.
type LabelIndex interface {
	// AllLabels returns the de-duplicated union of all task labels, sorted.
	AllLabels(ctx context.Context) ([]string, error)
}
