package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/kanban-api/internal/domain"
)

// ColumnStore defines the interface for column persistence.
type ColumnStore interface {
	// Create saves a new column.
	Create(ctx context.Context, column *domain.Column) error

	// GetByID retrieves a column by its unique ID.
	// Returns ErrColumnNotFound if the column does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Column, error)

	// List returns all columns ordered by position ascending, ties broken by id.
	List(ctx context.Context) ([]*domain.Column, error)

	// Update persists name, position and WIP limit.
	// Returns ErrColumnNotFound if the column does not exist.
	Update(ctx context.Context, column *domain.Column) error

	// Delete removes a column. Tasks referencing it lose the reference;
	// history records keep their name snapshot.
	// Returns ErrColumnNotFound if the column does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// Exists reports whether a column with the id exists.
	Exists(ctx context.Context, id uuid.UUID) (bool, error)

	// Count returns the total number of columns.
	Count(ctx context.Context) (int, error)
}

// RowStore defines the interface for row (swimlane) persistence.
// It mirrors ColumnStore.
type RowStore interface {
	Create(ctx context.Context, row *domain.Row) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Row, error)
	List(ctx context.Context) ([]*domain.Row, error)
	Update(ctx context.Context, row *domain.Row) error
	Delete(ctx context.Context, id uuid.UUID) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	Count(ctx context.Context) (int, error)
}
