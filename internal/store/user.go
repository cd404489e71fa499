package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/kanban-api/internal/domain"
)

// UserStore defines the interface for user persistence.
type UserStore interface {
	// Create saves a new user.
	// Returns ErrEmailExists if the email is already taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique ID, including assigned task ids.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByIDForUpdate is GetByID that also locks the user for the rest of the
	// unit of work. Every read that precedes an Update of the assignment set
	// goes through it, so concurrent assignment changes for one user serialize.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// List returns all users ordered by name, ties broken by id.
	List(ctx context.Context) ([]*domain.User, error)

	// Update persists name, email, WIP limit and the user side of task assignments.
	// Returns ErrUserNotFound if the user does not exist.
	Update(ctx context.Context, user *domain.User) error

	// Delete removes a user.
	// Returns ErrUserNotFound if the user does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// Exists reports whether a user with the id exists.
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}
