package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/kanban-api/internal/domain"
	"github.com/phrazzld/kanban-api/internal/events"
	"github.com/phrazzld/kanban-api/internal/store"
)

// UserService manages the board members tasks can be assigned to.
type UserService interface {
	// CreateUser creates a user with an optional WIP limit (nil means unlimited).
	CreateUser(ctx context.Context, name, email string, wipLimit *int) (*domain.User, error)

	// GetUser retrieves a user by their ID
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// ListUsers returns all users ordered by name
	ListUsers(ctx context.Context) ([]*domain.User, error)

	// SetWipLimit changes the user's WIP limit. Existing assignments are kept
	// even when they exceed the new limit.
	SetWipLimit(ctx context.Context, userID uuid.UUID, wipLimit *int) (*domain.User, error)

	// DeleteUser deletes a user and removes them from every task they were assigned to.
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	*runner
}

// NewUserService creates a new UserService.
// It returns an error if the unit of work is nil.
func NewUserService(
	uow store.UnitOfWork,
	emitter events.EventEmitter,
	logger *slog.Logger,
) (UserService, error) {
	r, err := newRunner("user", uow, emitter, logger)
	if err != nil {
		return nil, err
	}
	return &UserServiceImpl{runner: r}, nil
}

// Ensure UserServiceImpl implements UserService interface
var _ UserService = (*UserServiceImpl)(nil)

// CreateUser implements UserService.CreateUser.
func (s *UserServiceImpl) CreateUser(
	ctx context.Context,
	name, email string,
	wipLimit *int,
) (*domain.User, error) {
	var created *domain.User
	err := s.within(ctx, "create_user", func(ctx context.Context, st store.Stores, emit emitFn) error {
		user, err := domain.NewUser(name, email, wipLimit)
		if err != nil {
			return err
		}
		if err := st.Users.Create(ctx, user); err != nil {
			return err
		}
		created = user
		emit(userEvent("created", user))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetUser implements UserService.GetUser.
func (s *UserServiceImpl) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	var user *domain.User
	err := s.within(ctx, "get_user", func(ctx context.Context, st store.Stores, _ emitFn) error {
		var err error
		user, err = st.Users.GetByID(ctx, userID)
		return err
	})
	return user, err
}

// ListUsers implements UserService.ListUsers.
func (s *UserServiceImpl) ListUsers(ctx context.Context) ([]*domain.User, error) {
	var users []*domain.User
	err := s.within(ctx, "list_users", func(ctx context.Context, st store.Stores, _ emitFn) error {
		var err error
		users, err = st.Users.List(ctx)
		return err
	})
	return users, err
}

// SetWipLimit implements UserService.SetWipLimit.
func (s *UserServiceImpl) SetWipLimit(
	ctx context.Context,
	userID uuid.UUID,
	wipLimit *int,
) (*domain.User, error) {
	var updated *domain.User
	err := s.within(ctx, "set_wip_limit", func(ctx context.Context, st store.Stores, emit emitFn) error {
		user, err := st.Users.GetByIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		user.WipLimit = wipLimit
		if err := user.Validate(); err != nil {
			return err
		}
		user.UpdatedAt = time.Now().UTC()
		if err := st.Users.Update(ctx, user); err != nil {
			return err
		}
		updated = user
		emit(userEvent("updated", user))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteUser implements UserService.DeleteUser.
func (s *UserServiceImpl) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	return s.within(ctx, "delete_user", func(ctx context.Context, st store.Stores, emit emitFn) error {
		user, err := st.Users.GetByIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		for _, taskID := range user.AssignedTaskIDs {
			task, err := st.Tasks.GetByID(ctx, taskID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					continue
				}
				return err
			}
			task.UnassignUser(userID)
			task.UpdatedAt = time.Now().UTC()
			if err := st.Tasks.Update(ctx, task); err != nil {
				return err
			}
		}

		if err := st.Users.Delete(ctx, userID); err != nil {
			return err
		}
		emit(pendingEvent{
			eventType: events.UserChanged,
			entityID:  userID,
			payload:   map[string]string{"action": "deleted"},
		})
		return nil
	})
}

func userEvent(action string, user *domain.User) pendingEvent {
	return pendingEvent{
		eventType: events.UserChanged,
		entityID:  user.ID,
		payload:   map[string]any{"action": action, "user": user},
	}
}
