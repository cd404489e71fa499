package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/kanban-api/internal/domain"
	"github.com/phrazzld/kanban-api/internal/store"
)

type userStore struct {
	s *state
}

var _ store.UserStore = (*userStore)(nil)

func (us *userStore) Create(ctx context.Context, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	if _, exists := us.s.users[user.ID]; exists {
		return fmt.Errorf("%w: user %s", store.ErrDuplicate, user.ID)
	}
	if us.emailTaken(user.Email, user.ID) {
		return store.ErrEmailExists
	}
	us.s.users[user.ID] = user.Clone()
	return nil
}

func (us *userStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, ok := us.s.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return user.Clone(), nil
}

// GetByIDForUpdate needs no extra locking: units of work are already serialized.
func (us *userStore) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return us.GetByID(ctx, id)
}

func (us *userStore) List(ctx context.Context) ([]*domain.User, error) {
	users := make([]*domain.User, 0, len(us.s.users))
	for _, user := range us.s.users {
		users = append(users, user.Clone())
	}
	slices.SortFunc(users, func(a, b *domain.User) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return domain.CompareIDs(a.ID, b.ID)
	})
	return users, nil
}

func (us *userStore) Update(ctx context.Context, user *domain.User) error {
	if _, ok := us.s.users[user.ID]; !ok {
		return store.ErrUserNotFound
	}
	if err := user.Validate(); err != nil {
		return err
	}
	if us.emailTaken(user.Email, user.ID) {
		return store.ErrEmailExists
	}
	for _, taskID := range user.AssignedTaskIDs {
		if _, ok := us.s.tasks[taskID]; !ok {
			return fmt.Errorf("%w: task %s not found", store.ErrInvalidEntity, taskID)
		}
	}
	us.s.users[user.ID] = user.Clone()
	return nil
}

// Delete removes the user and drops it from every task's assignment set.
func (us *userStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := us.s.users[id]; !ok {
		return store.ErrUserNotFound
	}
	delete(us.s.users, id)
	for _, t := range us.s.tasks {
		t.UnassignUser(id)
	}
	return nil
}

func (us *userStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, ok := us.s.users[id]
	return ok, nil
}

func (us *userStore) emailTaken(email string, self uuid.UUID) bool {
	for id, u := range us.s.users {
		if id != self && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}
