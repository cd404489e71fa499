package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/kanban-api/internal/domain"
	"github.com/phrazzld/kanban-api/internal/store"
)

type subTaskStore struct {
	s *state
}

var _ store.SubTaskStore = (*subTaskStore)(nil)

func (ss *subTaskStore) Create(ctx context.Context, sub *domain.SubTask) error {
	if err := sub.Validate(); err != nil {
		return err
	}
	if _, exists := ss.s.subTasks[sub.ID]; exists {
		return fmt.Errorf("%w: sub-task %s", store.ErrDuplicate, sub.ID)
	}
	if err := ss.checkOwner(sub); err != nil {
		return err
	}
	ss.s.subTasks[sub.ID] = sub.Clone()
	return nil
}

func (ss *subTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.SubTask, error) {
	sub, ok := ss.s.subTasks[id]
	if !ok {
		return nil, store.ErrSubTaskNotFound
	}
	return sub.Clone(), nil
}

func (ss *subTaskStore) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.SubTask, error) {
	subs := make([]*domain.SubTask, 0)
	for _, sub := range ss.s.subTasks {
		if sub.TaskID != nil && *sub.TaskID == taskID {
			subs = append(subs, sub.Clone())
		}
	}
	domain.SortSubTasks(subs)
	return subs, nil
}

func (ss *subTaskStore) Update(ctx context.Context, sub *domain.SubTask) error {
	if _, ok := ss.s.subTasks[sub.ID]; !ok {
		return store.ErrSubTaskNotFound
	}
	if err := sub.Validate(); err != nil {
		return err
	}
	if err := ss.checkOwner(sub); err != nil {
		return err
	}
	ss.s.subTasks[sub.ID] = sub.Clone()
	return nil
}

func (ss *subTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := ss.s.subTasks[id]; !ok {
		return store.ErrSubTaskNotFound
	}
	delete(ss.s.subTasks, id)
	return nil
}

func (ss *subTaskStore) CountByTask(ctx context.Context, taskID uuid.UUID) (int, error) {
	n := 0
	for _, sub := range ss.s.subTasks {
		if sub.TaskID != nil && *sub.TaskID == taskID {
			n++
		}
	}
	return n, nil
}

func (ss *subTaskStore) Count(ctx context.Context) (int, error) {
	return len(ss.s.subTasks), nil
}

func (ss *subTaskStore) checkOwner(sub *domain.SubTask) error {
	if sub.TaskID == nil {
		return nil
	}
	if _, ok := ss.s.tasks[*sub.TaskID]; !ok {
		return fmt.Errorf("%w: task %s not found", store.ErrInvalidEntity, *sub.TaskID)
	}
	return nil
}
