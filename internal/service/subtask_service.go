package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/kanban-api/internal/domain"
	"github.com/phrazzld/kanban-api/internal/events"
	"github.com/phrazzld/kanban-api/internal/store"
)

// CreateSubTaskInput carries the fields accepted when creating a sub-task.
// A nil TaskID creates a standalone sub-task.
type CreateSubTaskInput struct {
	TaskID      *uuid.UUID
	Title       string
	Description string
	Position    *int
}

// SubTaskPatch is a partial sub-task update. Only non-nil fields are applied.
type SubTaskPatch struct {
	Title       *string
	Description *string
	Position    *int
}

// SubTaskService manages the checklist items inside tasks.
// Sub-task completion is informational and never changes the owning task.
type SubTaskService interface {
	// Create adds a sub-task. A nil position defaults to the owning task's
	// sub-task count + 1, or the global count + 1 for a standalone sub-task.
	Create(ctx context.Context, in CreateSubTaskInput) (*domain.SubTask, error)

	// Get returns one sub-task.
	Get(ctx context.Context, id uuid.UUID) (*domain.SubTask, error)

	// ListByTask returns a task's sub-tasks by position, ties broken by id.
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.SubTask, error)

	// Update applies the non-nil fields of patch.
	Update(ctx context.Context, id uuid.UUID, patch SubTaskPatch) (*domain.SubTask, error)

	// SetCompletion sets the sub-task's completed flag.
	SetCompletion(ctx context.Context, id uuid.UUID, completed bool) (*domain.SubTask, error)

	// AttachToTask moves the sub-task under taskID.
	AttachToTask(ctx context.Context, id, taskID uuid.UUID) (*domain.SubTask, error)

	// Delete removes a sub-task.
	Delete(ctx context.Context, id uuid.UUID) error
}

// subTaskServiceImpl implements the SubTaskService interface
type subTaskServiceImpl struct {
	*runner
}

// NewSubTaskService creates a new SubTaskService.
// It returns an error if the unit of work is nil.
func NewSubTaskService(
	uow store.UnitOfWork,
	emitter events.EventEmitter,
	logger *slog.Logger,
) (SubTaskService, error) {
	r, err := newRunner("subtask", uow, emitter, logger)
	if err != nil {
		return nil, err
	}
	return &subTaskServiceImpl{runner: r}, nil
}

// Ensure subTaskServiceImpl implements SubTaskService interface
var _ SubTaskService = (*subTaskServiceImpl)(nil)

// Create implements SubTaskService.Create.
func (s *subTaskServiceImpl) Create(ctx context.Context, in CreateSubTaskInput) (*domain.SubTask, error) {
	var created *domain.SubTask
	err := s.within(ctx, "create", func(ctx context.Context, st store.Stores, emit emitFn) error {
		sub, err := domain.NewSubTask(in.TaskID, in.Title, in.Description)
		if err != nil {
			return err
		}

		if in.TaskID != nil {
			if _, err := st.Tasks.GetByID(ctx, *in.TaskID); err != nil {
				return err
			}
		}

		if in.Position != nil {
			sub.Position = *in.Position
		} else {
			var count int
			if in.TaskID != nil {
				count, err = st.SubTasks.CountByTask(ctx, *in.TaskID)
			} else {
				count, err = st.SubTasks.Count(ctx)
			}
			if err != nil {
				return err
			}
			sub.Position = count + 1
		}

		if err := st.SubTasks.Create(ctx, sub); err != nil {
			return err
		}
		created = sub
		emit(subTaskEvent("created", sub))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Get implements SubTaskService.Get.
func (s *subTaskServiceImpl) Get(ctx context.Context, id uuid.UUID) (*domain.SubTask, error) {
	var sub *domain.SubTask
	err := s.within(ctx, "get", func(ctx context.Context, st store.Stores, _ emitFn) error {
		var err error
		sub, err = st.SubTasks.GetByID(ctx, id)
		return err
	})
	return sub, err
}

// ListByTask implements SubTaskService.ListByTask.
func (s *subTaskServiceImpl) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.SubTask, error) {
	var subs []*domain.SubTask
	err := s.within(ctx, "list_by_task", func(ctx context.Context, st store.Stores, _ emitFn) error {
		if _, err := st.Tasks.GetByID(ctx, taskID); err != nil {
			return err
		}
		var err error
		if subs, err = st.SubTasks.ListByTask(ctx, taskID); err != nil {
			return err
		}
		domain.SortSubTasks(subs)
		return nil
	})
	return subs, err
}

// Update implements SubTaskService.Update.
func (s *subTaskServiceImpl) Update(ctx context.Context, id uuid.UUID, patch SubTaskPatch) (*domain.SubTask, error) {
	return s.mutate(ctx, "update", id, func(_ context.Context, _ store.Stores, sub *domain.SubTask) error {
		if patch.Title != nil {
			sub.Title = *patch.Title
		}
		if patch.Description != nil {
			sub.Description = *patch.Description
		}
		if patch.Position != nil {
			sub.Position = *patch.Position
		}
		return sub.Validate()
	})
}

// SetCompletion implements SubTaskService.SetCompletion.
func (s *subTaskServiceImpl) SetCompletion(
	ctx context.Context,
	id uuid.UUID,
	completed bool,
) (*domain.SubTask, error) {
	return s.mutate(ctx, "set_completion", id, func(_ context.Context, _ store.Stores, sub *domain.SubTask) error {
		sub.Completed = completed
		return nil
	})
}

// AttachToTask implements SubTaskService.AttachToTask.
func (s *subTaskServiceImpl) AttachToTask(ctx context.Context, id, taskID uuid.UUID) (*domain.SubTask, error) {
	return s.mutate(ctx, "attach_to_task", id, func(ctx context.Context, st store.Stores, sub *domain.SubTask) error {
		if _, err := st.Tasks.GetByID(ctx, taskID); err != nil {
			return err
		}
		owner := taskID
		sub.TaskID = &owner
		return nil
	})
}

// mutate loads a sub-task, applies change and persists it.
func (s *subTaskServiceImpl) mutate(
	ctx context.Context,
	operation string,
	id uuid.UUID,
	change func(ctx context.Context, st store.Stores, sub *domain.SubTask) error,
) (*domain.SubTask, error) {
	var updated *domain.SubTask
	err := s.within(ctx, operation, func(ctx context.Context, st store.Stores, emit emitFn) error {
		sub, err := st.SubTasks.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := change(ctx, st, sub); err != nil {
			return err
		}
		sub.UpdatedAt = time.Now().UTC()
		if err := st.SubTasks.Update(ctx, sub); err != nil {
			return err
		}
		updated = sub
		emit(subTaskEvent("updated", sub))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete implements SubTaskService.Delete.
func (s *subTaskServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return s.within(ctx, "delete", func(ctx context.Context, st store.Stores, emit emitFn) error {
		if err := st.SubTasks.Delete(ctx, id); err != nil {
			return err
		}
		emit(pendingEvent{
			eventType: events.SubTaskChanged,
			entityID:  id,
			payload:   map[string]string{"action": "deleted"},
		})
		return nil
	})
}

func subTaskEvent(action string, sub *domain.SubTask) pendingEvent {
	return pendingEvent{
		eventType: events.SubTaskChanged,
		entityID:  sub.ID,
		payload:   map[string]any{"action": action, "subtask": sub},
	}
}
