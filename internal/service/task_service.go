package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/kanban-api/internal/domain"
	"github.com/phrazzld/kanban-api/internal/events"
	"github.com/phrazzld/kanban-api/internal/platform/logger"
	"github.com/phrazzld/kanban-api/internal/store"
)

// CreateTaskInput carries the fields accepted when creating a task.
// Nil pointers mean "not provided".
type CreateTaskInput struct {
	Title           string
	Description     string
	Position        *int
	Labels          []string
	ColumnID        *uuid.UUID
	RowID           *uuid.UUID
	AssignedUserIDs []uuid.UUID
	ParentID        *uuid.UUID
	Deadline        *time.Time
}

// TaskPatch carries a partial task update. Only non-nil fields are applied;
// for the slices, nil means "not provided" and an empty slice clears the set.
type TaskPatch struct {
	Title           *string
	Description     *string
	ColumnID        *uuid.UUID
	RowID           *uuid.UUID
	AssignedUserIDs []uuid.UUID
	Position        *int
	Labels          []string
	Deadline        *time.Time
}

// TaskService is the task engine: the single authority for task state transitions.
type TaskService interface {
	// Create persists a new task. An unset position defaults to the task count + 1.
	// A task created in a column gets its first history record.
	Create(ctx context.Context, in CreateTaskInput) (*domain.Task, error)

	// Get returns one task.
	Get(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// List returns every task sorted by position, ties broken by id.
	List(ctx context.Context) ([]*domain.Task, error)

	// Patch applies the non-nil fields of patch. A column change is recorded in history.
	Patch(ctx context.Context, id uuid.UUID, patch TaskPatch) (*domain.Task, error)

	// Delete removes a task, its history and its links to parent, children and users.
	Delete(ctx context.Context, id uuid.UUID) error

	// AssignUser assigns a user to a task, subject to the user's WIP limit.
	AssignUser(ctx context.Context, taskID, userID uuid.UUID) (*domain.Task, error)

	// RemoveUser removes a user from a task.
	RemoveUser(ctx context.Context, taskID, userID uuid.UUID) (*domain.Task, error)

	// UpdatePosition overwrites the task's position without touching siblings.
	UpdatePosition(ctx context.Context, id uuid.UUID, position int) (*domain.Task, error)

	// AddLabel adds a label to the task's label set.
	AddLabel(ctx context.Context, id uuid.UUID, label string) (*domain.Task, error)

	// RemoveLabel removes a label from the task's label set.
	RemoveLabel(ctx context.Context, id uuid.UUID, label string) (*domain.Task, error)

	// ReplaceLabels replaces the task's label set.
	ReplaceLabels(ctx context.Context, id uuid.UUID, labels []string) (*domain.Task, error)

	// GetAllLabels returns the union of every task's labels.
	GetAllLabels(ctx context.Context) ([]string, error)

	// AssignParent makes parentID the parent of childID unless that creates a cycle.
	AssignParent(ctx context.Context, childID, parentID uuid.UUID) (*domain.Task, error)

	// RemoveParent detaches a task from its parent. It is a no-op for root tasks.
	RemoveParent(ctx context.Context, childID uuid.UUID) (*domain.Task, error)

	// ListChildren returns the direct children of a task.
	ListChildren(ctx context.Context, id uuid.UUID) ([]*domain.Task, error)

	// CanComplete reports whether the task has no parent or its parent is completed.
	CanComplete(ctx context.Context, id uuid.UUID) (bool, error)

	// SetCompletion sets the completed flag. Completing requires a completed (or
	// absent) parent; reopening also reopens every descendant.
	SetCompletion(ctx context.Context, id uuid.UUID, completed bool) (*domain.Task, error)

	// GetColumnHistory returns the task's column history, newest first.
	GetColumnHistory(ctx context.Context, taskID uuid.UUID) ([]*domain.TaskColumnHistory, error)

	// SweepDeadlines recomputes the expired flag of every task with a deadline
	// and returns how many tasks changed.
	SweepDeadlines(ctx context.Context) (int, error)
}

// TaskServiceOption configures a task service.
type TaskServiceOption func(*taskServiceImpl)

// WithClock replaces time.Now as the source of timestamps and of "now" in the deadline sweep.
func WithClock(now func() time.Time) TaskServiceOption {
	return func(s *taskServiceImpl) {
		s.now = now
	}
}

// taskServiceImpl implements the TaskService interface
type taskServiceImpl struct {
	*runner
	history *HistoryRecorder
	now     func() time.Time
}

// NewTaskService creates a new TaskService.
// It returns an error if the unit of work is nil. A nil emitter discards events.
func NewTaskService(
	uow store.UnitOfWork,
	emitter events.EventEmitter,
	logger *slog.Logger,
	opts ...TaskServiceOption,
) (TaskService, error) {
	r, err := newRunner("task", uow, emitter, logger)
	if err != nil {
		return nil, err
	}

	s := &taskServiceImpl{
		runner: r,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.history = NewHistoryRecorder(s.now)
	return s, nil
}

// Ensure taskServiceImpl implements TaskService interface
var _ TaskService = (*taskServiceImpl)(nil)

// Create implements TaskService.Create.
func (s *taskServiceImpl) Create(ctx context.Context, in CreateTaskInput) (*domain.Task, error) {
	var created *domain.Task
	err := s.within(ctx, "create", func(ctx context.Context, st store.Stores, emit emitFn) error {
		task, err := domain.NewTask(in.Title, in.Description)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		task.CreatedAt = now
		task.UpdatedAt = now

		if in.Position != nil {
			task.Position = *in.Position
		} else {
			count, err := st.Tasks.Count(ctx)
			if err != nil {
				return err
			}
			task.Position = count + 1
		}

		task.ReplaceLabels(in.Labels)

		var column *domain.Column
		if in.ColumnID != nil {
			if column, err = st.Columns.GetByID(ctx, *in.ColumnID); err != nil {
				return err
			}
			task.Column = column.Ref()
		}
		if in.RowID != nil {
			row, err := st.Rows.GetByID(ctx, *in.RowID)
			if err != nil {
				return err
			}
			task.Row = row.Ref()
		}
		if in.ParentID != nil {
			if _, err := st.Tasks.GetByID(ctx, *in.ParentID); err != nil {
				return err
			}
			parentID := *in.ParentID
			task.ParentID = &parentID
		}
		if in.Deadline != nil {
			deadline := in.Deadline.UTC()
			task.Deadline = &deadline
			task.RefreshExpired(now)
		}

		users, err := s.gateNewAssignees(ctx, st, task, in.AssignedUserIDs)
		if err != nil {
			return err
		}
		for _, u := range users {
			task.AssignUser(u.ID)
		}

		if err := st.Tasks.Create(ctx, task); err != nil {
			return err
		}
		for _, u := range users {
			u.AssignTask(task.ID)
			if err := st.Users.Update(ctx, u); err != nil {
				return err
			}
		}

		if column != nil {
			if _, err := s.history.Append(ctx, st.History, task, column); err != nil {
				return err
			}
		}

		if created, err = st.Tasks.GetByID(ctx, task.ID); err != nil {
			return err
		}
		emit(pendingEvent{eventType: events.TaskCreated, entityID: task.ID, payload: created})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Get implements TaskService.Get.
func (s *taskServiceImpl) Get(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	var task *domain.Task
	err := s.within(ctx, "get", func(ctx context.Context, st store.Stores, _ emitFn) error {
		var err error
		task, err = st.Tasks.GetByID(ctx, id)
		return err
	})
	return task, err
}

// List implements TaskService.List.
func (s *taskServiceImpl) List(ctx context.Context) ([]*domain.Task, error) {
	var tasks []*domain.Task
	err := s.within(ctx, "list", func(ctx context.Context, st store.Stores, _ emitFn) error {
		var err error
		if tasks, err = st.Tasks.List(ctx); err != nil {
			return err
		}
		domain.SortTasks(tasks)
		return nil
	})
	return tasks, err
}

// Patch implements TaskService.Patch.
func (s *taskServiceImpl) Patch(ctx context.Context, id uuid.UUID, patch TaskPatch) (*domain.Task, error) {
	var updated *domain.Task
	err := s.within(ctx, "patch", func(ctx context.Context, st store.Stores, emit emitFn) error {
		task, err := st.Tasks.GetByID(ctx, id)
		if err != nil {
			return err
		}
		now := s.now().UTC()

		if patch.Title != nil {
			task.Title = *patch.Title
		}
		if patch.Description != nil {
			task.Description = *patch.Description
		}
		if err := task.Validate(); err != nil {
			return err
		}

		var movedTo *domain.Column
		if patch.ColumnID != nil && !sameID(task.ColumnID(), patch.ColumnID) {
			column, err := st.Columns.GetByID(ctx, *patch.ColumnID)
			if err != nil {
				return err
			}
			task.Column = column.Ref()
			movedTo = column
		}
		if patch.RowID != nil && !sameID(task.RowID(), patch.RowID) {
			row, err := st.Rows.GetByID(ctx, *patch.RowID)
			if err != nil {
				return err
			}
			task.Row = row.Ref()
		}
		if patch.Position != nil {
			task.Position = *patch.Position
		}
		if patch.Labels != nil {
			task.ReplaceLabels(patch.Labels)
		}
		if patch.Deadline != nil {
			deadline := patch.Deadline.UTC()
			task.Deadline = &deadline
			task.RefreshExpired(now)
		}

		var changedUsers []*domain.User
		if patch.AssignedUserIDs != nil {
			if changedUsers, err = s.replaceAssignees(ctx, st, task, patch.AssignedUserIDs); err != nil {
				return err
			}
		}

		task.UpdatedAt = now
		if err := st.Tasks.Update(ctx, task); err != nil {
			return err
		}
		for _, u := range changedUsers {
			if err := st.Users.Update(ctx, u); err != nil {
				return err
			}
		}

		// History reflects the persisted column, so it is written after the update.
		if movedTo != nil {
			if _, err := s.history.Append(ctx, st.History, task, movedTo); err != nil {
				return err
			}
		}

		if updated, err = st.Tasks.GetByID(ctx, id); err != nil {
			return err
		}
		eventType := events.TaskUpdated
		if movedTo != nil {
			eventType = events.TaskMoved
		}
		emit(pendingEvent{eventType: eventType, entityID: id, payload: updated})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete implements TaskService.Delete.
func (s *taskServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return s.within(ctx, "delete", func(ctx context.Context, st store.Stores, emit emitFn) error {
		task, err := st.Tasks.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if _, err := st.History.DeleteByTask(ctx, id); err != nil {
			return err
		}

		if task.ParentID != nil {
			parent, err := st.Tasks.GetByID(ctx, *task.ParentID)
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				return err
			}
			if parent != nil {
				parent.RemoveChild(id)
				parent.UpdatedAt = s.now().UTC()
				if err := st.Tasks.Update(ctx, parent); err != nil {
					return err
				}
			}
		}

		children, err := st.Tasks.ListChildren(ctx, id)
		if err != nil {
			return err
		}
		for _, child := range children {
			child.ParentID = nil
			child.UpdatedAt = s.now().UTC()
			if err := st.Tasks.Update(ctx, child); err != nil {
				return err
			}
		}

		for _, userID := range task.AssignedUserIDs {
			user, err := st.Users.GetByIDForUpdate(ctx, userID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					continue
				}
				return err
			}
			user.UnassignTask(id)
			if err := st.Users.Update(ctx, user); err != nil {
				return err
			}
		}

		if err := st.Tasks.Delete(ctx, id); err != nil {
			return err
		}
		emit(pendingEvent{eventType: events.TaskDeleted, entityID: id})
		return nil
	})
}

// AssignUser implements TaskService.AssignUser.
func (s *taskServiceImpl) AssignUser(ctx context.Context, taskID, userID uuid.UUID) (*domain.Task, error) {
	var updated *domain.Task
	err := s.within(ctx, "assign_user", func(ctx context.Context, st store.Stores, emit emitFn) error {
		task, err := st.Tasks.GetByID(ctx, taskID)
		if err != nil {
			return err
		}
		// Lock the user row so concurrent assignments see each other's count.
		user, err := st.Users.GetByIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		if task.IsAssigned(userID) && user.HasTask(taskID) {
			updated = task
			return nil
		}

		if err := checkWipLimit(user); err != nil {
			return err
		}

		task.AssignUser(userID)
		task.UpdatedAt = s.now().UTC()
		user.AssignTask(taskID)
		if err := st.Tasks.Update(ctx, task); err != nil {
			return err
		}
		if err := st.Users.Update(ctx, user); err != nil {
			return err
		}

		updated = task
		emit(pendingEvent{
			eventType: events.TaskAssigned,
			entityID:  taskID,
			payload:   map[string]uuid.UUID{"user_id": userID},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// RemoveUser implements TaskService.RemoveUser.
func (s *taskServiceImpl) RemoveUser(ctx context.Context, taskID, userID uuid.UUID) (*domain.Task, error) {
	var updated *domain.Task
	err := s.within(ctx, "remove_user", func(ctx context.Context, st store.Stores, emit emitFn) error {
		task, err := st.Tasks.GetByID(ctx, taskID)
		if err != nil {
			return err
		}
		user, err := st.Users.GetByIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		task.UnassignUser(userID)
		task.UpdatedAt = s.now().UTC()
		user.UnassignTask(taskID)
		if err := st.Tasks.Update(ctx, task); err != nil {
			return err
		}
		if err := st.Users.Update(ctx, user); err != nil {
			return err
		}

		updated = task
		emit(pendingEvent{
			eventType: events.TaskUnassigned,
			entityID:  taskID,
			payload:   map[string]uuid.UUID{"user_id": userID},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdatePosition implements TaskService.UpdatePosition.
func (s *taskServiceImpl) UpdatePosition(ctx context.Context, id uuid.UUID, position int) (*domain.Task, error) {
	return s.mutate(ctx, "update_position", id, func(task *domain.Task) {
		task.Position = position
	})
}

// AddLabel implements TaskService.AddLabel.
func (s *taskServiceImpl) AddLabel(ctx context.Context, id uuid.UUID, label string) (*domain.Task, error) {
	return s.mutate(ctx, "add_label", id, func(task *domain.Task) {
		task.AddLabel(label)
	})
}

// RemoveLabel implements TaskService.RemoveLabel.
func (s *taskServiceImpl) RemoveLabel(ctx context.Context, id uuid.UUID, label string) (*domain.Task, error) {
	return s.mutate(ctx, "remove_label", id, func(task *domain.Task) {
		task.RemoveLabel(label)
	})
}

// ReplaceLabels implements TaskService.ReplaceLabels.
func (s *taskServiceImpl) ReplaceLabels(ctx context.Context, id uuid.UUID, labels []string) (*domain.Task, error) {
	return s.mutate(ctx, "replace_labels", id, func(task *domain.Task) {
		task.ReplaceLabels(labels)
	})
}

// mutate loads a task, applies change and persists it.
func (s *taskServiceImpl) mutate(
	ctx context.Context,
	operation string,
	id uuid.UUID,
	change func(task *domain.Task),
) (*domain.Task, error) {
	var updated *domain.Task
	err := s.within(ctx, operation, func(ctx context.Context, st store.Stores, emit emitFn) error {
		task, err := st.Tasks.GetByID(ctx, id)
		if err != nil {
			return err
		}
		change(task)
		task.UpdatedAt = s.now().UTC()
		if err := st.Tasks.Update(ctx, task); err != nil {
			return err
		}
		updated = task
		emit(pendingEvent{eventType: events.TaskUpdated, entityID: id, payload: task})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// GetAllLabels implements TaskService.GetAllLabels.
func (s *taskServiceImpl) GetAllLabels(ctx context.Context) ([]string, error) {
	var labels []string
	err := s.within(ctx, "get_all_labels", func(ctx context.Context, st store.Stores, _ emitFn) error {
		var err error
		labels, err = st.Labels.AllLabels(ctx)
		return err
	})
	return labels, err
}

// AssignParent implements TaskService.AssignParent.
func (s *taskServiceImpl) AssignParent(ctx context.Context, childID, parentID uuid.UUID) (*domain.Task, error) {
	var updated *domain.Task
	err := s.within(ctx, "assign_parent", func(ctx context.Context, st store.Stores, emit emitFn) error {
		child, err := st.Tasks.GetByID(ctx, childID)
		if err != nil {
			return err
		}
		if childID == parentID {
			return domain.ErrCycle
		}
		parent, err := st.Tasks.GetByID(ctx, parentID)
		if err != nil {
			return err
		}
		if child.ParentID != nil && *child.ParentID == parentID {
			updated = child
			return nil
		}

		bound, err := st.Tasks.Count(ctx)
		if err != nil {
			return err
		}
		lookup := func(id uuid.UUID) (*uuid.UUID, error) {
			t, err := st.Tasks.GetByID(ctx, id)
			if err != nil {
				return nil, err
			}
			return t.ParentID, nil
		}
		if err := domain.ValidateParentAssignment(childID, parentID, bound, lookup); err != nil {
			return err
		}

		now := s.now().UTC()
		if child.ParentID != nil {
			if err := s.detachFromParent(ctx, st, child, now); err != nil {
				return err
			}
		}

		child.ParentID = &parentID
		child.UpdatedAt = now
		parent.AddChild(childID)
		parent.UpdatedAt = now
		if err := st.Tasks.Update(ctx, child); err != nil {
			return err
		}
		if err := st.Tasks.Update(ctx, parent); err != nil {
			return err
		}

		if updated, err = st.Tasks.GetByID(ctx, childID); err != nil {
			return err
		}
		emit(pendingEvent{eventType: events.TaskUpdated, entityID: childID, payload: updated})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// RemoveParent implements TaskService.RemoveParent.
func (s *taskServiceImpl) RemoveParent(ctx context.Context, childID uuid.UUID) (*domain.Task, error) {
	var updated *domain.Task
	err := s.within(ctx, "remove_parent", func(ctx context.Context, st store.Stores, emit emitFn) error {
		child, err := st.Tasks.GetByID(ctx, childID)
		if err != nil {
			return err
		}
		if child.ParentID == nil {
			updated = child
			return nil
		}

		now := s.now().UTC()
		if err := s.detachFromParent(ctx, st, child, now); err != nil {
			return err
		}
		child.ParentID = nil
		child.UpdatedAt = now
		if err := st.Tasks.Update(ctx, child); err != nil {
			return err
		}

		updated = child
		emit(pendingEvent{eventType: events.TaskUpdated, entityID: childID, payload: child})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// detachFromParent removes child from its current parent's children set and
// persists the parent. The child itself is left for the caller to update.
func (s *taskServiceImpl) detachFromParent(
	ctx context.Context,
	st store.Stores,
	child *domain.Task,
	now time.Time,
) error {
	parent, err := st.Tasks.GetByID(ctx, *child.ParentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	parent.RemoveChild(child.ID)
	parent.UpdatedAt = now
	return st.Tasks.Update(ctx, parent)
}

// ListChildren implements TaskService.ListChildren.
func (s *taskServiceImpl) ListChildren(ctx context.Context, id uuid.UUID) ([]*domain.Task, error) {
	var children []*domain.Task
	err := s.within(ctx, "list_children", func(ctx context.Context, st store.Stores, _ emitFn) error {
		if _, err := st.Tasks.GetByID(ctx, id); err != nil {
			return err
		}
		var err error
		children, err = st.Tasks.ListChildren(ctx, id)
		return err
	})
	return children, err
}

// CanComplete implements TaskService.CanComplete.
func (s *taskServiceImpl) CanComplete(ctx context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	err := s.within(ctx, "can_complete", func(ctx context.Context, st store.Stores, _ emitFn) error {
		task, err := st.Tasks.GetByID(ctx, id)
		if err != nil {
			return err
		}
		ok, err = canComplete(ctx, st, task)
		return err
	})
	return ok, err
}

// canComplete is true when the task has no parent or the parent is completed.
// A dangling parent reference counts as no parent.
func canComplete(ctx context.Context, st store.Stores, task *domain.Task) (bool, error) {
	if task.ParentID == nil {
		return true, nil
	}
	parent, err := st.Tasks.GetByID(ctx, *task.ParentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return true, nil
		}
		return false, err
	}
	return parent.Completed, nil
}

// SetCompletion implements TaskService.SetCompletion.
func (s *taskServiceImpl) SetCompletion(ctx context.Context, id uuid.UUID, completed bool) (*domain.Task, error) {
	var updated *domain.Task
	err := s.within(ctx, "set_completion", func(ctx context.Context, st store.Stores, emit emitFn) error {
		task, err := st.Tasks.GetByID(ctx, id)
		if err != nil {
			return err
		}
		now := s.now().UTC()

		if completed {
			ok, err := canComplete(ctx, st, task)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: task %s", domain.ErrParentNotCompleted, id)
			}
			if !task.Completed {
				task.Completed = true
				task.UpdatedAt = now
				if err := st.Tasks.Update(ctx, task); err != nil {
					return err
				}
				emit(pendingEvent{eventType: events.TaskCompleted, entityID: id, payload: task})
			}
			updated = task
			return nil
		}

		if task.Completed {
			task.Completed = false
			task.UpdatedAt = now
			if err := st.Tasks.Update(ctx, task); err != nil {
				return err
			}
		}
		reopened, err := s.reopenDescendants(ctx, st, id, now)
		if err != nil {
			return err
		}

		updated = task
		emit(pendingEvent{
			eventType: events.TaskReopened,
			entityID:  id,
			payload:   map[string]any{"task": task, "reopened_descendants": reopened},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// reopenDescendants walks the subtree below rootID depth-first and clears the
// completed flag of every descendant, persisting only the nodes that changed.
// It returns the ids of the reopened descendants.
func (s *taskServiceImpl) reopenDescendants(
	ctx context.Context,
	st store.Stores,
	rootID uuid.UUID,
	now time.Time,
) ([]uuid.UUID, error) {
	reopened := make([]uuid.UUID, 0)
	visited := map[uuid.UUID]bool{rootID: true}
	stack := []uuid.UUID{rootID}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		children, err := st.Tasks.ListChildren(ctx, current)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			if visited[child.ID] {
				continue
			}
			visited[child.ID] = true
			stack = append(stack, child.ID)

			if !child.Completed {
				continue
			}
			child.Completed = false
			child.UpdatedAt = now
			if err := st.Tasks.Update(ctx, child); err != nil {
				return nil, err
			}
			reopened = append(reopened, child.ID)
		}
	}
	return reopened, nil
}

// GetColumnHistory implements TaskService.GetColumnHistory.
func (s *taskServiceImpl) GetColumnHistory(
	ctx context.Context,
	taskID uuid.UUID,
) ([]*domain.TaskColumnHistory, error) {
	var records []*domain.TaskColumnHistory
	err := s.within(ctx, "get_column_history", func(ctx context.Context, st store.Stores, _ emitFn) error {
		if _, err := st.Tasks.GetByID(ctx, taskID); err != nil {
			return err
		}
		var err error
		if records, err = st.History.ListByTask(ctx, taskID); err != nil {
			return err
		}
		domain.SortHistoryNewestFirst(records)
		return nil
	})
	return records, err
}

// SweepDeadlines implements TaskService.SweepDeadlines.
func (s *taskServiceImpl) SweepDeadlines(ctx context.Context) (int, error) {
	var changed []uuid.UUID
	err := s.within(ctx, "sweep_deadlines", func(ctx context.Context, st store.Stores, emit emitFn) error {
		changed = changed[:0]
		now := s.now().UTC()

		tasks, err := st.Tasks.ListWithDeadline(ctx)
		if err != nil {
			return err
		}
		for _, task := range tasks {
			if !task.RefreshExpired(now) {
				continue
			}
			task.UpdatedAt = now
			if err := st.Tasks.Update(ctx, task); err != nil {
				return err
			}
			changed = append(changed, task.ID)
		}

		if len(changed) > 0 {
			emit(pendingEvent{
				eventType: events.TasksExpired,
				payload:   map[string]any{"count": len(changed), "task_ids": changed},
			})
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("deadline sweep finished",
		slog.Int("updated", len(changed)))
	return len(changed), nil
}

// gateNewAssignees loads and locks every user in userIDs that is not yet
// assigned to task and checks their WIP limit. It returns the users to update.
func (s *taskServiceImpl) gateNewAssignees(
	ctx context.Context,
	st store.Stores,
	task *domain.Task,
	userIDs []uuid.UUID,
) ([]*domain.User, error) {
	users := make([]*domain.User, 0, len(userIDs))
	seen := make(map[uuid.UUID]bool, len(userIDs))
	for _, userID := range userIDs {
		if seen[userID] || task.IsAssigned(userID) {
			continue
		}
		seen[userID] = true

		user, err := st.Users.GetByIDForUpdate(ctx, userID)
		if err != nil {
			return nil, err
		}
		if err := checkWipLimit(user); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// replaceAssignees makes userIDs the task's assignment set. Newly added users
// pass the WIP gate; both sides are updated in memory and the changed users
// are returned for the caller to persist after the task.
func (s *taskServiceImpl) replaceAssignees(
	ctx context.Context,
	st store.Stores,
	task *domain.Task,
	userIDs []uuid.UUID,
) ([]*domain.User, error) {
	added, err := s.gateNewAssignees(ctx, st, task, userIDs)
	if err != nil {
		return nil, err
	}

	changed := make([]*domain.User, 0, len(added))
	for _, userID := range slices.Clone(task.AssignedUserIDs) {
		if slices.Contains(userIDs, userID) {
			continue
		}
		user, err := st.Users.GetByIDForUpdate(ctx, userID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		task.UnassignUser(userID)
		if user != nil {
			user.UnassignTask(task.ID)
			changed = append(changed, user)
		}
	}

	for _, user := range added {
		task.AssignUser(user.ID)
		user.AssignTask(task.ID)
		changed = append(changed, user)
	}
	return changed, nil
}

// checkWipLimit applies the WIP gate to the user's current assignment count.
func checkWipLimit(user *domain.User) error {
	if err := domain.CheckWipLimit(user.AssignmentCount(), user.WipLimit); err != nil {
		return fmt.Errorf("%w: user %s has %d assigned tasks", err, user.ID, user.AssignmentCount())
	}
	return nil
}

func sameID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
