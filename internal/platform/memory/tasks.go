package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/google/uuid"
	"github.com/phrazzld/kanban-api/internal/domain"
	"github.com/phrazzld/kanban-api/internal/store"
)

type taskStore struct {
	s *state
}

var _ store.TaskStore = (*taskStore)(nil)

func (ts *taskStore) Create(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	if _, exists := ts.s.tasks[task.ID]; exists {
		return fmt.Errorf("%w: task %s", store.ErrDuplicate, task.ID)
	}
	if err := ts.checkRefs(task); err != nil {
		return err
	}
	ts.s.tasks[task.ID] = task.Clone()
	return nil
}

func (ts *taskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	t, ok := ts.s.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	return ts.read(t), nil
}

func (ts *taskStore) List(ctx context.Context) ([]*domain.Task, error) {
	return ts.filter(func(*domain.Task) bool { return true }), nil
}

func (ts *taskStore) ListWithDeadline(ctx context.Context) ([]*domain.Task, error) {
	return ts.filter(func(t *domain.Task) bool { return t.Deadline != nil }), nil
}

func (ts *taskStore) ListChildren(ctx context.Context, parentID uuid.UUID) ([]*domain.Task, error) {
	return ts.filter(func(t *domain.Task) bool {
		return t.ParentID != nil && *t.ParentID == parentID
	}), nil
}

func (ts *taskStore) Update(ctx context.Context, task *domain.Task) error {
	current, ok := ts.s.tasks[task.ID]
	if !ok {
		return store.ErrTaskNotFound
	}
	if current.Version != task.Version {
		return store.NewStoreError("task", "update", "stale version", store.ErrConflict)
	}
	if err := task.Validate(); err != nil {
		return err
	}
	if err := ts.checkRefs(task); err != nil {
		return err
	}
	task.Version++
	ts.s.tasks[task.ID] = task.Clone()
	return nil
}

// Delete removes the task and applies the SQL schema's cascades: sub-tasks,
// history and assignments go with it, children lose their parent.
func (ts *taskStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := ts.s.tasks[id]; !ok {
		return store.ErrTaskNotFound
	}
	delete(ts.s.tasks, id)
	delete(ts.s.history, id)
	for subID, sub := range ts.s.subTasks {
		if sub.TaskID != nil && *sub.TaskID == id {
			delete(ts.s.subTasks, subID)
		}
	}
	for _, t := range ts.s.tasks {
		if t.ParentID != nil && *t.ParentID == id {
			t.ParentID = nil
		}
	}
	for _, u := range ts.s.users {
		u.UnassignTask(id)
	}
	return nil
}

func (ts *taskStore) Count(ctx context.Context) (int, error) {
	return len(ts.s.tasks), nil
}

// checkRefs enforces the foreign keys the SQL schema declares.
func (ts *taskStore) checkRefs(task *domain.Task) error {
	if task.Column != nil {
		if _, ok := ts.s.columns[task.Column.ID]; !ok {
			return fmt.Errorf("%w: column %s not found", store.ErrInvalidEntity, task.Column.ID)
		}
	}
	if task.Row != nil {
		if _, ok := ts.s.rows[task.Row.ID]; !ok {
			return fmt.Errorf("%w: row %s not found", store.ErrInvalidEntity, task.Row.ID)
		}
	}
	if task.ParentID != nil {
		if _, ok := ts.s.tasks[*task.ParentID]; !ok {
			return fmt.Errorf("%w: parent task %s not found", store.ErrInvalidEntity, *task.ParentID)
		}
	}
	for _, userID := range task.AssignedUserIDs {
		if _, ok := ts.s.users[userID]; !ok {
			return fmt.Errorf("%w: user %s not found", store.ErrInvalidEntity, userID)
		}
	}
	return nil
}

// read returns a copy with reference names resolved against the current
// columns and rows, the way a join would. ChildIDs is derived from the
// parent references of the other tasks.
func (ts *taskStore) read(t *domain.Task) *domain.Task {
	c := t.Clone()
	c.ChildIDs = make([]uuid.UUID, 0)
	for _, other := range ts.s.tasks {
		if other.ParentID != nil && *other.ParentID == t.ID {
			c.ChildIDs = append(c.ChildIDs, other.ID)
		}
	}
	slices.SortFunc(c.ChildIDs, domain.CompareIDs)
	if c.Column != nil {
		if col, ok := ts.s.columns[c.Column.ID]; ok {
			c.Column.Name = col.Name
		}
	}
	if c.Row != nil {
		if row, ok := ts.s.rows[c.Row.ID]; ok {
			c.Row.Name = row.Name
		}
	}
	return c
}

func (ts *taskStore) filter(keep func(*domain.Task) bool) []*domain.Task {
	tasks := make([]*domain.Task, 0, len(ts.s.tasks))
	for _, t := range ts.s.tasks {
		if keep(t) {
			tasks = append(tasks, ts.read(t))
		}
	}
	domain.SortTasks(tasks)
	return tasks
}

type labelIndex struct {
	s *state
}

var _ store.LabelIndex = (*labelIndex)(nil)

// AllLabels scans every task.
func (li *labelIndex) AllLabels(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	for _, t := range li.s.tasks {
		for _, l := range t.Labels {
			seen[l] = struct{}{}
		}
	}
	labels := make([]string, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels, nil
}
