package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/kanban-api/internal/domain"
	"github.com/phrazzld/kanban-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTask(t *testing.T, title string) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(title, "")
	require.NoError(t, err)
	return task
}

func TestWithin_DiscardsFailedUnitOfWork(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewStore(nil)
	task := newTask(t, "write report")
	boom := errors.New("boom")

	err := m.Within(ctx, func(ctx context.Context, s store.Stores) error {
		require.NoError(t, s.Tasks.Create(ctx, task))
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = m.Within(ctx, func(ctx context.Context, s store.Stores) error {
		_, err := s.Tasks.GetByID(ctx, task.ID)
		return err
	})
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
}

func TestWithin_CommitsSuccessfulUnitOfWork(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewStore(nil)
	task := newTask(t, "write report")

	require.NoError(t, m.Within(ctx, func(ctx context.Context, s store.Stores) error {
		return s.Tasks.Create(ctx, task)
	}))

	require.NoError(t, m.Within(ctx, func(ctx context.Context, s store.Stores) error {
		got, err := s.Tasks.GetByID(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, "write report", got.Title)
		return nil
	}))
}

func TestWithin_DiscardsOnPanic(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewStore(nil)
	task := newTask(t, "write report")

	assert.Panics(t, func() {
		_ = m.Within(ctx, func(ctx context.Context, s store.Stores) error {
			_ = s.Tasks.Create(ctx, task)
			panic("boom")
		})
	})

	// The mutex must be released and the write discarded.
	err := m.Within(ctx, func(ctx context.Context, s store.Stores) error {
		n, err := s.Tasks.Count(ctx)
		assert.Zero(t, n)
		return err
	})
	assert.NoError(t, err)
}

func TestTaskStore_UpdateChecksVersion(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewStore(nil)
	task := newTask(t, "write report")

	require.NoError(t, m.Within(ctx, func(ctx context.Context, s store.Stores) error {
		require.NoError(t, s.Tasks.Create(ctx, task))

		first, err := s.Tasks.GetByID(ctx, task.ID)
		require.NoError(t, err)
		stale, err := s.Tasks.GetByID(ctx, task.ID)
		require.NoError(t, err)

		first.Title = "first"
		require.NoError(t, s.Tasks.Update(ctx, first))
		assert.Equal(t, task.Version+1, first.Version)

		stale.Title = "stale"
		err = s.Tasks.Update(ctx, stale)
		assert.ErrorIs(t, err, store.ErrConflict)

		got, err := s.Tasks.GetByID(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, "first", got.Title)
		return nil
	}))
}

func TestTaskStore_DerivesChildrenAndCascades(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewStore(nil)
	parent := newTask(t, "parent")
	child := newTask(t, "child")
	child.ParentID = &parent.ID

	require.NoError(t, m.Within(ctx, func(ctx context.Context, s store.Stores) error {
		require.NoError(t, s.Tasks.Create(ctx, parent))
		require.NoError(t, s.Tasks.Create(ctx, child))

		got, err := s.Tasks.GetByID(ctx, parent.ID)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{child.ID}, got.ChildIDs)

		children, err := s.Tasks.ListChildren(ctx, parent.ID)
		require.NoError(t, err)
		require.Len(t, children, 1)
		assert.Equal(t, child.ID, children[0].ID)

		sub, err := domain.NewSubTask(&parent.ID, "step", "")
		require.NoError(t, err)
		require.NoError(t, s.SubTasks.Create(ctx, sub))

		require.NoError(t, s.Tasks.Delete(ctx, parent.ID))

		orphan, err := s.Tasks.GetByID(ctx, child.ID)
		require.NoError(t, err)
		assert.Nil(t, orphan.ParentID)

		_, err = s.SubTasks.GetByID(ctx, sub.ID)
		assert.ErrorIs(t, err, store.ErrSubTaskNotFound)
		return nil
	}))
}

func TestTaskStore_RejectsDanglingReferences(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewStore(nil)
	task := newTask(t, "write report")
	task.Column = &domain.ColumnRef{ID: uuid.New(), Name: "ghost"}

	err := m.Within(ctx, func(ctx context.Context, s store.Stores) error {
		return s.Tasks.Create(ctx, task)
	})
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
}

func TestTaskStore_ResolvesColumnNameOnRead(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewStore(nil)
	column, err := domain.NewColumn("Todo", nil)
	require.NoError(t, err)
	task := newTask(t, "write report")
	task.Column = column.Ref()

	require.NoError(t, m.Within(ctx, func(ctx context.Context, s store.Stores) error {
		require.NoError(t, s.Columns.Create(ctx, column))
		require.NoError(t, s.Tasks.Create(ctx, task))

		column.Name = "Backlog"
		require.NoError(t, s.Columns.Update(ctx, column))

		got, err := s.Tasks.GetByID(ctx, task.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Column)
		assert.Equal(t, "Backlog", got.Column.Name)
		return nil
	}))
}

func TestColumnStore_DeleteDetachesTasksAndHistory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewStore(nil)
	column, err := domain.NewColumn("Todo", nil)
	require.NoError(t, err)
	task := newTask(t, "write report")
	task.Column = column.Ref()

	require.NoError(t, m.Within(ctx, func(ctx context.Context, s store.Stores) error {
		require.NoError(t, s.Columns.Create(ctx, column))
		require.NoError(t, s.Tasks.Create(ctx, task))
		return s.History.Append(ctx, domain.NewTaskColumnHistory(task.ID, column, time.Now()))
	}))

	require.NoError(t, m.Within(ctx, func(ctx context.Context, s store.Stores) error {
		return s.Columns.Delete(ctx, column.ID)
	}))

	require.NoError(t, m.Within(ctx, func(ctx context.Context, s store.Stores) error {
		got, err := s.Tasks.GetByID(ctx, task.ID)
		require.NoError(t, err)
		assert.Nil(t, got.Column)

		records, err := s.History.ListByTask(ctx, task.ID)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Nil(t, records[0].ColumnID)
		assert.Equal(t, "Todo", records[0].ColumnName)
		return nil
	}))
}

func TestHistoryStore_OrdersNewestFirst(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewStore(nil)
	column, err := domain.NewColumn("Todo", nil)
	require.NoError(t, err)
	task := newTask(t, "write report")
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, m.Within(ctx, func(ctx context.Context, s store.Stores) error {
		require.NoError(t, s.Columns.Create(ctx, column))
		require.NoError(t, s.Tasks.Create(ctx, task))

		older := domain.NewTaskColumnHistory(task.ID, column, now.Add(-time.Hour))
		sameA := domain.NewTaskColumnHistory(task.ID, column, now)
		sameB := domain.NewTaskColumnHistory(task.ID, column, now)
		for _, rec := range []*domain.TaskColumnHistory{older, sameA, sameB} {
			require.NoError(t, s.History.Append(ctx, rec))
		}

		records, err := s.History.ListByTask(ctx, task.ID)
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, sameB.ID, records[0].ID)
		assert.Equal(t, sameA.ID, records[1].ID)
		assert.Equal(t, older.ID, records[2].ID)

		n, err := s.History.DeleteByTask(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		return nil
	}))
}

func TestUserStore_EmailUniqueness(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewStore(nil)
	alice, err := domain.NewUser("Alice", "alice@example.com", nil)
	require.NoError(t, err)
	impostor, err := domain.NewUser("Alice 2", "ALICE@example.com", nil)
	require.NoError(t, err)

	err = m.Within(ctx, func(ctx context.Context, s store.Stores) error {
		require.NoError(t, s.Users.Create(ctx, alice))
		return s.Users.Create(ctx, impostor)
	})
	assert.ErrorIs(t, err, store.ErrEmailExists)
	assert.True(t, store.IsDuplicateError(err))
}

func TestUserStore_DeleteDropsAssignments(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewStore(nil)
	user, err := domain.NewUser("Alice", "alice@example.com", nil)
	require.NoError(t, err)
	task := newTask(t, "write report")

	require.NoError(t, m.Within(ctx, func(ctx context.Context, s store.Stores) error {
		require.NoError(t, s.Users.Create(ctx, user))
		task.AssignUser(user.ID)
		require.NoError(t, s.Tasks.Create(ctx, task))
		user.AssignTask(task.ID)
		require.NoError(t, s.Users.Update(ctx, user))

		require.NoError(t, s.Users.Delete(ctx, user.ID))

		got, err := s.Tasks.GetByID(ctx, task.ID)
		require.NoError(t, err)
		assert.Empty(t, got.AssignedUserIDs)
		return nil
	}))
}

func TestLabelIndex_UnionSorted(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewStore(nil)
	a := newTask(t, "a")
	a.AddLabel("urgent")
	a.AddLabel("backend")
	b := newTask(t, "b")
	b.AddLabel("backend")
	b.AddLabel("docs")

	require.NoError(t, m.Within(ctx, func(ctx context.Context, s store.Stores) error {
		require.NoError(t, s.Tasks.Create(ctx, a))
		require.NoError(t, s.Tasks.Create(ctx, b))

		labels, err := s.Labels.AllLabels(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"backend", "docs", "urgent"}, labels)
		return nil
	}))
}
