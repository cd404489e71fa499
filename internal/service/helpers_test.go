package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/kanban-api/internal/domain"
	"github.com/phrazzld/kanban-api/internal/events"
	"github.com/phrazzld/kanban-api/internal/platform/memory"
	"github.com/stretchr/testify/require"
)

// fakeClock is a settable clock for deterministic timestamps.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordingEmitter captures emitted events; a non-nil err is returned from every emit.
type recordingEmitter struct {
	mu     sync.Mutex
	events []*events.BoardEvent
	err    error
}

func (e *recordingEmitter) EmitEvent(_ context.Context, event *events.BoardEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
	return e.err
}

func (e *recordingEmitter) Types() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	types := make([]string, 0, len(e.events))
	for _, ev := range e.events {
		types = append(types, ev.Type)
	}
	return types
}

func (e *recordingEmitter) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = nil
}

// board bundles every service over one in-memory store.
type board struct {
	tasks    TaskService
	columns  ColumnService
	rows     RowService
	subTasks SubTaskService
	users    UserService
	clock    *fakeClock
	emitter  *recordingEmitter
}

func newBoard(t *testing.T) *board {
	t.Helper()
	uow := memory.NewStore(nil)
	clock := newFakeClock()
	emitter := &recordingEmitter{}

	tasks, err := NewTaskService(uow, emitter, nil, WithClock(clock.Now))
	require.NoError(t, err)
	columns, err := NewColumnService(uow, emitter, nil)
	require.NoError(t, err)
	rows, err := NewRowService(uow, emitter, nil)
	require.NoError(t, err)
	subTasks, err := NewSubTaskService(uow, emitter, nil)
	require.NoError(t, err)
	users, err := NewUserService(uow, emitter, nil)
	require.NoError(t, err)

	return &board{
		tasks:    tasks,
		columns:  columns,
		rows:     rows,
		subTasks: subTasks,
		users:    users,
		clock:    clock,
		emitter:  emitter,
	}
}

func (b *board) task(t *testing.T, title string) *domain.Task {
	t.Helper()
	task, err := b.tasks.Create(context.Background(), CreateTaskInput{Title: title})
	require.NoError(t, err)
	return task
}

func (b *board) column(t *testing.T, name string) *domain.Column {
	t.Helper()
	column, err := b.columns.Create(context.Background(), name, nil, nil)
	require.NoError(t, err)
	return column
}

func (b *board) user(t *testing.T, name string, wipLimit *int) *domain.User {
	t.Helper()
	user, err := b.users.CreateUser(context.Background(), name, name+"@example.com", wipLimit)
	require.NoError(t, err)
	return user
}

func intPtr(v int) *int {
	return &v
}

func idPtr(id uuid.UUID) *uuid.UUID {
	return &id
}

var errEmitterDown = errors.New("emitter down")
