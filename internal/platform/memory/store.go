package memory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/kanban-api/internal/domain"
	"github.com/phrazzld/kanban-api/internal/platform/logger"
	"github.com/phrazzld/kanban-api/internal/store"
)

// state is one consistent snapshot of every entity.
type state struct {
	tasks    map[uuid.UUID]*domain.Task
	subTasks map[uuid.UUID]*domain.SubTask
	columns  map[uuid.UUID]*domain.Column
	rows     map[uuid.UUID]*domain.Row
	users    map[uuid.UUID]*domain.User
	history  map[uuid.UUID][]*domain.TaskColumnHistory
	seq      int64
}

func newState() *state {
	return &state{
		tasks:    make(map[uuid.UUID]*domain.Task),
		subTasks: make(map[uuid.UUID]*domain.SubTask),
		columns:  make(map[uuid.UUID]*domain.Column),
		rows:     make(map[uuid.UUID]*domain.Row),
		users:    make(map[uuid.UUID]*domain.User),
		history:  make(map[uuid.UUID][]*domain.TaskColumnHistory),
	}
}

// clone deep-copies the mutable entities. History records are immutable once
// appended, so the per-task slices are copied but the records are shared.
func (s *state) clone() *state {
	c := newState()
	c.seq = s.seq
	for id, t := range s.tasks {
		c.tasks[id] = t.Clone()
	}
	for id, st := range s.subTasks {
		c.subTasks[id] = st.Clone()
	}
	for id, col := range s.columns {
		c.columns[id] = col.Clone()
	}
	for id, r := range s.rows {
		c.rows[id] = r.Clone()
	}
	for id, u := range s.users {
		c.users[id] = u.Clone()
	}
	for id, records := range s.history {
		c.history[id] = append([]*domain.TaskColumnHistory(nil), records...)
	}
	return c
}

func (s *state) stores() store.Stores {
	return store.Stores{
		Tasks:    &taskStore{s: s},
		SubTasks: &subTaskStore{s: s},
		Columns:  &columnStore{s: s},
		Rows:     &rowStore{s: s},
		Users:    &userStore{s: s},
		History:  &historyStore{s: s},
		Labels:   &labelIndex{s: s},
	}
}

// Store is the in-memory unit of work. Units of work are serialized.
type Store struct {
	mu     sync.Mutex
	state  *state
	logger *slog.Logger
}

// NewStore creates an empty in-memory store.
// If logger is nil, a default logger will be used.
func NewStore(log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		state:  newState(),
		logger: log.With(slog.String("component", "memory_store")),
	}
}

// Ensure Store implements store.UnitOfWork interface
var _ store.UnitOfWork = (*Store)(nil)

// Within implements store.UnitOfWork.Within.
func (m *Store) Within(ctx context.Context, fn store.UnitOfWorkFn) error {
	log := logger.FromContextOrDefault(ctx, m.logger)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	work := m.state.clone()
	if err := fn(ctx, work.stores()); err != nil {
		log.Debug("discarded unit of work", slog.String("error", err.Error()))
		return err
	}

	m.state = work
	return nil
}
