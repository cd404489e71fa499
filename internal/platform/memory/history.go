package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/kanban-api/internal/domain"
	"github.com/phrazzld/kanban-api/internal/store"
)

type historyStore struct {
	s *state
}

var _ store.HistoryStore = (*historyStore)(nil)

func (hs *historyStore) Append(ctx context.Context, record *domain.TaskColumnHistory) error {
	if _, ok := hs.s.tasks[record.TaskID]; !ok {
		return fmt.Errorf("%w: task %s not found", store.ErrInvalidEntity, record.TaskID)
	}
	hs.s.seq++
	record.Seq = hs.s.seq
	stored := *record
	hs.s.history[record.TaskID] = append(hs.s.history[record.TaskID], &stored)
	return nil
}

func (hs *historyStore) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.TaskColumnHistory, error) {
	records := hs.s.history[taskID]
	out := make([]*domain.TaskColumnHistory, 0, len(records))
	for _, rec := range records {
		c := *rec
		out = append(out, &c)
	}
	domain.SortHistoryNewestFirst(out)
	return out, nil
}

func (hs *historyStore) DeleteByTask(ctx context.Context, taskID uuid.UUID) (int, error) {
	n := len(hs.s.history[taskID])
	delete(hs.s.history, taskID)
	return n, nil
}
