package service

import (
	"context"
	"time"

	"github.com/phrazzld/kanban-api/internal/domain"
	"github.com/phrazzld/kanban-api/internal/store"
)

// HistoryRecorder appends a column history record whenever a task enters a
// column. The column name is captured at call time; the store assigns the
// sequence number that orders records sharing a timestamp.
type HistoryRecorder struct {
	now func() time.Time
}

// NewHistoryRecorder creates a HistoryRecorder. A nil clock means time.Now.
func NewHistoryRecorder(now func() time.Time) *HistoryRecorder {
	if now == nil {
		now = time.Now
	}
	return &HistoryRecorder{now: now}
}

// Append records that task is now in column. It must be called after the
// task's new column has been written in the same unit of work.
func (r *HistoryRecorder) Append(
	ctx context.Context,
	history store.HistoryStore,
	task *domain.Task,
	column *domain.Column,
) (*domain.TaskColumnHistory, error) {
	record := domain.NewTaskColumnHistory(task.ID, column, r.now())
	if err := history.Append(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}
