package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/kanban-api/internal/domain"
)

// HistoryStore persists the append-only task column history.
// Records are never updated; they are only removed together with their task.
type HistoryStore interface {
	// Append inserts a record and assigns its Seq, which increases monotonically.
	Append(ctx context.Context, record *domain.TaskColumnHistory) error

	// ListByTask returns the records of a task newest-first
	// (changed_at descending, then Seq descending).
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.TaskColumnHistory, error)

	// DeleteByTask removes every record of a task and returns how many were removed.
	DeleteByTask(ctx context.Context, taskID uuid.UUID) (int, error)
}
