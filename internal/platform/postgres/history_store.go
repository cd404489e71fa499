package postgres

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/kanban-api/internal/domain"
	"github.com/phrazzld/kanban-api/internal/platform/logger"
	"github.com/phrazzld/kanban-api/internal/store"
)

// PostgresHistoryStore implements the store.HistoryStore interface
// using a PostgreSQL database as the storage backend.
type PostgresHistoryStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresHistoryStore creates a new PostgreSQL implementation of the HistoryStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresHistoryStore(db store.DBTX, logger *slog.Logger) *PostgresHistoryStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresHistoryStore{
		db:     db,
		logger: logger.With(slog.String("component", "history_store")),
	}
}

// Ensure PostgresHistoryStore implements store.HistoryStore interface
var _ store.HistoryStore = (*PostgresHistoryStore)(nil)

// Append implements store.HistoryStore.Append.
// Seq comes from the BIGSERIAL column.
func (s *PostgresHistoryStore) Append(ctx context.Context, record *domain.TaskColumnHistory) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO task_column_history (id, task_id, column_id, column_name, changed_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING seq
	`, record.ID, record.TaskID, nullUUID(record.ColumnID), record.ColumnName, record.ChangedAt).Scan(&record.Seq)
	if err != nil {
		log.Error("failed to append column history",
			slog.String("error", err.Error()),
			slog.String("task_id", record.TaskID.String()))
		return MapError(err)
	}
	return nil
}

// ListByTask implements store.HistoryStore.ListByTask.
func (s *PostgresHistoryStore) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.TaskColumnHistory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, task_id, column_id, column_name, changed_at, seq
		FROM task_column_history
		WHERE task_id = $1
		ORDER BY changed_at DESC, seq DESC
	`, taskID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	records := make([]*domain.TaskColumnHistory, 0)
	for rows.Next() {
		var (
			rec      domain.TaskColumnHistory
			columnID uuid.NullUUID
		)
		if err := rows.Scan(&rec.ID, &rec.TaskID, &columnID, &rec.ColumnName, &rec.ChangedAt, &rec.Seq); err != nil {
			return nil, MapError(err)
		}
		if columnID.Valid {
			id := columnID.UUID
			rec.ColumnID = &id
		}
		rec.ChangedAt = rec.ChangedAt.UTC()
		records = append(records, &rec)
	}
	return records, MapError(rows.Err())
}

// DeleteByTask implements store.HistoryStore.DeleteByTask.
func (s *PostgresHistoryStore) DeleteByTask(ctx context.Context, taskID uuid.UUID) (int, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM task_column_history WHERE task_id = $1`, taskID)
	if err != nil {
		return 0, MapError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// PostgresLabelIndex implements store.LabelIndex over the task_labels table.
type PostgresLabelIndex struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresLabelIndex creates a new PostgreSQL implementation of the LabelIndex interface.
func NewPostgresLabelIndex(db store.DBTX, logger *slog.Logger) *PostgresLabelIndex {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresLabelIndex{
		db:     db,
		logger: logger.With(slog.String("component", "label_index")),
	}
}

// Ensure PostgresLabelIndex implements store.LabelIndex interface
var _ store.LabelIndex = (*PostgresLabelIndex)(nil)

// AllLabels implements store.LabelIndex.AllLabels.
func (s *PostgresLabelIndex) AllLabels(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT label COLLATE "C" AS label FROM task_labels ORDER BY 1`)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	labels := make([]string, 0)
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, MapError(err)
		}
		labels = append(labels, label)
	}
	return labels, MapError(rows.Err())
}
