package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/kanban-api/internal/domain"
	"github.com/phrazzld/kanban-api/internal/platform/logger"
	"github.com/phrazzld/kanban-api/internal/store"
)

const subTaskSelect = `
	SELECT id, task_id, title, description, completed, position, created_at, updated_at
	FROM subtasks
`

// PostgresSubTaskStore implements the store.SubTaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresSubTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSubTaskStore creates a new PostgreSQL implementation of the SubTaskStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresSubTaskStore(db store.DBTX, logger *slog.Logger) *PostgresSubTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresSubTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "subtask_store")),
	}
}

// Ensure PostgresSubTaskStore implements store.SubTaskStore interface
var _ store.SubTaskStore = (*PostgresSubTaskStore)(nil)

// Create implements store.SubTaskStore.Create.
// Returns store.ErrInvalidEntity if the owning task does not exist (foreign key violation).
func (s *PostgresSubTaskStore) Create(ctx context.Context, sub *domain.SubTask) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := sub.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO subtasks (id, task_id, title, description, completed, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, sub.ID, nullUUID(sub.TaskID), sub.Title, sub.Description, sub.Completed, sub.Position,
		sub.CreatedAt, sub.UpdatedAt)
	if err != nil {
		log.Error("failed to create sub-task",
			slog.String("error", err.Error()),
			slog.String("subtask_id", sub.ID.String()))
		return MapError(err)
	}
	return nil
}

// GetByID implements store.SubTaskStore.GetByID.
func (s *PostgresSubTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.SubTask, error) {
	sub, err := scanSubTask(s.db.QueryRowContext(ctx, subTaskSelect+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrSubTaskNotFound
		}
		return nil, MapError(err)
	}
	return sub, nil
}

// ListByTask implements store.SubTaskStore.ListByTask.
func (s *PostgresSubTaskStore) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.SubTask, error) {
	rows, err := s.db.QueryContext(ctx,
		subTaskSelect+` WHERE task_id = $1 ORDER BY position ASC, id ASC`, taskID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	subs := make([]*domain.SubTask, 0)
	for rows.Next() {
		sub, err := scanSubTask(rows)
		if err != nil {
			return nil, MapError(err)
		}
		subs = append(subs, sub)
	}
	return subs, MapError(rows.Err())
}

// Update implements store.SubTaskStore.Update.
func (s *PostgresSubTaskStore) Update(ctx context.Context, sub *domain.SubTask) error {
	if err := sub.Validate(); err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE subtasks
		SET task_id = $1, title = $2, description = $3, completed = $4, position = $5, updated_at = $6
		WHERE id = $7
	`, nullUUID(sub.TaskID), sub.Title, sub.Description, sub.Completed, sub.Position, sub.UpdatedAt, sub.ID)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrSubTaskNotFound)
}

// Delete implements store.SubTaskStore.Delete.
func (s *PostgresSubTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM subtasks WHERE id = $1`, id)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrSubTaskNotFound)
}

// CountByTask implements store.SubTaskStore.CountByTask.
func (s *PostgresSubTaskStore) CountByTask(ctx context.Context, taskID uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM subtasks WHERE task_id = $1`, taskID).Scan(&n)
	return n, MapError(err)
}

// Count implements store.SubTaskStore.Count.
func (s *PostgresSubTaskStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM subtasks`).Scan(&n)
	return n, MapError(err)
}

func scanSubTask(row scanner) (*domain.SubTask, error) {
	var (
		sub    domain.SubTask
		taskID uuid.NullUUID
	)
	if err := row.Scan(&sub.ID, &taskID, &sub.Title, &sub.Description, &sub.Completed,
		&sub.Position, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
		return nil, err
	}
	if taskID.Valid {
		id := taskID.UUID
		sub.TaskID = &id
	}
	return &sub, nil
}
