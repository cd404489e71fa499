package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/kanban-api/internal/domain"
	"github.com/phrazzld/kanban-api/internal/platform/logger"
	"github.com/phrazzld/kanban-api/internal/store"
)

// taskSelect reads a task together with the names of its column and row.
const taskSelect = `
	SELECT t.id, t.title, t.description, t.position, t.completed,
	       t.column_id, c.name, t.row_id, r.name, t.parent_id,
	       t.deadline, t.expired, t.version, t.created_at, t.updated_at
	FROM tasks t
	LEFT JOIN board_columns c ON c.id = t.column_id
	LEFT JOIN board_rows r ON r.id = t.row_id
`

const taskOrder = ` ORDER BY t.position ASC, t.id ASC`

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
//
// Labels and assignments live in join tables and are rewritten on every
// Update. ChildIDs is read from the parent_id column of other tasks.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// Create implements store.TaskStore.Create.
// Returns store.ErrInvalidEntity if a referenced column, row, parent or user does not exist.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	query := `
		INSERT INTO tasks (id, title, description, position, completed, column_id, row_id,
		                   parent_id, deadline, expired, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.db.ExecContext(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.Position,
		task.Completed,
		nullUUID(task.ColumnID()),
		nullUUID(task.RowID()),
		nullUUID(task.ParentID),
		nullTime(task.Deadline),
		task.Expired,
		task.Version,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return MapError(err)
	}

	if err := s.writeLabels(ctx, task); err != nil {
		return err
	}
	if err := s.writeAssignees(ctx, task); err != nil {
		return err
	}

	log.Debug("task created", slog.String("task_id", task.ID.String()))
	return nil
}

// GetByID implements store.TaskStore.GetByID.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	row := s.db.QueryRowContext(ctx, taskSelect+` WHERE t.id = $1`, id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found", slog.String("task_id", id.String()))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task by ID",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, MapError(err)
	}

	if err := s.loadRelations(ctx, []*domain.Task{task}); err != nil {
		return nil, err
	}
	return task, nil
}

// List implements store.TaskStore.List.
func (s *PostgresTaskStore) List(ctx context.Context) ([]*domain.Task, error) {
	return s.query(ctx, taskSelect+taskOrder)
}

// ListWithDeadline implements store.TaskStore.ListWithDeadline.
func (s *PostgresTaskStore) ListWithDeadline(ctx context.Context) ([]*domain.Task, error) {
	return s.query(ctx, taskSelect+` WHERE t.deadline IS NOT NULL`+taskOrder)
}

// ListChildren implements store.TaskStore.ListChildren.
func (s *PostgresTaskStore) ListChildren(ctx context.Context, parentID uuid.UUID) ([]*domain.Task, error) {
	return s.query(ctx, taskSelect+` WHERE t.parent_id = $1`+taskOrder, parentID)
}

// Update implements store.TaskStore.Update.
// The row is only written if its version still matches task.Version.
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during update",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	query := `
		UPDATE tasks
		SET title = $1, description = $2, position = $3, completed = $4, column_id = $5,
		    row_id = $6, parent_id = $7, deadline = $8, expired = $9, updated_at = $10,
		    version = version + 1
		WHERE id = $11 AND version = $12
	`
	result, err := s.db.ExecContext(ctx, query,
		task.Title,
		task.Description,
		task.Position,
		task.Completed,
		nullUUID(task.ColumnID()),
		nullUUID(task.RowID()),
		nullUUID(task.ParentID),
		nullTime(task.Deadline),
		task.Expired,
		task.UpdatedAt,
		task.ID,
		task.Version,
	)
	if err != nil {
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, nil); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		// Tell a missing row apart from a stale version.
		var exists bool
		if err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM tasks WHERE id = $1)`, task.ID).Scan(&exists); err != nil {
			return MapError(err)
		}
		if !exists {
			return store.ErrTaskNotFound
		}
		log.Warn("stale task version",
			slog.String("task_id", task.ID.String()),
			slog.Int("version", task.Version))
		return store.NewStoreError("task", "update", "stale version", store.ErrConflict)
	}
	task.Version++

	if _, err := s.db.ExecContext(ctx, `DELETE FROM task_labels WHERE task_id = $1`, task.ID); err != nil {
		return MapError(err)
	}
	if err := s.writeLabels(ctx, task); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM task_assignees WHERE task_id = $1`, task.ID); err != nil {
		return MapError(err)
	}
	return s.writeAssignees(ctx, task)
}

// Delete implements store.TaskStore.Delete.
// Sub-tasks, history, labels and assignments are removed by the schema's cascades.
func (s *PostgresTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// Count implements store.TaskStore.Count.
func (s *PostgresTaskStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks`).Scan(&n); err != nil {
		return 0, MapError(err)
	}
	return n, nil
}

func (s *PostgresTaskStore) query(ctx context.Context, query string, args ...any) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query tasks", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, MapError(err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	if err := s.loadRelations(ctx, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *PostgresTaskStore) writeLabels(ctx context.Context, task *domain.Task) error {
	for _, label := range task.Labels {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO task_labels (task_id, label) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			task.ID, label); err != nil {
			return MapError(err)
		}
	}
	return nil
}

func (s *PostgresTaskStore) writeAssignees(ctx context.Context, task *domain.Task) error {
	for _, userID := range task.AssignedUserIDs {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO task_assignees (task_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			task.ID, userID); err != nil {
			return fmt.Errorf("assign user %s: %w", userID, MapError(err))
		}
	}
	return nil
}

// loadRelations fills labels, assigned users and children for a batch of tasks.
func (s *PostgresTaskStore) loadRelations(ctx context.Context, tasks []*domain.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*domain.Task, len(tasks))
	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
		ids = append(ids, t.ID.String())
	}

	err := s.eachPair(ctx,
		`SELECT task_id, label FROM task_labels WHERE task_id = ANY($1::uuid[]) ORDER BY label`,
		ids, func(taskID uuid.UUID, value string) error {
			t := byID[taskID]
			t.Labels = append(t.Labels, value)
			return nil
		})
	if err != nil {
		return err
	}

	err = s.eachPair(ctx,
		`SELECT task_id, user_id::text FROM task_assignees WHERE task_id = ANY($1::uuid[]) ORDER BY user_id`,
		ids, func(taskID uuid.UUID, value string) error {
			userID, err := uuid.Parse(value)
			if err != nil {
				return err
			}
			t := byID[taskID]
			t.AssignedUserIDs = append(t.AssignedUserIDs, userID)
			return nil
		})
	if err != nil {
		return err
	}

	return s.eachPair(ctx,
		`SELECT parent_id, id::text FROM tasks WHERE parent_id = ANY($1::uuid[]) ORDER BY id`,
		ids, func(parentID uuid.UUID, value string) error {
			childID, err := uuid.Parse(value)
			if err != nil {
				return err
			}
			t := byID[parentID]
			t.ChildIDs = append(t.ChildIDs, childID)
			return nil
		})
}

func (s *PostgresTaskStore) eachPair(
	ctx context.Context,
	query string,
	ids []string,
	fn func(id uuid.UUID, value string) error,
) error {
	rows, err := s.db.QueryContext(ctx, query, ids)
	if err != nil {
		return MapError(err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var id uuid.UUID
		var value string
		if err := rows.Scan(&id, &value); err != nil {
			return MapError(err)
		}
		if err := fn(id, value); err != nil {
			return err
		}
	}
	return rows.Err()
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (*domain.Task, error) {
	var (
		task       domain.Task
		columnID   uuid.NullUUID
		columnName sql.NullString
		rowID      uuid.NullUUID
		rowName    sql.NullString
		parentID   uuid.NullUUID
		deadline   sql.NullTime
	)
	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.Position,
		&task.Completed,
		&columnID,
		&columnName,
		&rowID,
		&rowName,
		&parentID,
		&deadline,
		&task.Expired,
		&task.Version,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if columnID.Valid {
		task.Column = &domain.ColumnRef{ID: columnID.UUID, Name: columnName.String}
	}
	if rowID.Valid {
		task.Row = &domain.RowRef{ID: rowID.UUID, Name: rowName.String}
	}
	if parentID.Valid {
		p := parentID.UUID
		task.ParentID = &p
	}
	if deadline.Valid {
		d := deadline.Time.UTC()
		task.Deadline = &d
	}
	task.Labels = []string{}
	task.AssignedUserIDs = []uuid.UUID{}
	task.ChildIDs = []uuid.UUID{}
	return &task, nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}
