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

// PostgresColumnStore implements the store.ColumnStore interface
// using a PostgreSQL database as the storage backend.
type PostgresColumnStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresColumnStore creates a new PostgreSQL implementation of the ColumnStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresColumnStore(db store.DBTX, logger *slog.Logger) *PostgresColumnStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresColumnStore{
		db:     db,
		logger: logger.With(slog.String("component", "column_store")),
	}
}

// Ensure PostgresColumnStore implements store.ColumnStore interface
var _ store.ColumnStore = (*PostgresColumnStore)(nil)

// Create implements store.ColumnStore.Create.
func (s *PostgresColumnStore) Create(ctx context.Context, column *domain.Column) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := column.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO board_columns (id, name, position, wip_limit, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, column.ID, column.Name, column.Position, nullInt(column.WipLimit), column.CreatedAt, column.UpdatedAt)
	if err != nil {
		log.Error("failed to create column",
			slog.String("error", err.Error()),
			slog.String("column_id", column.ID.String()))
		return MapError(err)
	}
	return nil
}

// GetByID implements store.ColumnStore.GetByID.
func (s *PostgresColumnStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Column, error) {
	var (
		column   domain.Column
		wipLimit sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, position, wip_limit, created_at, updated_at
		FROM board_columns
		WHERE id = $1
	`, id).Scan(&column.ID, &column.Name, &column.Position, &wipLimit, &column.CreatedAt, &column.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrColumnNotFound
		}
		return nil, MapError(err)
	}
	column.WipLimit = intPtr(wipLimit)
	return &column, nil
}

// List implements store.ColumnStore.List.
func (s *PostgresColumnStore) List(ctx context.Context) ([]*domain.Column, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, position, wip_limit, created_at, updated_at
		FROM board_columns
		ORDER BY position ASC, id ASC
	`)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	columns := make([]*domain.Column, 0)
	for rows.Next() {
		var (
			column   domain.Column
			wipLimit sql.NullInt64
		)
		if err := rows.Scan(&column.ID, &column.Name, &column.Position, &wipLimit,
			&column.CreatedAt, &column.UpdatedAt); err != nil {
			return nil, MapError(err)
		}
		column.WipLimit = intPtr(wipLimit)
		columns = append(columns, &column)
	}
	return columns, MapError(rows.Err())
}

// Update implements store.ColumnStore.Update.
func (s *PostgresColumnStore) Update(ctx context.Context, column *domain.Column) error {
	if err := column.Validate(); err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE board_columns
		SET name = $1, position = $2, wip_limit = $3, updated_at = $4
		WHERE id = $5
	`, column.Name, column.Position, nullInt(column.WipLimit), column.UpdatedAt, column.ID)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrColumnNotFound)
}

// Delete implements store.ColumnStore.Delete.
func (s *PostgresColumnStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM board_columns WHERE id = $1`, id)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrColumnNotFound)
}

// Exists implements store.ColumnStore.Exists.
func (s *PostgresColumnStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM board_columns WHERE id = $1)`, id).Scan(&exists)
	return exists, MapError(err)
}

// Count implements store.ColumnStore.Count.
func (s *PostgresColumnStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM board_columns`).Scan(&n)
	return n, MapError(err)
}
