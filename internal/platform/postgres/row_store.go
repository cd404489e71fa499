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

// PostgresRowStore implements the store.RowStore interface
// using a PostgreSQL database as the storage backend.
type PostgresRowStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresRowStore creates a new PostgreSQL implementation of the RowStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresRowStore(db store.DBTX, logger *slog.Logger) *PostgresRowStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresRowStore{
		db:     db,
		logger: logger.With(slog.String("component", "row_store")),
	}
}

// Ensure PostgresRowStore implements store.RowStore interface
var _ store.RowStore = (*PostgresRowStore)(nil)

// Create implements store.RowStore.Create.
func (s *PostgresRowStore) Create(ctx context.Context, row *domain.Row) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := row.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO board_rows (id, name, position, wip_limit, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, row.ID, row.Name, row.Position, nullInt(row.WipLimit), row.CreatedAt, row.UpdatedAt)
	if err != nil {
		log.Error("failed to create row",
			slog.String("error", err.Error()),
			slog.String("row_id", row.ID.String()))
		return MapError(err)
	}
	return nil
}

// GetByID implements store.RowStore.GetByID.
func (s *PostgresRowStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Row, error) {
	var (
		row      domain.Row
		wipLimit sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, position, wip_limit, created_at, updated_at
		FROM board_rows
		WHERE id = $1
	`, id).Scan(&row.ID, &row.Name, &row.Position, &wipLimit, &row.CreatedAt, &row.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrRowNotFound
		}
		return nil, MapError(err)
	}
	row.WipLimit = intPtr(wipLimit)
	return &row, nil
}

// List implements store.RowStore.List.
func (s *PostgresRowStore) List(ctx context.Context) ([]*domain.Row, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, position, wip_limit, created_at, updated_at
		FROM board_rows
		ORDER BY position ASC, id ASC
	`)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	result := make([]*domain.Row, 0)
	for rows.Next() {
		var (
			row      domain.Row
			wipLimit sql.NullInt64
		)
		if err := rows.Scan(&row.ID, &row.Name, &row.Position, &wipLimit,
			&row.CreatedAt, &row.UpdatedAt); err != nil {
			return nil, MapError(err)
		}
		row.WipLimit = intPtr(wipLimit)
		result = append(result, &row)
	}
	return result, MapError(rows.Err())
}

// Update implements store.RowStore.Update.
func (s *PostgresRowStore) Update(ctx context.Context, row *domain.Row) error {
	if err := row.Validate(); err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE board_rows
		SET name = $1, position = $2, wip_limit = $3, updated_at = $4
		WHERE id = $5
	`, row.Name, row.Position, nullInt(row.WipLimit), row.UpdatedAt, row.ID)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrRowNotFound)
}

// Delete implements store.RowStore.Delete.
func (s *PostgresRowStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM board_rows WHERE id = $1`, id)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrRowNotFound)
}

// Exists implements store.RowStore.Exists.
func (s *PostgresRowStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM board_rows WHERE id = $1)`, id).Scan(&exists)
	return exists, MapError(err)
}

// Count implements store.RowStore.Count.
func (s *PostgresRowStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM board_rows`).Scan(&n)
	return n, MapError(err)
}
