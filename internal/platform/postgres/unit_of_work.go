package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/phrazzld/kanban-api/internal/store"
)

// NewStores binds every PostgreSQL store to the same connection or transaction.
func NewStores(db store.DBTX, logger *slog.Logger) store.Stores {
	return store.Stores{
		Tasks:    NewPostgresTaskStore(db, logger),
		SubTasks: NewPostgresSubTaskStore(db, logger),
		Columns:  NewPostgresColumnStore(db, logger),
		Rows:     NewPostgresRowStore(db, logger),
		Users:    NewPostgresUserStore(db, logger),
		History:  NewPostgresHistoryStore(db, logger),
		Labels:   NewPostgresLabelIndex(db, logger),
	}
}

// UnitOfWork runs each unit of work in its own database transaction.
type UnitOfWork struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewUnitOfWork creates a UnitOfWork over the connection pool.
// If logger is nil, a default logger will be used.
func NewUnitOfWork(db *sql.DB, logger *slog.Logger) *UnitOfWork {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UnitOfWork{db: db, logger: logger}
}

// Ensure UnitOfWork implements store.UnitOfWork interface
var _ store.UnitOfWork = (*UnitOfWork)(nil)

// Within implements store.UnitOfWork.Within.
func (u *UnitOfWork) Within(ctx context.Context, fn store.UnitOfWorkFn) error {
	return store.RunInTransaction(ctx, u.db, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, NewStores(tx, u.logger))
	})
}
