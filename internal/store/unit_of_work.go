package store

import "context"

// Stores bundles every store bound to the same unit of work.
type Stores struct {
	Tasks    TaskStore
	SubTasks SubTaskStore
	Columns  ColumnStore
	Rows     RowStore
	Users    UserStore
	History  HistoryStore
	Labels   LabelIndex
}

// UnitOfWorkFn is the body of a unit of work.
type UnitOfWorkFn func(ctx context.Context, s Stores) error

// UnitOfWork runs a function atomically against the stores.
//
// If fn returns an error nothing it wrote is visible afterwards; otherwise all
// of its writes become visible together. Implementations never retry fn.
type UnitOfWork interface {
	Within(ctx context.Context, fn UnitOfWorkFn) error
}
