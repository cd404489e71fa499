package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/kanban-api/internal/domain"
	"github.com/phrazzld/kanban-api/internal/store"
)

type columnStore struct {
	s *state
}

var _ store.ColumnStore = (*columnStore)(nil)

func (cs *columnStore) Create(ctx context.Context, column *domain.Column) error {
	if err := column.Validate(); err != nil {
		return err
	}
	if _, exists := cs.s.columns[column.ID]; exists {
		return fmt.Errorf("%w: column %s", store.ErrDuplicate, column.ID)
	}
	cs.s.columns[column.ID] = column.Clone()
	return nil
}

func (cs *columnStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Column, error) {
	column, ok := cs.s.columns[id]
	if !ok {
		return nil, store.ErrColumnNotFound
	}
	return column.Clone(), nil
}

func (cs *columnStore) List(ctx context.Context) ([]*domain.Column, error) {
	columns := make([]*domain.Column, 0, len(cs.s.columns))
	for _, column := range cs.s.columns {
		columns = append(columns, column.Clone())
	}
	domain.SortColumns(columns)
	return columns, nil
}

func (cs *columnStore) Update(ctx context.Context, column *domain.Column) error {
	if _, ok := cs.s.columns[column.ID]; !ok {
		return store.ErrColumnNotFound
	}
	if err := column.Validate(); err != nil {
		return err
	}
	cs.s.columns[column.ID] = column.Clone()
	return nil
}

// Delete removes the column. Tasks lose the reference; history rows keep
// their name snapshot but drop the column id.
func (cs *columnStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := cs.s.columns[id]; !ok {
		return store.ErrColumnNotFound
	}
	delete(cs.s.columns, id)
	for _, t := range cs.s.tasks {
		if t.Column != nil && t.Column.ID == id {
			t.Column = nil
		}
	}
	for taskID, records := range cs.s.history {
		for i, rec := range records {
			if rec.ColumnID != nil && *rec.ColumnID == id {
				detached := *rec
				detached.ColumnID = nil
				records[i] = &detached
			}
		}
		cs.s.history[taskID] = records
	}
	return nil
}

func (cs *columnStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, ok := cs.s.columns[id]
	return ok, nil
}

func (cs *columnStore) Count(ctx context.Context) (int, error) {
	return len(cs.s.columns), nil
}

type rowStore struct {
	s *state
}

var _ store.RowStore = (*rowStore)(nil)

func (rs *rowStore) Create(ctx context.Context, row *domain.Row) error {
	if err := row.Validate(); err != nil {
		return err
	}
	if _, exists := rs.s.rows[row.ID]; exists {
		return fmt.Errorf("%w: row %s", store.ErrDuplicate, row.ID)
	}
	rs.s.rows[row.ID] = row.Clone()
	return nil
}

func (rs *rowStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Row, error) {
	row, ok := rs.s.rows[id]
	if !ok {
		return nil, store.ErrRowNotFound
	}
	return row.Clone(), nil
}

func (rs *rowStore) List(ctx context.Context) ([]*domain.Row, error) {
	rows := make([]*domain.Row, 0, len(rs.s.rows))
	for _, row := range rs.s.rows {
		rows = append(rows, row.Clone())
	}
	domain.SortRows(rows)
	return rows, nil
}

func (rs *rowStore) Update(ctx context.Context, row *domain.Row) error {
	if _, ok := rs.s.rows[row.ID]; !ok {
		return store.ErrRowNotFound
	}
	if err := row.Validate(); err != nil {
		return err
	}
	rs.s.rows[row.ID] = row.Clone()
	return nil
}

func (rs *rowStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := rs.s.rows[id]; !ok {
		return store.ErrRowNotFound
	}
	delete(rs.s.rows, id)
	for _, t := range rs.s.tasks {
		if t.Row != nil && t.Row.ID == id {
			t.Row = nil
		}
	}
	return nil
}

func (rs *rowStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, ok := rs.s.rows[id]
	return ok, nil
}

func (rs *rowStore) Count(ctx context.Context) (int, error) {
	return len(rs.s.rows), nil
}
