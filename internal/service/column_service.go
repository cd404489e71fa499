package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/kanban-api/internal/domain"
	"github.com/phrazzld/kanban-api/internal/events"
	"github.com/phrazzld/kanban-api/internal/store"
)

// BoardLanePatch is a partial update of a column or row.
// ClearWipLimit removes the limit and takes precedence over WipLimit.
type BoardLanePatch struct {
	Name          *string
	WipLimit      *int
	ClearWipLimit bool
}

// ColumnService manages board columns.
type ColumnService interface {
	// Create adds a column. A nil position defaults to the column count + 1.
	Create(ctx context.Context, name string, position, wipLimit *int) (*domain.Column, error)

	// Get returns one column.
	Get(ctx context.Context, id uuid.UUID) (*domain.Column, error)

	// List returns all columns by position, ties broken by id.
	List(ctx context.Context) ([]*domain.Column, error)

	// Update changes the column's name and WIP limit.
	Update(ctx context.Context, id uuid.UUID, patch BoardLanePatch) (*domain.Column, error)

	// UpdatePosition overwrites the column's position.
	UpdatePosition(ctx context.Context, id uuid.UUID, position int) (*domain.Column, error)

	// Delete removes the column. Its tasks lose their column reference.
	Delete(ctx context.Context, id uuid.UUID) error
}

// columnServiceImpl implements the ColumnService interface
type columnServiceImpl struct {
	*runner
}

// NewColumnService creates a new ColumnService.
// It returns an error if the unit of work is nil.
func NewColumnService(
	uow store.UnitOfWork,
	emitter events.EventEmitter,
	logger *slog.Logger,
) (ColumnService, error) {
	r, err := newRunner("column", uow, emitter, logger)
	if err != nil {
		return nil, err
	}
	return &columnServiceImpl{runner: r}, nil
}

// Ensure columnServiceImpl implements ColumnService interface
var _ ColumnService = (*columnServiceImpl)(nil)

// Create implements ColumnService.Create.
func (s *columnServiceImpl) Create(
	ctx context.Context,
	name string,
	position, wipLimit *int,
) (*domain.Column, error) {
	var created *domain.Column
	err := s.within(ctx, "create", func(ctx context.Context, st store.Stores, emit emitFn) error {
		column, err := domain.NewColumn(name, wipLimit)
		if err != nil {
			return err
		}
		if position != nil {
			column.Position = *position
		} else {
			count, err := st.Columns.Count(ctx)
			if err != nil {
				return err
			}
			column.Position = count + 1
		}
		if err := st.Columns.Create(ctx, column); err != nil {
			return err
		}
		created = column
		emit(columnEvent("created", column))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Get implements ColumnService.Get.
func (s *columnServiceImpl) Get(ctx context.Context, id uuid.UUID) (*domain.Column, error) {
	var column *domain.Column
	err := s.within(ctx, "get", func(ctx context.Context, st store.Stores, _ emitFn) error {
		var err error
		column, err = st.Columns.GetByID(ctx, id)
		return err
	})
	return column, err
}

// List implements ColumnService.List.
func (s *columnServiceImpl) List(ctx context.Context) ([]*domain.Column, error) {
	var columns []*domain.Column
	err := s.within(ctx, "list", func(ctx context.Context, st store.Stores, _ emitFn) error {
		var err error
		if columns, err = st.Columns.List(ctx); err != nil {
			return err
		}
		domain.SortColumns(columns)
		return nil
	})
	return columns, err
}

// Update implements ColumnService.Update.
func (s *columnServiceImpl) Update(
	ctx context.Context,
	id uuid.UUID,
	patch BoardLanePatch,
) (*domain.Column, error) {
	return s.mutate(ctx, "update", id, func(column *domain.Column) {
		if patch.Name != nil {
			column.Name = *patch.Name
		}
		column.WipLimit = patchedWipLimit(column.WipLimit, patch)
	})
}

// UpdatePosition implements ColumnService.UpdatePosition.
func (s *columnServiceImpl) UpdatePosition(ctx context.Context, id uuid.UUID, position int) (*domain.Column, error) {
	return s.mutate(ctx, "update_position", id, func(column *domain.Column) {
		column.Position = position
	})
}

// mutate loads a column, applies change, validates and persists it.
func (s *columnServiceImpl) mutate(
	ctx context.Context,
	operation string,
	id uuid.UUID,
	change func(column *domain.Column),
) (*domain.Column, error) {
	var updated *domain.Column
	err := s.within(ctx, operation, func(ctx context.Context, st store.Stores, emit emitFn) error {
		column, err := st.Columns.GetByID(ctx, id)
		if err != nil {
			return err
		}
		change(column)
		if err := column.Validate(); err != nil {
			return err
		}
		column.UpdatedAt = time.Now().UTC()
		if err := st.Columns.Update(ctx, column); err != nil {
			return err
		}
		updated = column
		emit(columnEvent("updated", column))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete implements ColumnService.Delete.
func (s *columnServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return s.within(ctx, "delete", func(ctx context.Context, st store.Stores, emit emitFn) error {
		if err := st.Columns.Delete(ctx, id); err != nil {
			return err
		}
		emit(pendingEvent{
			eventType: events.ColumnChanged,
			entityID:  id,
			payload:   map[string]string{"action": "deleted"},
		})
		return nil
	})
}

func columnEvent(action string, column *domain.Column) pendingEvent {
	return pendingEvent{
		eventType: events.ColumnChanged,
		entityID:  column.ID,
		payload:   map[string]any{"action": action, "column": column},
	}
}

// patchedWipLimit returns the WIP limit after applying patch to current.
func patchedWipLimit(current *int, patch BoardLanePatch) *int {
	switch {
	case patch.ClearWipLimit:
		return nil
	case patch.WipLimit != nil:
		limit := *patch.WipLimit
		return &limit
	default:
		return current
	}
}
