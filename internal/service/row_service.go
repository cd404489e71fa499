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

// RowService manages board rows (swimlanes).
type RowService interface {
	// Create adds a row. A nil position defaults to the row count + 1.
	Create(ctx context.Context, name string, position, wipLimit *int) (*domain.Row, error)

	// Get returns one row.
	Get(ctx context.Context, id uuid.UUID) (*domain.Row, error)

	// List returns all rows by position, ties broken by id.
	List(ctx context.Context) ([]*domain.Row, error)

	// Update changes the row's name and WIP limit.
	Update(ctx context.Context, id uuid.UUID, patch BoardLanePatch) (*domain.Row, error)

	// UpdatePosition overwrites the row's position.
	UpdatePosition(ctx context.Context, id uuid.UUID, position int) (*domain.Row, error)

	// Delete removes the row. Its tasks lose their row reference.
	Delete(ctx context.Context, id uuid.UUID) error
}

// rowServiceImpl implements the RowService interface
type rowServiceImpl struct {
	*runner
}

// NewRowService creates a new RowService.
// It returns an error if the unit of work is nil.
func NewRowService(
	uow store.UnitOfWork,
	emitter events.EventEmitter,
	logger *slog.Logger,
) (RowService, error) {
	r, err := newRunner("row", uow, emitter, logger)
	if err != nil {
		return nil, err
	}
	return &rowServiceImpl{runner: r}, nil
}

// Ensure rowServiceImpl implements RowService interface
var _ RowService = (*rowServiceImpl)(nil)

// Create implements RowService.Create.
func (s *rowServiceImpl) Create(
	ctx context.Context,
	name string,
	position, wipLimit *int,
) (*domain.Row, error) {
	var created *domain.Row
	err := s.within(ctx, "create", func(ctx context.Context, st store.Stores, emit emitFn) error {
		row, err := domain.NewRow(name, wipLimit)
		if err != nil {
			return err
		}
		if position != nil {
			row.Position = *position
		} else {
			count, err := st.Rows.Count(ctx)
			if err != nil {
				return err
			}
			row.Position = count + 1
		}
		if err := st.Rows.Create(ctx, row); err != nil {
			return err
		}
		created = row
		emit(rowEvent("created", row))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Get implements RowService.Get.
func (s *rowServiceImpl) Get(ctx context.Context, id uuid.UUID) (*domain.Row, error) {
	var row *domain.Row
	err := s.within(ctx, "get", func(ctx context.Context, st store.Stores, _ emitFn) error {
		var err error
		row, err = st.Rows.GetByID(ctx, id)
		return err
	})
	return row, err
}

// List implements RowService.List.
func (s *rowServiceImpl) List(ctx context.Context) ([]*domain.Row, error) {
	var rows []*domain.Row
	err := s.within(ctx, "list", func(ctx context.Context, st store.Stores, _ emitFn) error {
		var err error
		if rows, err = st.Rows.List(ctx); err != nil {
			return err
		}
		domain.SortRows(rows)
		return nil
	})
	return rows, err
}

// Update implements RowService.Update.
func (s *rowServiceImpl) Update(
	ctx context.Context,
	id uuid.UUID,
	patch BoardLanePatch,
) (*domain.Row, error) {
	return s.mutate(ctx, "update", id, func(row *domain.Row) {
		if patch.Name != nil {
			row.Name = *patch.Name
		}
		row.WipLimit = patchedWipLimit(row.WipLimit, patch)
	})
}

// UpdatePosition implements RowService.UpdatePosition.
func (s *rowServiceImpl) UpdatePosition(ctx context.Context, id uuid.UUID, position int) (*domain.Row, error) {
	return s.mutate(ctx, "update_position", id, func(row *domain.Row) {
		row.Position = position
	})
}

// mutate loads a row, applies change, validates and persists it.
func (s *rowServiceImpl) mutate(
	ctx context.Context,
	operation string,
	id uuid.UUID,
	change func(row *domain.Row),
) (*domain.Row, error) {
	var updated *domain.Row
	err := s.within(ctx, operation, func(ctx context.Context, st store.Stores, emit emitFn) error {
		row, err := st.Rows.GetByID(ctx, id)
		if err != nil {
			return err
		}
		change(row)
		if err := row.Validate(); err != nil {
			return err
		}
		row.UpdatedAt = time.Now().UTC()
		if err := st.Rows.Update(ctx, row); err != nil {
			return err
		}
		updated = row
		emit(rowEvent("updated", row))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete implements RowService.Delete.
func (s *rowServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return s.within(ctx, "delete", func(ctx context.Context, st store.Stores, emit emitFn) error {
		if err := st.Rows.Delete(ctx, id); err != nil {
			return err
		}
		emit(pendingEvent{
			eventType: events.RowChanged,
			entityID:  id,
			payload:   map[string]string{"action": "deleted"},
		})
		return nil
	})
}

func rowEvent(action string, row *domain.Row) pendingEvent {
	return pendingEvent{
		eventType: events.RowChanged,
		entityID:  row.ID,
		payload:   map[string]any{"action": action, "row": row},
	}
}
