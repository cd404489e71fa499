package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/kanban-api/internal/api/shared"
	"github.com/phrazzld/kanban-api/internal/domain"
	"github.com/phrazzld/kanban-api/internal/service"
)

// laneService is the shape shared by ColumnService and RowService.
type laneService[T any] interface {
	Create(ctx context.Context, name string, position, wipLimit *int) (T, error)
	Get(ctx context.Context, id uuid.UUID) (T, error)
	List(ctx context.Context) ([]T, error)
	Update(ctx context.Context, id uuid.UUID, patch service.BoardLanePatch) (T, error)
	UpdatePosition(ctx context.Context, id uuid.UUID, position int) (T, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// LaneHandler serves the CRUD endpoints of one board axis (columns or rows).
type LaneHandler[T any] struct {
	lanes  laneService[T]
	noun   string
	logger *slog.Logger
}

// NewColumnHandler creates a handler for /columns.
func NewColumnHandler(columns service.ColumnService, logger *slog.Logger) *LaneHandler[*domain.Column] {
	return newLaneHandler[*domain.Column](columns, "column", logger)
}

// NewRowHandler creates a handler for /rows.
func NewRowHandler(rows service.RowService, logger *slog.Logger) *LaneHandler[*domain.Row] {
	return newLaneHandler[*domain.Row](rows, "row", logger)
}

func newLaneHandler[T any](lanes laneService[T], noun string, logger *slog.Logger) *LaneHandler[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &LaneHandler[T]{
		lanes:  lanes,
		noun:   noun,
		logger: logger.With(slog.String("component", noun+"_handler")),
	}
}

// Routes registers the lane endpoints on r, which is already mounted at
// the collection path.
func (h *LaneHandler[T]) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.Put("/{id}/position", h.UpdatePosition)
	r.Delete("/{id}", h.Delete)
}

// Create handles POST.
func (h *LaneHandler[T]) Create(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r, h.logger)

	var req CreateLaneRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	lane, err := h.lanes.Create(r.Context(), req.Name, req.Position, req.WipLimit)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create "+h.noun)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, lane)
}

// List handles GET on the collection.
func (h *LaneHandler[T]) List(w http.ResponseWriter, r *http.Request) {
	lanes, err := h.lanes.List(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list "+h.noun+"s")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, nonNil(lanes))
}

// Get handles GET /{id}.
func (h *LaneHandler[T]) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", requestLogger(r, h.logger))
	if !ok {
		return
	}

	lane, err := h.lanes.Get(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get "+h.noun)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, lane)
}

// Update handles PATCH /{id}.
func (h *LaneHandler[T]) Update(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r, h.logger)
	id, ok := pathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req PatchLaneRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	lane, err := h.lanes.Update(r.Context(), id, service.BoardLanePatch{
		Name:          req.Name,
		WipLimit:      req.WipLimit,
		ClearWipLimit: req.ClearWipLimit,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update "+h.noun)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, lane)
}

// UpdatePosition handles PUT /{id}/position.
func (h *LaneHandler[T]) UpdatePosition(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r, h.logger)
	id, ok := pathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req PositionRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	lane, err := h.lanes.UpdatePosition(r.Context(), id, *req.Position)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update "+h.noun+" position")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, lane)
}

// Delete handles DELETE /{id}.
func (h *LaneHandler[T]) Delete(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r, h.logger)
	id, ok := pathUUID(w, r, "id", log)
	if !ok {
		return
	}

	if err := h.lanes.Delete(r.Context(), id); err != nil {
		HandleAPIError(w, r, err, "Failed to delete "+h.noun)
		return
	}

	log.Debug(h.noun+" deleted", slog.String("id", id.String()))
	shared.RespondNoContent(w)
}
