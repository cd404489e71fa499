package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/kanban-api/internal/api/shared"
	"github.com/phrazzld/kanban-api/internal/service"
)

// SubTaskHandler handles sub-task HTTP requests.
type SubTaskHandler struct {
	subTasks service.SubTaskService
	logger   *slog.Logger
}

// NewSubTaskHandler creates a new SubTaskHandler.
func NewSubTaskHandler(subTasks service.SubTaskService, logger *slog.Logger) *SubTaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubTaskHandler{
		subTasks: subTasks,
		logger:   logger.With(slog.String("component", "subtask_handler")),
	}
}

// Routes registers the sub-task endpoints on r.
func (h *SubTaskHandler) Routes(r chi.Router) {
	r.Post("/tasks/{id}/subtasks", h.CreateForTask)
	r.Get("/tasks/{id}/subtasks", h.ListByTask)

	r.Post("/subtasks", h.CreateStandalone)
	r.Get("/subtasks/{id}", h.Get)
	r.Patch("/subtasks/{id}", h.Update)
	r.Put("/subtasks/{id}/completion", h.SetCompletion)
	r.Put("/subtasks/{id}/task", h.AttachToTask)
	r.Delete("/subtasks/{id}", h.Delete)
}

// CreateForTask handles POST /tasks/{id}/subtasks.
func (h *SubTaskHandler) CreateForTask(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r, h.logger)
	taskID, ok := pathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req CreateSubTaskRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	h.create(w, r, service.CreateSubTaskInput{
		TaskID:      &taskID,
		Title:       req.Title,
		Description: req.Description,
		Position:    req.Position,
	})
}

// CreateStandalone handles POST /subtasks.
func (h *SubTaskHandler) CreateStandalone(w http.ResponseWriter, r *http.Request) {
	var req CreateStandaloneSubTaskRequest
	if !decodeAndValidate(w, r, &req, requestLogger(r, h.logger)) {
		return
	}

	h.create(w, r, service.CreateSubTaskInput{
		TaskID:      req.TaskID,
		Title:       req.Title,
		Description: req.Description,
		Position:    req.Position,
	})
}

func (h *SubTaskHandler) create(w http.ResponseWriter, r *http.Request, in service.CreateSubTaskInput) {
	sub, err := h.subTasks.Create(r.Context(), in)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create sub-task")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, sub)
}

// ListByTask handles GET /tasks/{id}/subtasks.
func (h *SubTaskHandler) ListByTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := pathUUID(w, r, "id", requestLogger(r, h.logger))
	if !ok {
		return
	}

	subs, err := h.subTasks.ListByTask(r.Context(), taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list sub-tasks")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, nonNil(subs))
}

// Get handles GET /subtasks/{id}.
func (h *SubTaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", requestLogger(r, h.logger))
	if !ok {
		return
	}

	sub, err := h.subTasks.Get(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get sub-task")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, sub)
}

// Update handles PATCH /subtasks/{id}.
func (h *SubTaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r, h.logger)
	id, ok := pathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req PatchSubTaskRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	sub, err := h.subTasks.Update(r.Context(), id, service.SubTaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Position:    req.Position,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update sub-task")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, sub)
}

// SetCompletion handles PUT /subtasks/{id}/completion.
func (h *SubTaskHandler) SetCompletion(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r, h.logger)
	id, ok := pathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req CompletionRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	sub, err := h.subTasks.SetCompletion(r.Context(), id, *req.Completed)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to set sub-task completion")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, sub)
}

// AttachToTask handles PUT /subtasks/{id}/task.
func (h *SubTaskHandler) AttachToTask(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r, h.logger)
	id, ok := pathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req AttachSubTaskRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	sub, err := h.subTasks.AttachToTask(r.Context(), id, req.TaskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to attach sub-task")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, sub)
}

// Delete handles DELETE /subtasks/{id}.
func (h *SubTaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", requestLogger(r, h.logger))
	if !ok {
		return
	}

	if err := h.subTasks.Delete(r.Context(), id); err != nil {
		HandleAPIError(w, r, err, "Failed to delete sub-task")
		return
	}
	shared.RespondNoContent(w)
}
