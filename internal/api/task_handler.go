package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/kanban-api/internal/api/shared"
	"github.com/phrazzld/kanban-api/internal/service"
)

// TaskHandler handles task-related HTTP requests.
type TaskHandler struct {
	tasks  service.TaskService
	logger *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(tasks service.TaskService, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{
		tasks:  tasks,
		logger: logger.With(slog.String("component", "task_handler")),
	}
}

// Routes registers the task and label endpoints on r.
func (h *TaskHandler) Routes(r chi.Router) {
	r.Get("/labels", h.GetAllLabels)

	r.Post("/tasks", h.CreateTask)
	r.Get("/tasks", h.ListTasks)
	r.Post("/tasks/sweep-deadlines", h.SweepDeadlines)

	r.Get("/tasks/{id}", h.GetTask)
	r.Patch("/tasks/{id}", h.PatchTask)
	r.Delete("/tasks/{id}", h.DeleteTask)
	r.Put("/tasks/{id}/position", h.UpdatePosition)
	r.Post("/tasks/{id}/assignees/{userID}", h.AssignUser)
	r.Delete("/tasks/{id}/assignees/{userID}", h.RemoveUser)
	r.Post("/tasks/{id}/labels", h.AddLabel)
	r.Put("/tasks/{id}/labels", h.ReplaceLabels)
	r.Delete("/tasks/{id}/labels/{label}", h.RemoveLabel)
	r.Put("/tasks/{id}/parent", h.AssignParent)
	r.Delete("/tasks/{id}/parent", h.RemoveParent)
	r.Get("/tasks/{id}/children", h.ListChildren)
	r.Get("/tasks/{id}/can-complete", h.CanComplete)
	r.Put("/tasks/{id}/completion", h.SetCompletion)
	r.Get("/tasks/{id}/history", h.GetColumnHistory)
}

// CreateTask handles POST /tasks.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r, h.logger)

	var req CreateTaskRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	task, err := h.tasks.Create(r.Context(), service.CreateTaskInput{
		Title:           req.Title,
		Description:     req.Description,
		Position:        req.Position,
		Labels:          req.Labels,
		ColumnID:        req.ColumnID,
		RowID:           req.RowID,
		AssignedUserIDs: req.AssignedUserIDs,
		ParentID:        req.ParentID,
		Deadline:        req.Deadline,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create task")
		return
	}

	log.Debug("task created", slog.String("task_id", task.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, task)
}

// ListTasks handles GET /tasks.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.List(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list tasks")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, nonNil(tasks))
}

// GetTask handles GET /tasks/{id}.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", requestLogger(r, h.logger))
	if !ok {
		return
	}

	task, err := h.tasks.Get(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get task")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// PatchTask handles PATCH /tasks/{id}.
func (h *TaskHandler) PatchTask(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r, h.logger)
	id, ok := pathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req PatchTaskRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	task, err := h.tasks.Patch(r.Context(), id, service.TaskPatch{
		Title:           req.Title,
		Description:     req.Description,
		ColumnID:        req.ColumnID,
		RowID:           req.RowID,
		AssignedUserIDs: req.AssignedUserIDs,
		Position:        req.Position,
		Labels:          req.Labels,
		Deadline:        req.Deadline,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update task")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// DeleteTask handles DELETE /tasks/{id}.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r, h.logger)
	id, ok := pathUUID(w, r, "id", log)
	if !ok {
		return
	}

	if err := h.tasks.Delete(r.Context(), id); err != nil {
		HandleAPIError(w, r, err, "Failed to delete task")
		return
	}

	log.Debug("task deleted", slog.String("task_id", id.String()))
	shared.RespondNoContent(w)
}

// UpdatePosition handles PUT /tasks/{id}/position.
func (h *TaskHandler) UpdatePosition(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r, h.logger)
	id, ok := pathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req PositionRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	task, err := h.tasks.UpdatePosition(r.Context(), id, *req.Position)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update task position")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// AssignUser handles POST /tasks/{id}/assignees/{userID}.
func (h *TaskHandler) AssignUser(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r, h.logger)
	taskID, ok := pathUUID(w, r, "id", log)
	if !ok {
		return
	}
	userID, ok := pathUUID(w, r, "userID", log)
	if !ok {
		return
	}

	task, err := h.tasks.AssignUser(r.Context(), taskID, userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to assign user")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// RemoveUser handles DELETE /tasks/{id}/assignees/{userID}.
func (h *TaskHandler) RemoveUser(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r, h.logger)
	taskID, ok := pathUUID(w, r, "id", log)
	if !ok {
		return
	}
	userID, ok := pathUUID(w, r, "userID", log)
	if !ok {
		return
	}

	task, err := h.tasks.RemoveUser(r.Context(), taskID, userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to unassign user")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// AddLabel handles POST /tasks/{id}/labels.
func (h *TaskHandler) AddLabel(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r, h.logger)
	id, ok := pathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req LabelRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	task, err := h.tasks.AddLabel(r.Context(), id, req.Label)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to add label")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// ReplaceLabels handles PUT /tasks/{id}/labels.
func (h *TaskHandler) ReplaceLabels(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r, h.logger)
	id, ok := pathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req ReplaceLabelsRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	task, err := h.tasks.ReplaceLabels(r.Context(), id, req.Labels)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to replace labels")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// RemoveLabel handles DELETE /tasks/{id}/labels/{label}.
func (h *TaskHandler) RemoveLabel(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r, h.logger)
	id, ok := pathUUID(w, r, "id", log)
	if !ok {
		return
	}

	task, err := h.tasks.RemoveLabel(r.Context(), id, chi.URLParam(r, "label"))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to remove label")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// GetAllLabels handles GET /labels.
func (h *TaskHandler) GetAllLabels(w http.ResponseWriter, r *http.Request) {
	labels, err := h.tasks.GetAllLabels(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list labels")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, LabelsResponse{Labels: nonNil(labels)})
}

// AssignParent handles PUT /tasks/{id}/parent.
func (h *TaskHandler) AssignParent(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r, h.logger)
	id, ok := pathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req ParentRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	task, err := h.tasks.AssignParent(r.Context(), id, req.ParentID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to assign parent")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// RemoveParent handles DELETE /tasks/{id}/parent.
func (h *TaskHandler) RemoveParent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", requestLogger(r, h.logger))
	if !ok {
		return
	}

	task, err := h.tasks.RemoveParent(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to remove parent")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// ListChildren handles GET /tasks/{id}/children.
func (h *TaskHandler) ListChildren(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", requestLogger(r, h.logger))
	if !ok {
		return
	}

	children, err := h.tasks.ListChildren(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list children")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, nonNil(children))
}

// CanComplete handles GET /tasks/{id}/can-complete.
func (h *TaskHandler) CanComplete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", requestLogger(r, h.logger))
	if !ok {
		return
	}

	can, err := h.tasks.CanComplete(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to check completion")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, CanCompleteResponse{TaskID: id, CanComplete: can})
}

// SetCompletion handles PUT /tasks/{id}/completion.
func (h *TaskHandler) SetCompletion(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r, h.logger)
	id, ok := pathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req CompletionRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	task, err := h.tasks.SetCompletion(r.Context(), id, *req.Completed)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to set completion")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// GetColumnHistory handles GET /tasks/{id}/history.
func (h *TaskHandler) GetColumnHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", requestLogger(r, h.logger))
	if !ok {
		return
	}

	records, err := h.tasks.GetColumnHistory(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get column history")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, nonNil(records))
}

// SweepDeadlines handles POST /tasks/sweep-deadlines.
func (h *TaskHandler) SweepDeadlines(w http.ResponseWriter, r *http.Request) {
	count, err := h.tasks.SweepDeadlines(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to sweep deadlines")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, SweepResponse{Expired: count})
}
