package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/kanban-api/internal/domain"
	"github.com/phrazzld/kanban-api/internal/service"
)

// Services are the application services the API exposes.
type Services struct {
	Tasks    service.TaskService
	SubTasks service.SubTaskService
	Columns  service.ColumnService
	Rows     service.RowService
	Users    service.UserService
}

// Handlers groups every handler mounted under /api.
type Handlers struct {
	Tasks    *TaskHandler
	SubTasks *SubTaskHandler
	Columns  *LaneHandler[*domain.Column]
	Rows     *LaneHandler[*domain.Row]
	Users    *UserHandler
}

// NewHandlers builds the handlers for svc.
func NewHandlers(svc Services, logger *slog.Logger) *Handlers {
	return &Handlers{
		Tasks:    NewTaskHandler(svc.Tasks, logger),
		SubTasks: NewSubTaskHandler(svc.SubTasks, logger),
		Columns:  NewColumnHandler(svc.Columns, logger),
		Rows:     NewRowHandler(svc.Rows, logger),
		Users:    NewUserHandler(svc.Users, logger),
	}
}

// Routes registers every board endpoint on r. Authentication is applied by
// the caller.
func (h *Handlers) Routes(r chi.Router) {
	h.Tasks.Routes(r)
	h.SubTasks.Routes(r)
	r.Route("/columns", h.Columns.Routes)
	r.Route("/rows", h.Rows.Routes)
	h.Users.Routes(r)
}
