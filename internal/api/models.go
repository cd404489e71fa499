package api

import (
	"time"

	"github.com/google/uuid"
)

// CreateTaskRequest is the body of POST /api/tasks.
type CreateTaskRequest struct {
	Title           string      `json:"title"             validate:"required"`
	Description     string      `json:"description"`
	Position        *int        `json:"position"`
	Labels          []string    `json:"labels"            validate:"omitempty,dive,required"`
	ColumnID        *uuid.UUID  `json:"column_id"`
	RowID           *uuid.UUID  `json:"row_id"`
	AssignedUserIDs []uuid.UUID `json:"assigned_user_ids"`
	ParentID        *uuid.UUID  `json:"parent_id"`
	Deadline        *time.Time  `json:"deadline"`
}

// PatchTaskRequest is the body of PATCH /api/tasks/{id}. Omitted fields are
// left unchanged; an empty list clears labels or assignees.
type PatchTaskRequest struct {
	Title           *string     `json:"title"             validate:"omitempty,min=1"`
	Description     *string     `json:"description"`
	ColumnID        *uuid.UUID  `json:"column_id"`
	RowID           *uuid.UUID  `json:"row_id"`
	AssignedUserIDs []uuid.UUID `json:"assigned_user_ids"`
	Position        *int        `json:"position"`
	Labels          []string    `json:"labels"            validate:"omitempty,dive,required"`
	Deadline        *time.Time  `json:"deadline"`
}

// PositionRequest sets the position of a task, column, row or sub-task.
type PositionRequest struct {
	Position *int `json:"position" validate:"required"`
}

// LabelRequest adds one label to a task.
type LabelRequest struct {
	Label string `json:"label" validate:"required"`
}

// ReplaceLabelsRequest replaces a task's label set.
type ReplaceLabelsRequest struct {
	Labels []string `json:"labels" validate:"required,dive,required"`
}

// ParentRequest sets a task's parent.
type ParentRequest struct {
	ParentID uuid.UUID `json:"parent_id" validate:"required"`
}

// CompletionRequest sets the completed flag of a task or sub-task.
type CompletionRequest struct {
	Completed *bool `json:"completed" validate:"required"`
}

// LabelsResponse lists the distinct labels in use.
type LabelsResponse struct {
	Labels []string `json:"labels"`
}

// CanCompleteResponse reports whether a task may be marked completed.
type CanCompleteResponse struct {
	TaskID      uuid.UUID `json:"task_id"`
	CanComplete bool      `json:"can_complete"`
}

// SweepResponse reports how many tasks a deadline sweep newly expired.
type SweepResponse struct {
	Expired int `json:"expired"`
}

// CreateLaneRequest is the body of POST /api/columns and POST /api/rows.
type CreateLaneRequest struct {
	Name     string `json:"name"      validate:"required"`
	Position *int   `json:"position"`
	WipLimit *int   `json:"wip_limit" validate:"omitempty,gte=0"`
}

// PatchLaneRequest is the body of PATCH /api/columns/{id} and PATCH /api/rows/{id}.
type PatchLaneRequest struct {
	Name          *string `json:"name"            validate:"omitempty,min=1"`
	WipLimit      *int    `json:"wip_limit"       validate:"omitempty,gte=0"`
	ClearWipLimit bool    `json:"clear_wip_limit"`
}

// CreateSubTaskRequest is the body of POST /api/tasks/{id}/subtasks.
type CreateSubTaskRequest struct {
	Title       string `json:"title"       validate:"required"`
	Description string `json:"description"`
	Position    *int   `json:"position"`
}

// CreateStandaloneSubTaskRequest is the body of POST /api/subtasks.
type CreateStandaloneSubTaskRequest struct {
	CreateSubTaskRequest
	TaskID *uuid.UUID `json:"task_id"`
}

// PatchSubTaskRequest is the body of PATCH /api/subtasks/{id}.
type PatchSubTaskRequest struct {
	Title       *string `json:"title"       validate:"omitempty,min=1"`
	Description *string `json:"description"`
	Position    *int    `json:"position"`
}

// AttachSubTaskRequest moves a sub-task under a task.
type AttachSubTaskRequest struct {
	TaskID uuid.UUID `json:"task_id" validate:"required"`
}

// CreateUserRequest is the body of POST /api/users.
type CreateUserRequest struct {
	Name     string `json:"name"      validate:"required"`
	Email    string `json:"email"     validate:"required,email"`
	WipLimit *int   `json:"wip_limit" validate:"omitempty,gte=0"`
}

// WipLimitRequest sets a user's WIP limit. A null limit means unlimited.
type WipLimitRequest struct {
	WipLimit *int `json:"wip_limit" validate:"omitempty,gte=0"`
}

// nonNil keeps empty collections encoding as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
