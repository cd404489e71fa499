package domain

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SubTask is a checklist item inside a task. Its completion is informational
// and never affects the owning task.
//
// TaskID is nil only for sub-tasks created standalone and not yet attached.
type SubTask struct {
	ID          uuid.UUID  `json:"id"`
	TaskID      *uuid.UUID `json:"task_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	Position    int        `json:"position"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewSubTask creates a new SubTask, optionally owned by a task.
func NewSubTask(taskID *uuid.UUID, title, description string) (*SubTask, error) {
	now := time.Now().UTC()
	sub := &SubTask{
		ID:          uuid.New(),
		TaskID:      taskID,
		Title:       title,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := sub.Validate(); err != nil {
		return nil, err
	}
	return sub, nil
}

// Validate checks if the SubTask has valid data.
func (s *SubTask) Validate() error {
	if s.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrInvalidID)
	}
	if strings.TrimSpace(s.Title) == "" {
		return NewValidationError("title", "cannot be empty", ErrValidation)
	}
	return nil
}

// Clone returns a copy of the sub-task.
func (s *SubTask) Clone() *SubTask {
	cp := *s
	if s.TaskID != nil {
		id := *s.TaskID
		cp.TaskID = &id
	}
	return &cp
}

// SortSubTasks orders sub-tasks by position ascending, ties broken by id.
func SortSubTasks(subs []*SubTask) {
	slices.SortFunc(subs, func(a, b *SubTask) int {
		if c := cmp.Compare(a.Position, b.Position); c != 0 {
			return c
		}
		return CompareIDs(a.ID, b.ID)
	})
}
