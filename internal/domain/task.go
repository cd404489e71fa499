package domain

import (
	"bytes"
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Task-specific validation errors
var (
	// ErrTaskIDEmpty is returned when a task ID is empty or nil.
	ErrTaskIDEmpty = NewValidationError("id", "cannot be empty", ErrInvalidID)

	// ErrTaskTitleEmpty is returned when a task has no title.
	ErrTaskTitleEmpty = NewValidationError("title", "cannot be empty", ErrValidation)
)

// ColumnRef is a task's non-owning reference to a column, with the column name
// as it was last read.
type ColumnRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// RowRef is a task's non-owning reference to a row (swimlane).
type RowRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Task is a work item on the board.
//
// A task owns its position, labels, completion flag and children set. Column,
// row, parent and assigned users are references to shared entities. The
// assignment set mirrors User.AssignedTaskIDs and the children set mirrors the
// children's ParentID; both sides are always updated together.
type Task struct {
	ID              uuid.UUID   `json:"id"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	Position        int         `json:"position"`
	Completed       bool        `json:"completed"`
	Labels          []string    `json:"labels"`
	Column          *ColumnRef  `json:"column,omitempty"`
	Row             *RowRef     `json:"row,omitempty"`
	AssignedUserIDs []uuid.UUID `json:"assigned_user_ids"`
	ParentID        *uuid.UUID  `json:"parent_id,omitempty"`
	ChildIDs        []uuid.UUID `json:"child_ids"`
	Deadline        *time.Time  `json:"deadline,omitempty"`
	Expired         bool        `json:"expired"`
	Version         int         `json:"version"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// NewTask creates a new Task with a fresh ID, an empty label set and creation
// timestamps. Returns an error if validation fails.
func NewTask(title, description string) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:              uuid.New(),
		Title:           title,
		Description:     description,
		Labels:          []string{},
		AssignedUserIDs: []uuid.UUID{},
		ChildIDs:        []uuid.UUID{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrTaskIDEmpty
	}
	if strings.TrimSpace(t.Title) == "" {
		return ErrTaskTitleEmpty
	}
	return nil
}

// ColumnID returns the referenced column id, or nil.
func (t *Task) ColumnID() *uuid.UUID {
	if t.Column == nil {
		return nil
	}
	id := t.Column.ID
	return &id
}

// RowID returns the referenced row id, or nil.
func (t *Task) RowID() *uuid.UUID {
	if t.Row == nil {
		return nil
	}
	id := t.Row.ID
	return &id
}

// HasLabel reports whether the label is in the task's label set.
func (t *Task) HasLabel(label string) bool {
	return slices.Contains(t.Labels, label)
}

// AddLabel adds a label to the set. Adding an existing label is a no-op.
func (t *Task) AddLabel(label string) {
	if t.Labels == nil {
		t.Labels = []string{}
	}
	if !t.HasLabel(label) {
		t.Labels = append(t.Labels, label)
	}
}

// RemoveLabel removes a label from the set if present.
func (t *Task) RemoveLabel(label string) {
	if t.Labels == nil {
		t.Labels = []string{}
		return
	}
	t.Labels = slices.DeleteFunc(t.Labels, func(l string) bool { return l == label })
}

// ReplaceLabels swaps the whole label set, dropping duplicates.
func (t *Task) ReplaceLabels(labels []string) {
	t.Labels = []string{}
	for _, l := range labels {
		t.AddLabel(l)
	}
}

// IsAssigned reports whether the user is assigned to the task.
func (t *Task) IsAssigned(userID uuid.UUID) bool {
	return slices.Contains(t.AssignedUserIDs, userID)
}

// AssignUser adds the user to the task side of the assignment.
func (t *Task) AssignUser(userID uuid.UUID) {
	if !t.IsAssigned(userID) {
		t.AssignedUserIDs = append(t.AssignedUserIDs, userID)
	}
}

// UnassignUser removes the user from the task side of the assignment.
func (t *Task) UnassignUser(userID uuid.UUID) {
	t.AssignedUserIDs = slices.DeleteFunc(t.AssignedUserIDs, func(id uuid.UUID) bool { return id == userID })
}

// HasChild reports whether childID is in the children set.
func (t *Task) HasChild(childID uuid.UUID) bool {
	return slices.Contains(t.ChildIDs, childID)
}

// AddChild adds a child to the children set.
func (t *Task) AddChild(childID uuid.UUID) {
	if !t.HasChild(childID) {
		t.ChildIDs = append(t.ChildIDs, childID)
	}
}

// RemoveChild removes a child from the children set.
func (t *Task) RemoveChild(childID uuid.UUID) {
	t.ChildIDs = slices.DeleteFunc(t.ChildIDs, func(id uuid.UUID) bool { return id == childID })
}

// RefreshExpired recomputes the cached expired flag against now and reports
// whether it changed. Tasks without a deadline are left untouched.
func (t *Task) RefreshExpired(now time.Time) bool {
	if t.Deadline == nil {
		return false
	}
	expired := t.Deadline.Before(now)
	if expired == t.Expired {
		return false
	}
	t.Expired = expired
	return true
}

// Clone returns a deep copy of the task.
func (t *Task) Clone() *Task {
	c := *t
	c.Labels = slices.Clone(t.Labels)
	c.AssignedUserIDs = slices.Clone(t.AssignedUserIDs)
	c.ChildIDs = slices.Clone(t.ChildIDs)
	if t.Column != nil {
		col := *t.Column
		c.Column = &col
	}
	if t.Row != nil {
		row := *t.Row
		c.Row = &row
	}
	if t.ParentID != nil {
		p := *t.ParentID
		c.ParentID = &p
	}
	if t.Deadline != nil {
		d := *t.Deadline
		c.Deadline = &d
	}
	return &c
}

// CompareIDs orders two ids bytewise. It is the tie-breaker wherever positions collide.
func CompareIDs(a, b uuid.UUID) int {
	return bytes.Compare(a[:], b[:])
}

// SortTasks orders tasks by position ascending, ties broken by id.
func SortTasks(tasks []*Task) {
	slices.SortFunc(tasks, func(a, b *Task) int {
		if c := cmp.Compare(a.Position, b.Position); c != 0 {
			return c
		}
		return CompareIDs(a.ID, b.ID)
	})
}
