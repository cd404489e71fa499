package domain

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Column is a workflow stage on the board. Tasks reference it by id; the
// column itself does not own task state.
//
// WipLimit is informational for clients. The enforced WIP gate is per user.
type Column struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Position  int       `json:"position"`
	WipLimit  *int      `json:"wip_limit,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewColumn creates a new Column. Position is assigned by the caller.
func NewColumn(name string, wipLimit *int) (*Column, error) {
	now := time.Now().UTC()
	column := &Column{
		ID:        uuid.New(),
		Name:      name,
		WipLimit:  wipLimit,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := column.Validate(); err != nil {
		return nil, err
	}
	return column, nil
}

// Validate checks if the Column has valid data.
func (c *Column) Validate() error {
	if c.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrInvalidID)
	}
	if strings.TrimSpace(c.Name) == "" {
		return NewValidationError("name", "cannot be empty", ErrValidation)
	}
	return validateWipLimit(c.WipLimit)
}

// Ref returns the reference a task stores for this column.
func (c *Column) Ref() *ColumnRef {
	return &ColumnRef{ID: c.ID, Name: c.Name}
}

// Clone returns a copy of the column.
func (c *Column) Clone() *Column {
	cp := *c
	if c.WipLimit != nil {
		l := *c.WipLimit
		cp.WipLimit = &l
	}
	return &cp
}

// SortColumns orders columns by position ascending, ties broken by id.
func SortColumns(columns []*Column) {
	slices.SortFunc(columns, func(a, b *Column) int {
		if c := cmp.Compare(a.Position, b.Position); c != 0 {
			return c
		}
		return CompareIDs(a.ID, b.ID)
	})
}

func validateWipLimit(limit *int) error {
	if limit != nil && *limit < 0 {
		return NewValidationError("wip_limit", "cannot be negative", ErrValidation)
	}
	return nil
}
