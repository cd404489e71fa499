package domain

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Row is a swimlane, the second axis tasks are classified along.
// It mirrors Column field for field.
type Row struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Position  int       `json:"position"`
	WipLimit  *int      `json:"wip_limit,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewRow creates a new Row. Position is assigned by the caller.
func NewRow(name string, wipLimit *int) (*Row, error) {
	now := time.Now().UTC()
	row := &Row{
		ID:        uuid.New(),
		Name:      name,
		WipLimit:  wipLimit,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := row.Validate(); err != nil {
		return nil, err
	}
	return row, nil
}

// Validate checks if the Row has valid data.
func (r *Row) Validate() error {
	if r.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrInvalidID)
	}
	if strings.TrimSpace(r.Name) == "" {
		return NewValidationError("name", "cannot be empty", ErrValidation)
	}
	return validateWipLimit(r.WipLimit)
}

// Ref returns the reference a task stores for this row.
func (r *Row) Ref() *RowRef {
	return &RowRef{ID: r.ID, Name: r.Name}
}

// Clone returns a copy of the row.
func (r *Row) Clone() *Row {
	cp := *r
	if r.WipLimit != nil {
		l := *r.WipLimit
		cp.WipLimit = &l
	}
	return &cp
}

// SortRows orders rows by position ascending, ties broken by id.
func SortRows(rows []*Row) {
	slices.SortFunc(rows, func(a, b *Row) int {
		if c := cmp.Compare(a.Position, b.Position); c != 0 {
			return c
		}
		return CompareIDs(a.ID, b.ID)
	})
}
