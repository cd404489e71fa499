package domain

import (
	"cmp"
	"slices"
	"time"

	"github.com/google/uuid"
)

// TaskColumnHistory records that a task was in a column at ChangedAt.
//
// Records are append-only. ColumnName is captured when the record is written
// and is not affected by later renames; ColumnID becomes nil if the column is
// deleted. Seq is assigned by the store and orders records written within the
// same instant.
type TaskColumnHistory struct {
	ID         uuid.UUID  `json:"id"`
	TaskID     uuid.UUID  `json:"task_id"`
	ColumnID   *uuid.UUID `json:"column_id,omitempty"`
	ColumnName string     `json:"column_name"`
	ChangedAt  time.Time  `json:"changed_at"`
	Seq        int64      `json:"seq"`
}

// NewTaskColumnHistory builds a record for the task entering the column at changedAt.
func NewTaskColumnHistory(taskID uuid.UUID, column *Column, changedAt time.Time) *TaskColumnHistory {
	columnID := column.ID
	return &TaskColumnHistory{
		ID:         uuid.New(),
		TaskID:     taskID,
		ColumnID:   &columnID,
		ColumnName: column.Name,
		ChangedAt:  changedAt.UTC(),
	}
}

// SortHistoryNewestFirst orders records by ChangedAt descending, then Seq descending.
func SortHistoryNewestFirst(records []*TaskColumnHistory) {
	slices.SortFunc(records, func(a, b *TaskColumnHistory) int {
		if c := b.ChangedAt.Compare(a.ChangedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.Seq, a.Seq)
	})
}
