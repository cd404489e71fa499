// Package service contains the board's use cases. It orchestrates domain
// entities and the stores defined in internal/store to fulfil each operation.
//
// Every mutating operation runs inside one store.UnitOfWork: reads,
// validation, mutation and persistence either all become visible or none do.
// Board events are emitted only after the unit of work has committed.
//
// Key components:
//
//   - TaskService: the task engine. Position, labels, assignment gated by the
//     WIP limit, parent/child edits gated by the cycle check, completion gated
//     by the hierarchy, column history and the deadline sweep.
//   - HistoryRecorder: appends column history records.
//   - ColumnService, RowService, SubTaskService, UserService: CRUD for the
//     entities tasks reference.
//
// Errors that callers are expected to branch on (store.ErrNotFound and its
// variants, domain.ErrInvalidState, domain.ErrWipLimitExceeded,
// store.ErrConflict, validation errors) are returned unchanged. Anything else
// is wrapped in a *ServiceError.
package service
