// Package domain contains the core board entities (tasks, sub-tasks, columns,
// rows, users and column history) together with the pure rules that govern
// them: the per-user WIP gate and the parent/child hierarchy validator.
// It is independent of any storage engine or delivery mechanism.
package domain
