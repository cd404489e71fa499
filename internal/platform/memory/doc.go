// Package memory provides an in-process implementation of the store
// interfaces. Entities live in maps keyed by id. A unit of work runs against
// a private copy of the maps and is swapped in only when it succeeds, so
// failed operations leave nothing behind.
//
// It backs the test-suite and the "memory" database driver.
package memory
