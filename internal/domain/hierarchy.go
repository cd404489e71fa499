package domain

import "github.com/google/uuid"

// ParentLookup returns the parent id of the given task, or nil when the task
// has no parent.
type ParentLookup func(id uuid.UUID) (*uuid.UUID, error)

// ValidateParentAssignment reports ErrCycle when making parentID the parent of
// childID would put childID in its own ancestor chain.
//
// The walk starts at parentID and follows parent references upward. It takes at
// most bound steps; a chain longer than that can only exist if the stored data
// already contains a cycle, which is also reported as ErrCycle.
func ValidateParentAssignment(childID, parentID uuid.UUID, bound int, parentOf ParentLookup) error {
	if childID == parentID {
		return ErrCycle
	}

	current := parentID
	for step := 0; step < bound; step++ {
		parent, err := parentOf(current)
		if err != nil {
			return err
		}
		if parent == nil {
			return nil
		}
		if *parent == childID {
			return ErrCycle
		}
		current = *parent
	}

	return ErrCycle
}
