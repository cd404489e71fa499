package domain

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// chain builds a parent lookup over a child->parent map.
func chain(parents map[uuid.UUID]uuid.UUID) ParentLookup {
	return func(id uuid.UUID) (*uuid.UUID, error) {
		p, ok := parents[id]
		if !ok {
			return nil, nil
		}
		return &p, nil
	}
}

func TestValidateParentAssignment(t *testing.T) {
	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	// c -> b -> a
	parents := map[uuid.UUID]uuid.UUID{c: b, b: a}

	t.Run("self parent is a cycle without walking", func(t *testing.T) {
		called := false
		err := ValidateParentAssignment(a, a, 10, func(uuid.UUID) (*uuid.UUID, error) {
			called = true
			return nil, nil
		})
		assert.ErrorIs(t, err, ErrCycle)
		assert.ErrorIs(t, err, ErrInvalidState)
		assert.False(t, called)
	})

	t.Run("descendant as parent is a cycle", func(t *testing.T) {
		assert.ErrorIs(t, ValidateParentAssignment(a, c, 4, chain(parents)), ErrCycle)
	})

	t.Run("unrelated parent is fine", func(t *testing.T) {
		assert.NoError(t, ValidateParentAssignment(d, c, 4, chain(parents)))
	})

	t.Run("re-parenting within the chain downward is fine", func(t *testing.T) {
		assert.NoError(t, ValidateParentAssignment(c, a, 4, chain(parents)))
	})

	t.Run("pre-existing corrupt cycle stops at the bound", func(t *testing.T) {
		corrupt := map[uuid.UUID]uuid.UUID{a: b, b: a}
		assert.ErrorIs(t, ValidateParentAssignment(d, a, 4, chain(corrupt)), ErrCycle)
	})

	t.Run("lookup errors propagate", func(t *testing.T) {
		boom := errors.New("boom")
		err := ValidateParentAssignment(d, a, 4, func(uuid.UUID) (*uuid.UUID, error) {
			return nil, boom
		})
		assert.ErrorIs(t, err, boom)
	})
}
