package lithify_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/daveshilobod/lithify"
)

func TestUnresolvedReferenceError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := lithify.NewUnresolvedReferenceError("./missing.json#/$defs/Id", "user.json", nil)
		assert.Equal(t, `lithify: unresolved reference "./missing.json#/$defs/Id" in user.json`, err.Error())
	})

	t.Run("Is", func(t *testing.T) {
		err := lithify.NewUnresolvedReferenceError("urn:acme:unknown", "", nil)
		assert.True(t, errors.Is(err, lithify.ErrUnresolvedReference))
	})

	t.Run("IsUnresolvedReference", func(t *testing.T) {
		err := lithify.NewUnresolvedReferenceError("#/$defs/Nope", "event.json", nil)
		assert.True(t, lithify.IsUnresolvedReference(err))

		// Wrapped error
		wrapped := fmt.Errorf("loading graph: %w", err)
		assert.True(t, lithify.IsUnresolvedReference(wrapped))

		// Non-matching error
		assert.False(t, lithify.IsUnresolvedReference(errors.New("other error")))
		assert.False(t, lithify.IsUnresolvedReference(nil))
	})

	t.Run("Unwrap", func(t *testing.T) {
		cause := errors.New("no such file")
		err := lithify.NewUnresolvedReferenceError("./gone.json", "user.json", cause)
		assert.Equal(t, cause, errors.Unwrap(err))
		assert.Contains(t, err.Error(), "no such file")
	})
}

func TestAmbiguousIdentityError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := lithify.NewAmbiguousIdentityError("lithify:///user.json", "a/user.json", "b/user.json")
		assert.Equal(t, `lithify: ambiguous identity "lithify:///user.json" claimed by both a/user.json and b/user.json`, err.Error())
	})

	t.Run("IsAmbiguousIdentity", func(t *testing.T) {
		err := lithify.NewAmbiguousIdentityError("lithify:///x.json", "x.json", "sub/x.json")
		assert.True(t, lithify.IsAmbiguousIdentity(err))
		assert.True(t, errors.Is(err, lithify.ErrAmbiguousIdentity))
		assert.False(t, lithify.IsAmbiguousIdentity(errors.New("other")))
	})
}

func TestIncompatibleRefinementError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := lithify.NewIncompatibleRefinementError("event.json", "#/properties/id", "disjoint numeric ranges")
		assert.Equal(t, "lithify: incompatible refinement in event.json at #/properties/id: disjoint numeric ranges", err.Error())
	})

	t.Run("IsIncompatibleRefinement", func(t *testing.T) {
		err := lithify.NewIncompatibleRefinementError("", "#/allOf", "empty enum intersection")
		assert.True(t, lithify.IsIncompatibleRefinement(err))
		assert.True(t, errors.Is(err, lithify.ErrIncompatibleRefinement))

		wrapped := fmt.Errorf("collapsing: %w", err)
		assert.True(t, lithify.IsIncompatibleRefinement(wrapped))
	})
}

func TestInvalidIdentifierError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := lithify.NewInvalidIdentifierError("2fast", "user.json#/$defs/2fast")
		assert.Equal(t, `lithify: invalid identifier "2fast" from user.json#/$defs/2fast`, err.Error())
	})

	t.Run("IsInvalidIdentifier", func(t *testing.T) {
		err := lithify.NewInvalidIdentifierError("for", "")
		assert.True(t, lithify.IsInvalidIdentifier(err))
		assert.True(t, errors.Is(err, lithify.ErrInvalidIdentifier))
	})
}

func TestRewriteConflictError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := lithify.NewRewriteConflictError("User.Email", "EmailAddress", "ShortString")
		assert.Equal(t, "lithify: rewrite conflict on User.Email: EmailAddress vs ShortString", err.Error())
	})

	t.Run("IsRewriteConflict", func(t *testing.T) {
		err := lithify.NewRewriteConflictError("User.Email", "A", "B")
		assert.True(t, lithify.IsRewriteConflict(err))
		assert.True(t, errors.Is(err, lithify.ErrRewriteConflict))
	})
}

func TestUnsupportedShapeError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := lithify.NewUnsupportedShapeError("tree.json", "#/$defs/Node", "reference cycle")
		assert.Equal(t, "lithify: unsupported shape in tree.json at #/$defs/Node: reference cycle", err.Error())
	})

	t.Run("IsUnsupportedShape", func(t *testing.T) {
		err := lithify.NewUnsupportedShapeError("", "#/$defs/Node", "reference cycle")
		assert.True(t, lithify.IsUnsupportedShape(err))
		assert.True(t, errors.Is(err, lithify.ErrUnsupportedShape))
		assert.False(t, lithify.IsUnsupportedShape(nil))
	})
}

func TestMutability(t *testing.T) {
	assert.True(t, lithify.Mutable.Valid())
	assert.True(t, lithify.Frozen.Valid())
	assert.True(t, lithify.DeepFrozen.Valid())
	assert.False(t, lithify.Mutability("granite").Valid())
}
