package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	err := fmt.Errorf("update contact: %w", New(KindForbidden, "not authorized"))
	assert.Equal(t, KindForbidden, KindOf(err))
	assert.Equal(t, KindStoreUnavailable, KindOf(errors.New("boom")))
}

func TestErrorIsMatchesKind(t *testing.T) {
	err := Wrap(KindNotFound, "contact not found", errors.New("record not found"))
	assert.True(t, errors.Is(err, New(KindNotFound, "")))
	assert.False(t, errors.Is(err, New(KindForbidden, "")))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := Wrap(KindStoreUnavailable, "failed to list contacts", cause)
	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "dial tcp")
}

func TestValidationMessage(t *testing.T) {
	single := Validation(FieldError{Field: "name", Message: "Name is required"})
	assert.Equal(t, "Name is required", single.Message)

	multi := Validation(
		FieldError{Field: "name", Message: "Name is required"},
		FieldError{Field: "email", Message: "A valid email is required"},
	)
	assert.Equal(t, "invalid request", multi.Message)
	assert.Len(t, multi.Fields, 2)
}

func TestIsUnauthenticated(t *testing.T) {
	assert.True(t, KindTokenMissing.IsUnauthenticated())
	assert.True(t, KindTokenExpired.IsUnauthenticated())
	assert.False(t, KindForbidden.IsUnauthenticated())
}
