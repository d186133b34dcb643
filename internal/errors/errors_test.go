package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type customError struct{ Msg string }

func (e customError) Error() string { return e.Msg }

func TestNew(t *testing.T) {
	err := New("something went wrong")
	require.Error(t, err)
	assert.Equal(t, "something went wrong", err.Error())
}

func TestWrap(t *testing.T) {
	t.Run("wraps error with context", func(t *testing.T) {
		base := errors.New("base error")
		wrapped := Wrap(base, "loading campaign")

		assert.Equal(t, "loading campaign: base error", wrapped.Error())
		assert.True(t, errors.Is(wrapped, base))
	})

	t.Run("returns nil for nil error", func(t *testing.T) {
		assert.Nil(t, Wrap(nil, "context"))
	})
}

func TestWrapf(t *testing.T) {
	t.Run("wraps error with formatted context", func(t *testing.T) {
		base := errors.New("base error")
		wrapped := Wrapf(base, "execution %d", 42)

		assert.Equal(t, "execution 42: base error", wrapped.Error())
		assert.True(t, errors.Is(wrapped, base))
	})

	t.Run("returns nil for nil error", func(t *testing.T) {
		assert.Nil(t, Wrapf(nil, "execution %d", 42))
	})
}

func TestIs(t *testing.T) {
	wrapped := Wrap(ErrNotFound, "campaign lookup")

	assert.True(t, Is(wrapped, ErrNotFound))
	assert.False(t, Is(wrapped, ErrConflict))
}

func TestAs(t *testing.T) {
	wrapped := Wrap(customError{Msg: "custom"}, "context")

	var target customError
	require.True(t, As(wrapped, &target))
	assert.Equal(t, "custom", target.Msg)
}

func TestStandardErrors(t *testing.T) {
	for _, err := range []error{
		ErrNotFound,
		ErrConflict,
		ErrInvalidInput,
		ErrUnauthorized,
		ErrForbidden,
		ErrRateLimited,
	} {
		assert.Error(t, err)
	}
}
