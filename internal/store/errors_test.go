package store

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_SpecificErrorsMatchSentinels(t *testing.T) {
	assert.ErrorIs(t, ErrBookNotFound, ErrNotFound)
	assert.ErrorIs(t, ErrUserNotFound, ErrNotFound)
	assert.ErrorIs(t, ErrEmailExists, ErrAlreadyExists)
	assert.False(t, errors.Is(ErrBookNotFound, ErrAlreadyExists))

	wrapped := fmt.Errorf("get book: %w", ErrBookNotFound)
	assert.ErrorIs(t, wrapped, ErrNotFound)
}

func TestError_WithCause(t *testing.T) {
	cause := errors.New("disk full")
	err := ErrInvalidInput.WithCause(cause)

	assert.Equal(t, "invalid input: disk full", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusBadRequest, err.HTTPCode())
}
