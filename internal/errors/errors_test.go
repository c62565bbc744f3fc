package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeNotFound, http.StatusNotFound},
		{CodeAlreadyExists, http.StatusConflict},
		{CodeNotAuthenticated, http.StatusUnauthorized},
		{CodeInvalidRating, http.StatusBadRequest},
		{CodeInvalidStatus, http.StatusBadRequest},
		{CodeRequiresRating, http.StatusUnprocessableEntity},
		{CodeRateLimited, http.StatusTooManyRequests},
		{CodeUpstreamUnavailable, http.StatusBadGateway},
		{Code("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}

func TestError_IsMatchesByCode(t *testing.T) {
	err := InvalidRating("value %v is not a half step", 4.3)

	assert.True(t, Is(err, ErrInvalidRating))
	assert.False(t, Is(err, ErrInvalidStatus))

	wrapped := fmt.Errorf("submit review: %w", err)
	assert.True(t, Is(wrapped, ErrInvalidRating))
}

func TestError_WithCause(t *testing.T) {
	cause := fmt.Errorf("dial tcp: timeout")
	err := UpstreamUnavailable(cause, "catalog search failed")

	assert.Equal(t, "catalog search failed: dial tcp: timeout", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusBadGateway, err.HTTPStatus())
}

func TestError_WithDetailsKeepsCode(t *testing.T) {
	base := Validation("password too weak")
	detailed := base.WithDetails(map[string]bool{"minLength": false})

	assert.Equal(t, CodeValidation, detailed.Code)
	assert.Nil(t, base.Details)
	assert.NotNil(t, detailed.Details)
}
