package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromUnwrapsWrappedAPIError(t *testing.T) {
	inner := Retryable(http.StatusServiceUnavailable, "save_failed", errors.New("store down"))
	wrapped := fmt.Errorf("saving: %w", inner)

	got := From(wrapped)
	assert.Same(t, inner, got)
	assert.True(t, got.Retryable)
	assert.Equal(t, "store down", got.Error())
}

func TestFromPlainError(t *testing.T) {
	got := From(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, got.Status)
	assert.Equal(t, "internal_error", got.Code)
	assert.False(t, got.Retryable)
	assert.Nil(t, From(nil))
}

func TestErrorMessageFallbacks(t *testing.T) {
	assert.Equal(t, "unauthorized", (&Error{Code: "unauthorized"}).Error())
	assert.Equal(t, "api error (418)", (&Error{Status: 418}).Error())
	assert.Equal(t, "api error", (&Error{}).Error())
}
