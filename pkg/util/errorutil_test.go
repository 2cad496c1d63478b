package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainError(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, ToDomainError(nil))
		assert.NoError(t, MapError(nil))
	})

	t.Run("wrapped domain error is unwrapped", func(t *testing.T) {
		err := fmt.Errorf("login: %w", NewUnauthorized("invalid token"))
		de := ToDomainError(err)
		require.NotNil(t, de)
		assert.Equal(t, "UNAUTHORIZED", de.Code)
		assert.Equal(t, http.StatusUnauthorized, de.HTTPStatus)
	})

	t.Run("no rows becomes not found", func(t *testing.T) {
		de := ToDomainError(fmt.Errorf("get user: %w", pgx.ErrNoRows))
		assert.Equal(t, http.StatusNotFound, de.HTTPStatus)
	})

	t.Run("anything else is internal", func(t *testing.T) {
		cause := errors.New("boom")
		de := ToDomainError(cause)
		assert.Equal(t, http.StatusInternalServerError, de.HTTPStatus)
		assert.ErrorIs(t, de, cause)
		assert.Equal(t, "internal server error: boom", de.Error())
	})
}

func TestCodeForStatus(t *testing.T) {
	assert.Equal(t, "UNAUTHORIZED", CodeForStatus(http.StatusUnauthorized))
	assert.Equal(t, "TOO_MANY_REQUESTS", CodeForStatus(http.StatusTooManyRequests))
	assert.Equal(t, "INTERNAL_ERROR", CodeForStatus(http.StatusBadGateway))
	assert.Equal(t, "REQUEST_FAILED", CodeForStatus(http.StatusTeapot))
}
