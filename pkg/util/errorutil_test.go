package util

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToDomainError(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, ToDomainError(nil))
	})

	t.Run("domain errors pass through wrapping", func(t *testing.T) {
		base := NewDomainError("USER_ALREADY_EXISTS", "login taken", http.StatusConflict, map[string]any{"login": "admin"})
		wrapped := fmt.Errorf("create user: %w", base)

		de := ToDomainError(wrapped)
		assert.Equal(t, "USER_ALREADY_EXISTS", de.Code)
		assert.Equal(t, http.StatusConflict, de.HTTPStatus)
		assert.Equal(t, "admin", de.Details["login"])
	})

	t.Run("no rows maps to not found", func(t *testing.T) {
		de := ToDomainError(fmt.Errorf("get: %w", sql.ErrNoRows))
		assert.Equal(t, CodeNotFound, de.Code)
		assert.Equal(t, http.StatusNotFound, de.HTTPStatus)
		assert.Equal(t, "resource not found", de.Message)
	})

	t.Run("expired deadline maps to timeout", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 0)
		defer cancel()
		<-ctx.Done()

		de := ToDomainError(fmt.Errorf("list requests: %w", ctx.Err()))
		assert.Equal(t, CodeTimeout, de.Code)
		assert.Equal(t, http.StatusGatewayTimeout, de.HTTPStatus)
		assert.ErrorIs(t, de, context.DeadlineExceeded)
		assert.True(t, HasCode(de, CodeTimeout))
	})

	t.Run("unknown errors become internal", func(t *testing.T) {
		cause := errors.New("disk full")
		de := ToDomainError(cause)
		assert.Equal(t, CodeInternal, de.Code)
		assert.ErrorIs(t, de, cause)
	})
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("wrap: %w", NewDomainError("LAST_ADMIN", "cannot delete", http.StatusConflict, nil))
	assert.True(t, HasCode(err, "LAST_ADMIN"))
	assert.False(t, HasCode(err, "NOT_FOUND"))
	assert.False(t, HasCode(errors.New("plain"), "LAST_ADMIN"))
}
