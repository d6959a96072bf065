package router

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/loopline-app/backend/internal/apperrors"
	"github.com/loopline-app/backend/internal/repositories"
	"github.com/loopline-app/backend/internal/store"
)

func TestToAppError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"app error passes through", apperrors.Forbidden("nope"), http.StatusForbidden},
		{"wrapped app error", fmt.Errorf("handler: %w", apperrors.Conflict("dup")), http.StatusConflict},
		{"bad cursor", store.ErrBadCursor, http.StatusBadRequest},
		{"wrapped bad cursor", fmt.Errorf("list feed: %w", store.ErrBadCursor), http.StatusBadRequest},
		{"repository not found", repositories.ErrNotFound, http.StatusNotFound},
		{"echo http error", echo.NewHTTPError(http.StatusMethodNotAllowed, "no"), http.StatusMethodNotAllowed},
		{"unknown error", errors.New("dial tcp: refused"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, toAppError(tt.err).Code)
		})
	}
}

func TestToAppErrorHidesInternalDetail(t *testing.T) {
	got := toAppError(errors.New("mongo: connection pool exhausted"))
	assert.NotContains(t, got.Description, "mongo")
}
