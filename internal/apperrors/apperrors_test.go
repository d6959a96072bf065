package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructorsMapToStatusCodes(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		wantCode int
		wantName string
	}{
		{"bad request", BadRequest("bad cursor"), http.StatusBadRequest, "bad_request"},
		{"unauthorized", Unauthorized("no token"), http.StatusUnauthorized, "unauthorized"},
		{"forbidden", Forbidden("not visible"), http.StatusForbidden, "forbidden"},
		{"not found", NotFound("no such update"), http.StatusNotFound, "not_found"},
		{"conflict", Conflict("nudge too soon"), http.StatusConflict, "conflict"},
		{"internal", Internal("boom"), http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, tt.err.Code)
			assert.Equal(t, tt.wantName, tt.err.Name)
		})
	}
}

func TestErrorString(t *testing.T) {
	err := Forbidden("You do not have access to this update")
	assert.Equal(t, "forbidden: You do not have access to this update", err.Error())
}

func TestFromPassesThroughAppErrors(t *testing.T) {
	orig := NotFound("gone")
	assert.Same(t, orig, From(orig))

	wrapped := fmt.Errorf("handler: %w", Conflict("duplicate phone"))
	assert.Equal(t, http.StatusConflict, From(wrapped).Code)
}

func TestFromHidesUnknownErrors(t *testing.T) {
	got := From(errors.New("connection reset by peer"))
	assert.Equal(t, http.StatusInternalServerError, got.Code)
	assert.NotContains(t, got.Description, "connection reset")
}
