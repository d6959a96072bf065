package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is the structured error shape every caller-visible failure
// resolves to. Code and Name map one-to-one onto an HTTP status.
type AppError struct {
	Code        int    `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Name, e.Description)
}

// BadRequest signals malformed input, an invalid cursor, or an exceeded quota
func BadRequest(description string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Name: "bad_request", Description: description}
}

// Unauthorized signals a missing or invalid credential
func Unauthorized(description string) *AppError {
	return &AppError{Code: http.StatusUnauthorized, Name: "unauthorized", Description: description}
}

// Forbidden signals a failed access, visibility or friendship check
func Forbidden(description string) *AppError {
	return &AppError{Code: http.StatusForbidden, Name: "forbidden", Description: description}
}

// NotFound signals an absent update, profile, group or invitation
func NotFound(description string) *AppError {
	return &AppError{Code: http.StatusNotFound, Name: "not_found", Description: description}
}

// Conflict signals duplicate state, e.g. a rate-limited nudge or a duplicate
// phone mapping
func Conflict(description string) *AppError {
	return &AppError{Code: http.StatusConflict, Name: "conflict", Description: description}
}

// Internal signals an unexpected failure
func Internal(description string) *AppError {
	return &AppError{Code: http.StatusInternalServerError, Name: "internal", Description: description}
}

// From converts an arbitrary error to an AppError. Unrecognized shapes
// default to a generic internal error so details never leak to clients.
func From(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("an unexpected error occurred")
}
