package router

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/loopline-app/backend/internal/apperrors"
	"github.com/loopline-app/backend/internal/repositories"
	"github.com/loopline-app/backend/internal/store"
)

// ErrorHandler returns the echo HTTPErrorHandler mapping application errors
// to their status codes. Unrecognized errors are logged and surfaced as a
// generic internal error so details never leak to clients.
func ErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		appErr := toAppError(err)
		if appErr.Code == http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Error(err))
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(appErr.Code)
			return
		}
		_ = c.JSON(appErr.Code, appErr)
	}
}

func toAppError(err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, store.ErrBadCursor) {
		return apperrors.BadRequest("Invalid pagination cursor")
	}
	if errors.Is(err, repositories.ErrNotFound) {
		return apperrors.NotFound("Record not found")
	}
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		msg := "request failed"
		if s, ok := httpErr.Message.(string); ok {
			msg = s
		}
		return &apperrors.AppError{Code: httpErr.Code, Name: http.StatusText(httpErr.Code), Description: msg}
	}
	return apperrors.From(err)
}
