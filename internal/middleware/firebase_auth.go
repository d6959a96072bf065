package middleware

import (
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"

	"github.com/loopline-app/backend/internal/apperrors"
)

// ContextUserID is the echo context key holding the authenticated Firebase UID
const ContextUserID = "uid"

// FirebaseAuthMiddleware creates an Echo middleware to verify Firebase ID tokens
func FirebaseAuthMiddleware(authClient *auth.Client) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return apperrors.Unauthorized("Authorization header is missing")
			}

			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
				return apperrors.Unauthorized("Authorization header must be in Bearer format")
			}

			token, err := authClient.VerifyIDToken(c.Request().Context(), tokenParts[1])
			if err != nil {
				return apperrors.Unauthorized("Invalid or expired ID token")
			}

			c.Set(ContextUserID, token.UID)
			return next(c)
		}
	}
}

// UserID returns the authenticated Firebase UID from the request context
func UserID(c echo.Context) string {
	uid, _ := c.Get(ContextUserID).(string)
	return uid
}
