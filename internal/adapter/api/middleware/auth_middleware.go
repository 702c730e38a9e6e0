package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"mimoly/pkg/errors"
	"mimoly/pkg/response"
)

// TokenVerifier resolves a Firebase ID token to a uid.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
}

func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
	}
}

// Authenticate requires a bearer ID token and stores its uid under "uid".
// Websocket upgrades may pass the token as the "token" query parameter since
// browsers cannot set headers on them.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		idToken := ""
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return response.Error(c, errors.Unauthenticated("Invalid authorization format", nil))
			}
			idToken = parts[1]
		} else if c.IsWebSocket() {
			idToken = c.QueryParam("token")
		}

		if idToken == "" {
			return response.Error(c, errors.Unauthenticated("Authorization header is required", nil))
		}

		uid, err := m.verifier.VerifyToken(c.Request().Context(), idToken)
		if err != nil || uid == "" {
			return response.Error(c, errors.Unauthenticated("Invalid or expired token", err))
		}

		c.Set("uid", uid)
		return next(c)
	}
}
