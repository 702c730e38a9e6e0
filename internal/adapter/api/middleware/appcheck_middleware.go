package middleware

import (
	"context"

	"github.com/labstack/echo/v4"

	"mimoly/pkg/errors"
	"mimoly/pkg/logger"
	"mimoly/pkg/response"
)

const AppCheckHeader = "X-Firebase-AppCheck"

type AppCheckVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}

// AppCheckMiddleware rejects requests that do not carry a valid App Check
// token. When not enforced it only logs missing or invalid tokens.
type AppCheckMiddleware struct {
	verifier AppCheckVerifier
	enforced bool
}

func NewAppCheckMiddleware(verifier AppCheckVerifier, enforced bool) *AppCheckMiddleware {
	return &AppCheckMiddleware{
		verifier: verifier,
		enforced: enforced,
	}
}

func (m *AppCheckMiddleware) Verify(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := c.Request().Header.Get(AppCheckHeader)
		if token == "" {
			if m.enforced {
				return response.Error(c, errors.Unauthenticated("Requisição não autorizada.", nil))
			}
			logger.Debug("Request to %s without App Check token", c.Path())
			return next(c)
		}

		if m.verifier == nil {
			return next(c)
		}

		appID, err := m.verifier.VerifyToken(c.Request().Context(), token)
		if err != nil {
			if m.enforced {
				return response.Error(c, errors.Unauthenticated("Requisição não autorizada.", err))
			}
			logger.Warn("Invalid App Check token on %s: %v", c.Path(), err)
			return next(c)
		}

		c.Set("app_id", appID)
		return next(c)
	}
}
