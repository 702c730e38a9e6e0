package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"

	"mimoly/pkg/logger"
)

const WebhookTokenHeader = "asaas-access-token"

// WebhookToken accepts only requests carrying the shared secret configured
// on the processor's webhook.
func WebhookToken(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			received := c.Request().Header.Get(WebhookTokenHeader)
			if secret == "" || subtle.ConstantTimeCompare([]byte(received), []byte(secret)) != 1 {
				logger.Warn("Webhook from %s rejected: invalid access token", c.RealIP())
				return c.JSON(http.StatusUnauthorized, map[string]string{"status": "Acesso não autorizado"})
			}
			return next(c)
		}
	}
}
