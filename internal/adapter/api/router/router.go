package router

import (
	"github.com/labstack/echo/v4"

	"mimoly/internal/adapter/api/handler"
	"mimoly/internal/adapter/api/middleware"
	"mimoly/internal/infrastructure/ratelimit"
)

// Setup mounts every route. handler.Setup must have run first.
func Setup(
	e *echo.Echo,
	authMiddleware *middleware.AuthMiddleware,
	appCheckMiddleware *middleware.AppCheckMiddleware,
	rateLimiter *ratelimit.RateLimiter,
	webhookToken string,
	wsHandler *handler.WebSocketHandler,
	healthHandler *handler.HealthHandler,
) {
	v1 := e.Group("/v1")

	// Client facing routes need both an ID token and App Check.
	client := v1.Group("", appCheckMiddleware.Verify, authMiddleware.Authenticate)

	SetupChatRouter(client, handler.GetChatHandler())
	SetupUserRouter(client, handler.GetUserHandler())
	SetupWalletRouter(client, handler.GetWalletHandler())
	SetupPaymentRouter(v1, client, handler.GetPaymentHandler(), rateLimiter, webhookToken)
	SetupWebSocketRouter(v1, wsHandler, authMiddleware)
	SetupHealthRouter(e, healthHandler)
}
