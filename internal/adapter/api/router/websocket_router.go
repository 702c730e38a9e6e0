package router

import (
	"github.com/labstack/echo/v4"

	"mimoly/internal/adapter/api/handler"
	"mimoly/internal/adapter/api/middleware"
)

// SetupWebSocketRouter skips App Check: browsers cannot attach the header to
// an upgrade request.
func SetupWebSocketRouter(v1 *echo.Group, wsHandler *handler.WebSocketHandler, authMiddleware *middleware.AuthMiddleware) {
	v1.GET("/ws", wsHandler.HandleWebSocket, authMiddleware.Authenticate)
}
