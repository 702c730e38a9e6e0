package router

import (
	"github.com/labstack/echo/v4"

	"mimoly/internal/adapter/api/handler"
)

func SetupUserRouter(g *echo.Group, userHandler *handler.UserHandler) {
	g.POST("/users/:id/like", userHandler.ToggleLike)
	g.POST("/account/delete", userHandler.DeleteAccount)
}
