package router

import (
	"github.com/labstack/echo/v4"

	"mimoly/internal/adapter/api/handler"
)

func SetupWalletRouter(g *echo.Group, walletHandler *handler.WalletHandler) {
	walletGroup := g.Group("/wallet")

	walletGroup.POST("/withdraw", walletHandler.RequestWithdrawal)
	walletGroup.GET("/statement", walletHandler.GetStatement)
}
