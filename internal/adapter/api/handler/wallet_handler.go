package handler

import (
	"github.com/labstack/echo/v4"

	"mimoly/internal/usecase"
	"mimoly/pkg/response"
)

type WalletHandler struct {
	walletUseCase *usecase.WalletUseCase
}

func NewWalletHandler(walletUseCase *usecase.WalletUseCase) *WalletHandler {
	return &WalletHandler{
		walletUseCase: walletUseCase,
	}
}

func (h *WalletHandler) RequestWithdrawal(c echo.Context) error {
	userID := c.Get("uid").(string)

	result, err := h.walletUseCase.RequestWithdrawal(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, result)
}

func (h *WalletHandler) GetStatement(c echo.Context) error {
	userID := c.Get("uid").(string)

	entries, err := h.walletUseCase.GetStatement(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"transactions": entries,
	})
}
