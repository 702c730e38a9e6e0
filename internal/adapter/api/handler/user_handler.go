package handler

import (
	"github.com/labstack/echo/v4"

	"mimoly/internal/usecase"
	"mimoly/pkg/response"
)

type UserHandler struct {
	likeUseCase    *usecase.LikeUseCase
	accountUseCase *usecase.AccountUseCase
}

func NewUserHandler(likeUseCase *usecase.LikeUseCase, accountUseCase *usecase.AccountUseCase) *UserHandler {
	return &UserHandler{
		likeUseCase:    likeUseCase,
		accountUseCase: accountUseCase,
	}
}

type deleteAccountRequest struct {
	ForceDelete bool `json:"force_delete"`
}

func (h *UserHandler) ToggleLike(c echo.Context) error {
	userID := c.Get("uid").(string)

	liked, err := h.likeUseCase.ToggleLike(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]bool{"liked": liked})
}

func (h *UserHandler) DeleteAccount(c echo.Context) error {
	var req deleteAccountRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return response.Error(c, err)
		}
	}

	userID := c.Get("uid").(string)

	if err := h.accountUseCase.DeleteAccount(c.Request().Context(), userID, req.ForceDelete); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"success": true,
		"message": "Conta excluída com sucesso.",
	})
}
