package handler

import (
	"github.com/labstack/echo/v4"

	"mimoly/internal/usecase"
	"mimoly/pkg/response"
	"mimoly/pkg/utils"
)

type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
	}
}

type initiateChatRequest struct {
	TargetUserID string `json:"target_user_id" validate:"required"`
}

type sendMessageRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

// InitiateChat opens (or returns) the chat with the target user
func (h *ChatHandler) InitiateChat(c echo.Context) error {
	var req initiateChatRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	result, err := h.chatUseCase.InitiateChat(c.Request().Context(), userID, req.TargetUserID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, result)
}

func (h *ChatHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	if err := h.chatUseCase.SendMessage(c.Request().Context(), userID, c.Param("id"), req.Text); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]bool{"success": true})
}

func (h *ChatHandler) MarkChatAsRead(c echo.Context) error {
	userID := c.Get("uid").(string)

	if err := h.chatUseCase.MarkAsRead(c.Request().Context(), userID, c.Param("id")); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]bool{"success": true})
}

func (h *ChatHandler) GetChatMessages(c echo.Context) error {
	userID := c.Get("uid").(string)
	limit := utils.GetLimit(c, 50, 200)

	messages, err := h.chatUseCase.GetMessages(c.Request().Context(), userID, c.Param("id"), limit)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"messages": messages,
	})
}
