package router

import (
	"github.com/labstack/echo/v4"

	"mimoly/internal/adapter/api/handler"
)

func SetupChatRouter(g *echo.Group, chatHandler *handler.ChatHandler) {
	chatGroup := g.Group("/chats")

	chatGroup.POST("", chatHandler.InitiateChat)                // POST /v1/chats - Initiate chat with a user
	chatGroup.PUT("/:id/read", chatHandler.MarkChatAsRead)      // PUT /v1/chats/:id/read - Clear unread counter
	chatGroup.POST("/:id/messages", chatHandler.SendMessage)    // POST /v1/chats/:id/messages - Send (or resume with) a message
	chatGroup.GET("/:id/messages", chatHandler.GetChatMessages) // GET /v1/chats/:id/messages - Newest messages first
}
