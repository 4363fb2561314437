package router

import (
	"github.com/labstack/echo/v4"

	"talkie/internal/adapter/api/handler"
	"talkie/internal/adapter/api/middleware"
)

func SetupChatRouter(e *echo.Echo, chatHandler *handler.ChatHandler, authMiddleware *middleware.AuthMiddleware) {
	chatGroup := e.Group("/v1/chats")
	chatGroup.Use(authMiddleware.Authenticate)

	chatGroup.POST("/:id/leave", chatHandler.LeaveGroup)

	chatGroup.POST("/:id/messages", chatHandler.SendMessage)
	chatGroup.GET("/:id/messages", chatHandler.GetChatMessages)
	chatGroup.PUT("/:id/messages/:messageId/read", chatHandler.MarkMessageRead)
	chatGroup.POST("/:id/messages/:messageId/pin", chatHandler.TogglePinnedMessage)
}
