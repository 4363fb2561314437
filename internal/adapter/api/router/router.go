package router

import (
	"github.com/labstack/echo/v4"

	"talkie/internal/adapter/api/handler"
	"talkie/internal/adapter/api/middleware"
)

func Setup(e *echo.Echo, chatHandler *handler.ChatHandler, authMiddleware *middleware.AuthMiddleware) {
	SetupChatRouter(e, chatHandler, authMiddleware)
	SetupHealthRouter(e)
}
