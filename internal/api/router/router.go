package router

import (
	"github.com/cloudwego/hertz/pkg/app/server"

	"resume-chat-go/internal/api/handler"
)

// RegisterRoutes 注册全部API路由
func RegisterRoutes(h *server.Hertz, chatHandler *handler.ChatHandler) {
	h.GET("/", chatHandler.HandleRoot)

	api := h.Group("/api")
	api.POST("/chat", chatHandler.HandleChat)
	api.POST("/chat/stream", chatHandler.HandleStreamChat)
	api.GET("/chat/history/:session_id", chatHandler.HandleHistory)
	api.DELETE("/chat/history/:session_id", chatHandler.HandleClearHistory)
	api.GET("/health", chatHandler.HandleHealth)
}
