package routes

import (
	"github.com/brainbarter/brain_barter/handlers"
	"github.com/brainbarter/brain_barter/middleware"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

func ChatRoutes(api fiber.Router, h *handlers.Handler) {
	chat := api.Group("/chat", middleware.Protected(h.Config.JWTSecret))
	chat.Get("/messages/:partnerId", h.GetMessages)
	chat.Get("/conversations", h.GetConversations)
	chat.Post("/mark-read", h.MarkRead)
	chat.Get("/unread-count", h.GetUnreadCount)

	// Authentication happens on the first frame, not on the upgrade request.
	api.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	})
	api.Get("/ws", websocket.New(h.ServeWs))
}
