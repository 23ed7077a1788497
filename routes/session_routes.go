package routes

import (
	"github.com/brainbarter/brain_barter/handlers"
	"github.com/brainbarter/brain_barter/middleware"
	"github.com/gofiber/fiber/v2"
)

func SessionRoutes(api fiber.Router, h *handlers.Handler) {
	sessions := api.Group("/sessions", middleware.Protected(h.Config.JWTSecret))
	sessions.Post("/propose", h.ProposeSession)
	sessions.Get("/incoming", h.GetIncomingSessions)
	sessions.Get("/me", h.GetMySessions)
	sessions.Get("/with/:partnerId", h.GetSessionsWithPartner)
	sessions.Get("/:id", h.GetSession)
	sessions.Put("/:id/accept", h.AcceptSession)
	sessions.Put("/:id/reject", h.RejectSession)
	sessions.Put("/:id/complete", h.CompleteSession)
	sessions.Put("/:id/dispute", h.DisputeSession)
}
