package routes

import (
	"github.com/brainbarter/brain_barter/handlers"
	"github.com/brainbarter/brain_barter/middleware"
	"github.com/gofiber/fiber/v2"
)

func MatchRoutes(api fiber.Router, h *handlers.Handler) {
	matches := api.Group("/matches", middleware.Protected(h.Config.JWTSecret))
	matches.Get("/potential", h.GetPotentialMatches)
	matches.Get("/accepted", h.GetAcceptedMatches)
	matches.Post("/requests", h.SendMatchRequest)
	matches.Get("/requests/incoming", h.GetIncomingMatchRequests)
	matches.Get("/requests/outgoing", h.GetOutgoingMatchRequests)
	matches.Put("/requests/:id/accept", h.AcceptMatchRequest)
	matches.Put("/requests/:id/reject", h.RejectMatchRequest)
}
