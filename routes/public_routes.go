package routes

import (
	"github.com/brainbarter/brain_barter/handlers"
	"github.com/brainbarter/brain_barter/middleware"
	"github.com/gofiber/fiber/v2"
)

func PublicRoutes(api fiber.Router, h *handlers.Handler) {
	skills := api.Group("/skills")
	skills.Get("", h.ListSkills)
	skills.Get("/:skill/users", h.GetUsersWithSkill)

	api.Get("/stats", middleware.Protected(h.Config.JWTSecret), h.GetStats)
}
