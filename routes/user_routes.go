package routes

import (
	"github.com/brainbarter/brain_barter/handlers"
	"github.com/brainbarter/brain_barter/middleware"
	"github.com/gofiber/fiber/v2"
)

func UserRoutes(api fiber.Router, h *handlers.Handler) {
	users := api.Group("/users", middleware.Protected(h.Config.JWTSecret))
	users.Get("", h.ListUsers)
	users.Get("/me", h.GetMe)
	users.Get("/matched", h.GetMatchedUsers)
	users.Get("/search", h.SearchUsers)
	users.Put("/skills", h.UpdateSkills)
	users.Get("/:id", h.GetUserByID)
}
