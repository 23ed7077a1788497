package routes

import (
	"github.com/brainbarter/brain_barter/handlers"
	"github.com/brainbarter/brain_barter/middleware"
	"github.com/gofiber/fiber/v2"
)

func AuthRoutes(api fiber.Router, h *handlers.Handler) {
	auth := api.Group("/auth")
	auth.Post("/register", h.RegisterUser)
	auth.Post("/login", h.LoginUser)

	protected := middleware.Protected(h.Config.JWTSecret)
	auth.Delete("/account", protected, h.DeleteAccount)
	auth.Put("/password", protected, h.ChangePassword)
}
