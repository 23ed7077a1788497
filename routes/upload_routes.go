package routes

import (
	"github.com/brainbarter/brain_barter/handlers"
	"github.com/brainbarter/brain_barter/middleware"
	"github.com/gofiber/fiber/v2"
)

func UploadRoutes(api fiber.Router, h *handlers.Handler) {
	uploads := api.Group("/uploads", middleware.Protected(h.Config.JWTSecret))
	uploads.Get("/signature", h.GenerateUploadSignature)
}
