package routes

import (
	"github.com/brainbarter/brain_barter/handlers"
	"github.com/gofiber/fiber/v2"
)

// Setup mounts every route group under /api/v1.
func Setup(app *fiber.App, h *handlers.Handler) {
	api := app.Group("/api/v1")

	AuthRoutes(api, h)
	PublicRoutes(api, h)
	UserRoutes(api, h)
	MatchRoutes(api, h)
	SessionRoutes(api, h)
	ChatRoutes(api, h)
	CalendarRoutes(api, h)
	UploadRoutes(api, h)
}
