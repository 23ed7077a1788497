package routes

import (
	"github.com/brainbarter/brain_barter/handlers"
	"github.com/brainbarter/brain_barter/middleware"
	"github.com/gofiber/fiber/v2"
)

func CalendarRoutes(api fiber.Router, h *handlers.Handler) {
	calendar := api.Group("/calendar", middleware.Protected(h.Config.JWTSecret))
	calendar.Get("", h.GetCalendarEvents)
	calendar.Post("", h.CreateCalendarEvent)
	calendar.Put("/:id", h.UpdateCalendarEvent)
	calendar.Delete("/:id", h.DeleteCalendarEvent)
}
