package handlers

import (
	"errors"
	"time"

	"github.com/brainbarter/brain_barter/models"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type CalendarEventRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"max=2000"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime   string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime     string `json:"end_time" validate:"required,datetime=15:04"`
	Skill       string `json:"skill" validate:"required,max=255"`
	Type        string `json:"type" validate:"omitempty,oneof=teaching learning meeting"`
}

// apply copies the request into ev. Dates are stored as UTC midnight so the
// calendar day never shifts with the server's zone.
func (r CalendarEventRequest) apply(ev *models.CalendarEvent) error {
	date, err := time.ParseInLocation("2006-01-02", r.Date, time.UTC)
	if err != nil {
		return err
	}
	ev.Title = r.Title
	ev.Description = r.Description
	ev.Date = date
	ev.StartTime = r.StartTime
	ev.EndTime = r.EndTime
	ev.Skill = r.Skill
	ev.Type = r.Type
	if ev.Type == "" {
		ev.Type = "teaching"
	}
	return nil
}

func (h *Handler) GetCalendarEvents(c *fiber.Ctx) error {
	userID, ok, err := h.currentUser(c)
	if !ok {
		return err
	}

	var events []models.CalendarEvent
	if err := h.DB.WithContext(c.UserContext()).
		Where("user_id = ?", userID).
		Order("date asc, start_time asc").
		Find(&events).Error; err != nil {
		log.Error().Err(err).Msg("failed to fetch calendar events")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch sessions"})
	}
	return c.JSON(fiber.Map{"sessions": events})
}

func (h *Handler) CreateCalendarEvent(c *fiber.Ctx) error {
	userID, ok, err := h.currentUser(c)
	if !ok {
		return err
	}

	var req CalendarEventRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if req.EndTime <= req.StartTime {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "end_time must be after start_time"})
	}

	event := models.CalendarEvent{UserID: userID}
	if err := req.apply(&event); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid date"})
	}
	if err := h.DB.WithContext(c.UserContext()).Create(&event).Error; err != nil {
		log.Error().Err(err).Msg("failed to create calendar event")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create session"})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"session": event})
}

func (h *Handler) UpdateCalendarEvent(c *fiber.Ctx) error {
	userID, ok, err := h.currentUser(c)
	if !ok {
		return err
	}
	eventID, ok, err := paramID(c, "id")
	if !ok {
		return err
	}

	var req CalendarEventRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if req.EndTime <= req.StartTime {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "end_time must be after start_time"})
	}

	db := h.DB.WithContext(c.UserContext())
	var event models.CalendarEvent
	if err := db.First(&event, "id = ? AND user_id = ?", eventID, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update session"})
	}
	if err := req.apply(&event); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid date"})
	}
	if err := db.Save(&event).Error; err != nil {
		log.Error().Err(err).Msg("failed to update calendar event")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update session"})
	}
	return c.JSON(fiber.Map{"session": event})
}

func (h *Handler) DeleteCalendarEvent(c *fiber.Ctx) error {
	userID, ok, err := h.currentUser(c)
	if !ok {
		return err
	}
	eventID, ok, err := paramID(c, "id")
	if !ok {
		return err
	}

	res := h.DB.WithContext(c.UserContext()).Delete(&models.CalendarEvent{}, "id = ? AND user_id = ?", eventID, userID)
	if res.Error != nil {
		log.Error().Err(res.Error).Msg("failed to delete calendar event")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete session"})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	}
	return c.JSON(fiber.Map{"message": "Session deleted successfully"})
}
