package handlers

import (
	"time"

	"github.com/brainbarter/brain_barter/models"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type PlatformStats struct {
	ActiveLearners  int64 `json:"active_learners"`
	TopicsAvailable int64 `json:"topics_available"`
	KnowledgeShared int64 `json:"knowledge_shared"`
	ExchangesToday  int64 `json:"exchanges_today"`
	OnlineNow       int   `json:"online_now"`
}

func (h *Handler) GetStats(c *fiber.Ctx) error {
	db := h.DB.WithContext(c.UserContext())
	var stats PlatformStats

	if err := db.Model(&models.User{}).Count(&stats.ActiveLearners).Error; err != nil {
		log.Error().Err(err).Msg("failed to count users")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Server error"})
	}
	if err := db.Raw(`SELECT COUNT(DISTINCT skill) FROM users, jsonb_array_elements_text(users.skills) AS skill`).
		Scan(&stats.TopicsAvailable).Error; err != nil {
		log.Error().Err(err).Msg("failed to count skills")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Server error"})
	}
	if err := db.Model(&models.Session{}).
		Where("status = ?", models.SessionCompleted).
		Count(&stats.KnowledgeShared).Error; err != nil {
		log.Error().Err(err).Msg("failed to count completed sessions")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Server error"})
	}

	now := time.Now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if err := db.Model(&models.Session{}).
		Where("status = ? AND updated_at >= ?", models.SessionCompleted, midnight).
		Count(&stats.ExchangesToday).Error; err != nil {
		log.Error().Err(err).Msg("failed to count today's sessions")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Server error"})
	}

	if h.Registry != nil {
		stats.OnlineNow = h.Registry.Online()
	}
	return c.JSON(stats)
}
