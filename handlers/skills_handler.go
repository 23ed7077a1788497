package handlers

import (
	"strings"

	"github.com/brainbarter/brain_barter/models"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const skillUsersLimit = 20

type SkillCount struct {
	Skill string `json:"skill"`
	Count int64  `json:"count"`
}

// ListSkills returns every offered skill with the number of users teaching
// it, most popular first.
func (h *Handler) ListSkills(c *fiber.Ctx) error {
	var skills []SkillCount
	err := h.DB.WithContext(c.UserContext()).Raw(`
		SELECT skill, COUNT(*) AS count
		FROM users, jsonb_array_elements_text(users.skills) AS skill
		GROUP BY skill
		ORDER BY count DESC, skill ASC`).
		Scan(&skills).Error
	if err != nil {
		log.Error().Err(err).Msg("failed to count skills")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch skills"})
	}
	if skills == nil {
		skills = []SkillCount{}
	}
	return c.JSON(fiber.Map{"skills": skills})
}

func (h *Handler) GetUsersWithSkill(c *fiber.Ctx) error {
	skill := strings.TrimSpace(c.Params("skill"))
	if skill == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Skill is required"})
	}

	var users []models.User
	if err := h.DB.WithContext(c.UserContext()).
		Where("skills::text ILIKE ?", "%"+skill+"%").
		Limit(skillUsersLimit).
		Find(&users).Error; err != nil {
		log.Error().Err(err).Str("skill", skill).Msg("failed to fetch users for skill")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch users for skill"})
	}
	return c.JSON(fiber.Map{"users": publicUsers(users)})
}
