package handlers

import (
	"strings"

	"github.com/brainbarter/brain_barter/models"
	"github.com/brainbarter/brain_barter/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const searchLimit = 50

type UpdateSkillsRequest struct {
	Skills       []string `json:"skills" validate:"max=50,dive,max=100"`
	SkillsWanted []string `json:"skills_wanted" validate:"max=50,dive,max=100"`
}

func (h *Handler) GetMe(c *fiber.Ctx) error {
	userID, ok, err := h.currentUser(c)
	if !ok {
		return err
	}
	user, err := h.Store.Users().GetUser(c.UserContext(), userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	return c.JSON(user)
}

func (h *Handler) GetUserByID(c *fiber.Ctx) error {
	if _, ok, err := h.currentUser(c); !ok {
		return err
	}
	id, ok, err := paramID(c, "id")
	if !ok {
		return err
	}
	user, err := h.Store.Users().GetUser(c.UserContext(), id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	return c.JSON(user)
}

func (h *Handler) UpdateSkills(c *fiber.Ctx) error {
	userID, ok, err := h.currentUser(c)
	if !ok {
		return err
	}

	var req UpdateSkillsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	user, err := h.Store.Users().UpdateSkills(c.UserContext(), userID, utils.NormalizeSkills(req.Skills), utils.NormalizeSkills(req.SkillsWanted))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	return c.JSON(user)
}

// ListUsers returns every other user, for the chat partner picker.
func (h *Handler) ListUsers(c *fiber.Ctx) error {
	userID, ok, err := h.currentUser(c)
	if !ok {
		return err
	}

	var users []models.User
	if err := h.DB.WithContext(c.UserContext()).
		Where("id <> ?", userID).
		Order("first_name asc, last_name asc").
		Find(&users).Error; err != nil {
		log.Error().Err(err).Msg("failed to list users")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch users"})
	}
	return c.JSON(publicUsers(users))
}

// GetMatchedUsers returns the users the caller has an accepted match with.
func (h *Handler) GetMatchedUsers(c *fiber.Ctx) error {
	userID, ok, err := h.currentUser(c)
	if !ok {
		return err
	}

	var users []models.User
	if err := h.DB.WithContext(c.UserContext()).
		Where("id IN (?)", h.DB.Model(&models.Match{}).Select("partner_id").Where("user_id = ?", userID)).
		Find(&users).Error; err != nil {
		log.Error().Err(err).Msg("failed to fetch matched users")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Server error"})
	}
	return c.JSON(publicUsers(users))
}

// SearchUsers matches q against name, email, skills or wanted skills,
// depending on filter (name, email, skills, skillsWanted, all).
func (h *Handler) SearchUsers(c *fiber.Ctx) error {
	userID, ok, err := h.currentUser(c)
	if !ok {
		return err
	}

	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		return c.JSON(fiber.Map{"users": []models.PublicUser{}})
	}
	filter := c.Query("filter", "all")
	switch filter {
	case "all", "name", "email", "skills", "skillsWanted":
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unknown search filter"})
	}

	where, args := searchConditions(q, filter)
	var users []models.User
	if err := h.DB.WithContext(c.UserContext()).
		Where("id <> ?", userID).
		Where(where, args...).
		Limit(searchLimit).
		Find(&users).Error; err != nil {
		log.Error().Err(err).Str("q", q).Msg("user search failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Search failed"})
	}
	return c.JSON(fiber.Map{"users": publicUsers(users)})
}

// searchConditions builds an OR of ILIKE clauses for the chosen filter.
func searchConditions(q, filter string) (string, []interface{}) {
	like := "%" + q + "%"
	all := filter == "all"
	var (
		clauses []string
		args    []interface{}
	)

	if all || filter == "name" {
		parts := strings.Fields(q)
		if len(parts) == 1 {
			clauses = append(clauses, "first_name ILIKE ?", "last_name ILIKE ?")
			args = append(args, like, like)
		} else {
			first, rest := "%"+parts[0]+"%", "%"+strings.Join(parts[1:], " ")+"%"
			clauses = append(clauses, "(first_name ILIKE ? AND last_name ILIKE ?)", "(first_name ILIKE ? AND last_name ILIKE ?)")
			args = append(args, first, rest, rest, first)
		}
	}
	if all || filter == "email" {
		clauses = append(clauses, "email ILIKE ?")
		args = append(args, like)
	}
	if all || filter == "skills" {
		clauses = append(clauses, "skills::text ILIKE ?")
		args = append(args, like)
	}
	if all || filter == "skillsWanted" {
		clauses = append(clauses, "skills_wanted::text ILIKE ?")
		args = append(args, like)
	}
	return "(" + strings.Join(clauses, " OR ") + ")", args
}

func publicUsers(users []models.User) []models.PublicUser {
	out := make([]models.PublicUser, 0, len(users))
	for i := range users {
		out = append(out, users[i].Public())
	}
	return out
}
