package handlers

import (
	"sort"
	"time"

	"github.com/brainbarter/brain_barter/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type MarkReadRequest struct {
	SenderID string `json:"sender_id" validate:"required,uuid"`
}

type Conversation struct {
	PartnerID   uuid.UUID  `json:"partner_id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Email       string     `json:"email"`
	LastMessage string     `json:"last_message"`
	Timestamp   time.Time  `json:"timestamp"`
	SenderID    *uuid.UUID `json:"sender_id,omitempty"`
	UnreadCount int64      `json:"unread_count"`
}

// GetMessages returns the full history with a matched partner, oldest first.
func (h *Handler) GetMessages(c *fiber.Ctx) error {
	userID, ok, err := h.currentUser(c)
	if !ok {
		return err
	}
	partnerID, ok, err := paramID(c, "partnerId")
	if !ok {
		return err
	}
	ctx := c.UserContext()

	matched, err := h.Store.Matches().Mutual(ctx, userID, partnerID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Server error"})
	}
	if !matched {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":    "You can only view messages with accepted matches",
			"messages": []models.Message{},
		})
	}

	messages, err := h.Store.Messages().Between(ctx, userID, partnerID)
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch messages")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch messages"})
	}
	if messages == nil {
		messages = []models.Message{}
	}
	return c.JSON(fiber.Map{"messages": messages})
}

// GetConversations lists every accepted match with the latest message and
// the unread count, most recent first.
func (h *Handler) GetConversations(c *fiber.Ctx) error {
	userID, ok, err := h.currentUser(c)
	if !ok {
		return err
	}
	db := h.DB.WithContext(c.UserContext())

	var matches []models.Match
	if err := db.Preload("Partner").Where("user_id = ?", userID).Find(&matches).Error; err != nil {
		log.Error().Err(err).Msg("failed to fetch conversations")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Server error"})
	}

	conversations := make([]Conversation, 0, len(matches))
	for _, m := range matches {
		if m.Partner == nil {
			continue
		}
		conv := Conversation{
			PartnerID: m.PartnerID,
			FirstName: m.Partner.FirstName,
			LastName:  m.Partner.LastName,
			Email:     m.Partner.Email,
			Timestamp: m.AcceptedAt,
		}

		var last models.Message
		res := db.
			Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)", userID, m.PartnerID, m.PartnerID, userID).
			Order("timestamp desc").
			Limit(1).
			Find(&last)
		if res.Error != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Server error"})
		}
		if res.RowsAffected > 0 {
			conv.LastMessage = last.Text
			conv.Timestamp = last.Timestamp
			conv.SenderID = &last.SenderID
		}

		if err := db.Model(&models.Message{}).
			Where("sender_id = ? AND recipient_id = ? AND is_read = ?", m.PartnerID, userID, false).
			Count(&conv.UnreadCount).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Server error"})
		}
		conversations = append(conversations, conv)
	}

	sort.SliceStable(conversations, func(i, j int) bool {
		return conversations[i].Timestamp.After(conversations[j].Timestamp)
	})
	return c.JSON(fiber.Map{"conversations": conversations})
}

// MarkRead marks every message sender sent to the caller as read.
func (h *Handler) MarkRead(c *fiber.Ctx) error {
	userID, ok, err := h.currentUser(c)
	if !ok {
		return err
	}

	var req MarkReadRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	res := h.DB.WithContext(c.UserContext()).
		Model(&models.Message{}).
		Where("sender_id = ? AND recipient_id = ? AND is_read = ?", req.SenderID, userID, false).
		Update("is_read", true)
	if res.Error != nil {
		log.Error().Err(res.Error).Msg("failed to mark messages as read")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Server error"})
	}
	return c.JSON(fiber.Map{"success": true, "updated": res.RowsAffected})
}

func (h *Handler) GetUnreadCount(c *fiber.Ctx) error {
	userID, ok, err := h.currentUser(c)
	if !ok {
		return err
	}

	var count int64
	if err := h.DB.WithContext(c.UserContext()).
		Model(&models.Message{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Count(&count).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Server error"})
	}
	return c.JSON(fiber.Map{"count": count})
}
