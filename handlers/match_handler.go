package handlers

import (
	"errors"
	"time"

	"github.com/brainbarter/brain_barter/models"
	"github.com/brainbarter/brain_barter/notifications"
	"github.com/brainbarter/brain_barter/services"
	"github.com/brainbarter/brain_barter/store"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	errMatchRequestNotFound = errors.New("match request not found")
	errMatchNotRecipient    = errors.New("not authorized")
	errMatchAnswered        = errors.New("match request already answered")
)

type SendMatchRequest struct {
	RecipientID    string `json:"recipient_id" validate:"required,uuid"`
	SkillOffered   string `json:"skill_offered" validate:"required,max=255"`
	SkillRequested string `json:"skill_requested" validate:"required,max=255"`
}

// AcceptedMatch is an accepted partnership seen from the caller's side.
type AcceptedMatch struct {
	ID                  uuid.UUID `json:"id"`
	PartnerID           uuid.UUID `json:"partner_id"`
	FirstName           string    `json:"first_name"`
	LastName            string    `json:"last_name"`
	Email               string    `json:"email"`
	SkillOffered        string    `json:"skill_offered"`
	SkillRequested      string    `json:"skill_requested"`
	PartnerSkills       []string  `json:"partner_skills"`
	PartnerSkillsWanted []string  `json:"partner_skills_wanted"`
	AcceptedAt          time.Time `json:"accepted_at"`
}

func (h *Handler) GetPotentialMatches(c *fiber.Ctx) error {
	userID, ok, err := h.currentUser(c)
	if !ok {
		return err
	}
	db := h.DB.WithContext(c.UserContext())

	var current models.User
	if err := db.First(&current, "id = ?", userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	var candidates []models.User
	if err := db.Where("id <> ?", userID).Find(&candidates).Error; err != nil {
		log.Error().Err(err).Msg("failed to load match candidates")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Server error"})
	}

	var partnerIDs []uuid.UUID
	if err := db.Model(&models.Match{}).Where("user_id = ?", userID).Pluck("partner_id", &partnerIDs).Error; err != nil {
		log.Error().Err(err).Msg("failed to load existing matches")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Server error"})
	}
	matched := make(map[uuid.UUID]bool, len(partnerIDs))
	for _, id := range partnerIDs {
		matched[id] = true
	}

	return c.JSON(fiber.Map{"potential_matches": services.PotentialMatches(&current, candidates, matched)})
}

func (h *Handler) GetAcceptedMatches(c *fiber.Ctx) error {
	userID, ok, err := h.currentUser(c)
	if !ok {
		return err
	}

	var matches []models.Match
	if err := h.DB.WithContext(c.UserContext()).
		Preload("Partner").
		Where("user_id = ?", userID).
		Order("accepted_at desc").
		Find(&matches).Error; err != nil {
		log.Error().Err(err).Msg("failed to fetch accepted matches")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Server error"})
	}

	out := make([]AcceptedMatch, 0, len(matches))
	for _, m := range matches {
		// Partner deleted their account.
		if m.Partner == nil {
			continue
		}
		out = append(out, AcceptedMatch{
			ID:                  m.ID,
			PartnerID:           m.PartnerID,
			FirstName:           m.Partner.FirstName,
			LastName:            m.Partner.LastName,
			Email:               m.Partner.Email,
			SkillOffered:        m.SkillOffered,
			SkillRequested:      m.SkillRequested,
			PartnerSkills:       m.Partner.Skills,
			PartnerSkillsWanted: m.Partner.SkillsWanted,
			AcceptedAt:          m.AcceptedAt,
		})
	}
	return c.JSON(fiber.Map{"matches": out})
}

func (h *Handler) SendMatchRequest(c *fiber.Ctx) error {
	senderID, ok, err := h.currentUser(c)
	if !ok {
		return err
	}

	var req SendMatchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	recipientID, _ := uuid.Parse(req.RecipientID)
	if recipientID == senderID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "You cannot match with yourself"})
	}

	ctx := c.UserContext()
	sender, err := h.Store.Users().GetUser(ctx, senderID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	recipient, err := h.Store.Users().GetUser(ctx, recipientID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	pending, err := h.Store.Matches().HasPendingRequest(ctx, senderID, recipientID)
	if err != nil {
		log.Error().Err(err).Msg("failed to check pending match requests")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Server error"})
	}
	if pending {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Match request already sent"})
	}

	request := models.MatchRequest{
		SenderID:       senderID,
		SenderName:     sender.DisplayName(),
		RecipientID:    recipientID,
		RecipientName:  recipient.DisplayName(),
		Status:         models.MatchPending,
		SkillOffered:   req.SkillOffered,
		SkillRequested: req.SkillRequested,
	}
	if err := h.Store.Matches().CreateRequest(ctx, &request); err != nil {
		log.Error().Err(err).Msg("failed to create match request")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Server error"})
	}

	h.Notifier.Notify(recipientID, notifications.EventMatchRequest, request)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Match request sent!", "match_request": request})
}

func (h *Handler) GetIncomingMatchRequests(c *fiber.Ctx) error {
	return h.listMatchRequests(c, true)
}

func (h *Handler) GetOutgoingMatchRequests(c *fiber.Ctx) error {
	return h.listMatchRequests(c, false)
}

func (h *Handler) listMatchRequests(c *fiber.Ctx, incoming bool) error {
	userID, ok, err := h.currentUser(c)
	if !ok {
		return err
	}

	requests, err := h.Store.Matches().ListRequests(c.UserContext(), userID, incoming)
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch match requests")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Server error"})
	}
	if requests == nil {
		requests = []models.MatchRequest{}
	}
	return c.JSON(fiber.Map{"requests": requests})
}

func (h *Handler) AcceptMatchRequest(c *fiber.Ctx) error {
	return h.answerMatchRequest(c, models.MatchAccepted)
}

func (h *Handler) RejectMatchRequest(c *fiber.Ctx) error {
	return h.answerMatchRequest(c, models.MatchRejected)
}

// answerMatchRequest locks the request and, on acceptance, writes one Match
// row per side with the skills mirrored for the recipient.
func (h *Handler) answerMatchRequest(c *fiber.Ctx, status string) error {
	userID, ok, err := h.currentUser(c)
	if !ok {
		return err
	}
	requestID, ok, err := paramID(c, "id")
	if !ok {
		return err
	}

	var request models.MatchRequest
	err = h.Store.WithinTx(c.UserContext(), func(tx store.Tx) error {
		ctx := c.UserContext()
		locked, err := tx.Matches().FindRequestForUpdate(ctx, requestID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return errMatchRequestNotFound
			}
			return err
		}
		if locked.RecipientID != userID {
			return errMatchNotRecipient
		}
		if locked.Status != models.MatchPending {
			return errMatchAnswered
		}

		if err := tx.Matches().SetRequestStatus(ctx, requestID, status); err != nil {
			return err
		}
		locked.Status = status
		request = *locked
		if status != models.MatchAccepted {
			return nil
		}

		now := time.Now()
		return tx.Matches().AddPair(ctx,
			models.Match{UserID: locked.SenderID, PartnerID: locked.RecipientID, SkillOffered: locked.SkillOffered, SkillRequested: locked.SkillRequested, AcceptedAt: now},
			models.Match{UserID: locked.RecipientID, PartnerID: locked.SenderID, SkillOffered: locked.SkillRequested, SkillRequested: locked.SkillOffered, AcceptedAt: now},
		)
	})
	switch {
	case errors.Is(err, errMatchRequestNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Match request not found"})
	case errors.Is(err, errMatchNotRecipient):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not authorized"})
	case errors.Is(err, errMatchAnswered):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Match request already answered"})
	case err != nil:
		log.Error().Err(err).Str("request_id", requestID.String()).Msg("failed to answer match request")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Server error"})
	}

	h.Notifier.Notify(request.SenderID, notifications.EventMatchRequest, request)

	message := "Match accepted!"
	if status == models.MatchRejected {
		message = "Match rejected"
	}
	return c.JSON(fiber.Map{"message": message, "match_request": request})
}
