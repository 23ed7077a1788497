package handlers

import (
	"github.com/brainbarter/brain_barter/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ProposeSessionRequest struct {
	TeacherID string `json:"teacher_id" validate:"required,uuid"`
	Skill     string `json:"skill" validate:"required,max=255"`
}

type CompleteSessionRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

type DisputeSessionRequest struct {
	Reason string `json:"reason" validate:"required,max=2000"`
}

func (h *Handler) ProposeSession(c *fiber.Ctx) error {
	learnerID, ok, err := h.currentUser(c)
	if !ok {
		return err
	}

	var req ProposeSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	teacherID, _ := uuid.Parse(req.TeacherID)

	session, err := h.Settlement.ProposeSession(c.UserContext(), learnerID, teacherID, req.Skill)
	if err != nil {
		return settlementError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Session proposed!", "session": session})
}

func (h *Handler) GetIncomingSessions(c *fiber.Ctx) error {
	userID, ok, err := h.currentUser(c)
	if !ok {
		return err
	}
	sessions, err := h.Settlement.IncomingProposals(c.UserContext(), userID)
	if err != nil {
		return settlementError(c, err)
	}
	return c.JSON(fiber.Map{"sessions": sessions})
}

func (h *Handler) GetMySessions(c *fiber.Ctx) error {
	userID, ok, err := h.currentUser(c)
	if !ok {
		return err
	}
	sessions, err := h.Settlement.SessionsFor(c.UserContext(), userID)
	if err != nil {
		return settlementError(c, err)
	}
	return c.JSON(fiber.Map{"sessions": sessions})
}

func (h *Handler) GetSessionsWithPartner(c *fiber.Ctx) error {
	userID, ok, err := h.currentUser(c)
	if !ok {
		return err
	}
	partnerID, ok, err := paramID(c, "partnerId")
	if !ok {
		return err
	}
	sessions, err := h.Settlement.SessionsWith(c.UserContext(), userID, partnerID)
	if err != nil {
		return settlementError(c, err)
	}
	return c.JSON(fiber.Map{"sessions": sessions})
}

func (h *Handler) GetSession(c *fiber.Ctx) error {
	userID, ok, err := h.currentUser(c)
	if !ok {
		return err
	}
	sessionID, ok, err := paramID(c, "id")
	if !ok {
		return err
	}
	session, err := h.Settlement.GetSession(c.UserContext(), sessionID, userID)
	if err != nil {
		return settlementError(c, err)
	}
	return c.JSON(fiber.Map{"session": session})
}

func (h *Handler) AcceptSession(c *fiber.Ctx) error {
	return h.respond(c, services.DecisionAccept)
}

func (h *Handler) RejectSession(c *fiber.Ctx) error {
	return h.respond(c, services.DecisionReject)
}

func (h *Handler) respond(c *fiber.Ctx, decision services.Decision) error {
	userID, ok, err := h.currentUser(c)
	if !ok {
		return err
	}
	sessionID, ok, err := paramID(c, "id")
	if !ok {
		return err
	}
	session, err := h.Settlement.RespondToSession(c.UserContext(), sessionID, userID, decision)
	if err != nil {
		return settlementError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Session " + string(session.Status), "session": session})
}

func (h *Handler) CompleteSession(c *fiber.Ctx) error {
	userID, ok, err := h.currentUser(c)
	if !ok {
		return err
	}
	sessionID, ok, err := paramID(c, "id")
	if !ok {
		return err
	}

	var req CompleteSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	session, err := h.Settlement.CompleteSession(c.UserContext(), sessionID, userID, req.Rating, req.Comment)
	if err != nil {
		return settlementError(c, err)
	}

	message := "Completion recorded. Waiting for your partner."
	if session.LearnerCompleted && session.TeacherCompleted {
		message = "Session complete! 1 credit transferred."
	}
	return c.JSON(fiber.Map{"message": message, "session": session})
}

func (h *Handler) DisputeSession(c *fiber.Ctx) error {
	userID, ok, err := h.currentUser(c)
	if !ok {
		return err
	}
	sessionID, ok, err := paramID(c, "id")
	if !ok {
		return err
	}

	var req DisputeSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	session, err := h.Settlement.DisputeSession(c.UserContext(), sessionID, userID, req.Reason)
	if err != nil {
		return settlementError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Session disputed", "session": session})
}
