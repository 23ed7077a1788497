package handlers

import (
	"errors"

	config "github.com/brainbarter/brain_barter/configs"
	"github.com/brainbarter/brain_barter/middleware"
	"github.com/brainbarter/brain_barter/notifications"
	"github.com/brainbarter/brain_barter/services"
	"github.com/brainbarter/brain_barter/store"
	"github.com/brainbarter/brain_barter/websocket"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var validate = validator.New()

// Handler carries the dependencies shared by every route. DB serves the
// read-mostly listings (match suggestions, conversations, calendar, search,
// stats); sessions, accounts, match requests and messages go through Store.
type Handler struct {
	Config     *config.Config
	DB         *gorm.DB
	Store      store.Store
	Settlement *services.SettlementService
	Notifier   notifications.Notifier
	Registry   *websocket.Registry
	Mailer     *notifications.Mailer
}

// currentUser reads the caller's id from the verified token. When ok is
// false the 401 response has already been written and err is what the
// handler should return.
func (h *Handler) currentUser(c *fiber.Ctx) (uuid.UUID, bool, error) {
	id, err := middleware.CurrentUserID(c)
	if err != nil {
		return uuid.Nil, false, c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token claims"})
	}
	return id, true, nil
}

func paramID(c *fiber.Ctx, name string) (uuid.UUID, bool, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid " + name})
	}
	return id, true, nil
}

// settlementError maps service errors to HTTP status codes.
func settlementError(c *fiber.Ctx, err error) error {
	status := fiber.StatusBadRequest
	switch {
	case errors.Is(err, services.ErrSessionNotFound), errors.Is(err, services.ErrUserNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrNotAuthorized):
		status = fiber.StatusForbidden
	case errors.Is(err, services.ErrInsufficientCredits),
		errors.Is(err, services.ErrDuplicateProposal),
		errors.Is(err, services.ErrInvalidProposal),
		errors.Is(err, services.ErrInvalidState),
		errors.Is(err, services.ErrAlreadyCompleted),
		errors.Is(err, services.ErrInvalidRating),
		errors.Is(err, services.ErrInvalidDecision),
		errors.Is(err, services.ErrInvalidDispute):
	default:
		log.Error().Err(err).Str("path", c.Path()).Msg("settlement operation failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
