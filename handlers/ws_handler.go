package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/brainbarter/brain_barter/middleware"
	"github.com/brainbarter/brain_barter/models"
	"github.com/brainbarter/brain_barter/notifications"
	"github.com/brainbarter/brain_barter/websocket"
	websocketcontrib "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	authFrameTimeout = 10 * time.Second
	maxMessageLength = 5000
	// Client timestamps further than this from server time are replaced.
	maxClockSkew = 5 * time.Minute
)

// SocketFrame is any frame a client sends. The first frame must be
// {"type":"auth","token":...}; the sender of later frames is always the
// authenticated user, never a field of the frame.
type SocketFrame struct {
	Type        string  `json:"type"`
	Token       string  `json:"token,omitempty"`
	RecipientID string  `json:"recipient_id,omitempty"`
	Text        string  `json:"text,omitempty"`
	MessageType string  `json:"message_type,omitempty"`
	FileURL     *string `json:"file_url,omitempty"`
	Timestamp   *int64  `json:"timestamp,omitempty"`
	IsTyping    bool    `json:"is_typing,omitempty"`
	Message     string  `json:"message,omitempty"`
}

type TypingNotice struct {
	From     uuid.UUID `json:"from"`
	IsTyping bool      `json:"is_typing"`
}

func (h *Handler) ServeWs(c *websocketcontrib.Conn) {
	userID, ok := h.authenticateSocket(c)
	if !ok {
		_ = c.Close()
		return
	}

	client := websocket.NewClient(userID, c)
	if prev := h.Registry.Add(client); prev != nil {
		_ = prev.Close()
	}
	log.Info().Str("user_id", userID.String()).Msg("websocket client registered")
	_ = client.Send(fiber.Map{"event": "authenticated", "data": fiber.Map{"user_id": userID}})

	defer func() {
		if h.Registry.Remove(client) {
			log.Info().Str("user_id", userID.String()).Msg("websocket client unregistered")
		}
		_ = c.Close()
	}()

	for {
		var frame SocketFrame
		if err := c.ReadJSON(&frame); err != nil {
			if websocketcontrib.IsCloseError(err, websocketcontrib.CloseGoingAway, websocketcontrib.CloseNormalClosure, websocketcontrib.CloseAbnormalClosure) {
				log.Debug().Str("user_id", userID.String()).Msg("websocket closed")
			} else {
				log.Warn().Err(err).Str("user_id", userID.String()).Msg("websocket read error")
			}
			return
		}
		h.handleFrame(context.Background(), client, frame)
	}
}

func (h *Handler) authenticateSocket(c *websocketcontrib.Conn) (uuid.UUID, bool) {
	_ = c.SetReadDeadline(time.Now().Add(authFrameTimeout))
	defer c.SetReadDeadline(time.Time{})

	var frame SocketFrame
	if err := c.ReadJSON(&frame); err != nil || frame.Type != "auth" {
		log.Warn().Err(err).Str("type", frame.Type).Msg("websocket auth failed: invalid or missing auth message")
		_ = c.WriteJSON(fiber.Map{"error": "Invalid or missing auth message"})
		return uuid.Nil, false
	}

	userID, err := middleware.ParseToken(h.Config.JWTSecret, frame.Token)
	if err != nil {
		log.Warn().Err(err).Msg("websocket auth failed: invalid token")
		_ = c.WriteJSON(fiber.Map{"error": "Invalid token"})
		return uuid.Nil, false
	}
	return userID, true
}

func (h *Handler) handleFrame(ctx context.Context, client *websocket.Client, frame SocketFrame) {
	switch frame.Type {
	case "privateMessage":
		h.sendPrivateMessage(ctx, client, frame)
	case "typing":
		to, err := uuid.Parse(frame.RecipientID)
		if err != nil {
			return
		}
		h.Notifier.Notify(to, notifications.EventTyping, TypingNotice{From: client.UserID, IsTyping: frame.IsTyping})
	case "session_decision":
		to, err := uuid.Parse(frame.RecipientID)
		if err != nil {
			return
		}
		if !h.matchedWith(ctx, client, to) {
			return
		}
		h.Notifier.Notify(to, notifications.EventSessionUpdate, notifications.SessionUpdate{Message: frame.Message})
	default:
		messageError(client, "Unknown frame type")
	}
}

// sendPrivateMessage stores a chat message between mutually matched users,
// pushes it to the recipient and acknowledges it to the sender.
func (h *Handler) sendPrivateMessage(ctx context.Context, client *websocket.Client, frame SocketFrame) {
	text := strings.TrimSpace(frame.Text)
	recipientID, err := uuid.Parse(frame.RecipientID)
	if err != nil || text == "" || len(text) > maxMessageLength {
		messageError(client, "Invalid message payload")
		return
	}
	msgType := frame.MessageType
	switch msgType {
	case "":
		msgType = "text"
	case "text", "file", "video":
	default:
		messageError(client, "Invalid message payload")
		return
	}

	if !h.matchedWith(ctx, client, recipientID) {
		return
	}

	message := models.Message{
		SenderID:    client.UserID,
		RecipientID: recipientID,
		Text:        text,
		Type:        msgType,
		FileURL:     frame.FileURL,
		Timestamp:   messageTime(time.Now(), frame.Timestamp),
	}
	if err := h.Store.Messages().Create(ctx, &message); err != nil {
		log.Error().Err(err).Str("user_id", client.UserID.String()).Msg("failed to save message")
		messageError(client, "Failed to send message")
		return
	}

	h.Notifier.Notify(recipientID, notifications.EventReceiveMessage, message)
	_ = client.Send(notifications.Envelope{Event: notifications.EventMessageSent, Data: message})
}

// matchedWith reports whether the client's user and partner accepted each
// other, answering the client with a message error when they did not.
func (h *Handler) matchedWith(ctx context.Context, client *websocket.Client, partnerID uuid.UUID) bool {
	matched, err := h.Store.Matches().Mutual(ctx, client.UserID, partnerID)
	if err != nil {
		log.Error().Err(err).Str("user_id", client.UserID.String()).Msg("failed to check match")
		messageError(client, "Failed to send message")
		return false
	}
	if !matched {
		messageError(client, "You can only message users with accepted matches")
		return false
	}
	return true
}

// messageTime keeps a client's send time (unix millis) only when it lies
// within maxClockSkew of now.
func messageTime(now time.Time, sentMillis *int64) time.Time {
	if sentMillis == nil {
		return now
	}
	sent := time.UnixMilli(*sentMillis)
	if sent.Before(now.Add(-maxClockSkew)) || sent.After(now.Add(maxClockSkew)) {
		return now
	}
	return sent
}

func messageError(client *websocket.Client, msg string) {
	_ = client.Send(notifications.Envelope{Event: notifications.EventMessageError, Data: fiber.Map{"error": msg}})
}
