package notifications

import (
	"github.com/google/uuid"
)

type EventKind string

const (
	EventNewSessionProposal EventKind = "new_session_proposal"
	EventSessionUpdate      EventKind = "session_update"
	EventSessionReminder    EventKind = "session_reminder"
	EventMatchRequest       EventKind = "match_request"
	EventReceiveMessage     EventKind = "receiveMessage"
	EventMessageSent        EventKind = "messageSent"
	EventMessageError       EventKind = "messageError"
	EventTyping             EventKind = "typing"
)

// Notifier delivers an event to a user if they can be reached. Delivery is
// best-effort: Notify returns immediately, never reports failure, and a
// lost event never affects the state change that produced it.
type Notifier interface {
	Notify(userID uuid.UUID, kind EventKind, payload any)
}

// Event is one addressed notification.
type Event struct {
	UserID  uuid.UUID `json:"user_id"`
	Kind    EventKind `json:"event"`
	Payload any       `json:"data"`
}

// Envelope is the frame written to a client socket.
type Envelope struct {
	Event EventKind `json:"event"`
	Data  any       `json:"data"`
}

// SessionUpdate is the payload of EventSessionUpdate.
type SessionUpdate struct {
	SessionID uuid.UUID `json:"session_id"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
}

// Discard drops every event.
type Discard struct{}

func (Discard) Notify(uuid.UUID, EventKind, any) {}
