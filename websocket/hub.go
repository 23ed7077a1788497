package websocket

import (
	"context"

	"github.com/brainbarter/brain_barter/notifications"
	"github.com/brainbarter/brain_barter/observability"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Hub queues notifications and writes them to connections registered on
// this instance. It implements notifications.Notifier.
type Hub struct {
	registry *Registry
	events   chan notifications.Event
}

func NewHub(registry *Registry, buffer int) *Hub {
	if buffer <= 0 {
		buffer = 1
	}
	return &Hub{
		registry: registry,
		events:   make(chan notifications.Event, buffer),
	}
}

func (h *Hub) Registry() *Registry {
	return h.registry
}

// Notify enqueues the event; when the queue is full the event is dropped.
func (h *Hub) Notify(userID uuid.UUID, kind notifications.EventKind, payload any) {
	select {
	case h.events <- notifications.Event{UserID: userID, Kind: kind, Payload: payload}:
	default:
		observability.NotificationsDelivered.WithLabelValues(string(kind), "dropped").Inc()
		log.Warn().Str("user_id", userID.String()).Str("event", string(kind)).Msg("notification queue full, dropping event")
	}
}

// Run drains the queue until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	log.Info().Msg("notification hub started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("notification hub stopped")
			return
		case ev := <-h.events:
			h.Deliver(ev)
		}
	}
}

// Deliver writes ev to the user's connection. A failed write closes and
// unregisters that connection.
func (h *Hub) Deliver(ev notifications.Event) bool {
	client, ok := h.registry.Lookup(ev.UserID)
	if !ok {
		observability.NotificationsDelivered.WithLabelValues(string(ev.Kind), "offline").Inc()
		return false
	}

	if err := client.Send(notifications.Envelope{Event: ev.Kind, Data: ev.Payload}); err != nil {
		observability.NotificationsDelivered.WithLabelValues(string(ev.Kind), "failed").Inc()
		log.Warn().Err(err).Str("user_id", ev.UserID.String()).Str("event", string(ev.Kind)).Msg("failed to deliver notification, dropping connection")
		if h.registry.Remove(client) {
			_ = client.Close()
		}
		return false
	}

	observability.NotificationsDelivered.WithLabelValues(string(ev.Kind), "delivered").Inc()
	return true
}
