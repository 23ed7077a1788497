package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/brainbarter/brain_barter/notifications"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const NotificationChannel = "brainbarter:notifications"

type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisBridge fans notifications out to every instance through Redis
// pub/sub; each instance hands what it receives to its local hub. Events go
// to the local hub directly while this instance holds no subscription, when
// a publish fails, and when a publish reached no subscriber.
type RedisBridge struct {
	client         *redis.Client
	pub            publisher
	local          *Hub
	channel        string
	publishTimeout time.Duration
	subscribed     atomic.Bool
}

func NewRedisBridge(client *redis.Client, local *Hub) *RedisBridge {
	return &RedisBridge{
		client:         client,
		pub:            client,
		local:          local,
		channel:        NotificationChannel,
		publishTimeout: 2 * time.Second,
	}
}

type wireEvent struct {
	UserID  uuid.UUID               `json:"user_id"`
	Kind    notifications.EventKind `json:"event"`
	Payload json.RawMessage         `json:"data"`
}

func (b *RedisBridge) Notify(userID uuid.UUID, kind notifications.EventKind, payload any) {
	if !b.subscribed.Load() {
		b.local.Notify(userID, kind, payload)
		return
	}

	data, err := json.Marshal(notifications.Event{UserID: userID, Kind: kind, Payload: payload})
	if err != nil {
		log.Error().Err(err).Str("event", string(kind)).Msg("failed to encode notification, delivering locally")
		b.local.Notify(userID, kind, payload)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), b.publishTimeout)
		defer cancel()
		receivers, err := b.pub.Publish(ctx, b.channel, data).Result()
		switch {
		case err != nil:
			log.Warn().Err(err).Str("event", string(kind)).Msg("redis publish failed, delivering locally")
			b.local.Notify(userID, kind, payload)
		case receivers == 0:
			log.Warn().Str("event", string(kind)).Msg("redis publish reached no subscriber, delivering locally")
			b.local.Notify(userID, kind, payload)
		}
	}()
}

// Run relays published events to the local hub until ctx is cancelled.
// While Run is not subscribed, Notify delivers to the local hub only.
func (b *RedisBridge) Run(ctx context.Context) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe to %s: %w", b.channel, err)
	}
	b.subscribed.Store(true)
	defer b.subscribed.Store(false)
	log.Info().Str("channel", b.channel).Msg("notification bridge subscribed")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				log.Warn().Str("channel", b.channel).Msg("notification bridge channel closed, delivering locally")
				return nil
			}
			b.relay(msg.Payload)
		}
	}
}

func (b *RedisBridge) relay(payload string) {
	var ev wireEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		log.Warn().Err(err).Msg("discarding malformed notification from redis")
		return
	}
	if ev.UserID == uuid.Nil || ev.Kind == "" {
		log.Warn().Msg("discarding unaddressed notification from redis")
		return
	}
	b.local.Notify(ev.UserID, ev.Kind, ev.Payload)
}
