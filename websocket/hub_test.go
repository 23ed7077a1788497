package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/brainbarter/brain_barter/notifications"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu      sync.Mutex
	frames  []interface{}
	failing bool
	closed  bool
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return errors.New("broken pipe")
	}
	c.frames = append(c.frames, v)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func TestRegistryRemoveOnlyCurrentConnection(t *testing.T) {
	reg := NewRegistry()
	user := uuid.New()

	old := NewClient(user, &fakeConn{})
	assert.Nil(t, reg.Add(old))

	newer := NewClient(user, &fakeConn{})
	assert.Same(t, old, reg.Add(newer))
	assert.Equal(t, 1, reg.Online())

	assert.False(t, reg.Remove(old), "stale connection must not evict the newer one")
	got, ok := reg.Lookup(user)
	require.True(t, ok)
	assert.Same(t, newer, got)

	assert.True(t, reg.Remove(newer))
	_, ok = reg.Lookup(user)
	assert.False(t, ok)
	assert.Equal(t, 0, reg.Online())
}

func TestHubDeliver(t *testing.T) {
	reg := NewRegistry()
	hub := NewHub(reg, 4)
	user := uuid.New()
	conn := &fakeConn{}
	reg.Add(NewClient(user, conn))

	ok := hub.Deliver(notifications.Event{UserID: user, Kind: notifications.EventSessionUpdate, Payload: "hi"})
	require.True(t, ok)
	require.Equal(t, 1, conn.count())
	assert.Equal(t, notifications.Envelope{Event: notifications.EventSessionUpdate, Data: "hi"}, conn.frames[0])

	assert.False(t, hub.Deliver(notifications.Event{UserID: uuid.New(), Kind: notifications.EventSessionUpdate}))
}

func TestHubDeliverFailureEvictsConnection(t *testing.T) {
	reg := NewRegistry()
	hub := NewHub(reg, 4)
	user := uuid.New()
	conn := &fakeConn{failing: true}
	reg.Add(NewClient(user, conn))

	assert.False(t, hub.Deliver(notifications.Event{UserID: user, Kind: notifications.EventTyping}))
	_, ok := reg.Lookup(user)
	assert.False(t, ok)
	assert.True(t, conn.closed)
}

func TestHubNotifyDropsWhenFull(t *testing.T) {
	hub := NewHub(NewRegistry(), 1)
	user := uuid.New()

	done := make(chan struct{})
	go func() {
		hub.Notify(user, notifications.EventTyping, 1)
		hub.Notify(user, notifications.EventTyping, 2)
		hub.Notify(user, notifications.EventTyping, 3)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a full queue")
	}
	assert.Len(t, hub.events, 1)
}

func TestHubRunDeliversQueuedEvents(t *testing.T) {
	reg := NewRegistry()
	hub := NewHub(reg, 8)
	user := uuid.New()
	conn := &fakeConn{}
	reg.Add(NewClient(user, conn))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	hub.Notify(user, notifications.EventSessionUpdate, "a")
	hub.Notify(user, notifications.EventSessionUpdate, "b")

	assert.Eventually(t, func() bool { return conn.count() == 2 }, time.Second, 10*time.Millisecond)
}

func TestRedisBridgeRelay(t *testing.T) {
	hub := NewHub(NewRegistry(), 4)
	bridge := &RedisBridge{local: hub, channel: NotificationChannel}
	user := uuid.New()

	raw, err := json.Marshal(notifications.Event{UserID: user, Kind: notifications.EventSessionUpdate, Payload: map[string]string{"message": "done"}})
	require.NoError(t, err)

	bridge.relay(string(raw))
	bridge.relay("not json")
	bridge.relay(`{"event":"session_update","data":{}}`)

	require.Len(t, hub.events, 1)
	ev := <-hub.events
	assert.Equal(t, user, ev.UserID)
	assert.Equal(t, notifications.EventSessionUpdate, ev.Kind)
	assert.JSONEq(t, `{"message":"done"}`, string(ev.Payload.(json.RawMessage)))
}

type fakePublisher struct {
	mu        sync.Mutex
	calls     int
	receivers int64
	err       error
}

func (p *fakePublisher) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return redis.NewIntResult(p.receivers, p.err)
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func TestRedisBridgeNotifyFallsBackToLocalHub(t *testing.T) {
	tests := []struct {
		name       string
		subscribed bool
		pub        *fakePublisher
		wantPubs   int
		wantLocal  int
	}{
		{name: "not subscribed", subscribed: false, pub: &fakePublisher{receivers: 1}, wantPubs: 0, wantLocal: 1},
		{name: "no receivers", subscribed: true, pub: &fakePublisher{receivers: 0}, wantPubs: 1, wantLocal: 1},
		{name: "publish error", subscribed: true, pub: &fakePublisher{err: errors.New("connection refused")}, wantPubs: 1, wantLocal: 1},
		{name: "published", subscribed: true, pub: &fakePublisher{receivers: 2}, wantPubs: 1, wantLocal: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub := NewHub(NewRegistry(), 4)
			bridge := &RedisBridge{pub: tt.pub, local: hub, channel: NotificationChannel, publishTimeout: time.Second}
			bridge.subscribed.Store(tt.subscribed)

			bridge.Notify(uuid.New(), notifications.EventSessionUpdate, "done")

			assert.Eventually(t, func() bool {
				return tt.pub.count() == tt.wantPubs && len(hub.events) == tt.wantLocal
			}, time.Second, 10*time.Millisecond)
			assert.Equal(t, tt.wantLocal, len(hub.events))
		})
	}
}
