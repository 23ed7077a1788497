package websocket

import (
	"sync"

	"github.com/brainbarter/brain_barter/observability"
	"github.com/google/uuid"
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Client is one user's live connection. Writes are serialized because the
// hub and the connection's own read loop both send frames.
type Client struct {
	UserID uuid.UUID
	conn   Conn
	mu     sync.Mutex
}

func NewClient(userID uuid.UUID, conn Conn) *Client {
	return &Client{UserID: userID, conn: conn}
}

func (c *Client) Send(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Registry maps online users to their connection. A user has at most one
// registered connection; the most recent one wins.
type Registry struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]*Client
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[uuid.UUID]*Client)}
}

// Add registers c and returns the connection it displaced, if any.
func (r *Registry) Add(c *Client) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.clients[c.UserID]
	r.clients[c.UserID] = c
	observability.ConnectionsOnline.Set(float64(len(r.clients)))
	return prev
}

// Remove unregisters c only if it is still the user's current connection,
// so a stale close cannot evict a newer connection.
func (r *Registry) Remove(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.clients[c.UserID]; !ok || cur != c {
		return false
	}
	delete(r.clients, c.UserID)
	observability.ConnectionsOnline.Set(float64(len(r.clients)))
	return true
}

func (r *Registry) Lookup(userID uuid.UUID) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[userID]
	return c, ok
}

func (r *Registry) Online() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
