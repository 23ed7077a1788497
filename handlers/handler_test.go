package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	config "github.com/brainbarter/brain_barter/configs"
	"github.com/brainbarter/brain_barter/handlers"
	"github.com/brainbarter/brain_barter/notifications"
	"github.com/brainbarter/brain_barter/routes"
	"github.com/brainbarter/brain_barter/services"
	"github.com/brainbarter/brain_barter/store"
	"github.com/brainbarter/brain_barter/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	app   *fiber.App
	store *store.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	st := store.NewMemoryStore()
	cfg := &config.Config{JWTSecret: "test-secret", JWTTTL: time.Hour}
	h := &handlers.Handler{
		Config:     cfg,
		Store:      st,
		Settlement: services.NewSettlementService(st, notifications.Discard{}),
		Notifier:   notifications.Discard{},
		Registry:   websocket.NewRegistry(),
	}
	app := fiber.New()
	routes.Setup(app, h)
	return &testServer{app: app, store: st}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]interface{}{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

// signUp registers and logs in a user, returning the token and user id.
func (s *testServer) signUp(t *testing.T, first, email string) (string, string) {
	t.Helper()
	status, body := s.do(t, "POST", "/api/v1/auth/register", "", fiber.Map{
		"first_name": first,
		"last_name":  "Doe",
		"email":      email,
		"password":   "secret123",
		"skills":     "Guitar, Chess",
	})
	require.Equal(t, fiber.StatusCreated, status, body)

	status, body = s.do(t, "POST", "/api/v1/auth/login", "", fiber.Map{"email": email, "password": "secret123"})
	require.Equal(t, fiber.StatusOK, status, body)
	user := body["user"].(map[string]interface{})
	return body["token"].(string), user["id"].(string)
}
