package notifications

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMailerRequiresConfig(t *testing.T) {
	assert.Nil(t, NewMailer("", "noreply@example.com", "Brain Barter"))
	assert.Nil(t, NewMailer("key", "", "Brain Barter"))
	assert.NotNil(t, NewMailer("key", "noreply@example.com", "Brain Barter"))
}

func TestNilMailerSkips(t *testing.T) {
	var m *Mailer
	assert.NoError(t, m.Send(context.Background(), "Ada", "ada@example.com", "hi", "<p>hi</p>"))
}

func TestMailerSend(t *testing.T) {
	tests := []struct {
		name       string
		toEmail    string
		statusCode int
		wantErr    bool
	}{
		{name: "created", toEmail: "ada@example.com", statusCode: http.StatusCreated},
		{name: "api error", toEmail: "ada@example.com", statusCode: http.StatusBadRequest, wantErr: true},
		{name: "invalid recipient", toEmail: "not-an-email", statusCode: http.StatusCreated, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got brevoPayload
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "key", r.Header.Get("api-key"))
				require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(`{}`))
			}))
			defer server.Close()

			m := NewMailer("key", "noreply@example.com", "Brain Barter")
			m.Endpoint = server.URL

			err := m.Send(context.Background(), "", tt.toEmail, "Welcome", "<h1>Welcome</h1>")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Welcome", got.Subject)
			require.Len(t, got.To, 1)
			assert.Equal(t, "ada", got.To[0]["name"])
		})
	}
}
