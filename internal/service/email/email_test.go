package email

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/mixtape/internal/logger"
)

func notification() MixtapeNotification {
	return MixtapeNotification{
		RecipientEmail: "alex@example.com",
		RecipientName:  "Alex",
		SenderName:     "Nina",
		MixtapeTitle:   "Summer mix",
		MixtapeURL:     "https://mixtape.example/m/the-token",
		Message:        "for you",
		TrackCount:     3,
	}
}

func TestClient_SendMixtapeNotification(t *testing.T) {
	t.Parallel()

	t.Run("send ok", func(t *testing.T) {
		var payload map[string]any
		var auth string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth = r.Header.Get("Authorization")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			w.WriteHeader(http.StatusAccepted)
		}))
		t.Cleanup(srv.Close)

		c := NewClient(Config{APIKey: "the-key", FromEmail: "hello@mixtape.example", FromName: "Mixtape"}, logger.NewNoOpLogger())
		c.SendURL = srv.URL

		err := c.SendMixtapeNotification(t.Context(), notification())

		require.NoError(t, err)
		assert.Equal(t, "Bearer the-key", auth)
		assert.Equal(t, "Nina sent you a mixtape!", payload["subject"])

		from := payload["from"].(map[string]any)
		assert.Equal(t, "hello@mixtape.example", from["email"])

		content := payload["content"].([]any)[0].(map[string]any)
		text := content["value"].(string)
		assert.Contains(t, text, "Hey Alex!")
		assert.Contains(t, text, "https://mixtape.example/m/the-token")
		assert.Contains(t, text, "for you")
	})

	t.Run("provider error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"errors": [{"message": "bad from"}]}`))
		}))
		t.Cleanup(srv.Close)

		c := NewClient(Config{APIKey: "the-key", FromEmail: "hello@mixtape.example"}, logger.NewNoOpLogger())
		c.SendURL = srv.URL

		err := c.SendMixtapeNotification(t.Context(), notification())

		require.ErrorContains(t, err, "status 400")
		assert.ErrorContains(t, err, "bad from")
	})

	t.Run("unconfigured client is a no-op", func(t *testing.T) {
		called := false
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		t.Cleanup(srv.Close)

		c := NewClient(Config{}, logger.NewNoOpLogger())
		c.SendURL = srv.URL

		err := c.SendMixtapeNotification(t.Context(), notification())

		require.NoError(t, err)
		assert.False(t, called, "no mail request without credentials")
	})
}

func TestNotificationText(t *testing.T) {
	t.Parallel()

	t.Run("without personal message", func(t *testing.T) {
		n := notification()
		n.Message = ""

		text := notificationText(n)

		assert.NotContains(t, text, "They also wrote")
	})

	t.Run("with personal message", func(t *testing.T) {
		text := notificationText(notification())

		assert.Contains(t, text, "They also wrote:\nfor you")
	})
}
