package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWebhookSender_Send(t *testing.T) {
	ws := NewWebhookSender()

	t.Run("success - payload is posted as json", func(t *testing.T) {
		// arrange
		var received WebhookPayload
		var contentType string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			contentType = r.Header.Get("Content-Type")
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &received)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()
		payload := BuildFailurePayload("deployme", 7, "step \"build\" failed")

		// act
		err := ws.Send(context.Background(), server.URL, payload, time.Second)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, "application/json", contentType)
		assert.Equal(t, "text", received.MsgType)
		assert.Equal(t,
			"project deployme deployment #7 failed: step \"build\" failed",
			received.Content.Text,
		)
	})
	t.Run("success - empty url is a no-op", func(t *testing.T) {
		// act
		err := ws.Send(context.Background(), "", WebhookPayload{}, time.Second)

		// assert
		assert.NoError(t, err)
	})
	t.Run("failure - non-2xx response", func(t *testing.T) {
		// arrange
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		// act
		err := ws.Send(context.Background(), server.URL, WebhookPayload{}, time.Second)

		// assert
		assert.Error(t, err)
	})
	t.Run("failure - slow endpoint times out", func(t *testing.T) {
		// arrange
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer server.Close()

		// act
		err := ws.Send(context.Background(), server.URL, WebhookPayload{}, 20*time.Millisecond)

		// assert
		assert.Error(t, err)
	})
}
