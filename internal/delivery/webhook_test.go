package delivery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWebhookSender_Send(t *testing.T) {
	t.Run("success - envelope posted with headers", func(t *testing.T) {
		// arrange
		var gotEnvelope webhookEnvelope
		var gotAuth string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotEnvelope))
		}))
		defer server.Close()
		s := NewWebhookSender(&http.Client{Timeout: 5 * time.Second})
		config := `{"url":"` + server.URL + `","headers":{"Authorization":"Bearer hook-token"}}`

		// act
		err := s.Send(context.Background(), testReport(), "Weekly Sales", config)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, "Bearer hook-token", gotAuth)
		assert.Equal(t, "Weekly Sales", gotEnvelope.Pipeline)
		assert.Equal(t, "report-1", gotEnvelope.ReportID)
		assert.Equal(t, "<p>hello</p>", gotEnvelope.Content)
		assert.False(t, gotEnvelope.SentAt.IsZero())
	})
	t.Run("success - configured method respected", func(t *testing.T) {
		// arrange
		var gotMethod string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
		}))
		defer server.Close()
		s := NewWebhookSender(&http.Client{Timeout: 5 * time.Second})
		config := `{"url":"` + server.URL + `","method":"PUT"}`

		// act
		err := s.Send(context.Background(), testReport(), "Weekly Sales", config)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, http.MethodPut, gotMethod)
	})
	t.Run("failure - non-2xx carries response body", func(t *testing.T) {
		// arrange
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("upstream unavailable"))
		}))
		defer server.Close()
		s := NewWebhookSender(&http.Client{Timeout: 5 * time.Second})
		config := `{"url":"` + server.URL + `"}`

		// act
		err := s.Send(context.Background(), testReport(), "Weekly Sales", config)

		// assert
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "502")
		assert.Contains(t, err.Error(), "upstream unavailable")
	})
	t.Run("failure - missing url rejected", func(t *testing.T) {
		// arrange
		s := NewWebhookSender(&http.Client{})

		// act
		err := s.Send(context.Background(), testReport(), "Weekly Sales", "{}")

		// assert
		assert.Error(t, err)
	})
}
