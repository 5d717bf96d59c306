package webhook

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dukex/caseflow/pkg/actions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSender_PostsJSON(t *testing.T) {
	var received map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "secret", r.Header.Get("X-Signature"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	err := NewSender(testLogger()).Send(t.Context(), actions.WebhookRequest{
		URL:     server.URL,
		Method:  http.MethodPost,
		Headers: map[string]string{"X-Signature": "secret"},
		Body:    map[string]any{"tenant_id": "tenant-a", "step_id": "s1"},
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"tenant_id": "tenant-a", "step_id": "s1"}, received)
}

func TestSender_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("bad payload"))
	}))
	defer server.Close()

	err := NewSender(testLogger(), WithRetry(3, time.Millisecond)).Send(t.Context(), actions.WebhookRequest{
		URL:    server.URL,
		Method: http.MethodPost,
	})

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Equal(t, "bad payload", statusErr.Body)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSender_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)

			return
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	err := NewSender(testLogger(), WithRetry(3, time.Millisecond)).Send(t.Context(), actions.WebhookRequest{
		URL:    server.URL,
		Method: http.MethodPut,
	})
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSender_GetHasNoBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Empty(t, body)
		assert.Empty(t, r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	err := NewSender(testLogger()).Send(t.Context(), actions.WebhookRequest{
		URL:    server.URL,
		Method: http.MethodGet,
		Body:   map[string]any{"ignored": true},
	})
	require.NoError(t, err)
}
