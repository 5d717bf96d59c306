// Package webhook delivers the outbound HTTP calls of webhook actions.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukex/caseflow/pkg/actions"
)

const maxErrorBody = 512

// StatusError is returned for a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook responded with status %d: %s", e.StatusCode, e.Body)
}

type Sender struct {
	client     *http.Client
	logger     *slog.Logger
	attempts   int
	retryDelay time.Duration
}

type Option func(*Sender)

func WithHTTPClient(client *http.Client) Option {
	return func(s *Sender) {
		s.client = client
	}
}

// WithRetry retries 5xx responses and transport errors. attempts counts the
// first call.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(s *Sender) {
		if attempts > 0 {
			s.attempts = attempts
		}

		s.retryDelay = delay
	}
}

func NewSender(logger *slog.Logger, opts ...Option) *Sender {
	s := &Sender{
		client:   &http.Client{},
		logger:   logger.With("module", "webhook_sender"),
		attempts: 1,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Send posts request.Body as JSON. GET and DELETE requests carry no body.
func (s *Sender) Send(ctx context.Context, request actions.WebhookRequest) error {
	var payload []byte

	if request.Method != http.MethodGet && request.Method != http.MethodDelete {
		var err error

		payload, err = json.Marshal(request.Body)
		if err != nil {
			return fmt.Errorf("failed to encode webhook body: %w", err)
		}
	}

	var lastErr error

	for attempt := 1; attempt <= s.attempts; attempt++ {
		if attempt > 1 {
			s.logger.InfoContext(ctx, "Retrying webhook", "attempt", attempt, "url", request.URL)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.retryDelay):
			}
		}

		lastErr = s.do(ctx, request, payload)
		if lastErr == nil {
			return nil
		}

		if !retryable(lastErr) {
			return lastErr
		}
	}

	return lastErr
}

func (s *Sender) do(ctx context.Context, request actions.WebhookRequest, payload []byte) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, request.Method, request.URL, body)
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for key, value := range request.Headers {
		req.Header.Set(key, value)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}

	defer func() {
		if err := resp.Body.Close(); err != nil {
			s.logger.ErrorContext(ctx, "Failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		s.logger.DebugContext(ctx, "Webhook delivered", "url", request.URL, "status", resp.StatusCode)

		return nil
	}

	excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	return &StatusError{StatusCode: resp.StatusCode, Body: string(excerpt)}
}

func retryable(err error) bool {
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		return true
	}

	return statusErr.StatusCode >= http.StatusInternalServerError
}
