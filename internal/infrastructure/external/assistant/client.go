// Package assistant implements the AI chat providers behind /api/chat:
// DeepSeek through OpenRouter and Google Gemini.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fccthegurukul/gurukul-hub/config"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/assistant"
	"github.com/fccthegurukul/gurukul-hub/pkg/circuitbreaker"
	"github.com/fccthegurukul/gurukul-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrEmptyCompletion is returned when a provider answers without text.
	ErrEmptyCompletion = errors.New("provider returned no completion")

	// ErrNotConfigured is returned when the provider has no API key.
	ErrNotConfigured = errors.New("provider API key is not configured")
)

// APIError is a non-2xx response from a provider.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API request failed with status %d: %s", e.Provider, e.StatusCode, e.Message)
}

// ══════════════════════════════════════════════════════════════════════════════
// HTTP TRANSPORT
// ══════════════════════════════════════════════════════════════════════════════

// maxResponseBytes caps how much of a provider response is read.
const maxResponseBytes = 4 << 20

// transport sends JSON requests to one provider behind a circuit breaker.
type transport struct {
	name       string
	httpClient *http.Client
	breaker    *circuitbreaker.CircuitBreaker
	log        *logger.Logger
}

func newTransport(name string, cfg config.AssistantConfig, log *logger.Logger) *transport {
	if log == nil {
		log = logger.Default()
	}
	log = log.With(logger.Component("assistant"), logger.String("provider", name))

	return &transport{
		name:       name,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		breaker: circuitbreaker.ProviderBreaker(name, cfg.CircuitBreakerThreshold, cfg.CircuitBreakerTimeout,
			func(n string, from, to circuitbreaker.State) {
				log.Warn("circuit breaker state changed",
					logger.String("from", from.String()),
					logger.String("to", to.String()))
			}),
		log: log,
	}
}

// postJSON sends body and decodes the response into result.
func (t *transport) postJSON(ctx context.Context, url string, headers map[string]string, body, result interface{}) error {
	return t.breaker.Execute(ctx, func(ctx context.Context) error {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		start := time.Now()
		resp, err := t.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("http request: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		t.log.Debug("provider responded",
			logger.Int("status", resp.StatusCode),
			logger.Latency(time.Since(start)))

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &APIError{Provider: t.name, StatusCode: resp.StatusCode, Message: errorMessage(respBody, resp.Status)}
		}

		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
		return nil
	})
}

// errorMessage extracts {"error":{"message":...}} when present.
func errorMessage(body []byte, fallback string) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return fallback
}

// ══════════════════════════════════════════════════════════════════════════════
// PROVIDER SET
// ══════════════════════════════════════════════════════════════════════════════

// Providers builds the provider map used by the chat command. Providers
// without an API key are left out.
func Providers(cfg config.AssistantConfig, log *logger.Logger) map[assistant.Model]assistant.Provider {
	out := make(map[assistant.Model]assistant.Provider, 2)
	if strings.TrimSpace(cfg.GeminiAPIKey) != "" {
		out[assistant.ModelGemini] = NewGemini(cfg, log)
	}
	if strings.TrimSpace(cfg.OpenRouterAPIKey) != "" {
		out[assistant.ModelDeepSeek] = NewOpenRouter(cfg, log)
	}
	return out
}
