package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fccthegurukul/gurukul-hub/config"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/assistant"
	"github.com/fccthegurukul/gurukul-hub/pkg/circuitbreaker"
	"github.com/fccthegurukul/gurukul-hub/pkg/logger"
)

func testConfig(baseURL string) config.AssistantConfig {
	return config.AssistantConfig{
		OpenRouterBaseURL:       baseURL,
		OpenRouterAPIKey:        "or-key",
		OpenRouterModel:         "deepseek/deepseek-r1:free",
		GeminiBaseURL:           baseURL,
		GeminiAPIKey:            "g-key",
		GeminiModel:             "gemini-pro",
		RequestTimeout:          2 * time.Second,
		CircuitBreakerThreshold: 2,
		CircuitBreakerTimeout:   time.Minute,
	}
}

func TestOpenRouter_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer or-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "deepseek/deepseek-r1:free", req.Model)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "What is 2+2?", req.Messages[0].Content)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"4"}}]}`))
	}))
	defer srv.Close()

	p := NewOpenRouter(testConfig(srv.URL), logger.Nop())
	out, err := p.Complete(context.Background(), "What is 2+2?")
	require.NoError(t, err)
	assert.Equal(t, "4", out)
}

func TestGemini_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-pro:generateContent", r.URL.Path)
		assert.Equal(t, "g-key", r.URL.Query().Get("key"))
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Namaste"},{"text":"!"}]}}]}`))
	}))
	defer srv.Close()

	p := NewGemini(testConfig(srv.URL), logger.Nop())
	out, err := p.Complete(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "Namaste!", out)
}

func TestProvider_APIErrorOpensBreaker(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded"}}`))
	}))
	defer srv.Close()

	p := NewOpenRouter(testConfig(srv.URL), logger.Nop())

	for i := 0; i < 2; i++ {
		_, err := p.Complete(context.Background(), "hi")
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
		assert.Equal(t, "quota exceeded", apiErr.Message)
	}

	_, err := p.Complete(context.Background(), "hi")
	assert.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
	assert.Equal(t, 2, calls)
}

func TestProvider_EmptyCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewOpenRouter(testConfig(srv.URL), logger.Nop()).Complete(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestProviders_SkipsUnconfigured(t *testing.T) {
	cfg := testConfig("http://localhost")
	cfg.OpenRouterAPIKey = ""

	ps := Providers(cfg, logger.Nop())
	assert.Contains(t, ps, assistant.ModelGemini)
	assert.NotContains(t, ps, assistant.ModelDeepSeek)
}
