package assistant

import (
	"context"
	"strings"

	"github.com/fccthegurukul/gurukul-hub/config"
	"github.com/fccthegurukul/gurukul-hub/pkg/logger"
)

// OpenRouter calls the OpenAI-compatible chat completions endpoint.
type OpenRouter struct {
	baseURL string
	apiKey  string
	model   string
	t       *transport
}

// NewOpenRouter creates the DeepSeek provider.
func NewOpenRouter(cfg config.AssistantConfig, log *logger.Logger) *OpenRouter {
	return &OpenRouter{
		baseURL: strings.TrimRight(cfg.OpenRouterBaseURL, "/"),
		apiKey:  cfg.OpenRouterAPIKey,
		model:   cfg.OpenRouterModel,
		t:       newTransport("openrouter", cfg, log),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends prompt as a single user message.
func (o *OpenRouter) Complete(ctx context.Context, prompt string) (string, error) {
	if o.apiKey == "" {
		return "", ErrNotConfigured
	}

	req := chatRequest{
		Model:    o.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	}
	headers := map[string]string{"Authorization": "Bearer " + o.apiKey}

	var resp chatResponse
	if err := o.t.postJSON(ctx, o.baseURL+"/chat/completions", headers, req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}
