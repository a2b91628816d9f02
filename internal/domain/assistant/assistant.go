// Package assistant describes the AI chat helper and its providers.
package assistant

import (
	"context"
	"strings"
	"time"

	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
)

// Model selects a provider.
type Model string

const (
	ModelGemini   Model = "gemini"
	ModelDeepSeek Model = "deepseek"
)

// ParseModel maps the request selector to a model. Empty selects Gemini.
func ParseModel(s string) (Model, error) {
	switch Model(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModelGemini:
		return ModelGemini, nil
	case ModelDeepSeek:
		return ModelDeepSeek, nil
	default:
		return "", shared.ErrInvalidModel
	}
}

// Provider answers a single free-text prompt.
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Reply is the answer returned to the caller.
type Reply struct {
	Model    Model         `json:"model"`
	Response string        `json:"response"`
	Latency  time.Duration `json:"-"`
}
