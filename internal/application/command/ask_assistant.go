package command

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fccthegurukul/gurukul-hub/internal/domain/assistant"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
	"github.com/fccthegurukul/gurukul-hub/pkg/async"
	"github.com/fccthegurukul/gurukul-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ASK ASSISTANT COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// AskAssistantCommand is one chat message.
type AskAssistantCommand struct {
	Message string
	Model   string // "gemini" (default) or "deepseek"
}

// Validate validates the command.
func (c AskAssistantCommand) Validate() error {
	if strings.TrimSpace(c.Message) == "" {
		return shared.ErrMessageRequired
	}
	_, err := assistant.ParseModel(c.Model)
	return err
}

// AskAssistantHandler handles AskAssistantCommand.
type AskAssistantHandler struct {
	providers map[assistant.Model]assistant.Provider
	timeout   time.Duration
}

// NewAskAssistantHandler creates a new AskAssistantHandler. Models missing
// from providers answer with shared.ErrProviderNotWired.
func NewAskAssistantHandler(providers map[assistant.Model]assistant.Provider, timeout time.Duration) *AskAssistantHandler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AskAssistantHandler{providers: providers, timeout: timeout}
}

// Handle runs the provider call as an async task bounded by the timeout.
func (h *AskAssistantHandler) Handle(ctx context.Context, cmd AskAssistantCommand) (*assistant.Reply, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	model, _ := assistant.ParseModel(cmd.Model)

	provider, ok := h.providers[model]
	if !ok {
		return nil, shared.ErrProviderNotWired
	}

	start := time.Now()
	res := async.Run(ctx, h.timeout, func(ctx context.Context) (string, error) {
		return provider.Complete(ctx, cmd.Message)
	})
	latency := time.Since(start)

	log := logger.FromContext(ctx).With(logger.String("model", string(model)), logger.Latency(latency))
	switch {
	case res.Err == nil:
		log.Info("assistant replied")
		return &assistant.Reply{Model: model, Response: res.Value, Latency: latency}, nil
	case errors.Is(res.Err, async.ErrTimeout), errors.Is(res.Err, context.DeadlineExceeded):
		log.Warn("assistant timed out")
		return nil, shared.WrapError("assistant", "Ask", shared.ErrTimeout, "AI model did not respond in time", res.Err)
	default:
		log.Error("assistant failed", logger.Err(res.Err))
		return nil, shared.WrapError("assistant", "Ask", shared.ErrExternalService, "Failed to get response from AI model", res.Err)
	}
}
