// Package eventhandler keeps the Redis read side in step with committed
// writes. Handlers run on the event bus after the command's transaction.
package eventhandler

import (
	"context"
	"fmt"
	"time"

	"github.com/fccthegurukul/gurukul-hub/internal/domain/leaderboard"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
	"github.com/fccthegurukul/gurukul-hub/pkg/logger"
)

// handlerTimeout bounds a single projection update.
const handlerTimeout = 5 * time.Second

// ═══════════════════════════════════════════════════════════════════════════
// ON TASK COMPLETED HANDLER
// Writes the new running total into the leaderboard projection.
// ═══════════════════════════════════════════════════════════════════════════

// OnTaskCompletedHandler updates the ranking projection.
type OnTaskCompletedHandler struct {
	projection leaderboard.Projection
	log        *logger.Logger
}

// NewOnTaskCompletedHandler creates the handler.
func NewOnTaskCompletedHandler(projection leaderboard.Projection, log *logger.Logger) *OnTaskCompletedHandler {
	if log == nil {
		log = logger.Default()
	}
	return &OnTaskCompletedHandler{
		projection: projection,
		log:        log.With(logger.Component("on_task_completed")),
	}
}

// Handle implements shared.EventHandler.
func (h *OnTaskCompletedHandler) Handle(event shared.Event) error {
	e, ok := event.(shared.TaskCompletedEvent)
	if !ok {
		return fmt.Errorf("on_task_completed: unexpected event %T", event)
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	rec := leaderboard.Record{
		FccID:       shared.FccID(e.FccID),
		StudentName: e.StudentName,
		FccClass:    e.FccClass,
		TotalScore:  e.NewTotal,
		LastUpdated: e.OccurredAt(),
	}
	if err := h.projection.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("on_task_completed: %w", err)
	}

	h.log.Debug("leaderboard projection updated", logger.FccID(e.FccID), logger.Score(e.NewTotal))
	return nil
}

// EventType returns the handled event type.
func (h *OnTaskCompletedHandler) EventType() shared.EventType {
	return shared.EventTaskCompleted
}
