package eventhandler

import (
	"context"
	"fmt"

	"github.com/fccthegurukul/gurukul-hub/internal/domain/presence"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
	"github.com/fccthegurukul/gurukul-hub/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON PRESENCE SIGNALED HANDLER
// Moves students in and out of the on-campus set.
// ═══════════════════════════════════════════════════════════════════════════

// OnPresenceSignaledHandler updates the campus tracker.
type OnPresenceSignaledHandler struct {
	campus presence.CampusTracker
	log    *logger.Logger
}

// NewOnPresenceSignaledHandler creates the handler.
func NewOnPresenceSignaledHandler(campus presence.CampusTracker, log *logger.Logger) *OnPresenceSignaledHandler {
	if log == nil {
		log = logger.Default()
	}
	return &OnPresenceSignaledHandler{
		campus: campus,
		log:    log.With(logger.Component("on_presence_signaled")),
	}
}

// Handle implements shared.EventHandler. A departure wins over an arrival
// reported in the same signal.
func (h *OnPresenceSignaledHandler) Handle(event shared.Event) error {
	e, ok := event.(shared.PresenceSignaledEvent)
	if !ok {
		return fmt.Errorf("on_presence_signaled: unexpected event %T", event)
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	id := shared.FccID(e.FccID)
	var err error
	switch {
	case e.Departed:
		err = h.campus.MarkDeparted(ctx, id, e.OccurredAt())
	case e.Arrived:
		err = h.campus.MarkArrived(ctx, id, e.OccurredAt())
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("on_presence_signaled: %w", err)
	}

	h.log.Debug("campus tracker updated", logger.FccID(e.FccID), logger.Bool("departed", e.Departed))
	return nil
}

// EventType returns the handled event type.
func (h *OnPresenceSignaledHandler) EventType() shared.EventType {
	return shared.EventPresenceSignaled
}
