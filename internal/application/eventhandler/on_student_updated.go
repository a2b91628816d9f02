package eventhandler

import (
	"context"
	"fmt"

	"github.com/fccthegurukul/gurukul-hub/internal/application/query"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
	"github.com/fccthegurukul/gurukul-hub/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON STUDENT UPDATED HANDLER
// Drops the cached fee plan after an admission update.
// ═══════════════════════════════════════════════════════════════════════════

// CacheEvicter removes cached entries.
type CacheEvicter interface {
	Delete(ctx context.Context, keys ...string) error
}

// OnStudentUpdatedHandler evicts the tuition fee cache entry of the student.
type OnStudentUpdatedHandler struct {
	cache CacheEvicter
	log   *logger.Logger
}

// NewOnStudentUpdatedHandler creates the handler.
func NewOnStudentUpdatedHandler(cache CacheEvicter, log *logger.Logger) *OnStudentUpdatedHandler {
	if log == nil {
		log = logger.Default()
	}
	return &OnStudentUpdatedHandler{
		cache: cache,
		log:   log.With(logger.Component("on_student_updated")),
	}
}

// Handle implements shared.EventHandler.
func (h *OnStudentUpdatedHandler) Handle(event shared.Event) error {
	e, ok := event.(shared.StudentUpdatedEvent)
	if !ok {
		return fmt.Errorf("on_student_updated: unexpected event %T", event)
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	if err := h.cache.Delete(ctx, query.TuitionFeeKey(shared.FccID(e.FccID))); err != nil {
		return fmt.Errorf("on_student_updated: %w", err)
	}
	h.log.Debug("tuition cache evicted", logger.FccID(e.FccID))
	return nil
}

// EventType returns the handled event type.
func (h *OnStudentUpdatedHandler) EventType() shared.EventType {
	return shared.EventStudentUpdated
}
