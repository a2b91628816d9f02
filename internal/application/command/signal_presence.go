package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fccthegurukul/gurukul-hub/internal/domain/presence"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
	"github.com/fccthegurukul/gurukul-hub/pkg/logger"
	"github.com/fccthegurukul/gurukul-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// SIGNAL PRESENCE COMMAND
// CTC (came to center) / CTG (went from center) reports from the front desk.
// ══════════════════════════════════════════════════════════════════════════════

// SignalPresenceCommand wraps a presence signal.
type SignalPresenceCommand struct {
	Signal presence.Signal
}

// Validate validates the command.
func (c SignalPresenceCommand) Validate() error {
	return c.Signal.Validate()
}

// SignalPresenceResult reports what the signal did.
type SignalPresenceResult struct {
	Outcome presence.Outcome
	State   *presence.State
}

// SignalPresenceHandler handles SignalPresenceCommand.
type SignalPresenceHandler struct {
	tx        shared.Transactor
	presence  presence.Repository
	publisher shared.EventPublisher
	clock     shared.Clock
}

// NewSignalPresenceHandler creates a new SignalPresenceHandler.
func NewSignalPresenceHandler(
	tx shared.Transactor,
	repo presence.Repository,
	publisher shared.EventPublisher,
	clock shared.Clock,
) *SignalPresenceHandler {
	return &SignalPresenceHandler{tx: tx, presence: repo, publisher: publisher, clock: clockOrDefault(clock)}
}

// Handle locks the state row, applies the staleness rule and merges the
// signal into today's log entry. A stale signal returns
// shared.ErrStaleSignal and writes nothing.
func (h *SignalPresenceHandler) Handle(ctx context.Context, cmd SignalPresenceCommand) (*SignalPresenceResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	now := h.clock()
	sig := cmd.Signal
	var res SignalPresenceResult

	err := h.tx.WithinTx(ctx, func(ctx context.Context) error {
		next, outcome, err := h.writeState(ctx, sig, now)
		if err != nil {
			return err
		}

		if err := h.presence.UpsertLog(ctx, sig.FccID, timeutil.CalendarDate(now), sig.Patch(now)); err != nil {
			return err
		}

		res = SignalPresenceResult{Outcome: outcome, State: next}
		return nil
	})
	if err != nil {
		if errors.Is(err, shared.ErrStaleSignal) {
			logger.FromContext(ctx).Warn("stale presence signal rejected", logger.FccID(sig.FccID.String()))
			return nil, err
		}
		return nil, fmt.Errorf("signal_presence: %w", err)
	}

	publish(ctx, h.publisher, shared.NewPresenceSignaledEvent(
		sig.FccID.String(), sig.Arrived, sig.Departed, sig.TaskCompleted,
		res.Outcome == presence.OutcomeInserted, now))
	return &res, nil
}

// writeState locks the state row and inserts or updates it. When a
// concurrent first signal creates the row between the read and the insert,
// the row is locked again and the signal is applied as an update.
func (h *SignalPresenceHandler) writeState(ctx context.Context, sig presence.Signal, now time.Time) (*presence.State, presence.Outcome, error) {
	for attempt := 0; ; attempt++ {
		existing, err := h.presence.GetStateForUpdate(ctx, sig.FccID)
		switch {
		case errors.Is(err, shared.ErrPresenceNotFound) && attempt == 0:
			existing = nil
		case err != nil:
			return nil, "", err
		}

		next, outcome, err := presence.Decide(existing, sig, now)
		if err != nil {
			return nil, "", err
		}

		if outcome != presence.OutcomeInserted {
			if err := h.presence.UpdateState(ctx, sig.FccID, sig.Patch(now)); err != nil {
				return nil, "", err
			}
			return next, outcome, nil
		}

		inserted, err := h.presence.InsertState(ctx, next)
		if err != nil {
			return nil, "", err
		}
		if inserted {
			return next, outcome, nil
		}
		logger.FromContext(ctx).Debug("presence row created concurrently, applying as update",
			logger.FccID(sig.FccID.String()))
	}
}
