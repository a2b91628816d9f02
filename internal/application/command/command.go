// Package command contains write operations (CQRS - Commands).
//
// Each command is a plain struct with a Validate method and a handler whose
// Handle(ctx, cmd) runs the operation. Handlers that touch more than one row
// do so inside shared.Transactor.WithinTx and publish domain events only
// after the transaction commits.
package command

import (
	"context"

	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
	"github.com/fccthegurukul/gurukul-hub/pkg/logger"
)

// publish hands a committed event to the bus. A failed publish is logged and
// swallowed: the write already succeeded and projections are rebuilt on a
// schedule.
func publish(ctx context.Context, pub shared.EventPublisher, event shared.Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(event); err != nil {
		logger.FromContext(ctx).Warn("failed to publish event",
			logger.String("event_type", string(event.EventType())),
			logger.String("aggregate_id", event.AggregateID()),
			logger.Err(err))
	}
}

func clockOrDefault(c shared.Clock) shared.Clock {
	if c == nil {
		return shared.SystemClock
	}
	return c
}
