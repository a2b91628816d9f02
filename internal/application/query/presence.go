package query

import (
	"context"
	"fmt"

	"github.com/fccthegurukul/gurukul-hub/internal/domain/presence"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
)

// PresenceQueries serves CTC/CTG lookups and the on-campus list.
type PresenceQueries struct {
	presence presence.Repository
	campus   presence.CampusTracker
}

// NewPresenceQueries creates PresenceQueries. campus may be nil when Redis
// is disabled.
func NewPresenceQueries(repo presence.Repository, campus presence.CampusTracker) *PresenceQueries {
	return &PresenceQueries{presence: repo, campus: campus}
}

// History returns the current state and the daily log, newest first.
func (q *PresenceQueries) History(ctx context.Context, fccID shared.FccID) (*presence.History, error) {
	if fccID.IsEmpty() {
		return nil, shared.ErrFccIDRequired
	}
	state, err := q.presence.GetState(ctx, fccID)
	if err != nil {
		return nil, err
	}
	logs, err := q.presence.ListLogs(ctx, fccID)
	if err != nil {
		return nil, fmt.Errorf("presence_history: %w", err)
	}
	if logs == nil {
		logs = []presence.LogEntry{}
	}
	return &presence.History{Student: *state, Logs: logs}, nil
}

// OnCampus lists students currently on campus, earliest arrival first.
func (q *PresenceQueries) OnCampus(ctx context.Context) ([]presence.CampusEntry, error) {
	if q.campus == nil {
		return nil, shared.NewDomainError("presence", "OnCampus", shared.ErrServiceUnavailable, "campus tracker is disabled")
	}
	entries, err := q.campus.OnCampus(ctx)
	if err != nil {
		return nil, shared.WrapError("presence", "OnCampus", shared.ErrServiceUnavailable, "campus tracker unavailable", err)
	}
	return entries, nil
}
