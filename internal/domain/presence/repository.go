package presence

import (
	"context"
	"time"

	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
)

// Repository persists presence state and the daily log.
// Implementations join the transaction carried by ctx when there is one.
type Repository interface {
	// GetStateForUpdate loads and row-locks the current state.
	// Returns shared.ErrPresenceNotFound when the student has no row yet.
	GetStateForUpdate(ctx context.Context, fccID shared.FccID) (*State, error)

	// GetState loads the current state without locking.
	GetState(ctx context.Context, fccID shared.FccID) (*State, error)

	// InsertState creates the first state row. It reports false, without
	// error, when the row already exists.
	InsertState(ctx context.Context, state *State) (bool, error)

	// UpdateState writes only the fields present in the patch.
	UpdateState(ctx context.Context, fccID shared.FccID, p Patch) error

	// UpsertLog creates the entry for logDate or merges the patch into it.
	UpsertLog(ctx context.Context, fccID shared.FccID, logDate time.Time, p Patch) error

	// ListLogs returns log entries newest first.
	ListLogs(ctx context.Context, fccID shared.FccID) ([]LogEntry, error)
}

// CampusTracker is the read projection of who is currently on campus.
// Marks may arrive out of order; the latest signal time decides, and a
// departure wins over an arrival at the same instant.
type CampusTracker interface {
	MarkArrived(ctx context.Context, fccID shared.FccID, at time.Time) error
	MarkDeparted(ctx context.Context, fccID shared.FccID, at time.Time) error
	OnCampus(ctx context.Context) ([]CampusEntry, error)
	Reset(ctx context.Context) error
}

// CampusEntry is one student currently on campus.
type CampusEntry struct {
	FccID     shared.FccID `json:"fcc_id"`
	ArrivedAt time.Time    `json:"arrived_at"`
}
