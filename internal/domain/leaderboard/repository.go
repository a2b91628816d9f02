package leaderboard

import (
	"context"
	"time"

	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
)

// Repository is the scoring ledger store.
// Implementations join the transaction carried by ctx when there is one.
type Repository interface {
	// ──────────────────────────────────────────────────────────────────────────
	// WRITE SIDE
	// ──────────────────────────────────────────────────────────────────────────

	// InsertTaskLog appends a completion and sets its ID.
	InsertTaskLog(ctx context.Context, log *TaskLog) error

	// IncrementScore atomically adds delta to the student's total and returns
	// the updated record. Returns shared.ErrLeaderboardRecordMissing when the
	// student has no record.
	IncrementScore(ctx context.Context, fccID shared.FccID, delta int, at time.Time) (*Record, error)

	// AppendLog writes an audit entry and sets its ID.
	AppendLog(ctx context.Context, entry *LogEntry) error

	// ──────────────────────────────────────────────────────────────────────────
	// READ SIDE
	// ──────────────────────────────────────────────────────────────────────────

	// ListRanked returns records by total score descending. An empty class
	// means all classes.
	ListRanked(ctx context.Context, class string, limit int) ([]Record, error)

	// ListTaskProgress returns the class's tasks joined with the student's
	// completions, ordered by task ID.
	ListTaskProgress(ctx context.Context, fccID shared.FccID, class string) ([]TaskProgress, error)

	// GetRecord returns the student's record or shared.ErrNotFound.
	GetRecord(ctx context.Context, fccID shared.FccID) (*Record, error)

	// ListClasses returns distinct non-empty task classes, sorted.
	ListClasses(ctx context.Context) ([]string, error)
}

// Projection is the cached ranking (Redis sorted sets).
type Projection interface {
	// Upsert writes the record's current total.
	Upsert(ctx context.Context, rec Record) error

	// Top returns up to limit entries; empty class means all classes.
	Top(ctx context.Context, class string, limit int) ([]RankedEntry, error)

	// Replace rebuilds the projection from authoritative records.
	Replace(ctx context.Context, records []Record) error
}
