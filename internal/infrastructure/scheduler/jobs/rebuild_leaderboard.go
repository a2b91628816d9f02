// Package jobs contains the scheduled maintenance jobs.
package jobs

import (
	"context"
	"fmt"

	"github.com/fccthegurukul/gurukul-hub/internal/domain/leaderboard"
	"github.com/fccthegurukul/gurukul-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// REBUILD LEADERBOARD JOB
// ══════════════════════════════════════════════════════════════════════════════

// RebuildLeaderboardJob reloads the Redis ranking from the leaderboard
// table, repairing any drift left by failed event handlers.
type RebuildLeaderboardJob struct {
	ledger     leaderboard.Repository
	projection leaderboard.Projection
	limit      int
}

// NewRebuildLeaderboardJob creates the job. limit caps how many records are
// loaded; values <= 0 fall back to 10000.
func NewRebuildLeaderboardJob(ledger leaderboard.Repository, projection leaderboard.Projection, limit int) *RebuildLeaderboardJob {
	if limit <= 0 {
		limit = 10000
	}
	return &RebuildLeaderboardJob{ledger: ledger, projection: projection, limit: limit}
}

// Name implements scheduler.Job.
func (j *RebuildLeaderboardJob) Name() string { return "rebuild_leaderboard" }

// Description implements scheduler.Job.
func (j *RebuildLeaderboardJob) Description() string {
	return "Rebuilds the cached leaderboard from PostgreSQL"
}

// Run implements scheduler.Job.
func (j *RebuildLeaderboardJob) Run(ctx context.Context) error {
	records, err := j.ledger.ListRanked(ctx, "", j.limit)
	if err != nil {
		return fmt.Errorf("rebuild_leaderboard: load: %w", err)
	}
	if err := j.projection.Replace(ctx, records); err != nil {
		return fmt.Errorf("rebuild_leaderboard: replace: %w", err)
	}

	logger.FromContext(ctx).Info("leaderboard projection rebuilt", logger.Int("records", len(records)))
	return nil
}
