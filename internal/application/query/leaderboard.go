package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fccthegurukul/gurukul-hub/internal/domain/leaderboard"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/student"
	"github.com/fccthegurukul/gurukul-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD READS
// ══════════════════════════════════════════════════════════════════════════════

// ClassesCacheTTL bounds staleness of the class list.
const ClassesCacheTTL = 30 * time.Minute

// ClassesCacheKey is the cache key of the distinct task classes.
const ClassesCacheKey = "classes:all"

// LeaderboardQueries serves ranked reads from PostgreSQL and the projection.
type LeaderboardQueries struct {
	ledger     leaderboard.Repository
	students   student.Repository
	projection leaderboard.Projection
	cache      Cache
	limit      int
}

// NewLeaderboardQueries creates LeaderboardQueries. projection and cache
// may be nil.
func NewLeaderboardQueries(
	ledger leaderboard.Repository,
	students student.Repository,
	projection leaderboard.Projection,
	cache Cache,
	limit int,
) *LeaderboardQueries {
	if limit <= 0 {
		limit = leaderboard.DefaultLimit
	}
	return &LeaderboardQueries{
		ledger:     ledger,
		students:   students,
		projection: projection,
		cache:      cache,
		limit:      limit,
	}
}

// GetBoardQuery selects one student's leaderboard page.
type GetBoardQuery struct {
	FccID       shared.FccID
	ClassFilter string // "" or "ALL" ranks every class
}

// Board returns the ranked rows, the student's class tasks and the
// student's own record (nil when absent). A student without a class fails
// with shared.ErrStudentClassNotFound.
func (q *LeaderboardQueries) Board(ctx context.Context, in GetBoardQuery) (*leaderboard.Board, error) {
	if in.FccID.IsEmpty() {
		return nil, shared.ErrFccIDRequired
	}

	a, err := q.students.GetByFccID(ctx, in.FccID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.ErrStudentClassNotFound
		}
		return nil, err
	}
	class := strings.TrimSpace(a.FccClass)
	if class == "" {
		return nil, shared.ErrStudentClassNotFound
	}

	ranked, err := q.ledger.ListRanked(ctx, leaderboard.NormalizeClassFilter(in.ClassFilter), q.limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	tasks, err := q.ledger.ListTaskProgress(ctx, in.FccID, class)
	if err != nil {
		return nil, fmt.Errorf("leaderboard tasks: %w", err)
	}

	board := &leaderboard.Board{Leaderboard: ranked, Tasks: tasks}
	if board.Leaderboard == nil {
		board.Leaderboard = []leaderboard.Record{}
	}
	if board.Tasks == nil {
		board.Tasks = []leaderboard.TaskProgress{}
	}

	rec, err := q.ledger.GetRecord(ctx, in.FccID)
	switch {
	case err == nil:
		board.Student = rec
	case !errors.Is(err, shared.ErrNotFound):
		return nil, fmt.Errorf("leaderboard record: %w", err)
	}
	return board, nil
}

// Classes returns distinct task classes.
func (q *LeaderboardQueries) Classes(ctx context.Context) ([]string, error) {
	return cached(ctx, q.cache, ClassesCacheKey, ClassesCacheTTL, func(ctx context.Context) ([]string, error) {
		classes, err := q.ledger.ListClasses(ctx)
		if err != nil {
			return nil, fmt.Errorf("list_classes: %w", err)
		}
		if classes == nil {
			classes = []string{}
		}
		return classes, nil
	})
}

// Top returns the highest totals of a class, served from the projection and
// falling back to PostgreSQL when the projection fails or is empty.
func (q *LeaderboardQueries) Top(ctx context.Context, class string, limit int) ([]leaderboard.RankedEntry, error) {
	class = leaderboard.NormalizeClassFilter(class)
	if limit <= 0 || limit > q.limit {
		limit = q.limit
	}

	if q.projection != nil {
		entries, err := q.projection.Top(ctx, class, limit)
		if err == nil && len(entries) > 0 {
			return entries, nil
		}
		if err != nil {
			logger.FromContext(ctx).Warn("leaderboard projection unavailable, reading database", logger.Err(err))
		}
	}

	records, err := q.ledger.ListRanked(ctx, class, limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard top: %w", err)
	}
	return leaderboard.Rank(records), nil
}
