package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fccthegurukul/gurukul-hub/internal/domain/leaderboard"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardRepository implements leaderboard.Repository for PostgreSQL.
type LeaderboardRepository struct {
	conn *Connection
}

// NewLeaderboardRepository creates a new LeaderboardRepository.
func NewLeaderboardRepository(conn *Connection) *LeaderboardRepository {
	return &LeaderboardRepository{conn: conn}
}

const recordColumns = `id, student_fcc_id, student_name, fcc_class, total_score, last_updated`

// ─────────────────────────────────────────────────────────────────────────────
// Write side
// ─────────────────────────────────────────────────────────────────────────────

// InsertTaskLog appends a completion.
func (r *LeaderboardRepository) InsertTaskLog(ctx context.Context, l *leaderboard.TaskLog) error {
	query := `
		INSERT INTO scoring_task_log (student_fcc_id, task_id, score_earned, status, completed_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.conn.QueryRow(ctx, query,
		l.FccID.String(), l.TaskID, l.ScoreEarned, string(l.Status), l.CompletedAt,
	).Scan(&l.ID)
	if err != nil {
		return fmt.Errorf("failed to insert task log: %w", err)
	}
	return nil
}

// IncrementScore adds delta in a single statement, so concurrent completions
// for the same student never lose an update.
func (r *LeaderboardRepository) IncrementScore(ctx context.Context, fccID shared.FccID, delta int, at time.Time) (*leaderboard.Record, error) {
	query := `
		UPDATE leaderboard
		SET total_score = total_score + $1, last_updated = $2
		WHERE student_fcc_id = $3
		RETURNING ` + recordColumns

	rec, err := scanRecord(r.conn.QueryRow(ctx, query, delta, at, fccID.String()))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrLeaderboardRecordMissing
		}
		return nil, fmt.Errorf("failed to increment score: %w", err)
	}
	return rec, nil
}

// AppendLog writes an audit entry.
func (r *LeaderboardRepository) AppendLog(ctx context.Context, e *leaderboard.LogEntry) error {
	query := `
		INSERT INTO leaderboard_log (leaderboard_id, action, description, logged_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	if err := r.conn.QueryRow(ctx, query, e.LeaderboardID, e.Action, e.Description, e.LoggedAt).Scan(&e.ID); err != nil {
		return fmt.Errorf("failed to append leaderboard log: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Read side
// ─────────────────────────────────────────────────────────────────────────────

// ListRanked returns records by total score descending.
func (r *LeaderboardRepository) ListRanked(ctx context.Context, class string, limit int) ([]leaderboard.Record, error) {
	if limit <= 0 {
		limit = leaderboard.DefaultLimit
	}

	var where whereList
	if class != "" {
		where.add("fcc_class = ?", class)
	}
	args := append(where.args, limit)
	query := fmt.Sprintf(
		`SELECT %s FROM leaderboard%s ORDER BY total_score DESC, student_fcc_id LIMIT $%d`,
		recordColumns, where.String(), len(args),
	)

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list leaderboard: %w", err)
	}
	defer rows.Close()

	var out []leaderboard.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// ListTaskProgress joins the class's tasks with the student's completions.
func (r *LeaderboardRepository) ListTaskProgress(ctx context.Context, fccID shared.FccID, class string) ([]leaderboard.TaskProgress, error) {
	query := `
		SELECT t.task_id, t.task_name, COALESCE(t.description, ''), t.max_score,
		       t.start_time, t.end_time,
		       COALESCE(l.score_earned, 0), l.status, l.completed_at
		FROM leaderboard_scoring_task t
		LEFT JOIN scoring_task_log l
		       ON l.task_id = t.task_id AND l.student_fcc_id = $1
		WHERE t.class = $2
		ORDER BY t.task_id
	`

	rows, err := r.conn.Query(ctx, query, fccID.String(), class)
	if err != nil {
		return nil, fmt.Errorf("failed to list task progress: %w", err)
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (leaderboard.TaskProgress, error) {
		var p leaderboard.TaskProgress
		err := row.Scan(
			&p.TaskID, &p.TaskName, &p.Description, &p.MaxScore,
			&p.StartTime, &p.EndTime,
			&p.ScoreEarned, &p.Status, &p.CompletedAt,
		)
		if err != nil {
			return p, fmt.Errorf("failed to scan task progress: %w", err)
		}
		return p, nil
	})
}

// GetRecord returns the student's record.
func (r *LeaderboardRepository) GetRecord(ctx context.Context, fccID shared.FccID) (*leaderboard.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM leaderboard WHERE student_fcc_id = $1`

	rec, err := scanRecord(r.conn.QueryRow(ctx, query, fccID.String()))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.NewDomainError("leaderboard", "GetRecord", shared.ErrNotFound, "leaderboard record not found")
		}
		return nil, err
	}
	return rec, nil
}

// ListClasses returns distinct non-empty task classes.
func (r *LeaderboardRepository) ListClasses(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT class
		FROM leaderboard_scoring_task
		WHERE class IS NOT NULL AND class <> ''
		ORDER BY class
	`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list classes: %w", err)
	}
	defer rows.Close()

	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPER FUNCTIONS
// ══════════════════════════════════════════════════════════════════════════════

func scanRecord(row pgx.Row) (*leaderboard.Record, error) {
	var rec leaderboard.Record
	var fccID string
	err := row.Scan(&rec.ID, &fccID, &rec.StudentName, &rec.FccClass, &rec.TotalScore, &rec.LastUpdated)
	if err != nil {
		if IsNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan leaderboard record: %w", err)
	}
	rec.FccID = shared.FccID(fccID)
	return &rec, nil
}
