package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fccthegurukul/gurukul-hub/internal/domain/presence"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
)

// PresenceRepository implements presence.Repository for PostgreSQL.
type PresenceRepository struct {
	conn *Connection
}

// NewPresenceRepository creates a new PresenceRepository.
func NewPresenceRepository(conn *Connection) *PresenceRepository {
	return &PresenceRepository{conn: conn}
}

// ─────────────────────────────────────────────────────────────────────────────
// Current state
// ─────────────────────────────────────────────────────────────────────────────

// GetStateForUpdate locks the student's row until the surrounding
// transaction ends. Outside a transaction the lock is released immediately.
func (r *PresenceRepository) GetStateForUpdate(ctx context.Context, fccID shared.FccID) (*presence.State, error) {
	query := `SELECT fcc_id, ctc_time, ctg_time, task_completed FROM students WHERE fcc_id = $1 FOR UPDATE`
	return r.getState(ctx, query, fccID)
}

// GetState loads the current state.
func (r *PresenceRepository) GetState(ctx context.Context, fccID shared.FccID) (*presence.State, error) {
	query := `SELECT fcc_id, ctc_time, ctg_time, task_completed FROM students WHERE fcc_id = $1`
	return r.getState(ctx, query, fccID)
}

func (r *PresenceRepository) getState(ctx context.Context, query string, fccID shared.FccID) (*presence.State, error) {
	var s presence.State
	var id string
	err := r.conn.QueryRow(ctx, query, fccID.String()).Scan(&id, &s.CTCTime, &s.CTGTime, &s.TaskCompleted)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrPresenceNotFound
		}
		return nil, fmt.Errorf("failed to get presence state: %w", err)
	}
	s.FccID = shared.FccID(id)
	return &s, nil
}

// InsertState creates the first state row. A row committed meanwhile by a
// concurrent first signal is left alone and reported as not inserted.
func (r *PresenceRepository) InsertState(ctx context.Context, s *presence.State) (bool, error) {
	query := `
		INSERT INTO students (fcc_id, ctc_time, ctg_time, task_completed)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (fcc_id) DO NOTHING
	`

	tag, err := r.conn.Exec(ctx, query, s.FccID.String(), s.CTCTime, s.CTGTime, s.TaskCompleted)
	if err != nil {
		return false, fmt.Errorf("failed to insert presence state: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// UpdateState writes the signaled timestamps and the task flag.
func (r *PresenceRepository) UpdateState(ctx context.Context, fccID shared.FccID, p presence.Patch) error {
	var set setList
	if v, ok := p.CTCTime.Get(); ok {
		set.add("ctc_time", v)
	}
	if v, ok := p.CTGTime.Get(); ok {
		set.add("ctg_time", v)
	}
	set.add("task_completed", p.TaskCompleted)

	query := fmt.Sprintf(`UPDATE students SET %s WHERE fcc_id = %s`, set.String(), set.next(fccID.String()))

	tag, err := r.conn.Exec(ctx, query, set.args...)
	if err != nil {
		return fmt.Errorf("failed to update presence state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrPresenceNotFound
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Daily log
// ─────────────────────────────────────────────────────────────────────────────

// UpsertLog inserts the day's entry or merges the patch into it. Only the
// signaled timestamps appear in the conflict update, so the others keep
// their stored value.
func (r *PresenceRepository) UpsertLog(ctx context.Context, fccID shared.FccID, logDate time.Time, p presence.Patch) error {
	var conflict setList
	if p.CTCTime.IsSet() {
		conflict.addExcluded("ctc_time")
	}
	if p.CTGTime.IsSet() {
		conflict.addExcluded("ctg_time")
	}
	conflict.addExcluded("task_completed")

	query := fmt.Sprintf(`
		INSERT INTO attendance_log (fcc_id, log_date, ctc_time, ctg_time, task_completed)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (fcc_id, log_date) DO UPDATE SET %s
	`, conflict.String())

	_, err := r.conn.Exec(ctx, query,
		fccID.String(),
		logDate,
		p.CTCTime.Ptr(),
		p.CTGTime.Ptr(),
		p.TaskCompleted,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert attendance log: %w", err)
	}
	return nil
}

// ListLogs returns the student's attendance, newest day first.
func (r *PresenceRepository) ListLogs(ctx context.Context, fccID shared.FccID) ([]presence.LogEntry, error) {
	query := `
		SELECT fcc_id, log_date, ctc_time, ctg_time, task_completed
		FROM attendance_log
		WHERE fcc_id = $1
		ORDER BY log_date DESC
	`

	rows, err := r.conn.Query(ctx, query, fccID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance log: %w", err)
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (presence.LogEntry, error) {
		var e presence.LogEntry
		var id string
		if err := row.Scan(&id, &e.LogDate, &e.CTCTime, &e.CTGTime, &e.TaskCompleted); err != nil {
			return e, fmt.Errorf("failed to scan attendance log: %w", err)
		}
		e.FccID = shared.FccID(id)
		return e, nil
	})
}
