package postgres

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/jackc/pgx/v5"
)

// Migration is one schema step. AppliedAt and IsApplied are filled by Status.
type Migration struct {
	Version   int
	Name      string
	UpSQL     string
	DownSQL   string
	AppliedAt time.Time
	IsApplied bool
}

// migrationLockID serializes migrators of several instances starting at once.
const migrationLockID = 0x67757275

const createVersionTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version    INTEGER PRIMARY KEY,
    name       TEXT NOT NULL,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

var migrations = []Migration{
	{Version: 1, Name: "create_admissions_presence", UpSQL: migration001Up, DownSQL: migration001Down},
	{Version: 2, Name: "create_leaderboard", UpSQL: migration002Up, DownSQL: migration002Down},
	{Version: 3, Name: "create_payments", UpSQL: migration003Up, DownSQL: migration003Down},
	{Version: 4, Name: "create_quiz_skills_files", UpSQL: migration004Up, DownSQL: migration004Down},
}

// Migrator applies the embedded migrations and records them in
// schema_migrations.
type Migrator struct {
	conn *Connection
	set  []Migration
}

func NewMigrator(conn *Connection) *Migrator {
	return &Migrator{conn: conn, set: slices.Clone(migrations)}
}

type appliedRow struct {
	Version   int
	AppliedAt time.Time
}

func (m *Migrator) applied(ctx context.Context) (map[int]time.Time, error) {
	if _, err := m.conn.Exec(ctx, createVersionTable); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}
	rows, err := m.conn.Query(ctx, `SELECT version, applied_at FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	list, err := pgx.CollectRows(rows, pgx.RowToStructByPos[appliedRow])
	if err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	out := make(map[int]time.Time, len(list))
	for _, r := range list {
		out[r.Version] = r.AppliedAt
	}
	return out, nil
}

// step runs sql and the bookkeeping statement in one transaction holding the
// migration lock.
func (m *Migrator) step(ctx context.Context, sql, record string, args ...any) error {
	return m.conn.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := m.conn.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, migrationLockID); err != nil {
			return err
		}
		if _, err := m.conn.Exec(ctx, sql); err != nil {
			return err
		}
		_, err := m.conn.Exec(ctx, record, args...)
		return err
	})
}

// Migrate applies every pending migration in version order, one transaction
// each. A step applied concurrently by another instance is skipped.
func (m *Migrator) Migrate(ctx context.Context) error {
	done, err := m.applied(ctx)
	if err != nil {
		return err
	}
	for _, mig := range m.set {
		if _, ok := done[mig.Version]; ok {
			continue
		}
		if mig.UpSQL == "" {
			return fmt.Errorf("%w: %03d_%s has no up SQL", ErrMigrationFailed, mig.Version, mig.Name)
		}
		err := m.step(ctx, mig.UpSQL,
			`INSERT INTO schema_migrations (version, name) VALUES ($1, $2) ON CONFLICT (version) DO NOTHING`,
			mig.Version, mig.Name)
		if err != nil {
			return fmt.Errorf("%w: %03d_%s: %v", ErrMigrationFailed, mig.Version, mig.Name, err)
		}
	}
	return nil
}

// Rollback reverts the highest applied migration. It is a no-op on an empty
// schema.
func (m *Migrator) Rollback(ctx context.Context) error {
	done, err := m.applied(ctx)
	if err != nil {
		return err
	}
	if len(done) == 0 {
		return nil
	}
	last := slices.Max(slices.Collect(maps.Keys(done)))
	i := slices.IndexFunc(m.set, func(mig Migration) bool { return mig.Version == last })
	if i < 0 || m.set[i].DownSQL == "" {
		return fmt.Errorf("%w: no down SQL for version %d", ErrMigrationFailed, last)
	}
	if err := m.step(ctx, m.set[i].DownSQL, `DELETE FROM schema_migrations WHERE version = $1`, last); err != nil {
		return fmt.Errorf("%w: rollback %03d_%s: %v", ErrMigrationFailed, last, m.set[i].Name, err)
	}
	return nil
}

// Status lists every embedded migration with its applied state.
func (m *Migrator) Status(ctx context.Context) ([]Migration, error) {
	done, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}
	out := slices.Clone(m.set)
	for i := range out {
		out[i].AppliedAt, out[i].IsApplied = done[out[i].Version]
	}
	return out, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: ADMISSIONS AND PRESENCE
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
CREATE TABLE IF NOT EXISTS new_student_admission (
    id SERIAL PRIMARY KEY,
    fcc_id VARCHAR(20) NOT NULL UNIQUE,
    name VARCHAR(150) NOT NULL,
    father VARCHAR(150) NOT NULL DEFAULT '',
    mother VARCHAR(150) NOT NULL DEFAULT '',
    schooling_class VARCHAR(50) NOT NULL DEFAULT '',
    mobile_number VARCHAR(20) NOT NULL DEFAULT '',
    address TEXT NOT NULL DEFAULT '',
    paid BOOLEAN NOT NULL DEFAULT FALSE,
    tuition_fee_paid NUMERIC(12,2) NOT NULL DEFAULT 0,
    fcc_class VARCHAR(50) NOT NULL DEFAULT '',
    skills TEXT NOT NULL DEFAULT '',
    admission_date TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_admission_fcc_class ON new_student_admission(fcc_class);

-- Presence state, one row per student.
CREATE TABLE IF NOT EXISTS students (
    fcc_id VARCHAR(20) PRIMARY KEY,
    ctc_time TIMESTAMP WITH TIME ZONE,
    ctg_time TIMESTAMP WITH TIME ZONE,
    task_completed BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS attendance_log (
    id SERIAL PRIMARY KEY,
    fcc_id VARCHAR(20) NOT NULL,
    log_date DATE NOT NULL,
    ctc_time TIMESTAMP WITH TIME ZONE,
    ctg_time TIMESTAMP WITH TIME ZONE,
    task_completed BOOLEAN NOT NULL DEFAULT FALSE,
    CONSTRAINT attendance_log_fcc_id_log_date_key UNIQUE (fcc_id, log_date)
);

CREATE INDEX IF NOT EXISTS idx_attendance_log_fcc_date ON attendance_log(fcc_id, log_date DESC);
`

const migration001Down = `
DROP TABLE IF EXISTS attendance_log;
DROP TABLE IF EXISTS students;
DROP TABLE IF EXISTS new_student_admission;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: LEADERBOARD
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
CREATE TABLE IF NOT EXISTS leaderboard_scoring_task (
    task_id BIGSERIAL PRIMARY KEY,
    task_name VARCHAR(200) NOT NULL,
    description TEXT,
    max_score INTEGER NOT NULL DEFAULT 0,
    start_time TIMESTAMP WITH TIME ZONE,
    end_time TIMESTAMP WITH TIME ZONE,
    class VARCHAR(50)
);

CREATE INDEX IF NOT EXISTS idx_scoring_task_class ON leaderboard_scoring_task(class);

CREATE TABLE IF NOT EXISTS scoring_task_log (
    id BIGSERIAL PRIMARY KEY,
    student_fcc_id VARCHAR(20) NOT NULL,
    task_id BIGINT NOT NULL,
    score_earned INTEGER NOT NULL CHECK (score_earned >= 0),
    status VARCHAR(20) NOT NULL,
    completed_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_scoring_task_log_student ON scoring_task_log(student_fcc_id, task_id);

CREATE TABLE IF NOT EXISTS leaderboard (
    id BIGSERIAL PRIMARY KEY,
    student_fcc_id VARCHAR(20) NOT NULL UNIQUE,
    student_name VARCHAR(150) NOT NULL DEFAULT '',
    fcc_class VARCHAR(50) NOT NULL DEFAULT '',
    total_score INTEGER NOT NULL DEFAULT 0,
    last_updated TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_leaderboard_class_score ON leaderboard(fcc_class, total_score DESC);

CREATE TABLE IF NOT EXISTS leaderboard_log (
    id BIGSERIAL PRIMARY KEY,
    leaderboard_id BIGINT NOT NULL REFERENCES leaderboard(id) ON DELETE CASCADE,
    action VARCHAR(20) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    logged_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
`

const migration002Down = `
DROP TABLE IF EXISTS leaderboard_log;
DROP TABLE IF EXISTS leaderboard;
DROP TABLE IF EXISTS scoring_task_log;
DROP TABLE IF EXISTS leaderboard_scoring_task;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: PAYMENTS AND RECEIPTS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
CREATE TABLE IF NOT EXISTS payments (
    id BIGSERIAL PRIMARY KEY,
    fcc_id VARCHAR(20) NOT NULL,
    amount NUMERIC(12,2) NOT NULL,
    payment_method VARCHAR(50) NOT NULL DEFAULT '',
    payment_status VARCHAR(50) NOT NULL DEFAULT '',
    student_name VARCHAR(150) NOT NULL DEFAULT '',
    monthly_cycle_days INTEGER[] NOT NULL DEFAULT '{}',
    payment_date TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_payments_fcc_id ON payments(fcc_id);
CREATE INDEX IF NOT EXISTS idx_payments_date ON payments(payment_date DESC);
CREATE INDEX IF NOT EXISTS idx_payments_cycle_days ON payments USING GIN (monthly_cycle_days);

CREATE TABLE IF NOT EXISTS receipts (
    id BIGSERIAL PRIMARY KEY,
    payment_id BIGINT NOT NULL UNIQUE REFERENCES payments(id) ON DELETE CASCADE,
    student_name VARCHAR(150) NOT NULL DEFAULT '',
    fcc_id VARCHAR(20) NOT NULL,
    base_amount NUMERIC(12,2) NOT NULL,
    gst NUMERIC(12,2) NOT NULL,
    grand_total NUMERIC(12,2) NOT NULL,
    payment_method VARCHAR(50) NOT NULL DEFAULT '',
    payment_status VARCHAR(50) NOT NULL DEFAULT '',
    monthly_cycle_days TEXT NOT NULL DEFAULT '',
    payment_date TIMESTAMP WITH TIME ZONE NOT NULL,
    receipt_path TEXT NOT NULL
);
`

const migration003Down = `
DROP TABLE IF EXISTS receipts;
DROP TABLE IF EXISTS payments;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 004: QUIZ, SKILLS, TUITION, FILES
// ══════════════════════════════════════════════════════════════════════════════

const migration004Up = `
CREATE TABLE IF NOT EXISTS quizzes (
    quiz_id BIGSERIAL PRIMARY KEY,
    skill_topic VARCHAR(100) NOT NULL,
    question TEXT NOT NULL,
    options JSONB NOT NULL DEFAULT '[]'::jsonb,
    correct_answer TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_quizzes_topic ON quizzes(skill_topic);

CREATE TABLE IF NOT EXISTS quiz_sessions (
    session_id BIGSERIAL PRIMARY KEY,
    fcc_id VARCHAR(20) NOT NULL,
    skill_topic VARCHAR(100) NOT NULL,
    total_questions INTEGER NOT NULL,
    score INTEGER NOT NULL DEFAULT 0,
    start_time TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    end_time TIMESTAMP WITH TIME ZONE,
    duration INTERVAL
);

CREATE TABLE IF NOT EXISTS quiz_attempts (
    id BIGSERIAL PRIMARY KEY,
    session_id BIGINT NOT NULL REFERENCES quiz_sessions(session_id) ON DELETE CASCADE,
    fcc_id VARCHAR(20) NOT NULL,
    question_id BIGINT NOT NULL,
    user_answer TEXT NOT NULL DEFAULT '',
    is_correct BOOLEAN NOT NULL
);

CREATE TABLE IF NOT EXISTS student_skills (
    id SERIAL PRIMARY KEY,
    fcc_id VARCHAR(20) NOT NULL,
    skill_name VARCHAR(100) NOT NULL,
    skill_level VARCHAR(50),
    status VARCHAR(50),
    description TEXT
);

CREATE INDEX IF NOT EXISTS idx_student_skills_fcc_id ON student_skills(fcc_id);

CREATE TABLE IF NOT EXISTS tuition_fee_details (
    fcc_id VARCHAR(20) PRIMARY KEY,
    total_fee NUMERIC(12,2) NOT NULL DEFAULT 0,
    fee_paid NUMERIC(12,2) NOT NULL DEFAULT 0,
    fee_remaining NUMERIC(12,2) NOT NULL DEFAULT 0,
    due_date DATE,
    offer_price NUMERIC(12,2),
    offer_valid_till DATE,
    class VARCHAR(50) NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS files (
    id BIGSERIAL PRIMARY KEY,
    filename TEXT NOT NULL,
    filetype VARCHAR(150) NOT NULL,
    filedata BYTEA NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    uploaded_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_files_uploaded_at ON files(uploaded_at DESC);
`

const migration004Down = `
DROP TABLE IF EXISTS files;
DROP TABLE IF EXISTS tuition_fee_details;
DROP TABLE IF EXISTS student_skills;
DROP TABLE IF EXISTS quiz_attempts;
DROP TABLE IF EXISTS quiz_sessions;
DROP TABLE IF EXISTS quizzes;
`
