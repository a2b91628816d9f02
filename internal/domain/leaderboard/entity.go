// Package leaderboard models the scoring ledger: completion logs, the
// running-total record per student and its audit trail.
package leaderboard

import (
	"strings"
	"time"

	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
)

// ClassFilterAll disables class filtering on ranked reads.
const ClassFilterAll = "ALL"

// DefaultLimit caps ranked reads.
const DefaultLimit = 100

// TaskStatus is the status recorded on a completion log.
type TaskStatus string

const (
	TaskStatusCompleted TaskStatus = "COMPLETED"
)

// Audit actions and descriptions.
const (
	ActionUpdate              = "UPDATE"
	DescriptionTaskCompletion = "Score updated by task completion"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENTITIES
// ══════════════════════════════════════════════════════════════════════════════

// Record is the running total for one student.
type Record struct {
	ID          int64        `json:"id"`
	FccID       shared.FccID `json:"student_fcc_id"`
	StudentName string       `json:"student_name"`
	FccClass    string       `json:"fcc_class"`
	TotalScore  int          `json:"total_score"`
	LastUpdated time.Time    `json:"last_updated"`
}

// Task is a scoring task published to a class.
type Task struct {
	TaskID      int64      `json:"task_id"`
	TaskName    string     `json:"task_name"`
	Description string     `json:"description"`
	MaxScore    int        `json:"max_score"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
}

// TaskProgress is a task joined with the student's completion, if any.
// Unearned tasks carry a zero score and nil status.
type TaskProgress struct {
	Task
	ScoreEarned int        `json:"score_earned"`
	Status      *string    `json:"status"`
	CompletedAt *time.Time `json:"completed_at"`
}

// TaskLog is the append-only record of one completion.
type TaskLog struct {
	ID          int64        `json:"id"`
	FccID       shared.FccID `json:"student_fcc_id"`
	TaskID      int64        `json:"task_id"`
	ScoreEarned int          `json:"score_earned"`
	Status      TaskStatus   `json:"status"`
	CompletedAt time.Time    `json:"completed_at"`
}

// LogEntry is one audit row for a leaderboard record change.
type LogEntry struct {
	ID            int64     `json:"id"`
	LeaderboardID int64     `json:"leaderboard_id"`
	Action        string    `json:"action"`
	Description   string    `json:"description"`
	LoggedAt      time.Time `json:"logged_at"`
}

// RankedEntry is a record with its 1-based position.
type RankedEntry struct {
	Rank        shared.Rank  `json:"rank"`
	FccID       shared.FccID `json:"student_fcc_id"`
	StudentName string       `json:"student_name"`
	FccClass    string       `json:"fcc_class"`
	TotalScore  int          `json:"total_score"`
}

// ══════════════════════════════════════════════════════════════════════════════
// COMMANDS
// ══════════════════════════════════════════════════════════════════════════════

// Completion is a request to score a finished task.
type Completion struct {
	FccID       shared.FccID
	TaskID      int64
	ScoreEarned int
}

// Validate checks the completion before any I/O.
func (c Completion) Validate() error {
	if c.FccID.IsEmpty() {
		return shared.ErrFccIDRequired
	}
	if c.TaskID <= 0 {
		return shared.ErrTaskIDRequired
	}
	if c.ScoreEarned < 0 {
		return shared.ErrInvalidScore
	}
	return nil
}

// NewTaskLog builds the completion log row.
func (c Completion) NewTaskLog(at time.Time) *TaskLog {
	return &TaskLog{
		FccID:       c.FccID,
		TaskID:      c.TaskID,
		ScoreEarned: c.ScoreEarned,
		Status:      TaskStatusCompleted,
		CompletedAt: at,
	}
}

// NewCompletionAudit builds the audit row for a record updated by completion.
func NewCompletionAudit(rec *Record, at time.Time) *LogEntry {
	return &LogEntry{
		LeaderboardID: rec.ID,
		Action:        ActionUpdate,
		Description:   DescriptionTaskCompletion,
		LoggedAt:      at,
	}
}

// NormalizeClassFilter maps "" and "ALL" (any case) to no filter.
func NormalizeClassFilter(class string) string {
	class = strings.TrimSpace(class)
	if strings.EqualFold(class, ClassFilterAll) {
		return ""
	}
	return class
}

// Rank assigns 1-based positions to records already ordered by score.
// Equal scores share a position.
func Rank(records []Record) []RankedEntry {
	out := make([]RankedEntry, len(records))
	pos := 0
	for i, r := range records {
		if i == 0 || r.TotalScore != records[i-1].TotalScore {
			pos = i + 1
		}
		out[i] = RankedEntry{
			Rank:        shared.Rank(pos),
			FccID:       r.FccID,
			StudentName: r.StudentName,
			FccClass:    r.FccClass,
			TotalScore:  r.TotalScore,
		}
	}
	return out
}

// Board is the read model for one student's leaderboard page.
type Board struct {
	Leaderboard []Record       `json:"leaderboard"`
	Tasks       []TaskProgress `json:"tasks"`
	Student     *Record        `json:"student"`
}
