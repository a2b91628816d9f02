package postgres

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrations_OrderedAndReversible(t *testing.T) {
	prev := 0
	for _, m := range migrations {
		assert.Greater(t, m.Version, prev, "versions must increase: %s", m.Name)
		prev = m.Version
		assert.NotEmpty(t, strings.TrimSpace(m.UpSQL), m.Name)
		assert.NotEmpty(t, strings.TrimSpace(m.DownSQL), m.Name)
	}
}

func TestMigrations_CreateCoreTables(t *testing.T) {
	var all strings.Builder
	for _, m := range migrations {
		all.WriteString(m.UpSQL)
	}
	for _, table := range []string{
		"new_student_admission", "students", "attendance_log",
		"leaderboard", "leaderboard_log", "scoring_task_log",
		"payments", "receipts", "quiz_sessions", "quiz_attempts", "files",
	} {
		assert.Contains(t, all.String(), "CREATE TABLE IF NOT EXISTS "+table+" ", table)
	}
}

func TestNewMigrator_CopiesSet(t *testing.T) {
	m := NewMigrator(nil)
	m.set[0].Name = "changed"
	assert.NotEqual(t, "changed", migrations[0].Name)
}
