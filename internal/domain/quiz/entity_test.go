package quiz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
)

func TestGrade(t *testing.T) {
	key := map[int64]string{1: "Paris", 2: "4", 3: "H2O"}
	answers := []Answer{
		{QuestionID: 1, UserAnswer: "Paris"},
		{QuestionID: 2, UserAnswer: "5"},
		{QuestionID: 3, UserAnswer: "H2O"},
		{QuestionID: 99, UserAnswer: "?"},
	}

	g := Grade(10, "1234200024", answers, key)

	assert.Equal(t, 2, g.Score)
	assert.Len(t, g.Attempts, 3)
	assert.Equal(t, []int64{99}, g.Unknown)
	assert.True(t, g.Attempts[0].IsCorrect)
	assert.False(t, g.Attempts[1].IsCorrect)
	assert.Equal(t, int64(10), g.Attempts[2].SessionID)
}

func TestGrade_ExactMatchOnly(t *testing.T) {
	key := map[int64]string{7: "Paris"}

	for _, answer := range []string{" paris ", "paris", "Paris ", "PARIS"} {
		g := Grade(1, "1234200024", []Answer{{QuestionID: 7, UserAnswer: answer}}, key)
		assert.Zero(t, g.Score, "answer %q", answer)
		require.Len(t, g.Attempts, 1)
		assert.False(t, g.Attempts[0].IsCorrect)
		assert.Equal(t, answer, g.Attempts[0].UserAnswer)
	}

	g := Grade(1, "1234200024", []Answer{{QuestionID: 7, UserAnswer: "Paris"}}, key)
	assert.Equal(t, 1, g.Score)
}

func TestSession_CloseOnce(t *testing.T) {
	start := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	s := &Session{SessionID: 1, StartTime: start}

	require.NoError(t, s.Close(7, start.Add(12*time.Minute)))
	assert.Equal(t, 7, s.Score)
	assert.Equal(t, 12*time.Minute, *s.Duration)

	err := s.Close(9, start.Add(time.Hour))
	assert.ErrorIs(t, err, shared.ErrQuizSessionClosed)
	assert.Equal(t, 7, s.Score)
}

func TestNewSession_Validation(t *testing.T) {
	_, err := NewSession("", "math", 5)
	assert.ErrorIs(t, err, shared.ErrFccIDRequired)

	_, err = NewSession("1234200024", " ", 5)
	assert.True(t, shared.IsValidation(err))

	_, err = NewSession("1234200024", "math", 0)
	assert.True(t, shared.IsValidation(err))

	s, err := NewSession("1234200024", "math", 5)
	require.NoError(t, err)
	assert.Zero(t, s.Score)
}

func TestQuestionIDs_Dedupes(t *testing.T) {
	ids := QuestionIDs([]Answer{{QuestionID: 2}, {QuestionID: 1}, {QuestionID: 2}})
	assert.Equal(t, []int64{2, 1}, ids)
}
