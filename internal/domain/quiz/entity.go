// Package quiz models topic quizzes, timed sessions and graded attempts.
package quiz

import (
	"strings"
	"time"

	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
)

// Question is a stored quiz question.
type Question struct {
	QuizID        int64    `json:"quiz_id"`
	SkillTopic    string   `json:"skill_topic"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"-"`
}

// Session is one student's sitting of a topic quiz.
type Session struct {
	SessionID      int64          `json:"session_id"`
	FccID          shared.FccID   `json:"fcc_id"`
	SkillTopic     string         `json:"skill_topic"`
	TotalQuestions int            `json:"total_questions"`
	Score          int            `json:"score"`
	StartTime      time.Time      `json:"start_time"`
	EndTime        *time.Time     `json:"end_time"`
	Duration       *time.Duration `json:"duration"`
}

// NewSession builds an open session with a zero score.
func NewSession(fccID shared.FccID, topic string, total int) (*Session, error) {
	if fccID.IsEmpty() {
		return nil, shared.ErrFccIDRequired
	}
	if strings.TrimSpace(topic) == "" {
		return nil, shared.NewDomainError("quiz", "Start", shared.ErrEmptyValue, "skillTopic is required")
	}
	if total <= 0 {
		return nil, shared.NewDomainError("quiz", "Start", shared.ErrValueOutOfRange, "totalQuestions must be positive")
	}
	return &Session{FccID: fccID, SkillTopic: topic, TotalQuestions: total}, nil
}

// IsClosed reports whether the session has been submitted.
func (s *Session) IsClosed() bool {
	return s.EndTime != nil
}

// Close records the final score. A session closes exactly once.
func (s *Session) Close(score int, at time.Time) error {
	if s.IsClosed() {
		return shared.ErrQuizSessionClosed
	}
	d := at.Sub(s.StartTime)
	if d < 0 {
		d = 0
	}
	s.Score = score
	s.EndTime = &at
	s.Duration = &d
	return nil
}

// Answer is one submitted answer.
type Answer struct {
	QuestionID int64  `json:"questionId"`
	UserAnswer string `json:"userAnswer"`
}

// Attempt is a graded answer.
type Attempt struct {
	SessionID  int64        `json:"session_id"`
	QuestionID int64        `json:"question_id"`
	UserAnswer string       `json:"user_answer"`
	IsCorrect  bool         `json:"is_correct"`
	FccID      shared.FccID `json:"fcc_id"`
}

// Grading is the outcome of grading a submission.
type Grading struct {
	Attempts []Attempt
	Score    int
	Unknown  []int64 // question IDs with no stored answer
}

// Grade compares answers against the answer key. Answers match only when
// byte-for-byte equal to the stored answer; whitespace and case count.
// Questions missing from the key are skipped.
func Grade(sessionID int64, fccID shared.FccID, answers []Answer, key map[int64]string) Grading {
	g := Grading{Attempts: make([]Attempt, 0, len(answers))}
	for _, a := range answers {
		correct, ok := key[a.QuestionID]
		if !ok {
			g.Unknown = append(g.Unknown, a.QuestionID)
			continue
		}
		isCorrect := a.UserAnswer == correct
		if isCorrect {
			g.Score++
		}
		g.Attempts = append(g.Attempts, Attempt{
			SessionID:  sessionID,
			QuestionID: a.QuestionID,
			UserAnswer: a.UserAnswer,
			IsCorrect:  isCorrect,
			FccID:      fccID,
		})
	}
	return g
}

// QuestionIDs extracts the distinct question IDs of a submission.
func QuestionIDs(answers []Answer) []int64 {
	seen := make(map[int64]struct{}, len(answers))
	ids := make([]int64, 0, len(answers))
	for _, a := range answers {
		if _, dup := seen[a.QuestionID]; dup {
			continue
		}
		seen[a.QuestionID] = struct{}{}
		ids = append(ids, a.QuestionID)
	}
	return ids
}
