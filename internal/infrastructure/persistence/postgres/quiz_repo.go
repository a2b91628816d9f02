package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/fccthegurukul/gurukul-hub/internal/domain/quiz"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
)

// QuizRepository implements quiz.Repository for PostgreSQL.
type QuizRepository struct {
	conn *Connection
}

// NewQuizRepository creates a new QuizRepository.
func NewQuizRepository(conn *Connection) *QuizRepository {
	return &QuizRepository{conn: conn}
}

// ListByTopic returns the questions of a topic.
func (r *QuizRepository) ListByTopic(ctx context.Context, topic string) ([]quiz.Question, error) {
	query := `
		SELECT quiz_id, skill_topic, question, options, correct_answer
		FROM quizzes
		WHERE skill_topic = $1
		ORDER BY quiz_id
	`

	rows, err := r.conn.Query(ctx, query, topic)
	if err != nil {
		return nil, fmt.Errorf("failed to list quiz questions: %w", err)
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (quiz.Question, error) {
		var q quiz.Question
		var options []byte
		if err := row.Scan(&q.QuizID, &q.SkillTopic, &q.Question, &options, &q.CorrectAnswer); err != nil {
			return q, fmt.Errorf("failed to scan quiz question: %w", err)
		}
		if len(options) > 0 {
			if err := json.Unmarshal(options, &q.Options); err != nil {
				return q, fmt.Errorf("failed to decode options of question %d: %w", q.QuizID, err)
			}
		}
		return q, nil
	})
}

// AnswerKey returns correct answers for ids.
func (r *QuizRepository) AnswerKey(ctx context.Context, ids []int64) (map[int64]string, error) {
	key := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return key, nil
	}

	rows, err := r.conn.Query(ctx, `SELECT quiz_id, correct_answer FROM quizzes WHERE quiz_id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load answer key: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var answer string
		if err := rows.Scan(&id, &answer); err != nil {
			return nil, fmt.Errorf("failed to scan answer key: %w", err)
		}
		key[id] = answer
	}
	return key, rows.Err()
}

// CreateSession stores an open session.
func (r *QuizRepository) CreateSession(ctx context.Context, s *quiz.Session) error {
	query := `
		INSERT INTO quiz_sessions (fcc_id, skill_topic, total_questions, score)
		VALUES ($1, $2, $3, $4)
		RETURNING session_id, start_time
	`

	err := r.conn.QueryRow(ctx, query, s.FccID.String(), s.SkillTopic, s.TotalQuestions, s.Score).
		Scan(&s.SessionID, &s.StartTime)
	if err != nil {
		return fmt.Errorf("failed to create quiz session: %w", err)
	}
	return nil
}

// GetSessionForUpdate row-locks the session.
func (r *QuizRepository) GetSessionForUpdate(ctx context.Context, id int64) (*quiz.Session, error) {
	query := `
		SELECT session_id, fcc_id, skill_topic, total_questions, score, start_time, end_time, duration
		FROM quiz_sessions
		WHERE session_id = $1
		FOR UPDATE
	`

	var s quiz.Session
	var fccID string
	err := r.conn.QueryRow(ctx, query, id).Scan(
		&s.SessionID, &fccID, &s.SkillTopic, &s.TotalQuestions, &s.Score, &s.StartTime, &s.EndTime, &s.Duration,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrQuizSessionNotFound
		}
		return nil, fmt.Errorf("failed to get quiz session: %w", err)
	}
	s.FccID = shared.FccID(fccID)
	return &s, nil
}

// InsertAttempts stores graded answers with one batched round trip.
func (r *QuizRepository) InsertAttempts(ctx context.Context, attempts []quiz.Attempt) error {
	if len(attempts) == 0 {
		return nil
	}

	query := `
		INSERT INTO quiz_attempts (session_id, fcc_id, question_id, user_answer, is_correct)
		VALUES ($1, $2, $3, $4, $5)
	`

	batch := &pgx.Batch{}
	for _, a := range attempts {
		batch.Queue(query, a.SessionID, a.FccID.String(), a.QuestionID, a.UserAnswer, a.IsCorrect)
	}

	br := r.conn.SendBatch(ctx, batch)
	defer br.Close()

	for range attempts {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to insert quiz attempt: %w", err)
		}
	}
	return nil
}

// CloseSession persists the final score. The end_time guard makes a second
// close a no-op that reports ErrQuizSessionClosed.
func (r *QuizRepository) CloseSession(ctx context.Context, s *quiz.Session) error {
	query := `
		UPDATE quiz_sessions
		SET score = $1, end_time = $2, duration = $3
		WHERE session_id = $4 AND end_time IS NULL
	`

	tag, err := r.conn.Exec(ctx, query, s.Score, s.EndTime, s.Duration, s.SessionID)
	if err != nil {
		return fmt.Errorf("failed to close quiz session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrQuizSessionClosed
	}
	return nil
}
