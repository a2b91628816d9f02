package quiz

import "context"

// Repository stores quiz questions, sessions and attempts.
type Repository interface {
	ListByTopic(ctx context.Context, topic string) ([]Question, error)

	// AnswerKey returns correct answers for the given question IDs.
	// IDs without a question are absent from the map.
	AnswerKey(ctx context.Context, ids []int64) (map[int64]string, error)

	// CreateSession stores s and fills SessionID and StartTime.
	CreateSession(ctx context.Context, s *Session) error

	// GetSessionForUpdate row-locks the session.
	// Returns shared.ErrQuizSessionNotFound when absent.
	GetSessionForUpdate(ctx context.Context, id int64) (*Session, error)

	InsertAttempts(ctx context.Context, attempts []Attempt) error

	// CloseSession persists score, end time and duration.
	CloseSession(ctx context.Context, s *Session) error
}
