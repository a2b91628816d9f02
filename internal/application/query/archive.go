package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/fccthegurukul/gurukul-hub/internal/domain/document"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/payment"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/quiz"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PAYMENTS
// ══════════════════════════════════════════════════════════════════════════════

// PaymentQueries lists recorded payments.
type PaymentQueries struct {
	payments payment.Repository
}

// NewPaymentQueries creates PaymentQueries.
func NewPaymentQueries(payments payment.Repository) *PaymentQueries {
	return &PaymentQueries{payments: payments}
}

// List returns payments matching f, newest first.
func (q *PaymentQueries) List(ctx context.Context, f payment.Filter) ([]payment.Payment, error) {
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return nil, shared.NewDomainError("payment", "List", shared.ErrInvalidInput, "startDate must not be after endDate")
	}
	out, err := q.payments.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list_payments: %w", err)
	}
	if out == nil {
		out = []payment.Payment{}
	}
	return out, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// FILE ARCHIVE
// ══════════════════════════════════════════════════════════════════════════════

// FileQueries reads the document archive.
type FileQueries struct {
	files document.Repository
}

// NewFileQueries creates FileQueries.
func NewFileQueries(files document.Repository) *FileQueries {
	return &FileQueries{files: files}
}

// List returns file metadata matching f.
func (q *FileQueries) List(ctx context.Context, f document.Filter) ([]document.Meta, error) {
	f.Search = strings.TrimSpace(f.Search)
	out, err := q.files.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list_files: %w", err)
	}
	if out == nil {
		out = []document.Meta{}
	}
	return out, nil
}

// Get returns a file with its content.
func (q *FileQueries) Get(ctx context.Context, id int64) (*document.File, error) {
	if id <= 0 {
		return nil, shared.ErrFileNotFound
	}
	return q.files.Get(ctx, id)
}

// ══════════════════════════════════════════════════════════════════════════════
// QUIZ
// ══════════════════════════════════════════════════════════════════════════════

// QuizQueries reads quiz questions.
type QuizQueries struct {
	quizzes quiz.Repository
}

// NewQuizQueries creates QuizQueries.
func NewQuizQueries(quizzes quiz.Repository) *QuizQueries {
	return &QuizQueries{quizzes: quizzes}
}

// ByTopic returns the questions of a topic without their answers.
func (q *QuizQueries) ByTopic(ctx context.Context, topic string) ([]quiz.Question, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, shared.NewDomainError("quiz", "ByTopic", shared.ErrEmptyValue, "skillTopic is required")
	}
	out, err := q.quizzes.ListByTopic(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("quiz_by_topic: %w", err)
	}
	if out == nil {
		out = []quiz.Question{}
	}
	return out, nil
}
