package command

import (
	"context"
	"fmt"

	"github.com/fccthegurukul/gurukul-hub/internal/domain/quiz"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
	"github.com/fccthegurukul/gurukul-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// START QUIZ SESSION COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// StartQuizCommand opens a quiz session.
type StartQuizCommand struct {
	FccID          shared.FccID
	SkillTopic     string
	TotalQuestions int
}

// StartQuizHandler handles StartQuizCommand.
type StartQuizHandler struct {
	quizzes quiz.Repository
}

// NewStartQuizHandler creates a new StartQuizHandler.
func NewStartQuizHandler(quizzes quiz.Repository) *StartQuizHandler {
	return &StartQuizHandler{quizzes: quizzes}
}

// Handle stores a new open session.
func (h *StartQuizHandler) Handle(ctx context.Context, cmd StartQuizCommand) (*quiz.Session, error) {
	s, err := quiz.NewSession(cmd.FccID, cmd.SkillTopic, cmd.TotalQuestions)
	if err != nil {
		return nil, err
	}
	if err := h.quizzes.CreateSession(ctx, s); err != nil {
		return nil, fmt.Errorf("start_quiz: %w", err)
	}

	logger.FromContext(ctx).Info("quiz session started",
		logger.SessionID(s.SessionID),
		logger.FccID(s.FccID.String()),
		logger.String("topic", s.SkillTopic))
	return s, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT QUIZ ATTEMPT COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// SubmitQuizCommand grades a submission and closes the session.
type SubmitQuizCommand struct {
	SessionID int64
	FccID     shared.FccID
	Answers   []quiz.Answer
}

// Validate validates the command.
func (c SubmitQuizCommand) Validate() error {
	if c.SessionID <= 0 {
		return shared.NewDomainError("quiz", "Submit", shared.ErrInvalidID, "sessionId is required")
	}
	if c.FccID.IsEmpty() {
		return shared.ErrFccIDRequired
	}
	return nil
}

// SubmitQuizResult is the graded submission.
type SubmitQuizResult struct {
	Session  *quiz.Session
	Attempts []quiz.Attempt
}

// SubmitQuizHandler handles SubmitQuizCommand.
type SubmitQuizHandler struct {
	tx        shared.Transactor
	quizzes   quiz.Repository
	publisher shared.EventPublisher
	clock     shared.Clock
}

// NewSubmitQuizHandler creates a new SubmitQuizHandler.
func NewSubmitQuizHandler(tx shared.Transactor, quizzes quiz.Repository, publisher shared.EventPublisher, clock shared.Clock) *SubmitQuizHandler {
	return &SubmitQuizHandler{tx: tx, quizzes: quizzes, publisher: publisher, clock: clockOrDefault(clock)}
}

// Handle grades the answers, stores the attempts and closes the session in
// one transaction. A session closes once; resubmitting returns
// shared.ErrQuizSessionClosed.
func (h *SubmitQuizHandler) Handle(ctx context.Context, cmd SubmitQuizCommand) (*SubmitQuizResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	var res SubmitQuizResult

	err := h.tx.WithinTx(ctx, func(ctx context.Context) error {
		session, err := h.quizzes.GetSessionForUpdate(ctx, cmd.SessionID)
		if err != nil {
			return err
		}
		if session.IsClosed() {
			return shared.ErrQuizSessionClosed
		}

		key, err := h.quizzes.AnswerKey(ctx, quiz.QuestionIDs(cmd.Answers))
		if err != nil {
			return err
		}

		grading := quiz.Grade(session.SessionID, cmd.FccID, cmd.Answers, key)
		for _, id := range grading.Unknown {
			log.Warn("answer for unknown question skipped",
				logger.SessionID(session.SessionID),
				logger.Int64("question_id", id))
		}

		if err := h.quizzes.InsertAttempts(ctx, grading.Attempts); err != nil {
			return err
		}
		if err := session.Close(grading.Score, h.clock()); err != nil {
			return err
		}
		if err := h.quizzes.CloseSession(ctx, session); err != nil {
			return err
		}

		res = SubmitQuizResult{Session: session, Attempts: grading.Attempts}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("submit_quiz: %w", err)
	}

	s := res.Session
	log.Info("quiz submitted", logger.SessionID(s.SessionID), logger.Score(s.Score))
	publish(ctx, h.publisher, shared.NewQuizSubmittedEvent(s.SessionID, cmd.FccID.String(), s.SkillTopic, s.Score, *s.EndTime))
	return &res, nil
}
