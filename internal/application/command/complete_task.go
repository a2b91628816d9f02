package command

import (
	"context"
	"fmt"

	"github.com/fccthegurukul/gurukul-hub/internal/domain/leaderboard"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
	"github.com/fccthegurukul/gurukul-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETE TASK COMMAND
// Completion log, score increment and audit entry.
// ══════════════════════════════════════════════════════════════════════════════

// CompleteTaskCommand scores a finished task.
type CompleteTaskCommand struct {
	Completion leaderboard.Completion
}

// Validate validates the command.
func (c CompleteTaskCommand) Validate() error {
	return c.Completion.Validate()
}

// CompleteTaskResult carries the updated record.
type CompleteTaskResult struct {
	Record  *leaderboard.Record
	TaskLog *leaderboard.TaskLog
}

// CompleteTaskHandler handles CompleteTaskCommand.
type CompleteTaskHandler struct {
	tx        shared.Transactor
	ledger    leaderboard.Repository
	publisher shared.EventPublisher
	clock     shared.Clock
	atomic    bool
}

// CompleteTaskHandlerConfig contains configuration for the handler.
type CompleteTaskHandlerConfig struct {
	// Atomic runs the three writes in one transaction. When false they run
	// one after another and a failed increment leaves the completion log.
	Atomic bool
}

// NewCompleteTaskHandler creates a new CompleteTaskHandler.
func NewCompleteTaskHandler(
	tx shared.Transactor,
	ledger leaderboard.Repository,
	publisher shared.EventPublisher,
	clock shared.Clock,
	config CompleteTaskHandlerConfig,
) *CompleteTaskHandler {
	return &CompleteTaskHandler{
		tx:        tx,
		ledger:    ledger,
		publisher: publisher,
		clock:     clockOrDefault(clock),
		atomic:    config.Atomic,
	}
}

// Handle records the completion. A student without a leaderboard record
// fails with shared.ErrLeaderboardRecordMissing.
func (h *CompleteTaskHandler) Handle(ctx context.Context, cmd CompleteTaskCommand) (*CompleteTaskResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	now := h.clock()
	var res CompleteTaskResult

	run := func(ctx context.Context) error {
		taskLog := cmd.Completion.NewTaskLog(now)
		if err := h.ledger.InsertTaskLog(ctx, taskLog); err != nil {
			return err
		}

		rec, err := h.ledger.IncrementScore(ctx, cmd.Completion.FccID, cmd.Completion.ScoreEarned, now)
		if err != nil {
			return err
		}

		if err := h.ledger.AppendLog(ctx, leaderboard.NewCompletionAudit(rec, now)); err != nil {
			return err
		}

		res = CompleteTaskResult{Record: rec, TaskLog: taskLog}
		return nil
	}

	var err error
	if h.atomic {
		err = h.tx.WithinTx(ctx, run)
	} else {
		err = run(ctx)
	}
	if err != nil {
		logger.FromContext(ctx).Warn("task completion failed",
			logger.FccID(cmd.Completion.FccID.String()),
			logger.TaskID(cmd.Completion.TaskID),
			logger.Bool("atomic", h.atomic),
			logger.Err(err))
		return nil, fmt.Errorf("complete_task: %w", err)
	}

	rec := res.Record
	logger.FromContext(ctx).Info("task completed",
		logger.FccID(rec.FccID.String()),
		logger.TaskID(cmd.Completion.TaskID),
		logger.Score(rec.TotalScore))

	publish(ctx, h.publisher, shared.NewTaskCompletedEvent(
		rec.FccID.String(), cmd.Completion.TaskID, cmd.Completion.ScoreEarned, rec.TotalScore,
		rec.FccClass, rec.StudentName, now))
	return &res, nil
}
