package command

import (
	"context"
	"fmt"

	"github.com/fccthegurukul/gurukul-hub/internal/domain/payment"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/student"
	"github.com/fccthegurukul/gurukul-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE STUDENT COMMAND
// Admission fields and the payment status of every payment change together.
// ══════════════════════════════════════════════════════════════════════════════

// UpdateStudentCommand patches an admission.
type UpdateStudentCommand struct {
	FccID  shared.FccID
	Update student.Update
}

// Validate validates the command.
func (c UpdateStudentCommand) Validate() error {
	if c.FccID.IsEmpty() {
		return shared.ErrFccIDRequired
	}
	return c.Update.Validate()
}

// UpdateStudentResult is the updated row and how many payments changed.
type UpdateStudentResult struct {
	Student         *student.Admission
	PaymentsUpdated int64
}

// UpdateStudentHandler handles UpdateStudentCommand.
type UpdateStudentHandler struct {
	tx        shared.Transactor
	students  student.Repository
	payments  payment.Repository
	publisher shared.EventPublisher
	clock     shared.Clock
}

// NewUpdateStudentHandler creates a new UpdateStudentHandler.
func NewUpdateStudentHandler(
	tx shared.Transactor,
	students student.Repository,
	payments payment.Repository,
	publisher shared.EventPublisher,
	clock shared.Clock,
) *UpdateStudentHandler {
	return &UpdateStudentHandler{
		tx:        tx,
		students:  students,
		payments:  payments,
		publisher: publisher,
		clock:     clockOrDefault(clock),
	}
}

// Handle applies the patch in one transaction. An unknown student rolls
// back with shared.ErrStudentNotFound.
func (h *UpdateStudentHandler) Handle(ctx context.Context, cmd UpdateStudentCommand) (*UpdateStudentResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var res UpdateStudentResult
	err := h.tx.WithinTx(ctx, func(ctx context.Context) error {
		updated, err := h.students.ApplyUpdate(ctx, cmd.FccID, cmd.Update)
		if err != nil {
			return err
		}
		res.Student = updated

		if status, ok := cmd.Update.PaymentStatus.Get(); ok {
			n, err := h.payments.UpdateStatusByFccID(ctx, cmd.FccID, status)
			if err != nil {
				return err
			}
			res.PaymentsUpdated = n
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update_student: %w", err)
	}

	logger.FromContext(ctx).Info("student updated",
		logger.FccID(cmd.FccID.String()),
		logger.Int64("payments_updated", res.PaymentsUpdated))
	publish(ctx, h.publisher, shared.NewStudentUpdatedEvent(cmd.FccID.String(), cmd.Update.PaymentStatus.IsSet(), h.clock()))
	return &res, nil
}
