package command

import (
	"context"
	"fmt"

	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/student"
	"github.com/fccthegurukul/gurukul-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADMIT STUDENT COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// AdmitStudentCommand adds a row to the admission register.
type AdmitStudentCommand struct {
	Admission student.Admission
}

// Validate validates the command.
func (c AdmitStudentCommand) Validate() error {
	return c.Admission.Validate()
}

// AdmitStudentHandler handles AdmitStudentCommand.
type AdmitStudentHandler struct {
	students  student.Repository
	publisher shared.EventPublisher
	clock     shared.Clock
}

// NewAdmitStudentHandler creates a new AdmitStudentHandler.
func NewAdmitStudentHandler(students student.Repository, publisher shared.EventPublisher, clock shared.Clock) *AdmitStudentHandler {
	return &AdmitStudentHandler{students: students, publisher: publisher, clock: clockOrDefault(clock)}
}

// Handle stores the admission and returns the stored row.
func (h *AdmitStudentHandler) Handle(ctx context.Context, cmd AdmitStudentCommand) (*student.Admission, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	a := cmd.Admission
	if err := h.students.Insert(ctx, &a); err != nil {
		return nil, fmt.Errorf("admit_student: %w", err)
	}

	logger.FromContext(ctx).Info("student admitted", logger.FccID(a.FccID.String()))
	publish(ctx, h.publisher, shared.NewStudentAdmittedEvent(a.FccID.String(), a.Name, a.FccClass, h.clock()))
	return &a, nil
}
