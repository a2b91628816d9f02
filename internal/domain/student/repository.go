package student

import (
	"context"

	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
)

// Repository stores admissions and the per-student reference tables.
// Implementations join the transaction carried by ctx when there is one.
type Repository interface {
	// Insert admits a student and fills ID. Returns
	// shared.ErrStudentAlreadyExists on a duplicate FCC ID.
	Insert(ctx context.Context, a *Admission) error

	// List returns the whole register.
	List(ctx context.Context) ([]Admission, error)

	// GetByFccID returns shared.ErrStudentNotFound when absent.
	GetByFccID(ctx context.Context, fccID shared.FccID) (*Admission, error)

	// ApplyUpdate writes the admission fields present in u and returns the
	// updated row. PaymentStatus is ignored here.
	ApplyUpdate(ctx context.Context, fccID shared.FccID, u Update) (*Admission, error)

	// ListSkills returns the student's skill rows.
	ListSkills(ctx context.Context, fccID shared.FccID) ([]Skill, error)

	// GetTuitionFee returns shared.ErrTuitionFeeNotFound when absent.
	GetTuitionFee(ctx context.Context, fccID shared.FccID) (*TuitionFee, error)
}
