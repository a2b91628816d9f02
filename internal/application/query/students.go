package query

import (
	"context"
	"fmt"
	"time"

	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/student"
	"github.com/fccthegurukul/gurukul-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT READS
// ══════════════════════════════════════════════════════════════════════════════

// TuitionFeeCacheTTL bounds staleness of cached fee plans.
const TuitionFeeCacheTTL = 10 * time.Minute

// TuitionFeeKey is the cache key of a student's fee plan.
func TuitionFeeKey(fccID shared.FccID) string {
	return "tuition:" + fccID.String()
}

// StudentQueries serves the admission register and per-student reference data.
type StudentQueries struct {
	students student.Repository
	photos   student.PhotoLookup
	cache    Cache
}

// NewStudentQueries creates StudentQueries. photos and cache may be nil.
func NewStudentQueries(students student.Repository, photos student.PhotoLookup, cache Cache) *StudentQueries {
	return &StudentQueries{students: students, photos: photos, cache: cache}
}

// List returns the register with admission dates formatted for display.
func (q *StudentQueries) List(ctx context.Context) ([]student.Listed, error) {
	rows, err := q.students.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list_students: %w", err)
	}
	out := make([]student.Listed, len(rows))
	for i, a := range rows {
		out[i] = student.Listed{Admission: a, AdmissionDate: timeutil.FormatDisplay(a.AdmissionDate)}
	}
	return out, nil
}

// Profile returns the admission with its photo URL.
func (q *StudentQueries) Profile(ctx context.Context, fccID shared.FccID) (*student.Profile, error) {
	if fccID.IsEmpty() {
		return nil, shared.ErrFccIDRequired
	}
	a, err := q.students.GetByFccID(ctx, fccID)
	if err != nil {
		return nil, err
	}
	p := student.NewProfile(*a, q.photos)
	return &p, nil
}

// Skills returns the student's skills with display defaults. No rows is
// shared.ErrSkillsNotFound.
func (q *StudentQueries) Skills(ctx context.Context, fccID shared.FccID) ([]student.SkillView, error) {
	if fccID.IsEmpty() {
		return nil, shared.ErrFccIDRequired
	}
	rows, err := q.students.ListSkills(ctx, fccID)
	if err != nil {
		return nil, fmt.Errorf("get_skills: %w", err)
	}
	if len(rows) == 0 {
		return nil, shared.ErrSkillsNotFound
	}
	out := make([]student.SkillView, len(rows))
	for i, s := range rows {
		out[i] = s.WithDefaults()
	}
	return out, nil
}

// TuitionFee returns the fee plan, served from the cache when present.
func (q *StudentQueries) TuitionFee(ctx context.Context, fccID shared.FccID) (*student.TuitionFee, error) {
	if fccID.IsEmpty() {
		return nil, shared.ErrFccIDRequired
	}
	return cached(ctx, q.cache, TuitionFeeKey(fccID), TuitionFeeCacheTTL,
		func(ctx context.Context) (*student.TuitionFee, error) {
			return q.students.GetTuitionFee(ctx, fccID)
		})
}
