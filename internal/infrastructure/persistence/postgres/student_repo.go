package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// StudentRepository implements student.Repository for PostgreSQL.
type StudentRepository struct {
	conn *Connection
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(conn *Connection) *StudentRepository {
	return &StudentRepository{conn: conn}
}

const admissionColumns = `
	id, fcc_id, name, father, mother, schooling_class, mobile_number, address,
	paid, tuition_fee_paid, fcc_class, skills, admission_date`

// ─────────────────────────────────────────────────────────────────────────────
// Admissions
// ─────────────────────────────────────────────────────────────────────────────

// Insert admits a student. A zero AdmissionDate falls back to NOW().
func (r *StudentRepository) Insert(ctx context.Context, a *student.Admission) error {
	query := `
		INSERT INTO new_student_admission (
			fcc_id, name, father, mother, schooling_class, mobile_number, address,
			paid, tuition_fee_paid, fcc_class, skills, admission_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, COALESCE($12, NOW()))
		RETURNING id, admission_date
	`

	err := r.conn.QueryRow(ctx, query, admissionInsertArgs(a)...).Scan(&a.ID, &a.AdmissionDate)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrStudentAlreadyExists
		}
		return fmt.Errorf("failed to insert admission: %w", err)
	}

	return nil
}

func admissionInsertArgs(a *student.Admission) []any {
	var admitted *time.Time
	if !a.AdmissionDate.IsZero() {
		d := a.AdmissionDate
		admitted = &d
	}
	return []any{
		a.FccID.String(),
		a.Name,
		a.Father,
		a.Mother,
		a.SchoolingClass,
		a.MobileNumber,
		a.Address,
		a.Paid,
		a.TuitionFeePaid,
		a.FccClass,
		a.Skills,
		admitted,
	}
}

// List returns the whole register, newest admission first.
func (r *StudentRepository) List(ctx context.Context) ([]student.Admission, error) {
	query := `SELECT ` + admissionColumns + ` FROM new_student_admission ORDER BY admission_date DESC, id DESC`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list admissions: %w", err)
	}
	defer rows.Close()

	var out []student.Admission
	for rows.Next() {
		a, err := scanAdmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// GetByFccID returns one admission.
func (r *StudentRepository) GetByFccID(ctx context.Context, fccID shared.FccID) (*student.Admission, error) {
	query := `SELECT ` + admissionColumns + ` FROM new_student_admission WHERE fcc_id = $1`

	a, err := scanAdmission(r.conn.QueryRow(ctx, query, fccID.String()))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrStudentNotFound
		}
		return nil, err
	}
	return a, nil
}

// ApplyUpdate writes only the admission fields present in u. An empty patch
// still verifies the student exists.
func (r *StudentRepository) ApplyUpdate(ctx context.Context, fccID shared.FccID, u student.Update) (*student.Admission, error) {
	var set setList
	if v, ok := u.Skills.Get(); ok {
		set.add("skills", v)
	}
	if v, ok := u.TuitionFeePaid.Get(); ok {
		set.add("tuition_fee_paid", v)
	}

	if set.empty() {
		return r.GetByFccID(ctx, fccID)
	}

	query := fmt.Sprintf(
		`UPDATE new_student_admission SET %s WHERE fcc_id = %s RETURNING %s`,
		set.String(), set.next(fccID.String()), admissionColumns,
	)

	a, err := scanAdmission(r.conn.QueryRow(ctx, query, set.args...))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to update admission: %w", err)
	}
	return a, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Reference tables
// ─────────────────────────────────────────────────────────────────────────────

// ListSkills returns the student's skill rows.
func (r *StudentRepository) ListSkills(ctx context.Context, fccID shared.FccID) ([]student.Skill, error) {
	query := `
		SELECT skill_name, skill_level, status, description
		FROM student_skills
		WHERE fcc_id = $1
		ORDER BY id
	`

	rows, err := r.conn.Query(ctx, query, fccID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list skills: %w", err)
	}
	defer rows.Close()

	var out []student.Skill
	for rows.Next() {
		var s student.Skill
		if err := rows.Scan(&s.SkillName, &s.SkillLevel, &s.Status, &s.Description); err != nil {
			return nil, fmt.Errorf("failed to scan skill: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetTuitionFee returns the student's fee plan.
func (r *StudentRepository) GetTuitionFee(ctx context.Context, fccID shared.FccID) (*student.TuitionFee, error) {
	query := `
		SELECT total_fee, fee_paid, fee_remaining, due_date, offer_price, offer_valid_till, class
		FROM tuition_fee_details
		WHERE fcc_id = $1
	`

	var f student.TuitionFee
	err := r.conn.QueryRow(ctx, query, fccID.String()).Scan(
		&f.TotalFee, &f.FeePaid, &f.FeeRemaining, &f.DueDate, &f.OfferPrice, &f.OfferValidTill, &f.Class,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrTuitionFeeNotFound
		}
		return nil, fmt.Errorf("failed to get tuition fee: %w", err)
	}
	return &f, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPER FUNCTIONS
// ══════════════════════════════════════════════════════════════════════════════

func scanAdmission(row pgx.Row) (*student.Admission, error) {
	var a student.Admission
	var fccID string
	err := row.Scan(
		&a.ID,
		&fccID,
		&a.Name,
		&a.Father,
		&a.Mother,
		&a.SchoolingClass,
		&a.MobileNumber,
		&a.Address,
		&a.Paid,
		&a.TuitionFeePaid,
		&a.FccClass,
		&a.Skills,
		&a.AdmissionDate,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan admission: %w", err)
	}
	a.FccID = shared.FccID(fccID)
	return &a, nil
}
