package student

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
)

// Skill read defaults.
const (
	DefaultSkillLevel       = "Unknown"
	DefaultSkillStatus      = "Not Specified"
	DefaultSkillDescription = "No description available"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADMISSION
// ══════════════════════════════════════════════════════════════════════════════

// Admission is one row of the admission register.
type Admission struct {
	ID             int64           `json:"id"`
	FccID          shared.FccID    `json:"fcc_id"`
	Name           string          `json:"name"`
	Father         string          `json:"father"`
	Mother         string          `json:"mother"`
	SchoolingClass string          `json:"schooling_class"`
	MobileNumber   string          `json:"mobile_number"`
	Address        string          `json:"address"`
	Paid           bool            `json:"paid"`
	TuitionFeePaid decimal.Decimal `json:"tutionfee_paid"`
	FccClass       string          `json:"fcc_class"`
	Skills         string          `json:"skills"`
	AdmissionDate  time.Time       `json:"admission_date"`
}

// Validate checks the fields required to admit a student.
func (a *Admission) Validate() error {
	if _, err := shared.NewFccID(a.FccID.String()); err != nil {
		return err
	}
	if strings.TrimSpace(a.Name) == "" {
		return shared.NewDomainError("student", "Validate", shared.ErrEmptyValue, "name is required")
	}
	if a.TuitionFeePaid.IsNegative() {
		return shared.NewDomainError("student", "Validate", shared.ErrNegativeValue, "tutionfee_paid cannot be negative")
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE PATCH
// ══════════════════════════════════════════════════════════════════════════════

// Update is a per-field patch for an admission. PaymentStatus, when present,
// is applied to the student's payments in the same transaction.
type Update struct {
	Skills         shared.Optional[string]
	TuitionFeePaid shared.Optional[decimal.Decimal]
	PaymentStatus  shared.Optional[string]
}

// IsEmpty reports whether the patch changes nothing on the admission row.
func (u Update) IsEmpty() bool {
	return !u.Skills.IsSet() && !u.TuitionFeePaid.IsSet()
}

// Validate rejects malformed patch values.
func (u Update) Validate() error {
	if v, ok := u.TuitionFeePaid.Get(); ok && v.IsNegative() {
		return shared.NewDomainError("student", "Update", shared.ErrNegativeValue, "tutionfee_paid cannot be negative")
	}
	if v, ok := u.PaymentStatus.Get(); ok && strings.TrimSpace(v) == "" {
		return shared.NewDomainError("student", "Update", shared.ErrEmptyValue, "payment_status cannot be blank")
	}
	return nil
}

// Apply merges the patch into an admission in memory.
func (a *Admission) Apply(u Update) {
	if v, ok := u.Skills.Get(); ok {
		a.Skills = v
	}
	if v, ok := u.TuitionFeePaid.Get(); ok {
		a.TuitionFeePaid = v
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// READ MODELS
// ══════════════════════════════════════════════════════════════════════════════

// Profile is an admission with its photo.
type Profile struct {
	Admission
	PhotoURL *string `json:"photo_url"`
}

// PhotoLookup resolves a student's photo URL.
type PhotoLookup interface {
	PhotoURL(fccID shared.FccID) (string, bool)
}

// NewProfile attaches the photo from lookup, if any.
func NewProfile(a Admission, photos PhotoLookup) Profile {
	p := Profile{Admission: a}
	if photos != nil {
		if url, ok := photos.PhotoURL(a.FccID); ok {
			p.PhotoURL = &url
		}
	}
	return p
}

// Skill is a skill assessment row.
type Skill struct {
	SkillName   string  `json:"skill_name"`
	SkillLevel  *string `json:"skill_level"`
	Status      *string `json:"status"`
	Description *string `json:"description"`
}

// SkillView is a Skill with defaults applied.
type SkillView struct {
	SkillName   string `json:"skill_name"`
	SkillLevel  string `json:"skill_level"`
	Status      string `json:"status"`
	Description string `json:"description"`
}

// WithDefaults fills missing columns with display defaults.
func (s Skill) WithDefaults() SkillView {
	return SkillView{
		SkillName:   s.SkillName,
		SkillLevel:  orDefault(s.SkillLevel, DefaultSkillLevel),
		Status:      orDefault(s.Status, DefaultSkillStatus),
		Description: orDefault(s.Description, DefaultSkillDescription),
	}
}

func orDefault(v *string, def string) string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return def
	}
	return *v
}

// TuitionFee is the student's fee plan.
type TuitionFee struct {
	TotalFee       decimal.Decimal     `json:"total_fee"`
	FeePaid        decimal.Decimal     `json:"fee_paid"`
	FeeRemaining   decimal.Decimal     `json:"fee_remaining"`
	DueDate        *time.Time          `json:"due_date"`
	OfferPrice     decimal.NullDecimal `json:"offer_price"`
	OfferValidTill *time.Time          `json:"offer_valid_till"`
	Class          string              `json:"class"`
}

// Listed is an admission as shown in the register, with a formatted date.
type Listed struct {
	Admission
	AdmissionDate string `json:"admission_date"`
}
