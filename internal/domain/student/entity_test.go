package student

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
)

type mapPhotos map[shared.FccID]string

func (m mapPhotos) PhotoURL(id shared.FccID) (string, bool) {
	u, ok := m[id]
	return u, ok
}

func TestAdmission_Validate(t *testing.T) {
	a := &Admission{FccID: "1234200024", Name: "Ravi"}
	assert.NoError(t, a.Validate())

	a.FccID = "12345"
	assert.ErrorIs(t, a.Validate(), shared.ErrInvalidFccID)

	a.FccID = "XXXX200024"
	a.Name = "  "
	assert.True(t, shared.IsValidation(a.Validate()))

	a.Name = "Ravi"
	a.TuitionFeePaid = decimal.NewFromInt(-1)
	assert.ErrorIs(t, a.Validate(), shared.ErrNegativeValue)
}

func TestUpdate_ApplyOnlyPresentFields(t *testing.T) {
	a := &Admission{Skills: "maths", TuitionFeePaid: decimal.NewFromInt(500)}

	a.Apply(Update{Skills: shared.Some("maths, coding")})

	assert.Equal(t, "maths, coding", a.Skills)
	assert.True(t, a.TuitionFeePaid.Equal(decimal.NewFromInt(500)))
}

func TestUpdate_IsEmptyIgnoresPaymentStatus(t *testing.T) {
	assert.True(t, Update{}.IsEmpty())
	assert.True(t, Update{PaymentStatus: shared.Some("Paid")}.IsEmpty())
	assert.False(t, Update{Skills: shared.Some("x")}.IsEmpty())
}

func TestUpdate_Validate(t *testing.T) {
	assert.NoError(t, Update{}.Validate())
	assert.Error(t, Update{PaymentStatus: shared.Some(" ")}.Validate())
	assert.Error(t, Update{TuitionFeePaid: shared.Some(decimal.NewFromInt(-5))}.Validate())
}

func TestNewProfile_PhotoLookup(t *testing.T) {
	photos := mapPhotos{"1234200024": "https://cdn.example/1234.jpg"}

	p := NewProfile(Admission{FccID: "1234200024"}, photos)
	if assert.NotNil(t, p.PhotoURL) {
		assert.Equal(t, "https://cdn.example/1234.jpg", *p.PhotoURL)
	}

	p = NewProfile(Admission{FccID: "9999200024"}, photos)
	assert.Nil(t, p.PhotoURL)

	p = NewProfile(Admission{FccID: "1234200024"}, nil)
	assert.Nil(t, p.PhotoURL)
}

func TestSkill_WithDefaults(t *testing.T) {
	level := "Advanced"
	blank := ""
	v := Skill{SkillName: "Typing", SkillLevel: &level, Status: &blank}.WithDefaults()

	assert.Equal(t, "Advanced", v.SkillLevel)
	assert.Equal(t, DefaultSkillStatus, v.Status)
	assert.Equal(t, DefaultSkillDescription, v.Description)
}
