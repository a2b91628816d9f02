package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/shopspring/decimal"

	"github.com/fccthegurukul/gurukul-hub/internal/domain/leaderboard"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/presence"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/quiz"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/student"
	"github.com/fccthegurukul/gurukul-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

const (
	fccIDTag    = "fccid"
	notBlankTag = "notblank"
)

var (
	validate   *validator.Validate
	translator ut.Translator
)

func init() {
	validate = validator.New()

	english := en.New()
	translator, _ = ut.New(english, english).GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Report JSON field names, which is what clients send.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(fccIDTag, func(fl validator.FieldLevel) bool {
		return shared.ValidFccID(strings.TrimSpace(fl.Field().String()))
	})
	_ = validate.RegisterValidation(notBlankTag, func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	noop := func(ut.Translator) error { return nil }
	_ = validate.RegisterTranslation(fccIDTag, translator, noop, func(_ ut.Translator, fe validator.FieldError) string {
		return shared.ErrInvalidFccID.Message
	})
	_ = validate.RegisterTranslation(notBlankTag, translator, noop, func(_ ut.Translator, fe validator.FieldError) string {
		return fe.Field() + " cannot be blank"
	})
}

// validateStruct runs tag validation and turns the first failure into a
// validation DomainError.
func validateStruct(op string, v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return shared.NewDomainError("http", op, shared.ErrValidation, fieldErrs[0].Translate(translator))
	}
	return shared.WrapError("http", op, shared.ErrValidation, "invalid request", err)
}

// decodeJSON reads a JSON body into dst and validates it.
func decodeJSON(r *http.Request, op string, dst interface{}) error {
	if r.Body == nil {
		return shared.NewDomainError("http", op, shared.ErrInvalidInput, "request body is required")
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return shared.WrapError("http", op, shared.ErrValueOutOfRange, "Request body too large", err)
		case errors.Is(err, io.EOF):
			return shared.NewDomainError("http", op, shared.ErrInvalidInput, "request body is required")
		default:
			return shared.WrapError("http", op, shared.ErrInvalidFormat, "malformed JSON body", err)
		}
	}
	return validateStruct(op, dst)
}

// ══════════════════════════════════════════════════════════════════════════════
// FLEXIBLE SCALARS
// ══════════════════════════════════════════════════════════════════════════════

// flexString accepts a JSON string or number and keeps its literal text, so
// "1000.50" and 1000.50 reach the decimal parser unchanged.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*f = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("expected string or number: %w", err)
		}
		*f = flexString(n.String())
	}
	return nil
}

// parseAdmissionDate accepts RFC 3339 timestamps or YYYY-MM-DD dates (IST).
// Empty means now.
func parseAdmissionDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := timeutil.ParseDateIST(s); err == nil {
		return t, nil
	}
	return time.Time{}, shared.NewDomainError("http", "AddStudent", shared.ErrInvalidFormat,
		"admission_date must be YYYY-MM-DD or RFC 3339")
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDENTS
// ══════════════════════════════════════════════════════════════════════════════

type addStudentRequest struct {
	Name           string          `json:"name" validate:"notblank,max=200"`
	Father         string          `json:"father" validate:"max=200"`
	Mother         string          `json:"mother" validate:"max=200"`
	SchoolingClass string          `json:"schooling_class" validate:"max=50"`
	MobileNumber   string          `json:"mobile_number" validate:"omitempty,numeric,min=10,max=15"`
	Address        string          `json:"address"`
	Paid           bool            `json:"paid"`
	TuitionFeePaid decimal.Decimal `json:"tutionfee_paid"`
	FccClass       string          `json:"fcc_class" validate:"max=50"`
	FccID          string          `json:"fcc_id" validate:"required,fccid"`
	Skills         string          `json:"skills"`
	AdmissionDate  string          `json:"admission_date"`
}

func (req addStudentRequest) toAdmission(now time.Time) (student.Admission, error) {
	at, err := parseAdmissionDate(req.AdmissionDate, now)
	if err != nil {
		return student.Admission{}, err
	}
	return student.Admission{
		FccID:          shared.FccID(strings.TrimSpace(req.FccID)),
		Name:           strings.TrimSpace(req.Name),
		Father:         req.Father,
		Mother:         req.Mother,
		SchoolingClass: req.SchoolingClass,
		MobileNumber:   req.MobileNumber,
		Address:        req.Address,
		Paid:           req.Paid,
		TuitionFeePaid: req.TuitionFeePaid,
		FccClass:       req.FccClass,
		Skills:         req.Skills,
		AdmissionDate:  at,
	}, nil
}

type updateStudentRequest struct {
	Skills         *string          `json:"skills"`
	TuitionFeePaid *decimal.Decimal `json:"tutionfee_paid"`
	PaymentStatus  *string          `json:"payment_status" validate:"omitempty,notblank,max=50"`
}

func (req updateStudentRequest) toUpdate() student.Update {
	return student.Update{
		Skills:         shared.FromPtr(req.Skills),
		TuitionFeePaid: shared.FromPtr(req.TuitionFeePaid),
		PaymentStatus:  shared.FromPtr(req.PaymentStatus),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// PRESENCE & LEDGER
// ══════════════════════════════════════════════════════════════════════════════

// presenceRequest is the front-desk CTC/CTG report. A missing fcc_id is
// rejected by the domain with the historical "FCC_ID is required" message.
type presenceRequest struct {
	FccID         string `json:"fcc_id"`
	CTC           bool   `json:"ctc"`
	CTG           bool   `json:"ctg"`
	TaskCompleted bool   `json:"task_completed"`
	ForceUpdate   bool   `json:"forceUpdate"`
}

func (req presenceRequest) toSignal() presence.Signal {
	return presence.Signal{
		FccID:         shared.FccID(strings.TrimSpace(req.FccID)),
		Arrived:       req.CTC,
		Departed:      req.CTG,
		TaskCompleted: req.TaskCompleted,
		Force:         req.ForceUpdate,
	}
}

type completeTaskRequest struct {
	FccID       string `json:"fccId"`
	TaskID      int64  `json:"taskId"`
	ScoreEarned int    `json:"scoreEarned"`
}

func (req completeTaskRequest) toCompletion() leaderboard.Completion {
	return leaderboard.Completion{
		FccID:       shared.FccID(strings.TrimSpace(req.FccID)),
		TaskID:      req.TaskID,
		ScoreEarned: req.ScoreEarned,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// PAYMENTS
// ══════════════════════════════════════════════════════════════════════════════

type paymentRequest struct {
	FccID            string     `json:"fcc_id" validate:"required"`
	Amount           flexString `json:"amount"`
	PaymentMethod    string     `json:"payment_method" validate:"max=50"`
	PaymentStatus    string     `json:"payment_status" validate:"max=50"`
	StudentName      string     `json:"student_name" validate:"max=200"`
	MonthlyCycleDays []int32    `json:"monthly_cycle_days" validate:"dive,min=1,max=31"`
}

// ══════════════════════════════════════════════════════════════════════════════
// QUIZ
// ══════════════════════════════════════════════════════════════════════════════

type startQuizRequest struct {
	FccID          string `json:"fccId"`
	SkillTopic     string `json:"skillTopic"`
	TotalQuestions int    `json:"totalQuestions"`
}

// legacyAnswer is the snake_case answer shape older quiz clients send.
type legacyAnswer struct {
	QuestionID int64  `json:"question_id"`
	UserAnswer string `json:"user_answer"`
}

type submitQuizRequest struct {
	SessionID   int64          `json:"sessionId" validate:"required,gt=0"`
	FccID       string         `json:"fccId"`
	Answers     []quiz.Answer  `json:"answers"`
	QuizAnswers []legacyAnswer `json:"quizAnswers"`
}

func (req submitQuizRequest) answers() []quiz.Answer {
	if len(req.Answers) > 0 {
		return req.Answers
	}
	out := make([]quiz.Answer, len(req.QuizAnswers))
	for i, a := range req.QuizAnswers {
		out[i] = quiz.Answer{QuestionID: a.QuestionID, UserAnswer: a.UserAnswer}
	}
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// CHAT
// ══════════════════════════════════════════════════════════════════════════════

type chatRequest struct {
	Message string `json:"message"`
	Model   string `json:"model"`
}
