// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Error kinds. Every DomainError carries one as Kind; the HTTP layer maps
// kinds to status codes.
var (
	ErrNotFound = errors.New("not found")

	// ErrValidation is the parent of every input problem below.
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = fmt.Errorf("%w: invalid ID", ErrValidation)
	ErrInvalidInput    = fmt.Errorf("%w: invalid input", ErrValidation)
	ErrEmptyValue      = fmt.Errorf("%w: empty value", ErrValidation)
	ErrNegativeValue   = fmt.Errorf("%w: negative value", ErrValidation)
	ErrValueOutOfRange = fmt.Errorf("%w: out of range", ErrValidation)
	ErrInvalidFormat   = fmt.Errorf("%w: invalid format", ErrValidation)

	// ErrConflict covers requests that clash with stored state.
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = fmt.Errorf("%w: already exists", ErrConflict)
	ErrInvalidState  = fmt.Errorf("%w: invalid state", ErrConflict)
	ErrPrecondition  = fmt.Errorf("%w: precondition failed", ErrConflict)

	// ErrExpired is a stale presence signal. It is reported as 400, not 409.
	ErrExpired = errors.New("expired")

	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrRateLimited  = errors.New("rate limited")

	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError is an error with a client-safe Message. Domain and Op locate
// the failure in logs.
type DomainError struct {
	Domain  string
	Op      string
	Kind    error
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	msg := e.Domain + "." + e.Op + ": " + e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *DomainError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{Domain: domain, Op: op, Kind: kind, Message: message}
}

// WrapError is NewDomainError with a cause attached.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{Domain: domain, Op: op, Kind: kind, Message: message, Err: err}
}

// PublicMessage returns the message safe to show to API clients.
func PublicMessage(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}

// Student domain errors
var (
	ErrStudentNotFound      = NewDomainError("student", "Find", ErrNotFound, "Student not found")
	ErrStudentAlreadyExists = NewDomainError("student", "Admit", ErrAlreadyExists, "Student with this FCC ID already exists")
	ErrInvalidFccID         = NewDomainError("student", "Validate", ErrInvalidID, "Invalid FCC ID format")
	ErrFccIDRequired        = NewDomainError("student", "Validate", ErrEmptyValue, "FCC_ID is required")
	ErrSkillsNotFound       = NewDomainError("student", "FindSkills", ErrNotFound, "No skills found for this student")
	ErrTuitionFeeNotFound   = NewDomainError("student", "FindTuitionFee", ErrNotFound, "Tuition fee details not found")
	ErrStudentClassNotFound = NewDomainError("student", "FindClass", ErrInvalidInput, "Student class not found")
)

// Presence domain errors
var (
	ErrPresenceNotFound = NewDomainError("presence", "Find", ErrNotFound, "No attendance record found for this student")
	ErrStaleSignal      = NewDomainError("presence", "Signal", ErrExpired, "CTC is more than 30 hours old. Update not allowed!")
)

// Leaderboard domain errors
var (
	ErrLeaderboardRecordMissing = NewDomainError("leaderboard", "Increment", ErrPrecondition, "Leaderboard record does not exist for this student")
	ErrInvalidScore             = NewDomainError("leaderboard", "Validate", ErrNegativeValue, "scoreEarned cannot be negative")
	ErrTaskIDRequired           = NewDomainError("leaderboard", "Validate", ErrEmptyValue, "taskId is required")
)

// Payment domain errors
var (
	ErrInvalidAmount   = NewDomainError("payment", "Validate", ErrInvalidInput, "Invalid amount provided")
	ErrPaymentNotFound = NewDomainError("payment", "Find", ErrNotFound, "Payment not found")
	ErrReceiptRender   = NewDomainError("payment", "RenderReceipt", ErrExternalService, "Failed to generate receipt")
)

// Quiz domain errors
var (
	ErrQuizSessionNotFound = NewDomainError("quiz", "FindSession", ErrNotFound, "Quiz session not found")
	ErrQuizSessionClosed   = NewDomainError("quiz", "Submit", ErrInvalidState, "Quiz session already submitted")
)

// Document domain errors
var (
	ErrFileNotFound = NewDomainError("document", "Find", ErrNotFound, "File not found")
	ErrFileRequired = NewDomainError("document", "Upload", ErrEmptyValue, "No file uploaded")
)

// Assistant errors
var (
	ErrMessageRequired   = NewDomainError("assistant", "Validate", ErrEmptyValue, "Message is required")
	ErrInvalidModel      = NewDomainError("assistant", "Validate", ErrInvalidInput, "Invalid model selected")
	ErrAssistantFailed   = NewDomainError("assistant", "Ask", ErrExternalService, "Failed to get response from AI model")
	ErrAssistantTimeout  = NewDomainError("assistant", "Ask", ErrTimeout, "AI model did not respond in time")
	ErrAssistantDisabled = NewDomainError("assistant", "Ask", ErrServiceUnavailable, "AI chat is disabled")
	ErrProviderNotWired  = NewDomainError("assistant", "Ask", ErrServiceUnavailable, "AI provider is not configured")
)

func IsNotFound(err error) bool      { return errors.Is(err, ErrNotFound) }
func IsAlreadyExists(err error) bool { return errors.Is(err, ErrAlreadyExists) }
func IsValidation(err error) bool    { return errors.Is(err, ErrValidation) }
func IsConflict(err error) bool      { return errors.Is(err, ErrConflict) }

// IsExternalService reports failures of a dependency rather than of the request.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout)
}
