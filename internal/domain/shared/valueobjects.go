// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"context"
	"regexp"
	"strings"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// FccID is the center-issued student identifier: four digits followed by the
// batch suffix, or the placeholder used before a number is assigned.
type FccID string

// FccIDPlaceholder is accepted for students whose number is not yet issued.
const FccIDPlaceholder FccID = "XXXX200024"

var fccIDRegex = regexp.MustCompile(`^\d{4}200024$|^XXXX200024$`)

// IsValid checks the identifier format.
func (f FccID) IsValid() bool {
	return fccIDRegex.MatchString(string(f))
}

// IsPlaceholder reports whether the identifier is the unassigned placeholder.
func (f FccID) IsPlaceholder() bool {
	return f == FccIDPlaceholder
}

// String returns the string representation.
func (f FccID) String() string {
	return string(f)
}

// IsEmpty checks if the ID is empty.
func (f FccID) IsEmpty() bool {
	return f == ""
}

// NewFccID creates a new FccID with format validation.
func NewFccID(id string) (FccID, error) {
	fid := FccID(strings.TrimSpace(id))
	if fid.IsEmpty() {
		return "", ErrFccIDRequired
	}
	if !fid.IsValid() {
		return "", ErrInvalidFccID
	}
	return fid, nil
}

// ValidFccID reports whether s is a well-formed identifier.
func ValidFccID(s string) bool {
	return FccID(s).IsValid()
}

// ═══════════════════════════════════════════════════════════════════════════
// Optional (per-field patches)
// ═══════════════════════════════════════════════════════════════════════════

// Optional carries a value that may be absent. Patches use it so that a
// present value overwrites and an absent one leaves the stored field alone.
type Optional[T any] struct {
	value T
	set   bool
}

// Some returns a present Optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// None returns an absent Optional.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// FromPtr converts a nullable pointer into an Optional.
func FromPtr[T any](p *T) Optional[T] {
	if p == nil {
		return None[T]()
	}
	return Some(*p)
}

// IsSet reports whether a value is present.
func (o Optional[T]) IsSet() bool {
	return o.set
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

// Or returns the value when present, otherwise fallback.
func (o Optional[T]) Or(fallback T) T {
	if o.set {
		return o.value
	}
	return fallback
}

// Ptr returns a pointer to the value or nil.
func (o Optional[T]) Ptr() *T {
	if !o.set {
		return nil
	}
	v := o.value
	return &v
}

// ═══════════════════════════════════════════════════════════════════════════
// Rank Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Rank represents a student's position in the leaderboard.
type Rank int

const (
	MinRank  Rank = 1
	Unranked Rank = 0 // Not yet ranked
)

// IsValid checks if the rank is valid.
func (r Rank) IsValid() bool {
	return r >= MinRank
}

// Int returns the underlying int value.
func (r Rank) Int() int {
	return int(r)
}

// IsTop returns true if the rank is in the top N.
func (r Rank) IsTop(n int) bool {
	return r.IsValid() && int(r) <= n
}

// NewRank creates a new Rank with validation.
func NewRank(position int) (Rank, error) {
	if position < 0 {
		return Unranked, NewDomainError("shared", "NewRank", ErrNegativeValue, "rank cannot be negative")
	}
	return Rank(position), nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Ports shared by all domains
// ═══════════════════════════════════════════════════════════════════════════

// Transactor runs fn inside one database transaction. Repositories invoked
// with the ctx passed to fn join that transaction. Returning an error from fn
// rolls everything back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Clock returns the current time. Production code uses time.Now.
type Clock func() time.Time

// SystemClock is the default Clock.
func SystemClock() time.Time {
	return time.Now()
}
