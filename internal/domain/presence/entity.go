// Package presence models CTC/CTG attendance: the per-student current state
// and the per-day attendance log.
package presence

import (
	"time"

	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
)

// StalenessWindow is how old the last signal may be before an update has to
// be forced.
const StalenessWindow = 30 * time.Hour

// Outcome reports what a signal did to the current state.
type Outcome string

const (
	OutcomeInserted Outcome = "inserted"
	OutcomeUpdated  Outcome = "updated"
)

// ══════════════════════════════════════════════════════════════════════════════
// SIGNAL
// ══════════════════════════════════════════════════════════════════════════════

// Signal is one presence report from the front desk.
type Signal struct {
	FccID         shared.FccID
	Arrived       bool // CTC
	Departed      bool // CTG
	TaskCompleted bool
	Force         bool // bypass the staleness window
}

// Validate rejects a signal before any I/O happens.
func (s Signal) Validate() error {
	if s.FccID.IsEmpty() {
		return shared.ErrFccIDRequired
	}
	return nil
}

// Patch converts the signal into field updates stamped with now.
func (s Signal) Patch(now time.Time) Patch {
	p := Patch{TaskCompleted: s.TaskCompleted}
	if s.Arrived {
		p.CTCTime = shared.Some(now)
	}
	if s.Departed {
		p.CTGTime = shared.Some(now)
	}
	return p
}

// Patch is a per-field update. Absent timestamps keep their stored value;
// TaskCompleted is always written.
type Patch struct {
	CTCTime       shared.Optional[time.Time]
	CTGTime       shared.Optional[time.Time]
	TaskCompleted bool
}

// ══════════════════════════════════════════════════════════════════════════════
// CURRENT STATE
// ══════════════════════════════════════════════════════════════════════════════

// State is the single current-presence row kept per student.
type State struct {
	FccID         shared.FccID `json:"fcc_id"`
	CTCTime       *time.Time   `json:"ctc_time"`
	CTGTime       *time.Time   `json:"ctg_time"`
	TaskCompleted bool         `json:"task_completed"`
}

// NewState builds the first state row for a student.
func NewState(fccID shared.FccID, p Patch) *State {
	s := &State{FccID: fccID}
	s.Apply(p)
	return s
}

// Apply merges a patch into the state.
func (s *State) Apply(p Patch) {
	if v, ok := p.CTCTime.Get(); ok {
		s.CTCTime = &v
	}
	if v, ok := p.CTGTime.Get(); ok {
		s.CTGTime = &v
	}
	s.TaskCompleted = p.TaskCompleted
}

// LastSignalAt returns the most recent of the arrival and departure times.
func (s *State) LastSignalAt() (time.Time, bool) {
	switch {
	case s.CTCTime == nil && s.CTGTime == nil:
		return time.Time{}, false
	case s.CTCTime == nil:
		return *s.CTGTime, true
	case s.CTGTime == nil:
		return *s.CTCTime, true
	case s.CTGTime.After(*s.CTCTime):
		return *s.CTGTime, true
	default:
		return *s.CTCTime, true
	}
}

// IsStale reports whether the last signal is older than the window.
// A state that never recorded a timestamp is not stale.
func (s *State) IsStale(now time.Time) bool {
	last, ok := s.LastSignalAt()
	if !ok {
		return false
	}
	return now.Sub(last) > StalenessWindow
}

// OnCampus reports whether the latest signal was an arrival.
func (s *State) OnCampus() bool {
	if s.CTCTime == nil {
		return false
	}
	return s.CTGTime == nil || s.CTCTime.After(*s.CTGTime)
}

// Decide applies the tracker rules to an existing (possibly nil) state.
// It returns the state to persist and the outcome, or ErrStaleSignal when the
// update must be rejected. existing is never mutated on rejection.
func Decide(existing *State, sig Signal, now time.Time) (*State, Outcome, error) {
	p := sig.Patch(now)

	if existing == nil {
		return NewState(sig.FccID, p), OutcomeInserted, nil
	}

	if existing.IsStale(now) && !sig.Force {
		return nil, "", shared.ErrStaleSignal
	}

	next := *existing
	next.Apply(p)
	return &next, OutcomeUpdated, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DAILY LOG
// ══════════════════════════════════════════════════════════════════════════════

// LogEntry is the attendance row for one student and calendar date.
type LogEntry struct {
	FccID         shared.FccID `json:"fcc_id"`
	LogDate       time.Time    `json:"log_date"`
	CTCTime       *time.Time   `json:"ctc_time"`
	CTGTime       *time.Time   `json:"ctg_time"`
	TaskCompleted bool         `json:"task_completed"`
}

// Merge folds a same-day patch into the entry.
func (e *LogEntry) Merge(p Patch) {
	if v, ok := p.CTCTime.Get(); ok {
		e.CTCTime = &v
	}
	if v, ok := p.CTGTime.Get(); ok {
		e.CTGTime = &v
	}
	e.TaskCompleted = p.TaskCompleted
}

// History is the read model returned by the CTC/CTG lookup.
type History struct {
	Student State      `json:"student"`
	Logs    []LogEntry `json:"logs"`
}
