package presence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
)

var base = time.Date(2025, 2, 10, 9, 0, 0, 0, time.UTC)

func ptr(t time.Time) *time.Time { return &t }

func TestDecide_NewStudentArrival(t *testing.T) {
	sig := Signal{FccID: "1234567890", Arrived: true}

	state, outcome, err := Decide(nil, sig, base)
	require.NoError(t, err)

	assert.Equal(t, OutcomeInserted, outcome)
	require.NotNil(t, state.CTCTime)
	assert.Equal(t, base, *state.CTCTime)
	assert.Nil(t, state.CTGTime)
	assert.False(t, state.TaskCompleted)
}

func TestDecide_WithinWindowOnlyTouchesSignaledFields(t *testing.T) {
	arrived := base
	existing := &State{FccID: "1234200024", CTCTime: ptr(arrived), TaskCompleted: false}

	now := base.Add(8 * time.Hour)
	state, outcome, err := Decide(existing, Signal{FccID: "1234200024", Departed: true, TaskCompleted: true}, now)
	require.NoError(t, err)

	assert.Equal(t, OutcomeUpdated, outcome)
	assert.Equal(t, arrived, *state.CTCTime, "arrival must not move")
	assert.Equal(t, now, *state.CTGTime)
	assert.True(t, state.TaskCompleted)
}

func TestDecide_StaleRejectedWithoutMutation(t *testing.T) {
	existing := &State{FccID: "1234200024", CTCTime: ptr(base), TaskCompleted: true}
	snapshot := *existing

	now := base.Add(30*time.Hour + time.Second)
	state, _, err := Decide(existing, Signal{FccID: "1234200024", Arrived: true}, now)

	assert.ErrorIs(t, err, shared.ErrStaleSignal)
	assert.Nil(t, state)
	assert.Equal(t, snapshot, *existing)
}

func TestDecide_ExactlyThirtyHoursIsAccepted(t *testing.T) {
	existing := &State{FccID: "1234200024", CTCTime: ptr(base)}

	_, outcome, err := Decide(existing, Signal{FccID: "1234200024", Arrived: true}, base.Add(30*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, outcome)
}

func TestDecide_ForceOverridesStaleness(t *testing.T) {
	existing := &State{FccID: "1234200024", CTCTime: ptr(base)}
	now := base.Add(72 * time.Hour)

	state, outcome, err := Decide(existing, Signal{FccID: "1234200024", Arrived: true, Force: true}, now)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, outcome)
	assert.Equal(t, now, *state.CTCTime)
}

func TestDecide_StalenessUsesLatestSignal(t *testing.T) {
	// Arrival is old but the departure is recent.
	existing := &State{
		FccID:   "1234200024",
		CTCTime: ptr(base),
		CTGTime: ptr(base.Add(40 * time.Hour)),
	}

	_, _, err := Decide(existing, Signal{FccID: "1234200024", Arrived: true}, base.Add(50*time.Hour))
	assert.NoError(t, err)
}

func TestState_NeverSignaledIsNotStale(t *testing.T) {
	s := &State{FccID: "1234200024"}
	assert.False(t, s.IsStale(base.Add(1000*time.Hour)))
}

func TestState_OnCampus(t *testing.T) {
	s := &State{CTCTime: ptr(base)}
	assert.True(t, s.OnCampus())

	s.CTGTime = ptr(base.Add(time.Hour))
	assert.False(t, s.OnCampus())

	s.CTCTime = ptr(base.Add(2 * time.Hour))
	assert.True(t, s.OnCampus())
}

func TestLogEntry_MergeKeepsUnsignaledFields(t *testing.T) {
	entry := LogEntry{FccID: "1234200024", CTCTime: ptr(base)}

	later := base.Add(5 * time.Hour)
	entry.Merge(Signal{Departed: true, TaskCompleted: true}.Patch(later))

	assert.Equal(t, base, *entry.CTCTime)
	assert.Equal(t, later, *entry.CTGTime)
	assert.True(t, entry.TaskCompleted)

	// Task flag is always overwritten.
	entry.Merge(Signal{}.Patch(later.Add(time.Minute)))
	assert.False(t, entry.TaskCompleted)
	assert.Equal(t, later, *entry.CTGTime)
}

func TestSignal_Validate(t *testing.T) {
	assert.ErrorIs(t, Signal{}.Validate(), shared.ErrFccIDRequired)
	assert.NoError(t, Signal{FccID: "anything"}.Validate())
}
