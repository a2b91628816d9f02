package eventhandler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fccthegurukul/gurukul-hub/internal/domain/leaderboard"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/presence"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
	"github.com/fccthegurukul/gurukul-hub/pkg/logger"
)

type recordingProjection struct {
	leaderboard.Projection
	upserts []leaderboard.Record
}

func (p *recordingProjection) Upsert(_ context.Context, rec leaderboard.Record) error {
	p.upserts = append(p.upserts, rec)
	return nil
}

type recordingCampus struct {
	presence.CampusTracker
	arrived    []shared.FccID
	departed   []shared.FccID
	departedAt []time.Time
}

func (c *recordingCampus) MarkArrived(_ context.Context, id shared.FccID, _ time.Time) error {
	c.arrived = append(c.arrived, id)
	return nil
}

func (c *recordingCampus) MarkDeparted(_ context.Context, id shared.FccID, at time.Time) error {
	c.departed = append(c.departed, id)
	c.departedAt = append(c.departedAt, at)
	return nil
}

var at = time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

func TestOnTaskCompleted_UpsertsProjection(t *testing.T) {
	proj := &recordingProjection{}
	h := NewOnTaskCompletedHandler(proj, logger.Nop())
	assert.Equal(t, shared.EventTaskCompleted, h.EventType())

	err := h.Handle(shared.NewTaskCompletedEvent("1234200024", 7, 5, 15, "10th", "Ravi", at))
	require.NoError(t, err)

	require.Len(t, proj.upserts, 1)
	rec := proj.upserts[0]
	assert.Equal(t, shared.FccID("1234200024"), rec.FccID)
	assert.Equal(t, 15, rec.TotalScore)
	assert.Equal(t, "10th", rec.FccClass)
}

func TestOnTaskCompleted_RejectsOtherEvents(t *testing.T) {
	h := NewOnTaskCompletedHandler(&recordingProjection{}, logger.Nop())
	assert.Error(t, h.Handle(shared.NewQuizSubmittedEvent(1, "1234200024", "maths", 2, at)))
}

func TestOnPresenceSignaled(t *testing.T) {
	campus := &recordingCampus{}
	h := NewOnPresenceSignaledHandler(campus, logger.Nop())

	require.NoError(t, h.Handle(shared.NewPresenceSignaledEvent("A", true, false, false, true, at)))
	require.NoError(t, h.Handle(shared.NewPresenceSignaledEvent("B", true, true, false, false, at)))
	require.NoError(t, h.Handle(shared.NewPresenceSignaledEvent("C", false, false, true, false, at)))

	assert.Equal(t, []shared.FccID{"A"}, campus.arrived)
	assert.Equal(t, []shared.FccID{"B"}, campus.departed)
	assert.Equal(t, []time.Time{at}, campus.departedAt, "departure carries the signal time")
}

type recordingEvicter struct{ keys []string }

func (c *recordingEvicter) Delete(_ context.Context, keys ...string) error {
	c.keys = append(c.keys, keys...)
	return nil
}

func TestOnStudentUpdated_EvictsTuitionFee(t *testing.T) {
	cache := &recordingEvicter{}
	h := NewOnStudentUpdatedHandler(cache, logger.Nop())
	assert.Equal(t, shared.EventStudentUpdated, h.EventType())

	require.NoError(t, h.Handle(shared.NewStudentUpdatedEvent("1234200024", true, at)))
	assert.Equal(t, []string{"tuition:1234200024"}, cache.keys)

	assert.Error(t, h.Handle(shared.NewTaskCompletedEvent("1234200024", 7, 5, 15, "10th", "Ravi", at)))
}
