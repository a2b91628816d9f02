package messaging

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
	"github.com/fccthegurukul/gurukul-hub/pkg/logger"
)

func newSyncBus() *InMemoryEventBus {
	return NewInMemoryEventBus(InMemoryEventBusConfig{Logger: logger.Nop(), EnableMetrics: true})
}

func TestInMemoryEventBus_DeliversByType(t *testing.T) {
	bus := newSyncBus()

	var scored, all int32
	require.NoError(t, bus.Subscribe(shared.EventTaskCompleted, func(e shared.Event) error {
		ev, ok := e.(shared.TaskCompletedEvent)
		require.True(t, ok)
		assert.Equal(t, 15, ev.NewTotal)
		atomic.AddInt32(&scored, 1)
		return nil
	}))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		atomic.AddInt32(&all, 1)
		return nil
	}))

	now := time.Now()
	require.NoError(t, bus.Publish(shared.NewTaskCompletedEvent("1234200024", 7, 5, 15, "Class 8", "Asha", now)))
	require.NoError(t, bus.Publish(shared.NewPresenceSignaledEvent("1234200024", true, false, false, true, now)))

	assert.Equal(t, int32(1), scored)
	assert.Equal(t, int32(2), all)
	assert.Equal(t, int64(2), bus.Metrics().Snapshot().TotalPublished)
}

func TestInMemoryEventBus_HandlerFailuresAreContained(t *testing.T) {
	bus := newSyncBus()

	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { panic("boom") }))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { return errors.New("redis down") }))

	err := bus.Publish(shared.NewPresenceSignaledEvent("1234200024", true, false, false, true, time.Now()))
	require.NoError(t, err)

	snap := bus.Metrics().Snapshot()
	assert.Equal(t, int64(2), snap.HandlerFailures)
	assert.Equal(t, 0.0, snap.HandlerSuccessRate)
}

func TestInMemoryEventBus_Async(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{AsyncMode: true, WorkerPoolSize: 2, Logger: logger.Nop()})

	var n int32
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		atomic.AddInt32(&n, 1)
		return nil
	}))

	for i := 0; i < 5; i++ {
		require.NoError(t, bus.Publish(shared.NewPresenceSignaledEvent("1234200024", true, false, false, false, time.Now())))
	}
	bus.Wait()
	assert.Equal(t, int32(5), atomic.LoadInt32(&n))
}

func TestInMemoryEventBus_Closed(t *testing.T) {
	bus := newSyncBus()
	require.NoError(t, bus.Close())

	assert.ErrorIs(t, bus.Publish(shared.NewPresenceSignaledEvent("1234200024", true, false, false, false, time.Now())), ErrEventBusClosed)
	assert.ErrorIs(t, bus.Subscribe(shared.EventTaskCompleted, func(shared.Event) error { return nil }), ErrEventBusClosed)
	assert.ErrorIs(t, bus.SubscribeAll(nil), ErrNilHandler)
}

func TestInMemoryEventBus_CloseDrainsQueue(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{AsyncMode: true, WorkerPoolSize: 1, QueueSize: 8, Logger: logger.Nop()})

	var n int32
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		time.Sleep(time.Millisecond)
		atomic.AddInt32(&n, 1)
		return nil
	}))
	for i := 0; i < 4; i++ {
		require.NoError(t, bus.Publish(shared.NewPresenceSignaledEvent("1234200024", true, false, false, false, time.Now())))
	}

	require.NoError(t, bus.Close())
	assert.Equal(t, int32(4), atomic.LoadInt32(&n))
	require.NoError(t, bus.Close(), "closing twice is harmless")
}
