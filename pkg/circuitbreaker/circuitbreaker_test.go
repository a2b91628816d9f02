package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errProvider = errors.New("502 from provider")

func fail(context.Context) error { return errProvider }
func ok(context.Context) error   { return nil }

func TestProviderBreaker_OpensAfterThreshold(t *testing.T) {
	var transitions []State
	cb := ProviderBreaker("gemini", 2, time.Hour, func(_ string, _, to State) {
		transitions = append(transitions, to)
	})

	_ = cb.Execute(context.Background(), fail)
	assert.True(t, cb.IsClosed())
	_ = cb.Execute(context.Background(), fail)
	assert.True(t, cb.IsOpen())

	called := false
	err := cb.Execute(context.Background(), func(context.Context) error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
	assert.Equal(t, []State{StateOpen}, transitions)
}

func TestProviderBreaker_SuccessResetsFailures(t *testing.T) {
	cb := ProviderBreaker("gemini", 2, time.Hour, nil)

	_ = cb.Execute(context.Background(), fail)
	_ = cb.Execute(context.Background(), ok)
	_ = cb.Execute(context.Background(), fail)

	assert.True(t, cb.IsClosed())
}

func TestProviderBreaker_IgnoresCancellation(t *testing.T) {
	cb := ProviderBreaker("deepseek", 1, time.Hour, nil)

	_ = cb.Execute(context.Background(), func(context.Context) error { return context.Canceled })
	assert.True(t, cb.IsClosed())
}

func TestProviderBreaker_HalfOpenProbe(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	cb := ProviderBreaker("gemini", 1, time.Minute, nil)
	cb.now = func() time.Time { return now }

	_ = cb.Execute(context.Background(), fail)
	assert.True(t, cb.IsOpen())

	now = now.Add(2 * time.Minute)
	assert.ErrorIs(t, cb.Execute(context.Background(), fail), errProvider)
	assert.True(t, cb.IsOpen(), "a failed probe reopens the breaker")

	now = now.Add(2 * time.Minute)
	assert.NoError(t, cb.Execute(context.Background(), ok))
	assert.True(t, cb.IsClosed())
}

func TestProviderBreaker_OneProbeAtATime(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	cb := ProviderBreaker("gemini", 1, time.Minute, nil)
	cb.now = func() time.Time { return now }
	_ = cb.Execute(context.Background(), fail)
	now = now.Add(2 * time.Minute)

	err := cb.Execute(context.Background(), func(ctx context.Context) error {
		assert.Equal(t, StateHalfOpen, cb.State())
		return cb.Execute(ctx, ok)
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
}
