package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fast(n int) []Option {
	return []Option{WithMaxAttempts(n), WithInitialDelay(time.Millisecond), WithMaxDelay(time.Millisecond)}
}

func TestDo_RetriesUntilServiceAnswers(t *testing.T) {
	var attempts, hooks int
	opts := append(fast(3), WithOnRetry(func(int, error, time.Duration) { hooks++ }))

	err := Do(context.Background(), func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("connection refused")
		}
		return nil
	}, opts...)

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 2, hooks)
}

func TestDo_GivesUpAfterAttempts(t *testing.T) {
	down := errors.New("dial tcp: connection refused")
	var attempts int

	err := Do(context.Background(), func(context.Context) error {
		attempts++
		return down
	}, fast(4)...)

	assert.ErrorIs(t, err, down)
	assert.Equal(t, 4, attempts)
}

func TestDo_StopsOnPermanent(t *testing.T) {
	bad := errors.New("invalid DSN")
	var attempts int

	err := Do(context.Background(), func(context.Context) error {
		attempts++
		return Permanent(bad)
	}, fast(5)...)

	assert.Equal(t, bad, err)
	assert.Equal(t, 1, attempts)
}

func TestDo_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := Do(ctx, func(context.Context) error { called = true; return nil })

	assert.False(t, called)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPolicy_WaitIsCapped(t *testing.T) {
	p := NewPolicy(WithInitialDelay(time.Second), WithMaxDelay(3*time.Second))
	p.Spread = 0

	assert.Equal(t, time.Second, p.wait(1))
	assert.Equal(t, 2*time.Second, p.wait(2))
	assert.Equal(t, 3*time.Second, p.wait(3))
	assert.Equal(t, 3*time.Second, p.wait(40))
}

func TestDoWithData(t *testing.T) {
	v, err := DoWithData(context.Background(), func(context.Context) (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}
