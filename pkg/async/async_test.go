package async

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Value(t *testing.T) {
	res := Run(context.Background(), time.Second, func(context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, res.Err)
	assert.Equal(t, 42, res.Value)
}

func TestRun_Error(t *testing.T) {
	boom := errors.New("boom")
	res := Run(context.Background(), time.Second, func(context.Context) (string, error) {
		return "", boom
	})
	assert.ErrorIs(t, res.Err, boom)
}

func TestAwait_TimeoutCancelsTask(t *testing.T) {
	cancelled := make(chan struct{})
	f := Go(context.Background(), func(ctx context.Context) (int, error) {
		<-ctx.Done()
		close(cancelled)
		return 0, ctx.Err()
	})

	res := f.Await(context.Background(), 10*time.Millisecond)
	assert.ErrorIs(t, res.Err, ErrTimeout)

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("task context was not cancelled")
	}
	<-f.Done()
}

func TestAwait_ParentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := Go(ctx, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	cancel()

	res := f.Await(ctx, time.Second)
	assert.ErrorIs(t, res.Err, context.Canceled)
}

func TestRun_Panic(t *testing.T) {
	res := Run(context.Background(), time.Second, func(context.Context) (int, error) {
		panic("bad input")
	})
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "bad input")
}
