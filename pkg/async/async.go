// Package async runs blocking work on a goroutine and hands back a typed
// result that the caller awaits with a deadline.
package async

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimeout is returned by Await when the deadline passes first.
var ErrTimeout = errors.New("async: task timed out")

// Result is the outcome of a task.
type Result[T any] struct {
	Value T
	Err   error
}

// Future is a task started with Go.
type Future[T any] struct {
	done   chan struct{}
	result Result[T]
	cancel context.CancelFunc
}

// Go starts fn in a new goroutine. fn receives a context that is cancelled
// when the parent is, or when Await gives up waiting. A panic in fn is
// returned as an error.
func Go[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) *Future[T] {
	taskCtx, cancel := context.WithCancel(ctx)
	f := &Future[T]{done: make(chan struct{}), cancel: cancel}

	go func() {
		defer close(f.done)
		defer cancel()
		defer func() {
			if p := recover(); p != nil {
				f.result = Result[T]{Err: fmt.Errorf("async: task panicked: %v", p)}
			}
		}()

		v, err := fn(taskCtx)
		f.result = Result[T]{Value: v, Err: err}
	}()

	return f
}

// Await waits for the task up to timeout (no limit when timeout <= 0).
// On timeout or ctx cancellation the task's context is cancelled and the
// returned Result carries ErrTimeout or ctx.Err().
func (f *Future[T]) Await(ctx context.Context, timeout time.Duration) Result[T] {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case <-f.done:
		return f.result
	case <-expired:
		f.cancel()
		return Result[T]{Err: ErrTimeout}
	case <-ctx.Done():
		f.cancel()
		return Result[T]{Err: ctx.Err()}
	}
}

// Done is closed once the task has returned.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Run starts fn and awaits it in one call.
func Run[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) Result[T] {
	return Go(ctx, fn).Await(ctx, timeout)
}
