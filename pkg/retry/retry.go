// Package retry re-runs startup operations (database and Redis dials) until
// the backing service answers. Request paths never retry.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// permanent marks an error that ends the loop immediately.
type permanent struct{ err error }

func (p permanent) Error() string { return p.err.Error() }
func (p permanent) Unwrap() error { return p.err }

// Permanent wraps err so that Do gives up on it without another attempt.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanent{err: err}
}

// IsPermanent reports whether err was wrapped with Permanent.
func IsPermanent(err error) bool {
	var p permanent
	return errors.As(err, &p)
}

// Policy describes how many times and how slowly an operation is re-run.
type Policy struct {
	Attempts int
	Base     time.Duration
	Cap      time.Duration
	// Spread is the +/- fraction of random jitter applied to each pause.
	Spread  float64
	OnRetry func(attempt int, err error, wait time.Duration)
}

// Option adjusts a Policy.
type Option func(*Policy)

func WithMaxAttempts(n int) Option {
	return func(p *Policy) {
		if n > 0 {
			p.Attempts = n
		}
	}
}

func WithInitialDelay(d time.Duration) Option {
	return func(p *Policy) {
		if d > 0 {
			p.Base = d
		}
	}
}

func WithMaxDelay(d time.Duration) Option {
	return func(p *Policy) {
		if d > 0 {
			p.Cap = d
		}
	}
}

// WithOnRetry installs a hook called before every pause, usually for logging.
func WithOnRetry(fn func(attempt int, err error, wait time.Duration)) Option {
	return func(p *Policy) { p.OnRetry = fn }
}

// NewPolicy returns the startup defaults: 5 attempts, 500ms doubling to 10s, 20% jitter.
func NewPolicy(opts ...Option) Policy {
	p := Policy{Attempts: 5, Base: 500 * time.Millisecond, Cap: 10 * time.Second, Spread: 0.2}
	for _, o := range opts {
		o(&p)
	}
	return p
}

// wait returns the pause after the given (1-based) failed attempt.
func (p Policy) wait(attempt int) time.Duration {
	d := p.Base
	for i := 1; i < attempt && d < p.Cap; i++ {
		d *= 2
	}
	d = min(d, p.Cap)
	if p.Spread > 0 {
		d += time.Duration(float64(d) * p.Spread * (2*rand.Float64() - 1))
	}
	return max(d, 0)
}

// Do runs op until it succeeds, returns a Permanent error, the context ends or
// the attempts are used up. The last error is returned unwrapped.
func (p Policy) Do(ctx context.Context, op func(context.Context) error) error {
	var last error
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return errors.Join(last, err)
		}

		last = op(ctx)
		switch {
		case last == nil:
			return nil
		case IsPermanent(last):
			return errors.Unwrap(last)
		case errors.Is(last, context.Canceled), attempt >= p.Attempts:
			return last
		}

		pause := p.wait(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, last, pause)
		}

		timer := time.NewTimer(pause)
		select {
		case <-ctx.Done():
			timer.Stop()
			return last
		case <-timer.C:
		}
	}
}

// Do runs op under NewPolicy(opts...).
func Do(ctx context.Context, op func(context.Context) error, opts ...Option) error {
	return NewPolicy(opts...).Do(ctx, op)
}

// DoWithData is Do for operations that produce a value, such as a pool or client.
func DoWithData[T any](ctx context.Context, op func(context.Context) (T, error), opts ...Option) (T, error) {
	var out T
	err := NewPolicy(opts...).Do(ctx, func(ctx context.Context) error {
		v, err := op(ctx)
		if err == nil {
			out = v
		}
		return err
	})
	return out, err
}
