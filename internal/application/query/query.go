// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
package query

import (
	"context"
	"time"

	"github.com/fccthegurukul/gurukul-hub/pkg/logger"
)

// Cache is the read-through JSON cache used by slow-changing lookups.
// Any Get error is treated as a miss.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// cached loads dest from c, or via load and stores the result. A nil cache
// always loads.
func cached[T any](ctx context.Context, c Cache, key string, ttl time.Duration, load func(ctx context.Context) (T, error)) (T, error) {
	if c != nil {
		var hit T
		if err := c.Get(ctx, key, &hit); err == nil {
			return hit, nil
		}
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}

	if c != nil {
		if err := c.Set(ctx, key, v, ttl); err != nil {
			logger.FromContext(ctx).Warn("cache write failed", logger.String("key", key), logger.Err(err))
		}
	}
	return v, nil
}
