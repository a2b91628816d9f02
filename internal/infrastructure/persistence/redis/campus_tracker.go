package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fccthegurukul/gurukul-hub/internal/domain/presence"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CAMPUS TRACKER
// ══════════════════════════════════════════════════════════════════════════════

// CampusTracker implements presence.CampusTracker with two sorted sets scored
// by unix milliseconds: the latest arrival and the latest departure of each
// student. Both only move forward (ZADD GT), so marks applied out of order
// converge on the same state. A student is on campus while the arrival is
// strictly later than the departure. Arrivals older than TTLCampus are
// ignored on read and dropped by Reset.
type CampusTracker struct {
	client redis.UniversalClient
	now    func() time.Time
}

const (
	keyCampusArrived  = PrefixCampus + "arrived"
	keyCampusDeparted = PrefixCampus + "departed"
)

// NewCampusTracker creates a tracker on client.
func NewCampusTracker(client redis.UniversalClient) *CampusTracker {
	return &CampusTracker{client: client, now: time.Now}
}

func (t *CampusTracker) MarkArrived(ctx context.Context, fccID shared.FccID, at time.Time) error {
	if err := t.mark(ctx, keyCampusArrived, fccID, at); err != nil {
		return fmt.Errorf("failed to mark arrival: %w", err)
	}
	return nil
}

func (t *CampusTracker) MarkDeparted(ctx context.Context, fccID shared.FccID, at time.Time) error {
	if err := t.mark(ctx, keyCampusDeparted, fccID, at); err != nil {
		return fmt.Errorf("failed to mark departure: %w", err)
	}
	return nil
}

func (t *CampusTracker) mark(ctx context.Context, key string, fccID shared.FccID, at time.Time) error {
	if fccID.IsEmpty() {
		return shared.ErrFccIDRequired
	}
	pipe := t.client.TxPipeline()
	pipe.ZAddGT(ctx, key, redis.Z{Score: float64(at.UnixMilli()), Member: fccID.String()})
	pipe.Expire(ctx, key, TTLCampus)
	_, err := pipe.Exec(ctx)
	return err
}

// OnCampus lists students by arrival time, earliest first.
func (t *CampusTracker) OnCampus(ctx context.Context) ([]presence.CampusEntry, error) {
	cutoff := t.now().Add(-TTLCampus).UnixMilli()

	arrived, err := t.client.ZRangeByScoreWithScores(ctx, keyCampusArrived, &redis.ZRangeBy{
		Min: strconv.FormatInt(cutoff, 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list campus: %w", err)
	}
	if len(arrived) == 0 {
		return []presence.CampusEntry{}, nil
	}

	members := make([]string, len(arrived))
	for i, z := range arrived {
		members[i], _ = z.Member.(string)
	}
	departed, err := t.client.ZMScore(ctx, keyCampusDeparted, members...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read departures: %w", err)
	}

	return campusEntries(arrived, departed), nil
}

// Reset empties the tracker; run nightly.
func (t *CampusTracker) Reset(ctx context.Context) error {
	return t.client.Del(ctx, keyCampusArrived, keyCampusDeparted).Err()
}

// campusEntries keeps arrivals later than the matching departure score.
// departed is aligned with arrived; a missing departure reads as 0.
func campusEntries(arrived []redis.Z, departed []float64) []presence.CampusEntry {
	out := make([]presence.CampusEntry, 0, len(arrived))
	for i, z := range arrived {
		if i < len(departed) && departed[i] >= z.Score {
			continue
		}
		id, _ := z.Member.(string)
		out = append(out, presence.CampusEntry{
			FccID:     shared.FccID(id),
			ArrivedAt: time.UnixMilli(int64(z.Score)).UTC(),
		})
	}
	return out
}
