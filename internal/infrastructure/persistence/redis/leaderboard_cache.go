package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/fccthegurukul/gurukul-hub/internal/domain/leaderboard"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD PROJECTION
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardProjection keeps the ranking in Redis sorted sets.
//
// Layout, for scope "all" and for every class:
//   - Sorted Set "leaderboard:score:{scope}" maps fcc_id -> total_score
//   - Hash "leaderboard:info:{scope}" maps fcc_id -> record JSON
//   - Set "leaderboard:classes" remembers which class scopes exist
type LeaderboardProjection struct {
	client redis.UniversalClient
}

const (
	keyLeaderboardScore   = PrefixLeaderboard + "score:"
	keyLeaderboardInfo    = PrefixLeaderboard + "info:"
	keyLeaderboardClasses = PrefixLeaderboard + "classes"

	scopeAll = "all"
)

// NewLeaderboardProjection creates a projection on client.
func NewLeaderboardProjection(client redis.UniversalClient) *LeaderboardProjection {
	return &LeaderboardProjection{client: client}
}

func scope(class string) string {
	if class == "" {
		return scopeAll
	}
	return class
}

func scoreKey(class string) string { return keyLeaderboardScore + scope(class) }
func infoKey(class string) string  { return keyLeaderboardInfo + scope(class) }

// ─────────────────────────────────────────────────────────────────────────────
// Write side
// ─────────────────────────────────────────────────────────────────────────────

// Upsert writes the record into the global scope and its class scope. The
// score only moves up (ZADD GT): totals never decrease, so a late event
// carrying an older total cannot lower the ranking.
func (p *LeaderboardProjection) Upsert(ctx context.Context, rec leaderboard.Record) error {
	if rec.FccID.IsEmpty() {
		return shared.ErrFccIDRequired
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	member := rec.FccID.String()
	pipe := p.client.TxPipeline()
	for _, class := range scopesOf(rec) {
		pipe.ZAddGT(ctx, scoreKey(class), redis.Z{Score: float64(rec.TotalScore), Member: member})
		pipe.HSet(ctx, infoKey(class), member, data)
	}
	if rec.FccClass != "" {
		pipe.SAdd(ctx, keyLeaderboardClasses, rec.FccClass)
	}

	_, err = pipe.Exec(ctx)
	return err
}

// Replace drops every scope and loads records in one MULTI/EXEC.
func (p *LeaderboardProjection) Replace(ctx context.Context, records []leaderboard.Record) error {
	oldClasses, err := p.client.SMembers(ctx, keyLeaderboardClasses).Result()
	if err != nil {
		return fmt.Errorf("failed to read class scopes: %w", err)
	}

	pipe := p.client.TxPipeline()
	pipe.Del(ctx, scoreKey(""), infoKey(""), keyLeaderboardClasses)
	for _, class := range oldClasses {
		pipe.Del(ctx, scoreKey(class), infoKey(class))
	}

	members := make(map[string][]redis.Z)
	infos := make(map[string]map[string]interface{})
	for _, rec := range records {
		if rec.FccID.IsEmpty() {
			continue
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal record: %w", err)
		}
		member := rec.FccID.String()
		for _, class := range scopesOf(rec) {
			s := scope(class)
			members[s] = append(members[s], redis.Z{Score: float64(rec.TotalScore), Member: member})
			if infos[s] == nil {
				infos[s] = make(map[string]interface{})
			}
			infos[s][member] = data
		}
		if rec.FccClass != "" {
			pipe.SAdd(ctx, keyLeaderboardClasses, rec.FccClass)
		}
	}

	for s, zs := range members {
		pipe.ZAdd(ctx, keyLeaderboardScore+s, zs...)
		pipe.HSet(ctx, keyLeaderboardInfo+s, infos[s])
	}

	_, err = pipe.Exec(ctx)
	return err
}

// ─────────────────────────────────────────────────────────────────────────────
// Read side
// ─────────────────────────────────────────────────────────────────────────────

// Top returns the highest totals of a scope with shared positions for ties.
func (p *LeaderboardProjection) Top(ctx context.Context, class string, limit int) ([]leaderboard.RankedEntry, error) {
	if limit <= 0 {
		limit = leaderboard.DefaultLimit
	}

	zs, err := p.client.ZRevRangeWithScores(ctx, scoreKey(class), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(zs) == 0 {
		return []leaderboard.RankedEntry{}, nil
	}

	ids := make([]string, len(zs))
	for i, z := range zs {
		ids[i], _ = z.Member.(string)
	}

	infos, err := p.client.HMGet(ctx, infoKey(class), ids...).Result()
	if err != nil {
		return nil, err
	}

	return leaderboard.Rank(decodeRecords(zs, infos)), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPER FUNCTIONS
// ══════════════════════════════════════════════════════════════════════════════

func scopesOf(rec leaderboard.Record) []string {
	if rec.FccClass == "" {
		return []string{""}
	}
	return []string{"", rec.FccClass}
}

// decodeRecords merges sorted-set scores with the info hash. The score is
// authoritative; a missing or corrupt info entry keeps the bare fcc_id.
func decodeRecords(zs []redis.Z, infos []interface{}) []leaderboard.Record {
	out := make([]leaderboard.Record, 0, len(zs))
	for i, z := range zs {
		id, _ := z.Member.(string)
		rec := leaderboard.Record{FccID: shared.FccID(id)}
		if i < len(infos) {
			if s, ok := infos[i].(string); ok {
				_ = json.Unmarshal([]byte(s), &rec)
			}
		}
		rec.FccID = shared.FccID(id)
		rec.TotalScore = int(z.Score)
		out = append(out, rec)
	}
	return out
}
