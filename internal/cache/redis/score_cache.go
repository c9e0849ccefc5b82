package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/liqlens/liqlens/internal/domain"
)

// ScoreCache implements domain.ScoreCache using one Redis hash per market.
//
// Key schema:
//
//	score:{marketID} - hash with value, grade, component, and "ts" fields
type ScoreCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewScoreCache creates a ScoreCache backed by the given Client. Entries
// expire after ttl; a non-positive ttl disables expiry.
func NewScoreCache(c *Client, ttl time.Duration) *ScoreCache {
	return &ScoreCache{rdb: c.Underlying(), ttl: ttl}
}

func scoreKey(marketID string) string { return "score:" + marketID }

// SetScore replaces the cached score for a market.
func (sc *ScoreCache) SetScore(ctx context.Context, marketID string, score domain.LiquidityScore, ts time.Time) error {
	key := scoreKey(marketID)

	pipe := sc.rdb.TxPipeline()
	pipe.HSet(ctx, key, map[string]any{
		"value":  strconv.Itoa(score.Value),
		"grade":  string(score.Grade),
		"spread": strconv.FormatFloat(score.SpreadScore, 'f', -1, 64),
		"depth":  strconv.FormatFloat(score.DepthScore, 'f', -1, 64),
		"volume": strconv.FormatFloat(score.VolumeScore, 'f', -1, 64),
		"oi":     strconv.FormatFloat(score.OpenInterestScore, 'f', -1, 64),
		"ts":     strconv.FormatInt(ts.UnixNano(), 10),
	})
	if sc.ttl > 0 {
		pipe.Expire(ctx, key, sc.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set score %s: %w", marketID, err)
	}
	return nil
}

// GetScore returns the cached score for a market together with its timestamp.
// It returns domain.ErrNotFound when no score is cached.
func (sc *ScoreCache) GetScore(ctx context.Context, marketID string) (domain.LiquidityScore, time.Time, error) {
	vals, err := sc.rdb.HGetAll(ctx, scoreKey(marketID)).Result()
	if err != nil && err != redis.Nil {
		return domain.LiquidityScore{}, time.Time{}, fmt.Errorf("redis: get score %s: %w", marketID, err)
	}
	if len(vals) == 0 {
		return domain.LiquidityScore{}, time.Time{}, domain.ErrNotFound
	}

	var score domain.LiquidityScore
	score.Value, _ = strconv.Atoi(vals["value"])
	score.Grade = domain.LiquidityGrade(vals["grade"])
	score.SpreadScore, _ = strconv.ParseFloat(vals["spread"], 64)
	score.DepthScore, _ = strconv.ParseFloat(vals["depth"], 64)
	score.VolumeScore, _ = strconv.ParseFloat(vals["volume"], 64)
	score.OpenInterestScore, _ = strconv.ParseFloat(vals["oi"], 64)

	var ts time.Time
	if tsNano, err := strconv.ParseInt(vals["ts"], 10, 64); err == nil {
		ts = time.Unix(0, tsNano).UTC()
	}
	return score, ts, nil
}

// Compile-time interface check.
var _ domain.ScoreCache = (*ScoreCache)(nil)
