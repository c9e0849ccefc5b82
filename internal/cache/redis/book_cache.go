package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/liqlens/liqlens/internal/domain"
)

// BookCache implements domain.BookCache using Redis hashes, one per side.
//
// Key schema:
//
//	book:{marketID}:yes  - hash mapping price (cents) -> quantity
//	book:{marketID}:no   - hash mapping price (cents) -> quantity
//	book:{marketID}:meta - hash with "ts" field (capture timestamp, ns)
//
// Reads rebuild the book through domain.NewOrderbook, so a corrupted entry
// fails validation instead of flowing downstream.
type BookCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewBookCache creates a BookCache backed by the given Client. Entries expire
// after ttl; a non-positive ttl disables expiry.
func NewBookCache(c *Client, ttl time.Duration) *BookCache {
	return &BookCache{rdb: c.Underlying(), ttl: ttl}
}

func bookYesKey(marketID string) string  { return "book:" + marketID + ":yes" }
func bookNoKey(marketID string) string   { return "book:" + marketID + ":no" }
func bookMetaKey(marketID string) string { return "book:" + marketID + ":meta" }

// SetBook replaces the cached snapshot for a market.
func (bc *BookCache) SetBook(ctx context.Context, marketID string, book domain.Orderbook) error {
	yesKey := bookYesKey(marketID)
	noKey := bookNoKey(marketID)
	metaKey := bookMetaKey(marketID)

	pipe := bc.rdb.TxPipeline()
	pipe.Del(ctx, yesKey, noKey, metaKey)

	for _, lvl := range book.YesBids {
		pipe.HSet(ctx, yesKey, strconv.Itoa(lvl.Price), strconv.FormatInt(lvl.Quantity, 10))
	}
	for _, lvl := range book.NoBids {
		pipe.HSet(ctx, noKey, strconv.Itoa(lvl.Price), strconv.FormatInt(lvl.Quantity, 10))
	}
	pipe.HSet(ctx, metaKey, "ts", strconv.FormatInt(book.CapturedAt.UnixNano(), 10))

	if bc.ttl > 0 {
		pipe.Expire(ctx, yesKey, bc.ttl)
		pipe.Expire(ctx, noKey, bc.ttl)
		pipe.Expire(ctx, metaKey, bc.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set book %s: %w", marketID, err)
	}
	return nil
}

// GetBook reconstructs the cached snapshot for a market. It returns
// domain.ErrNotFound when no snapshot is cached.
func (bc *BookCache) GetBook(ctx context.Context, marketID string) (domain.Orderbook, error) {
	pipe := bc.rdb.Pipeline()
	yesCmd := pipe.HGetAll(ctx, bookYesKey(marketID))
	noCmd := pipe.HGetAll(ctx, bookNoKey(marketID))
	metaCmd := pipe.HGetAll(ctx, bookMetaKey(marketID))

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return domain.Orderbook{}, fmt.Errorf("redis: get book %s: %w", marketID, err)
	}

	metaVals, _ := metaCmd.Result()
	if len(metaVals) == 0 {
		return domain.Orderbook{}, domain.ErrNotFound
	}

	var capturedAt time.Time
	if tsStr, ok := metaVals["ts"]; ok {
		if tsNano, err := strconv.ParseInt(tsStr, 10, 64); err == nil {
			capturedAt = time.Unix(0, tsNano).UTC()
		}
	}

	yesVals, _ := yesCmd.Result()
	noVals, _ := noCmd.Result()

	yesLevels, err := decodeLevels(yesVals)
	if err != nil {
		return domain.Orderbook{}, fmt.Errorf("redis: get book %s: yes side: %w", marketID, err)
	}
	noLevels, err := decodeLevels(noVals)
	if err != nil {
		return domain.Orderbook{}, fmt.Errorf("redis: get book %s: no side: %w", marketID, err)
	}

	book, err := domain.NewOrderbook(yesLevels, noLevels, capturedAt)
	if err != nil {
		return domain.Orderbook{}, fmt.Errorf("redis: get book %s: %w", marketID, err)
	}
	return book, nil
}

func decodeLevels(vals map[string]string) ([]domain.PriceLevel, error) {
	levels := make([]domain.PriceLevel, 0, len(vals))
	for priceStr, qtyStr := range vals {
		price, err := strconv.Atoi(priceStr)
		if err != nil {
			return nil, fmt.Errorf("parse price %q: %w", priceStr, err)
		}
		qty, err := strconv.ParseInt(qtyStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse quantity %q: %w", qtyStr, err)
		}
		levels = append(levels, domain.PriceLevel{Price: price, Quantity: qty})
	}
	return levels, nil
}

// Compile-time interface check.
var _ domain.BookCache = (*BookCache)(nil)
