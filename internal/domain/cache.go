package domain

import (
	"context"
	"time"
)

// BookCache stores the most recent validated orderbook per market.
type BookCache interface {
	SetBook(ctx context.Context, marketID string, book Orderbook) error
	GetBook(ctx context.Context, marketID string) (Orderbook, error)
}

// ScoreCache stores the most recent liquidity score per market.
type ScoreCache interface {
	SetScore(ctx context.Context, marketID string, score LiquidityScore, ts time.Time) error
	GetScore(ctx context.Context, marketID string) (LiquidityScore, time.Time, error)
}

// RateLimiter provides distributed rate limiting for polite API polling.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
