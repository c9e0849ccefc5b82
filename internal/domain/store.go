package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// MarketStore persists market metadata.
type MarketStore interface {
	Upsert(ctx context.Context, market Market) error
	UpsertBatch(ctx context.Context, markets []Market) error
	GetByID(ctx context.Context, id string) (Market, error)
	GetBySlug(ctx context.Context, slug string) (Market, error)
	ListActive(ctx context.Context, opts ListOpts) ([]Market, error)
	Count(ctx context.Context) (int64, error)
}

// SnapshotStore persists orderbook snapshots.
type SnapshotStore interface {
	Insert(ctx context.Context, rec SnapshotRecord) error
	GetLatest(ctx context.Context, marketID string) (SnapshotRecord, error)
	ListByMarket(ctx context.Context, marketID string, opts ListOpts) ([]SnapshotRecord, error)
	ListBefore(ctx context.Context, before time.Time) ([]SnapshotRecord, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// ScoreStore persists the liquidity score time series.
type ScoreStore interface {
	Insert(ctx context.Context, rec ScoreRecord) error
	GetLatest(ctx context.Context, marketID string) (ScoreRecord, error)
	ListByMarket(ctx context.Context, marketID string, opts ListOpts) ([]ScoreRecord, error)
	ListBefore(ctx context.Context, before time.Time) ([]ScoreRecord, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// AlertStore persists fired liquidity alerts.
type AlertStore interface {
	Insert(ctx context.Context, alert Alert) error
	ListRecent(ctx context.Context, limit int) ([]Alert, error)
	ListByMarket(ctx context.Context, marketID string, opts ListOpts) ([]Alert, error)
}
