package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/liqlens/liqlens/internal/domain"
)

// MarketSyncer persists a batch of markets to the store.
type MarketSyncer interface {
	SyncMarkets(ctx context.Context, markets []domain.Market) error
}

// MarketFetcher retrieves markets from an external API.
type MarketFetcher interface {
	GetMarkets(ctx context.Context, limit, offset int) ([]domain.Market, error)
}

// scrapePageSize is the Gamma API page size per request.
const scrapePageSize = 100

// maxScrapePages bounds a single sync pass so a misbehaving API cannot keep
// the scraper paginating forever.
const maxScrapePages = 200

// MarketScraper keeps the local market table in sync with the Gamma API.
// Only tradeable markets are persisted; closed and settled ones have no book
// to score.
type MarketScraper struct {
	marketSvc MarketSyncer
	fetcher   MarketFetcher
	logger    *slog.Logger
}

// NewMarketScraper creates a new MarketScraper.
func NewMarketScraper(syncer MarketSyncer, fetcher MarketFetcher, logger *slog.Logger) *MarketScraper {
	return &MarketScraper{
		marketSvc: syncer,
		fetcher:   fetcher,
		logger:    logger.With(slog.String("component", "market_scraper")),
	}
}

// Run executes a single sync pass, paginating through the API and upserting
// each batch of active markets.
func (s *MarketScraper) Run(ctx context.Context) error {
	synced := 0

	for page := 0; page < maxScrapePages; page++ {
		if ctx.Err() != nil {
			return domain.ErrContextDone
		}

		batch, err := s.fetcher.GetMarkets(ctx, scrapePageSize, page*scrapePageSize)
		if err != nil {
			return fmt.Errorf("pipeline: fetch markets page %d: %w", page, err)
		}
		if len(batch) == 0 {
			break
		}

		active := batch[:0:0]
		for _, m := range batch {
			if m.Status == domain.MarketStatusActive {
				active = append(active, m)
			}
		}

		if err := s.marketSvc.SyncMarkets(ctx, active); err != nil {
			return fmt.Errorf("pipeline: sync markets page %d: %w", page, err)
		}
		synced += len(active)

		s.logger.Debug("synced market page",
			slog.Int("page", page),
			slog.Int("active", len(active)),
			slog.Int("skipped", len(batch)-len(active)),
		)

		if len(batch) < scrapePageSize {
			break
		}
	}

	s.logger.Info("market sync complete", slog.Int("synced", synced))
	return nil
}

// RunLoop repeats sync passes on an interval until the context is cancelled.
// An immediate pass runs on start.
func (s *MarketScraper) RunLoop(ctx context.Context, interval time.Duration) error {
	if err := s.Run(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Error("market sync failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("market scraper loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := s.Run(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.logger.Error("market sync failed", slog.String("error", err.Error()))
			}
		}
	}
}
