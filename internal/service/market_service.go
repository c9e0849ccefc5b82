// Package service wires the pure liquidity engine to the platform clients,
// stores, and caches.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/liqlens/liqlens/internal/domain"
)

// MarketService handles market discovery and metadata sync.
type MarketService struct {
	gamma   MarketFetcher
	markets domain.MarketStore
	logger  *slog.Logger
}

// MarketFetcher retrieves market metadata from an external API.
type MarketFetcher interface {
	GetMarkets(ctx context.Context, limit, offset int) ([]domain.Market, error)
	GetMarket(ctx context.Context, id string) (domain.Market, error)
	GetMarketBySlug(ctx context.Context, slug string) (domain.Market, error)
	SearchMarkets(ctx context.Context, query string, limit int) ([]domain.Market, error)
}

// NewMarketService creates a MarketService. The store may be nil, in which
// case every lookup goes straight to the API and nothing is persisted.
func NewMarketService(gamma MarketFetcher, markets domain.MarketStore, logger *slog.Logger) *MarketService {
	return &MarketService{
		gamma:   gamma,
		markets: markets,
		logger:  logger.With(slog.String("component", "market_service")),
	}
}

// SyncMarkets upserts a batch of markets into the persistent store.
func (s *MarketService) SyncMarkets(ctx context.Context, markets []domain.Market) error {
	if len(markets) == 0 || s.markets == nil {
		return nil
	}

	if err := s.markets.UpsertBatch(ctx, markets); err != nil {
		return fmt.Errorf("market_service: upsert batch: %w", err)
	}

	s.logger.InfoContext(ctx, "synced markets", slog.Int("count", len(markets)))
	return nil
}

// Resolve looks a market up by ID or slug. It tries the local store first and
// falls back to the Gamma API, persisting anything it fetches so the next
// lookup is local.
func (s *MarketService) Resolve(ctx context.Context, ref string) (domain.Market, error) {
	if s.markets != nil {
		if m, err := s.markets.GetByID(ctx, ref); err == nil {
			return m, nil
		} else if !errors.Is(err, domain.ErrNotFound) {
			return domain.Market{}, fmt.Errorf("market_service: resolve %q: %w", ref, err)
		}

		if m, err := s.markets.GetBySlug(ctx, ref); err == nil {
			return m, nil
		} else if !errors.Is(err, domain.ErrNotFound) {
			return domain.Market{}, fmt.Errorf("market_service: resolve %q: %w", ref, err)
		}
	}

	m, err := s.gamma.GetMarket(ctx, ref)
	if errors.Is(err, domain.ErrNotFound) {
		m, err = s.gamma.GetMarketBySlug(ctx, ref)
	}
	if err != nil {
		return domain.Market{}, fmt.Errorf("market_service: resolve %q: %w", ref, err)
	}

	if s.markets != nil {
		if err := s.markets.Upsert(ctx, m); err != nil {
			s.logger.WarnContext(ctx, "persist resolved market failed",
				slog.String("market_id", m.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	return m, nil
}
