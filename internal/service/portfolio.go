package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/liqlens/liqlens/internal/domain"
	"github.com/liqlens/liqlens/internal/liquidity"
)

// PositionFetcher retrieves the open positions held by a wallet.
type PositionFetcher interface {
	GetPositions(ctx context.Context, wallet string) ([]domain.Position, error)
}

// PositionReport is the exit analysis for one held position: what selling the
// whole stake would cost now, and how much of it can be unwound within the
// slippage budget.
type PositionReport struct {
	Position    domain.Position
	Market      domain.Market
	Exit        domain.SlippageEstimate
	MaxSafeExit int64
	Err         error // non-nil when this position could not be analyzed
}

// PortfolioService measures the exit liquidity of a wallet's open positions.
type PortfolioService struct {
	positions PositionFetcher
	markets   *MarketService
	books     BookFetcher
	cfg       AnalysisConfig
	logger    *slog.Logger
}

// NewPortfolioService creates a PortfolioService.
func NewPortfolioService(
	positions PositionFetcher,
	markets *MarketService,
	books BookFetcher,
	cfg AnalysisConfig,
	logger *slog.Logger,
) *PortfolioService {
	return &PortfolioService{
		positions: positions,
		markets:   markets,
		books:     books,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "portfolio_service")),
	}
}

// Review fetches the wallet's positions and simulates a full exit of each
// against the live book. Individual position failures are reported in-row.
func (s *PortfolioService) Review(ctx context.Context, wallet string) ([]PositionReport, error) {
	positions, err := s.positions.GetPositions(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("portfolio_service: fetch positions: %w", err)
	}

	reports := make([]PositionReport, 0, len(positions))
	for _, pos := range positions {
		if err := ctx.Err(); err != nil {
			return nil, domain.ErrContextDone
		}
		reports = append(reports, s.reviewPosition(ctx, pos))
	}
	return reports, nil
}

func (s *PortfolioService) reviewPosition(ctx context.Context, pos domain.Position) PositionReport {
	report := PositionReport{Position: pos}

	market, err := s.markets.Resolve(ctx, pos.MarketID)
	if err != nil {
		report.Err = err
		return report
	}
	report.Market = market

	book, err := s.books.FetchOrderbook(ctx, market)
	if err != nil {
		report.Err = fmt.Errorf("portfolio_service: fetch book for %s: %w", market.ID, err)
		return report
	}

	report.Exit = liquidity.EstimateSlippage(book, pos.Outcome, domain.ActionSell, pos.Quantity)
	report.MaxSafeExit = liquidity.MaxSafeOrderSize(book, pos.Outcome, domain.ActionSell, s.cfg.MaxSlippageCents)
	return report
}
