package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/liqlens/liqlens/internal/domain"
	"github.com/liqlens/liqlens/internal/liquidity"
)

// BookFetcher retrieves a validated two-sided orderbook for a market.
type BookFetcher interface {
	FetchOrderbook(ctx context.Context, market domain.Market) (domain.Orderbook, error)
}

// OutcomeReport carries the execution analysis for one outcome of a market.
type OutcomeReport struct {
	Outcome     domain.Outcome
	Buys        []domain.SlippageEstimate
	Sells       []domain.SlippageEstimate
	MaxSafeBuy  int64
	MaxSafeSell int64
}

// Report is the full analysis of a single market.
type Report struct {
	Market   domain.Market
	Book     domain.Orderbook
	HasQuote bool
	Spread   int     // cents; meaningful only when HasQuote
	Midpoint float64 // cents, YES view; meaningful only when HasQuote
	RawDepth float64
	Score    domain.LiquidityScore
	Outcomes [2]OutcomeReport

	// PrevScore is the last score persisted before this analysis ran. It is
	// read before the new results are written, so it survives across process
	// restarts. HasPrev reports whether any prior score was found.
	PrevScore   domain.LiquidityScore
	PrevScoreAt time.Time
	HasPrev     bool
}

// ScanRow is one line of a multi-market liquidity scan.
type ScanRow struct {
	Market domain.Market
	Score  domain.LiquidityScore
	Spread int
	Err    error // non-nil when this market could not be analyzed
}

// AnalysisConfig carries the tunables of the analysis service.
type AnalysisConfig struct {
	DepthRadius      int
	Weights          liquidity.Weights
	SlippageSizes    []int64
	MaxSlippageCents float64
}

// AnalysisService runs the liquidity engine against live books and persists
// the results.
type AnalysisService struct {
	markets    *MarketService
	books      BookFetcher
	snapshots  domain.SnapshotStore
	scores     domain.ScoreStore
	bookCache  domain.BookCache
	scoreCache domain.ScoreCache
	cfg        AnalysisConfig
	logger     *slog.Logger
}

// NewAnalysisService creates an AnalysisService. The snapshot and score
// stores and the caches may be nil, in which case results are computed but
// not persisted.
func NewAnalysisService(
	markets *MarketService,
	books BookFetcher,
	snapshots domain.SnapshotStore,
	scores domain.ScoreStore,
	bookCache domain.BookCache,
	scoreCache domain.ScoreCache,
	cfg AnalysisConfig,
	logger *slog.Logger,
) *AnalysisService {
	if cfg.DepthRadius <= 0 {
		cfg.DepthRadius = liquidity.DefaultDepthRadius
	}
	return &AnalysisService{
		markets:    markets,
		books:      books,
		snapshots:  snapshots,
		scores:     scores,
		bookCache:  bookCache,
		scoreCache: scoreCache,
		cfg:        cfg,
		logger:     logger.With(slog.String("component", "analysis_service")),
	}
}

// Analyze resolves a market by ID or slug, fetches its book, and runs the
// full engine: composite score, slippage table, and max safe order size per
// outcome and action. Results are persisted and cached when stores are
// configured.
func (s *AnalysisService) Analyze(ctx context.Context, ref string) (Report, error) {
	market, err := s.markets.Resolve(ctx, ref)
	if err != nil {
		return Report{}, err
	}

	book, err := s.fetchBook(ctx, market)
	if err != nil {
		return Report{}, err
	}

	report := s.buildReport(market, book)
	report.PrevScore, report.PrevScoreAt, report.HasPrev = s.previousScore(ctx, market.ID)

	if err := s.persist(ctx, report); err != nil {
		s.logger.WarnContext(ctx, "persist analysis failed",
			slog.String("market_id", market.ID),
			slog.String("error", err.Error()),
		)
	}
	return report, nil
}

// Scan scores up to limit markets and returns rows sorted by score, best
// first. A non-empty query narrows the candidates to markets matching it;
// otherwise the most active markets are scanned. Individual market failures
// are reported in-row rather than aborting the scan.
func (s *AnalysisService) Scan(ctx context.Context, limit int, query string) ([]ScanRow, error) {
	var markets []domain.Market
	var err error
	if query != "" {
		markets, err = s.markets.gamma.SearchMarkets(ctx, query, limit)
	} else {
		markets, err = s.markets.gamma.GetMarkets(ctx, limit, 0)
	}
	if err != nil {
		return nil, fmt.Errorf("analysis_service: scan: %w", err)
	}
	if err := s.markets.SyncMarkets(ctx, markets); err != nil {
		s.logger.WarnContext(ctx, "sync scanned markets failed", slog.String("error", err.Error()))
	}

	rows := make([]ScanRow, 0, len(markets))
	for _, m := range markets {
		if err := ctx.Err(); err != nil {
			return nil, domain.ErrContextDone
		}

		book, err := s.fetchBook(ctx, m)
		if err != nil {
			rows = append(rows, ScanRow{Market: m, Err: err})
			continue
		}

		report := s.buildReport(m, book)
		if err := s.persist(ctx, report); err != nil {
			s.logger.WarnContext(ctx, "persist scan result failed",
				slog.String("market_id", m.ID),
				slog.String("error", err.Error()),
			)
		}
		rows = append(rows, ScanRow{Market: m, Score: report.Score, Spread: report.Spread})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if (rows[i].Err == nil) != (rows[j].Err == nil) {
			return rows[i].Err == nil
		}
		return rows[i].Score.Value > rows[j].Score.Value
	})
	return rows, nil
}

// previousScore returns the most recent score persisted before this call
// writes its own. The cache answers first; the store covers cache misses and
// expiry.
func (s *AnalysisService) previousScore(ctx context.Context, marketID string) (domain.LiquidityScore, time.Time, bool) {
	if s.scoreCache != nil {
		score, ts, err := s.scoreCache.GetScore(ctx, marketID)
		if err == nil {
			return score, ts, true
		}
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.WarnContext(ctx, "score cache read failed",
				slog.String("market_id", marketID),
				slog.String("error", err.Error()),
			)
		}
	}
	if s.scores != nil {
		rec, err := s.scores.GetLatest(ctx, marketID)
		if err == nil {
			return rec.Score, rec.CreatedAt, true
		}
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.WarnContext(ctx, "score history read failed",
				slog.String("market_id", marketID),
				slog.String("error", err.Error()),
			)
		}
	}
	return domain.LiquidityScore{}, time.Time{}, false
}

// fetchBook pulls a fresh book from the CLOB, falling back to the cache when
// the API is unavailable. Fresh books are written back to the cache.
func (s *AnalysisService) fetchBook(ctx context.Context, market domain.Market) (domain.Orderbook, error) {
	book, err := s.books.FetchOrderbook(ctx, market)
	if err == nil {
		if s.bookCache != nil {
			if cacheErr := s.bookCache.SetBook(ctx, market.ID, book); cacheErr != nil {
				s.logger.WarnContext(ctx, "book cache write failed",
					slog.String("market_id", market.ID),
					slog.String("error", cacheErr.Error()),
				)
			}
		}
		return book, nil
	}

	if s.bookCache != nil {
		cached, cacheErr := s.bookCache.GetBook(ctx, market.ID)
		if cacheErr == nil {
			s.logger.WarnContext(ctx, "serving cached book after fetch failure",
				slog.String("market_id", market.ID),
				slog.String("error", err.Error()),
			)
			return cached, nil
		}
		if !errors.Is(cacheErr, domain.ErrNotFound) {
			s.logger.WarnContext(ctx, "book cache read failed",
				slog.String("market_id", market.ID),
				slog.String("error", cacheErr.Error()),
			)
		}
	}
	return domain.Orderbook{}, fmt.Errorf("analysis_service: fetch book for %s: %w", market.ID, err)
}

// buildReport runs the pure engine over a market and its book.
func (s *AnalysisService) buildReport(market domain.Market, book domain.Orderbook) Report {
	report := Report{
		Market:   market,
		Book:     book,
		RawDepth: liquidity.DepthScore(book, s.cfg.DepthRadius),
	}

	if spread, ok := book.Spread(); ok {
		report.HasQuote = true
		report.Spread = spread
		if mid, ok := book.Midpoint(domain.OutcomeYes); ok {
			report.Midpoint = mid
		}
	}

	score, err := liquidity.Score(market.Context(), book, s.cfg.Weights)
	if err != nil {
		// Weights are validated at startup; fall back to the defaults
		// rather than dropping the report.
		score, _ = liquidity.Score(market.Context(), book, liquidity.DefaultWeights())
	}
	report.Score = score

	for i, outcome := range []domain.Outcome{domain.OutcomeYes, domain.OutcomeNo} {
		report.Outcomes[i] = OutcomeReport{
			Outcome:     outcome,
			Buys:        liquidity.SlippageTable(book, outcome, domain.ActionBuy, s.cfg.SlippageSizes),
			Sells:       liquidity.SlippageTable(book, outcome, domain.ActionSell, s.cfg.SlippageSizes),
			MaxSafeBuy:  liquidity.MaxSafeOrderSize(book, outcome, domain.ActionBuy, s.cfg.MaxSlippageCents),
			MaxSafeSell: liquidity.MaxSafeOrderSize(book, outcome, domain.ActionSell, s.cfg.MaxSlippageCents),
		}
	}
	return report
}

// persist writes the snapshot and score records and refreshes the score
// cache.
func (s *AnalysisService) persist(ctx context.Context, report Report) error {
	now := time.Now().UTC()

	if s.snapshots != nil {
		rec := domain.SnapshotRecord{
			ID:         uuid.NewString(),
			MarketID:   report.Market.ID,
			Book:       report.Book,
			CapturedAt: report.Book.CapturedAt,
		}
		if err := s.snapshots.Insert(ctx, rec); err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}
	}

	if s.scores != nil {
		rec := domain.ScoreRecord{
			ID:        uuid.NewString(),
			MarketID:  report.Market.ID,
			Score:     report.Score,
			Spread:    report.Spread,
			Midpoint:  report.Midpoint,
			HasQuote:  report.HasQuote,
			RawDepth:  report.RawDepth,
			CreatedAt: now,
		}
		if err := s.scores.Insert(ctx, rec); err != nil {
			return fmt.Errorf("insert score: %w", err)
		}
	}

	if s.scoreCache != nil {
		if err := s.scoreCache.SetScore(ctx, report.Market.ID, report.Score, now); err != nil {
			s.logger.WarnContext(ctx, "score cache write failed",
				slog.String("market_id", report.Market.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}
