package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/liqlens/liqlens/internal/liquidity"
	"github.com/liqlens/liqlens/internal/pipeline"
	"github.com/liqlens/liqlens/internal/platform/newsapi"
	"github.com/liqlens/liqlens/internal/platform/polymarket"
	"github.com/liqlens/liqlens/internal/render"
	"github.com/liqlens/liqlens/internal/service"
)

const (
	// defaultScanLimit bounds a scan when no count argument is given.
	defaultScanLimit = 50

	// marketSyncInterval is how often the long-running modes refresh market
	// metadata from the Gamma API.
	marketSyncInterval = 30 * time.Minute

	// headlineLookback bounds the news search window for analyze mode.
	headlineLookback = 7 * 24 * time.Hour
)

// analysisConfig maps the [analyze] config section onto the service tunables.
func (a *App) analysisConfig() service.AnalysisConfig {
	return service.AnalysisConfig{
		DepthRadius: a.cfg.Analyze.DepthRadiusCents,
		Weights: liquidity.Weights{
			Spread:       a.cfg.Analyze.SpreadWeight,
			Depth:        a.cfg.Analyze.DepthWeight,
			Volume:       a.cfg.Analyze.VolumeWeight,
			OpenInterest: a.cfg.Analyze.OpenInterestWeight,
		},
		SlippageSizes:    a.cfg.Analyze.SlippageSizes,
		MaxSlippageCents: a.cfg.Analyze.MaxSlippageCents,
	}
}

// services groups the platform clients and service layer shared by every
// mode.
type services struct {
	gamma    *polymarket.GammaClient
	clob     *polymarket.ClobClient
	market   *service.MarketService
	analysis *service.AnalysisService
}

func (a *App) buildServices(deps *Dependencies) services {
	gamma := polymarket.NewGammaClient(a.cfg.Polymarket.GammaHost)
	clob := polymarket.NewClobClient(a.cfg.Polymarket.ClobHost)

	marketSvc := service.NewMarketService(gamma, deps.MarketStore, a.logger)
	analysisSvc := service.NewAnalysisService(
		marketSvc,
		clob,
		deps.SnapshotStore,
		deps.ScoreStore,
		deps.BookCache,
		deps.ScoreCache,
		a.analysisConfig(),
		a.logger,
	)
	return services{gamma: gamma, clob: clob, market: marketSvc, analysis: analysisSvc}
}

// AnalyzeMode runs the full engine against a single market and prints the
// report. The market reference comes from the first CLI argument, falling
// back to the first monitored market.
func (a *App) AnalyzeMode(ctx context.Context, deps *Dependencies) error {
	ref := ""
	switch {
	case len(a.args) > 0:
		ref = a.args[0]
	case len(a.cfg.Monitor.Markets) > 0:
		ref = a.cfg.Monitor.Markets[0]
	default:
		return fmt.Errorf("analyze mode: no market given; pass a market ID or slug")
	}

	svcs := a.buildServices(deps)

	report, err := svcs.analysis.Analyze(ctx, ref)
	if err != nil {
		return fmt.Errorf("analyze mode: %w", err)
	}
	if err := render.Report(os.Stdout, report); err != nil {
		return fmt.Errorf("analyze mode: render: %w", err)
	}

	// Headlines are best-effort context, never an analysis failure.
	if a.cfg.News.APIKey != "" {
		news := newsapi.NewClient(a.cfg.News.BaseURL, a.cfg.News.APIKey, a.cfg.News.MaxResults)
		articles, err := news.Search(ctx, report.Market.Question, time.Now().Add(-headlineLookback))
		if err != nil {
			a.logger.WarnContext(ctx, "news search failed", slog.String("error", err.Error()))
		} else if err := render.Headlines(os.Stdout, articles); err != nil {
			return fmt.Errorf("analyze mode: render headlines: %w", err)
		}
	}
	return nil
}

// ScanMode scores a slate of markets and prints a ranked table. A leading
// numeric CLI argument overrides the market count; any remaining arguments
// form a search query that narrows the slate instead of taking the most
// active markets.
func (a *App) ScanMode(ctx context.Context, deps *Dependencies) error {
	limit := defaultScanLimit
	args := a.args
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil {
			if n <= 0 {
				return fmt.Errorf("scan mode: invalid market count %q", args[0])
			}
			limit = n
			args = args[1:]
		}
	}
	query := strings.Join(args, " ")

	svcs := a.buildServices(deps)

	rows, err := svcs.analysis.Scan(ctx, limit, query)
	if err != nil {
		return fmt.Errorf("scan mode: %w", err)
	}
	if err := render.ScanTable(os.Stdout, rows); err != nil {
		return fmt.Errorf("scan mode: render: %w", err)
	}
	return nil
}

// PortfolioMode reviews the exit liquidity of every open position in a
// wallet. The wallet comes from the first CLI argument or the config.
func (a *App) PortfolioMode(ctx context.Context, deps *Dependencies) error {
	wallet := a.cfg.Polymarket.Wallet
	if len(a.args) > 0 {
		wallet = a.args[0]
	}
	if wallet == "" {
		return fmt.Errorf("portfolio mode: no wallet given; pass an address or set polymarket.wallet")
	}

	svcs := a.buildServices(deps)
	data := polymarket.NewDataClient(a.cfg.Polymarket.DataHost)
	portfolioSvc := service.NewPortfolioService(data, svcs.market, svcs.clob, a.analysisConfig(), a.logger)

	reports, err := portfolioSvc.Review(ctx, wallet)
	if err != nil {
		return fmt.Errorf("portfolio mode: %w", err)
	}
	if err := render.PortfolioTable(os.Stdout, reports); err != nil {
		return fmt.Errorf("portfolio mode: render: %w", err)
	}
	return nil
}

// MonitorMode polls the configured markets, persists snapshots and scores,
// and raises alerts on grade changes, size collapses, and one-sided books.
func (a *App) MonitorMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting monitor mode")

	if len(a.cfg.Monitor.Markets) == 0 {
		return fmt.Errorf("monitor mode: no markets configured under monitor.markets")
	}

	svcs := a.buildServices(deps)

	orch := pipeline.NewOrchestrator(
		pipeline.NewMarketScraper(svcs.market, svcs.gamma, a.logger),
		pipeline.NewSnapshotRecorder(
			svcs.analysis,
			deps.RateLimiter,
			a.cfg.Monitor.Markets,
			a.cfg.Monitor.RateLimitPerMinute,
			a.logger,
		),
		pipeline.NewGradeWatcher(deps.AlertStore, deps.Notifier, a.cfg.Monitor.SizeCollapseRatio, a.logger),
		nil,
		marketSyncInterval,
		a.cfg.Monitor.PollInterval.Duration,
		0,
		a.logger,
	)
	return orch.Run(ctx)
}

// RecordMode captures snapshot history for the configured markets and
// periodically archives aged rows to object storage. No alerting.
func (a *App) RecordMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting record mode")

	markets := a.cfg.Record.Markets
	if len(markets) == 0 {
		markets = a.cfg.Monitor.Markets
	}
	if len(markets) == 0 {
		return fmt.Errorf("record mode: no markets configured under record.markets")
	}

	svcs := a.buildServices(deps)

	orch := pipeline.NewOrchestrator(
		pipeline.NewMarketScraper(svcs.market, svcs.gamma, a.logger),
		pipeline.NewSnapshotRecorder(
			svcs.analysis,
			deps.RateLimiter,
			markets,
			a.cfg.Monitor.RateLimitPerMinute,
			a.logger,
		),
		nil,
		a.buildArchiver(deps),
		marketSyncInterval,
		a.cfg.Record.SnapshotInterval.Duration,
		a.cfg.Record.ArchiveInterval.Duration,
		a.logger,
	)
	return orch.Run(ctx)
}

// FullMode runs monitoring and recording together: alerting on the monitored
// markets, snapshot history for the union of both market lists, and S3
// archival.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	markets := mergeMarkets(a.cfg.Monitor.Markets, a.cfg.Record.Markets)
	if len(markets) == 0 {
		return fmt.Errorf("full mode: no markets configured under monitor.markets or record.markets")
	}

	svcs := a.buildServices(deps)

	orch := pipeline.NewOrchestrator(
		pipeline.NewMarketScraper(svcs.market, svcs.gamma, a.logger),
		pipeline.NewSnapshotRecorder(
			svcs.analysis,
			deps.RateLimiter,
			markets,
			a.cfg.Monitor.RateLimitPerMinute,
			a.logger,
		),
		pipeline.NewGradeWatcher(deps.AlertStore, deps.Notifier, a.cfg.Monitor.SizeCollapseRatio, a.logger),
		a.buildArchiver(deps),
		marketSyncInterval,
		a.cfg.Monitor.PollInterval.Duration,
		a.cfg.Record.ArchiveInterval.Duration,
		a.logger,
	)
	return orch.Run(ctx)
}

// buildArchiver returns the archive loop, or nil when object storage is not
// wired or retention is disabled.
func (a *App) buildArchiver(deps *Dependencies) *pipeline.Archiver {
	if deps.Archiver == nil || a.cfg.Record.ArchiveRetentionDays <= 0 {
		return nil
	}
	return pipeline.NewArchiver(deps.Archiver, a.cfg.Record.ArchiveRetentionDays, a.logger)
}

// mergeMarkets unions two market reference lists, preserving order.
func mergeMarkets(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, ref := range append(append([]string{}, a...), b...) {
		if ref == "" || seen[ref] {
			continue
		}
		seen[ref] = true
		out = append(out, ref)
	}
	return out
}
