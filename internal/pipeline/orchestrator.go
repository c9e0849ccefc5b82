package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/liqlens/liqlens/internal/service"
)

// Orchestrator manages the monitoring goroutines: market metadata sync,
// snapshot recording, grade watching, and cold-storage archival. Any of the
// sub-pipelines may be nil, in which case it simply is not started; this lets
// the record and monitor modes share one orchestrator.
type Orchestrator struct {
	marketScraper   *MarketScraper
	recorder        *SnapshotRecorder
	watcher         *GradeWatcher
	archiver        *Archiver
	scrapeInterval  time.Duration
	pollInterval    time.Duration
	archiveInterval time.Duration
	logger          *slog.Logger
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(
	marketScraper *MarketScraper,
	recorder *SnapshotRecorder,
	watcher *GradeWatcher,
	archiver *Archiver,
	scrapeInterval time.Duration,
	pollInterval time.Duration,
	archiveInterval time.Duration,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		marketScraper:   marketScraper,
		recorder:        recorder,
		watcher:         watcher,
		archiver:        archiver,
		scrapeInterval:  scrapeInterval,
		pollInterval:    pollInterval,
		archiveInterval: archiveInterval,
		logger:          logger.With(slog.String("component", "orchestrator")),
	}
}

// Run starts the configured sub-pipelines as concurrent goroutines using an
// errgroup. Each goroutine respects ctx cancellation. If any goroutine
// returns a non-context error, the errgroup cancels the shared context and
// Run returns that error.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.Info("pipeline orchestrator starting",
		slog.Duration("scrape_interval", o.scrapeInterval),
		slog.Duration("poll_interval", o.pollInterval),
		slog.Duration("archive_interval", o.archiveInterval),
	)

	g, ctx := errgroup.WithContext(ctx)

	if o.marketScraper != nil {
		g.Go(func() error {
			o.logger.Info("starting market scraper loop")
			err := o.marketScraper.RunLoop(ctx, o.scrapeInterval)
			if ctx.Err() != nil {
				return nil // clean shutdown
			}
			return fmt.Errorf("market scraper: %w", err)
		})
	}

	if o.recorder != nil {
		// The report channel is buffered so a slow notifier does not
		// stall the recorder's polling cadence.
		var reports chan service.Report
		if o.watcher != nil {
			reports = make(chan service.Report, 64)
		}

		g.Go(func() error {
			o.logger.Info("starting snapshot recorder loop")
			err := o.recorder.RunLoop(ctx, o.pollInterval, reports)
			if reports != nil {
				close(reports)
			}
			if ctx.Err() != nil {
				return nil // clean shutdown
			}
			return fmt.Errorf("snapshot recorder: %w", err)
		})

		if o.watcher != nil {
			g.Go(func() error {
				o.logger.Info("starting grade watcher")
				err := o.watcher.Run(ctx, reports)
				if err == nil || ctx.Err() != nil {
					return nil // clean shutdown
				}
				return fmt.Errorf("grade watcher: %w", err)
			})
		}
	}

	if o.archiver != nil {
		g.Go(func() error {
			o.logger.Info("starting archive loop")
			err := o.archiver.RunLoop(ctx, o.archiveInterval)
			if ctx.Err() != nil {
				return nil // clean shutdown
			}
			return fmt.Errorf("archiver: %w", err)
		})
	}

	err := g.Wait()
	if err != nil {
		o.logger.Error("pipeline orchestrator stopped with error", slog.String("error", err.Error()))
		return err
	}

	o.logger.Info("pipeline orchestrator stopped cleanly")
	return nil
}
