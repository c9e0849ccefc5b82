package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/liqlens/liqlens/internal/domain"
	"github.com/liqlens/liqlens/internal/notify"
	"github.com/liqlens/liqlens/internal/service"
)

// marketState is what the watcher remembers about a market between reports.
type marketState struct {
	grade       domain.LiquidityGrade
	hasQuote    bool
	maxSafeSize int64
	seen        bool
}

// GradeWatcher consumes analysis reports from the recorder and fires alerts
// on liquidity regressions: grade transitions, safe-size collapses, and books
// going one-sided. The first report for a market seeds its baseline; a grade
// change against the last persisted score still fires on that first report.
type GradeWatcher struct {
	alerts        domain.AlertStore
	notifier      *notify.Notifier
	collapseRatio float64 // alert when safe size falls below ratio * previous
	state         map[string]marketState
	logger        *slog.Logger
}

// NewGradeWatcher creates a GradeWatcher. The alert store and notifier may be
// nil; state tracking still runs so alerts resume cleanly once wired.
func NewGradeWatcher(alerts domain.AlertStore, notifier *notify.Notifier, collapseRatio float64, logger *slog.Logger) *GradeWatcher {
	if collapseRatio <= 0 || collapseRatio >= 1 {
		collapseRatio = 0.5
	}
	return &GradeWatcher{
		alerts:        alerts,
		notifier:      notifier,
		collapseRatio: collapseRatio,
		state:         make(map[string]marketState),
		logger:        logger.With(slog.String("component", "grade_watcher")),
	}
}

// Run consumes reports until the channel closes or the context is cancelled.
func (w *GradeWatcher) Run(ctx context.Context, in <-chan service.Report) error {
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("grade watcher stopped")
			return ctx.Err()
		case report, ok := <-in:
			if !ok {
				w.logger.Info("report channel closed")
				return nil
			}
			w.observe(ctx, report)
		}
	}
}

// observe updates per-market state and fires any alerts the new report
// warrants.
func (w *GradeWatcher) observe(ctx context.Context, report service.Report) {
	marketID := report.Market.ID
	prev, known := w.state[marketID]

	// The YES buy side is the reference size for collapse detection.
	next := marketState{
		grade:       report.Score.Grade,
		hasQuote:    report.HasQuote,
		maxSafeSize: report.Outcomes[0].MaxSafeBuy,
		seen:        true,
	}
	w.state[marketID] = next

	if !known || !prev.seen {
		// A restart wipes the in-memory baseline, but the report carries the
		// grade persisted before this run; a change that happened while the
		// watcher was down still fires.
		if report.HasPrev && report.PrevScore.Grade != next.grade {
			w.fire(ctx, domain.Alert{
				ID:        uuid.NewString(),
				MarketID:  marketID,
				Kind:      domain.AlertGradeChange,
				PrevGrade: report.PrevScore.Grade,
				NewGrade:  next.grade,
				Message: fmt.Sprintf("market %s liquidity grade moved from %s to %s (score %d)",
					marketID, report.PrevScore.Grade, next.grade, report.Score.Value),
				FiredAt: time.Now().UTC(),
			})
		}
		return
	}

	if prev.hasQuote && !next.hasQuote {
		w.fire(ctx, domain.Alert{
			ID:        uuid.NewString(),
			MarketID:  marketID,
			Kind:      domain.AlertBookOneSided,
			PrevGrade: prev.grade,
			NewGrade:  next.grade,
			Message:   fmt.Sprintf("market %s no longer has a two-sided quote", marketID),
			FiredAt:   time.Now().UTC(),
		})
		return
	}

	if next.grade != prev.grade {
		w.fire(ctx, domain.Alert{
			ID:        uuid.NewString(),
			MarketID:  marketID,
			Kind:      domain.AlertGradeChange,
			PrevGrade: prev.grade,
			NewGrade:  next.grade,
			Message: fmt.Sprintf("market %s liquidity grade moved from %s to %s (score %d)",
				marketID, prev.grade, next.grade, report.Score.Value),
			FiredAt: time.Now().UTC(),
		})
	}

	if prev.maxSafeSize > 0 && float64(next.maxSafeSize) < w.collapseRatio*float64(prev.maxSafeSize) {
		w.fire(ctx, domain.Alert{
			ID:        uuid.NewString(),
			MarketID:  marketID,
			Kind:      domain.AlertSizeCollapse,
			PrevGrade: prev.grade,
			NewGrade:  next.grade,
			Message: fmt.Sprintf("market %s max safe order size fell from %d to %d contracts",
				marketID, prev.maxSafeSize, next.maxSafeSize),
			FiredAt: time.Now().UTC(),
		})
	}
}

// fire persists and delivers a single alert. Failures are logged, not
// propagated: a dead notifier must not stop the watcher.
func (w *GradeWatcher) fire(ctx context.Context, alert domain.Alert) {
	w.logger.Info("alert fired",
		slog.String("market_id", alert.MarketID),
		slog.String("kind", string(alert.Kind)),
		slog.String("message", alert.Message),
	)

	if w.alerts != nil {
		if err := w.alerts.Insert(ctx, alert); err != nil {
			w.logger.Error("persist alert failed",
				slog.String("market_id", alert.MarketID),
				slog.String("error", err.Error()),
			)
		}
	}

	if w.notifier != nil {
		if err := w.notifier.NotifyAlert(ctx, alert); err != nil {
			w.logger.Error("deliver alert failed",
				slog.String("market_id", alert.MarketID),
				slog.String("error", err.Error()),
			)
		}
	}
}
