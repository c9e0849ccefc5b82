// Package pipeline runs the long-lived monitoring loops: market metadata
// sync, snapshot recording, grade watching, and cold-storage archival.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/liqlens/liqlens/internal/domain"
	"github.com/liqlens/liqlens/internal/service"
)

// clobRateLimitKey is the shared rate-limit bucket for CLOB polling.
const clobRateLimitKey = "clob"

// limiterPollInterval is how long the recorder sleeps between rate-limit
// retries.
const limiterPollInterval = 200 * time.Millisecond

// SnapshotRecorder polls the configured markets on an interval, runs the full
// analysis for each, and forwards the resulting reports to the grade watcher.
// Persistence and caching happen inside the analysis service.
type SnapshotRecorder struct {
	analysis  *service.AnalysisService
	limiter   domain.RateLimiter
	markets   []string
	rateLimit int // requests per minute; 0 disables limiting
	logger    *slog.Logger
}

// NewSnapshotRecorder creates a SnapshotRecorder for the given market IDs or
// slugs. The limiter may be nil when rate limiting is disabled.
func NewSnapshotRecorder(
	analysis *service.AnalysisService,
	limiter domain.RateLimiter,
	markets []string,
	rateLimit int,
	logger *slog.Logger,
) *SnapshotRecorder {
	return &SnapshotRecorder{
		analysis:  analysis,
		limiter:   limiter,
		markets:   markets,
		rateLimit: rateLimit,
		logger:    logger.With(slog.String("component", "snapshot_recorder")),
	}
}

// Run executes a single recording pass over all configured markets, sending
// each successful report to out. A nil out channel disables forwarding.
func (r *SnapshotRecorder) Run(ctx context.Context, out chan<- service.Report) error {
	for _, ref := range r.markets {
		if err := r.waitForSlot(ctx); err != nil {
			return err
		}

		report, err := r.analysis.Analyze(ctx, ref)
		if err != nil {
			r.logger.Error("analysis failed",
				slog.String("market", ref),
				slog.String("error", err.Error()),
			)
			continue
		}

		r.logger.Info("recorded snapshot",
			slog.String("market_id", report.Market.ID),
			slog.Int("score", report.Score.Value),
			slog.String("grade", string(report.Score.Grade)),
		)

		if out != nil {
			select {
			case out <- report:
			case <-ctx.Done():
				return domain.ErrContextDone
			}
		}
	}
	return nil
}

// RunLoop runs recording passes on a repeating interval until the context is
// cancelled.
func (r *SnapshotRecorder) RunLoop(ctx context.Context, interval time.Duration, out chan<- service.Report) error {
	// Run immediately on start.
	if err := r.Run(ctx, out); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.logger.Error("recording pass failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("snapshot recorder loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := r.Run(ctx, out); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				r.logger.Error("recording pass failed", slog.String("error", err.Error()))
			}
		}
	}
}

// waitForSlot blocks until the rate limiter admits another CLOB request.
func (r *SnapshotRecorder) waitForSlot(ctx context.Context) error {
	if r.limiter == nil || r.rateLimit <= 0 {
		return nil
	}

	for {
		allowed, err := r.limiter.Allow(ctx, clobRateLimitKey, r.rateLimit, time.Minute)
		if err != nil {
			// A broken limiter should not stall monitoring.
			r.logger.Warn("rate limiter unavailable", slog.String("error", err.Error()))
			return nil
		}
		if allowed {
			return nil
		}

		timer := time.NewTimer(limiterPollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("pipeline: rate limit wait: %w", ctx.Err())
		case <-timer.C:
		}
	}
}
