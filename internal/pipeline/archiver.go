package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/liqlens/liqlens/internal/domain"
)

// Archiver moves old snapshots and scores from the database to cold storage.
type Archiver struct {
	blobArchiver  domain.Archiver
	retentionDays int
	logger        *slog.Logger
}

// NewArchiver creates a new Archiver.
func NewArchiver(blobArchiver domain.Archiver, retentionDays int, logger *slog.Logger) *Archiver {
	return &Archiver{
		blobArchiver:  blobArchiver,
		retentionDays: retentionDays,
		logger:        logger.With(slog.String("component", "archive_loop")),
	}
}

// Run executes a single archive run. It calculates the cutoff time from the
// retention window and archives snapshots and scores older than the cutoff.
func (a *Archiver) Run(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-time.Duration(a.retentionDays) * 24 * time.Hour)
	a.logger.Info("starting archive run",
		slog.Time("cutoff", cutoff),
		slog.Int("retention_days", a.retentionDays),
	)

	snapshotsArchived, err := a.blobArchiver.ArchiveSnapshots(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("archiving snapshots before %v: %w", cutoff, err)
	}

	scoresArchived, err := a.blobArchiver.ArchiveScores(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("archiving scores before %v: %w", cutoff, err)
	}

	attrs := []slog.Attr{
		slog.Int64("snapshots_archived", snapshotsArchived),
		slog.Int64("scores_archived", scoresArchived),
	}
	if inv, err := a.blobArchiver.Inventory(ctx); err != nil {
		a.logger.Warn("archive inventory unavailable", slog.String("error", err.Error()))
	} else {
		attrs = append(attrs,
			slog.Int("stored_objects", inv.Objects),
			slog.Int64("stored_bytes", inv.Bytes),
		)
	}
	a.logger.LogAttrs(ctx, slog.LevelInfo, "archive run complete", attrs...)
	return nil
}

// RunLoop runs the archiver on a repeating interval until the context is
// cancelled.
func (a *Archiver) RunLoop(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("archive loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := a.Run(ctx); err != nil {
				a.logger.Error("archive run failed", slog.String("error", err.Error()))
			}
		}
	}
}
