package pipeline

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/liqlens/liqlens/internal/domain"
	"github.com/liqlens/liqlens/internal/service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeAlertStore struct {
	alerts []domain.Alert
}

func (f *fakeAlertStore) Insert(_ context.Context, alert domain.Alert) error {
	f.alerts = append(f.alerts, alert)
	return nil
}

func (f *fakeAlertStore) ListRecent(context.Context, int) ([]domain.Alert, error) {
	return f.alerts, nil
}

func (f *fakeAlertStore) ListByMarket(context.Context, string, domain.ListOpts) ([]domain.Alert, error) {
	return f.alerts, nil
}

func watcherReport(marketID string, grade domain.LiquidityGrade, hasQuote bool, maxSafeBuy int64) service.Report {
	r := service.Report{
		Market:   domain.Market{ID: marketID},
		HasQuote: hasQuote,
	}
	r.Score.Grade = grade
	r.Outcomes[0] = service.OutcomeReport{Outcome: domain.OutcomeYes, MaxSafeBuy: maxSafeBuy}
	return r
}

func newTestWatcher(store domain.AlertStore, ratio float64) *GradeWatcher {
	return NewGradeWatcher(store, nil, ratio, discardLogger())
}

func TestWatcherFirstReportOnlySeeds(t *testing.T) {
	store := &fakeAlertStore{}
	w := newTestWatcher(store, 0.5)

	w.observe(context.Background(), watcherReport("m1", domain.GradeLiquid, true, 100))
	if len(store.alerts) != 0 {
		t.Fatalf("expected no alerts on first report, got %d", len(store.alerts))
	}
}

func TestWatcherFirstReportUsesPersistedGrade(t *testing.T) {
	store := &fakeAlertStore{}
	w := newTestWatcher(store, 0.5)
	ctx := context.Background()

	// The market degraded while the watcher was down; the report carries the
	// pre-restart grade from the score history.
	r := watcherReport("m1", domain.GradeThin, true, 100)
	r.HasPrev = true
	r.PrevScore.Grade = domain.GradeLiquid
	w.observe(ctx, r)

	if len(store.alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(store.alerts))
	}
	alert := store.alerts[0]
	if alert.Kind != domain.AlertGradeChange {
		t.Errorf("kind = %s, want %s", alert.Kind, domain.AlertGradeChange)
	}
	if alert.PrevGrade != domain.GradeLiquid || alert.NewGrade != domain.GradeThin {
		t.Errorf("grades = %s -> %s, want liquid -> thin", alert.PrevGrade, alert.NewGrade)
	}

	// A matching persisted grade seeds quietly.
	r2 := watcherReport("m2", domain.GradeModerate, true, 100)
	r2.HasPrev = true
	r2.PrevScore.Grade = domain.GradeModerate
	w.observe(ctx, r2)
	if len(store.alerts) != 1 {
		t.Fatalf("expected no alert for unchanged persisted grade, got %d", len(store.alerts))
	}
}

func TestWatcherGradeChange(t *testing.T) {
	store := &fakeAlertStore{}
	w := newTestWatcher(store, 0.5)
	ctx := context.Background()

	w.observe(ctx, watcherReport("m1", domain.GradeLiquid, true, 100))
	w.observe(ctx, watcherReport("m1", domain.GradeThin, true, 100))

	if len(store.alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(store.alerts))
	}
	alert := store.alerts[0]
	if alert.Kind != domain.AlertGradeChange {
		t.Errorf("kind = %s, want %s", alert.Kind, domain.AlertGradeChange)
	}
	if alert.PrevGrade != domain.GradeLiquid || alert.NewGrade != domain.GradeThin {
		t.Errorf("grades = %s -> %s, want liquid -> thin", alert.PrevGrade, alert.NewGrade)
	}
}

func TestWatcherStableGradeIsQuiet(t *testing.T) {
	store := &fakeAlertStore{}
	w := newTestWatcher(store, 0.5)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		w.observe(ctx, watcherReport("m1", domain.GradeModerate, true, 100))
	}
	if len(store.alerts) != 0 {
		t.Fatalf("expected no alerts for stable grade, got %d", len(store.alerts))
	}
}

func TestWatcherSizeCollapse(t *testing.T) {
	store := &fakeAlertStore{}
	w := newTestWatcher(store, 0.5)
	ctx := context.Background()

	w.observe(ctx, watcherReport("m1", domain.GradeLiquid, true, 1000))
	// 600 is above half of 1000, no alert.
	w.observe(ctx, watcherReport("m1", domain.GradeLiquid, true, 600))
	if len(store.alerts) != 0 {
		t.Fatalf("expected no alert at 60%% of previous size, got %d", len(store.alerts))
	}

	// 200 is below half of 600.
	w.observe(ctx, watcherReport("m1", domain.GradeLiquid, true, 200))
	if len(store.alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(store.alerts))
	}
	if store.alerts[0].Kind != domain.AlertSizeCollapse {
		t.Errorf("kind = %s, want %s", store.alerts[0].Kind, domain.AlertSizeCollapse)
	}
}

func TestWatcherOneSidedTakesPrecedence(t *testing.T) {
	store := &fakeAlertStore{}
	w := newTestWatcher(store, 0.5)
	ctx := context.Background()

	w.observe(ctx, watcherReport("m1", domain.GradeModerate, true, 500))
	// Book goes one-sided, grade drops, and size collapses all at once; only
	// the one-sided alert should fire.
	w.observe(ctx, watcherReport("m1", domain.GradeIlliquid, false, 0))

	if len(store.alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(store.alerts))
	}
	if store.alerts[0].Kind != domain.AlertBookOneSided {
		t.Errorf("kind = %s, want %s", store.alerts[0].Kind, domain.AlertBookOneSided)
	}
}

func TestWatcherTracksMarketsIndependently(t *testing.T) {
	store := &fakeAlertStore{}
	w := newTestWatcher(store, 0.5)
	ctx := context.Background()

	w.observe(ctx, watcherReport("m1", domain.GradeLiquid, true, 100))
	// First report for m2 must not compare against m1's baseline.
	w.observe(ctx, watcherReport("m2", domain.GradeThin, true, 10))
	if len(store.alerts) != 0 {
		t.Fatalf("expected no alerts, got %d", len(store.alerts))
	}

	w.observe(ctx, watcherReport("m2", domain.GradeIlliquid, true, 10))
	if len(store.alerts) != 1 {
		t.Fatalf("expected 1 alert for m2, got %d", len(store.alerts))
	}
	if store.alerts[0].MarketID != "m2" {
		t.Errorf("market = %s, want m2", store.alerts[0].MarketID)
	}
}

func TestWatcherRunStopsOnChannelClose(t *testing.T) {
	store := &fakeAlertStore{}
	w := newTestWatcher(store, 0.5)

	in := make(chan service.Report, 2)
	in <- watcherReport("m1", domain.GradeLiquid, true, 100)
	in <- watcherReport("m1", domain.GradeThin, true, 100)
	close(in)

	if err := w.Run(context.Background(), in); err != nil {
		t.Fatalf("Run returned %v, want nil on channel close", err)
	}
	if len(store.alerts) != 1 {
		t.Errorf("expected 1 alert after drain, got %d", len(store.alerts))
	}
}

func TestWatcherInvalidCollapseRatioFallsBack(t *testing.T) {
	w := newTestWatcher(&fakeAlertStore{}, 1.7)
	if w.collapseRatio != 0.5 {
		t.Errorf("collapseRatio = %v, want 0.5", w.collapseRatio)
	}
}
