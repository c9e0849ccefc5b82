package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/liqlens/liqlens/internal/domain"
)

type fakeSender struct {
	name   string
	err    error
	titles []string
}

func (f *fakeSender) Send(_ context.Context, title, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.titles = append(f.titles, title)
	return nil
}

func (f *fakeSender) Name() string { return f.name }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func gradeAlert() domain.Alert {
	return domain.Alert{
		ID:        "a1",
		MarketID:  "m1",
		Kind:      domain.AlertGradeChange,
		PrevGrade: domain.GradeLiquid,
		NewGrade:  domain.GradeThin,
		Message:   "grade moved",
	}
}

func TestNotifyAlertDispatchesToAllSenders(t *testing.T) {
	a := &fakeSender{name: "telegram"}
	b := &fakeSender{name: "discord"}
	n := NewNotifier([]Sender{a, b}, nil, testLogger())

	if err := n.NotifyAlert(context.Background(), gradeAlert()); err != nil {
		t.Fatalf("NotifyAlert: %v", err)
	}
	if len(a.titles) != 1 || len(b.titles) != 1 {
		t.Fatalf("sends = %d/%d, want 1/1", len(a.titles), len(b.titles))
	}
	if !strings.Contains(a.titles[0], "liquid -> thin") {
		t.Errorf("title %q missing grade transition", a.titles[0])
	}
}

func TestNotifyAlertKindFilter(t *testing.T) {
	s := &fakeSender{name: "telegram"}
	n := NewNotifier([]Sender{s}, []string{"size_collapse"}, testLogger())

	if err := n.NotifyAlert(context.Background(), gradeAlert()); err != nil {
		t.Fatalf("NotifyAlert: %v", err)
	}
	if len(s.titles) != 0 {
		t.Fatalf("filtered kind was delivered: %v", s.titles)
	}

	collapse := gradeAlert()
	collapse.Kind = domain.AlertSizeCollapse
	if err := n.NotifyAlert(context.Background(), collapse); err != nil {
		t.Fatalf("NotifyAlert: %v", err)
	}
	if len(s.titles) != 1 {
		t.Fatalf("allowed kind was not delivered")
	}
}

func TestNotifyAllBypassesFilter(t *testing.T) {
	s := &fakeSender{name: "discord"}
	n := NewNotifier([]Sender{s}, []string{"size_collapse"}, testLogger())

	if err := n.NotifyAll(context.Background(), "startup", "monitoring 3 markets"); err != nil {
		t.Fatalf("NotifyAll: %v", err)
	}
	if len(s.titles) != 1 {
		t.Fatalf("NotifyAll did not deliver")
	}
}

func TestDispatchContinuesPastFailedSender(t *testing.T) {
	bad := &fakeSender{name: "telegram", err: errors.New("api down")}
	good := &fakeSender{name: "discord"}
	n := NewNotifier([]Sender{bad, good}, nil, testLogger())

	err := n.NotifyAlert(context.Background(), gradeAlert())
	if err == nil {
		t.Fatal("expected combined error from failed sender")
	}
	if !strings.Contains(err.Error(), "telegram") {
		t.Errorf("error %q does not name the failed sender", err)
	}
	if len(good.titles) != 1 {
		t.Errorf("healthy sender skipped after failure")
	}
}

func TestNotifierNoSenders(t *testing.T) {
	n := NewNotifier(nil, nil, testLogger())
	if err := n.NotifyAlert(context.Background(), gradeAlert()); err != nil {
		t.Fatalf("NotifyAlert with no senders: %v", err)
	}
}
