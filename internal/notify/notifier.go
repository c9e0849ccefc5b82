// Package notify delivers liquidity alerts to operator channels. Alerts are
// dispatched to all registered senders (Telegram, Discord) and can be
// filtered by alert kind so operators receive only the events they care
// about.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/liqlens/liqlens/internal/domain"
)

// Sender is the interface that each notification channel must implement.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a human-readable identifier for the sender (e.g. "telegram").
	Name() string
}

// Notifier dispatches alerts to one or more Senders. It maintains a set of
// allowed alert kinds; NotifyAlert only forwards alerts whose kind is in the
// allowed set, while NotifyAll bypasses the filter.
type Notifier struct {
	senders []Sender
	kinds   map[domain.AlertKind]bool
	logger  *slog.Logger
}

// NewNotifier creates a Notifier that will deliver to the given senders. Only
// alerts whose kind appears in the kinds slice will be forwarded by
// NotifyAlert. If kinds is empty, all alert kinds are allowed.
func NewNotifier(senders []Sender, kinds []string, logger *slog.Logger) *Notifier {
	allowed := make(map[domain.AlertKind]bool, len(kinds))
	for _, k := range kinds {
		allowed[domain.AlertKind(strings.TrimSpace(k))] = true
	}
	return &Notifier{
		senders: senders,
		kinds:   allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// NotifyAlert formats and sends a liquidity alert to all senders, subject to
// the configured kind filter.
func (n *Notifier) NotifyAlert(ctx context.Context, alert domain.Alert) error {
	if len(n.kinds) > 0 && !n.kinds[alert.Kind] {
		n.logger.DebugContext(ctx, "alert kind filtered out",
			slog.String("kind", string(alert.Kind)),
		)
		return nil
	}

	return n.dispatch(ctx, alertTitle(alert), alert.Message)
}

// NotifyAll sends a notification to all senders regardless of the kind filter.
func (n *Notifier) NotifyAll(ctx context.Context, title, message string) error {
	return n.dispatch(ctx, title, message)
}

func alertTitle(alert domain.Alert) string {
	switch alert.Kind {
	case domain.AlertGradeChange:
		return fmt.Sprintf("Liquidity grade %s -> %s (%s)", alert.PrevGrade, alert.NewGrade, alert.MarketID)
	case domain.AlertSizeCollapse:
		return fmt.Sprintf("Safe order size collapsed (%s)", alert.MarketID)
	case domain.AlertBookOneSided:
		return fmt.Sprintf("Book went one-sided (%s)", alert.MarketID)
	default:
		return fmt.Sprintf("Liquidity alert (%s)", alert.MarketID)
	}
}

// dispatch iterates over all senders and sends the notification. Errors from
// individual senders are collected and returned as a combined error; a single
// sender failure does not prevent delivery to the remaining senders.
func (n *Notifier) dispatch(ctx context.Context, title, message string) error {
	if len(n.senders) == 0 {
		return nil
	}

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
		} else {
			n.logger.DebugContext(ctx, "notification sent",
				slog.String("sender", s.Name()),
				slog.String("title", title),
			)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}
