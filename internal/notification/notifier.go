// Package notification provides alert delivery to external channels
// (Telegram, webhooks) for scan and optimizer events.
package notification

import (
	"context"
	"fmt"
	"log"
	"strings"

	"backtest-systemv1/internal/scanner"
)

// AlertLevel represents the severity of an alert.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertWarning  AlertLevel = "WARNING"
	AlertCritical AlertLevel = "CRITICAL"
)

// Alert represents a notification to be sent.
type Alert struct {
	Level   AlertLevel `json:"level"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	// Send delivers an alert. Returns error if delivery fails.
	Send(ctx context.Context, alert Alert) error
}

// LogNotifier is a simple notifier that logs alerts (useful for development).
type LogNotifier struct{}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	log.Printf("[notify] [%s] %s: %s", alert.Level, alert.Title, alert.Message)
	return nil
}

// OpportunityAlert formats a scan's ranked hits into a single alert.
func OpportunityAlert(opps []scanner.Opportunity) Alert {
	if len(opps) == 0 {
		return Alert{
			Level:   AlertInfo,
			Title:   "Market scan",
			Message: "no opportunities above the confidence floor",
		}
	}

	var b strings.Builder
	for _, o := range opps {
		fmt.Fprintf(&b, "%s @ %.2f (confidence %.0f): %s\n",
			o.Symbol, o.Price, o.Confidence, strings.Join(o.Reasons, ", "))
	}
	return Alert{
		Level:   AlertInfo,
		Title:   fmt.Sprintf("Market scan: %d opportunities", len(opps)),
		Message: b.String(),
	}
}
