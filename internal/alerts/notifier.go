package alerts

import (
	"context"
	"log/slog"

	"github.com/voyagehq/gatekeeper/internal/models"
)

// Notifier delivers critical alerts out of band.
type Notifier interface {
	Notify(ctx context.Context, alert *models.Alert) error
}

// LogNotifier writes critical alerts to the structured log. It is the
// default delivery channel when no email transport is configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a log-backed notifier
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the alert at error level
func (n *LogNotifier) Notify(_ context.Context, alert *models.Alert) error {
	n.logger.Error("critical alert",
		slog.String("alert_id", alert.ID),
		slog.String("rule_id", alert.RuleID),
		slog.String("rule_name", alert.RuleName),
		slog.String("severity", string(alert.Severity)),
		slog.String("message", alert.Message),
	)
	return nil
}
