package logger

import (
	"context"
	"log/slog"
	"time"

	"github.com/voyagehq/gatekeeper/internal/models"
)

// SecurityLogger emits the structured security log stream. Every
// detection path writes here in addition to the event store, so the log
// alone reconstructs the full picture.
type SecurityLogger struct {
	logger *slog.Logger
}

// NewSecurityLogger creates a new security logger
func NewSecurityLogger(logger *slog.Logger) *SecurityLogger {
	return &SecurityLogger{
		logger: logger,
	}
}

// LogEvent logs a recorded security event
func (sl *SecurityLogger) LogEvent(event *models.SecurityEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "security_event"),
		slog.String("event_id", event.ID),
		slog.String("event_type", string(event.Type)),
		slog.String("severity", string(event.Severity)),
		slog.String("source", event.Source),
		slog.String("timestamp", event.Timestamp.UTC().Format(time.RFC3339)),
	}

	if event.Identity != "" {
		attrs = append(attrs, slog.String("identity", MaskedIdentity(event.Identity)))
	}
	if event.UserAgent != "" {
		attrs = append(attrs, slog.String("user_agent", event.UserAgent))
	}
	for key, val := range event.Details {
		attrs = append(attrs, slog.String(key, val))
	}

	level := slog.LevelInfo
	switch event.Severity {
	case models.SeverityHigh:
		level = slog.LevelWarn
	case models.SeverityCritical:
		level = slog.LevelError
	}

	sl.logger.LogAttrs(context.Background(), level, "security_event", attrs...)
}

// LogAlert logs a materialized alert. CRITICAL alerts use the error
// level so they surface through log-based paging immediately.
func (sl *SecurityLogger) LogAlert(alert *models.Alert) {
	attrs := []slog.Attr{
		slog.String("audit_type", "alert"),
		slog.String("alert_id", alert.ID),
		slog.String("rule_id", alert.RuleID),
		slog.String("severity", string(alert.Severity)),
		slog.String("message", alert.Message),
		slog.String("timestamp", alert.Timestamp.UTC().Format(time.RFC3339)),
	}

	level := slog.LevelWarn
	if alert.Severity == models.SeverityCritical {
		level = slog.LevelError
	}

	sl.logger.LogAttrs(context.Background(), level, "security_alert", attrs...)
}
