package alerts

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voyagehq/gatekeeper/internal/events"
	"github.com/voyagehq/gatekeeper/internal/metrics"
	"github.com/voyagehq/gatekeeper/internal/models"
	pkglogger "github.com/voyagehq/gatekeeper/pkg/logger"
)

// Engine evaluates alert rules against the event store. It consumes
// every recorded event, so rule windows are re-checked exactly when
// their contents change. Alert state is kept in memory alongside the
// event store; both share the process lifetime.
type Engine struct {
	mu        sync.Mutex
	store     *events.Store
	rules     []models.AlertRule
	alerts    []*models.Alert // oldest first
	byID      map[string]*models.Alert
	notifiers []Notifier
	seclog    *pkglogger.SecurityLogger
	logger    *slog.Logger
	now       func() time.Time
}

// NewEngine creates an alert engine over the given store and rule set
func NewEngine(store *events.Store, rules []models.AlertRule, seclog *pkglogger.SecurityLogger, logger *slog.Logger) *Engine {
	return &Engine{
		store:  store,
		rules:  rules,
		alerts: make([]*models.Alert, 0),
		byID:   make(map[string]*models.Alert),
		seclog: seclog,
		logger: logger,
		now:    time.Now,
	}
}

// AddNotifier registers an out-of-band channel for critical alerts.
// Wire notifiers at startup, before events flow.
func (e *Engine) AddNotifier(n Notifier) {
	e.notifiers = append(e.notifiers, n)
}

// Consume implements events.Sink. Each recorded event triggers one
// evaluation pass over the enabled rules.
func (e *Engine) Consume(ctx context.Context, event *models.SecurityEvent) {
	var critical []*models.Alert

	e.mu.Lock()
	for i := range e.rules {
		rule := &e.rules[i]
		if !rule.Enabled {
			continue
		}
		recent := e.store.Recent(rule.TimeWindow)
		if !rule.Predicate(recent) {
			continue
		}

		alert := &models.Alert{
			ID:       uuid.NewString(),
			RuleID:   rule.ID,
			RuleName: rule.Name,
			Severity: rule.Severity,
			Message: fmt.Sprintf("%s within %s, most recently %s from %s",
				rule.Name, rule.TimeWindow, event.Type, pkglogger.MaskedIdentity(event.Identity)),
			Timestamp: e.now(),
		}
		e.alerts = append(e.alerts, alert)
		e.byID[alert.ID] = alert

		metrics.AlertsTriggered.WithLabelValues(rule.ID, string(rule.Severity)).Inc()
		e.seclog.LogAlert(alert)

		if alert.Severity == models.SeverityCritical {
			critical = append(critical, alert)
		}
	}
	e.mu.Unlock()

	// Notification happens off the recording path. The request that
	// produced the event must not wait on email transport.
	for _, alert := range critical {
		go e.notify(context.WithoutCancel(ctx), alert)
	}
}

func (e *Engine) notify(ctx context.Context, alert *models.Alert) {
	for _, n := range e.notifiers {
		if err := n.Notify(ctx, alert); err != nil {
			e.logger.Error("alert notification failed",
				slog.String("alert_id", alert.ID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// Acknowledge marks an open alert as seen by an operator. Acknowledging
// a resolved alert is rejected: the lifecycle is one-way.
func (e *Engine) Acknowledge(id string) (*models.Alert, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	alert, ok := e.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if alert.Resolved {
		return nil, models.ErrConflict
	}

	alert.Acknowledged = true
	return cloneAlert(alert), nil
}

// Resolve closes an alert. Resolving an already resolved alert is a
// no-op, not an error.
func (e *Engine) Resolve(id string) (*models.Alert, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	alert, ok := e.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}

	alert.Resolved = true
	return cloneAlert(alert), nil
}

// List returns up to limit alerts, newest first. A non-positive limit
// returns everything.
func (e *Engine) List(limit int) []*models.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := len(e.alerts)
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]*models.Alert, 0, n)
	for i := len(e.alerts) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, cloneAlert(e.alerts[i]))
	}
	return out
}

// Recent returns alerts raised within the window, newest first
func (e *Engine) Recent(window time.Duration) []*models.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	cutoff := e.now().Add(-window)
	out := make([]*models.Alert, 0)
	for i := len(e.alerts) - 1; i >= 0; i-- {
		if e.alerts[i].Timestamp.Before(cutoff) {
			break
		}
		out = append(out, cloneAlert(e.alerts[i]))
	}
	return out
}

// cloneAlert copies alert state so callers never share the engine's
// mutable records.
func cloneAlert(a *models.Alert) *models.Alert {
	copied := *a
	return &copied
}
