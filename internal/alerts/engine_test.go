package alerts

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyagehq/gatekeeper/internal/events"
	"github.com/voyagehq/gatekeeper/internal/models"
	pkglogger "github.com/voyagehq/gatekeeper/pkg/logger"
)

func newTestEngine(rules []models.AlertRule) (*Engine, *events.Store) {
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := events.NewStore(7 * 24 * time.Hour)
	return NewEngine(store, rules, pkglogger.NewSecurityLogger(discard), discard), store
}

// feed appends an event to the store and runs an evaluation pass, the
// same sequencing the recorder performs.
func feed(store *events.Store, engine *Engine, eventType models.EventType, severity models.Severity, identity string) {
	event := &models.SecurityEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Severity:  severity,
		Source:    "/admin/login",
		Identity:  identity,
		Timestamp: time.Now(),
	}
	store.Append(event)
	engine.Consume(context.Background(), event)
}

func TestBruteForceRuleFiresAtThreshold(t *testing.T) {
	engine, store := newTestEngine(DefaultRules())

	for i := 0; i < 4; i++ {
		feed(store, engine, models.EventBruteForce, models.SeverityHigh, "203.0.113.9")
	}
	assert.Empty(t, engine.List(0), "below threshold, no alert")

	feed(store, engine, models.EventBruteForce, models.SeverityHigh, "203.0.113.9")

	alerts := engine.List(0)
	require.NotEmpty(t, alerts)
	assert.Equal(t, "brute-force-surge", alerts[0].RuleID)
	assert.Equal(t, models.SeverityHigh, alerts[0].Severity)
	assert.False(t, alerts[0].Acknowledged)
	assert.False(t, alerts[0].Resolved)
}

func TestDisabledRuleNeverFires(t *testing.T) {
	rules := DefaultRules()
	for i := range rules {
		rules[i].Enabled = false
	}
	engine, store := newTestEngine(rules)

	for i := 0; i < 10; i++ {
		feed(store, engine, models.EventBruteForce, models.SeverityHigh, "203.0.113.9")
	}
	assert.Empty(t, engine.List(0))
}

func TestPaymentFraudFiresOnSingleEvent(t *testing.T) {
	engine, store := newTestEngine(DefaultRules())

	feed(store, engine, models.EventPaymentFraud, models.SeverityCritical, "203.0.113.77")

	alerts := engine.List(0)
	require.Len(t, alerts, 1)
	assert.Equal(t, "payment-fraud", alerts[0].RuleID)
	assert.Equal(t, models.SeverityCritical, alerts[0].Severity)
}

func TestEventsOutsideWindowDoNotCount(t *testing.T) {
	engine, store := newTestEngine(DefaultRules())

	// Two XSS attempts recorded 20 minutes ago sit outside the
	// 10-minute rule window.
	old := time.Now().Add(-20 * time.Minute)
	for i := 0; i < 2; i++ {
		store.Append(&models.SecurityEvent{
			ID:        uuid.NewString(),
			Type:      models.EventXSSAttempt,
			Severity:  models.SeverityHigh,
			Identity:  "203.0.113.5",
			Timestamp: old.Add(time.Duration(i) * time.Second),
		})
	}

	feed(store, engine, models.EventXSSAttempt, models.SeverityHigh, "203.0.113.5")
	assert.Empty(t, engine.List(0), "one in-window attempt is below the threshold of 3")

	feed(store, engine, models.EventXSSAttempt, models.SeverityHigh, "203.0.113.5")
	feed(store, engine, models.EventXSSAttempt, models.SeverityHigh, "203.0.113.5")
	assert.NotEmpty(t, engine.List(0))
}

func TestAcknowledgeAndResolveLifecycle(t *testing.T) {
	engine, store := newTestEngine(DefaultRules())
	feed(store, engine, models.EventPaymentFraud, models.SeverityCritical, "203.0.113.77")

	alerts := engine.List(0)
	require.Len(t, alerts, 1)
	id := alerts[0].ID

	acked, err := engine.Acknowledge(id)
	require.NoError(t, err)
	assert.True(t, acked.Acknowledged)
	assert.False(t, acked.Resolved)

	resolved, err := engine.Resolve(id)
	require.NoError(t, err)
	assert.True(t, resolved.Resolved)
	assert.True(t, resolved.Acknowledged)

	// Resolve is idempotent
	again, err := engine.Resolve(id)
	require.NoError(t, err)
	assert.True(t, again.Resolved)

	// But the lifecycle never moves backwards
	_, err = engine.Acknowledge(id)
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestLifecycleOperationsOnMissingAlertFail(t *testing.T) {
	engine, _ := newTestEngine(DefaultRules())

	_, err := engine.Acknowledge("no-such-alert")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = engine.Resolve("no-such-alert")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestListHonorsLimitAndOrder(t *testing.T) {
	engine, store := newTestEngine(DefaultRules())

	for i := 0; i < 3; i++ {
		feed(store, engine, models.EventPaymentFraud, models.SeverityCritical, "203.0.113.77")
	}

	all := engine.List(0)
	require.Len(t, all, 3)

	limited := engine.List(2)
	require.Len(t, limited, 2)
	assert.Equal(t, all[0].ID, limited[0].ID, "newest first")
	assert.Equal(t, all[1].ID, limited[1].ID)
}

type captureNotifier struct {
	mu     sync.Mutex
	alerts []*models.Alert
	done   chan struct{}
}

func (c *captureNotifier) Notify(_ context.Context, alert *models.Alert) error {
	c.mu.Lock()
	c.alerts = append(c.alerts, alert)
	c.mu.Unlock()
	select {
	case c.done <- struct{}{}:
	default:
	}
	return nil
}

func TestCriticalAlertReachesNotifier(t *testing.T) {
	engine, store := newTestEngine(DefaultRules())
	capture := &captureNotifier{done: make(chan struct{}, 1)}
	engine.AddNotifier(capture)

	feed(store, engine, models.EventPaymentFraud, models.SeverityCritical, "203.0.113.77")

	select {
	case <-capture.done:
	case <-time.After(2 * time.Second):
		t.Fatal("notifier was not invoked")
	}

	capture.mu.Lock()
	defer capture.mu.Unlock()
	require.Len(t, capture.alerts, 1)
	assert.Equal(t, models.SeverityCritical, capture.alerts[0].Severity)
}

func TestHighAlertSkipsNotifier(t *testing.T) {
	engine, store := newTestEngine(DefaultRules())
	capture := &captureNotifier{done: make(chan struct{}, 1)}
	engine.AddNotifier(capture)

	for i := 0; i < 5; i++ {
		feed(store, engine, models.EventBruteForce, models.SeverityHigh, "203.0.113.9")
	}
	require.NotEmpty(t, engine.List(0))

	select {
	case <-capture.done:
		t.Fatal("non-critical alert should not notify")
	case <-time.After(100 * time.Millisecond):
	}
}
