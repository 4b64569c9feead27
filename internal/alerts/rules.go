package alerts

import (
	"time"

	"github.com/voyagehq/gatekeeper/internal/models"
)

// countOfType counts events of a single type within an already
// window-filtered slice.
func countOfType(events []*models.SecurityEvent, eventType models.EventType) int {
	count := 0
	for _, event := range events {
		if event.Type == eventType {
			count++
		}
	}
	return count
}

// thresholdRule fires when at least min events of the given type fall
// inside the rule's window.
func thresholdRule(eventType models.EventType, min int) func([]*models.SecurityEvent) bool {
	return func(events []*models.SecurityEvent) bool {
		return countOfType(events, eventType) >= min
	}
}

// DefaultRules returns the built-in rule set. Operators can disable
// individual rules but the thresholds are fixed at startup.
func DefaultRules() []models.AlertRule {
	return []models.AlertRule{
		{
			ID:         "brute-force-surge",
			Name:       "Repeated login failures",
			TimeWindow: 15 * time.Minute,
			Severity:   models.SeverityHigh,
			Enabled:    true,
			Predicate:  thresholdRule(models.EventBruteForce, 5),
		},
		{
			ID:         "xss-probing",
			Name:       "Cross-site scripting attempts",
			TimeWindow: 10 * time.Minute,
			Severity:   models.SeverityMedium,
			Enabled:    true,
			Predicate:  thresholdRule(models.EventXSSAttempt, 3),
		},
		{
			ID:         "rate-limit-pressure",
			Name:       "Sustained rate limiting",
			TimeWindow: 5 * time.Minute,
			Severity:   models.SeverityMedium,
			Enabled:    true,
			Predicate:  thresholdRule(models.EventRateLimit, 10),
		},
		{
			ID:         "payment-fraud",
			Name:       "Payment fraud indicator",
			TimeWindow: 60 * time.Minute,
			Severity:   models.SeverityCritical,
			Enabled:    true,
			Predicate:  thresholdRule(models.EventPaymentFraud, 1),
		},
	}
}
