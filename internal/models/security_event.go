package models

import "time"

// EventType classifies a detected security occurrence
type EventType string

const (
	EventBruteForce         EventType = "BRUTE_FORCE"
	EventXSSAttempt         EventType = "XSS_ATTEMPT"
	EventSQLInjection       EventType = "SQL_INJECTION"
	EventRateLimit          EventType = "RATE_LIMIT"
	EventSuspiciousActivity EventType = "SUSPICIOUS_ACTIVITY"
	EventPaymentFraud       EventType = "PAYMENT_FRAUD"
)

// Severity ranks how urgent a security event or alert is
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// SecurityEvent is an immutable record of a single detected occurrence.
// Only the Resolved flag may change after creation.
type SecurityEvent struct {
	ID        string            `json:"id"`
	Type      EventType         `json:"type"`
	Severity  Severity          `json:"severity"`
	Source    string            `json:"source"`
	Identity  string            `json:"identity"`
	UserAgent string            `json:"userAgent,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Details   map[string]string `json:"details,omitempty"`
	Resolved  bool              `json:"resolved"`
}

// EventFilter narrows a query over the event store. Zero values mean
// "no constraint" except Since, which is always applied.
type EventFilter struct {
	Since    time.Time
	Type     EventType
	Severity Severity
	Identity string
}

// Matches reports whether the event satisfies every set filter field.
func (f EventFilter) Matches(e *SecurityEvent) bool {
	if e.Timestamp.Before(f.Since) {
		return false
	}
	if f.Type != "" && e.Type != f.Type {
		return false
	}
	if f.Severity != "" && e.Severity != f.Severity {
		return false
	}
	if f.Identity != "" && e.Identity != f.Identity {
		return false
	}
	return true
}

// DashboardStats aggregates the last 24 hours of security activity for
// the admin console dashboard.
type DashboardStats struct {
	TotalEvents      int               `json:"totalEvents"`
	EventsByType     map[EventType]int `json:"eventsByType"`
	EventsBySeverity map[Severity]int  `json:"eventsBySeverity"`
	RecentAlerts     []*Alert          `json:"recentAlerts"`
	TopOffenders     []OffenderCount   `json:"topOffendingIdentities"`
}

// OffenderCount pairs a client identity with its event count.
type OffenderCount struct {
	Identity string `json:"identity"`
	Count    int    `json:"count"`
}
