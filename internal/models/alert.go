package models

import "time"

// AlertRule is a condition over a window of recent security events.
// Rules are configuration: nothing but Enabled changes at runtime.
type AlertRule struct {
	ID         string
	Name       string
	TimeWindow time.Duration
	Severity   Severity
	Enabled    bool

	// Predicate is evaluated over the events recorded within TimeWindow,
	// newest last. It must not retain or mutate the slice.
	Predicate func(events []*SecurityEvent) bool
}

// Alert is produced when a rule's predicate is satisfied.
// Lifecycle: open -> acknowledged -> resolved, one-way.
type Alert struct {
	ID           string    `json:"id"`
	RuleID       string    `json:"ruleId"`
	RuleName     string    `json:"ruleName"`
	Severity     Severity  `json:"severity"`
	Message      string    `json:"message"`
	Timestamp    time.Time `json:"timestamp"`
	Acknowledged bool      `json:"acknowledged"`
	Resolved     bool      `json:"resolved"`
}
