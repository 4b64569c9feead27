// Package metrics exposes Prometheus counters for the protection layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsDenied counts terminal denials by reason
	// (rate_limit, lockout, csrf_missing, csrf_invalid, threat).
	RequestsDenied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gatekeeper",
			Subsystem: "protection",
			Name:      "requests_denied_total",
			Help:      "Total requests denied by the protection pipeline",
		},
		[]string{"reason", "route_class"},
	)

	// SecurityEvents counts recorded security events
	SecurityEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gatekeeper",
			Subsystem: "protection",
			Name:      "security_events_total",
			Help:      "Total security events recorded",
		},
		[]string{"type", "severity"},
	)

	// AlertsTriggered counts alerts produced by the rule engine
	AlertsTriggered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gatekeeper",
			Subsystem: "alerting",
			Name:      "alerts_triggered_total",
			Help:      "Total alerts produced by the rule engine",
		},
		[]string{"rule", "severity"},
	)

	// ArchiveWriteFailures counts failed writes to the event archive
	ArchiveWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gatekeeper",
			Subsystem: "events",
			Name:      "archive_write_failures_total",
			Help:      "Total failed writes to the durable event archive",
		},
	)
)
