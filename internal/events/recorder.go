package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/voyagehq/gatekeeper/internal/metrics"
	"github.com/voyagehq/gatekeeper/internal/models"
	pkglogger "github.com/voyagehq/gatekeeper/pkg/logger"
)

// Sink receives every recorded event after it has been appended to the
// store. Sinks must not block: slow consumers buffer internally.
type Sink interface {
	Consume(ctx context.Context, event *models.SecurityEvent)
}

// NewEvent carries the caller-supplied fields of a security event.
// ID and timestamp are assigned by the recorder.
type NewEvent struct {
	Type      models.EventType
	Severity  models.Severity
	Source    string
	Identity  string
	UserAgent string
	Details   map[string]string
}

// Recorder is the single entry point for creating security events.
// Dual-write: the structured security log gets every event immediately,
// the in-memory store retains it for querying, and sinks (alert engine,
// durable archive) are fanned out to afterwards.
type Recorder struct {
	store  *Store
	seclog *pkglogger.SecurityLogger
	sinks  []Sink
	logger *slog.Logger
}

// NewRecorder creates an event recorder over the given store
func NewRecorder(store *Store, seclog *pkglogger.SecurityLogger, logger *slog.Logger) *Recorder {
	return &Recorder{
		store:  store,
		seclog: seclog,
		logger: logger,
	}
}

// AddSink registers a downstream consumer. Not safe to call after the
// recorder is in use; wire sinks at startup.
func (r *Recorder) AddSink(sink Sink) {
	r.sinks = append(r.sinks, sink)
}

// Record materializes and stores a security event, then notifies sinks.
func (r *Recorder) Record(ctx context.Context, ev NewEvent) *models.SecurityEvent {
	event := &models.SecurityEvent{
		ID:        uuid.NewString(),
		Type:      ev.Type,
		Severity:  ev.Severity,
		Source:    ev.Source,
		Identity:  ev.Identity,
		UserAgent: ev.UserAgent,
		Timestamp: time.Now(),
		Details:   ev.Details,
	}

	r.store.Append(event)
	r.seclog.LogEvent(event)
	metrics.SecurityEvents.WithLabelValues(string(event.Type), string(event.Severity)).Inc()

	for _, sink := range r.sinks {
		sink.Consume(ctx, event)
	}

	return event
}

// Store exposes the underlying store for query consumers
func (r *Recorder) Store() *Store {
	return r.store
}
