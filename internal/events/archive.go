package events

import (
	"context"
	"log/slog"

	"github.com/voyagehq/gatekeeper/internal/metrics"
	"github.com/voyagehq/gatekeeper/internal/models"
)

// EventWriter persists a single event. Satisfied by the Postgres
// repository; kept as an interface so the archive does not pull the
// database stack into this package.
type EventWriter interface {
	Create(ctx context.Context, event *models.SecurityEvent) error
}

const archiveBufferSize = 1024

// Archive is a sink that copies events to durable storage off the
// request path. Consume never blocks; when the buffer is full the event
// is dropped from the archive (the in-memory store and the log stream
// still have it) and the failure counter ticks.
type Archive struct {
	writer EventWriter
	buffer chan *models.SecurityEvent
	logger *slog.Logger
}

// NewArchive creates an archive sink over the given writer
func NewArchive(writer EventWriter, logger *slog.Logger) *Archive {
	return &Archive{
		writer: writer,
		buffer: make(chan *models.SecurityEvent, archiveBufferSize),
		logger: logger,
	}
}

// Consume implements Sink
func (a *Archive) Consume(_ context.Context, event *models.SecurityEvent) {
	select {
	case a.buffer <- event:
	default:
		metrics.ArchiveWriteFailures.Inc()
		a.logger.Warn("archive buffer full, dropping event",
			slog.String("event_id", event.ID),
			slog.String("event_type", string(event.Type)),
		)
	}
}

// Run drains the buffer until the context is cancelled. Call from a
// dedicated goroutine at startup.
func (a *Archive) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			a.drain()
			return
		case event := <-a.buffer:
			a.write(ctx, event)
		}
	}
}

// drain makes a best-effort pass over whatever is still buffered at
// shutdown. Uses a background context because the run context is gone.
func (a *Archive) drain() {
	for {
		select {
		case event := <-a.buffer:
			a.write(context.Background(), event)
		default:
			return
		}
	}
}

func (a *Archive) write(ctx context.Context, event *models.SecurityEvent) {
	if err := a.writer.Create(ctx, event); err != nil {
		metrics.ArchiveWriteFailures.Inc()
		a.logger.Error("failed to archive security event",
			slog.String("event_id", event.ID),
			slog.String("error", err.Error()),
		)
	}
}
