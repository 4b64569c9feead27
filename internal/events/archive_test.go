package events

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyagehq/gatekeeper/internal/models"
)

type memoryWriter struct {
	mu     sync.Mutex
	events []*models.SecurityEvent
}

func (w *memoryWriter) Create(_ context.Context, event *models.SecurityEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.events = append(w.events, event)
	return nil
}

func (w *memoryWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.events)
}

func TestArchiveWritesBufferedEvents(t *testing.T) {
	writer := &memoryWriter{}
	archive := NewArchive(writer, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		archive.Run(ctx)
		close(done)
	}()

	for i := 0; i < 5; i++ {
		archive.Consume(context.Background(), &models.SecurityEvent{
			ID:        string(rune('a' + i)),
			Type:      models.EventRateLimit,
			Severity:  models.SeverityMedium,
			Timestamp: time.Now(),
		})
	}

	require.Eventually(t, func() bool { return writer.count() == 5 },
		2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestArchiveDrainsOnShutdown(t *testing.T) {
	writer := &memoryWriter{}
	archive := NewArchive(writer, slog.New(slog.NewTextHandler(io.Discard, nil)))

	// Buffer events before the run loop starts, then cancel immediately.
	// The shutdown drain must still flush them.
	for i := 0; i < 3; i++ {
		archive.Consume(context.Background(), &models.SecurityEvent{
			ID:        string(rune('a' + i)),
			Type:      models.EventXSSAttempt,
			Severity:  models.SeverityHigh,
			Timestamp: time.Now(),
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	archive.Run(ctx)

	assert.Equal(t, 3, writer.count())
}
