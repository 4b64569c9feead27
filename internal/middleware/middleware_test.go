package middleware

import (
	"io"
	"log/slog"
	"time"

	"github.com/voyagehq/gatekeeper/internal/events"
	pkglogger "github.com/voyagehq/gatekeeper/pkg/logger"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRecorder() *events.Recorder {
	store := events.NewStore(7 * 24 * time.Hour)
	return events.NewRecorder(store, pkglogger.NewSecurityLogger(discardLogger()), discardLogger())
}
