package handlers

import (
	"io"
	"log/slog"
	"time"

	"github.com/voyagehq/gatekeeper/internal/alerts"
	"github.com/voyagehq/gatekeeper/internal/bruteforce"
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

func newTestGuard(recorder *events.Recorder) *bruteforce.Guard {
	return bruteforce.NewGuard(bruteforce.Config{
		MaxFailures:     5,
		LockoutDuration: 15 * time.Minute,
		AttemptWindow:   15 * time.Minute,
	}, recorder, discardLogger())
}

func newTestEngine(store *events.Store) *alerts.Engine {
	return alerts.NewEngine(store, alerts.DefaultRules(),
		pkglogger.NewSecurityLogger(discardLogger()), discardLogger())
}
