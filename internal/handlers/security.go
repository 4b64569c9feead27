package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/voyagehq/gatekeeper/internal/alerts"
	"github.com/voyagehq/gatekeeper/internal/events"
	"github.com/voyagehq/gatekeeper/internal/models"
	pkghttp "github.com/voyagehq/gatekeeper/pkg/http"
)

const (
	dashboardWindow   = 24 * time.Hour
	defaultAlertLimit = 50
)

// SecurityHandler serves the security observability surface: dashboard
// aggregates, event queries, and the alert lifecycle.
type SecurityHandler struct {
	store  *events.Store
	engine *alerts.Engine
	logger *slog.Logger
}

// NewSecurityHandler creates a security handler
func NewSecurityHandler(store *events.Store, engine *alerts.Engine, logger *slog.Logger) *SecurityHandler {
	return &SecurityHandler{
		store:  store,
		engine: engine,
		logger: logger,
	}
}

// Dashboard handles GET /security/dashboard
func (h *SecurityHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats := h.store.Aggregate(dashboardWindow)
	stats.RecentAlerts = h.engine.Recent(dashboardWindow)

	pkghttp.WriteJSON(w, http.StatusOK, stats)
}

// Events handles GET /security/events with optional since, type,
// severity, and identity query filters. The default window is the
// dashboard's 24 hours.
func (h *SecurityHandler) Events(w http.ResponseWriter, r *http.Request) {
	filter := models.EventFilter{
		Since:    time.Now().Add(-dashboardWindow),
		Type:     models.EventType(r.URL.Query().Get("type")),
		Severity: models.Severity(r.URL.Query().Get("severity")),
		Identity: r.URL.Query().Get("identity"),
	}

	if raw := r.URL.Query().Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			pkghttp.WriteBadRequest(w, "since must be an RFC3339 timestamp")
			return
		}
		filter.Since = since
	}

	matched := h.store.Query(filter)
	pkghttp.WriteJSON(w, http.StatusOK, EventListResponse{
		Events: matched,
		Count:  len(matched),
	})
}

// Alerts handles GET /security/alerts
func (h *SecurityHandler) Alerts(w http.ResponseWriter, r *http.Request) {
	listed := h.engine.List(defaultAlertLimit)
	pkghttp.WriteJSON(w, http.StatusOK, AlertListResponse{
		Alerts: listed,
		Count:  len(listed),
	})
}

// AcknowledgeAlert handles POST /security/alerts/{id}/acknowledge
func (h *SecurityHandler) AcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	alert, err := h.engine.Acknowledge(id)
	if err != nil {
		h.writeLifecycleError(w, id, "acknowledge", err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, alert)
}

// ResolveAlert handles POST /security/alerts/{id}/resolve
func (h *SecurityHandler) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	alert, err := h.engine.Resolve(id)
	if err != nil {
		h.writeLifecycleError(w, id, "resolve", err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, alert)
}

func (h *SecurityHandler) writeLifecycleError(w http.ResponseWriter, id, op string, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "Alert not found")
	case errors.Is(err, models.ErrConflict):
		pkghttp.WriteConflict(w, "Alert is already resolved")
	default:
		h.logger.Error("alert lifecycle operation failed",
			slog.String("alert_id", id),
			slog.String("operation", op),
			slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Operation failed")
	}
}
