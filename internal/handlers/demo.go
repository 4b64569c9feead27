package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/voyagehq/gatekeeper/internal/bruteforce"
	"github.com/voyagehq/gatekeeper/internal/metrics"
	"github.com/voyagehq/gatekeeper/internal/models"
	pkghttp "github.com/voyagehq/gatekeeper/pkg/http"
)

// AuthenticateFunc checks a credential pair. The protection layer does
// not own accounts; the embedding application supplies the check.
type AuthenticateFunc func(username, password string) bool

// DemoLoginHandler is a login-class endpoint that exercises the full
// lockout pipeline: pre-attempt gate, failure accounting, reset on
// success.
type DemoLoginHandler struct {
	guard        *bruteforce.Guard
	authenticate AuthenticateFunc
	ipConfig     *pkghttp.IPConfig
	logger       *slog.Logger
}

// NewDemoLoginHandler creates a demo login handler
func NewDemoLoginHandler(guard *bruteforce.Guard, authenticate AuthenticateFunc, ipConfig *pkghttp.IPConfig, logger *slog.Logger) *DemoLoginHandler {
	return &DemoLoginHandler{
		guard:        guard,
		authenticate: authenticate,
		ipConfig:     ipConfig,
		logger:       logger,
	}
}

// Login handles POST /demo/login
func (h *DemoLoginHandler) Login(w http.ResponseWriter, r *http.Request) {
	identity := pkghttp.ClientIdentity(r, h.ipConfig)

	allowed, retryAfter := h.guard.BeforeAttempt(identity)
	if !allowed {
		metrics.RequestsDenied.WithLabelValues("lockout", string(models.RouteLogin)).Inc()
		pkghttp.WriteRetryable(w, "account_locked",
			"Too many failed attempts, try again later", retryAfter)
		return
	}

	var req DemoLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if !h.authenticate(req.Username, req.Password) {
		h.guard.RecordFailure(r.Context(), identity, r.UserAgent(), r.URL.Path)
		pkghttp.WriteUnauthorized(w, "Invalid credentials")
		return
	}

	h.guard.RecordSuccess(identity)
	pkghttp.WriteJSON(w, http.StatusOK, DemoLoginResponse{Authenticated: true})
}
