package handlers

import (
	"log/slog"
	"net/http"

	"github.com/voyagehq/gatekeeper/internal/auth"
	pkghttp "github.com/voyagehq/gatekeeper/pkg/http"
)

// CSRFHandler issues CSRF tokens bound to the caller's session
type CSRFHandler struct {
	sessions *auth.SessionManager
	csrf     *auth.CSRFTokenManager
	cookie   auth.CookieConfig
	logger   *slog.Logger
}

// NewCSRFHandler creates a CSRF token handler
func NewCSRFHandler(sessions *auth.SessionManager, csrf *auth.CSRFTokenManager, cookie auth.CookieConfig, logger *slog.Logger) *CSRFHandler {
	return &CSRFHandler{
		sessions: sessions,
		csrf:     csrf,
		cookie:   cookie,
		logger:   logger,
	}
}

// GetToken handles GET /csrf-token. A fresh token supersedes any prior
// token for the same session; the value is returned in the body and
// mirrored into the readable csrf_token cookie for the double-submit
// pattern.
func (h *CSRFHandler) GetToken(w http.ResponseWriter, r *http.Request) {
	sessionID, err := h.sessions.EnsureSession(w, r)
	if err != nil {
		h.logger.Error("failed to establish session", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Could not establish session")
		return
	}

	token, expiresAt, err := h.csrf.Issue(sessionID)
	if err != nil {
		h.logger.Error("failed to issue CSRF token", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Could not issue token")
		return
	}

	auth.SetCSRFTokenCookie(w, token, int(h.csrf.TokenTTL().Seconds()), h.cookie)

	pkghttp.WriteJSON(w, http.StatusOK, CSRFTokenResponse{
		CSRFToken: token,
		ExpiresAt: expiresAt,
	})
}
