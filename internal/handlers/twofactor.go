package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/voyagehq/gatekeeper/internal/auth"
	"github.com/voyagehq/gatekeeper/internal/bruteforce"
	"github.com/voyagehq/gatekeeper/internal/metrics"
	"github.com/voyagehq/gatekeeper/internal/models"
	pkghttp "github.com/voyagehq/gatekeeper/pkg/http"
)

// TwoFactorHandler handles TOTP enrollment and verification.
// Verification failures feed the same lockout accounting as password
// failures, so an attacker cannot grind codes freely.
type TwoFactorHandler struct {
	twoFactor *auth.TwoFactorManager
	guard     *bruteforce.Guard
	ipConfig  *pkghttp.IPConfig
	logger    *slog.Logger
}

// NewTwoFactorHandler creates a two-factor handler
func NewTwoFactorHandler(twoFactor *auth.TwoFactorManager, guard *bruteforce.Guard, ipConfig *pkghttp.IPConfig, logger *slog.Logger) *TwoFactorHandler {
	return &TwoFactorHandler{
		twoFactor: twoFactor,
		guard:     guard,
		ipConfig:  ipConfig,
		logger:    logger,
	}
}

// Enroll handles POST /2fa/enroll
func (h *TwoFactorHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	var req EnrollTwoFactorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	enrollment, err := h.twoFactor.Enroll(req.UserID)
	if err != nil {
		h.logger.Error("failed to enroll two-factor secret", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Enrollment failed")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, EnrollTwoFactorResponse{
		Secret:          enrollment.Secret,
		ProvisioningURI: enrollment.ProvisioningURI,
		QRCode:          enrollment.QRCode,
	})
}

// Verify handles POST /2fa/verify. A locked identity is refused before
// the code is even examined.
func (h *TwoFactorHandler) Verify(w http.ResponseWriter, r *http.Request) {
	identity := pkghttp.ClientIdentity(r, h.ipConfig)

	allowed, retryAfter := h.guard.BeforeAttempt(identity)
	if !allowed {
		metrics.RequestsDenied.WithLabelValues("lockout", string(models.RouteLogin)).Inc()
		pkghttp.WriteRetryable(w, "account_locked",
			"Too many failed attempts, try again later", retryAfter)
		return
	}

	var req VerifyTwoFactorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	valid, err := h.twoFactor.Verify(req.UserID, req.Code)
	if err != nil && !errors.Is(err, models.ErrTwoFactorNotEnrolled) {
		h.logger.Error("two-factor verification error", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Verification failed")
		return
	}

	if !valid {
		// Covers wrong codes and unenrolled users alike: the response
		// never reveals enrollment state.
		h.guard.RecordFailure(r.Context(), identity, r.UserAgent(), r.URL.Path)
		pkghttp.WriteError(w, http.StatusUnauthorized, "two_factor_invalid", "Invalid code")
		return
	}

	h.guard.RecordSuccess(identity)
	pkghttp.WriteJSON(w, http.StatusOK, VerifyTwoFactorResponse{Verified: true})
}
