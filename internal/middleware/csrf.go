package middleware

import (
	"log/slog"
	"net/http"

	"github.com/voyagehq/gatekeeper/internal/auth"
	"github.com/voyagehq/gatekeeper/internal/metrics"
	"github.com/voyagehq/gatekeeper/internal/models"
	pkghttp "github.com/voyagehq/gatekeeper/pkg/http"
)

// CSRFProtection validates CSRF tokens on state-changing requests.
// Safe methods (GET, HEAD, OPTIONS) pass through untouched. The token is
// read from the X-CSRF-Token header first, then the csrf_token cookie.
func CSRFProtection(csrfManager *auth.CSRFTokenManager, class models.RouteClass, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isStateChangingMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			csrfToken := r.Header.Get("X-CSRF-Token")
			if csrfToken == "" {
				if cookie, err := r.Cookie("csrf_token"); err == nil {
					csrfToken = cookie.Value
				}
			}

			if csrfToken == "" {
				logger.Warn("CSRF token missing",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path))
				metrics.RequestsDenied.WithLabelValues("csrf_missing", string(class)).Inc()
				pkghttp.WriteForbidden(w, "CSRF token missing")
				return
			}

			if !csrfManager.Validate(csrfToken) {
				logger.Warn("CSRF token validation failed",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path))
				metrics.RequestsDenied.WithLabelValues("csrf_invalid", string(class)).Inc()
				pkghttp.WriteForbidden(w, "CSRF token invalid")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// isStateChangingMethod checks if the HTTP method modifies state
func isStateChangingMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		return true
	default:
		return false
	}
}
