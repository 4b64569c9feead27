package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/voyagehq/gatekeeper/internal/auth"
	"github.com/voyagehq/gatekeeper/internal/detect"
	"github.com/voyagehq/gatekeeper/internal/events"
	"github.com/voyagehq/gatekeeper/internal/handlers"
	"github.com/voyagehq/gatekeeper/internal/middleware"
	"github.com/voyagehq/gatekeeper/internal/models"
	"github.com/voyagehq/gatekeeper/internal/ratelimit"
	pkghttp "github.com/voyagehq/gatekeeper/pkg/http"
)

// Dependencies carries everything the route tree needs
type Dependencies struct {
	Limiter     *ratelimit.Limiter
	Recorder    *events.Recorder
	Detector    detect.ThreatDetector
	CSRFManager *auth.CSRFTokenManager
	IPConfig    *pkghttp.IPConfig

	CSRFHandler      *handlers.CSRFHandler
	TwoFactorHandler *handlers.TwoFactorHandler
	SecurityHandler  *handlers.SecurityHandler
	DemoHandler      *handlers.DemoLoginHandler

	Logger *slog.Logger
}

// RegisterRoutes registers all application routes. Each route class gets
// its own protection chain: rate limit, then input inspection, then
// CSRF validation on state-changing methods.
func RegisterRoutes(router chi.Router, deps Dependencies) {
	protect := func(class models.RouteClass) []func(http.Handler) http.Handler {
		return []func(http.Handler) http.Handler{
			middleware.RateLimitByClass(deps.Limiter, class, deps.Recorder, deps.IPConfig),
			middleware.ThreatInspection(deps.Detector, class, deps.Recorder, deps.IPConfig),
			middleware.CSRFProtection(deps.CSRFManager, class, deps.Logger),
		}
	}

	router.Route("/api/v1", func(r chi.Router) {
		// Token issuance sits in the general class; GET is exempt from
		// CSRF validation by method.
		r.Group(func(r chi.Router) {
			r.Use(protect(models.RouteGeneral)...)
			r.Get("/csrf-token", deps.CSRFHandler.GetToken)
		})

		// Login-class endpoints carry a coarse per-IP ceiling on top of
		// the application limiter, so a flood is shed before it reaches
		// the pipeline at all.
		r.Group(func(r chi.Router) {
			r.Use(httprate.Limit(30, time.Minute, httprate.WithKeyByRealIP()))
			r.Use(protect(models.RouteLogin)...)

			r.Post("/2fa/enroll", deps.TwoFactorHandler.Enroll)
			r.Post("/2fa/verify", deps.TwoFactorHandler.Verify)
			r.Post("/demo/login", deps.DemoHandler.Login)
		})

		// Admin observability surface
		r.Group(func(r chi.Router) {
			r.Use(protect(models.RouteAdmin)...)

			r.Get("/security/dashboard", deps.SecurityHandler.Dashboard)
			r.Get("/security/events", deps.SecurityHandler.Events)
			r.Get("/security/alerts", deps.SecurityHandler.Alerts)
			r.Post("/security/alerts/{id}/acknowledge", deps.SecurityHandler.AcknowledgeAlert)
			r.Post("/security/alerts/{id}/resolve", deps.SecurityHandler.ResolveAlert)
		})
	})
}
