package middleware

import (
	"net/http"
	"strconv"

	"github.com/voyagehq/gatekeeper/internal/events"
	"github.com/voyagehq/gatekeeper/internal/metrics"
	"github.com/voyagehq/gatekeeper/internal/models"
	"github.com/voyagehq/gatekeeper/internal/ratelimit"
	pkghttp "github.com/voyagehq/gatekeeper/pkg/http"
)

// RateLimitByClass enforces the fixed-window budget for one route class.
// Every response carries the quota headers; denials additionally carry
// Retry-After and record a RATE_LIMIT event.
func RateLimitByClass(limiter *ratelimit.Limiter, class models.RouteClass, recorder *events.Recorder, ipConfig *pkghttp.IPConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := pkghttp.ClientIdentity(r, ipConfig)
			decision := limiter.Check(r.Context(), identity, class)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

			if !decision.Allowed {
				metrics.RequestsDenied.WithLabelValues("rate_limit", string(class)).Inc()
				recorder.Record(r.Context(), events.NewEvent{
					Type:      models.EventRateLimit,
					Severity:  models.SeverityMedium,
					Source:    r.URL.Path,
					Identity:  identity,
					UserAgent: r.UserAgent(),
					Details: map[string]string{
						"route_class": string(class),
						"limit":       strconv.Itoa(decision.Limit),
					},
				})

				pkghttp.WriteRetryable(w, "rate_limit_exceeded",
					"Too many requests, slow down", decision.RetryAfter)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
