package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/voyagehq/gatekeeper/internal/detect"
	"github.com/voyagehq/gatekeeper/internal/events"
	"github.com/voyagehq/gatekeeper/internal/metrics"
	"github.com/voyagehq/gatekeeper/internal/models"
	pkghttp "github.com/voyagehq/gatekeeper/pkg/http"
)

// maxInspectedBody bounds how much of the request body the inspector
// reads. Larger bodies are inspected up to this prefix; the full body
// still reaches the handler.
const maxInspectedBody = 64 * 1024

// ThreatInspection screens request input before it reaches handlers.
// XSS and SQL injection payloads terminate the request with a generic
// 400 that never reflects the payload. Suspicious client signatures are
// recorded but the request proceeds; blocking on user-agent alone would
// break legitimate API clients.
func ThreatInspection(detector detect.ThreatDetector, class models.RouteClass, recorder *events.Recorder, ipConfig *pkghttp.IPConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := pkghttp.ClientIdentity(r, ipConfig)
			userAgent := r.UserAgent()

			if detector.LooksSuspicious(identity, userAgent) {
				recorder.Record(r.Context(), events.NewEvent{
					Type:      models.EventSuspiciousActivity,
					Severity:  models.SeverityLow,
					Source:    r.URL.Path,
					Identity:  identity,
					UserAgent: userAgent,
					Details:   map[string]string{"reason": "client_signature"},
				})
			}

			inspected := collectInput(r)
			for _, text := range inspected {
				if detector.LooksLikeXSS(text) {
					deny(w, r, recorder, class, identity, models.EventXSSAttempt, models.SeverityHigh, text)
					return
				}
				if detector.LooksLikeSQLInjection(text) {
					deny(w, r, recorder, class, identity, models.EventSQLInjection, models.SeverityCritical, text)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// collectInput gathers the request strings worth inspecting: every query
// parameter value and the leading slice of the body. The body is
// restored so handlers can read it normally.
func collectInput(r *http.Request) []string {
	inputs := make([]string, 0, 4)

	for _, values := range r.URL.Query() {
		inputs = append(inputs, values...)
	}

	if r.Body != nil && r.Body != http.NoBody {
		prefix, err := io.ReadAll(io.LimitReader(r.Body, maxInspectedBody))
		if err == nil && len(prefix) > 0 {
			rest := r.Body
			r.Body = struct {
				io.Reader
				io.Closer
			}{io.MultiReader(bytes.NewReader(prefix), rest), rest}
			inputs = append(inputs, string(prefix))
		}
	}

	return inputs
}

func deny(w http.ResponseWriter, r *http.Request, recorder *events.Recorder, class models.RouteClass,
	identity string, eventType models.EventType, severity models.Severity, payload string) {

	metrics.RequestsDenied.WithLabelValues("threat", string(class)).Inc()
	recorder.Record(r.Context(), events.NewEvent{
		Type:      eventType,
		Severity:  severity,
		Source:    r.URL.Path,
		Identity:  identity,
		UserAgent: r.UserAgent(),
		Details: map[string]string{
			"excerpt": detect.Excerpt(payload),
			"method":  r.Method,
		},
	})

	pkghttp.WriteInvalidInput(w)
}
