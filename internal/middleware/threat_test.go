package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyagehq/gatekeeper/internal/detect"
	"github.com/voyagehq/gatekeeper/internal/events"
	"github.com/voyagehq/gatekeeper/internal/models"
	pkghttp "github.com/voyagehq/gatekeeper/pkg/http"
)

const browserUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

func threatHandler(recorder *events.Recorder) http.Handler {
	detector := detect.NewRegexDetector(nil, 100)
	return ThreatInspection(detector, models.RouteGeneral, recorder, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
}

func TestThreatCleanRequestPasses(t *testing.T) {
	recorder := newTestRecorder()
	handler := threatHandler(recorder)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/bookings?city=barcelona&guests=2", nil)
	r.Header.Set("User-Agent", browserUA)
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, recorder.Store().Recent(time.Minute))
}

func TestThreatXSSInQueryRejected(t *testing.T) {
	recorder := newTestRecorder()
	handler := threatHandler(recorder)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/search?q=%3Cscript%3Ealert(1)%3C/script%3E", nil)
	r.Header.Set("User-Agent", browserUA)
	r.RemoteAddr = "203.0.113.8:1000"
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body pkghttp.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Invalid input detected", body.Error)
	assert.NotContains(t, w.Body.String(), "<script>", "payload is never reflected")

	recorded := recorder.Store().Recent(time.Minute)
	require.Len(t, recorded, 1)
	assert.Equal(t, models.EventXSSAttempt, recorded[0].Type)
	assert.Equal(t, models.SeverityHigh, recorded[0].Severity)
	assert.Equal(t, "203.0.113.8", recorded[0].Identity)
	assert.NotContains(t, recorded[0].Details["excerpt"], "<script")
}

func TestThreatSQLInjectionInBodyRejected(t *testing.T) {
	recorder := newTestRecorder()
	handler := threatHandler(recorder)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/demo/login",
		strings.NewReader(`{"username":"admin' OR '1'='1","password":"x"}`))
	r.Header.Set("User-Agent", browserUA)
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	recorded := recorder.Store().Recent(time.Minute)
	require.Len(t, recorded, 1)
	assert.Equal(t, models.EventSQLInjection, recorded[0].Type)
	assert.Equal(t, models.SeverityCritical, recorded[0].Severity)
}

func TestThreatBodySurvivesInspection(t *testing.T) {
	recorder := newTestRecorder()

	var seen string
	detector := detect.NewRegexDetector(nil, 100)
	handler := ThreatInspection(detector, models.RouteGeneral, recorder, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			seen = string(body)
		}))

	payload := `{"city":"lisbon","nights":4}`
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(payload))
	r.Header.Set("User-Agent", browserUA)
	handler.ServeHTTP(w, r)

	assert.Equal(t, payload, seen, "handler reads the full body after inspection")
}

func TestThreatBotSignatureRecordedButAllowed(t *testing.T) {
	recorder := newTestRecorder()
	handler := threatHandler(recorder)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil)
	r.Header.Set("User-Agent", "curl/8.4.0")
	r.RemoteAddr = "203.0.113.30:2000"
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code, "suspicious signature alone does not block")

	recorded := recorder.Store().Recent(time.Minute)
	require.Len(t, recorded, 1)
	assert.Equal(t, models.EventSuspiciousActivity, recorded[0].Type)
	assert.Equal(t, models.SeverityLow, recorded[0].Severity)
}
