package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyagehq/gatekeeper/internal/events"
	"github.com/voyagehq/gatekeeper/internal/models"
	pkghttp "github.com/voyagehq/gatekeeper/pkg/http"
)

func newDemoHandler(recorder *events.Recorder) *DemoLoginHandler {
	guard := newTestGuard(recorder)
	authenticate := func(username, password string) bool {
		return username == "ops" && password == "travel-ops-2026"
	}
	return NewDemoLoginHandler(guard, authenticate, nil, discardLogger())
}

func postLogin(handler *DemoLoginHandler, remoteAddr, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/demo/login", strings.NewReader(body))
	r.RemoteAddr = remoteAddr
	handler.Login(w, r)
	return w
}

func TestDemoLoginSuccess(t *testing.T) {
	handler := newDemoHandler(newTestRecorder())

	w := postLogin(handler, "203.0.113.1:5000", `{"username":"ops","password":"travel-ops-2026"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp DemoLoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Authenticated)
}

func TestDemoLoginWrongPassword(t *testing.T) {
	handler := newDemoHandler(newTestRecorder())

	w := postLogin(handler, "203.0.113.1:5000", `{"username":"ops","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDemoLoginMissingFields(t *testing.T) {
	handler := newDemoHandler(newTestRecorder())

	w := postLogin(handler, "203.0.113.1:5000", `{"username":"ops"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDemoLoginLockoutAfterRepeatedFailures(t *testing.T) {
	recorder := newTestRecorder()
	handler := newDemoHandler(recorder)

	for i := 0; i < 5; i++ {
		w := postLogin(handler, "203.0.113.1:5000", `{"username":"ops","password":"wrong"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}

	// Sixth attempt is refused before credentials are examined, even
	// with the right password
	w := postLogin(handler, "203.0.113.1:5000", `{"username":"ops","password":"travel-ops-2026"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var body pkghttp.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "account_locked", body.Error)
	assert.Greater(t, body.RetryAfter, 0)

	// The lockout produced exactly one BRUTE_FORCE event
	recorded := recorder.Store().Recent(time.Minute)
	require.Len(t, recorded, 1)
	assert.Equal(t, models.EventBruteForce, recorded[0].Type)
	assert.Equal(t, models.SeverityHigh, recorded[0].Severity)
}

func TestDemoLoginSuccessResetsFailureCount(t *testing.T) {
	handler := newDemoHandler(newTestRecorder())

	for i := 0; i < 4; i++ {
		postLogin(handler, "203.0.113.1:5000", `{"username":"ops","password":"wrong"}`)
	}
	w := postLogin(handler, "203.0.113.1:5000", `{"username":"ops","password":"travel-ops-2026"}`)
	require.Equal(t, http.StatusOK, w.Code)

	// The slate is clean: four more failures do not lock
	for i := 0; i < 4; i++ {
		w = postLogin(handler, "203.0.113.1:5000", `{"username":"ops","password":"wrong"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
}

func TestDemoLoginLockoutIsPerClient(t *testing.T) {
	handler := newDemoHandler(newTestRecorder())

	for i := 0; i < 5; i++ {
		postLogin(handler, "203.0.113.1:5000", `{"username":"ops","password":"wrong"}`)
	}
	locked := postLogin(handler, "203.0.113.1:5000", `{"username":"ops","password":"travel-ops-2026"}`)
	require.Equal(t, http.StatusTooManyRequests, locked.Code)

	other := postLogin(handler, "203.0.113.2:5000", `{"username":"ops","password":"travel-ops-2026"}`)
	assert.Equal(t, http.StatusOK, other.Code)
}
