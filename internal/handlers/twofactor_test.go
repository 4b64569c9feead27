package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyagehq/gatekeeper/internal/auth"
)

func newTwoFactorHandler() (*TwoFactorHandler, *auth.TwoFactorManager) {
	manager := auth.NewTwoFactorManager("VoyageHQ Admin")
	guard := newTestGuard(newTestRecorder())
	return NewTwoFactorHandler(manager, guard, nil, discardLogger()), manager
}

func postJSON(handlerFunc http.HandlerFunc, path, remoteAddr, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	r.RemoteAddr = remoteAddr
	handlerFunc(w, r)
	return w
}

func TestTwoFactorEnroll(t *testing.T) {
	handler, manager := newTwoFactorHandler()

	w := postJSON(handler.Enroll, "/api/v1/2fa/enroll", "203.0.113.1:6000",
		`{"userId":"ops@voyagehq.test"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var resp EnrollTwoFactorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Secret)
	assert.Contains(t, resp.ProvisioningURI, "otpauth://totp/")
	assert.True(t, strings.HasPrefix(resp.QRCode, "data:image/png;base64,"))
	assert.True(t, manager.Enrolled("ops@voyagehq.test"))
}

func TestTwoFactorEnrollRequiresUserID(t *testing.T) {
	handler, _ := newTwoFactorHandler()

	w := postJSON(handler.Enroll, "/api/v1/2fa/enroll", "203.0.113.1:6000", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTwoFactorVerifyRoundTrip(t *testing.T) {
	handler, manager := newTwoFactorHandler()

	enrollment, err := manager.Enroll("ops@voyagehq.test")
	require.NoError(t, err)

	code, err := totp.GenerateCodeCustom(enrollment.Secret, time.Now(), totp.ValidateOpts{
		Period:    30,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	require.NoError(t, err)

	w := postJSON(handler.Verify, "/api/v1/2fa/verify", "203.0.113.1:6000",
		fmt.Sprintf(`{"userId":"ops@voyagehq.test","code":"%s"}`, code))

	require.Equal(t, http.StatusOK, w.Code)
	var resp VerifyTwoFactorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Verified)
}

func TestTwoFactorVerifyWrongCode(t *testing.T) {
	handler, manager := newTwoFactorHandler()
	_, err := manager.Enroll("ops@voyagehq.test")
	require.NoError(t, err)

	w := postJSON(handler.Verify, "/api/v1/2fa/verify", "203.0.113.1:6000",
		`{"userId":"ops@voyagehq.test","code":"000000"}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTwoFactorVerifyUnenrolledFailsClosed(t *testing.T) {
	handler, _ := newTwoFactorHandler()

	w := postJSON(handler.Verify, "/api/v1/2fa/verify", "203.0.113.1:6000",
		`{"userId":"stranger@voyagehq.test","code":"123456"}`)

	// Indistinguishable from a wrong code
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTwoFactorVerifyRejectsMalformedCode(t *testing.T) {
	handler, _ := newTwoFactorHandler()

	for _, code := range []string{"12345", "1234567", "abcdef", ""} {
		w := postJSON(handler.Verify, "/api/v1/2fa/verify", "203.0.113.1:6000",
			fmt.Sprintf(`{"userId":"ops@voyagehq.test","code":"%s"}`, code))
		assert.Equal(t, http.StatusBadRequest, w.Code, "code %q", code)
	}
}

func TestTwoFactorFailuresTriggerLockout(t *testing.T) {
	handler, manager := newTwoFactorHandler()
	_, err := manager.Enroll("ops@voyagehq.test")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		w := postJSON(handler.Verify, "/api/v1/2fa/verify", "203.0.113.1:6000",
			`{"userId":"ops@voyagehq.test","code":"000000"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}

	w := postJSON(handler.Verify, "/api/v1/2fa/verify", "203.0.113.1:6000",
		`{"userId":"ops@voyagehq.test","code":"000000"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}
