package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyagehq/gatekeeper/internal/auth"
)

func newCSRFHandler() (*CSRFHandler, *auth.CSRFTokenManager) {
	cookie := auth.CookieConfig{SameSite: "lax"}
	sessions := auth.NewSessionManager("test-session-secret-0123456789abcdef", time.Hour, cookie)
	manager := auth.NewCSRFTokenManager(time.Hour)
	return NewCSRFHandler(sessions, manager, cookie, discardLogger()), manager
}

func TestGetTokenIssuesTokenAndCookies(t *testing.T) {
	handler, manager := newCSRFHandler()

	w := httptest.NewRecorder()
	handler.GetToken(w, httptest.NewRequest(http.MethodGet, "/api/v1/csrf-token", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp CSRFTokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.CSRFToken, 64)
	assert.True(t, resp.ExpiresAt.After(time.Now()))
	assert.True(t, manager.Validate(resp.CSRFToken))

	var sawSession, sawCSRF bool
	for _, cookie := range w.Result().Cookies() {
		switch cookie.Name {
		case "gk_session":
			sawSession = true
			assert.True(t, cookie.HttpOnly)
		case "csrf_token":
			sawCSRF = true
			assert.False(t, cookie.HttpOnly, "script must read the CSRF cookie")
			assert.Equal(t, resp.CSRFToken, cookie.Value)
		}
	}
	assert.True(t, sawSession)
	assert.True(t, sawCSRF)
}

func TestGetTokenReissueSupersedes(t *testing.T) {
	handler, manager := newCSRFHandler()

	first := httptest.NewRecorder()
	handler.GetToken(first, httptest.NewRequest(http.MethodGet, "/api/v1/csrf-token", nil))
	require.Equal(t, http.StatusOK, first.Code)

	var firstResp CSRFTokenResponse
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &firstResp))

	// Same session asks again: carry the session cookie over
	var sessionCookie *http.Cookie
	for _, cookie := range first.Result().Cookies() {
		if cookie.Name == "gk_session" {
			sessionCookie = cookie
		}
	}
	require.NotNil(t, sessionCookie)

	second := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/csrf-token", nil)
	r.AddCookie(sessionCookie)
	handler.GetToken(second, r)
	require.Equal(t, http.StatusOK, second.Code)

	var secondResp CSRFTokenResponse
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &secondResp))

	assert.NotEqual(t, firstResp.CSRFToken, secondResp.CSRFToken)
	assert.False(t, manager.Validate(firstResp.CSRFToken), "old token superseded")
	assert.True(t, manager.Validate(secondResp.CSRFToken))
}
