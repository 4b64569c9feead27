package http_test

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	pkghttp "github.com/voyagehq/gatekeeper/pkg/http"
)

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()

	pkghttp.WriteError(w, 400, "test_error", "Test message")

	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err)
	assert.Equal(t, "test_error", resp.Error)
	assert.Equal(t, "Test message", resp.Message)
}

func TestWriteRetryable(t *testing.T) {
	w := httptest.NewRecorder()

	pkghttp.WriteRetryable(w, "rate_limit_exceeded", "Too many requests", 42)

	assert.Equal(t, 429, w.Code)
	assert.Equal(t, "42", w.Header().Get("Retry-After"))

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err)
	assert.Equal(t, "rate_limit_exceeded", resp.Error)
	assert.Equal(t, 42, resp.RetryAfter)
}

func TestWriteInvalidInput_NeverEchoesPayload(t *testing.T) {
	w := httptest.NewRecorder()

	pkghttp.WriteInvalidInput(w)

	assert.Equal(t, 400, w.Code)

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err)
	assert.Equal(t, "Invalid input detected", resp.Error)
	assert.Empty(t, resp.Message)
}

func TestWriteForbidden(t *testing.T) {
	w := httptest.NewRecorder()
	pkghttp.WriteForbidden(w, "csrf_token_missing")

	assert.Equal(t, 403, w.Code)

	var resp pkghttp.ErrorResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "csrf_token_missing", resp.Error)
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	pkghttp.WriteJSON(w, 201, map[string]string{"status": "created"})

	assert.Equal(t, 201, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"created"}`, w.Body.String())
}
