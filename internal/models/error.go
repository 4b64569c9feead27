package models

import "errors"

// Sentinel errors for the protection-layer failure taxonomy
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Denial outcomes surfaced to callers
	ErrQuotaExceeded        = errors.New("request quota exceeded")
	ErrLocked               = errors.New("identity is temporarily locked")
	ErrCSRFTokenMissing     = errors.New("csrf token missing")
	ErrCSRFTokenInvalid     = errors.New("csrf token invalid or expired")
	ErrThreatDetected       = errors.New("malicious input detected")
	ErrInvalidTwoFactorCode = errors.New("invalid two-factor code")
	ErrTwoFactorNotEnrolled = errors.New("two-factor secret not enrolled")
)
