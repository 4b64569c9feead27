package handlers

import (
	"time"

	"github.com/voyagehq/gatekeeper/internal/models"
)

// CSRFTokenResponse is returned by GET /csrf-token
type CSRFTokenResponse struct {
	CSRFToken string    `json:"csrfToken"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// EnrollTwoFactorRequest starts TOTP enrollment for an operator account
type EnrollTwoFactorRequest struct {
	UserID string `json:"userId" validate:"required,max=255"`
}

// EnrollTwoFactorResponse carries the provisioning material. The secret
// is shown exactly once, at enrollment.
type EnrollTwoFactorResponse struct {
	Secret          string `json:"secret"`
	ProvisioningURI string `json:"provisioningUri"`
	QRCode          string `json:"qrCode"`
}

// VerifyTwoFactorRequest submits a TOTP code for verification
type VerifyTwoFactorRequest struct {
	UserID string `json:"userId" validate:"required,max=255"`
	Code   string `json:"code" validate:"required,len=6,numeric"`
}

// VerifyTwoFactorResponse reports the verification outcome
type VerifyTwoFactorResponse struct {
	Verified bool `json:"verified"`
}

// DemoLoginRequest is the credential payload for the demonstration
// login endpoint that exercises the lockout pipeline
type DemoLoginRequest struct {
	Username string `json:"username" validate:"required,max=255"`
	Password string `json:"password" validate:"required,max=1024"`
}

// DemoLoginResponse reports a successful demonstration login
type DemoLoginResponse struct {
	Authenticated bool `json:"authenticated"`
}

// EventListResponse wraps an event query result
type EventListResponse struct {
	Events []*models.SecurityEvent `json:"events"`
	Count  int                     `json:"count"`
}

// AlertListResponse wraps an alert listing
type AlertListResponse struct {
	Alerts []*models.Alert `json:"alerts"`
	Count  int             `json:"count"`
}
