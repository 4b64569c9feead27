package auth

import (
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"
	"github.com/voyagehq/gatekeeper/internal/models"
)

// Enrollment is the result of issuing a fresh two-factor secret
type Enrollment struct {
	Secret          string
	ProvisioningURI string
	QRCode          string // PNG data URL of the provisioning URI
}

// TwoFactorManager issues per-user TOTP secrets and verifies codes.
// Re-enrolling a user overwrites the previous secret, invalidating any
// previously displayed provisioning QR code.
type TwoFactorManager struct {
	mu      sync.RWMutex
	secrets map[string]string // userID -> base32 secret
	issuer  string
	now     func() time.Time
}

// NewTwoFactorManager creates a two-factor manager
func NewTwoFactorManager(issuer string) *TwoFactorManager {
	return &TwoFactorManager{
		secrets: make(map[string]string),
		issuer:  issuer,
		now:     time.Now,
	}
}

// Enroll generates a fresh shared secret for the user and returns the
// secret, the otpauth provisioning URI, and a QR code data URL.
func (m *TwoFactorManager) Enroll(userID string) (*Enrollment, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      m.issuer,
		AccountName: userID,
		SecretSize:  32,
		Period:      30,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate TOTP secret: %w", err)
	}

	qr, err := qrcode.New(key.URL(), qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("failed to create QR code: %w", err)
	}
	qrImage, err := qr.PNG(200)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}

	m.mu.Lock()
	m.secrets[userID] = key.Secret()
	m.mu.Unlock()

	return &Enrollment{
		Secret:          key.Secret(),
		ProvisioningURI: key.URL(),
		QRCode:          "data:image/png;base64," + base64.StdEncoding.EncodeToString(qrImage),
	}, nil
}

// Verify checks a submitted code against the user's stored secret,
// tolerating one time step of clock skew either side. A missing secret
// fails closed: invalid, never "2FA not required".
func (m *TwoFactorManager) Verify(userID, code string) (bool, error) {
	m.mu.RLock()
	secret, ok := m.secrets[userID]
	m.mu.RUnlock()

	if !ok {
		return false, models.ErrTwoFactorNotEnrolled
	}

	valid, err := totp.ValidateCustom(code, secret, m.now(), totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return false, fmt.Errorf("failed to validate TOTP code: %w", err)
	}

	return valid, nil
}

// Enrolled reports whether the user has a stored secret
func (m *TwoFactorManager) Enrolled(userID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.secrets[userID]
	return ok
}
