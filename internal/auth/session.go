package auth

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const sessionCookieName = "gk_session"

// SessionClaims is the signed payload of the session cookie. The ID is
// the only meaningful field: it keys CSRF state. No user identity or
// authorization semantics live here.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// SessionManager mints and verifies the signed session cookie that
// gives the CSRF store a stable per-client key.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	cookie CookieConfig
}

// NewSessionManager creates a session manager
func NewSessionManager(secret string, ttl time.Duration, cookie CookieConfig) *SessionManager {
	return &SessionManager{
		secret: []byte(secret),
		ttl:    ttl,
		cookie: cookie,
	}
}

// EnsureSession returns the request's session ID, minting and setting a
// fresh session cookie when the request carries none (or an invalid or
// expired one).
func (sm *SessionManager) EnsureSession(w http.ResponseWriter, r *http.Request) (string, error) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if sessionID, err := sm.parse(cookie.Value); err == nil {
			return sessionID, nil
		}
	}

	sessionID := uuid.NewString()
	signed, err := sm.mint(sessionID)
	if err != nil {
		return "", err
	}

	SetSessionCookie(w, signed, int(sm.ttl.Seconds()), sm.cookie)
	return sessionID, nil
}

func (sm *SessionManager) mint(sessionID string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sm.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(sm.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

func (sm *SessionManager) parse(tokenString string) (string, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return sm.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("failed to parse session token: %w", err)
	}
	if !token.Valid || claims.ID == "" {
		return "", fmt.Errorf("invalid session token")
	}
	return claims.ID, nil
}
