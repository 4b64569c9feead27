package auth

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

// csrfEntry stores token metadata
type csrfEntry struct {
	sessionID string
	expiresAt time.Time
}

// CSRFTokenManager issues and validates per-session CSRF tokens.
// Tokens remain valid for repeated use until they expire or a new
// issuance for the same session supersedes them; that multi-use
// behavior is a documented design choice, not single-use semantics.
type CSRFTokenManager struct {
	mu        sync.RWMutex
	tokens    map[string]*csrfEntry // token -> entry
	bySession map[string]string     // sessionID -> current token
	tokenTTL  time.Duration
	now       func() time.Time
}

// NewCSRFTokenManager creates a CSRF token manager with the given TTL
func NewCSRFTokenManager(tokenTTL time.Duration) *CSRFTokenManager {
	return &CSRFTokenManager{
		tokens:    make(map[string]*csrfEntry),
		bySession: make(map[string]string),
		tokenTTL:  tokenTTL,
		now:       time.Now,
	}
}

// Issue creates a fresh token for the session, superseding any prior
// token for the same session. Tokens carry 32 bytes of randomness,
// hex-encoded.
func (m *CSRFTokenManager) Issue(sessionID string) (string, time.Time, error) {
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", time.Time{}, err
	}
	token := hex.EncodeToString(randomBytes)
	expiresAt := m.now().Add(m.tokenTTL)

	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, ok := m.bySession[sessionID]; ok {
		delete(m.tokens, prev)
	}
	m.tokens[token] = &csrfEntry{sessionID: sessionID, expiresAt: expiresAt}
	m.bySession[sessionID] = token

	return token, expiresAt, nil
}

// Validate reports whether the token is known and unexpired.
func (m *CSRFTokenManager) Validate(token string) bool {
	m.mu.RLock()
	entry, exists := m.tokens[token]
	m.mu.RUnlock()

	if !exists {
		return false
	}

	if !m.now().Before(entry.expiresAt) {
		// Expired: drop it now rather than waiting for the sweep
		m.mu.Lock()
		if cur, ok := m.tokens[token]; ok && cur == entry {
			delete(m.tokens, token)
			if m.bySession[entry.sessionID] == token {
				delete(m.bySession, entry.sessionID)
			}
		}
		m.mu.Unlock()
		return false
	}

	return true
}

// TokenTTL reports the configured token lifetime
func (m *CSRFTokenManager) TokenTTL() time.Duration {
	return m.tokenTTL
}

// Sweep removes expired tokens. Returns the number removed.
func (m *CSRFTokenManager) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for token, entry := range m.tokens {
		if !now.Before(entry.expiresAt) {
			delete(m.tokens, token)
			if m.bySession[entry.sessionID] == token {
				delete(m.bySession, entry.sessionID)
			}
			removed++
		}
	}
	return removed
}

// Len reports the number of live tokens
func (m *CSRFTokenManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tokens)
}
