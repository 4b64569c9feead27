package logger

import (
	"log/slog"
	"strings"
)

// MaskedIdentity partially masks a client identity for log output
// (e.g. "203.0.113.42" -> "203.0.113.xxx", "2001:db8::1" -> "2001:db8::xxxx").
// Enough survives for investigation grouping without logging the full origin.
func MaskedIdentity(identity string) string {
	if identity == "" {
		return "[unknown]"
	}

	if strings.Contains(identity, ":") {
		// IPv6: mask everything after the last group separator
		idx := strings.LastIndex(identity, ":")
		return identity[:idx+1] + "xxxx"
	}

	parts := strings.Split(identity, ".")
	if len(parts) == 4 {
		return strings.Join(parts[:3], ".") + ".xxx"
	}

	// Not an address-shaped identity; keep a prefix only
	if len(identity) > 8 {
		return identity[:8] + "..."
	}
	return identity
}

// RedactedAttr returns a redacted slog attribute for sensitive values
// In production, returns "[REDACTED]"; in development, returns the actual value
func RedactedAttr(key, value, env string) slog.Attr {
	if env == "production" {
		return slog.String(key, "[REDACTED]")
	}
	return slog.String(key, value)
}

// SanitizeQueryString checks if query string contains sensitive parameters
// and returns true if the entire query string should be redacted
func SanitizeQueryString(rawQuery string) bool {
	sensitiveParams := map[string]bool{
		"password": true,
		"token":    true,
		"secret":   true,
		"api_key":  true,
		"apikey":   true,
		"code":     true,
		"auth":     true,
		"csrf":     true,
	}

	query := strings.ToLower(rawQuery)
	for param := range sensitiveParams {
		if strings.Contains(query, param) {
			return true
		}
	}
	return false
}
