// Package detect holds the heuristic input threat detectors: regex
// matchers for XSS and SQL-injection payloads plus a client-signature
// check. Matchers are stateless pure functions over request text.
package detect

import (
	"regexp"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

// ThreatDetector is the pluggable detection strategy. The regex
// implementation below is the baseline; a parser-based SQL detector can
// replace it without touching the pipeline.
type ThreatDetector interface {
	LooksLikeXSS(text string) bool
	LooksLikeSQLInjection(text string) bool
	LooksSuspicious(identity, userAgent string) bool
}

// ActivitySource reports how many events an identity has generated
// recently. The security event store satisfies this.
type ActivitySource interface {
	CountByIdentitySince(identity string, since time.Time) int
}

var xssPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<script\b`),
	regexp.MustCompile(`(?i)javascript\s*:`),
	regexp.MustCompile(`(?i)\bon\w+\s*=`),
	regexp.MustCompile(`(?i)<(iframe|object|embed)\b`),
}

var sqlPatterns = []*regexp.Regexp{
	// Quote-escape tautologies: ' OR '1'='1, " OR "a"="a
	regexp.MustCompile(`(?i)['"]\s*(or|and)\s*['"]?\w+['"]?\s*=`),
	// Boolean tautology without quotes: OR 1=1
	regexp.MustCompile(`(?i)\b(or|and)\s+\d+\s*=\s*\d+`),
	// Comment markers used to truncate statements
	regexp.MustCompile(`(--|/\*|\*/)`),
	// Stacked or positioned DML/DDL keywords
	regexp.MustCompile(`(?i);\s*(drop|delete|update|insert|alter|create|truncate)\b`),
	regexp.MustCompile(`(?i)\b(union\s+select|select\s+.+\s+from|insert\s+into|drop\s+table|delete\s+from)\b`),
}

var botAgentPattern = regexp.MustCompile(
	`(?i)(bot|crawler|spider|scraper|curl|wget|python-requests|go-http-client|scrapy|nikto|sqlmap|nmap|masscan|httpclient)`)

// excerptPolicy strips all markup from payload excerpts before they are
// stored in event details, so the store never retains a replayable payload.
var excerptPolicy = bluemonday.StrictPolicy()

const (
	burstWindow      = 60 * time.Second
	maxExcerptLength = 120
)

// RegexDetector is the baseline pattern-matching detector.
type RegexDetector struct {
	activity       ActivitySource
	burstThreshold int
}

// NewRegexDetector creates the baseline detector. activity may be nil,
// in which case only the user-agent signature check applies.
func NewRegexDetector(activity ActivitySource, burstThreshold int) *RegexDetector {
	return &RegexDetector{
		activity:       activity,
		burstThreshold: burstThreshold,
	}
}

// LooksLikeXSS reports whether text carries a high-signal XSS payload:
// script blocks, javascript: URIs, inline event handlers, or embedded
// frame/object tags.
func (d *RegexDetector) LooksLikeXSS(text string) bool {
	for _, p := range xssPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// LooksLikeSQLInjection reports whether text carries classic injection
// markers: quote-escape tautologies, comment truncation, or DML/DDL
// keywords in suspicious position.
func (d *RegexDetector) LooksLikeSQLInjection(text string) bool {
	for _, p := range sqlPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// LooksSuspicious reports whether the client signature is non-browser
// automation, or the identity has flooded past the burst threshold in
// the last minute.
func (d *RegexDetector) LooksSuspicious(identity, userAgent string) bool {
	if userAgent == "" || botAgentPattern.MatchString(userAgent) {
		return true
	}
	if d.activity != nil && d.burstThreshold > 0 {
		if d.activity.CountByIdentitySince(identity, time.Now().Add(-burstWindow)) > d.burstThreshold {
			return true
		}
	}
	return false
}

// Excerpt returns a markup-stripped, length-bounded view of a flagged
// payload, safe to attach to event details.
func Excerpt(text string) string {
	cleaned := strings.TrimSpace(excerptPolicy.Sanitize(text))
	if len(cleaned) > maxExcerptLength {
		cleaned = cleaned[:maxExcerptLength]
	}
	if cleaned == "" {
		cleaned = "[markup-only payload]"
	}
	return cleaned
}
