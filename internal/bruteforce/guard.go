package bruteforce

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/voyagehq/gatekeeper/internal/events"
	"github.com/voyagehq/gatekeeper/internal/models"
)

// Config holds brute-force guard thresholds
type Config struct {
	MaxFailures     int
	LockoutDuration time.Duration
	// AttemptWindow bounds how long idle, unlocked records survive
	// before the sweep reclaims them
	AttemptWindow time.Duration
}

type attemptRecord struct {
	failureCount  int
	lastAttemptAt time.Time
	lockedUntil   time.Time
}

func (r *attemptRecord) locked(now time.Time) bool {
	return !r.lockedUntil.IsZero() && now.Before(r.lockedUntil)
}

// Guard tracks failed authentication attempts per client identity and
// escalates to a timed lockout. Password failures and two-factor
// failures feed the same accounting.
type Guard struct {
	mu       sync.Mutex
	attempts map[string]*attemptRecord
	config   Config
	recorder *events.Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewGuard creates a brute-force guard
func NewGuard(config Config, recorder *events.Recorder, logger *slog.Logger) *Guard {
	return &Guard{
		attempts: make(map[string]*attemptRecord),
		config:   config,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// BeforeAttempt reports whether identity may attempt authentication.
// When locked it returns false and the seconds until the lock expires.
func (g *Guard) BeforeAttempt(identity string) (bool, int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	rec, ok := g.attempts[identity]
	if !ok {
		return true, 0
	}

	now := g.now()
	if rec.locked(now) {
		retryAfter := int(rec.lockedUntil.Sub(now).Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		return false, retryAfter
	}

	return true, 0
}

// RecordFailure counts one failed attempt. Reaching the failure budget
// sets the lockout and emits a BRUTE_FORCE event; the lock holds until
// it expires regardless of further failures.
func (g *Guard) RecordFailure(ctx context.Context, identity, userAgent, source string) {
	g.mu.Lock()

	now := g.now()
	rec, ok := g.attempts[identity]
	if !ok {
		rec = &attemptRecord{}
		g.attempts[identity] = rec
	}
	rec.failureCount++
	rec.lastAttemptAt = now

	justLocked := false
	if rec.failureCount >= g.config.MaxFailures && !rec.locked(now) {
		rec.lockedUntil = now.Add(g.config.LockoutDuration)
		justLocked = true
	}
	failureCount := rec.failureCount
	g.mu.Unlock()

	if justLocked {
		g.logger.Warn("identity locked out",
			slog.String("source", source),
			slog.Int("failure_count", failureCount),
			slog.Duration("lockout_duration", g.config.LockoutDuration))

		g.recorder.Record(ctx, events.NewEvent{
			Type:      models.EventBruteForce,
			Severity:  models.SeverityHigh,
			Source:    source,
			Identity:  identity,
			UserAgent: userAgent,
			Details: map[string]string{
				"failure_count":   strconv.Itoa(failureCount),
				"lockout_seconds": strconv.Itoa(int(g.config.LockoutDuration.Seconds())),
			},
		})
	}
}

// RecordSuccess clears all state for identity. A successful
// authentication is a full reset, not a counter decrement.
func (g *Guard) RecordSuccess(identity string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.attempts, identity)
}

// Sweep deletes records idle past the attempt window and not currently
// locked. Returns the number of records removed.
func (g *Guard) Sweep(now time.Time) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	cutoff := now.Add(-g.config.AttemptWindow)
	removed := 0
	for identity, rec := range g.attempts {
		if rec.lastAttemptAt.Before(cutoff) && !rec.locked(now) {
			delete(g.attempts, identity)
			removed++
		}
	}
	return removed
}

// Len reports the number of tracked identities
func (g *Guard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.attempts)
}
