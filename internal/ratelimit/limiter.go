package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/voyagehq/gatekeeper/internal/config"
	"github.com/voyagehq/gatekeeper/internal/models"
)

// CounterStore is the fixed-window counter backing the limiter. The
// in-memory store serves a single instance; the Redis store provides a
// shared source of truth for multi-instance deployments.
type CounterStore interface {
	// Incr advances the counter for key, creating or resetting the
	// record when its window has elapsed. The whole read-modify-write is
	// one atomic step. Returns the post-increment count and the time the
	// window resets.
	Incr(ctx context.Context, key string, window time.Duration) (int, time.Time, error)
}

// Decision is the outcome of a rate-limit check. Limit/Remaining/ResetAt
// feed the quota headers; RetryAfter is only set on denials.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int
}

// Limiter applies per-route-class fixed-window request budgets.
// Fixed windows reset at discrete boundaries, so a burst straddling a
// boundary can admit up to twice the budget; that is inherent to the
// algorithm, not a defect.
type Limiter struct {
	store  CounterStore
	limits map[models.RouteClass]config.RouteLimit
	logger *slog.Logger
}

// NewLimiter creates a rate limiter over the given counter store
func NewLimiter(store CounterStore, limits map[models.RouteClass]config.RouteLimit, logger *slog.Logger) *Limiter {
	return &Limiter{
		store:  store,
		limits: limits,
		logger: logger,
	}
}

// Check records one request from identity against the class budget and
// decides whether it may proceed.
func (l *Limiter) Check(ctx context.Context, identity string, class models.RouteClass) Decision {
	limit, ok := l.limits[class]
	if !ok {
		limit = l.limits[models.RouteGeneral]
	}

	count, resetAt, err := l.store.Incr(ctx, counterKey(identity, class), limit.Window)
	if err != nil {
		// Fail open for availability: a counter-store outage must not
		// take the admin console down with it.
		l.logger.Error("rate limit store unavailable, allowing request",
			slog.String("route_class", string(class)),
			slog.Any("error", err))
		return Decision{Allowed: true, Limit: limit.MaxRequests, Remaining: limit.MaxRequests, ResetAt: time.Now().Add(limit.Window)}
	}

	if count > limit.MaxRequests {
		retryAfter := int(time.Until(resetAt).Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		return Decision{
			Allowed:    false,
			Limit:      limit.MaxRequests,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: retryAfter,
		}
	}

	return Decision{
		Allowed:   true,
		Limit:     limit.MaxRequests,
		Remaining: limit.MaxRequests - count,
		ResetAt:   resetAt,
	}
}

func counterKey(identity string, class models.RouteClass) string {
	return fmt.Sprintf("%s:%s", class, identity)
}
