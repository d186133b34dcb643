package ratelimit

import (
	"context"
	"log/slog"
	"time"
)

// Limiter wraps a counting Store with a Policy and produces allow/deny
// decisions plus reset metadata for response headers.
type Limiter struct {
	store  Store
	policy Policy
	logger *slog.Logger

	// now is replaceable in tests.
	now func() time.Time
}

// NewLimiter creates a limiter for the given store and policy.
func NewLimiter(store Store, policy Policy, logger *slog.Logger) *Limiter {
	return &Limiter{
		store:  store,
		policy: policy,
		logger: logger,
		now:    time.Now,
	}
}

// Policy returns the limiter's policy.
func (l *Limiter) Policy() Policy {
	return l.policy
}

// Check evaluates one request of the given cost against the key's counter.
// A cost below 1 is treated as 1. Store errors fail OPEN: the request is
// allowed and the error is logged, never propagated to the caller.
func (l *Limiter) Check(ctx context.Context, key string, cost int) Decision {
	if cost < 1 {
		cost = 1
	}

	now := l.now()

	var (
		decision Decision
		err      error
	)
	switch l.policy.Strategy {
	case SlidingWindow:
		decision, err = l.checkSlidingWindow(ctx, key, now, cost)
	case TokenBucket:
		decision, err = l.checkTokenBucket(ctx, key, now, cost)
	default:
		decision, err = l.checkFixedWindow(ctx, key, now, cost)
	}

	if err != nil {
		l.logger.Error("rate limit store error, failing open",
			slog.String("key", key),
			slog.Any("error", err),
		)
		return Decision{
			Allowed:   true,
			Limit:     l.policy.Max,
			Remaining: l.policy.Max,
			ResetAt:   now.Add(l.policy.Window),
		}
	}

	return decision
}

// checkFixedWindow counts hits in the window aligned to floor(now/window).
func (l *Limiter) checkFixedWindow(ctx context.Context, key string, now time.Time, cost int) (Decision, error) {
	windowStart := now.Truncate(l.policy.Window)
	resetAt := windowStart.Add(l.policy.Window)

	count, err := l.store.IncrFixedWindow(ctx, key, windowStart, l.policy.CounterTTL(), cost)
	if err != nil {
		return Decision{}, err
	}

	return l.windowDecision(count, now, resetAt), nil
}

// checkSlidingWindow counts hits in the trailing window ending at now.
func (l *Limiter) checkSlidingWindow(ctx context.Context, key string, now time.Time, cost int) (Decision, error) {
	count, err := l.store.IncrSlidingWindow(ctx, key, now, l.policy.Window, l.policy.CounterTTL(), cost)
	if err != nil {
		return Decision{}, err
	}

	// The window fully rolls over one window after the most recent hit.
	return l.windowDecision(count, now, now.Add(l.policy.Window)), nil
}

// checkTokenBucket consumes cost tokens from the key's bucket.
func (l *Limiter) checkTokenBucket(ctx context.Context, key string, now time.Time, cost int) (Decision, error) {
	capacity := l.policy.BucketCapacity()

	remaining, nextRefill, ok, err := l.store.TakeTokens(ctx, key, now, l.policy.Max, l.policy.Window, capacity, cost)
	if err != nil {
		return Decision{}, err
	}

	decision := Decision{
		Allowed:   ok,
		Limit:     capacity,
		Count:     capacity - int(remaining),
		Remaining: int(remaining),
	}

	// Tokens arrive in whole-interval steps; the next step is the earliest
	// point more capacity appears.
	switch {
	case !ok:
		decision.ResetAt = nextRefill
		decision.RetryAfter = nextRefill.Sub(now)
	case remaining < 1:
		decision.ResetAt = nextRefill
	default:
		decision.ResetAt = now
	}

	return decision, nil
}

// windowDecision builds the decision shared by both windowed strategies.
func (l *Limiter) windowDecision(count int, now, resetAt time.Time) Decision {
	decision := Decision{
		Allowed: count <= l.policy.Max,
		Limit:   l.policy.Max,
		Count:   count,
		ResetAt: resetAt,
	}
	if remaining := l.policy.Max - count; remaining > 0 {
		decision.Remaining = remaining
	}
	if !decision.Allowed {
		decision.RetryAfter = resetAt.Sub(now)
	}
	return decision
}
