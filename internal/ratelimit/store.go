package ratelimit

import (
	"context"
	"time"
)

// Store is the pluggable counting backend behind a Limiter. All operations are
// atomic per key: increment-and-read is one logical operation, so concurrent
// hits on the same key never undercount.
//
// The in-memory implementation is the default; a shared cache backend can
// implement the same primitives for distributed limiting.
type Store interface {
	// IncrFixedWindow adds cost to the counter for the window starting at
	// windowStart and returns the new count. A counter from an older window is
	// replaced, not carried over.
	IncrFixedWindow(ctx context.Context, key string, windowStart time.Time, ttl time.Duration, cost int) (int, error)

	// IncrSlidingWindow records cost hits at now, evicts hits older than
	// now minus window, and returns the count of hits within the window.
	IncrSlidingWindow(ctx context.Context, key string, now time.Time, window, ttl time.Duration, cost int) (int, error)

	// TakeTokens refills the bucket for key and attempts to consume cost
	// tokens. Refill is granted in whole-interval steps: each elapsed interval
	// adds rate tokens, capped at capacity, and a partial interval adds
	// nothing. It returns the tokens remaining after the attempt, the time of
	// the next refill step, and whether the consumption succeeded. A failed
	// attempt consumes nothing.
	TakeTokens(ctx context.Context, key string, now time.Time, rate int, interval time.Duration, capacity int, cost int) (remaining float64, nextRefill time.Time, ok bool, err error)
}
