// Package ratelimit implements outbound and inbound request throttling with
// pluggable counting stores. Three strategies are supported: fixed window,
// sliding window and token bucket. A limiter never hard-fails a request on
// store errors; it fails open and logs, because availability of the send path
// outweighs strict quota enforcement.
package ratelimit

import "time"

// Strategy selects the counting algorithm used by a policy.
type Strategy string

const (
	// FixedWindow counts hits in windows aligned to wall-clock boundaries.
	// Allows up to 2x burst at window edges; documented behavior, not a bug.
	FixedWindow Strategy = "fixed_window"
	// SlidingWindow counts hits in the trailing window, evicting older hits on
	// every check. Smooths bursts at the cost of more storage.
	SlidingWindow Strategy = "sliding_window"
	// TokenBucket refills tokens continuously at Max per Window, capped at
	// MaxTokens. A request consumes Cost tokens.
	TokenBucket Strategy = "token_bucket"
)

// Policy describes the limits applied to a single key space.
type Policy struct {
	// Strategy is the counting algorithm.
	Strategy Strategy
	// Window is the evaluation window for window strategies and the refill
	// interval for the token bucket.
	Window time.Duration
	// Max is the number of allowed hits per window, or the tokens refilled per
	// interval for the token bucket.
	Max int
	// MaxTokens caps the token bucket. Zero defaults to Max.
	MaxTokens int
}

// BucketCapacity returns the effective token bucket capacity.
func (p Policy) BucketCapacity() int {
	if p.MaxTokens > 0 {
		return p.MaxTokens
	}
	return p.Max
}

// CounterTTL is how long an idle counter survives before eviction.
// Counters expire after twice the window of inactivity.
func (p Policy) CounterTTL() time.Duration {
	return p.Window * 2
}

// Decision is the outcome of a limit check plus reset metadata for headers.
type Decision struct {
	// Allowed reports whether the request may proceed.
	Allowed bool
	// Limit is the policy maximum, echoed for response headers.
	Limit int
	// Count is the current counter value after this check.
	Count int
	// Remaining is how many further unit-cost requests would be allowed.
	Remaining int
	// ResetAt is when the current window rolls over or enough tokens refill.
	ResetAt time.Time
	// RetryAfter is the suggested client wait before retrying a denied request.
	RetryAfter time.Duration
}
