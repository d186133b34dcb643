package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/onekeel/swarm/internal/ratelimit"
)

// ratelimitComponents holds the shared rate-limit store, limiter and the API
// middleware. One store backs every key scope (HTTP clients, outbound sends,
// realtime identities); key prefixes keep the counters separate.
type ratelimitComponents struct {
	rateLimitStore      *ratelimit.MemoryStore
	rateLimiter         *ratelimit.Limiter
	rateLimitMiddleware gin.HandlerFunc

	rateLimitStoreInit      sync.Once
	rateLimiterInit         sync.Once
	rateLimitMiddlewareInit sync.Once
}

// RateLimitStore returns the in-memory counting store.
func (c *Container) RateLimitStore() *ratelimit.MemoryStore {
	c.rateLimitStoreInit.Do(func() {
		c.rateLimitStore = ratelimit.NewMemoryStore(time.Minute)
	})
	return c.rateLimitStore
}

// RateLimiter returns the shared limiter, or nil when rate limiting is
// disabled.
func (c *Container) RateLimiter() (*ratelimit.Limiter, error) {
	var err error
	c.rateLimiterInit.Do(func() {
		if !c.config.RateLimitEnabled {
			return
		}
		c.rateLimiter, err = c.initRateLimiter()
		if err != nil {
			c.initErrors["rateLimiter"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["rateLimiter"]; exists {
		return nil, storedErr
	}
	return c.rateLimiter, nil
}

// RateLimitMiddleware returns the gin middleware applied to the /v1 group,
// or nil when rate limiting is disabled.
func (c *Container) RateLimitMiddleware() (gin.HandlerFunc, error) {
	var err error
	c.rateLimitMiddlewareInit.Do(func() {
		limiter, limiterErr := c.RateLimiter()
		if limiterErr != nil {
			err = limiterErr
			c.initErrors["rateLimitMiddleware"] = limiterErr
			return
		}
		if limiter == nil {
			return
		}
		c.rateLimitMiddleware = ratelimit.Middleware(
			limiter,
			ratelimit.ClientIPKey(),
			ratelimit.MiddlewareOptions{LegacyHeaders: c.config.RateLimitLegacyHeaders},
			c.Logger(),
		)
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["rateLimitMiddleware"]; exists {
		return nil, storedErr
	}
	return c.rateLimitMiddleware, nil
}

// initRateLimiter builds the limiter from the configured policy.
func (c *Container) initRateLimiter() (*ratelimit.Limiter, error) {
	var strategy ratelimit.Strategy
	switch c.config.RateLimitStrategy {
	case string(ratelimit.FixedWindow):
		strategy = ratelimit.FixedWindow
	case string(ratelimit.SlidingWindow):
		strategy = ratelimit.SlidingWindow
	case string(ratelimit.TokenBucket):
		strategy = ratelimit.TokenBucket
	default:
		return nil, fmt.Errorf("unsupported rate limit strategy: %s", c.config.RateLimitStrategy)
	}

	policy := ratelimit.Policy{
		Strategy:  strategy,
		Window:    c.config.RateLimitWindow,
		Max:       c.config.RateLimitMax,
		MaxTokens: c.config.RateLimitMaxTokens,
	}

	return ratelimit.NewLimiter(c.RateLimitStore(), policy, c.Logger()), nil
}
