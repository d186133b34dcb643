package ratelimit

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// KeyFunc derives the rate-limit key for a request.
type KeyFunc func(c *gin.Context) string

// CostFunc derives the weighted cost of a request. Return values below 1 are
// treated as 1.
type CostFunc func(c *gin.Context) int

// MiddlewareOptions configures the rate limit middleware.
type MiddlewareOptions struct {
	// Cost weights requests; nil means every request costs 1.
	Cost CostFunc
	// LegacyHeaders also emits the X-RateLimit-* header family.
	LegacyHeaders bool
}

// Middleware enforces the limiter's policy on incoming requests.
//
// Every response carries the draft standard RateLimit-* headers (and the
// legacy X-RateLimit-* family when configured). Denied requests receive a
// 429 with a structured JSON body and a Retry-After header; they never see
// an unhandled error. Store failures inside the limiter fail open.
func Middleware(limiter *Limiter, keyFn KeyFunc, opts MiddlewareOptions, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		cost := 1
		if opts.Cost != nil {
			cost = opts.Cost(c)
		}

		decision := limiter.Check(c.Request.Context(), keyFn(c), cost)
		setRateLimitHeaders(c, decision, opts.LegacyHeaders)

		if !decision.Allowed {
			retryAfter := int(decision.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}

			logger.Debug("rate limit exceeded",
				slog.String("path", c.FullPath()),
				slog.Int("retry_after", retryAfter),
			)

			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limit_exceeded",
				"message": "Too many requests. Please retry after the specified delay.",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// ClientIPKey returns a KeyFunc limiting per client IP. Gin's ClientIP
// handles X-Forwarded-For and X-Real-IP.
func ClientIPKey() KeyFunc {
	return func(c *gin.Context) string {
		return IPKey(c.ClientIP())
	}
}

// ClientIPEndpointKey returns a KeyFunc limiting per (client IP, endpoint).
func ClientIPEndpointKey() KeyFunc {
	return func(c *gin.Context) string {
		return EndpointKey(IPKey(c.ClientIP()), c.Request.Method, c.FullPath())
	}
}

// BodySizeCost weights a request by its declared payload size in units of
// unitBytes, with a minimum cost of 1. Useful for upload-style endpoints.
func BodySizeCost(unitBytes int64) CostFunc {
	return func(c *gin.Context) int {
		if unitBytes <= 0 || c.Request.ContentLength <= 0 {
			return 1
		}
		cost := int(c.Request.ContentLength / unitBytes)
		if cost < 1 {
			return 1
		}
		return cost
	}
}

// setRateLimitHeaders writes limit metadata on the response. Both the draft
// standard names and the legacy X- prefixed names are supported.
func setRateLimitHeaders(c *gin.Context, d Decision, legacy bool) {
	limit := fmt.Sprintf("%d", d.Limit)
	remaining := fmt.Sprintf("%d", d.Remaining)
	reset := fmt.Sprintf("%d", d.ResetAt.Unix())
	resetAfter := fmt.Sprintf("%d", int(d.RetryAfter.Seconds()))
	if d.Allowed {
		resetAfter = fmt.Sprintf("%d", maxInt(0, int(time.Until(d.ResetAt).Seconds())))
	}

	c.Header("RateLimit-Limit", limit)
	c.Header("RateLimit-Remaining", remaining)
	c.Header("RateLimit-Reset", reset)
	c.Header("RateLimit-Reset-After", resetAfter)

	if legacy {
		c.Header("X-RateLimit-Limit", limit)
		c.Header("X-RateLimit-Remaining", remaining)
		c.Header("X-RateLimit-Reset", reset)
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
