package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T, limiter *Limiter, opts MiddlewareOptions) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(Middleware(limiter, ClientIPKey(), opts, testLogger()))
	router.GET("/v1/campaigns", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func TestMiddleware_AllowsWithinLimit(t *testing.T) {
	limiter, _ := newTestLimiter(t, Policy{
		Strategy: FixedWindow,
		Window:   time.Minute,
		Max:      2,
	})
	router := setupRouter(t, limiter, MiddlewareOptions{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/campaigns", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("RateLimit-Reset"))
	assert.NotEmpty(t, w.Header().Get("RateLimit-Reset-After"))
}

func TestMiddleware_DeniesOverLimit(t *testing.T) {
	limiter, _ := newTestLimiter(t, Policy{
		Strategy: FixedWindow,
		Window:   time.Minute,
		Max:      1,
	})
	router := setupRouter(t, limiter, MiddlewareOptions{})

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/v1/campaigns", nil))
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/v1/campaigns", nil))

	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
	assert.Contains(t, second.Body.String(), "rate_limit_exceeded")
}

func TestMiddleware_LegacyHeaders(t *testing.T) {
	limiter, _ := newTestLimiter(t, Policy{
		Strategy: FixedWindow,
		Window:   time.Minute,
		Max:      5,
	})
	router := setupRouter(t, limiter, MiddlewareOptions{LegacyHeaders: true})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/campaigns", nil))

	assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "4", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
}

func TestBodySizeCost(t *testing.T) {
	cost := BodySizeCost(1024)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	c.Request.ContentLength = 0
	assert.Equal(t, 1, cost(c))

	c.Request.ContentLength = 512
	assert.Equal(t, 1, cost(c))

	c.Request.ContentLength = 4096
	assert.Equal(t, 4, cost(c))
}

func TestKeyDerivation(t *testing.T) {
	assert.Equal(t, "ip:10.0.0.1", IPKey("10.0.0.1"))
	assert.Equal(t, "apikey:abc", APIKeyKey("abc"))
	assert.Equal(t, "ip:10.0.0.1:GET:/v1/campaigns", EndpointKey(IPKey("10.0.0.1"), "GET", "/v1/campaigns"))
	assert.Equal(t, "user:123:channel:sms", ChannelKey("user:123", "sms"))
}
