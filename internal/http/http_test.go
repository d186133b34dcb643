package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onekeel/swarm/internal/ratelimit"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testRoutes struct{}

func (testRoutes) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/echo", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "echo"})
	})
	group.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})
}

func newTestServer(t *testing.T, opts ServerOptions) *Server {
	t.Helper()
	opts.GinMode = gin.TestMode
	return NewServer(opts, testLogger(), nil, nil, testRoutes{})
}

func TestServer_Health(t *testing.T) {
	server := newTestServer(t, ServerOptions{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	server.GetHandler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "healthy", response["status"])
}

func TestServer_ReadyWithoutDatabase(t *testing.T) {
	server := newTestServer(t, ServerOptions{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	server.GetHandler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_RequestIDHeaderPresent(t *testing.T) {
	server := newTestServer(t, ServerOptions{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/echo", nil)
	server.GetHandler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestServer_RecoversFromPanic(t *testing.T) {
	server := newTestServer(t, ServerOptions{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/panic", nil)
	server.GetHandler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestServer_RateLimitOnV1Group(t *testing.T) {
	store := ratelimit.NewMemoryStore(0)
	t.Cleanup(store.Close)
	limiter := ratelimit.NewLimiter(store, ratelimit.Policy{
		Strategy: ratelimit.FixedWindow,
		Window:   time.Minute,
		Max:      2,
	}, testLogger())

	server := newTestServer(t, ServerOptions{
		RateLimit: ratelimit.Middleware(limiter, ratelimit.ClientIPKey(), ratelimit.MiddlewareOptions{}, testLogger()),
	})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/echo", nil)
		server.GetHandler().ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/echo", nil)
	server.GetHandler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("RateLimit-Limit"))

	// Health endpoints sit outside the limited group.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	server.GetHandler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_CORSHeaders(t *testing.T) {
	server := newTestServer(t, ServerOptions{
		CORSEnabled:      true,
		CORSAllowOrigins: "https://app.example.com",
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/echo", nil)
	req.Header.Set("Origin", "https://app.example.com")
	server.GetHandler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestParseOrigins(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"Empty", "", nil},
		{"Single", "https://a.example.com", []string{"https://a.example.com"}},
		{"MultipleWithSpaces", " https://a.example.com , https://b.example.com ", []string{"https://a.example.com", "https://b.example.com"}},
		{"SkipsBlank", "https://a.example.com,,", []string{"https://a.example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseOrigins(tt.input))
		})
	}
}
