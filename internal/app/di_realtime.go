package app

import (
	"fmt"
	"strings"
	"sync"

	"github.com/onekeel/swarm/internal/realtime"
)

// realtimeComponents holds the WebSocket session manager and its token
// verifier.
type realtimeComponents struct {
	tokenVerifier   realtime.TokenVerifier
	realtimeChannel *realtime.Channel

	tokenVerifierInit   sync.Once
	realtimeChannelInit sync.Once
}

// TokenVerifier returns the bearer-token verifier for realtime connections.
func (c *Container) TokenVerifier() realtime.TokenVerifier {
	c.tokenVerifierInit.Do(func() {
		c.tokenVerifier = realtime.NewStaticTokenVerifier(parseAuthTokens(c.config.WSAuthTokens))
	})
	return c.tokenVerifier
}

// RealtimeChannel returns the WebSocket session manager.
func (c *Container) RealtimeChannel() (*realtime.Channel, error) {
	var err error
	c.realtimeChannelInit.Do(func() {
		c.realtimeChannel, err = c.initRealtimeChannel()
		if err != nil {
			c.initErrors["realtimeChannel"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["realtimeChannel"]; exists {
		return nil, storedErr
	}
	return c.realtimeChannel, nil
}

// initRealtimeChannel creates the realtime channel from the WebSocket
// configuration knobs.
func (c *Container) initRealtimeChannel() (*realtime.Channel, error) {
	limiter, err := c.RateLimiter()
	if err != nil {
		return nil, fmt.Errorf("failed to get rate limiter for realtime channel: %w", err)
	}

	realtimeMetrics, err := c.RealtimeMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get realtime metrics for realtime channel: %w", err)
	}

	return realtime.NewChannel(
		c.TokenVerifier(),
		limiter,
		realtimeMetrics,
		c.Logger(),
		realtime.Options{
			AuthGracePeriod: c.config.WSAuthGracePeriod,
			MaxMessageBytes: c.config.WSMaxMessageBytes,
			MessagesPerSec:  c.config.WSMessagesPerSec,
			MessageBurst:    c.config.WSMessageBurst,
			MaxConnsPerUser: c.config.WSMaxConnsPerUser,
			PingInterval:    c.config.WSPingInterval,
			AllowedOrigins:  parseOrigins(c.config.CORSAllowOrigins),
		},
	), nil
}

// parseAuthTokens parses a comma-separated token:user list.
func parseAuthTokens(raw string) map[string]string {
	tokens := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		token, userID, found := strings.Cut(strings.TrimSpace(pair), ":")
		if !found || token == "" || userID == "" {
			continue
		}
		tokens[token] = userID
	}
	return tokens
}

// parseOrigins parses a comma-separated origin list and trims whitespace.
func parseOrigins(originsStr string) []string {
	if originsStr == "" {
		return nil
	}

	parts := strings.Split(originsStr, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
