package ratelimit

import (
	"fmt"

	"github.com/google/uuid"
)

// Key derivation helpers. Keys are plain strings so different subjects
// (IP addresses, user ids, API keys, endpoints, channels) share one store
// without colliding.

// IPKey derives a key for per-IP limiting.
func IPKey(ip string) string {
	return "ip:" + ip
}

// UserKey derives a key for per-user limiting.
func UserKey(userID uuid.UUID) string {
	return "user:" + userID.String()
}

// APIKeyKey derives a key for per-API-key limiting.
func APIKeyKey(apiKey string) string {
	return "apikey:" + apiKey
}

// EndpointKey derives a composite key scoping a subject to one endpoint.
func EndpointKey(subject, method, path string) string {
	return fmt.Sprintf("%s:%s:%s", subject, method, path)
}

// ChannelKey scopes a subject key per outbound channel (email/sms/chat).
// Used when counters are configured per-channel instead of globally.
func ChannelKey(subject, channel string) string {
	return subject + ":channel:" + channel
}

// WebSocketKey derives a per-identity key for realtime message limiting,
// kept in a separate scope from HTTP counters.
func WebSocketKey(userID string) string {
	return "ws:" + userID
}
