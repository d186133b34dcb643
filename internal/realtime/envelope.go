package realtime

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Server-initiated envelope types.
const (
	TypeAuthRequired       = "auth_required"
	TypeAuthSuccess        = "auth_success"
	TypeError              = "error"
	TypeBroadcast          = "broadcast"
	TypeDirect             = "direct"
	TypeAgentMessage       = "agent_message"
	TypeAgentStatusUpdate  = "agent_status_update"
	TypeGoalProgressUpdate = "goal_progress_update"
	TypeCampaignUpdate     = "campaign_update"
	TypePong               = "pong"
)

// Client-initiated envelope types.
const (
	TypeAuth = "auth"
	TypePing = "ping"
)

// allowedClientTypes is the allow-list for inbound messages. Anything else
// is rejected with an error envelope.
var allowedClientTypes = map[string]bool{
	TypeAuth:      true,
	TypePing:      true,
	TypeBroadcast: true,
	TypeDirect:    true,
}

// Envelope is the wire format for every realtime message, in both directions.
type Envelope struct {
	Type      string `json:"type"`
	Payload   any    `json:"payload,omitempty"`
	Timestamp int64  `json:"timestamp"`
	ID        string `json:"id"`
}

// clientEnvelope is the inbound shape. Payload stays raw until the type
// handler decodes it.
type clientEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// NewEnvelope builds a server-initiated envelope with a fresh id and a
// millisecond timestamp.
func NewEnvelope(messageType string, payload any) Envelope {
	return Envelope{
		Type:      messageType,
		Payload:   payload,
		Timestamp: time.Now().UnixMilli(),
		ID:        uuid.Must(uuid.NewV7()).String(),
	}
}

// ErrorPayload is the payload of an error envelope.
type ErrorPayload struct {
	Error string `json:"error"`
}

// AuthPayload is the payload a client sends with an auth envelope.
type AuthPayload struct {
	Token string `json:"token"`
}

// AuthSuccessPayload is the payload of an auth_success envelope.
type AuthSuccessPayload struct {
	UserID string `json:"user_id"`
}

// DirectPayload is the payload a client sends with a direct envelope.
type DirectPayload struct {
	To   string          `json:"to"`
	Data json.RawMessage `json:"data"`
}

// DirectDelivery is the payload of a direct envelope delivered to a recipient.
type DirectDelivery struct {
	From string          `json:"from"`
	Data json.RawMessage `json:"data"`
}

// BroadcastDelivery is the payload of a broadcast envelope relayed from a client.
type BroadcastDelivery struct {
	From string          `json:"from"`
	Data json.RawMessage `json:"data"`
}
