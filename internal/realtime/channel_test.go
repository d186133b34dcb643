package realtime

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	agentDomain "github.com/onekeel/swarm/internal/agent/domain"
	"github.com/onekeel/swarm/internal/ratelimit"
)

const readWait = 2 * time.Second

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testVerifier() TokenVerifier {
	return NewStaticTokenVerifier(map[string]string{
		"token-a": "user-a",
		"token-b": "user-b",
	})
}

func startChannel(t *testing.T, channel *Channel) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/v1/ws", channel.HandleGin)
	server := httptest.NewServer(engine)
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http") + "/v1/ws"
}

func newTestChannel(t *testing.T, opts Options) (*Channel, string) {
	t.Helper()
	channel := NewChannel(testVerifier(), nil, nil, testLogger(), opts)
	return channel, startChannel(t, channel)
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

type receivedEnvelope struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
	ID        string          `json:"id"`
}

func readEnvelope(t *testing.T, conn *websocket.Conn) receivedEnvelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(readWait)))
	var envelope receivedEnvelope
	require.NoError(t, conn.ReadJSON(&envelope))
	return envelope
}

func sendEnvelope(t *testing.T, conn *websocket.Conn, messageType string, payload any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{"type": messageType, "payload": payload}))
}

func authenticate(t *testing.T, conn *websocket.Conn, token string) {
	t.Helper()
	require.Equal(t, TypeAuthRequired, readEnvelope(t, conn).Type)
	sendEnvelope(t, conn, TypeAuth, AuthPayload{Token: token})
	require.Equal(t, TypeAuthSuccess, readEnvelope(t, conn).Type)
}

func errorText(t *testing.T, envelope receivedEnvelope) string {
	t.Helper()
	require.Equal(t, TypeError, envelope.Type)
	var payload ErrorPayload
	require.NoError(t, json.Unmarshal(envelope.Payload, &payload))
	return payload.Error
}

func TestChannel_AuthFlow(t *testing.T) {
	_, url := newTestChannel(t, Options{})
	conn := dial(t, url)

	welcome := readEnvelope(t, conn)
	assert.Equal(t, TypeAuthRequired, welcome.Type)
	assert.NotEmpty(t, welcome.ID)
	assert.NotZero(t, welcome.Timestamp)

	sendEnvelope(t, conn, TypeAuth, AuthPayload{Token: "token-a"})

	success := readEnvelope(t, conn)
	require.Equal(t, TypeAuthSuccess, success.Type)
	var payload AuthSuccessPayload
	require.NoError(t, json.Unmarshal(success.Payload, &payload))
	assert.Equal(t, "user-a", payload.UserID)
}

func TestChannel_PreAuthMessageRejectedConnectionStaysOpen(t *testing.T) {
	_, url := newTestChannel(t, Options{})
	conn := dial(t, url)

	require.Equal(t, TypeAuthRequired, readEnvelope(t, conn).Type)
	sendEnvelope(t, conn, TypePing, nil)

	assert.Equal(t, "not authenticated", errorText(t, readEnvelope(t, conn)))

	// The connection survived the rejection and can still authenticate.
	sendEnvelope(t, conn, TypeAuth, AuthPayload{Token: "token-a"})
	assert.Equal(t, TypeAuthSuccess, readEnvelope(t, conn).Type)
}

func TestChannel_AuthGraceTimeoutClosesConnection(t *testing.T) {
	_, url := newTestChannel(t, Options{AuthGracePeriod: 100 * time.Millisecond})
	conn := dial(t, url)

	require.Equal(t, TypeAuthRequired, readEnvelope(t, conn).Type)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(readWait)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation))
}

func TestChannel_InvalidTokenClosesConnection(t *testing.T) {
	_, url := newTestChannel(t, Options{})
	conn := dial(t, url)

	require.Equal(t, TypeAuthRequired, readEnvelope(t, conn).Type)
	sendEnvelope(t, conn, TypeAuth, AuthPayload{Token: "wrong"})

	assert.Equal(t, "authentication failed", errorText(t, readEnvelope(t, conn)))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(readWait)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation))
}

func TestChannel_RejectsMalformedMessages(t *testing.T) {
	_, url := newTestChannel(t, Options{})
	conn := dial(t, url)
	authenticate(t, conn, "token-a")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	assert.Equal(t, "invalid message", errorText(t, readEnvelope(t, conn)))

	require.NoError(t, conn.WriteJSON(map[string]any{"payload": 1}))
	assert.Equal(t, "missing message type", errorText(t, readEnvelope(t, conn)))

	sendEnvelope(t, conn, "bogus", nil)
	assert.Equal(t, "unsupported message type: bogus", errorText(t, readEnvelope(t, conn)))
}

func TestChannel_PingPong(t *testing.T) {
	_, url := newTestChannel(t, Options{})
	conn := dial(t, url)
	authenticate(t, conn, "token-a")

	sendEnvelope(t, conn, TypePing, nil)
	assert.Equal(t, TypePong, readEnvelope(t, conn).Type)
}

func TestChannel_BroadcastBetweenClients(t *testing.T) {
	_, url := newTestChannel(t, Options{})

	connA := dial(t, url)
	authenticate(t, connA, "token-a")
	connB := dial(t, url)
	authenticate(t, connB, "token-b")

	sendEnvelope(t, connA, TypeBroadcast, map[string]any{"hello": "world"})

	received := readEnvelope(t, connB)
	require.Equal(t, TypeBroadcast, received.Type)
	var payload BroadcastDelivery
	require.NoError(t, json.Unmarshal(received.Payload, &payload))
	assert.Equal(t, "user-a", payload.From)
	assert.JSONEq(t, `{"hello":"world"}`, string(payload.Data))
}

func TestChannel_DirectDelivery(t *testing.T) {
	_, url := newTestChannel(t, Options{})

	connA := dial(t, url)
	authenticate(t, connA, "token-a")
	connB := dial(t, url)
	authenticate(t, connB, "token-b")

	sendEnvelope(t, connA, TypeDirect, DirectPayload{To: "user-b", Data: json.RawMessage(`{"n":1}`)})

	received := readEnvelope(t, connB)
	require.Equal(t, TypeDirect, received.Type)
	var payload DirectDelivery
	require.NoError(t, json.Unmarshal(received.Payload, &payload))
	assert.Equal(t, "user-a", payload.From)
	assert.JSONEq(t, `{"n":1}`, string(payload.Data))
}

func TestChannel_ServerBroadcastSkipsUnauthenticated(t *testing.T) {
	channel, url := newTestChannel(t, Options{})

	authed := dial(t, url)
	authenticate(t, authed, "token-a")
	unauthed := dial(t, url)
	require.Equal(t, TypeAuthRequired, readEnvelope(t, unauthed).Type)

	channel.Broadcast(context.Background(), NewEnvelope(TypeCampaignUpdate, nil), nil)

	assert.Equal(t, TypeCampaignUpdate, readEnvelope(t, authed).Type)

	require.NoError(t, unauthed.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := unauthed.ReadMessage()
	assert.Error(t, err)
}

func TestChannel_SendToUserReachesAllUserConnections(t *testing.T) {
	channel, url := newTestChannel(t, Options{MaxConnsPerUser: 2})

	first := dial(t, url)
	authenticate(t, first, "token-a")
	second := dial(t, url)
	authenticate(t, second, "token-a")
	other := dial(t, url)
	authenticate(t, other, "token-b")

	channel.SendToUser(context.Background(), "user-a", NewEnvelope(TypeDirect, nil))

	assert.Equal(t, TypeDirect, readEnvelope(t, first).Type)
	assert.Equal(t, TypeDirect, readEnvelope(t, second).Type)

	require.NoError(t, other.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := other.ReadMessage()
	assert.Error(t, err)
}

func TestChannel_MaxConnsPerUser(t *testing.T) {
	_, url := newTestChannel(t, Options{MaxConnsPerUser: 1})

	first := dial(t, url)
	authenticate(t, first, "token-a")

	second := dial(t, url)
	require.Equal(t, TypeAuthRequired, readEnvelope(t, second).Type)
	sendEnvelope(t, second, TypeAuth, AuthPayload{Token: "token-a"})

	require.NoError(t, second.SetReadDeadline(time.Now().Add(readWait)))
	_, _, err := second.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation))
}

func TestChannel_PerConnectionThrottle(t *testing.T) {
	// Burst of one: the auth message consumes it, the next message is rejected.
	_, url := newTestChannel(t, Options{MessagesPerSec: 0.001, MessageBurst: 1})
	conn := dial(t, url)
	authenticate(t, conn, "token-a")

	sendEnvelope(t, conn, TypePing, nil)
	assert.Equal(t, "rate limit exceeded", errorText(t, readEnvelope(t, conn)))
}

func TestChannel_PerIdentityLimit(t *testing.T) {
	store := ratelimit.NewMemoryStore(0)
	t.Cleanup(store.Close)
	limiter := ratelimit.NewLimiter(store, ratelimit.Policy{
		Strategy: ratelimit.FixedWindow,
		Window:   time.Minute,
		Max:      2,
	}, testLogger())

	channel := NewChannel(testVerifier(), limiter, nil, testLogger(), Options{})
	url := startChannel(t, channel)

	conn := dial(t, url)
	authenticate(t, conn, "token-a")

	// The identity counter only applies once authenticated.
	sendEnvelope(t, conn, TypePing, nil)
	assert.Equal(t, TypePong, readEnvelope(t, conn).Type)
	sendEnvelope(t, conn, TypePing, nil)
	assert.Equal(t, TypePong, readEnvelope(t, conn).Type)

	sendEnvelope(t, conn, TypePing, nil)
	assert.Equal(t, "rate limit exceeded", errorText(t, readEnvelope(t, conn)))
}

func TestChannel_ForwardAgentMessage(t *testing.T) {
	channel, url := newTestChannel(t, Options{})
	conn := dial(t, url)
	authenticate(t, conn, "token-a")

	ctx := context.Background()

	channel.ForwardAgentMessage(ctx, agentDomain.AgentMessage{
		ID:   uuid.Must(uuid.NewV7()),
		Type: agentDomain.MessageGoalUpdate,
	})
	assert.Equal(t, TypeGoalProgressUpdate, readEnvelope(t, conn).Type)

	channel.ForwardAgentMessage(ctx, agentDomain.AgentMessage{
		ID:   uuid.Must(uuid.NewV7()),
		Type: agentDomain.MessageStatus,
	})
	assert.Equal(t, TypeAgentStatusUpdate, readEnvelope(t, conn).Type)

	channel.ForwardAgentMessage(ctx, agentDomain.AgentMessage{
		ID:      uuid.Must(uuid.NewV7()),
		Type:    agentDomain.MessageCoordination,
		Payload: agentDomain.CampaignCompletedPayload{CampaignID: uuid.Must(uuid.NewV7())},
	})
	assert.Equal(t, TypeCampaignUpdate, readEnvelope(t, conn).Type)

	channel.ForwardAgentMessage(ctx, agentDomain.AgentMessage{
		ID:   uuid.Must(uuid.NewV7()),
		Type: agentDomain.MessageDecision,
	})
	assert.Equal(t, TypeAgentMessage, readEnvelope(t, conn).Type)
}

func TestStaticTokenVerifier(t *testing.T) {
	verifier := NewStaticTokenVerifier(map[string]string{"tok": "user-1"})

	userID, err := verifier.Verify(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	_, err = verifier.Verify(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
