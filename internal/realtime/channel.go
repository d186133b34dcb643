package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	agentDomain "github.com/onekeel/swarm/internal/agent/domain"
	"github.com/onekeel/swarm/internal/metrics"
	"github.com/onekeel/swarm/internal/ratelimit"
)

// Options configures the realtime channel.
type Options struct {
	// AuthGracePeriod is how long a connection may stay unauthenticated
	// before it is closed with a policy violation.
	AuthGracePeriod time.Duration
	// MaxMessageBytes is the inbound message size ceiling.
	MaxMessageBytes int64
	// MessagesPerSec and MessageBurst bound the per-connection message rate.
	MessagesPerSec float64
	MessageBurst   int
	// MaxConnsPerUser caps concurrent connections per authenticated user.
	// Zero means unlimited.
	MaxConnsPerUser int
	// PingInterval is the heartbeat interval. Connections idle beyond twice
	// this interval are terminated.
	PingInterval time.Duration
	// AllowedOrigins restricts browser origins. Empty or "*" allows all.
	AllowedOrigins []string
}

// Channel manages authenticated WebSocket sessions: it upgrades connections,
// enforces the auth grace period and message policy, and fans hub traffic
// out to clients.
type Channel struct {
	verifier TokenVerifier
	// limiter enforces the per-identity message-rate ceiling, scoped
	// separately from HTTP counters. Nil disables the per-identity check.
	limiter         *ratelimit.Limiter
	opts            Options
	upgrader        websocket.Upgrader
	logger          *slog.Logger
	realtimeMetrics metrics.RealtimeMetrics

	mu     sync.Mutex
	conns  map[string]*connection
	byUser map[string]int
}

// NewChannel creates a realtime channel. limiter may be nil.
func NewChannel(
	verifier TokenVerifier,
	limiter *ratelimit.Limiter,
	realtimeMetrics metrics.RealtimeMetrics,
	logger *slog.Logger,
	opts Options,
) *Channel {
	if opts.AuthGracePeriod <= 0 {
		opts.AuthGracePeriod = 30 * time.Second
	}
	if opts.MaxMessageBytes <= 0 {
		opts.MaxMessageBytes = 64 * 1024
	}
	if opts.MessagesPerSec <= 0 {
		opts.MessagesPerSec = 30
	}
	if opts.MessageBurst <= 0 {
		opts.MessageBurst = 50
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = 30 * time.Second
	}
	if realtimeMetrics == nil {
		realtimeMetrics = &metrics.NoOpRealtimeMetrics{}
	}
	return &Channel{
		verifier:        verifier,
		limiter:         limiter,
		opts:            opts,
		upgrader:        newUpgrader(opts.AllowedOrigins),
		logger:          logger,
		realtimeMetrics: realtimeMetrics,
		conns:           make(map[string]*connection),
		byUser:          make(map[string]int),
	}
}

func newUpgrader(allowedOrigins []string) websocket.Upgrader {
	allowAll := len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*")
	originSet := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		originSet[origin] = true
	}
	return websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if allowAll {
				return true
			}
			origin := r.Header.Get("Origin")
			if origin == "" {
				// non-browser clients
				return true
			}
			return originSet[origin]
		},
	}
}

// HandleGin upgrades the request and serves the connection until it closes.
func (ch *Channel) HandleGin(c *gin.Context) {
	ch.serve(c.Writer, c.Request)
}

func (ch *Channel) serve(w http.ResponseWriter, r *http.Request) {
	socket, err := ch.upgrader.Upgrade(w, r, nil)
	if err != nil {
		ch.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	ctx := r.Context()
	conn := newConnection(uuid.Must(uuid.NewV7()).String(), socket, ch.opts.MessagesPerSec, ch.opts.MessageBurst)
	socket.SetReadLimit(ch.opts.MaxMessageBytes)

	ch.register(conn)
	ch.realtimeMetrics.ConnectionOpened(ctx)
	ch.logger.Info("realtime connection opened", "conn_id", conn.id)

	defer func() {
		ch.deregister(conn)
		conn.close()
		ch.realtimeMetrics.ConnectionClosed(ctx)
		ch.logger.Info("realtime connection closed", "conn_id", conn.id)
	}()

	if err := conn.write(NewEnvelope(TypeAuthRequired, nil)); err != nil {
		return
	}

	graceTimer := time.AfterFunc(ch.opts.AuthGracePeriod, func() {
		if _, authenticated := conn.identity(); !authenticated {
			ch.logger.Warn("closing unauthenticated connection", "conn_id", conn.id)
			conn.closeWithPolicy("authentication timeout")
		}
	})
	defer graceTimer.Stop()

	stopHeartbeat := ch.startHeartbeat(conn)
	defer stopHeartbeat()

	for {
		_, raw, err := socket.ReadMessage()
		if err != nil {
			return
		}
		_ = socket.SetReadDeadline(time.Now().Add(ch.idleTimeout()))
		ch.handleMessage(ctx, conn, raw)
	}
}

// idleTimeout is the read deadline: twice the ping interval.
func (ch *Channel) idleTimeout() time.Duration {
	return 2 * ch.opts.PingInterval
}

// startHeartbeat pings the connection on the configured interval. The pong
// handler pushes the read deadline forward, so a peer that stops responding
// is dropped after the idle timeout.
func (ch *Channel) startHeartbeat(conn *connection) func() {
	_ = conn.conn.SetReadDeadline(time.Now().Add(ch.idleTimeout()))
	conn.conn.SetPongHandler(func(string) error {
		return conn.conn.SetReadDeadline(time.Now().Add(ch.idleTimeout()))
	})

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(ch.opts.PingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.ping(); err != nil {
					return
				}
			}
		}
	}()
	return func() { close(done) }
}

func (ch *Channel) register(conn *connection) {
	ch.mu.Lock()
	ch.conns[conn.id] = conn
	ch.mu.Unlock()
}

func (ch *Channel) deregister(conn *connection) {
	ch.mu.Lock()
	delete(ch.conns, conn.id)
	if userID, authenticated := conn.identity(); authenticated {
		ch.byUser[userID]--
		if ch.byUser[userID] <= 0 {
			delete(ch.byUser, userID)
		}
	}
	ch.mu.Unlock()
}

// handleMessage runs the validation pipeline and dispatches one inbound
// message. Validation failures produce an error envelope and leave the
// connection open; authentication failures close it.
func (ch *Channel) handleMessage(ctx context.Context, conn *connection, raw []byte) {
	var envelope clientEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		ch.reject(ctx, conn, "unknown", "invalid message")
		return
	}
	if envelope.Type == "" {
		ch.reject(ctx, conn, "unknown", "missing message type")
		return
	}
	if !allowedClientTypes[envelope.Type] {
		ch.reject(ctx, conn, envelope.Type, "unsupported message type: "+envelope.Type)
		return
	}
	if !conn.throttle.Allow() {
		ch.reject(ctx, conn, envelope.Type, "rate limit exceeded")
		return
	}

	userID, authenticated := conn.identity()

	if authenticated && ch.limiter != nil {
		decision := ch.limiter.Check(ctx, ratelimit.WebSocketKey(userID), 1)
		if !decision.Allowed {
			ch.reject(ctx, conn, envelope.Type, "rate limit exceeded")
			return
		}
	}

	if envelope.Type != TypeAuth && !authenticated {
		ch.reject(ctx, conn, envelope.Type, "not authenticated")
		return
	}

	ch.realtimeMetrics.RecordMessage(ctx, "inbound", envelope.Type, "ok")

	switch envelope.Type {
	case TypeAuth:
		ch.handleAuth(ctx, conn, envelope.Payload)
	case TypePing:
		_ = conn.write(NewEnvelope(TypePong, nil))
	case TypeBroadcast:
		ch.relayBroadcast(ctx, conn, userID, envelope.Payload)
	case TypeDirect:
		ch.relayDirect(ctx, conn, userID, envelope.Payload)
	}
}

// reject sends an error envelope for one bad message without closing the
// connection.
func (ch *Channel) reject(ctx context.Context, conn *connection, messageType, reason string) {
	ch.realtimeMetrics.RecordMessage(ctx, "inbound", messageType, "rejected")
	ch.logger.Debug("realtime message rejected", "conn_id", conn.id, "reason", reason)
	_ = conn.write(NewEnvelope(TypeError, ErrorPayload{Error: reason}))
}

func (ch *Channel) handleAuth(ctx context.Context, conn *connection, raw json.RawMessage) {
	if _, authenticated := conn.identity(); authenticated {
		_ = conn.write(NewEnvelope(TypeError, ErrorPayload{Error: "already authenticated"}))
		return
	}

	var payload AuthPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Token == "" {
		_ = conn.write(NewEnvelope(TypeError, ErrorPayload{Error: "missing token"}))
		return
	}

	userID, err := ch.verifier.Verify(ctx, payload.Token)
	if err != nil {
		ch.logger.Warn("realtime authentication failed", "conn_id", conn.id, "error", err)
		_ = conn.write(NewEnvelope(TypeError, ErrorPayload{Error: "authentication failed"}))
		conn.closeWithPolicy("authentication failed")
		return
	}

	ch.mu.Lock()
	if ch.opts.MaxConnsPerUser > 0 && ch.byUser[userID] >= ch.opts.MaxConnsPerUser {
		ch.mu.Unlock()
		ch.logger.Warn("too many realtime connections for user", "user_id", userID, "limit", ch.opts.MaxConnsPerUser)
		conn.closeWithPolicy("too many connections")
		return
	}
	ch.byUser[userID]++
	ch.mu.Unlock()

	conn.authenticate(userID)
	ch.logger.Info("realtime connection authenticated", "conn_id", conn.id, "user_id", userID)
	_ = conn.write(NewEnvelope(TypeAuthSuccess, AuthSuccessPayload{UserID: userID}))
}

func (ch *Channel) relayBroadcast(ctx context.Context, sender *connection, userID string, raw json.RawMessage) {
	envelope := NewEnvelope(TypeBroadcast, BroadcastDelivery{From: userID, Data: raw})
	ch.fanOut(ctx, envelope, func(conn *connection, _ string) bool {
		return conn.id != sender.id
	})
}

func (ch *Channel) relayDirect(ctx context.Context, conn *connection, userID string, raw json.RawMessage) {
	var payload DirectPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.To == "" {
		_ = conn.write(NewEnvelope(TypeError, ErrorPayload{Error: "missing recipient"}))
		return
	}
	ch.SendToUser(ctx, payload.To, NewEnvelope(TypeDirect, DirectDelivery{From: userID, Data: payload.Data}))
}

// Broadcast sends an envelope to every authenticated connection matching the
// optional user filter. A nil filter matches all.
func (ch *Channel) Broadcast(ctx context.Context, envelope Envelope, filter func(userID string) bool) {
	ch.fanOut(ctx, envelope, func(_ *connection, userID string) bool {
		return filter == nil || filter(userID)
	})
}

// SendToUser sends an envelope to every connection bound to the user.
func (ch *Channel) SendToUser(ctx context.Context, userID string, envelope Envelope) {
	ch.fanOut(ctx, envelope, func(_ *connection, connUserID string) bool {
		return connUserID == userID
	})
}

func (ch *Channel) fanOut(ctx context.Context, envelope Envelope, match func(conn *connection, userID string) bool) {
	ch.mu.Lock()
	targets := make([]*connection, 0, len(ch.conns))
	for _, conn := range ch.conns {
		userID, authenticated := conn.identity()
		if !authenticated {
			continue
		}
		if match(conn, userID) {
			targets = append(targets, conn)
		}
	}
	ch.mu.Unlock()

	for _, conn := range targets {
		if err := conn.write(envelope); err != nil {
			ch.realtimeMetrics.RecordMessage(ctx, "outbound", envelope.Type, "error")
			ch.logger.Debug("realtime write failed", "conn_id", conn.id, "error", err)
			continue
		}
		ch.realtimeMetrics.RecordMessage(ctx, "outbound", envelope.Type, "ok")
	}
}

// ForwardAgentMessage mirrors hub traffic to realtime clients. Goal updates
// and status messages get dedicated envelope types so clients can subscribe
// selectively; campaign completion broadcasts surface as campaign_update.
func (ch *Channel) ForwardAgentMessage(ctx context.Context, message agentDomain.AgentMessage) {
	envelopeType := TypeAgentMessage
	switch message.Type {
	case agentDomain.MessageGoalUpdate:
		envelopeType = TypeGoalProgressUpdate
	case agentDomain.MessageStatus:
		envelopeType = TypeAgentStatusUpdate
	case agentDomain.MessageCoordination:
		if _, ok := message.Payload.(agentDomain.CampaignCompletedPayload); ok {
			envelopeType = TypeCampaignUpdate
		}
	}
	ch.Broadcast(ctx, NewEnvelope(envelopeType, message), nil)
}
