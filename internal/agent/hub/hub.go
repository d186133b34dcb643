// Package hub implements the in-process publish/subscribe hub coordinating
// channel agents: typed message dispatch, handover re-emission, per-lead goal
// tracking and the synthetic campaign_completed broadcast.
package hub

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/onekeel/swarm/internal/agent/domain"
	"github.com/onekeel/swarm/internal/metrics"
)

// hubAgent is the From identity of messages the hub emits itself.
const hubAgent = "hub"

// Subscriber receives messages dispatched for a subscribed type.
// Subscribers are invoked synchronously and must not block; slow consumers
// should hand off to their own goroutine.
type Subscriber func(ctx context.Context, message domain.AgentMessage)

// Forwarder mirrors hub traffic to an external observer, typically the
// realtime channel feeding live dashboards. Forwarding is best-effort.
type Forwarder interface {
	ForwardAgentMessage(ctx context.Context, message domain.AgentMessage)
}

type subscription struct {
	id          uint64
	messageType domain.MessageType
	fn          Subscriber
}

type historyKey struct {
	from string
	to   string
}

type goalKey struct {
	campaignID uuid.UUID
	leadID     uuid.UUID
}

// Hub is the in-process coordination bus between channel agents. All state
// (history, goals, subscriptions) is guarded by one mutex; dispatch happens
// outside the lock so subscribers may publish back into the hub.
type Hub struct {
	logger  *slog.Logger
	metrics metrics.BusinessMetrics

	mu          sync.Mutex
	nextSubID   uint64
	subscribers map[domain.MessageType][]subscription
	history     map[historyKey][]domain.AgentMessage
	goals       map[goalKey]map[string]*domain.GoalProgress
	announced   map[goalKey]bool
	forwarders  []Forwarder

	now func() time.Time
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger, businessMetrics metrics.BusinessMetrics) *Hub {
	if businessMetrics == nil {
		businessMetrics = metrics.NewNoOpBusinessMetrics()
	}
	return &Hub{
		logger:      logger,
		metrics:     businessMetrics,
		subscribers: make(map[domain.MessageType][]subscription),
		history:     make(map[historyKey][]domain.AgentMessage),
		goals:       make(map[goalKey]map[string]*domain.GoalProgress),
		announced:   make(map[goalKey]bool),
		now:         time.Now,
	}
}

// AddForwarder registers an external observer for all hub traffic.
func (h *Hub) AddForwarder(forwarder Forwarder) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.forwarders = append(h.forwarders, forwarder)
}

// Subscribe registers a subscriber for one message type and returns an
// unsubscribe function.
func (h *Hub) Subscribe(messageType domain.MessageType, fn Subscriber) func() {
	h.mu.Lock()
	h.nextSubID++
	id := h.nextSubID
	h.subscribers[messageType] = append(h.subscribers[messageType], subscription{
		id:          id,
		messageType: messageType,
		fn:          fn,
	})
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		subs := h.subscribers[messageType]
		for i, sub := range subs {
			if sub.id == id {
				h.subscribers[messageType] = append(subs[:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Send constructs an AgentMessage, appends it to the (from,to) history and
// dispatches it to subscribers of its type. Malformed payloads and unknown
// targets are logged, never returned as errors: the hub is best-effort
// coordination, not a guaranteed-delivery bus.
func (h *Hub) Send(ctx context.Context, from, to string, messageType domain.MessageType, payload any) domain.AgentMessage {
	message := domain.AgentMessage{
		ID:        uuid.Must(uuid.NewV7()),
		Type:      messageType,
		From:      from,
		To:        to,
		Payload:   payload,
		CreatedAt: h.now().UTC(),
	}

	if !messageType.Valid() {
		h.logger.WarnContext(ctx, "dropping message with unknown type",
			"type", messageType, "from", from, "to", to)
		h.metrics.RecordOperation(ctx, "agent", "message_send", "error")
		return message
	}

	h.mu.Lock()
	key := historyKey{from: from, to: to}
	h.history[key] = append(h.history[key], message)
	h.mu.Unlock()

	h.metrics.RecordOperation(ctx, "agent", "message_send", "success")
	h.dispatch(ctx, message)

	switch messageType {
	case domain.MessageHandover:
		h.reemitHandover(ctx, message)
	case domain.MessageGoalUpdate:
		h.mergeGoal(ctx, message)
	}

	return message
}

// History returns a copy of the append-only (from,to) message log.
func (h *Hub) History(from, to string) []domain.AgentMessage {
	h.mu.Lock()
	defer h.mu.Unlock()
	log := h.history[historyKey{from: from, to: to}]
	return append([]domain.AgentMessage(nil), log...)
}

// Goals returns a snapshot of the tracked goals for one (campaign, lead) pair.
func (h *Hub) Goals(campaignID, leadID uuid.UUID) []domain.GoalProgress {
	h.mu.Lock()
	defer h.mu.Unlock()

	tracked := h.goals[goalKey{campaignID: campaignID, leadID: leadID}]
	out := make([]domain.GoalProgress, 0, len(tracked))
	for _, progress := range tracked {
		out = append(out, *progress)
	}
	return out
}

// dispatch invokes every subscriber registered for the message type and
// mirrors the message to forwarders. Runs outside the hub lock.
func (h *Hub) dispatch(ctx context.Context, message domain.AgentMessage) {
	h.mu.Lock()
	subs := append([]subscription(nil), h.subscribers[message.Type]...)
	forwarders := append([]Forwarder(nil), h.forwarders...)
	h.mu.Unlock()

	for _, sub := range subs {
		sub.fn(ctx, message)
	}
	for _, forwarder := range forwarders {
		forwarder.ForwardAgentMessage(ctx, message)
	}
}

// reemitHandover forwards a handover to its target agent as a coordination
// message. Fire-and-forget: the hub does not wait for acceptance.
func (h *Hub) reemitHandover(ctx context.Context, message domain.AgentMessage) {
	payload, ok := message.Payload.(domain.HandoverPayload)
	if !ok {
		h.logger.WarnContext(ctx, "malformed handover payload",
			"from", message.From, "message_id", message.ID)
		return
	}
	if payload.TargetAgent == "" {
		h.logger.WarnContext(ctx, "handover without target agent",
			"from", message.From, "message_id", message.ID)
		return
	}

	h.Send(ctx, hubAgent, payload.TargetAgent, domain.MessageCoordination, payload)
	h.metrics.RecordOperation(ctx, "agent", "handover", "success")
}

// mergeGoal merges a goal_update into the (campaign, lead) GoalProgress
// record and broadcasts campaign_completed once when every tracked goal of
// the pair is complete.
func (h *Hub) mergeGoal(ctx context.Context, message domain.AgentMessage) {
	payload, ok := message.Payload.(domain.GoalUpdatePayload)
	if !ok {
		h.logger.WarnContext(ctx, "malformed goal_update payload",
			"from", message.From, "message_id", message.ID)
		return
	}
	if payload.GoalName == "" {
		h.logger.WarnContext(ctx, "goal_update without goal name",
			"from", message.From, "message_id", message.ID)
		return
	}

	key := goalKey{campaignID: payload.CampaignID, leadID: payload.LeadID}

	h.mu.Lock()
	tracked := h.goals[key]
	if tracked == nil {
		tracked = make(map[string]*domain.GoalProgress)
		h.goals[key] = tracked
	}
	tracked[payload.GoalName] = &domain.GoalProgress{
		GoalName:  payload.GoalName,
		Target:    payload.Target,
		Current:   payload.Current,
		Completed: payload.Current >= payload.Target,
		UpdatedAt: h.now().UTC(),
	}

	allComplete := len(tracked) > 0
	for _, progress := range tracked {
		if !progress.Completed {
			allComplete = false
			break
		}
	}

	shouldAnnounce := allComplete && !h.announced[key]
	if shouldAnnounce {
		h.announced[key] = true
	}

	var goals []domain.GoalProgress
	if shouldAnnounce {
		goals = make([]domain.GoalProgress, 0, len(tracked))
		for _, progress := range tracked {
			goals = append(goals, *progress)
		}
	}
	h.mu.Unlock()

	if !shouldAnnounce {
		return
	}

	// Broadcast to all known channel agents, exactly once per pair.
	h.Send(ctx, hubAgent, "", domain.MessageCoordination, domain.CampaignCompletedPayload{
		CampaignID: payload.CampaignID,
		LeadID:     payload.LeadID,
		Goals:      goals,
	})
	h.metrics.RecordOperation(ctx, "agent", "campaign_completed", "success")
}
