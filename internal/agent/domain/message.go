// Package domain defines the inter-agent coordination models: typed messages
// exchanged between channel agents and per-lead goal tracking.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// MessageType keys the hub's publish/subscribe dispatch.
type MessageType string

// Agent message types.
const (
	// MessageDecision carries an agent's decision output.
	MessageDecision MessageType = "decision"
	// MessageStatus carries agent or execution status updates.
	MessageStatus MessageType = "status"
	// MessageHandover initiates a transfer of conversational responsibility
	// to another channel agent.
	MessageHandover MessageType = "handover"
	// MessageGoalUpdate carries per-lead goal progress.
	MessageGoalUpdate MessageType = "goal_update"
	// MessageCoordination carries hub-level coordination events, including
	// the synthetic campaign_completed broadcast.
	MessageCoordination MessageType = "coordination"
)

// Valid reports whether the type is one of the dispatchable message types.
func (t MessageType) Valid() bool {
	switch t {
	case MessageDecision, MessageStatus, MessageHandover, MessageGoalUpdate, MessageCoordination:
		return true
	}
	return false
}

// AgentMessage is one message on the hub. Messages are append-only once
// recorded; the hub never mutates or trims history in-process.
type AgentMessage struct {
	// ID is the unique identifier of the message.
	ID uuid.UUID `json:"id"`
	// Type keys subscriber dispatch.
	Type MessageType `json:"type"`
	// From is the sending agent identifier.
	From string `json:"from"`
	// To is the receiving agent identifier; empty for broadcasts.
	To string `json:"to,omitempty"`
	// Payload is the type-specific message body.
	Payload any `json:"payload,omitempty"`
	// CreatedAt is the UTC timestamp when the hub accepted the message.
	CreatedAt time.Time `json:"created_at"`
}

// HandoverPayload is the payload of a handover message.
type HandoverPayload struct {
	// LeadID identifies the lead whose conversation is transferred.
	LeadID uuid.UUID `json:"lead_id"`
	// TargetAgent is the agent that should take over.
	TargetAgent string `json:"target_agent"`
	// Reason is a human-readable transfer reason.
	Reason string `json:"reason"`
	// Context carries conversation state for the receiving agent.
	Context map[string]string `json:"context,omitempty"`
}

// GoalUpdatePayload is the payload of a goal_update message.
type GoalUpdatePayload struct {
	// CampaignID identifies the campaign the goal belongs to.
	CampaignID uuid.UUID `json:"campaign_id"`
	// LeadID identifies the tracked lead.
	LeadID uuid.UUID `json:"lead_id"`
	// GoalName names the goal within the (campaign, lead) pair.
	GoalName string `json:"goal_name"`
	// Target is the value at which the goal counts as complete.
	Target int `json:"target"`
	// Current is the current progress value.
	Current int `json:"current"`
}

// GoalProgress is the merged progress record for one goal of one
// (campaign, lead) pair. Completed derives from Current >= Target.
type GoalProgress struct {
	// GoalName names the goal.
	GoalName string `json:"goal_name"`
	// Target is the completion threshold.
	Target int `json:"target"`
	// Current is the latest merged progress value.
	Current int `json:"current"`
	// Completed reports whether Current reached Target.
	Completed bool `json:"completed"`
	// UpdatedAt is the UTC timestamp of the last merge.
	UpdatedAt time.Time `json:"updated_at"`
}

// CampaignCompletedPayload is the payload of the synthetic campaign_completed
// coordination event, broadcast once per (campaign, lead) pair.
type CampaignCompletedPayload struct {
	// CampaignID identifies the completed campaign.
	CampaignID uuid.UUID `json:"campaign_id"`
	// LeadID identifies the lead whose goals all completed.
	LeadID uuid.UUID `json:"lead_id"`
	// Goals holds the final state of every tracked goal.
	Goals []GoalProgress `json:"goals"`
}
