package hub

import (
	"context"

	agentDomain "github.com/onekeel/swarm/internal/agent/domain"
	campaignDomain "github.com/onekeel/swarm/internal/campaign/domain"
)

// runnerAgent is the From identity of execution runner notifications.
const runnerAgent = "execution_runner"

// deliveryGoal tracks how many enrolled recipients reached a terminal
// delivery state for one execution.
const deliveryGoal = "recipients_processed"

// ExecutionNotifier bridges finished campaign executions onto the hub: a
// status broadcast for observers plus a goal_update that drives the
// campaign_completed broadcast when the whole audience was processed.
type ExecutionNotifier struct {
	hub *Hub
}

// NewExecutionNotifier creates a notifier publishing runner events to the hub.
func NewExecutionNotifier(h *Hub) *ExecutionNotifier {
	return &ExecutionNotifier{hub: h}
}

// ExecutionStatusPayload is the payload of the status broadcast emitted for
// every finished execution.
type ExecutionStatusPayload struct {
	CampaignID   string                        `json:"campaign_id"`
	CampaignName string                        `json:"campaign_name"`
	ExecutionID  string                        `json:"execution_id"`
	Status       string                        `json:"status"`
	Stats        campaignDomain.ExecutionStats `json:"stats"`
}

// ExecutionFinished publishes the terminal execution state to the hub.
// A stopped execution leaves its delivery goal incomplete, so no
// campaign_completed broadcast is produced for it.
func (n *ExecutionNotifier) ExecutionFinished(
	ctx context.Context,
	campaign *campaignDomain.Campaign,
	execution *campaignDomain.Execution,
) {
	n.hub.Send(ctx, runnerAgent, "", agentDomain.MessageStatus, ExecutionStatusPayload{
		CampaignID:   campaign.ID.String(),
		CampaignName: campaign.Name,
		ExecutionID:  execution.ID.String(),
		Status:       string(execution.Status),
		Stats:        execution.Stats,
	})

	n.hub.Send(ctx, runnerAgent, "", agentDomain.MessageGoalUpdate, agentDomain.GoalUpdatePayload{
		CampaignID: campaign.ID,
		LeadID:     execution.ID,
		GoalName:   deliveryGoal,
		Target:     execution.Stats.Total,
		Current:    execution.Stats.Sent + execution.Stats.Failed,
	})
}
