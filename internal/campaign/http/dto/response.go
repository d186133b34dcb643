// Package dto provides data transfer objects for the campaign HTTP layer.
package dto

import (
	"time"

	"github.com/google/uuid"
)

// CampaignResponse represents the API response for a campaign
type CampaignResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Channel   string    `json:"channel"`
	Subject   string    `json:"subject,omitempty"`
	Body      string    `json:"body"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ExecutionStatsResponse aggregates per-recipient outcomes for an execution
type ExecutionStatsResponse struct {
	Total  int `json:"total"`
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
	Queued int `json:"queued"`
}

// ExecutionResponse represents the API response for an execution. Outcome
// counters travel beside it as a sibling metrics object, never nested inside.
type ExecutionResponse struct {
	ID            uuid.UUID  `json:"id"`
	CampaignID    uuid.UUID  `json:"campaign_id"`
	Status        string     `json:"status"`
	StopRequested bool       `json:"stop_requested"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ExecutionStatusResponse pairs an execution with its outcome metrics
type ExecutionStatusResponse struct {
	Execution ExecutionResponse      `json:"execution"`
	Metrics   ExecutionStatsResponse `json:"metrics"`
}

// RecipientResponse represents one per-recipient delivery record
type RecipientResponse struct {
	ID           uuid.UUID         `json:"id"`
	Address      string            `json:"address"`
	Status       string            `json:"status"`
	AttemptCount int               `json:"attempt_count"`
	LastError    string            `json:"last_error,omitempty"`
	MessageID    string            `json:"message_id,omitempty"`
	Variables    map[string]string `json:"variables,omitempty"`
}

// ExecutionDetailResponse pairs an execution with its metrics and recipient records
type ExecutionDetailResponse struct {
	Execution  ExecutionResponse      `json:"execution"`
	Metrics    ExecutionStatsResponse `json:"metrics"`
	Recipients []RecipientResponse    `json:"recipients"`
}

// ListCampaignsResponse wraps a page of campaigns
type ListCampaignsResponse struct {
	Campaigns []CampaignResponse `json:"campaigns"`
}

// ListExecutionsResponse wraps a page of executions
type ListExecutionsResponse struct {
	Executions []ExecutionStatusResponse `json:"executions"`
}
