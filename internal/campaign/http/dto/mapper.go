// Package dto provides data transfer objects for the campaign HTTP layer.
package dto

import (
	"github.com/onekeel/swarm/internal/campaign/domain"
	"github.com/onekeel/swarm/internal/campaign/usecase"
)

// ToCreateCampaignInput converts a CreateCampaignRequest DTO to a use case input
func ToCreateCampaignInput(req CreateCampaignRequest) usecase.CreateCampaignInput {
	return usecase.CreateCampaignInput{
		Name:    req.Name,
		Channel: req.Channel,
		Subject: req.Subject,
		Body:    req.Body,
	}
}

// ToUpdateCampaignInput converts an UpdateCampaignRequest DTO to a use case input
func ToUpdateCampaignInput(req UpdateCampaignRequest) usecase.UpdateCampaignInput {
	return usecase.UpdateCampaignInput{
		Name:    req.Name,
		Subject: req.Subject,
		Body:    req.Body,
		Status:  req.Status,
	}
}

// ToTriggerExecutionInput converts a TriggerExecutionRequest DTO to a use case input
func ToTriggerExecutionInput(req TriggerExecutionRequest) usecase.TriggerExecutionInput {
	recipients := make([]usecase.RecipientInput, 0, len(req.Recipients))
	for _, recipient := range req.Recipients {
		recipients = append(recipients, usecase.RecipientInput{
			Address:   recipient.Address,
			Variables: recipient.Variables,
		})
	}
	return usecase.TriggerExecutionInput{Recipients: recipients}
}

// ToCampaignResponse converts a domain Campaign model to a CampaignResponse DTO
func ToCampaignResponse(campaign *domain.Campaign) CampaignResponse {
	return CampaignResponse{
		ID:        campaign.ID,
		Name:      campaign.Name,
		Channel:   string(campaign.Channel),
		Subject:   campaign.Subject,
		Body:      campaign.Body,
		Status:    string(campaign.Status),
		CreatedAt: campaign.CreatedAt,
		UpdatedAt: campaign.UpdatedAt,
	}
}

// ToListCampaignsResponse converts a page of domain campaigns to a response DTO
func ToListCampaignsResponse(campaigns []*domain.Campaign) ListCampaignsResponse {
	out := make([]CampaignResponse, 0, len(campaigns))
	for _, campaign := range campaigns {
		out = append(out, ToCampaignResponse(campaign))
	}
	return ListCampaignsResponse{Campaigns: out}
}

// ToExecutionResponse converts a domain Execution model to an ExecutionResponse DTO
func ToExecutionResponse(execution *domain.Execution) ExecutionResponse {
	return ExecutionResponse{
		ID:            execution.ID,
		CampaignID:    execution.CampaignID,
		Status:        string(execution.Status),
		StopRequested: execution.StopRequested,
		StartedAt:     execution.StartedAt,
		FinishedAt:    execution.FinishedAt,
		CreatedAt:     execution.CreatedAt,
	}
}

// ToExecutionStatsResponse converts domain execution stats to a metrics DTO
func ToExecutionStatsResponse(stats domain.ExecutionStats) ExecutionStatsResponse {
	return ExecutionStatsResponse{
		Total:  stats.Total,
		Sent:   stats.Sent,
		Failed: stats.Failed,
		Queued: stats.Queued,
	}
}

// ToExecutionStatusResponse converts a domain Execution to the execution-plus-metrics DTO
func ToExecutionStatusResponse(execution *domain.Execution) ExecutionStatusResponse {
	return ExecutionStatusResponse{
		Execution: ToExecutionResponse(execution),
		Metrics:   ToExecutionStatsResponse(execution.Stats),
	}
}

// ToListExecutionsResponse converts a page of domain executions to a response DTO
func ToListExecutionsResponse(executions []*domain.Execution) ListExecutionsResponse {
	out := make([]ExecutionStatusResponse, 0, len(executions))
	for _, execution := range executions {
		out = append(out, ToExecutionStatusResponse(execution))
	}
	return ListExecutionsResponse{Executions: out}
}

// ToRecipientResponse converts a domain Recipient model to a RecipientResponse DTO
func ToRecipientResponse(recipient *domain.Recipient) RecipientResponse {
	return RecipientResponse{
		ID:           recipient.ID,
		Address:      recipient.Address,
		Status:       string(recipient.Status),
		AttemptCount: recipient.AttemptCount,
		LastError:    recipient.LastError,
		MessageID:    recipient.MessageID,
		Variables:    recipient.Variables,
	}
}

// ToExecutionDetailResponse converts an ExecutionDetail to a response DTO
func ToExecutionDetailResponse(detail *usecase.ExecutionDetail) ExecutionDetailResponse {
	recipients := make([]RecipientResponse, 0, len(detail.Recipients))
	for _, recipient := range detail.Recipients {
		recipients = append(recipients, ToRecipientResponse(recipient))
	}
	return ExecutionDetailResponse{
		Execution:  ToExecutionResponse(detail.Execution),
		Metrics:    ToExecutionStatsResponse(detail.Execution.Stats),
		Recipients: recipients,
	}
}
