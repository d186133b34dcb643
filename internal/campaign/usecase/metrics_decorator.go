package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/onekeel/swarm/internal/campaign/domain"
	"github.com/onekeel/swarm/internal/metrics"
)

// useCaseWithMetrics decorates UseCase with metrics instrumentation.
type useCaseWithMetrics struct {
	next    UseCase
	metrics metrics.BusinessMetrics
}

// NewUseCaseWithMetrics wraps a UseCase with metrics recording.
func NewUseCaseWithMetrics(useCase UseCase, m metrics.BusinessMetrics) UseCase {
	return &useCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// record emits the operation counter and duration histogram for one call.
func (u *useCaseWithMetrics) record(ctx context.Context, domain, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	u.metrics.RecordOperation(ctx, domain, operation, status)
	u.metrics.RecordDuration(ctx, domain, operation, time.Since(start), status)
}

// CreateCampaign records metrics for campaign creation operations.
func (u *useCaseWithMetrics) CreateCampaign(ctx context.Context, input CreateCampaignInput) (*domain.Campaign, error) {
	start := time.Now()
	campaign, err := u.next.CreateCampaign(ctx, input)
	u.record(ctx, "campaign", "campaign_create", start, err)
	return campaign, err
}

// GetCampaign records metrics for campaign retrieval operations.
func (u *useCaseWithMetrics) GetCampaign(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	start := time.Now()
	campaign, err := u.next.GetCampaign(ctx, id)
	u.record(ctx, "campaign", "campaign_get", start, err)
	return campaign, err
}

// ListCampaigns records metrics for campaign list operations.
func (u *useCaseWithMetrics) ListCampaigns(ctx context.Context, offset, limit int) ([]*domain.Campaign, error) {
	start := time.Now()
	campaigns, err := u.next.ListCampaigns(ctx, offset, limit)
	u.record(ctx, "campaign", "campaign_list", start, err)
	return campaigns, err
}

// UpdateCampaign records metrics for campaign update operations.
func (u *useCaseWithMetrics) UpdateCampaign(ctx context.Context, id uuid.UUID, input UpdateCampaignInput) (*domain.Campaign, error) {
	start := time.Now()
	campaign, err := u.next.UpdateCampaign(ctx, id, input)
	u.record(ctx, "campaign", "campaign_update", start, err)
	return campaign, err
}

// TriggerExecution records metrics for execution trigger operations.
func (u *useCaseWithMetrics) TriggerExecution(ctx context.Context, campaignID uuid.UUID, input TriggerExecutionInput) (*domain.Execution, error) {
	start := time.Now()
	execution, err := u.next.TriggerExecution(ctx, campaignID, input)
	u.record(ctx, "execution", "execution_trigger", start, err)
	return execution, err
}

// GetExecution records metrics for execution retrieval operations.
func (u *useCaseWithMetrics) GetExecution(ctx context.Context, id uuid.UUID) (*ExecutionDetail, error) {
	start := time.Now()
	detail, err := u.next.GetExecution(ctx, id)
	u.record(ctx, "execution", "execution_get", start, err)
	return detail, err
}

// ListExecutions records metrics for execution list operations.
func (u *useCaseWithMetrics) ListExecutions(ctx context.Context, campaignID uuid.UUID, offset, limit int) ([]*domain.Execution, error) {
	start := time.Now()
	executions, err := u.next.ListExecutions(ctx, campaignID, offset, limit)
	u.record(ctx, "execution", "execution_list", start, err)
	return executions, err
}

// StopExecution records metrics for execution stop operations.
func (u *useCaseWithMetrics) StopExecution(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	err := u.next.StopExecution(ctx, id)
	u.record(ctx, "execution", "execution_stop", start, err)
	return err
}

// CleanExecutions records metrics for execution cleanup operations.
func (u *useCaseWithMetrics) CleanExecutions(ctx context.Context, retention time.Duration) (int64, error) {
	start := time.Now()
	deleted, err := u.next.CleanExecutions(ctx, retention)
	u.record(ctx, "execution", "execution_clean", start, err)
	return deleted, err
}
