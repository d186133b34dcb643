package usecase

import (
	"context"
	"strings"
	"time"

	validation "github.com/jellydator/validation"

	"github.com/google/uuid"

	"github.com/onekeel/swarm/internal/campaign/domain"
	"github.com/onekeel/swarm/internal/database"

	apperrors "github.com/onekeel/swarm/internal/errors"
	appValidation "github.com/onekeel/swarm/internal/validation"
)

// CampaignUseCase handles campaign-related business logic
type CampaignUseCase struct {
	txManager     database.TxManager
	campaignRepo  CampaignRepository
	executionRepo ExecutionRepository
	recipientRepo RecipientRepository
	queue         ExecutionQueue
}

// NewCampaignUseCase creates a new CampaignUseCase
func NewCampaignUseCase(
	txManager database.TxManager,
	campaignRepo CampaignRepository,
	executionRepo ExecutionRepository,
	recipientRepo RecipientRepository,
	queue ExecutionQueue,
) UseCase {
	return &CampaignUseCase{
		txManager:     txManager,
		campaignRepo:  campaignRepo,
		executionRepo: executionRepo,
		recipientRepo: recipientRepo,
		queue:         queue,
	}
}

// validateCreateCampaignInput validates the campaign creation input
func (uc *CampaignUseCase) validateCreateCampaignInput(input CreateCampaignInput) error {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.Name,
			validation.Required.Error("name is required"),
			appValidation.NotBlank,
			validation.Length(1, 255).Error("name must be between 1 and 255 characters"),
		),
		validation.Field(&input.Channel,
			validation.Required.Error("channel is required"),
			appValidation.Channel,
		),
		validation.Field(&input.Body,
			validation.Required.Error("body is required"),
			appValidation.NotBlank,
		),
		validation.Field(&input.Subject,
			validation.Length(0, 998).Error("subject must be at most 998 characters"),
		),
	)
	return appValidation.WrapValidationError(err)
}

// CreateCampaign creates a new campaign in the draft state
func (uc *CampaignUseCase) CreateCampaign(ctx context.Context, input CreateCampaignInput) (*domain.Campaign, error) {
	if err := uc.validateCreateCampaignInput(input); err != nil {
		return nil, err
	}

	campaign := &domain.Campaign{
		ID:      uuid.Must(uuid.NewV7()),
		Name:    strings.TrimSpace(input.Name),
		Channel: domain.Channel(input.Channel),
		Subject: input.Subject,
		Body:    input.Body,
		Status:  domain.CampaignDraft,
	}

	if err := uc.campaignRepo.Create(ctx, campaign); err != nil {
		return nil, err
	}

	return campaign, nil
}

// GetCampaign retrieves a campaign by ID
func (uc *CampaignUseCase) GetCampaign(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	return uc.campaignRepo.GetByID(ctx, id)
}

// ListCampaigns retrieves campaigns with pagination
func (uc *CampaignUseCase) ListCampaigns(ctx context.Context, offset, limit int) ([]*domain.Campaign, error) {
	return uc.campaignRepo.List(ctx, offset, limit)
}

// validateUpdateCampaignInput validates the campaign update input. Empty
// fields mean "leave unchanged" and are skipped by the string rules.
func (uc *CampaignUseCase) validateUpdateCampaignInput(input UpdateCampaignInput) error {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.Name,
			appValidation.NotBlank,
			validation.Length(1, 255).Error("name must be between 1 and 255 characters"),
		),
		validation.Field(&input.Body,
			appValidation.NotBlank,
		),
		validation.Field(&input.Status,
			validation.In(
				string(domain.CampaignDraft),
				string(domain.CampaignActive),
				string(domain.CampaignArchived),
			).Error("status must be one of: draft, active, archived"),
		),
	)
	return appValidation.WrapValidationError(err)
}

// UpdateCampaign updates the mutable fields of a campaign
func (uc *CampaignUseCase) UpdateCampaign(ctx context.Context, id uuid.UUID, input UpdateCampaignInput) (*domain.Campaign, error) {
	if err := uc.validateUpdateCampaignInput(input); err != nil {
		return nil, err
	}

	campaign, err := uc.campaignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		campaign.Name = name
	}
	if input.Subject != "" {
		campaign.Subject = input.Subject
	}
	if input.Body != "" {
		campaign.Body = input.Body
	}
	if input.Status != "" {
		campaign.Status = domain.CampaignStatus(input.Status)
	}

	if err := uc.campaignRepo.Update(ctx, campaign); err != nil {
		return nil, err
	}

	return campaign, nil
}

// validateTriggerExecutionInput validates the execution trigger input.
// Addresses are validated against the campaign channel.
func (uc *CampaignUseCase) validateTriggerExecutionInput(campaign *domain.Campaign, input TriggerExecutionInput) error {
	if len(input.Recipients) == 0 {
		return domain.ErrEmptyAudience
	}

	for _, recipient := range input.Recipients {
		rules := []validation.Rule{
			validation.Required.Error("address is required"),
			appValidation.NotBlank,
		}
		switch campaign.Channel {
		case domain.ChannelEmail:
			rules = append(rules, appValidation.Email)
		case domain.ChannelSMS:
			rules = append(rules, appValidation.Phone)
		}

		if err := validation.Validate(recipient.Address, rules...); err != nil {
			return appValidation.WrapValidationError(err)
		}
	}

	return nil
}

// TriggerExecution enrolls the audience and enqueues a new execution.
// The execution and its recipients are created atomically; the runner picks
// the execution up after the transaction commits.
func (uc *CampaignUseCase) TriggerExecution(ctx context.Context, campaignID uuid.UUID, input TriggerExecutionInput) (*domain.Execution, error) {
	campaign, err := uc.campaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.Status != domain.CampaignActive {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "campaign is not active")
	}

	if err := uc.validateTriggerExecutionInput(campaign, input); err != nil {
		return nil, err
	}

	total := len(input.Recipients)
	execution := &domain.Execution{
		ID:         uuid.Must(uuid.NewV7()),
		CampaignID: campaign.ID,
		Status:     domain.ExecutionQueued,
		Stats:      domain.ExecutionStats{Total: total, Queued: total},
	}

	recipients := make([]*domain.Recipient, 0, total)
	for i, recipientInput := range input.Recipients {
		recipients = append(recipients, &domain.Recipient{
			ID:          uuid.Must(uuid.NewV7()),
			ExecutionID: execution.ID,
			Address:     strings.TrimSpace(recipientInput.Address),
			Status:      domain.RecipientQueued,
			Variables:   recipientInput.Variables,
			Position:    i,
		})
	}

	err = uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := uc.executionRepo.Create(ctx, execution); err != nil {
			return err
		}
		return uc.recipientRepo.BulkCreate(ctx, recipients)
	})
	if err != nil {
		return nil, err
	}

	if err := uc.queue.Enqueue(execution.ID); err != nil {
		return nil, apperrors.Wrap(err, "failed to enqueue execution")
	}

	return execution, nil
}

// GetExecution retrieves an execution with its recipient delivery records
func (uc *CampaignUseCase) GetExecution(ctx context.Context, id uuid.UUID) (*ExecutionDetail, error) {
	execution, err := uc.executionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	recipients, err := uc.recipientRepo.ListByExecution(ctx, id)
	if err != nil {
		return nil, err
	}

	return &ExecutionDetail{Execution: execution, Recipients: recipients}, nil
}

// ListExecutions retrieves executions for a campaign with pagination
func (uc *CampaignUseCase) ListExecutions(ctx context.Context, campaignID uuid.UUID, offset, limit int) ([]*domain.Execution, error) {
	if _, err := uc.campaignRepo.GetByID(ctx, campaignID); err != nil {
		return nil, err
	}
	return uc.executionRepo.ListByCampaign(ctx, campaignID, offset, limit)
}

// StopExecution flags an execution for cancellation. Recipients already
// attempted keep their outcome; untouched recipients stay queued.
func (uc *CampaignUseCase) StopExecution(ctx context.Context, id uuid.UUID) error {
	if err := uc.executionRepo.RequestStop(ctx, id); err != nil {
		return err
	}

	uc.queue.Stop(id)
	return nil
}

// CleanExecutions deletes terminal executions older than the retention window
func (uc *CampaignUseCase) CleanExecutions(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)
	return uc.executionRepo.DeleteFinishedBefore(ctx, cutoff)
}
