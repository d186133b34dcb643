// Package usecase implements the campaign business logic: campaign lifecycle,
// execution triggering and the background runner that delivers recipients.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/onekeel/swarm/internal/campaign/domain"
)

// CampaignRepository interface defines campaign repository operations
type CampaignRepository interface {
	Create(ctx context.Context, campaign *domain.Campaign) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Campaign, error)
	List(ctx context.Context, offset, limit int) ([]*domain.Campaign, error)
	Update(ctx context.Context, campaign *domain.Campaign) error
}

// ExecutionRepository interface defines execution repository operations
type ExecutionRepository interface {
	Create(ctx context.Context, execution *domain.Execution) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Execution, error)
	ListByCampaign(ctx context.Context, campaignID uuid.UUID, offset, limit int) ([]*domain.Execution, error)
	MarkRunning(ctx context.Context, id uuid.UUID, startedAt time.Time) error
	Finish(ctx context.Context, id uuid.UUID, status domain.ExecutionStatus, stats domain.ExecutionStats, finishedAt time.Time) error
	UpdateStats(ctx context.Context, id uuid.UUID, stats domain.ExecutionStats) error
	RequestStop(ctx context.Context, id uuid.UUID) error
	DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RecipientRepository interface defines recipient repository operations
type RecipientRepository interface {
	BulkCreate(ctx context.Context, recipients []*domain.Recipient) error
	ListByExecution(ctx context.Context, executionID uuid.UUID) ([]*domain.Recipient, error)
	MarkSent(ctx context.Context, id uuid.UUID, messageID string) error
	MarkFailed(ctx context.Context, id uuid.UUID, sendErr string) error
	CountByStatus(ctx context.Context, executionID uuid.UUID) (domain.ExecutionStats, error)
}

// ExecutionQueue accepts execution ids for background processing.
type ExecutionQueue interface {
	// Enqueue hands a queued execution to the runner. Returns an error when
	// the queue is full or the runner is shut down.
	Enqueue(executionID uuid.UUID) error
	// Stop flags an in-flight execution for cancellation.
	Stop(executionID uuid.UUID)
}

// ExecutionNotifier receives execution lifecycle events. Implemented by the
// agent hub bridge and the realtime broadcaster.
type ExecutionNotifier interface {
	// ExecutionFinished is called exactly once per execution, after its
	// terminal status and stats are persisted.
	ExecutionFinished(ctx context.Context, campaign *domain.Campaign, execution *domain.Execution)
}

// CreateCampaignInput contains the input data for campaign creation
type CreateCampaignInput struct {
	Name    string `json:"name"`
	Channel string `json:"channel"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// UpdateCampaignInput contains the input data for campaign updates
type UpdateCampaignInput struct {
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Status  string `json:"status"`
}

// RecipientInput is one audience member of a triggered execution
type RecipientInput struct {
	Address   string            `json:"address"`
	Variables map[string]string `json:"variables"`
}

// TriggerExecutionInput contains the audience for one execution
type TriggerExecutionInput struct {
	Recipients []RecipientInput `json:"recipients"`
}

// ExecutionDetail pairs an execution with its per-recipient delivery records
type ExecutionDetail struct {
	Execution  *domain.Execution
	Recipients []*domain.Recipient
}

// UseCase defines the interface for campaign business logic operations
type UseCase interface {
	CreateCampaign(ctx context.Context, input CreateCampaignInput) (*domain.Campaign, error)
	GetCampaign(ctx context.Context, id uuid.UUID) (*domain.Campaign, error)
	ListCampaigns(ctx context.Context, offset, limit int) ([]*domain.Campaign, error)
	UpdateCampaign(ctx context.Context, id uuid.UUID, input UpdateCampaignInput) (*domain.Campaign, error)
	TriggerExecution(ctx context.Context, campaignID uuid.UUID, input TriggerExecutionInput) (*domain.Execution, error)
	GetExecution(ctx context.Context, id uuid.UUID) (*ExecutionDetail, error)
	ListExecutions(ctx context.Context, campaignID uuid.UUID, offset, limit int) ([]*domain.Execution, error)
	StopExecution(ctx context.Context, id uuid.UUID) error
	CleanExecutions(ctx context.Context, retention time.Duration) (int64, error)
}
