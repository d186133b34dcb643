// Package mocks provides testify mocks for the campaign HTTP layer.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/onekeel/swarm/internal/campaign/domain"
	"github.com/onekeel/swarm/internal/campaign/usecase"
)

// MockCampaignUseCase is a mock implementation of usecase.UseCase.
type MockCampaignUseCase struct {
	mock.Mock
}

func (m *MockCampaignUseCase) CreateCampaign(ctx context.Context, input usecase.CreateCampaignInput) (*domain.Campaign, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Campaign), args.Error(1)
}

func (m *MockCampaignUseCase) GetCampaign(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Campaign), args.Error(1)
}

func (m *MockCampaignUseCase) ListCampaigns(ctx context.Context, offset, limit int) ([]*domain.Campaign, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Campaign), args.Error(1)
}

func (m *MockCampaignUseCase) UpdateCampaign(ctx context.Context, id uuid.UUID, input usecase.UpdateCampaignInput) (*domain.Campaign, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Campaign), args.Error(1)
}

func (m *MockCampaignUseCase) TriggerExecution(ctx context.Context, campaignID uuid.UUID, input usecase.TriggerExecutionInput) (*domain.Execution, error) {
	args := m.Called(ctx, campaignID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Execution), args.Error(1)
}

func (m *MockCampaignUseCase) GetExecution(ctx context.Context, id uuid.UUID) (*usecase.ExecutionDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.ExecutionDetail), args.Error(1)
}

func (m *MockCampaignUseCase) ListExecutions(ctx context.Context, campaignID uuid.UUID, offset, limit int) ([]*domain.Execution, error) {
	args := m.Called(ctx, campaignID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Execution), args.Error(1)
}

func (m *MockCampaignUseCase) StopExecution(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCampaignUseCase) CleanExecutions(ctx context.Context, retention time.Duration) (int64, error) {
	args := m.Called(ctx, retention)
	return args.Get(0).(int64), args.Error(1)
}
