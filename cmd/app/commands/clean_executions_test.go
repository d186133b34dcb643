package commands

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	campaignMocks "github.com/onekeel/swarm/internal/campaign/http/mocks"
)

func TestRunCleanExecutions(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	retention := 720 * time.Hour

	t.Run("text-output", func(t *testing.T) {
		mockUseCase := &campaignMocks.MockCampaignUseCase{}
		mockUseCase.On("CleanExecutions", mock.Anything, retention).Return(int64(100), nil)

		var out bytes.Buffer
		err := RunCleanExecutions(ctx, mockUseCase, logger, &out, retention, "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "Successfully deleted 100 execution(s)")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("json-output", func(t *testing.T) {
		mockUseCase := &campaignMocks.MockCampaignUseCase{}
		mockUseCase.On("CleanExecutions", mock.Anything, retention).Return(int64(50), nil)

		var out bytes.Buffer
		err := RunCleanExecutions(ctx, mockUseCase, logger, &out, retention, "json")

		require.NoError(t, err)
		require.Contains(t, out.String(), `"count": 50`)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("invalid-retention", func(t *testing.T) {
		mockUseCase := &campaignMocks.MockCampaignUseCase{}
		err := RunCleanExecutions(ctx, mockUseCase, logger, &bytes.Buffer{}, 0, "text")

		require.Error(t, err)
		require.Contains(t, err.Error(), "retention must be a positive duration")
	})
}
