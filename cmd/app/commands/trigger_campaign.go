package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/onekeel/swarm/internal/campaign/usecase"
)

// RunTriggerCampaign starts an execution for a campaign with recipients read
// from a JSON file. The file must contain an array of objects with "address"
// and optional "variables" fields. Supports text and JSON output formats.
//
// Requirements: Database must be migrated and accessible, campaign must exist
// and be active.
func RunTriggerCampaign(
	ctx context.Context,
	campaignUseCase usecase.UseCase,
	logger *slog.Logger,
	out io.Writer,
	campaignID string,
	recipientsFile string,
	format string,
) error {
	id, err := uuid.Parse(campaignID)
	if err != nil {
		return fmt.Errorf("invalid campaign id: %w", err)
	}

	recipients, err := loadRecipients(recipientsFile)
	if err != nil {
		return err
	}

	logger.Info("triggering campaign execution",
		slog.String("campaign_id", campaignID),
		slog.Int("recipients", len(recipients)),
	)

	execution, err := campaignUseCase.TriggerExecution(ctx, id, usecase.TriggerExecutionInput{
		Recipients: recipients,
	})
	if err != nil {
		return fmt.Errorf("failed to trigger execution: %w", err)
	}

	if format == "json" {
		result := map[string]interface{}{
			"execution_id": execution.ID.String(),
			"campaign_id":  execution.CampaignID.String(),
			"status":       string(execution.Status),
			"total":        execution.Stats.Total,
		}
		jsonBytes, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(out, string(jsonBytes))
	} else {
		fmt.Fprintf(out, "Execution %s started for campaign %s with %d recipient(s)\n",
			execution.ID, execution.CampaignID, execution.Stats.Total)
	}

	logger.Info("execution queued",
		slog.String("execution_id", execution.ID.String()),
	)

	return nil
}

// loadRecipients reads and decodes the recipients file.
func loadRecipients(path string) ([]usecase.RecipientInput, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("failed to read recipients file: %w", err)
	}

	var recipients []usecase.RecipientInput
	if err := json.Unmarshal(data, &recipients); err != nil {
		return nil, fmt.Errorf("failed to parse recipients file: %w", err)
	}

	return recipients, nil
}
