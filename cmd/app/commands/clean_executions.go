package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/onekeel/swarm/internal/campaign/usecase"
)

// RunCleanExecutions deletes terminal executions older than the given
// retention window, along with their recipient records. Supports text and
// JSON output formats.
//
// Requirements: Database must be migrated and accessible.
func RunCleanExecutions(
	ctx context.Context,
	campaignUseCase usecase.UseCase,
	logger *slog.Logger,
	out io.Writer,
	retention time.Duration,
	format string,
) error {
	if retention <= 0 {
		return fmt.Errorf("retention must be a positive duration, got: %s", retention)
	}

	logger.Info("cleaning finished executions",
		slog.Duration("retention", retention),
	)

	count, err := campaignUseCase.CleanExecutions(ctx, retention)
	if err != nil {
		return fmt.Errorf("failed to clean executions: %w", err)
	}

	if format == "json" {
		result := map[string]interface{}{
			"count":     count,
			"retention": retention.String(),
		}
		jsonBytes, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(out, string(jsonBytes))
	} else {
		fmt.Fprintf(out, "Successfully deleted %d execution(s) older than %s\n", count, retention)
	}

	logger.Info("cleanup completed",
		slog.Int64("count", count),
		slog.Duration("retention", retention),
	)

	return nil
}
