// Package main provides the entry point for the application with CLI commands.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/onekeel/swarm/cmd/app/commands"
	"github.com/onekeel/swarm/internal/app"
	"github.com/onekeel/swarm/internal/campaign/usecase"
	"github.com/onekeel/swarm/internal/config"
)

const version = "1.0.0"

// withCampaignUseCase builds the DI container, resolves the campaign use case
// and hands it to fn, shutting the container down afterwards.
func withCampaignUseCase(
	ctx context.Context,
	fn func(ctx context.Context, uc usecase.UseCase, cfg *config.Config, logger *slog.Logger) error,
) error {
	cfg := config.Load()
	container := app.NewContainer(cfg)
	logger := container.Logger()

	campaignUseCase, err := container.CampaignUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize campaign use case: %w", err)
	}

	defer func() {
		if err := container.Shutdown(context.Background()); err != nil {
			logger.Error("failed to shutdown container", slog.Any("error", err))
		}
	}()

	return fn(ctx, campaignUseCase, cfg, logger)
}

func main() {
	cmd := &cli.Command{
		Name:    "app",
		Usage:   "Multi-channel campaign automation service",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:  "server",
				Usage: "Start the HTTP server",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunServer(ctx, version)
				},
			},
			{
				Name:  "migrate",
				Usage: "Run database migrations",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunMigrations()
				},
			},
			{
				Name:  "trigger-campaign",
				Usage: "Start an execution for a campaign with recipients from a JSON file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Aliases:  []string{"i"},
						Required: true,
						Usage:    "Campaign ID (UUID)",
					},
					&cli.StringFlag{
						Name:     "recipients",
						Aliases:  []string{"r"},
						Required: true,
						Usage:    "Path to a JSON file with the recipient list",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "Output format: 'text' or 'json'",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withCampaignUseCase(ctx, func(ctx context.Context, uc usecase.UseCase, cfg *config.Config, logger *slog.Logger) error {
						return commands.RunTriggerCampaign(
							ctx,
							uc,
							logger,
							os.Stdout,
							cmd.String("id"),
							cmd.String("recipients"),
							cmd.String("format"),
						)
					})
				},
			},
			{
				Name:  "clean-executions",
				Usage: "Delete finished executions older than the retention window",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "hours",
						Aliases: []string{"H"},
						Value:   0,
						Usage:   "Retention window in hours (0 uses EXECUTION_RETENTION_HOURS)",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "Output format: 'text' or 'json'",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withCampaignUseCase(ctx, func(ctx context.Context, uc usecase.UseCase, cfg *config.Config, logger *slog.Logger) error {
						retention := cfg.ExecutionRetention
						if hours := cmd.Int("hours"); hours > 0 {
							retention = time.Duration(hours) * time.Hour
						}
						return commands.RunCleanExecutions(
							ctx,
							uc,
							logger,
							os.Stdout,
							retention,
							cmd.String("format"),
						)
					})
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
}
