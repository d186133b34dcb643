// Package repository provides data persistence implementations for campaigns,
// executions and their recipients.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/onekeel/swarm/internal/campaign/domain"
	"github.com/onekeel/swarm/internal/database"

	apperrors "github.com/onekeel/swarm/internal/errors"
)

// PostgreSQLCampaignRepository handles campaign persistence for PostgreSQL
type PostgreSQLCampaignRepository struct {
	db *sql.DB
}

// NewPostgreSQLCampaignRepository creates a new PostgreSQLCampaignRepository
func NewPostgreSQLCampaignRepository(db *sql.DB) *PostgreSQLCampaignRepository {
	return &PostgreSQLCampaignRepository{
		db: db,
	}
}

// Create inserts a new campaign
func (r *PostgreSQLCampaignRepository) Create(ctx context.Context, campaign *domain.Campaign) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO campaigns (id, name, channel, subject, body, status, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query,
		campaign.ID, campaign.Name, campaign.Channel, campaign.Subject, campaign.Body, campaign.Status,
	)
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
			return domain.ErrCampaignAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create campaign")
	}
	return nil
}

// GetByID retrieves a campaign by ID
func (r *PostgreSQLCampaignRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	var campaign domain.Campaign
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, channel, subject, body, status, created_at, updated_at
			  FROM campaigns WHERE id = $1`

	err := querier.QueryRowContext(ctx, query, id).Scan(
		&campaign.ID, &campaign.Name, &campaign.Channel, &campaign.Subject,
		&campaign.Body, &campaign.Status, &campaign.CreatedAt, &campaign.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCampaignNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get campaign by id")
	}

	return &campaign, nil
}

// List retrieves campaigns ordered by creation time, newest first
func (r *PostgreSQLCampaignRepository) List(ctx context.Context, offset, limit int) ([]*domain.Campaign, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, channel, subject, body, status, created_at, updated_at
			  FROM campaigns ORDER BY created_at DESC OFFSET $1 LIMIT $2`

	rows, err := querier.QueryContext(ctx, query, offset, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list campaigns")
	}
	defer rows.Close()

	var campaigns []*domain.Campaign
	for rows.Next() {
		var campaign domain.Campaign
		err := rows.Scan(
			&campaign.ID, &campaign.Name, &campaign.Channel, &campaign.Subject,
			&campaign.Body, &campaign.Status, &campaign.CreatedAt, &campaign.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan campaign")
		}
		campaigns = append(campaigns, &campaign)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate campaigns")
	}

	return campaigns, nil
}

// Update persists mutable campaign fields
func (r *PostgreSQLCampaignRepository) Update(ctx context.Context, campaign *domain.Campaign) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE campaigns SET name = $1, subject = $2, body = $3, status = $4, updated_at = NOW()
			  WHERE id = $5`

	result, err := querier.ExecContext(ctx, query,
		campaign.Name, campaign.Subject, campaign.Body, campaign.Status, campaign.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update campaign")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if affected == 0 {
		return domain.ErrCampaignNotFound
	}
	return nil
}

// isPostgreSQLUniqueViolation checks if the error is a PostgreSQL unique constraint violation
func isPostgreSQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	// PostgreSQL: "duplicate key value violates unique constraint" or "pq: duplicate key"
	return strings.Contains(errMsg, "duplicate key") || strings.Contains(errMsg, "unique constraint")
}
