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

// MySQLCampaignRepository handles campaign persistence for MySQL
type MySQLCampaignRepository struct {
	db *sql.DB
}

// NewMySQLCampaignRepository creates a new MySQLCampaignRepository
func NewMySQLCampaignRepository(db *sql.DB) *MySQLCampaignRepository {
	return &MySQLCampaignRepository{
		db: db,
	}
}

// Create inserts a new campaign
func (r *MySQLCampaignRepository) Create(ctx context.Context, campaign *domain.Campaign) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO campaigns (id, name, channel, subject, body, status, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, NOW(), NOW())`

	// Convert UUID to bytes for MySQL BINARY(16)
	uuidBytes, err := campaign.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	_, err = querier.ExecContext(ctx, query,
		uuidBytes, campaign.Name, campaign.Channel, campaign.Subject, campaign.Body, campaign.Status,
	)
	if err != nil {
		if isMySQLUniqueViolation(err) {
			return domain.ErrCampaignAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create campaign")
	}
	return nil
}

// GetByID retrieves a campaign by ID
func (r *MySQLCampaignRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	var campaign domain.Campaign
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, channel, subject, body, status, created_at, updated_at
			  FROM campaigns WHERE id = ?`

	// Convert UUID to bytes for MySQL BINARY(16)
	uuidBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}

	var idBytes []byte
	err = querier.QueryRowContext(ctx, query, uuidBytes).Scan(
		&idBytes, &campaign.Name, &campaign.Channel, &campaign.Subject,
		&campaign.Body, &campaign.Status, &campaign.CreatedAt, &campaign.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCampaignNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get campaign by id")
	}

	// Convert bytes back to UUID
	if err := campaign.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
	}

	return &campaign, nil
}

// List retrieves campaigns ordered by creation time, newest first
func (r *MySQLCampaignRepository) List(ctx context.Context, offset, limit int) ([]*domain.Campaign, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, channel, subject, body, status, created_at, updated_at
			  FROM campaigns ORDER BY created_at DESC LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list campaigns")
	}
	defer rows.Close()

	var campaigns []*domain.Campaign
	for rows.Next() {
		var campaign domain.Campaign
		var idBytes []byte
		err := rows.Scan(
			&idBytes, &campaign.Name, &campaign.Channel, &campaign.Subject,
			&campaign.Body, &campaign.Status, &campaign.CreatedAt, &campaign.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan campaign")
		}
		if err := campaign.ID.UnmarshalBinary(idBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
		}
		campaigns = append(campaigns, &campaign)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate campaigns")
	}

	return campaigns, nil
}

// Update persists mutable campaign fields
func (r *MySQLCampaignRepository) Update(ctx context.Context, campaign *domain.Campaign) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE campaigns SET name = ?, subject = ?, body = ?, status = ?, updated_at = NOW()
			  WHERE id = ?`

	uuidBytes, err := campaign.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	result, err := querier.ExecContext(ctx, query,
		campaign.Name, campaign.Subject, campaign.Body, campaign.Status, uuidBytes,
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

// isMySQLUniqueViolation checks if the error is a MySQL unique constraint violation
func isMySQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	// MySQL: "Error 1062: Duplicate entry"
	return strings.Contains(errMsg, "duplicate entry") || strings.Contains(errMsg, "1062")
}
