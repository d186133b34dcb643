package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/onekeel/swarm/internal/campaign/domain"
	"github.com/onekeel/swarm/internal/database"

	apperrors "github.com/onekeel/swarm/internal/errors"
)

// PostgreSQLExecutionRepository handles execution persistence for PostgreSQL
type PostgreSQLExecutionRepository struct {
	db *sql.DB
}

// NewPostgreSQLExecutionRepository creates a new PostgreSQLExecutionRepository
func NewPostgreSQLExecutionRepository(db *sql.DB) *PostgreSQLExecutionRepository {
	return &PostgreSQLExecutionRepository{
		db: db,
	}
}

// Create inserts a new execution in the queued state
func (r *PostgreSQLExecutionRepository) Create(ctx context.Context, execution *domain.Execution) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO campaign_executions
			  (id, campaign_id, status, total, sent, failed, queued, stop_requested, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())`

	_, err := querier.ExecContext(ctx, query,
		execution.ID, execution.CampaignID, execution.Status,
		execution.Stats.Total, execution.Stats.Sent, execution.Stats.Failed, execution.Stats.Queued,
		execution.StopRequested,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create execution")
	}
	return nil
}

// GetByID retrieves an execution by ID
func (r *PostgreSQLExecutionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Execution, error) {
	var execution domain.Execution
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, campaign_id, status, total, sent, failed, queued, stop_requested,
			  started_at, finished_at, created_at
			  FROM campaign_executions WHERE id = $1`

	err := querier.QueryRowContext(ctx, query, id).Scan(
		&execution.ID, &execution.CampaignID, &execution.Status,
		&execution.Stats.Total, &execution.Stats.Sent, &execution.Stats.Failed, &execution.Stats.Queued,
		&execution.StopRequested, &execution.StartedAt, &execution.FinishedAt, &execution.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrExecutionNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get execution by id")
	}

	return &execution, nil
}

// ListByCampaign retrieves executions for a campaign, newest first
func (r *PostgreSQLExecutionRepository) ListByCampaign(ctx context.Context, campaignID uuid.UUID, offset, limit int) ([]*domain.Execution, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, campaign_id, status, total, sent, failed, queued, stop_requested,
			  started_at, finished_at, created_at
			  FROM campaign_executions WHERE campaign_id = $1
			  ORDER BY created_at DESC OFFSET $2 LIMIT $3`

	rows, err := querier.QueryContext(ctx, query, campaignID, offset, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list executions")
	}
	defer rows.Close()

	var executions []*domain.Execution
	for rows.Next() {
		var execution domain.Execution
		err := rows.Scan(
			&execution.ID, &execution.CampaignID, &execution.Status,
			&execution.Stats.Total, &execution.Stats.Sent, &execution.Stats.Failed, &execution.Stats.Queued,
			&execution.StopRequested, &execution.StartedAt, &execution.FinishedAt, &execution.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan execution")
		}
		executions = append(executions, &execution)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate executions")
	}

	return executions, nil
}

// MarkRunning transitions a queued execution to running and records the start time
func (r *PostgreSQLExecutionRepository) MarkRunning(ctx context.Context, id uuid.UUID, startedAt time.Time) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE campaign_executions SET status = $1, started_at = $2
			  WHERE id = $3 AND status = $4`

	result, err := querier.ExecContext(ctx, query, domain.ExecutionRunning, startedAt, id, domain.ExecutionQueued)
	if err != nil {
		return apperrors.Wrap(err, "failed to mark execution running")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if affected == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}

// Finish transitions a running execution to a terminal state with final stats
func (r *PostgreSQLExecutionRepository) Finish(ctx context.Context, id uuid.UUID, status domain.ExecutionStatus, stats domain.ExecutionStats, finishedAt time.Time) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE campaign_executions
			  SET status = $1, total = $2, sent = $3, failed = $4, queued = $5, finished_at = $6
			  WHERE id = $7 AND status IN ($8, $9)`

	result, err := querier.ExecContext(ctx, query,
		status, stats.Total, stats.Sent, stats.Failed, stats.Queued, finishedAt,
		id, domain.ExecutionQueued, domain.ExecutionRunning,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to finish execution")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if affected == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}

// UpdateStats persists running counters without changing the status
func (r *PostgreSQLExecutionRepository) UpdateStats(ctx context.Context, id uuid.UUID, stats domain.ExecutionStats) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE campaign_executions SET total = $1, sent = $2, failed = $3, queued = $4
			  WHERE id = $5`

	result, err := querier.ExecContext(ctx, query, stats.Total, stats.Sent, stats.Failed, stats.Queued, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to update execution stats")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if affected == 0 {
		return domain.ErrExecutionNotFound
	}
	return nil
}

// RequestStop sets the stop flag on a non-terminal execution
func (r *PostgreSQLExecutionRepository) RequestStop(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE campaign_executions SET stop_requested = TRUE
			  WHERE id = $1 AND status IN ($2, $3)`

	result, err := querier.ExecContext(ctx, query, id, domain.ExecutionQueued, domain.ExecutionRunning)
	if err != nil {
		return apperrors.Wrap(err, "failed to request execution stop")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if affected == 0 {
		return domain.ErrExecutionTerminal
	}
	return nil
}

// DeleteFinishedBefore removes terminal executions older than the cutoff and
// returns the number of rows deleted. Recipients cascade at the schema level.
func (r *PostgreSQLExecutionRepository) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	query := `DELETE FROM campaign_executions
			  WHERE finished_at IS NOT NULL AND finished_at < $1`

	result, err := querier.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete finished executions")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get affected rows")
	}
	return affected, nil
}
