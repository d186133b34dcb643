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

// MySQLExecutionRepository handles execution persistence for MySQL
type MySQLExecutionRepository struct {
	db *sql.DB
}

// NewMySQLExecutionRepository creates a new MySQLExecutionRepository
func NewMySQLExecutionRepository(db *sql.DB) *MySQLExecutionRepository {
	return &MySQLExecutionRepository{
		db: db,
	}
}

// Create inserts a new execution in the queued state
func (r *MySQLExecutionRepository) Create(ctx context.Context, execution *domain.Execution) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO campaign_executions
			  (id, campaign_id, status, total, sent, failed, queued, stop_requested, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, NOW())`

	idBytes, err := execution.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}
	campaignIDBytes, err := execution.CampaignID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	_, err = querier.ExecContext(ctx, query,
		idBytes, campaignIDBytes, execution.Status,
		execution.Stats.Total, execution.Stats.Sent, execution.Stats.Failed, execution.Stats.Queued,
		execution.StopRequested,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create execution")
	}
	return nil
}

// GetByID retrieves an execution by ID
func (r *MySQLExecutionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Execution, error) {
	var execution domain.Execution
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, campaign_id, status, total, sent, failed, queued, stop_requested,
			  started_at, finished_at, created_at
			  FROM campaign_executions WHERE id = ?`

	uuidBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}

	var idBytes, campaignIDBytes []byte
	err = querier.QueryRowContext(ctx, query, uuidBytes).Scan(
		&idBytes, &campaignIDBytes, &execution.Status,
		&execution.Stats.Total, &execution.Stats.Sent, &execution.Stats.Failed, &execution.Stats.Queued,
		&execution.StopRequested, &execution.StartedAt, &execution.FinishedAt, &execution.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrExecutionNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get execution by id")
	}

	if err := execution.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
	}
	if err := execution.CampaignID.UnmarshalBinary(campaignIDBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
	}

	return &execution, nil
}

// ListByCampaign retrieves executions for a campaign, newest first
func (r *MySQLExecutionRepository) ListByCampaign(ctx context.Context, campaignID uuid.UUID, offset, limit int) ([]*domain.Execution, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, campaign_id, status, total, sent, failed, queued, stop_requested,
			  started_at, finished_at, created_at
			  FROM campaign_executions WHERE campaign_id = ?
			  ORDER BY created_at DESC LIMIT ? OFFSET ?`

	campaignIDValue, err := campaignID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}

	rows, err := querier.QueryContext(ctx, query, campaignIDValue, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list executions")
	}
	defer rows.Close()

	var executions []*domain.Execution
	for rows.Next() {
		var execution domain.Execution
		var idBytes, campaignIDBytes []byte
		err := rows.Scan(
			&idBytes, &campaignIDBytes, &execution.Status,
			&execution.Stats.Total, &execution.Stats.Sent, &execution.Stats.Failed, &execution.Stats.Queued,
			&execution.StopRequested, &execution.StartedAt, &execution.FinishedAt, &execution.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan execution")
		}
		if err := execution.ID.UnmarshalBinary(idBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
		}
		if err := execution.CampaignID.UnmarshalBinary(campaignIDBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
		}
		executions = append(executions, &execution)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate executions")
	}

	return executions, nil
}

// MarkRunning transitions a queued execution to running and records the start time
func (r *MySQLExecutionRepository) MarkRunning(ctx context.Context, id uuid.UUID, startedAt time.Time) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE campaign_executions SET status = ?, started_at = ?
			  WHERE id = ? AND status = ?`

	uuidBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	result, err := querier.ExecContext(ctx, query, domain.ExecutionRunning, startedAt, uuidBytes, domain.ExecutionQueued)
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
func (r *MySQLExecutionRepository) Finish(ctx context.Context, id uuid.UUID, status domain.ExecutionStatus, stats domain.ExecutionStats, finishedAt time.Time) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE campaign_executions
			  SET status = ?, total = ?, sent = ?, failed = ?, queued = ?, finished_at = ?
			  WHERE id = ? AND status IN (?, ?)`

	uuidBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	result, err := querier.ExecContext(ctx, query,
		status, stats.Total, stats.Sent, stats.Failed, stats.Queued, finishedAt,
		uuidBytes, domain.ExecutionQueued, domain.ExecutionRunning,
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
func (r *MySQLExecutionRepository) UpdateStats(ctx context.Context, id uuid.UUID, stats domain.ExecutionStats) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE campaign_executions SET total = ?, sent = ?, failed = ?, queued = ?
			  WHERE id = ?`

	uuidBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	_, err = querier.ExecContext(ctx, query, stats.Total, stats.Sent, stats.Failed, stats.Queued, uuidBytes)
	if err != nil {
		return apperrors.Wrap(err, "failed to update execution stats")
	}
	return nil
}

// RequestStop sets the stop flag on a non-terminal execution
func (r *MySQLExecutionRepository) RequestStop(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE campaign_executions SET stop_requested = TRUE
			  WHERE id = ? AND status IN (?, ?)`

	uuidBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	result, err := querier.ExecContext(ctx, query, uuidBytes, domain.ExecutionQueued, domain.ExecutionRunning)
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
func (r *MySQLExecutionRepository) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	query := `DELETE FROM campaign_executions
			  WHERE finished_at IS NOT NULL AND finished_at < ?`

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
