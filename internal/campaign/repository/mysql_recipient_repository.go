package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/onekeel/swarm/internal/campaign/domain"
	"github.com/onekeel/swarm/internal/database"

	apperrors "github.com/onekeel/swarm/internal/errors"
)

// MySQLRecipientRepository handles recipient persistence for MySQL
type MySQLRecipientRepository struct {
	db *sql.DB
}

// NewMySQLRecipientRepository creates a new MySQLRecipientRepository
func NewMySQLRecipientRepository(db *sql.DB) *MySQLRecipientRepository {
	return &MySQLRecipientRepository{
		db: db,
	}
}

// BulkCreate inserts all recipients of an execution in one statement,
// preserving enrollment order via the position column
func (r *MySQLRecipientRepository) BulkCreate(ctx context.Context, recipients []*domain.Recipient) error {
	if len(recipients) == 0 {
		return nil
	}

	querier := database.GetTx(ctx, r.db)

	var sb strings.Builder
	sb.WriteString(`INSERT INTO execution_recipients
		(id, execution_id, address, status, attempt_count, last_error, message_id, variables, position, created_at, updated_at)
		VALUES `)

	args := make([]interface{}, 0, len(recipients)*9)
	for i, recipient := range recipients {
		idBytes, err := recipient.ID.MarshalBinary()
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal UUID")
		}
		executionIDBytes, err := recipient.ExecutionID.MarshalBinary()
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal UUID")
		}
		variables, err := marshalVariables(recipient.Variables)
		if err != nil {
			return err
		}

		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())")
		args = append(args,
			idBytes, executionIDBytes, recipient.Address, recipient.Status,
			recipient.AttemptCount, recipient.LastError, recipient.MessageID, variables, recipient.Position,
		)
	}

	_, err := querier.ExecContext(ctx, sb.String(), args...)
	if err != nil {
		return apperrors.Wrap(err, "failed to bulk create recipients")
	}
	return nil
}

// ListByExecution retrieves the recipients of an execution in enrollment order
func (r *MySQLRecipientRepository) ListByExecution(ctx context.Context, executionID uuid.UUID) ([]*domain.Recipient, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, execution_id, address, status, attempt_count, last_error, message_id,
			  variables, position, created_at, updated_at
			  FROM execution_recipients WHERE execution_id = ? ORDER BY position`

	executionIDBytes, err := executionID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}

	rows, err := querier.QueryContext(ctx, query, executionIDBytes)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list recipients")
	}
	defer rows.Close()

	var recipients []*domain.Recipient
	for rows.Next() {
		recipient, err := scanMySQLRecipient(rows)
		if err != nil {
			return nil, err
		}
		recipients = append(recipients, recipient)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate recipients")
	}

	return recipients, nil
}

// MarkSent records a successful delivery attempt
func (r *MySQLRecipientRepository) MarkSent(ctx context.Context, id uuid.UUID, messageID string) error {
	query := `UPDATE execution_recipients
			  SET status = ?, message_id = ?, last_error = '', attempt_count = attempt_count + 1, updated_at = NOW()
			  WHERE id = ?`

	return r.execOutcome(ctx, query, domain.RecipientSent, messageID, id)
}

// MarkFailed records a failed delivery attempt
func (r *MySQLRecipientRepository) MarkFailed(ctx context.Context, id uuid.UUID, sendErr string) error {
	query := `UPDATE execution_recipients
			  SET status = ?, last_error = ?, attempt_count = attempt_count + 1, updated_at = NOW()
			  WHERE id = ?`

	return r.execOutcome(ctx, query, domain.RecipientFailed, sendErr, id)
}

func (r *MySQLRecipientRepository) execOutcome(ctx context.Context, query string, status domain.RecipientStatus, detail string, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	result, err := querier.ExecContext(ctx, query, status, detail, idBytes)
	if err != nil {
		return apperrors.Wrap(err, "failed to update recipient outcome")
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

// CountByStatus aggregates recipient counts per status for one execution
func (r *MySQLRecipientRepository) CountByStatus(ctx context.Context, executionID uuid.UUID) (domain.ExecutionStats, error) {
	var stats domain.ExecutionStats
	querier := database.GetTx(ctx, r.db)

	query := `SELECT
			  COUNT(*),
			  SUM(CASE WHEN status = ? THEN 1 ELSE 0 END),
			  SUM(CASE WHEN status = ? THEN 1 ELSE 0 END),
			  SUM(CASE WHEN status = ? THEN 1 ELSE 0 END)
			  FROM execution_recipients WHERE execution_id = ?`

	executionIDBytes, err := executionID.MarshalBinary()
	if err != nil {
		return domain.ExecutionStats{}, apperrors.Wrap(err, "failed to marshal UUID")
	}

	var sent, failed, queued sql.NullInt64
	err = querier.QueryRowContext(ctx, query,
		domain.RecipientSent, domain.RecipientFailed, domain.RecipientQueued, executionIDBytes,
	).Scan(&stats.Total, &sent, &failed, &queued)
	if err != nil {
		return domain.ExecutionStats{}, apperrors.Wrap(err, "failed to count recipients by status")
	}
	stats.Sent = int(sent.Int64)
	stats.Failed = int(failed.Int64)
	stats.Queued = int(queued.Int64)

	return stats, nil
}

func scanMySQLRecipient(row rowScanner) (*domain.Recipient, error) {
	var recipient domain.Recipient
	var idBytes, executionIDBytes, variables []byte

	err := row.Scan(
		&idBytes, &executionIDBytes, &recipient.Address, &recipient.Status,
		&recipient.AttemptCount, &recipient.LastError, &recipient.MessageID,
		&variables, &recipient.Position, &recipient.CreatedAt, &recipient.UpdatedAt,
	)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to scan recipient")
	}

	if err := recipient.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
	}
	if err := recipient.ExecutionID.UnmarshalBinary(executionIDBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
	}

	if len(variables) > 0 {
		if err := unmarshalVariables(variables, &recipient.Variables); err != nil {
			return nil, err
		}
	}

	return &recipient, nil
}
