package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/onekeel/swarm/internal/campaign/domain"
	"github.com/onekeel/swarm/internal/database"

	apperrors "github.com/onekeel/swarm/internal/errors"
)

// PostgreSQLRecipientRepository handles recipient persistence for PostgreSQL
type PostgreSQLRecipientRepository struct {
	db *sql.DB
}

// NewPostgreSQLRecipientRepository creates a new PostgreSQLRecipientRepository
func NewPostgreSQLRecipientRepository(db *sql.DB) *PostgreSQLRecipientRepository {
	return &PostgreSQLRecipientRepository{
		db: db,
	}
}

// BulkCreate inserts all recipients of an execution in one statement,
// preserving enrollment order via the position column
func (r *PostgreSQLRecipientRepository) BulkCreate(ctx context.Context, recipients []*domain.Recipient) error {
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
		variables, err := marshalVariables(recipient.Variables)
		if err != nil {
			return err
		}

		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 9
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, NOW(), NOW())",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9)
		args = append(args,
			recipient.ID, recipient.ExecutionID, recipient.Address, recipient.Status,
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
func (r *PostgreSQLRecipientRepository) ListByExecution(ctx context.Context, executionID uuid.UUID) ([]*domain.Recipient, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, execution_id, address, status, attempt_count, last_error, message_id,
			  variables, position, created_at, updated_at
			  FROM execution_recipients WHERE execution_id = $1 ORDER BY position`

	rows, err := querier.QueryContext(ctx, query, executionID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list recipients")
	}
	defer rows.Close()

	var recipients []*domain.Recipient
	for rows.Next() {
		recipient, err := scanRecipient(rows)
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
func (r *PostgreSQLRecipientRepository) MarkSent(ctx context.Context, id uuid.UUID, messageID string) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE execution_recipients
			  SET status = $1, message_id = $2, last_error = '', attempt_count = attempt_count + 1, updated_at = NOW()
			  WHERE id = $3`

	return r.execOutcome(ctx, querier, query, domain.RecipientSent, messageID, id)
}

// MarkFailed records a failed delivery attempt
func (r *PostgreSQLRecipientRepository) MarkFailed(ctx context.Context, id uuid.UUID, sendErr string) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE execution_recipients
			  SET status = $1, last_error = $2, attempt_count = attempt_count + 1, updated_at = NOW()
			  WHERE id = $3`

	return r.execOutcome(ctx, querier, query, domain.RecipientFailed, sendErr, id)
}

func (r *PostgreSQLRecipientRepository) execOutcome(ctx context.Context, querier database.Querier, query string, status domain.RecipientStatus, detail string, id uuid.UUID) error {
	result, err := querier.ExecContext(ctx, query, status, detail, id)
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
func (r *PostgreSQLRecipientRepository) CountByStatus(ctx context.Context, executionID uuid.UUID) (domain.ExecutionStats, error) {
	var stats domain.ExecutionStats
	querier := database.GetTx(ctx, r.db)

	query := `SELECT
			  COUNT(*),
			  COUNT(*) FILTER (WHERE status = $1),
			  COUNT(*) FILTER (WHERE status = $2),
			  COUNT(*) FILTER (WHERE status = $3)
			  FROM execution_recipients WHERE execution_id = $4`

	err := querier.QueryRowContext(ctx, query,
		domain.RecipientSent, domain.RecipientFailed, domain.RecipientQueued, executionID,
	).Scan(&stats.Total, &stats.Sent, &stats.Failed, &stats.Queued)
	if err != nil {
		return domain.ExecutionStats{}, apperrors.Wrap(err, "failed to count recipients by status")
	}

	return stats, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecipient(row rowScanner) (*domain.Recipient, error) {
	var recipient domain.Recipient
	var variables []byte

	err := row.Scan(
		&recipient.ID, &recipient.ExecutionID, &recipient.Address, &recipient.Status,
		&recipient.AttemptCount, &recipient.LastError, &recipient.MessageID,
		&variables, &recipient.Position, &recipient.CreatedAt, &recipient.UpdatedAt,
	)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to scan recipient")
	}

	if len(variables) > 0 {
		if err := unmarshalVariables(variables, &recipient.Variables); err != nil {
			return nil, err
		}
	}

	return &recipient, nil
}

func marshalVariables(variables map[string]string) ([]byte, error) {
	if variables == nil {
		variables = map[string]string{}
	}
	data, err := json.Marshal(variables)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal recipient variables")
	}
	return data, nil
}

func unmarshalVariables(data []byte, dst *map[string]string) error {
	if err := json.Unmarshal(data, dst); err != nil {
		return apperrors.Wrap(err, "failed to unmarshal recipient variables")
	}
	return nil
}
