package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onekeel/swarm/internal/campaign/domain"
	"github.com/onekeel/swarm/internal/testutil"
)

func enrollRecipients(t *testing.T, repo *PostgreSQLRecipientRepository, executionID uuid.UUID, count int) []*domain.Recipient {
	t.Helper()

	recipients := make([]*domain.Recipient, 0, count)
	for i := 0; i < count; i++ {
		recipients = append(recipients, &domain.Recipient{
			ID:          uuid.Must(uuid.NewV7()),
			ExecutionID: executionID,
			Address:     fmt.Sprintf("user%d@example.com", i),
			Status:      domain.RecipientQueued,
			Variables:   map[string]string{"first_name": fmt.Sprintf("User%d", i)},
			Position:    i,
		})
	}
	require.NoError(t, repo.BulkCreate(context.Background(), recipients))
	return recipients
}

func TestPostgreSQLRecipientRepository_BulkCreateAndList(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	campaignID := testutil.CreateTestCampaign(t, db, "postgres", "recipients-bulk")
	executionID := testutil.CreateTestExecution(t, db, "postgres", campaignID)
	repo := NewPostgreSQLRecipientRepository(db)
	ctx := context.Background()

	enrolled := enrollRecipients(t, repo, executionID, 3)

	recipients, err := repo.ListByExecution(ctx, executionID)
	assert.NoError(t, err)
	require.Len(t, recipients, 3)

	// Enrollment order is preserved
	for i, recipient := range recipients {
		assert.Equal(t, enrolled[i].ID, recipient.ID)
		assert.Equal(t, enrolled[i].Address, recipient.Address)
		assert.Equal(t, domain.RecipientQueued, recipient.Status)
		assert.Equal(t, enrolled[i].Variables, recipient.Variables)
		assert.Equal(t, i, recipient.Position)
	}
}

func TestPostgreSQLRecipientRepository_BulkCreate_Empty(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLRecipientRepository(db)
	err := repo.BulkCreate(context.Background(), nil)
	assert.NoError(t, err)
}

func TestPostgreSQLRecipientRepository_MarkSent(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	campaignID := testutil.CreateTestCampaign(t, db, "postgres", "recipients-sent")
	executionID := testutil.CreateTestExecution(t, db, "postgres", campaignID)
	repo := NewPostgreSQLRecipientRepository(db)
	ctx := context.Background()

	enrolled := enrollRecipients(t, repo, executionID, 1)

	err := repo.MarkSent(ctx, enrolled[0].ID, "provider-msg-1")
	assert.NoError(t, err)

	recipients, err := repo.ListByExecution(ctx, executionID)
	require.NoError(t, err)
	require.Len(t, recipients, 1)
	assert.Equal(t, domain.RecipientSent, recipients[0].Status)
	assert.Equal(t, "provider-msg-1", recipients[0].MessageID)
	assert.Equal(t, 1, recipients[0].AttemptCount)
	assert.Empty(t, recipients[0].LastError)
}

func TestPostgreSQLRecipientRepository_MarkFailed(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	campaignID := testutil.CreateTestCampaign(t, db, "postgres", "recipients-failed")
	executionID := testutil.CreateTestExecution(t, db, "postgres", campaignID)
	repo := NewPostgreSQLRecipientRepository(db)
	ctx := context.Background()

	enrolled := enrollRecipients(t, repo, executionID, 1)

	err := repo.MarkFailed(ctx, enrolled[0].ID, "mailbox full")
	assert.NoError(t, err)

	recipients, err := repo.ListByExecution(ctx, executionID)
	require.NoError(t, err)
	require.Len(t, recipients, 1)
	assert.Equal(t, domain.RecipientFailed, recipients[0].Status)
	assert.Equal(t, "mailbox full", recipients[0].LastError)
	assert.Equal(t, 1, recipients[0].AttemptCount)
	assert.Empty(t, recipients[0].MessageID)
}

func TestPostgreSQLRecipientRepository_CountByStatus(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	campaignID := testutil.CreateTestCampaign(t, db, "postgres", "recipients-count")
	executionID := testutil.CreateTestExecution(t, db, "postgres", campaignID)
	repo := NewPostgreSQLRecipientRepository(db)
	ctx := context.Background()

	enrolled := enrollRecipients(t, repo, executionID, 4)
	require.NoError(t, repo.MarkSent(ctx, enrolled[0].ID, "msg-1"))
	require.NoError(t, repo.MarkSent(ctx, enrolled[1].ID, "msg-2"))
	require.NoError(t, repo.MarkFailed(ctx, enrolled[2].ID, "bounced"))

	stats, err := repo.CountByStatus(ctx, executionID)
	assert.NoError(t, err)
	assert.Equal(t, domain.ExecutionStats{Total: 4, Sent: 2, Failed: 1, Queued: 1}, stats)
}
