package domain

import (
	"time"

	"github.com/google/uuid"
)

// RecipientStatus is the delivery state of one audience member within one
// execution. Mutated exactly once per delivery attempt.
type RecipientStatus string

// Recipient delivery states.
const (
	RecipientQueued RecipientStatus = "queued"
	RecipientSent   RecipientStatus = "sent"
	RecipientFailed RecipientStatus = "failed"
)

// Recipient is one audience member's per-execution delivery record.
// Recipients are created in bulk when the execution is enrolled and processed
// in enrollment order.
type Recipient struct {
	// ID is the unique identifier of the delivery record.
	ID uuid.UUID
	// ExecutionID references the owning execution; a recipient belongs to
	// exactly one execution.
	ExecutionID uuid.UUID
	// Address is the channel-specific destination (email address or phone number).
	Address string
	// Status is the delivery state.
	Status RecipientStatus
	// AttemptCount is incremented on every delivery attempt.
	AttemptCount int
	// LastError holds the most recent delivery error message, if any.
	LastError string
	// MessageID is the provider message id returned on success.
	MessageID string
	// Variables holds per-recipient template substitutions.
	Variables map[string]string
	// Position is the enrollment order within the execution.
	Position int
	// CreatedAt is the UTC timestamp when the recipient was enrolled.
	CreatedAt time.Time
	// UpdatedAt is the UTC timestamp of the last delivery attempt.
	UpdatedAt time.Time
}
