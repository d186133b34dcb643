package domain

import (
	"time"

	"github.com/google/uuid"
)

// ExecutionStatus is the state of one batch send. Transitions only move
// forward: queued -> running -> {completed, partial, failed, stopped}.
type ExecutionStatus string

// Execution states.
const (
	// ExecutionQueued means the execution is enqueued and not yet started.
	ExecutionQueued ExecutionStatus = "queued"
	// ExecutionRunning means recipients are being processed.
	ExecutionRunning ExecutionStatus = "running"
	// ExecutionCompleted means every attempted recipient succeeded.
	ExecutionCompleted ExecutionStatus = "completed"
	// ExecutionPartial means at least one recipient succeeded and one failed.
	ExecutionPartial ExecutionStatus = "partial"
	// ExecutionFailed means no recipient succeeded, or the orchestration
	// itself failed.
	ExecutionFailed ExecutionStatus = "failed"
	// ExecutionStopped means the execution was cancelled externally; untouched
	// recipients remain queued since they were never attempted.
	ExecutionStopped ExecutionStatus = "stopped"
)

// Terminal reports whether the status admits no further transitions.
func (s ExecutionStatus) Terminal() bool {
	switch s {
	case ExecutionCompleted, ExecutionPartial, ExecutionFailed, ExecutionStopped:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving from s to next is a forward
// transition. Terminal states are immutable.
func (s ExecutionStatus) CanTransitionTo(next ExecutionStatus) bool {
	switch s {
	case ExecutionQueued:
		return next == ExecutionRunning || next == ExecutionStopped
	case ExecutionRunning:
		return next.Terminal()
	}
	return false
}

// ExecutionStats aggregates per-recipient outcomes for one execution.
// After a terminal state, Sent+Failed equals the number of recipients whose
// status is no longer queued.
type ExecutionStats struct {
	// Total is the number of enrolled recipients.
	Total int `json:"total"`
	// Sent is the number of recipients delivered successfully.
	Sent int `json:"sent"`
	// Failed is the number of recipients whose delivery attempt failed.
	Failed int `json:"failed"`
	// Queued is the number of recipients never attempted.
	Queued int `json:"queued"`
}

// Execution is one triggered batch send of a campaign to a recipient list.
type Execution struct {
	// ID is the unique identifier of the execution.
	ID uuid.UUID
	// CampaignID references the campaign being sent.
	CampaignID uuid.UUID
	// Status is the execution state; forward transitions only.
	Status ExecutionStatus
	// Stats aggregates recipient outcomes.
	Stats ExecutionStats
	// StopRequested is set when a caller asked for cancellation; the runner
	// checks it between recipients.
	StopRequested bool
	// StartedAt is set when the execution enters running.
	StartedAt *time.Time
	// FinishedAt is set when the execution reaches a terminal state.
	FinishedAt *time.Time
	// CreatedAt is the UTC timestamp when the execution was enqueued.
	CreatedAt time.Time
}

// TerminalStatusFor derives the terminal status from final outcome counts.
// Zero failures is completed, a mix is partial, zero successes is failed.
func TerminalStatusFor(sent, failed int) ExecutionStatus {
	switch {
	case failed == 0:
		return ExecutionCompleted
	case sent == 0:
		return ExecutionFailed
	default:
		return ExecutionPartial
	}
}
