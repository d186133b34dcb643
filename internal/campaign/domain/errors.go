// Package domain defines core domain models and errors for campaigns.
package domain

import (
	"github.com/onekeel/swarm/internal/errors"
)

// Campaign-specific error definitions.
var (
	// ErrCampaignNotFound indicates the campaign was not found.
	ErrCampaignNotFound = errors.Wrap(errors.ErrNotFound, "campaign not found")
	// ErrCampaignAlreadyExists indicates the campaign name is already taken.
	ErrCampaignAlreadyExists = errors.Wrap(errors.ErrConflict, "campaign already exists")
	// ErrExecutionNotFound indicates the execution was not found.
	ErrExecutionNotFound = errors.Wrap(errors.ErrNotFound, "execution not found")
	// ErrExecutionTerminal indicates an operation targeted an execution that
	// already reached a terminal status.
	ErrExecutionTerminal = errors.Wrap(errors.ErrConflict, "execution already finished")
	// ErrInvalidChannel indicates the campaign references an unknown channel.
	ErrInvalidChannel = errors.Wrap(errors.ErrInvalidInput, "invalid channel")
	// ErrEmptyAudience indicates an execution was triggered with no recipients.
	ErrEmptyAudience = errors.Wrap(errors.ErrInvalidInput, "audience is empty")
	// ErrInvalidTransition indicates an execution status transition that is
	// not allowed by the state machine.
	ErrInvalidTransition = errors.Wrap(errors.ErrConflict, "invalid execution status transition")
)
