// Package domain defines the core domain models for campaigns and their batch
// executions. An execution is one triggered send of a campaign to its enrolled
// recipients; its status only moves forward and is immutable once terminal.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Channel identifies the outbound transport for a campaign.
type Channel string

// Supported outbound channels.
const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelChat  Channel = "chat"
)

// Valid reports whether the channel is one of the supported transports.
func (c Channel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelChat:
		return true
	}
	return false
}

// CampaignStatus is the lifecycle state of a campaign definition.
type CampaignStatus string

// Campaign lifecycle states.
const (
	CampaignDraft    CampaignStatus = "draft"
	CampaignActive   CampaignStatus = "active"
	CampaignArchived CampaignStatus = "archived"
)

// Campaign is a reusable message definition sent through one channel.
// Subject and Body may contain {{variable}} placeholders substituted per
// recipient at send time.
type Campaign struct {
	// ID is the unique identifier of the campaign.
	ID uuid.UUID
	// Name is the human-readable campaign name.
	Name string
	// Channel is the outbound transport (email, sms, chat).
	Channel Channel
	// Subject is the message subject; unused for SMS/chat transports.
	Subject string
	// Body is the message template.
	Body string
	// Status is the campaign lifecycle state.
	Status CampaignStatus
	// CreatedAt is the UTC timestamp when the campaign was created.
	CreatedAt time.Time
	// UpdatedAt is the UTC timestamp of the last modification.
	UpdatedAt time.Time
}
