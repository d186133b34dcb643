// Package service provides technical services for campaign delivery.
//
// This package implements the channel sender abstraction used by the execution
// runner and the template personalization applied per recipient before a send.
package service

import (
	"context"

	"github.com/onekeel/swarm/internal/campaign/domain"
)

// Message is one personalized payload handed to a channel sender.
type Message struct {
	// Channel is the outbound transport the message targets.
	Channel domain.Channel
	// Address is the channel-specific destination.
	Address string
	// Subject is the personalized subject line; empty for non-email channels.
	Subject string
	// Body is the personalized message body.
	Body string
}

// Sender delivers one message through a channel provider.
// Implementations must be safe for concurrent use; the runner may call Send
// from multiple workers at once.
type Sender interface {
	// Send delivers the message and returns the provider message id.
	// The context carries the per-send timeout; implementations must abort
	// when it is cancelled.
	Send(ctx context.Context, message Message) (messageID string, err error)
}

// Personalizer substitutes per-recipient variables into message templates.
type Personalizer interface {
	// Render replaces {{name}} placeholders in the template with values from
	// variables. Placeholders without a matching variable are left literal.
	Render(template string, variables map[string]string) string
}
