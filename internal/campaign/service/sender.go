package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/onekeel/swarm/internal/errors"
)

// logSender is a development sender that records deliveries in the log
// instead of calling a real provider. Useful for local runs and tests.
type logSender struct {
	logger *slog.Logger
}

// NewLogSender creates a Sender that logs every delivery and fabricates
// provider message ids.
func NewLogSender(logger *slog.Logger) Sender {
	return &logSender{logger: logger}
}

// Send logs the message and returns a fabricated provider message id.
func (s *logSender) Send(ctx context.Context, message Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", apperrors.Wrap(err, "send aborted")
	}

	messageID := fmt.Sprintf("log-%s", uuid.Must(uuid.NewV7()))
	s.logger.InfoContext(ctx, "message sent",
		"channel", message.Channel,
		"address", message.Address,
		"message_id", messageID,
	)
	return messageID, nil
}

// timeoutSender wraps another sender with a per-send timeout so one slow
// provider call cannot stall the whole execution.
type timeoutSender struct {
	next    Sender
	timeout time.Duration
}

// NewTimeoutSender wraps next with a per-send timeout. A non-positive timeout
// returns next unchanged.
func NewTimeoutSender(next Sender, timeout time.Duration) Sender {
	if timeout <= 0 {
		return next
	}
	return &timeoutSender{next: next, timeout: timeout}
}

// Send delegates to the wrapped sender under a deadline.
func (s *timeoutSender) Send(ctx context.Context, message Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.next.Send(ctx, message)
}
