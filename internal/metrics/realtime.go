package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// RealtimeMetrics defines the interface for recording realtime channel metrics.
// Tracks open WebSocket connections and message traffic per direction and type.
type RealtimeMetrics interface {
	// ConnectionOpened records a new WebSocket connection.
	ConnectionOpened(ctx context.Context)

	// ConnectionClosed records a WebSocket connection teardown.
	ConnectionClosed(ctx context.Context)

	// RecordMessage records one processed message.
	// Direction is "inbound" or "outbound", messageType is the envelope type
	// (e.g. "auth", "subscribe", "ping"), status is "ok" or "rejected".
	RecordMessage(ctx context.Context, direction, messageType, status string)
}

// realtimeMetrics implements RealtimeMetrics using OpenTelemetry metrics.
type realtimeMetrics struct {
	connections    metric.Int64UpDownCounter
	messageCounter metric.Int64Counter
}

// NewRealtimeMetrics creates a new RealtimeMetrics implementation using the provided meter provider.
// The namespace parameter is used as a prefix for all metric names (e.g., "swarm").
func NewRealtimeMetrics(meterProvider metric.MeterProvider, namespace string) (RealtimeMetrics, error) {
	meter := meterProvider.Meter(namespace)

	connections, err := meter.Int64UpDownCounter(
		fmt.Sprintf("%s_realtime_connections", namespace),
		metric.WithDescription("Number of open realtime connections"),
		metric.WithUnit("{connection}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection counter: %w", err)
	}

	messageCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_realtime_messages_total", namespace),
		metric.WithDescription("Total number of realtime messages processed"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create message counter: %w", err)
	}

	return &realtimeMetrics{
		connections:    connections,
		messageCounter: messageCounter,
	}, nil
}

// ConnectionOpened increments the open connection counter.
func (r *realtimeMetrics) ConnectionOpened(ctx context.Context) {
	r.connections.Add(ctx, 1)
}

// ConnectionClosed decrements the open connection counter.
func (r *realtimeMetrics) ConnectionClosed(ctx context.Context) {
	r.connections.Add(ctx, -1)
}

// RecordMessage increments the message counter with direction, type, and status labels.
func (r *realtimeMetrics) RecordMessage(ctx context.Context, direction, messageType, status string) {
	r.messageCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("direction", direction),
			attribute.String("message_type", messageType),
			attribute.String("status", status),
		),
	)
}

// NoOpRealtimeMetrics is a no-op implementation of RealtimeMetrics for when metrics are disabled.
type NoOpRealtimeMetrics struct{}

// NewNoOpRealtimeMetrics creates a no-op RealtimeMetrics implementation.
func NewNoOpRealtimeMetrics() RealtimeMetrics {
	return &NoOpRealtimeMetrics{}
}

// ConnectionOpened does nothing when metrics are disabled.
func (n *NoOpRealtimeMetrics) ConnectionOpened(ctx context.Context) {
	// No-op
}

// ConnectionClosed does nothing when metrics are disabled.
func (n *NoOpRealtimeMetrics) ConnectionClosed(ctx context.Context) {
	// No-op
}

// RecordMessage does nothing when metrics are disabled.
func (n *NoOpRealtimeMetrics) RecordMessage(ctx context.Context, direction, messageType, status string) {
	// No-op
}
