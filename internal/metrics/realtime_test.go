package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRealtimeMetrics(t *testing.T) {
	provider, err := NewProvider("test_app")
	require.NoError(t, err)

	rm, err := NewRealtimeMetrics(provider.MeterProvider(), "test_app")
	require.NoError(t, err)
	assert.NotNil(t, rm)
}

func TestRealtimeMetrics_Connections(t *testing.T) {
	provider, err := NewProvider("test_app")
	require.NoError(t, err)

	rm, err := NewRealtimeMetrics(provider.MeterProvider(), "test_app")
	require.NoError(t, err)

	rm.ConnectionOpened(context.Background())
	rm.ConnectionOpened(context.Background())
	rm.ConnectionClosed(context.Background())

	output := scrapeMetrics(t, provider)
	assert.Regexp(t, `test_app_realtime_connections\{[^}]*\} 1`, output)
}

func TestRealtimeMetrics_RecordMessage(t *testing.T) {
	provider, err := NewProvider("test_app")
	require.NoError(t, err)

	rm, err := NewRealtimeMetrics(provider.MeterProvider(), "test_app")
	require.NoError(t, err)

	rm.RecordMessage(context.Background(), "inbound", "subscribe", "ok")
	rm.RecordMessage(context.Background(), "inbound", "subscribe", "rejected")

	output := scrapeMetrics(t, provider)
	assertMetricLine(t, output, "test_app_realtime_messages_total",
		`direction="inbound",message_type="subscribe",status="ok"`, "1")
	assertMetricLine(t, output, "test_app_realtime_messages_total",
		`direction="inbound",message_type="subscribe",status="rejected"`, "1")
}

func TestNoOpRealtimeMetrics(t *testing.T) {
	rm := NewNoOpRealtimeMetrics()

	// Should not panic
	rm.ConnectionOpened(context.Background())
	rm.ConnectionClosed(context.Background())
	rm.RecordMessage(context.Background(), "outbound", "broadcast", "ok")
}
