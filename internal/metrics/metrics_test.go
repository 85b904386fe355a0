package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetrics(t *testing.T) (*Metrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return New(reg, []string{"utils.timestamp", "github.getFile"}), reg
}

func TestRecordRequest(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.RecordRequest("utils.timestamp", 10*time.Millisecond, "")
	m.RecordRequest("github.getFile", 20*time.Millisecond, "not_found")
	m.RecordRequest("github.dropDatabase", time.Millisecond, "method_not_found")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("utils.timestamp", StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("github.getFile", StatusError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("unknown", StatusError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ErrorsTotal.WithLabelValues("not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ErrorsTotal.WithLabelValues("method_not_found")))
}

func TestStartRequestTimer(t *testing.T) {
	m, reg := newTestMetrics(t)

	done := m.StartRequestTimer("utils.timestamp")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsInFlight))
	done("")
	assert.Equal(t, 0.0, testutil.ToFloat64(m.RequestsInFlight))

	count, err := testutil.GatherAndCount(reg, "gateway_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestConnectionsAndMessages(t *testing.T) {
	m, reg := newTestMetrics(t)

	m.RecordConnectionStart()
	m.RecordConnectionStart()
	m.RecordConnectionEnd()
	m.RecordMessageReceived()
	m.RecordMessageSent()
	m.RecordMessageSent()

	expected := `
# HELP gateway_active_connections Number of open WebSocket connections
# TYPE gateway_active_connections gauge
gateway_active_connections 1
# HELP gateway_connections_total Total number of accepted WebSocket connections
# TYPE gateway_connections_total counter
gateway_connections_total 2
# HELP gateway_messages_sent_total Total number of outbound frames
# TYPE gateway_messages_sent_total counter
gateway_messages_sent_total 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"gateway_active_connections", "gateway_connections_total", "gateway_messages_sent_total"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MessagesReceived))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("x", time.Second, "internal_error")
		m.RecordError("parse_error")
		m.RecordConnectionStart()
		m.RecordConnectionEnd()
		m.RecordMessageReceived()
		m.RecordMessageSent()
		m.StartRequestTimer("x")("")
	})
}
