package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "gateway"

	// StatusSuccess and StatusError label request outcomes
	StatusSuccess = "success"
	StatusError   = "error"
)

// Metrics holds all Prometheus metrics for the gateway. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	// Request metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// Connection metrics
	ActiveConnections prometheus.Gauge
	ConnectionsTotal  prometheus.Counter

	// Error metrics
	ErrorsTotal *prometheus.CounterVec

	// Message metrics
	MessagesReceived prometheus.Counter
	MessagesSent     prometheus.Counter

	known map[string]struct{}
}

// New creates the collectors and registers them with reg. Only the given
// method names are used as label values; anything else is counted as
// "unknown" to keep label cardinality bounded.
func New(reg prometheus.Registerer, methods []string) *Metrics {
	factory := promauto.With(reg)

	known := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		known[m] = struct{}{}
	}

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of dispatched requests",
			},
			[]string{"method", "status"},
		),

		// Buckets: 10ms, 50ms, 100ms, 250ms, 500ms, 1s, 2.5s, 5s, 10s, 30s
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Duration of request handling in seconds",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method"},
		),

		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "requests_in_flight",
				Help:      "Number of requests currently being handled",
			},
		),

		ActiveConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_connections",
				Help:      "Number of open WebSocket connections",
			},
		),

		ConnectionsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "connections_total",
				Help:      "Total number of accepted WebSocket connections",
			},
		),

		ErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of error responses by code",
			},
			[]string{"code"},
		),

		MessagesReceived: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_received_total",
				Help:      "Total number of inbound frames",
			},
		),

		MessagesSent: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_sent_total",
				Help:      "Total number of outbound frames",
			},
		),

		known: known,
	}
}

func (m *Metrics) methodLabel(method string) string {
	if _, ok := m.known[method]; ok {
		return method
	}
	return "unknown"
}

// RecordRequest records a finished request
func (m *Metrics) RecordRequest(method string, duration time.Duration, errCode string) {
	if m == nil {
		return
	}
	label := m.methodLabel(method)
	status := StatusSuccess
	if errCode != "" {
		status = StatusError
		m.ErrorsTotal.WithLabelValues(errCode).Inc()
	}
	m.RequestsTotal.WithLabelValues(label, status).Inc()
	m.RequestDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// RecordError counts an error response produced outside a request
func (m *Metrics) RecordError(errCode string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errCode).Inc()
}

// RecordRequestStart increments in-flight requests
func (m *Metrics) RecordRequestStart() {
	if m == nil {
		return
	}
	m.RequestsInFlight.Inc()
}

// RecordRequestEnd decrements in-flight requests
func (m *Metrics) RecordRequestEnd() {
	if m == nil {
		return
	}
	m.RequestsInFlight.Dec()
}

// RecordConnectionStart records a new connection
func (m *Metrics) RecordConnectionStart() {
	if m == nil {
		return
	}
	m.ActiveConnections.Inc()
	m.ConnectionsTotal.Inc()
}

// RecordConnectionEnd records a connection closing
func (m *Metrics) RecordConnectionEnd() {
	if m == nil {
		return
	}
	m.ActiveConnections.Dec()
}

// RecordMessageReceived counts an inbound frame
func (m *Metrics) RecordMessageReceived() {
	if m == nil {
		return
	}
	m.MessagesReceived.Inc()
}

// RecordMessageSent counts an outbound frame
func (m *Metrics) RecordMessageSent() {
	if m == nil {
		return
	}
	m.MessagesSent.Inc()
}

// StartRequestTimer returns a function that records the request when called
func (m *Metrics) StartRequestTimer(method string) func(errCode string) {
	start := time.Now()
	m.RecordRequestStart()
	return func(errCode string) {
		m.RecordRequestEnd()
		m.RecordRequest(method, time.Since(start), errCode)
	}
}
