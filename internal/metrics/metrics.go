// Package metrics collects Prometheus metrics for the push connection,
// job subscriptions and update reconciliation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Update outcomes recorded by RecordUpdate.
const (
	OutcomeApplied   = "applied"
	OutcomeUnmatched = "unmatched"
	OutcomeStale     = "stale"
	OutcomeInvalid   = "invalid"
)

// Recorder is the metrics interface used by the connection manager,
// trackers and reconciler. Nop satisfies it when metrics are disabled.
type Recorder interface {
	RecordConnectionState(connected bool)
	RecordReconnectAttempt()
	RecordControlMessage(event string)
	RecordUpdate(outcome string)
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordConnectionState(bool) {}
func (Nop) RecordReconnectAttempt()    {}
func (Nop) RecordControlMessage(string) {}
func (Nop) RecordUpdate(string)        {}

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	connected         prometheus.Gauge
	reconnectAttempts prometheus.Counter
	controlMessages   *prometheus.CounterVec
	updates           *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "contentsync_push_connected",
			Help: "1 while the push connection is established, 0 otherwise",
		}),
		reconnectAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "contentsync_push_reconnect_attempts_total",
			Help: "Total number of push reconnect attempts",
		}),
		controlMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contentsync_push_control_messages_total",
			Help: "Subscribe/unsubscribe control messages sent, by event",
		}, []string{"event"}),
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contentsync_job_updates_total",
			Help: "Inbound job updates, by reconciliation outcome",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		c.connected,
		c.reconnectAttempts,
		c.controlMessages,
		c.updates,
	)

	return c
}

// RecordConnectionState records the current connection state.
func (c *Collector) RecordConnectionState(connected bool) {
	if connected {
		c.connected.Set(1)
		return
	}
	c.connected.Set(0)
}

// RecordReconnectAttempt counts one reconnect attempt.
func (c *Collector) RecordReconnectAttempt() {
	c.reconnectAttempts.Inc()
}

// RecordControlMessage counts one outbound control message.
func (c *Collector) RecordControlMessage(event string) {
	c.controlMessages.WithLabelValues(event).Inc()
}

// RecordUpdate counts one inbound job update by outcome.
func (c *Collector) RecordUpdate(outcome string) {
	c.updates.WithLabelValues(outcome).Inc()
}

// Handler returns the HTTP handler for Prometheus scraping.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute returns a mux serving /metrics.
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
