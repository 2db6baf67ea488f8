// Package metrics exposes Prometheus collectors for the command surface,
// the history store and the event stream.
//
// All methods are safe on a nil *Metrics, so components can be built
// without metrics in tests.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the application collectors.
type Metrics struct {
	CommandsTotal    *prometheus.CounterVec
	CommandDuration  *prometheus.HistogramVec
	CommandPanics    *prometheus.CounterVec
	HistoryDepth     *prometheus.GaugeVec
	HistoryEvictions *prometheus.CounterVec
	HistoryResets    prometheus.Counter
	EventViewers     prometheus.Gauge
	EventsBroadcast  prometheus.Counter
	EventsDropped    prometheus.Counter
}

// New creates the collectors and registers them with reg. A nil reg uses
// the default Prometheus registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		CommandsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "easel_commands_total",
			Help: "Total number of commands dispatched, by command and status",
		}, []string{"command", "status"}),
		CommandDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "easel_command_duration_seconds",
			Help:    "Command execution time in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"command"}),
		CommandPanics: f.NewCounterVec(prometheus.CounterOpts{
			Name: "easel_command_panics_total",
			Help: "Total number of recovered command handler panics",
		}, []string{"command"}),
		HistoryDepth: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "easel_history_depth",
			Help: "Current number of snapshots per history stack",
		}, []string{"stack"}),
		HistoryEvictions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "easel_history_evictions_total",
			Help: "Total number of snapshots evicted to respect history capacity",
		}, []string{"stack"}),
		HistoryResets: f.NewCounter(prometheus.CounterOpts{
			Name: "easel_history_resets_total",
			Help: "Total number of times an inconsistent history stack was discarded",
		}),
		EventViewers: f.NewGauge(prometheus.GaugeOpts{
			Name: "easel_event_viewers",
			Help: "Current number of connected event stream viewers",
		}),
		EventsBroadcast: f.NewCounter(prometheus.CounterOpts{
			Name: "easel_events_broadcast_total",
			Help: "Total number of events sent to the event stream",
		}),
		EventsDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "easel_events_dropped_total",
			Help: "Total number of events dropped for slow viewers",
		}),
	}
}

// ObserveCommand records one dispatched command.
func (m *Metrics) ObserveCommand(command, status string, d time.Duration, panicked bool) {
	if m == nil {
		return
	}
	m.CommandsTotal.WithLabelValues(command, status).Inc()
	m.CommandDuration.WithLabelValues(command).Observe(d.Seconds())
	if panicked {
		m.CommandPanics.WithLabelValues(command).Inc()
	}
}

// SetHistoryDepth records the size of both history stacks.
func (m *Metrics) SetHistoryDepth(undo, redo int) {
	if m == nil {
		return
	}
	m.HistoryDepth.WithLabelValues("undo").Set(float64(undo))
	m.HistoryDepth.WithLabelValues("redo").Set(float64(redo))
}

// HistoryEvicted records one evicted snapshot.
func (m *Metrics) HistoryEvicted(stack string) {
	if m == nil {
		return
	}
	m.HistoryEvictions.WithLabelValues(stack).Inc()
}

// HistoryReset records a discarded history stack.
func (m *Metrics) HistoryReset() {
	if m == nil {
		return
	}
	m.HistoryResets.Inc()
}

// ViewerConnected records a new event stream viewer.
func (m *Metrics) ViewerConnected() {
	if m == nil {
		return
	}
	m.EventViewers.Inc()
}

// ViewerDisconnected records a viewer leaving.
func (m *Metrics) ViewerDisconnected() {
	if m == nil {
		return
	}
	m.EventViewers.Dec()
}

// EventBroadcast records an event fanned out to viewers.
func (m *Metrics) EventBroadcast() {
	if m == nil {
		return
	}
	m.EventsBroadcast.Inc()
}

// EventDropped records an event a slow viewer did not receive.
func (m *Metrics) EventDropped() {
	if m == nil {
		return
	}
	m.EventsDropped.Inc()
}
