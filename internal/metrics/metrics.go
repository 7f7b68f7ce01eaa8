// Package metrics provides Prometheus instrumentation for roadviz.
//
// Every recording method is safe to call on a nil *Metrics, so components
// accept an optional instance and tests can run without a registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics
const metricsNamespace = "roadviz"

// Metrics holds all collectors
type Metrics struct {
	// SnapshotsPublished counts snapshots handed to the state channel.
	SnapshotsPublished prometheus.Counter

	// SnapshotsCoalesced counts snapshots an observer never saw because a
	// newer one replaced it first. Labels: observer
	SnapshotsCoalesced *prometheus.CounterVec

	// Observers is the number of subscribed observers.
	Observers prometheus.Gauge

	// TraversalRuns counts finished runs. Labels: status (completed, cancelled)
	TraversalRuns *prometheus.CounterVec

	// TraversalProgress is the progress of the latest snapshot in percent.
	TraversalProgress prometheus.Gauge

	// FramesRendered counts frames drawn by the renderer.
	FramesRendered prometheus.Counter

	// FrameDuration measures the time spent building one frame.
	FrameDuration prometheus.Histogram

	// PulseFallbacks counts switches from the accelerated pulse to the CPU formula.
	PulseFallbacks prometheus.Counter

	// RouteSegmentsSkipped counts route segments dropped for unknown nodes.
	RouteSegmentsSkipped prometheus.Counter
}

// New creates and registers all collectors with reg.
// Pass prometheus.DefaultRegisterer in production and a fresh
// prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		SnapshotsPublished: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "snapshots_published_total",
			Help:      "Total snapshots published to the state channel",
		}),
		SnapshotsCoalesced: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "snapshots_coalesced_total",
			Help:      "Snapshots replaced before an observer consumed them",
		}, []string{"observer"}),
		Observers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "observers",
			Help:      "Number of subscribed state observers",
		}),
		TraversalRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "traversal_runs_total",
			Help:      "Finished traversal runs by status",
		}, []string{"status"}),
		TraversalProgress: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "traversal_progress_percent",
			Help:      "Progress of the latest published snapshot",
		}),
		FramesRendered: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "frames_rendered_total",
			Help:      "Total frames drawn",
		}),
		FrameDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "frame_duration_seconds",
			Help:      "Time spent building a frame",
			Buckets:   []float64{0.0005, 0.001, 0.002, 0.004, 0.008, 0.016, 0.033, 0.066, 0.1},
		}),
		PulseFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "pulse_fallbacks_total",
			Help:      "Switches from the accelerated pulse to the CPU formula",
		}),
		RouteSegmentsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "route_segments_skipped_total",
			Help:      "Route segments skipped because a node position is unknown",
		}),
	}
}

// SnapshotPublished records one published snapshot and its progress
func (m *Metrics) SnapshotPublished(progress float64) {
	if m == nil {
		return
	}
	m.SnapshotsPublished.Inc()
	m.TraversalProgress.Set(progress)
}

// SnapshotCoalesced records a snapshot an observer missed
func (m *Metrics) SnapshotCoalesced(observer string) {
	if m == nil {
		return
	}
	m.SnapshotsCoalesced.WithLabelValues(observer).Inc()
}

// ObserverAdded increments the observer gauge
func (m *Metrics) ObserverAdded() {
	if m == nil {
		return
	}
	m.Observers.Inc()
}

// ObserverRemoved decrements the observer gauge
func (m *Metrics) ObserverRemoved() {
	if m == nil {
		return
	}
	m.Observers.Dec()
}

// RunFinished records a finished traversal run
func (m *Metrics) RunFinished(status string) {
	if m == nil {
		return
	}
	m.TraversalRuns.WithLabelValues(status).Inc()
}

// FrameRendered records one frame and how long it took
func (m *Metrics) FrameRendered(d time.Duration) {
	if m == nil {
		return
	}
	m.FramesRendered.Inc()
	m.FrameDuration.Observe(d.Seconds())
}

// PulseFallback records a switch to the CPU pulse
func (m *Metrics) PulseFallback() {
	if m == nil {
		return
	}
	m.PulseFallbacks.Inc()
}

// RouteSegmentSkipped records n skipped route segments
func (m *Metrics) RouteSegmentSkipped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RouteSegmentsSkipped.Add(float64(n))
}
