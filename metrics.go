//go:build linux || darwin || netbsd || freebsd || openbsd || dragonfly
// +build linux darwin netbsd freebsd openbsd dragonfly

package evloop

import "github.com/prometheus/client_golang/prometheus"

// Metrics is an optional Prometheus-backed observer a Loop reports into via
// WithMetrics. A single Metrics value may be shared across multiple loops
// (e.g. one per shard in a multi-loop server); per-loop breakdown isn't
// attempted, matching the loop's own lack of identity beyond the process.
type Metrics struct {
	iterations       prometheus.Counter
	activeHandles    prometheus.Gauge
	eventsDispatched prometheus.Counter
	pollWaitSeconds  prometheus.Histogram
}

// NewMetrics constructs a Metrics and registers its collectors with reg.
// Passing prometheus.NewRegistry() (or prometheus.DefaultRegisterer) is the
// caller's choice; NewMetrics doesn't reach for the global registry itself.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		iterations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "evloop",
			Name:      "iterations_total",
			Help:      "Number of loop iterations run.",
		}),
		activeHandles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "evloop",
			Name:      "active_handles",
			Help:      "Handles currently counted toward Loop.Alive.",
		}),
		eventsDispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "evloop",
			Name:      "events_dispatched_total",
			Help:      "IO readiness events delivered to watcher callbacks.",
		}),
		pollWaitSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "evloop",
			Name:      "poll_wait_seconds",
			Help:      "Time spent blocked in the backend wait call.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.iterations, m.activeHandles, m.eventsDispatched, m.pollWaitSeconds)
	return m
}
