// Package metrics defines the Prometheus instruments for the indexing tracker.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Poll outcomes recorded by [Metrics.ObservePoll].
const (
	OutcomeOK        = "ok"
	OutcomeTerminal  = "terminal"
	OutcomeError     = "error"
	OutcomeDiscarded = "discarded"
)

// Metrics holds Prometheus metrics for the tracker.
//
// A nil *Metrics is valid and records nothing, so callers never need to
// check whether metrics were configured.
type Metrics struct {
	PollsTotal     *prometheus.CounterVec
	PollDuration   prometheus.Histogram
	TerminalTotal  *prometheus.CounterVec
	ActivePollers  prometheus.Gauge
	StartsTotal    prometheus.Counter
	DuplicateStart prometheus.Counter
}

// New creates the tracker metrics and registers them with reg.
//
// Metrics:
//   - indexwatch_polls_total{outcome} - Status checks by outcome
//   - indexwatch_poll_duration_seconds - Status check latency
//   - indexwatch_jobs_finished_total{status} - Jobs that reached ready or error
//   - indexwatch_active_pollers - Live poll handles
//   - indexwatch_starts_total - Poll handles created
//   - indexwatch_duplicate_starts_total - Start calls ignored for a live job
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		PollsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "indexwatch_polls_total",
				Help: "Total number of status checks by outcome",
			},
			[]string{"outcome"}, // "ok", "terminal", "error", "discarded"
		),
		PollDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "indexwatch_poll_duration_seconds",
				Help:    "Duration of status checks in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		TerminalTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "indexwatch_jobs_finished_total",
				Help: "Total number of indexing jobs observed in a terminal status",
			},
			[]string{"status"},
		),
		ActivePollers: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "indexwatch_active_pollers",
				Help: "Current number of live poll handles",
			},
		),
		StartsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "indexwatch_starts_total",
				Help: "Total number of poll handles created",
			},
		),
		DuplicateStart: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "indexwatch_duplicate_starts_total",
				Help: "Total number of Start calls ignored because the job was already polled",
			},
		),
	}
}

// ObservePoll records one status check.
func (m *Metrics) ObservePoll(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.PollsTotal.WithLabelValues(outcome).Inc()
	m.PollDuration.Observe(seconds)
}

// ObserveTerminal records a job reaching a terminal status.
func (m *Metrics) ObserveTerminal(status string) {
	if m == nil {
		return
	}
	m.TerminalTotal.WithLabelValues(status).Inc()
}

// SetActive records the number of live poll handles.
func (m *Metrics) SetActive(n int) {
	if m == nil {
		return
	}
	m.ActivePollers.Set(float64(n))
}

// ObserveStart records a Start call. duplicate is true when the call was a no-op.
func (m *Metrics) ObserveStart(duplicate bool) {
	if m == nil {
		return
	}
	if duplicate {
		m.DuplicateStart.Inc()
		return
	}
	m.StartsTotal.Inc()
}
