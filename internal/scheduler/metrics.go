package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the scheduler counters. They are registered on the registerer
// handed to NewMetrics, never on the global default registry.
type Metrics struct {
	Generations        prometheus.Counter
	HintsRecorded      prometheus.Counter
	RootsDeferred      prometheus.Counter
	RootsComposed      prometheus.Counter
	PendingRoots       prometheus.Gauge
	GenerationDuration prometheus.Histogram
}

// NewMetrics creates the scheduler metrics and registers them on reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Generations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "meld_generations_total",
				Help: "Number of processing generations run by the merge scheduler.",
			},
		),
		HintsRecorded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "meld_hints_recorded_total",
				Help: "Number of hints newly written to the hint store.",
			},
		),
		RootsDeferred: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "meld_roots_deferred_total",
				Help: "Number of times a merge root was deferred to the next generation.",
			},
		),
		RootsComposed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "meld_roots_composed_total",
				Help: "Number of merge roots composed and emitted.",
			},
		),
		PendingRoots: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "meld_pending_roots",
				Help: "Number of merge roots not yet composed at the end of the last generation.",
			},
		),
		GenerationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "meld_generation_duration_seconds",
				Help:    "Time taken by one processing generation.",
				Buckets: prometheus.DefBuckets,
			},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.Generations,
			m.HintsRecorded,
			m.RootsDeferred,
			m.RootsComposed,
			m.PendingRoots,
			m.GenerationDuration,
		)
	}
	return m
}
