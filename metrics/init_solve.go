package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initSolveMetrics() {
	r.SolvesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "hredes_solves_total",
			Help: "Total number of hydraulic solves by outcome",
		},
		[]string{"outcome"},
	)

	r.SolveIterations = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hredes_solve_iterations",
			Help:    "Newton iterations per solve",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 50, 100, 200},
		},
	)

	r.SolveDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hredes_solve_duration_seconds",
			Help:    "Wall time per solve in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		},
	)

	r.SolveRelaxationsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "hredes_solve_relaxations_total",
			Help: "Total damping retries on near-singular nodal systems",
		},
	)

	r.SolveFinalError = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hredes_solve_final_error",
			Help:    "Relative flow correction of the last iteration",
			Buckets: prometheus.ExponentialBuckets(1e-12, 100, 7),
		},
	)

	r.NetworkNodes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "hredes_network_nodes",
			Help: "Nodes of the most recently solved network",
		},
	)

	r.NetworkLinks = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "hredes_network_links",
			Help: "Links of the most recently solved network",
		},
	)
}
