package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initOptimizeMetrics() {
	r.OptimizationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "hredes_optimizations_total",
			Help: "Total number of diameter optimizations by strategy and outcome",
		},
		[]string{"strategy", "outcome"},
	)

	r.OptimizeEvaluations = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hredes_optimize_evaluations",
			Help:    "Hydraulic evaluations per optimization",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
		[]string{"strategy"},
	)

	r.OptimizeDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hredes_optimize_duration_seconds",
			Help:    "Wall time per optimization in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		},
		[]string{"strategy"},
	)

	r.OptimizeLastTotalCost = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "hredes_optimize_last_total_cost",
			Help: "Total pipe cost of the most recent feasible optimization",
		},
	)
}
