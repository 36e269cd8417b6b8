package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all collectors of the engine.
type Registry struct {
	// Solver
	SolvesTotal           *prometheus.CounterVec
	SolveIterations       prometheus.Histogram
	SolveDuration         prometheus.Histogram
	SolveRelaxationsTotal prometheus.Counter
	SolveFinalError       prometheus.Histogram
	NetworkNodes          prometheus.Gauge
	NetworkLinks          prometheus.Gauge

	// Optimizer
	OptimizationsTotal    *prometheus.CounterVec
	OptimizeEvaluations   *prometheus.HistogramVec
	OptimizeDuration      *prometheus.HistogramVec
	OptimizeLastTotalCost prometheus.Gauge

	registry *prometheus.Registry
}

// NewRegistry creates a registry with every collector registered.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	r.initSolveMetrics()
	r.initOptimizeMetrics()
	return r
}

// Prometheus returns the underlying registry, for exposition.
func (r *Registry) Prometheus() *prometheus.Registry {
	return r.registry
}
