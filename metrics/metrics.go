package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/katalvlaran/hredes/hydraulic"
	"github.com/katalvlaran/hredes/optimize"
)

var (
	_ hydraulic.Observer = (*Registry)(nil)
	_ optimize.Observer  = (*Registry)(nil)
)

// ObserveSolve records one solve.
func (r *Registry) ObserveSolve(s hydraulic.SolveStats) {
	r.SolvesTotal.WithLabelValues(s.Outcome).Inc()
	r.SolveIterations.Observe(float64(s.Iterations))
	r.SolveDuration.Observe(s.Duration.Seconds())
	r.SolveRelaxationsTotal.Add(float64(s.Relaxations))
	if s.Converged {
		r.SolveFinalError.Observe(s.Error)
	}
	r.NetworkNodes.Set(float64(s.Nodes))
	r.NetworkLinks.Set(float64(s.Links))
}

// ObserveOptimize records one optimization.
func (r *Registry) ObserveOptimize(s optimize.Stats) {
	strategy := string(s.Strategy)
	outcome := "infeasible"
	if s.Feasible {
		outcome = "feasible"
		r.OptimizeLastTotalCost.Set(s.TotalCost)
	}
	r.OptimizationsTotal.WithLabelValues(strategy, outcome).Inc()
	r.OptimizeEvaluations.WithLabelValues(strategy).Observe(float64(s.Evaluations))
	r.OptimizeDuration.WithLabelValues(strategy).Observe(s.Duration.Seconds())
}

// WriteTextfile writes the text exposition of every collector to path,
// atomically.
func (r *Registry) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
