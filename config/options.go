package config

import (
	"github.com/go-logr/logr"

	"github.com/katalvlaran/hredes/compliance"
	"github.com/katalvlaran/hredes/hydraulic"
	"github.com/katalvlaran/hredes/optimize"
)

// SolverOptions returns hydraulic options for this configuration.
func (c *Config) SolverOptions(log logr.Logger) hydraulic.Options {
	opts := hydraulic.DefaultOptions()
	opts.Tolerance = c.Solver.Tolerance
	opts.MaxIterations = c.Solver.MaxIterations
	opts.MaxRelaxations = c.Solver.MaxRelaxations
	opts.RelaxationFactor = c.Solver.RelaxationFactor
	opts.AcceptPartial = c.Solver.AcceptPartial
	opts.Logger = log
	return opts
}

// OptimizeOptions returns optimizer options; every evaluation uses the
// solver settings without per-iteration snapshots.
func (c *Config) OptimizeOptions(log logr.Logger) optimize.Options {
	opts := optimize.DefaultOptions()
	opts.Strategy = optimize.Strategy(c.Optimize.Strategy)
	opts.MaxIterations = c.Optimize.Rounds
	opts.ExactLimit = c.Optimize.ExactLimit
	opts.Solver = c.SolverOptions(log)
	opts.Solver.RecordSnapshots = false
	opts.Solver.AcceptPartial = false
	opts.Logger = log
	return opts
}

// Limits returns the code limits of the configured scope.
func (c *Config) Limits() (compliance.Limits, error) {
	scope, err := compliance.ParseScope(c.Scope)
	if err != nil {
		return compliance.Limits{}, err
	}
	return compliance.LimitsFor(scope)
}

// Constraints resolves the optimizer bounds: the scope limits, replaced by
// the project constraints when given, with every non-zero configured bound
// applied last.
func (c *Config) Constraints(project *optimize.Constraints) (optimize.Constraints, error) {
	limits, err := c.Limits()
	if err != nil {
		return optimize.Constraints{}, err
	}
	out := limits.Constraints()
	if project != nil {
		out = *project
	}
	for _, o := range []struct {
		v   float64
		dst *float64
	}{
		{c.Optimize.MinPressure, &out.MinPressure},
		{c.Optimize.MaxPressure, &out.MaxPressure},
		{c.Optimize.MinVelocity, &out.MinVelocity},
		{c.Optimize.MaxVelocity, &out.MaxVelocity},
	} {
		if o.v > 0 {
			*o.dst = o.v
		}
	}
	return out, out.Validate()
}
