package optimize_test

import (
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/katalvlaran/hredes/optimize"
)

// TestProperty_StrategiesAgree checks on random series networks that both
// strategies agree on feasibility and that the exact cost never exceeds the
// greedy one.
func TestProperty_StrategiesAgree(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 25
	properties := gopter.NewProperties(parameters)

	cat := fiveSizes(t)
	c := optimize.Constraints{MinPressure: 10, MaxVelocity: 1.5}

	properties.Property("exact ≤ greedy, same verdict", prop.ForAll(
		func(seed int64) bool {
			net, err := randomChain(seed)
			if err != nil {
				return false
			}
			greedyOpts := optimize.DefaultOptions()
			greedyOpts.Strategy = optimize.Greedy
			exactOpts := optimize.DefaultOptions()
			exactOpts.Strategy = optimize.Exact

			g, gErr := optimize.Optimize(net, cat, c, greedyOpts)
			e, eErr := optimize.Optimize(net, cat, c, exactOpts)
			switch {
			case eErr != nil:
				return errors.Is(eErr, optimize.ErrInfeasible) && errors.Is(gErr, optimize.ErrInfeasible)
			case gErr != nil:
				return false
			}
			return e.Feasible && g.Feasible && e.TotalCost <= g.TotalCost+1e-6
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}
