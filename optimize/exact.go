package optimize

import (
	"fmt"

	"github.com/katalvlaran/hredes/iterlog"
)

// exact enumerates assignments depth-first over links in code order, sizes
// ascending, and keeps the cheapest feasible one. A branch is cut before
// solving when its cost, completed with the cheapest size everywhere else,
// is not below the incumbent; equal-cost ties therefore keep the first
// assignment in enumeration order.
//
// Complexity: O(|catalog|^|links|) evaluations in the worst case.
func (o *optimizer) exact() (*Result, error) {
	n := o.net.NumLinks()
	assign := make([]int, n)

	// cheapest unit cost completes partial assignments for the bound
	minUnit := o.cat.At(0).UnitCost
	for j := 1; j < o.cat.Len(); j++ {
		if u := o.cat.At(j).UnitCost; u < minUnit {
			minUnit = u
		}
	}
	rest := make([]float64, n+1) // rest[d] = cheapest cost of links order[d:]
	for d := n - 1; d >= 0; d-- {
		rest[d] = rest[d+1] + o.net.Link(o.order[d]).Length*minUnit
	}

	var best, closest *attempt
	var walk func(depth int, partial float64) error
	walk = func(depth int, partial float64) error {
		if best != nil && partial+rest[depth] >= best.cost {
			return nil
		}
		if depth == n {
			if err := o.opts.Ctx.Err(); err != nil {
				return err
			}
			a, err := o.evaluate(assign)
			if err != nil {
				return err
			}
			switch {
			case len(a.viol) == 0:
				best = a
				o.rounds++
				o.record(a, iterlog.Info, fmt.Sprintf("Evaluation %d: new best cost %.2f", o.evals, a.cost), nil)
				o.log.V(2).Info("incumbent", "evaluation", o.evals, "cost", a.cost)
			case closest == nil || len(a.viol) < len(closest.viol) ||
				(len(a.viol) == len(closest.viol) && a.cost < closest.cost):
				closest = a
			}
			return nil
		}
		k := o.order[depth]
		length := o.net.Link(k).Length
		for j := 0; j < o.cat.Len(); j++ {
			assign[k] = j
			if err := walk(depth+1, partial+length*o.cat.At(j).UnitCost); err != nil {
				return err
			}
		}
		assign[k] = 0
		return nil
	}

	if err := walk(0, 0); err != nil {
		if ctxErr := o.opts.Ctx.Err(); ctxErr != nil {
			return nil, o.infeasible("cancelled", firstOf(best, closest), nil, ctxErr)
		}
		return nil, err
	}

	if best == nil {
		if closest != nil {
			o.record(closest, iterlog.Error, fmt.Sprintf("No feasible assignment in %d evaluations", o.evals), nil)
		}
		return nil, o.infeasible("no catalog assignment satisfies the constraints", closest, nil, nil)
	}
	o.record(best, iterlog.Success, fmt.Sprintf("Optimum after %d evaluations: cost %.2f", o.evals, best.cost), nil)
	o.log.V(1).Info("optimization finished", "strategy", o.strategy, "evaluations", o.evals, "cost", best.cost)
	return o.result(best), nil
}

func firstOf(as ...*attempt) *attempt {
	for _, a := range as {
		if a != nil {
			return a
		}
	}
	return nil
}
