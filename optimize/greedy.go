package optimize

import (
	"fmt"
	"math"
	"sort"

	"github.com/katalvlaran/hredes/iterlog"
)

// plan is the outcome of mapping one attempt's violations to links.
type plan struct {
	upsize  []int    // link indices, ascending by code
	blocked []string // links (or nodes without supply path) that cannot grow
}

// greedy runs the upsizing rounds followed by the downsizing pass.
//
// Complexity: O(R·S) where R ≤ MaxIterations + Σ(catalog steps) and S is one
// hydraulic solve.
func (o *optimizer) greedy() (*Result, error) {
	assign := make([]int, o.net.NumLinks()) // 0 is the smallest entry
	var cur *attempt

	// 1) Upsizing rounds
	for round := 1; ; round++ {
		if err := o.opts.Ctx.Err(); err != nil {
			return nil, o.infeasible("cancelled", cur, nil, err)
		}
		next, err := o.evaluate(assign)
		if err != nil {
			return nil, err
		}
		cur = next
		o.rounds = round

		if cur.repairable() == 0 {
			o.record(cur, iterlog.Info, fmt.Sprintf("Round %d: sizing satisfied, cost %.2f", round, cur.cost), nil)
			break
		}

		p := o.plan(cur)
		if len(p.blocked) > 0 {
			o.record(cur, iterlog.Error, fmt.Sprintf("Round %d: %d violations, largest diameter reached", round, len(cur.viol)), p.blocked)
			return nil, o.infeasible("largest catalog diameter reached", cur, p.blocked, nil)
		}
		ids := o.linkIDs(p.upsize)
		o.record(cur, iterlog.Info, fmt.Sprintf("Round %d: %d violations, upsizing %d links, cost %.2f", round, len(cur.viol), len(ids), cur.cost), ids)
		o.log.V(2).Info("round", "n", round, "violations", len(cur.viol), "upsize", ids, "cost", cur.cost)

		if round >= o.opts.MaxIterations {
			return nil, o.infeasible(fmt.Sprintf("round budget of %d exhausted", o.opts.MaxIterations), cur, nil, nil)
		}
		for _, k := range p.upsize {
			assign[k]++
		}
	}

	// 2) Downsizing pass in code order
	cur, shrunk, err := o.refine(cur)
	if err != nil {
		return nil, o.infeasible("cancelled", cur, nil, err)
	}

	// 3) Verdict
	if len(cur.viol) > 0 {
		o.record(cur, iterlog.Error, fmt.Sprintf("%d violations cannot be repaired by upsizing", len(cur.viol)), nil)
		return nil, o.infeasible("violations not repairable by upsizing", cur, nil, nil)
	}
	o.record(cur, iterlog.Success, fmt.Sprintf("Optimized in %d rounds: cost %.2f, %d links reduced", o.rounds, cur.cost, len(shrunk)), shrunk)
	o.log.V(1).Info("optimization finished", "strategy", o.strategy, "rounds", o.rounds, "evaluations", o.evals, "cost", cur.cost)
	return o.result(cur), nil
}

// refine tries each link one size smaller, in code order, keeping a reduction
// while it adds no repairable violation, does not add others and does not
// cost more. It returns the final attempt and the reduced link IDs. Only a
// done context is reported as error; evaluation failures end the pass.
func (o *optimizer) refine(cur *attempt) (*attempt, []string, error) {
	var shrunk []string
	for _, k := range o.order {
		changed := false
		for cur.assign[k] > 0 {
			if err := o.opts.Ctx.Err(); err != nil {
				return cur, shrunk, err
			}
			trial := append([]int(nil), cur.assign...)
			trial[k]--
			next, err := o.evaluate(trial)
			if err != nil {
				o.log.V(1).Info("downsizing stopped", "link", o.net.Link(k).ID, "err", err)
				break
			}
			if next.repairable() > 0 || len(next.viol) > len(cur.viol) || next.cost > cur.cost {
				break
			}
			cur, changed = next, true
		}
		if changed {
			shrunk = append(shrunk, o.net.Link(k).ID)
		}
	}
	return cur, shrunk, nil
}

// plan maps every repairable violation of a to the link to upsize.
func (o *optimizer) plan(a *attempt) plan {
	var (
		p      plan
		chosen = make(map[int]bool)
	)
	for _, v := range a.viol {
		switch v.Kind {
		case VelocityHigh:
			k, _ := o.net.LinkIndex(v.ID)
			if a.assign[k]+1 >= o.cat.Len() {
				p.blocked = append(p.blocked, v.ID)
				continue
			}
			chosen[k] = true

		case PressureLow:
			i, _ := o.net.NodeIndex(v.ID)
			k, ok := o.bestUpstream(a, i)
			if !ok {
				p.blocked = append(p.blocked, o.blockedPath(a, i)...)
				continue
			}
			chosen[k] = true
		}
	}

	for k := range chosen {
		p.upsize = append(p.upsize, k)
	}
	sort.Slice(p.upsize, func(x, y int) bool { return o.rank[p.upsize[x]] < o.rank[p.upsize[y]] })
	p.blocked = dedupe(p.blocked)
	return p
}

// upstream walks from node i towards supply, following at each node the
// incoming link with the largest flow, until a fixed-head node, a node
// without inflow, or a revisit.
func (o *optimizer) upstream(a *attempt, i int) []int {
	var (
		path []int
		seen = make(map[int]bool)
	)
	for cur := i; !o.net.IsFixed(cur) && !seen[cur]; {
		seen[cur] = true
		best, bestQ := -1, 0.0
		for _, k := range o.net.Incident(cur) {
			q := a.sol.Links[k].Flow
			if from, _ := o.net.Endpoints(k); from == cur {
				q = -q
			}
			if q > bestQ {
				best, bestQ = k, q
			}
		}
		if best < 0 {
			break
		}
		path = append(path, best)
		cur = o.net.Other(best, cur)
	}
	return path
}

// bestUpstream picks, on the supply path of node i, the growable link with
// the largest head-loss reduction per unit of upsizing cost. Ties go to the
// earlier link code.
func (o *optimizer) bestUpstream(a *attempt, i int) (int, bool) {
	best, bestScore := -1, math.Inf(-1)
	for _, k := range o.upstream(a, i) {
		j := a.assign[k]
		if j+1 >= o.cat.Len() {
			continue
		}
		score := o.score(a, k, j)
		if score > bestScore || (score == bestScore && o.rank[k] < o.rank[best]) {
			best, bestScore = k, score
		}
	}
	return best, best >= 0
}

// score is the head-loss reduction of moving link k from entry j to j+1 at
// constant flow, divided by the added cost.
func (o *optimizer) score(a *attempt, k, j int) float64 {
	cur := o.cat.At(j)
	next, ok := o.cat.Next(cur.Diameter)
	if !ok {
		return math.Inf(-1)
	}
	hf := math.Abs(a.sol.Links[k].HeadLoss)
	benefit := hf * (1 - math.Pow(cur.Diameter/next.Diameter, o.formula.DiameterExponent))
	extra := o.net.Link(k).Length * (next.UnitCost - cur.UnitCost)
	if extra <= 0 {
		return math.Inf(1)
	}
	return benefit / extra
}

// blockedPath names what stops node i from being repaired: its supply path,
// or the node itself when it has none.
func (o *optimizer) blockedPath(a *attempt, i int) []string {
	path := o.upstream(a, i)
	if len(path) == 0 {
		return []string{o.net.Node(i).ID}
	}
	return o.linkIDs(path)
}

func (o *optimizer) linkIDs(ks []int) []string {
	out := make([]string, len(ks))
	for x, k := range ks {
		out[x] = o.net.Link(k).ID
	}
	return out
}

func dedupe(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
