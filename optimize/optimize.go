package optimize

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/katalvlaran/hredes/catalog"
	"github.com/katalvlaran/hredes/hydraulic"
	"github.com/katalvlaran/hredes/iterlog"
	"github.com/katalvlaran/hredes/network"
)

// pressureSlack absorbs solver round-off when comparing against bounds.
const pressureSlack = 1e-9

// Optimize chooses a catalog diameter for every link of net.
//
// The strategy follows opts.Strategy; Auto picks Exact when the search space
// |catalog|^|links| is at most opts.ExactLimit, Greedy otherwise.
//
// Errors:
//   - ErrNilInput, ErrOptionViolation for bad input;
//   - *InfeasibleError when the constraints cannot be met, the round budget is
//     spent or opts.Ctx is done (Best holds the last attempt);
//   - any hydraulic error raised while evaluating an assignment.
func Optimize(net *network.Network, cat *catalog.Catalog, c Constraints, opts Options) (*Result, error) {
	if net == nil || cat == nil {
		return nil, ErrNilInput
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := opts.normalize(); err != nil {
		return nil, err
	}

	space, within := searchSpace(cat.Len(), net.NumLinks(), opts.ExactLimit)
	strategy := opts.Strategy
	switch {
	case strategy == Auto && within:
		strategy = Exact
	case strategy == Auto:
		strategy = Greedy
	case strategy == Exact && !within:
		return nil, fmt.Errorf("%w: more than %d assignments for exact search (%d links, %d sizes)",
			ErrOptionViolation, opts.ExactLimit, net.NumLinks(), cat.Len())
	}

	o := newOptimizer(net, cat, c, opts, strategy)
	o.log.V(1).Info("optimization started", "strategy", strategy, "links", net.NumLinks(), "sizes", cat.Len(), "space", space)

	var (
		res *Result
		err error
	)
	if strategy == Exact {
		res, err = o.exact()
	} else {
		res, err = o.greedy()
	}
	o.observe(res, err)
	return res, err
}

// Cost prices every link of net through cat: Σ length × unit cost of the
// entry matching the link diameter.
func Cost(net *network.Network, cat *catalog.Catalog) (float64, error) {
	var total float64
	for k := 0; k < net.NumLinks(); k++ {
		l := net.Link(k)
		c, err := cat.Cost(l.Length, l.Diameter)
		if err != nil {
			return 0, fmt.Errorf("optimize: link %q: %w", l.ID, err)
		}
		total += c
	}
	return total, nil
}

// searchSpace returns min(sizes^links, limit+1) and whether it is within
// limit.
func searchSpace(sizes, links, limit int) (int, bool) {
	space := 1
	for i := 0; i < links; i++ {
		space *= sizes
		if space > limit {
			return limit + 1, false
		}
	}
	return space, true
}

// attempt is one evaluated assignment (catalog index per link).
type attempt struct {
	assign []int
	net    *network.Network
	sol    *hydraulic.Result
	viol   []Violation
	cost   float64
}

// repairable counts the violations upsizing can fix.
func (a *attempt) repairable() int {
	n := 0
	for _, v := range a.viol {
		if v.Kind.repairable() {
			n++
		}
	}
	return n
}

// optimizer holds the state shared by both strategies.
type optimizer struct {
	net      *network.Network
	cat      *catalog.Catalog
	c        Constraints
	opts     Options
	strategy Strategy
	log      logr.Logger
	rec      *iterlog.Recorder
	formula  hydraulic.Formula

	order []int // link indices by code
	rank  []int // link index -> position in order
	start time.Time

	rounds int
	evals  int
}

func newOptimizer(net *network.Network, cat *catalog.Catalog, c Constraints, opts Options, strategy Strategy) *optimizer {
	o := &optimizer{
		net:      net,
		cat:      cat,
		c:        c,
		opts:     opts,
		strategy: strategy,
		log:      opts.Logger.WithName("optimize"),
		rec:      iterlog.NewRecorder(iterlog.WithClock(opts.Clock)),
		formula:  opts.Solver.Formula,
		order:    net.LinksByCode(),
		rank:     make([]int, net.NumLinks()),
		start:    opts.Clock(),
	}
	if o.formula.Exponent == 0 {
		o.formula = hydraulic.HazenWilliams
	}
	for pos, k := range o.order {
		o.rank[k] = pos
	}
	return o
}

// price returns the cost of an assignment.
func (o *optimizer) price(assign []int) float64 {
	var total float64
	for k, j := range assign {
		total += o.net.Link(k).Length * o.cat.At(j).UnitCost
	}
	return total
}

// evaluate applies assign to the network, solves it and lists violations.
func (o *optimizer) evaluate(assign []int) (*attempt, error) {
	specs := make([]network.LinkSpec, len(assign))
	for k, j := range assign {
		e := o.cat.At(j)
		specs[k] = network.LinkSpec{Diameter: e.Diameter, Roughness: e.Roughness, Material: e.Material}
	}
	snap, err := o.net.WithLinkSpecs(specs)
	if err != nil {
		return nil, err
	}

	o.evals++
	sol, _, err := hydraulic.Solve(snap, o.opts.Solver)
	if err != nil {
		return nil, fmt.Errorf("optimize: evaluation %d: %w", o.evals, err)
	}

	return &attempt{
		assign: append([]int(nil), assign...),
		net:    snap,
		sol:    sol,
		viol:   violations(snap, sol, o.c),
		cost:   o.price(assign),
	}, nil
}

// violations lists broken bounds: nodes in index order, then links.
func violations(net *network.Network, sol *hydraulic.Result, c Constraints) []Violation {
	var out []Violation
	for i, nr := range sol.Nodes {
		if net.IsFixed(i) {
			continue
		}
		if nr.Pressure < c.MinPressure-pressureSlack {
			out = append(out, Violation{Kind: PressureLow, ID: nr.ID, Value: nr.Pressure, Limit: c.MinPressure})
		}
		if c.MaxPressure > 0 && nr.Pressure > c.MaxPressure+pressureSlack {
			out = append(out, Violation{Kind: PressureHigh, ID: nr.ID, Value: nr.Pressure, Limit: c.MaxPressure})
		}
	}
	for _, lr := range sol.Links {
		if c.MaxVelocity > 0 && lr.Velocity > c.MaxVelocity {
			out = append(out, Violation{Kind: VelocityHigh, ID: lr.ID, Value: lr.Velocity, Limit: c.MaxVelocity})
		}
		if c.MinVelocity > 0 && lr.Velocity < c.MinVelocity {
			out = append(out, Violation{Kind: VelocityLow, ID: lr.ID, Value: lr.Velocity, Limit: c.MinVelocity})
		}
	}
	return out
}

// record appends a step describing a.
func (o *optimizer) record(a *attempt, sev iterlog.Severity, desc string, links []string) {
	st := iterlog.Step{
		Description:   desc,
		Severity:      sev,
		Error:         a.sol.Error,
		Flows:         make([]float64, len(a.sol.Links)),
		Heads:         make([]float64, len(a.sol.Nodes)),
		AffectedLinks: links,
	}
	for k, lr := range a.sol.Links {
		st.Flows[k] = lr.Flow
	}
	for i, nr := range a.sol.Nodes {
		st.Heads[i] = nr.Head
	}
	for _, v := range a.viol {
		if v.Kind == PressureLow || v.Kind == PressureHigh {
			st.AffectedNodes = append(st.AffectedNodes, v.ID)
		}
	}
	o.rec.Record(st)
}

// result converts an attempt into a Result priced through the catalog.
func (o *optimizer) result(a *attempt) *Result {
	res := &Result{
		Links:       make([]LinkChoice, a.net.NumLinks()),
		Solution:    a.sol,
		Violations:  a.viol,
		Feasible:    len(a.viol) == 0,
		Strategy:    o.strategy,
		Rounds:      o.rounds,
		Evaluations: o.evals,
		Log:         o.rec.Log(),
	}
	for k := range res.Links {
		l := a.net.Link(k)
		e := o.cat.At(a.assign[k])
		res.Links[k] = LinkChoice{
			ID:       l.ID,
			Code:     l.Code,
			Length:   l.Length,
			Diameter: l.Diameter,
			Entry:    e,
			Cost:     l.Length * e.UnitCost,
		}
	}
	if total, err := Cost(a.net, o.cat); err == nil {
		res.TotalCost = total
	} else {
		res.TotalCost = a.cost
	}
	if base, err := Cost(o.net, o.cat); err == nil && base > 0 {
		res.BaselineCost = base
		res.Savings = (base - res.TotalCost) / base
	}
	res.Duration = o.opts.Clock().Sub(o.start)
	return res
}

// infeasible builds an *InfeasibleError around the best attempt, which may
// be nil when nothing was evaluated.
func (o *optimizer) infeasible(reason string, best *attempt, links []string, cause error) error {
	e := &InfeasibleError{Reason: reason, Links: links, Cause: cause}
	if best != nil {
		e.Best = o.result(best)
		e.Violations = best.viol
	}
	o.log.Info("optimization infeasible", "reason", reason, "violations", len(e.Violations), "links", links)
	return e
}

func (o *optimizer) observe(res *Result, err error) {
	if o.opts.Observer == nil {
		return
	}
	st := Stats{Strategy: o.strategy, Rounds: o.rounds, Evaluations: o.evals, Duration: o.opts.Clock().Sub(o.start)}
	var ie *InfeasibleError
	switch {
	case err == nil && res != nil:
		st.Feasible, st.TotalCost = true, res.TotalCost
	case errors.As(err, &ie) && ie.Best != nil:
		st.TotalCost = ie.Best.TotalCost
	}
	o.opts.Observer.ObserveOptimize(st)
}
