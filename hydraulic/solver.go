// SPDX-License-Identifier: MIT

package hydraulic

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-logr/logr"

	"github.com/katalvlaran/hredes/iterlog"
	"github.com/katalvlaran/hredes/network"
)

const (
	// qFloor (m³/s) bounds the linearization of near-zero flows.
	qFloor = 1e-6

	// initialVelocity (m/s) seeds every link flow.
	initialVelocity = 1.0
)

// Method names the algorithm in results.
const Method = "global-gradient"

// solver holds the working state of one solve. It is never shared.
type solver struct {
	net  *network.Network
	opts Options
	log  logr.Logger
	rec  *iterlog.Recorder
	f    Formula

	from, to []int
	r        []float64 // link resistance
	demand   []float64 // m³/s per node
	unk      []int     // node -> system row, -1 for fixed head
	rows     []int     // system row -> node

	q, h       []float64 // current iterate
	qNew, hNew []float64
	p, y       []float64

	relaxations int
	lastDQ      []float64 // |ΔQ| (m³/s) of the last accepted iteration
	lastDH      []float64 // |ΔH| (m) of the last accepted iteration
}

// Solve computes flows and heads for net.
//
// It returns the result, the iteration log, and:
//   - ErrNilNetwork or ErrOptionViolation for bad input (nil result);
//   - *SingularError when damping cannot recover the nodal system;
//   - *ConvergenceError when the iteration or time budget ran out, unless
//     opts.AcceptPartial is set.
//
// On numeric failures the result and log are still returned, holding the
// last iterate with Converged=false.
func Solve(net *network.Network, opts Options) (*Result, *iterlog.Log, error) {
	if net == nil {
		return nil, nil, ErrNilNetwork
	}
	if err := opts.normalize(); err != nil {
		return nil, nil, err
	}

	s := newSolver(net, opts)
	return s.run()
}

func newSolver(net *network.Network, opts Options) *solver {
	nn, nl := net.NumNodes(), net.NumLinks()
	s := &solver{
		net:    net,
		opts:   opts,
		log:    opts.Logger.WithName("hydraulic"),
		rec:    iterlog.NewRecorder(iterlog.WithClock(opts.Clock)),
		f:      opts.Formula,
		from:   make([]int, nl),
		to:     make([]int, nl),
		r:      make([]float64, nl),
		demand: make([]float64, nn),
		unk:    make([]int, nn),
		q:      make([]float64, nl),
		h:      make([]float64, nn),
		qNew:   make([]float64, nl),
		hNew:   make([]float64, nn),
		p:      make([]float64, nl),
		y:      make([]float64, nl),
		lastDQ: make([]float64, nl),
		lastDH: make([]float64, nn),
	}

	for k := 0; k < nl; k++ {
		l := net.Link(k)
		s.from[k], s.to[k] = net.Endpoints(k)
		d := l.Diameter / 1000
		s.r[k] = s.f.Resistance(l.Length, d, l.Roughness)
		s.q[k] = area(d) * initialVelocity
	}

	// Unknown heads start at the highest boundary head.
	top := math.Inf(-1)
	for _, i := range net.FixedHeadNodes() {
		top = math.Max(top, net.FixedHead(i))
	}
	for i := 0; i < nn; i++ {
		s.demand[i] = net.Node(i).Demand / 1000
		if net.IsFixed(i) {
			s.unk[i] = -1
			s.h[i] = net.FixedHead(i)
			continue
		}
		s.unk[i] = len(s.rows)
		s.rows = append(s.rows, i)
		s.h[i] = top
	}
	return s
}

// run iterates until convergence or budget exhaustion.
func (s *solver) run() (*Result, *iterlog.Log, error) {
	start := s.opts.Clock()
	var (
		metric     = 1.0 // no correction measured yet
		iterations int
		converged  bool
		cause      error
	)

	s.log.V(1).Info("solve started", "nodes", s.net.NumNodes(), "links", s.net.NumLinks(), "unknowns", len(s.rows))

	for !converged {
		// a) Budget
		if iterations >= s.opts.MaxIterations {
			break
		}
		if err := s.opts.Ctx.Err(); err != nil {
			cause = err
			break
		}
		iterations++

		// b) Linearize, solve, update (with damping retries)
		relax, err := s.iterate()
		if err != nil {
			var serr *SingularError
			if errors.As(err, &serr) {
				serr.Iteration = iterations
			}
			s.rec.Record(iterlog.Step{
				Description: fmt.Sprintf("Iteration %d: %v", iterations, err),
				Severity:    iterlog.Error,
				Error:       metric,
				Relaxation:  relax,
			})
			res := s.result(iterations-1, metric, false, start)
			s.observe(res, "singular")
			s.log.Error(err, "solve failed", "iteration", iterations)
			return res, s.rec.Log(), err
		}

		// c) Accept the iterate and measure the correction
		metric = s.accept()
		converged = metric <= s.opts.Tolerance
		s.recordIteration(iterations, metric, relax, converged)
		s.log.V(2).Info("iteration", "n", iterations, "error", metric, "relaxation", relax)
	}

	res := s.result(iterations, metric, converged, start)
	if converged {
		s.observe(res, "converged")
		s.log.V(1).Info("solve converged", "iterations", iterations, "error", metric)
		return res, s.rec.Log(), nil
	}

	cerr := &ConvergenceError{
		Iterations: iterations,
		Residual:   metric,
		Tolerance:  s.opts.Tolerance,
		Links:      s.worstLinks(3),
		Cause:      cause,
	}
	s.rec.Record(iterlog.Step{
		Description: fmt.Sprintf("Stopped after %d iterations: error %.3e above tolerance %.1e", iterations, metric, s.opts.Tolerance),
		Severity:    iterlog.Error,
		Error:       metric,
		Flows:       s.snapshotFlows(),
		Heads:       s.snapshotHeads(),
	})
	outcome := "not_converged"
	if cause != nil {
		outcome = "cancelled"
	}
	s.observe(res, outcome)
	s.log.Info("solve did not converge", "iterations", iterations, "error", metric, "cause", cause)

	if s.opts.AcceptPartial {
		return res, s.rec.Log(), nil
	}
	return res, s.rec.Log(), cerr
}

// iterate performs one Newton step into qNew/hNew, retrying with damping when
// the nodal system is near-singular. It returns the number of retries used.
func (s *solver) iterate() (int, error) {
	s.linearize()

	var lastErr error
	for relax := 0; relax <= s.opts.MaxRelaxations; relax++ {
		lambda, alpha := 0.0, 1.0
		if relax > 0 {
			lambda = 1e-8 * math.Pow(100, float64(relax-1))
			alpha = math.Pow(s.opts.RelaxationFactor, float64(relax))
			s.relaxations++
		}
		if err := s.solveHeads(lambda); err != nil {
			lastErr = err
			continue
		}
		if s.updateFlows(alpha) {
			return relax, nil
		}
		lastErr = errors.New("non-finite flow update")
	}

	s.log.V(1).Info("nodal system singular", "cause", lastErr)
	return s.opts.MaxRelaxations, &SingularError{
		Relaxations: s.opts.MaxRelaxations,
		Nodes:       s.weakestNode(),
	}
}

// linearize computes p = 1/g and y = h(Q)/g around the current flows.
func (s *solver) linearize() {
	for k, q := range s.q {
		g := s.f.Gradient(s.r[k], math.Max(math.Abs(q), qFloor))
		s.p[k] = 1 / g
		s.y[k] = s.f.Loss(s.r[k], q) / g
	}
}

// updateFlows applies Q ← Q + α·(Q − y + p·ΔH − Q). It reports false when a
// flow is not finite.
func (s *solver) updateFlows(alpha float64) bool {
	for k := range s.q {
		full := s.q[k] - s.y[k] + s.p[k]*(s.hNew[s.from[k]]-s.hNew[s.to[k]])
		v := s.q[k] + alpha*(full-s.q[k])
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
		s.qNew[k] = v
	}
	return true
}

// accept commits qNew/hNew and returns the largest relative flow correction
// max_k |ΔQ_k| / max(|Q_k|, qFloor).
func (s *solver) accept() float64 {
	var metric float64
	for k := range s.q {
		dq := math.Abs(s.qNew[k] - s.q[k])
		s.lastDQ[k] = dq
		metric = math.Max(metric, dq/math.Max(math.Abs(s.qNew[k]), qFloor))
	}
	for i := range s.h {
		s.lastDH[i] = math.Abs(s.hNew[i] - s.h[i])
	}
	copy(s.q, s.qNew)
	copy(s.h, s.hNew)
	return metric
}

// recordIteration appends the step for an accepted iterate.
func (s *solver) recordIteration(n int, metric float64, relax int, converged bool) {
	st := iterlog.Step{
		Description:   fmt.Sprintf("Iteration %d: error %.3e", n, metric),
		Severity:      iterlog.Info,
		Error:         metric,
		Relaxation:    relax,
		AffectedLinks: s.movedLinks(),
		AffectedNodes: s.movedNodes(),
	}
	if converged {
		st.Description = fmt.Sprintf("Iteration %d: converged, error %.3e", n, metric)
		st.Severity = iterlog.Success
	}
	if s.opts.RecordSnapshots {
		st.Flows = s.snapshotFlows()
		st.Heads = s.snapshotHeads()
	}
	s.rec.Record(st)
}

// movedLinks returns, in index order, the links whose last correction
// exceeds Tolerance in L/s.
func (s *solver) movedLinks() []string {
	var ids []string
	for k, dq := range s.lastDQ {
		if dq*1000 > s.opts.Tolerance {
			ids = append(ids, s.net.Link(k).ID)
		}
	}
	return ids
}

// movedNodes returns, in index order, the unknown-head nodes whose last
// correction exceeds Tolerance in m.
func (s *solver) movedNodes() []string {
	var ids []string
	for _, i := range s.rows {
		if s.lastDH[i] > s.opts.Tolerance {
			ids = append(ids, s.net.Node(i).ID)
		}
	}
	return ids
}

// worstLinks returns up to n link ids ordered by decreasing last correction;
// ties keep index order.
func (s *solver) worstLinks(n int) []string {
	var ids []string
	used := make([]bool, len(s.lastDQ))
	for len(ids) < n {
		best := -1
		for k, dq := range s.lastDQ {
			if used[k] || dq == 0 {
				continue
			}
			if best < 0 || dq > s.lastDQ[best] {
				best = k
			}
		}
		if best < 0 {
			break
		}
		used[best] = true
		ids = append(ids, s.net.Link(best).ID)
	}
	return ids
}

func (s *solver) snapshotFlows() []float64 {
	out := make([]float64, len(s.q))
	for k, q := range s.q {
		out[k] = q * 1000
	}
	return out
}

func (s *solver) snapshotHeads() []float64 {
	return append([]float64(nil), s.h...)
}

func (s *solver) observe(res *Result, outcome string) {
	if s.opts.Observer == nil {
		return
	}
	s.opts.Observer.ObserveSolve(SolveStats{
		Nodes:       s.net.NumNodes(),
		Links:       s.net.NumLinks(),
		Iterations:  res.Iterations,
		Relaxations: res.Relaxations,
		Error:       res.Error,
		Converged:   res.Converged,
		Outcome:     outcome,
		Duration:    res.Duration,
	})
}
