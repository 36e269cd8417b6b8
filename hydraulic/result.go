// SPDX-License-Identifier: MIT

package hydraulic

import (
	"math"
	"time"

	"github.com/katalvlaran/hredes/network"
)

// result converts the current iterate into record units.
func (s *solver) result(iterations int, metric float64, converged bool, start time.Time) *Result {
	res := &Result{
		Nodes:       make([]NodeResult, s.net.NumNodes()),
		Links:       make([]LinkResult, s.net.NumLinks()),
		Converged:   converged,
		Iterations:  iterations,
		Error:       metric,
		Relaxations: s.relaxations,
		Method:      Method,
		Tolerance:   s.opts.Tolerance,
	}
	for i := range res.Nodes {
		n := s.net.Node(i)
		res.Nodes[i] = NodeResult{
			ID:       n.ID,
			Code:     n.Code,
			Head:     s.h[i],
			Pressure: s.h[i] - n.Elevation,
			Demand:   n.Demand,
		}
	}
	for k := range res.Links {
		l := s.net.Link(k)
		hl := s.f.Loss(s.r[k], s.q[k])
		res.Links[k] = LinkResult{
			ID:           l.ID,
			Code:         l.Code,
			Flow:         s.q[k] * 1000,
			Velocity:     math.Abs(s.q[k]) / area(l.Diameter/1000),
			HeadLoss:     hl,
			UnitHeadLoss: math.Abs(hl) / l.Length * 1000,
		}
	}
	res.Duration = s.opts.Clock().Sub(start)
	return res
}

// Continuity returns, per node, inflow − outflow − demand in L/s. Fixed-head
// nodes report zero; their imbalance is the supply they provide.
func (r *Result) Continuity(net *network.Network) []float64 {
	out := make([]float64, net.NumNodes())
	for k, lr := range r.Links {
		u, v := net.Endpoints(k)
		out[u] -= lr.Flow
		out[v] += lr.Flow
	}
	for i := range out {
		if net.IsFixed(i) {
			out[i] = 0
			continue
		}
		out[i] -= net.Node(i).Demand
	}
	return out
}

// Supply returns the net outflow in L/s of each fixed-head node, keyed by
// node index order; non-fixed nodes report zero.
func (r *Result) Supply(net *network.Network) []float64 {
	out := make([]float64, net.NumNodes())
	for k, lr := range r.Links {
		u, v := net.Endpoints(k)
		if net.IsFixed(u) {
			out[u] += lr.Flow
		}
		if net.IsFixed(v) {
			out[v] -= lr.Flow
		}
	}
	return out
}

// Summary reports the pressure extremes over non-fixed nodes and velocity
// extremes over links with non-zero velocity.
func (r *Result) Summary(net *network.Network) Summary {
	sm := Summary{
		MinPressure: math.Inf(1), MaxPressure: math.Inf(-1),
		MinVelocity: math.Inf(1), MaxVelocity: math.Inf(-1),
		Iterations: r.Iterations, Error: r.Error, Converged: r.Converged,
	}
	for i, nr := range r.Nodes {
		sm.TotalDemand += nr.Demand
		if net.IsFixed(i) {
			continue
		}
		if nr.Pressure < sm.MinPressure {
			sm.MinPressure, sm.MinPressureNode = nr.Pressure, nr.ID
		}
		if nr.Pressure > sm.MaxPressure {
			sm.MaxPressure, sm.MaxPressureNode = nr.Pressure, nr.ID
		}
	}
	for _, lr := range r.Links {
		if lr.Velocity == 0 {
			continue
		}
		if lr.Velocity < sm.MinVelocity {
			sm.MinVelocity, sm.MinVelocityLink = lr.Velocity, lr.ID
		}
		if lr.Velocity > sm.MaxVelocity {
			sm.MaxVelocity, sm.MaxVelocityLink = lr.Velocity, lr.ID
		}
	}
	if math.IsInf(sm.MinPressure, 1) {
		sm.MinPressure, sm.MaxPressure = 0, 0
	}
	if math.IsInf(sm.MinVelocity, 1) {
		sm.MinVelocity, sm.MaxVelocity = 0, 0
	}
	return sm
}
