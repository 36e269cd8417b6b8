package hydraulic_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/katalvlaran/hredes/hydraulic"
	"github.com/katalvlaran/hredes/iterlog"
	"github.com/katalvlaran/hredes/network"
)

// SolveSuite exercises the global gradient solver.
type SolveSuite struct {
	suite.Suite
}

type countingObserver struct {
	stats []hydraulic.SolveStats
}

func (o *countingObserver) ObserveSolve(s hydraulic.SolveStats) { o.stats = append(o.stats, s) }

// TestSinglePipe_ClosedForm checks flow = demand and the closed-form loss.
func (s *SolveSuite) TestSinglePipe_ClosedForm() {
	t := s.T()
	net := singlePipe(t)
	res, log, err := hydraulic.Solve(net, hydraulic.DefaultOptions())
	require.NoError(t, err)
	require.True(t, res.Converged)

	hf := 10.674 * 500 * math.Pow(0.01, 1.852) / (math.Pow(140, 1.852) * math.Pow(0.15, 4.8704))
	require.InDelta(t, 10.0, res.Links[0].Flow, 1e-9)
	require.InDelta(t, hf, res.Links[0].HeadLoss, 1e-6)
	require.InDelta(t, 100-hf, res.Nodes[1].Head, 1e-6)
	require.InDelta(t, 18.85, res.Nodes[1].Pressure, 0.01)
	require.InDelta(t, 0.566, res.Links[0].Velocity, 0.001)
	require.InDelta(t, hf/500*1000, res.Links[0].UnitHeadLoss, 1e-6)

	require.Equal(t, 100.0, res.Nodes[0].Head)
	require.Equal(t, 0.0, res.Nodes[0].Pressure)
	require.Equal(t, hydraulic.Method, res.Method)

	require.Equal(t, res.Iterations, log.Len())
	require.Equal(t, iterlog.Success, log.Final())
	last, _ := log.Last()
	require.Len(t, last.Flows, 1)
	require.Len(t, last.Heads, 2)
}

// TestLoops_Conservation checks mass and energy balance on a looped network.
func (s *SolveSuite) TestLoops_Conservation() {
	t := s.T()
	net := twoLoops(t)
	opts := hydraulic.DefaultOptions()
	res, _, err := hydraulic.Solve(net, opts)
	require.NoError(t, err)
	require.True(t, res.Converged)
	require.LessOrEqual(t, res.Error, opts.Tolerance)

	for i, r := range res.Continuity(net) {
		require.LessOrEqual(t, math.Abs(r), opts.Tolerance, "node %s", net.Node(i).ID)
	}
	for k, lr := range res.Links {
		u, v := net.Endpoints(k)
		l := net.Link(k)
		require.InDelta(t, hydraulic.HeadLoss(l.Length, l.Diameter, l.Roughness, lr.Flow),
			res.Nodes[u].Head-res.Nodes[v].Head, 1e-4, "link %s", l.ID)
	}

	supply := res.Supply(net)
	require.InDelta(t, net.TotalDemand(), supply[0], 1e-6)

	sm := res.Summary(net)
	require.Equal(t, "A", sm.MinPressureNode)
	require.Equal(t, "D", sm.MaxPressureNode)
	require.InDelta(t, 29.0, sm.TotalDemand, 1e-12)
	require.Greater(t, sm.MaxVelocity, sm.MinVelocity)
}

// TestConvergence_LargestRelativeCorrection recomputes every step's metric
// and affected ids from consecutive snapshots.
func (s *SolveSuite) TestConvergence_LargestRelativeCorrection() {
	t := s.T()
	net := twoLoops(t)
	opts := hydraulic.DefaultOptions()
	res, log, err := hydraulic.Solve(net, opts)
	require.NoError(t, err)
	require.True(t, res.Converged)

	steps := log.Steps()
	require.GreaterOrEqual(t, len(steps), 2)
	for n := 1; n < len(steps); n++ {
		prev, cur := steps[n-1], steps[n]

		var metric float64
		var links, nodes []string
		for k := range cur.Flows {
			dq := math.Abs(cur.Flows[k] - prev.Flows[k])
			metric = math.Max(metric, dq/math.Max(math.Abs(cur.Flows[k]), 1e-3))
			if dq > opts.Tolerance {
				links = append(links, net.Link(k).ID)
			}
		}
		for i := range cur.Heads {
			if !net.IsFixed(i) && math.Abs(cur.Heads[i]-prev.Heads[i]) > opts.Tolerance {
				nodes = append(nodes, net.Node(i).ID)
			}
		}

		require.InDelta(t, metric, cur.Error, 1e-12, "step %d", n)
		require.Equal(t, links, cur.AffectedLinks, "step %d", n)
		require.Equal(t, nodes, cur.AffectedNodes, "step %d", n)
	}

	last := steps[len(steps)-1]
	require.Equal(t, iterlog.Success, last.Severity)
	require.LessOrEqual(t, last.Error, opts.Tolerance)
	require.Equal(t, last.Error, res.Error)
}

// TestDeterministic solves twice and expects identical numbers.
func (s *SolveSuite) TestDeterministic() {
	t := s.T()
	net := twoLoops(t)
	a, _, err := hydraulic.Solve(net, hydraulic.DefaultOptions())
	require.NoError(t, err)
	b, _, err := hydraulic.Solve(net, hydraulic.DefaultOptions())
	require.NoError(t, err)
	a.Duration, b.Duration = 0, 0
	require.Equal(t, a, b)
}

// TestFixedToFixed balances two reservoirs without unknown heads.
func (s *SolveSuite) TestFixedToFixed() {
	t := s.T()
	net, err := network.Build(
		[]network.Node{
			{ID: "HI", Type: network.Reservoir, Elevation: 60, IsFixedHead: true},
			{ID: "LO", Type: network.Tank, Elevation: 45, Level: 5, IsFixedHead: true},
		},
		[]network.Link{{ID: "P", From: "HI", To: "LO", Length: 1000, Diameter: 100, Roughness: 140}},
	)
	require.NoError(t, err)

	res, _, err := hydraulic.Solve(net, hydraulic.DefaultOptions())
	require.NoError(t, err)
	require.InDelta(t, 10.0, res.Links[0].HeadLoss, 1e-6)
	require.InDelta(t, 7.606, res.Links[0].Flow, 1e-3)
}

// TestBudget_Iterations returns the last iterate with a ConvergenceError.
func (s *SolveSuite) TestBudget_Iterations() {
	t := s.T()
	net := twoLoops(t)
	opts := hydraulic.DefaultOptions()
	opts.MaxIterations = 1
	obs := &countingObserver{}
	opts.Observer = obs

	res, log, err := hydraulic.Solve(net, opts)
	require.ErrorIs(t, err, hydraulic.ErrNotConverged)
	var cerr *hydraulic.ConvergenceError
	require.True(t, errors.As(err, &cerr))
	require.Equal(t, 1, cerr.Iterations)
	require.Greater(t, cerr.Residual, cerr.Tolerance)
	require.Equal(t, opts.Tolerance, cerr.Tolerance)
	require.NotEmpty(t, cerr.Links)
	require.NotNil(t, res)
	require.False(t, res.Converged)
	require.Equal(t, cerr.Residual, res.Error)
	require.Equal(t, 1, res.Iterations)
	require.Equal(t, iterlog.Error, log.Final())
	require.Equal(t, 2, log.Len())

	require.Len(t, obs.stats, 1)
	require.Equal(t, "not_converged", obs.stats[0].Outcome)

	opts.AcceptPartial = true
	res, _, err = hydraulic.Solve(net, opts)
	require.NoError(t, err)
	require.False(t, res.Converged)
}

// TestBudget_Context stops before the first iteration.
func (s *SolveSuite) TestBudget_Context() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	opts := hydraulic.DefaultOptions()
	opts.Ctx = ctx

	res, _, err := hydraulic.Solve(twoLoops(t), opts)
	require.ErrorIs(t, err, hydraulic.ErrNotConverged)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 0, res.Iterations)
	require.Len(t, res.Nodes, 5)
}

// TestSingular reports the weakest node once damping is exhausted.
func (s *SolveSuite) TestSingular() {
	t := s.T()
	opts := hydraulic.DefaultOptions()
	opts.MaxCondition = 1.000001
	opts.MaxRelaxations = 2

	res, log, err := hydraulic.Solve(twoLoops(t), opts)
	require.ErrorIs(t, err, hydraulic.ErrSingular)
	var serr *hydraulic.SingularError
	require.True(t, errors.As(err, &serr))
	require.Equal(t, 1, serr.Iteration)
	require.Equal(t, 2, serr.Relaxations)
	require.Len(t, serr.Nodes, 1)
	require.NotNil(t, res)
	require.False(t, res.Converged)
	require.Equal(t, iterlog.Error, log.Final())
}

// TestOptions rejects invalid settings.
func (s *SolveSuite) TestOptions() {
	t := s.T()
	_, _, err := hydraulic.Solve(nil, hydraulic.DefaultOptions())
	require.ErrorIs(t, err, hydraulic.ErrNilNetwork)

	for _, mut := range []func(*hydraulic.Options){
		func(o *hydraulic.Options) { o.Tolerance = 0 },
		func(o *hydraulic.Options) { o.MaxIterations = 0 },
		func(o *hydraulic.Options) { o.MaxRelaxations = -1 },
		func(o *hydraulic.Options) { o.RelaxationFactor = 1 },
		func(o *hydraulic.Options) { o.MaxCondition = 0.5 },
	} {
		opts := hydraulic.DefaultOptions()
		mut(&opts)
		_, _, err := hydraulic.Solve(singlePipe(t), opts)
		require.ErrorIs(t, err, hydraulic.ErrOptionViolation)
	}
}

// TestNoDemand converges to zero flow.
func (s *SolveSuite) TestNoDemand() {
	t := s.T()
	net, err := singlePipe(t).WithDemandMultipliers(func(network.Node) float64 { return 0 })
	require.NoError(t, err)
	res, _, err := hydraulic.Solve(net, hydraulic.DefaultOptions())
	require.NoError(t, err)
	require.InDelta(t, 0, res.Links[0].Flow, 1e-12)
	require.InDelta(t, 100, res.Nodes[1].Head, 1e-9)
}

// TestObserver receives one report per solve.
func (s *SolveSuite) TestObserver() {
	t := s.T()
	obs := &countingObserver{}
	opts := hydraulic.DefaultOptions()
	opts.Observer = obs
	_, _, err := hydraulic.Solve(singlePipe(t), opts)
	require.NoError(t, err)
	require.Len(t, obs.stats, 1)
	require.Equal(t, "converged", obs.stats[0].Outcome)
	require.True(t, obs.stats[0].Converged)
	require.Equal(t, 2, obs.stats[0].Nodes)
}

func TestSolveSuite(t *testing.T) {
	suite.Run(t, new(SolveSuite))
}
