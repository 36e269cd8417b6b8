package optimize_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/hredes/catalog"
	"github.com/katalvlaran/hredes/hydraulic"
	"github.com/katalvlaran/hredes/network"
	"github.com/katalvlaran/hredes/optimize"
)

// fiveSizes is a small catalog with costs rising with diameter.
func fiveSizes(t testing.TB) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New([]catalog.Entry{
		{Diameter: 50, UnitCost: 10, Roughness: 140},
		{Diameter: 75, UnitCost: 18, Roughness: 140},
		{Diameter: 100, UnitCost: 30, Roughness: 140},
		{Diameter: 150, UnitCost: 55, Roughness: 140},
		{Diameter: 200, UnitCost: 90, Roughness: 140},
	})
	require.NoError(t, err)
	return cat
}

// chain is R(100) -P1 500 m- J1(80, 5 L/s) -P2 400 m- J2(75, 3 L/s).
func chain(t testing.TB) *network.Network {
	t.Helper()
	net, err := network.Build(
		[]network.Node{
			{ID: "R", Type: network.Reservoir, Elevation: 100, IsFixedHead: true},
			{ID: "J1", Type: network.Junction, Elevation: 80, Demand: 5},
			{ID: "J2", Type: network.Junction, Elevation: 75, Demand: 3},
		},
		[]network.Link{
			{ID: "P1", Code: "T-01", From: "R", To: "J1", Length: 500, Diameter: 100, Roughness: 140},
			{ID: "P2", Code: "T-02", From: "J1", To: "J2", Length: 400, Diameter: 100, Roughness: 140},
		},
	)
	require.NoError(t, err)
	return net
}

// triangle is a single loop fed by one reservoir.
func triangle(t testing.TB) *network.Network {
	t.Helper()
	net, err := network.Build(
		[]network.Node{
			{ID: "R", Type: network.Reservoir, Elevation: 100, IsFixedHead: true},
			{ID: "A", Type: network.Junction, Elevation: 80, Demand: 4},
			{ID: "B", Type: network.Junction, Elevation: 78, Demand: 4},
		},
		[]network.Link{
			{ID: "RA", Code: "T-01", From: "R", To: "A", Length: 400, Diameter: 100, Roughness: 140},
			{ID: "RB", Code: "T-02", From: "R", To: "B", Length: 600, Diameter: 100, Roughness: 140},
			{ID: "AB", Code: "T-03", From: "A", To: "B", Length: 300, Diameter: 100, Roughness: 140},
		},
	)
	require.NoError(t, err)
	return net
}

// randomChain builds a reservoir followed by 2 or 3 junctions in series with
// random drops, demands and lengths.
func randomChain(seed int64) (*network.Network, error) {
	rng := rand.New(rand.NewSource(seed))
	n := 2 + rng.Intn(2)
	nodes := []network.Node{{ID: "R", Type: network.Reservoir, Elevation: 100, IsFixedHead: true}}
	var links []network.Link
	prev, elev := "R", 100.0
	for i := 0; i < n; i++ {
		id := string(rune('A' + i))
		elev -= 2 + rng.Float64()*15
		nodes = append(nodes, network.Node{ID: id, Type: network.Junction, Elevation: elev, Demand: 0.5 + rng.Float64()*5})
		links = append(links, network.Link{ID: prev + id, From: prev, To: id, Length: 100 + rng.Float64()*700, Diameter: 100, Roughness: 140})
		prev = id
	}
	return network.Build(nodes, links)
}

// exhaustive returns the cheapest feasible cost over every assignment, or
// false when none is feasible.
func exhaustive(t testing.TB, net *network.Network, cat *catalog.Catalog, c optimize.Constraints) (float64, bool) {
	t.Helper()
	opts := hydraulic.DefaultOptions()
	opts.RecordSnapshots = false

	n, m := net.NumLinks(), cat.Len()
	idx := make([]int, n)
	best, found := 0.0, false
	for {
		d := make([]float64, n)
		for k, j := range idx {
			d[k] = cat.At(j).Diameter
		}
		snap, err := net.WithDiameters(d)
		require.NoError(t, err)
		res, _, err := hydraulic.Solve(snap, opts)
		require.NoError(t, err)
		if feasible(snap, res, c) {
			cost, err := optimize.Cost(snap, cat)
			require.NoError(t, err)
			if !found || cost < best {
				best, found = cost, true
			}
		}

		k := 0
		for ; k < n; k++ {
			idx[k]++
			if idx[k] < m {
				break
			}
			idx[k] = 0
		}
		if k == n {
			return best, found
		}
	}
}

// feasibleAt solves net with diameters d and checks c.
func feasibleAt(t testing.TB, net *network.Network, c optimize.Constraints, d []float64) bool {
	t.Helper()
	snap, err := net.WithDiameters(d)
	require.NoError(t, err)
	res, _, err := hydraulic.Solve(snap, hydraulic.DefaultOptions())
	require.NoError(t, err)
	return feasible(snap, res, c)
}

func feasible(net *network.Network, res *hydraulic.Result, c optimize.Constraints) bool {
	for i, nr := range res.Nodes {
		if net.IsFixed(i) {
			continue
		}
		if nr.Pressure < c.MinPressure-1e-9 || (c.MaxPressure > 0 && nr.Pressure > c.MaxPressure+1e-9) {
			return false
		}
	}
	for _, lr := range res.Links {
		if (c.MaxVelocity > 0 && lr.Velocity > c.MaxVelocity) || (c.MinVelocity > 0 && lr.Velocity < c.MinVelocity) {
			return false
		}
	}
	return true
}
