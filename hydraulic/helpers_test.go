package hydraulic_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/hredes/network"
)

// singlePipe is a 100 m reservoir feeding a junction at 80 m through
// 500 m of 150 mm pipe, C = 140, demand 10 L/s.
func singlePipe(t testing.TB) *network.Network {
	t.Helper()
	net, err := network.Build(
		[]network.Node{
			{ID: "R", Code: "R-1", Type: network.Reservoir, Elevation: 100, IsFixedHead: true},
			{ID: "J", Code: "J-1", Type: network.Junction, Elevation: 80, Demand: 10},
		},
		[]network.Link{{ID: "P", Code: "P-1", From: "R", To: "J", Length: 500, Diameter: 150, Roughness: 140}},
	)
	require.NoError(t, err)
	return net
}

// twoLoops is a reservoir feeding a four-junction, two-loop network.
func twoLoops(t testing.TB) *network.Network {
	t.Helper()
	net, err := network.Build(
		[]network.Node{
			{ID: "R", Type: network.Reservoir, Elevation: 100, Level: 2, IsFixedHead: true},
			{ID: "A", Type: network.Junction, Elevation: 70, Demand: 5},
			{ID: "B", Type: network.Junction, Elevation: 65, Demand: 8},
			{ID: "C", Type: network.Junction, Elevation: 68, Demand: 6},
			{ID: "D", Type: network.Junction, Elevation: 60, Demand: 10},
		},
		[]network.Link{
			{ID: "P1", From: "R", To: "A", Length: 800, Diameter: 250, Roughness: 140},
			{ID: "P2", From: "A", To: "B", Length: 500, Diameter: 150, Roughness: 140},
			{ID: "P3", From: "A", To: "C", Length: 500, Diameter: 150, Roughness: 140},
			{ID: "P4", From: "B", To: "D", Length: 400, Diameter: 125, Roughness: 140},
			{ID: "P5", From: "C", To: "D", Length: 400, Diameter: 125, Roughness: 140},
			{ID: "P6", From: "B", To: "C", Length: 300, Diameter: 100, Roughness: 140},
		},
	)
	require.NoError(t, err)
	return net
}

// randomNetwork builds a connected network of n junctions from seed: a
// random spanning tree rooted at one reservoir plus n/3 loop-closing links.
func randomNetwork(seed int64, n int) (*network.Network, error) {
	rng := rand.New(rand.NewSource(seed))
	nodes := []network.Node{{ID: "R", Type: network.Reservoir, Elevation: 150, IsFixedHead: true}}
	for i := 1; i <= n; i++ {
		nodes = append(nodes, network.Node{
			ID:        fmt.Sprintf("J%d", i),
			Type:      network.Junction,
			Elevation: rng.Float64() * 50,
			Demand:    0.1 + rng.Float64()*5,
		})
	}
	var links []network.Link
	add := func(u, v int) {
		links = append(links, network.Link{
			ID:        fmt.Sprintf("P%d", len(links)+1),
			From:      nodes[u].ID,
			To:        nodes[v].ID,
			Length:    50 + rng.Float64()*950,
			Diameter:  50 + rng.Float64()*250,
			Roughness: 100 + rng.Float64()*50,
		})
	}
	for i := 1; i <= n; i++ {
		add(rng.Intn(i), i)
	}
	for e := 0; e < n/3; e++ {
		u, v := 1+rng.Intn(n), 1+rng.Intn(n)
		if u != v {
			add(u, v)
		}
	}
	return network.Build(nodes, links)
}
