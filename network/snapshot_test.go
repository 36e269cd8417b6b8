package network_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/hredes/network"
)

func chain(t *testing.T) *network.Network {
	t.Helper()
	nodes := []network.Node{
		reservoir("R", 100),
		junction("A", 80, 2),
		{ID: "V", Type: network.Valve, Elevation: 79},
		junction("B", 70, 3),
	}
	links := []network.Link{pipe("P1", "R", "A"), pipe("P2", "A", "V"), pipe("P3", "V", "B")}
	net, err := network.Build(nodes, links)
	require.NoError(t, err)
	return net
}

// TestWithDiameters leaves the receiver untouched.
func TestWithDiameters(t *testing.T) {
	net := chain(t)
	next, err := net.WithDiameters([]float64{150, 110, 90})
	require.NoError(t, err)
	assert.Equal(t, []float64{150, 110, 90}, next.Diameters())
	assert.Equal(t, []float64{100, 100, 100}, net.Diameters())
	assert.Equal(t, net.FixedHeadNodes(), next.FixedHeadNodes())

	_, err = net.WithDiameters([]float64{1, 2})
	assert.ErrorIs(t, err, network.ErrBadSnapshot)
	_, err = net.WithDiameters([]float64{1, 0, 2})
	assert.ErrorIs(t, err, network.ErrBadSnapshot)
}

// TestWithLinkSpecs replaces roughness and material only when given.
func TestWithLinkSpecs(t *testing.T) {
	net := chain(t)
	next, err := net.WithLinkSpecs([]network.LinkSpec{
		{Diameter: 54.2, Roughness: 150, Material: "PVC"},
		{Diameter: 43.4},
		{Diameter: 29.4, Roughness: 130},
	})
	require.NoError(t, err)
	assert.Equal(t, 150.0, next.Link(0).Roughness)
	assert.Equal(t, "PVC", next.Link(0).Material)
	assert.Equal(t, 140.0, next.Link(1).Roughness)
	assert.Equal(t, 130.0, next.Link(2).Roughness)
	assert.Equal(t, 43.4, next.Link(1).Diameter)

	_, err = net.WithLinkSpecs([]network.LinkSpec{{Diameter: 1}, {Diameter: 1, Roughness: -1}, {Diameter: 1}})
	assert.ErrorIs(t, err, network.ErrBadSnapshot)
	_, err = net.WithLinkSpecs([]network.LinkSpec{{Diameter: 1}, {Diameter: 1, Roughness: math.Inf(1)}, {Diameter: 1}})
	assert.ErrorIs(t, err, network.ErrBadSnapshot)
	_, err = net.WithLinkSpecs([]network.LinkSpec{{Diameter: math.NaN()}, {Diameter: 1}, {Diameter: 1}})
	assert.ErrorIs(t, err, network.ErrBadSnapshot)
}

// TestWithDemandMultipliers scales only consuming nodes.
func TestWithDemandMultipliers(t *testing.T) {
	net := chain(t)
	scaled, err := net.WithDemandMultipliers(func(n network.Node) float64 {
		if n.ID == "A" {
			return 2
		}
		return 0.5
	})
	require.NoError(t, err)
	assert.Equal(t, 4.0, scaled.Node(1).Demand)
	assert.Equal(t, 0.0, scaled.Node(2).Demand)
	assert.Equal(t, 1.5, scaled.Node(3).Demand)
	assert.Equal(t, 2.0, net.Node(1).Demand)
}

// TestWithDemandMultipliersRejects refuses negative and non-finite factors.
func TestWithDemandMultipliersRejects(t *testing.T) {
	net := chain(t)
	for _, m := range []float64{-1, math.NaN(), math.Inf(1)} {
		_, err := net.WithDemandMultipliers(func(network.Node) float64 { return m })
		assert.ErrorIs(t, err, network.ErrBadSnapshot, "multiplier %g", m)
	}
}
