package network_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/katalvlaran/hredes/network"
)

// BuildSuite covers topology validation and indexing.
type BuildSuite struct {
	suite.Suite
}

func reservoir(id string, elev float64) network.Node {
	return network.Node{ID: id, Code: id, Type: network.Reservoir, Elevation: elev, IsFixedHead: true}
}

func junction(id string, elev, demand float64) network.Node {
	return network.Node{ID: id, Code: id, Type: network.Junction, Elevation: elev, Demand: demand}
}

func pipe(id, from, to string) network.Link {
	return network.Link{ID: id, Code: id, From: from, To: to, Length: 100, Diameter: 100, Roughness: 140}
}

// requireKind asserts err is a *ValidationError of the given kind naming ids.
func (s *BuildSuite) requireKind(err error, kind error, ids ...string) {
	require.Error(s.T(), err)
	require.ErrorIs(s.T(), err, network.ErrValidation)
	require.ErrorIs(s.T(), err, kind)
	var verr *network.ValidationError
	require.True(s.T(), errors.As(err, &verr))
	if len(ids) > 0 {
		require.Equal(s.T(), ids, verr.IDs)
	}
}

// TestValidTree checks indices, incidence and boundary heads on a small tree.
func (s *BuildSuite) TestValidTree() {
	nodes := []network.Node{
		{ID: "R1", Code: "R-1", Type: network.Reservoir, Elevation: 100, Level: 2, IsFixedHead: true},
		junction("J1", 80, 1.5),
		junction("J2", 75, 2),
	}
	links := []network.Link{pipe("P2", "J1", "J2"), pipe("P1", "R1", "J1")}

	net, err := network.Build(nodes, links)
	require.NoError(s.T(), err)
	require.Equal(s.T(), 3, net.NumNodes())
	require.Equal(s.T(), 2, net.NumLinks())
	require.Equal(s.T(), []int{0}, net.FixedHeadNodes())
	require.True(s.T(), net.IsFixed(0))
	require.False(s.T(), net.IsFixed(1))
	require.InDelta(s.T(), 102.0, net.FixedHead(0), 1e-12)
	require.InDelta(s.T(), 3.5, net.TotalDemand(), 1e-12)

	j1, ok := net.NodeIndex("J1")
	require.True(s.T(), ok)
	require.ElementsMatch(s.T(), []int{0, 1}, net.Incident(j1))
	require.ElementsMatch(s.T(), []int{2, 0}, net.Neighbors(j1))

	from, to := net.Endpoints(1)
	require.Equal(s.T(), 0, from)
	require.Equal(s.T(), 1, to)
	require.Equal(s.T(), 1, net.Other(1, 0))

	// links ordered by code: P1 (index 1) before P2 (index 0)
	require.Equal(s.T(), []int{1, 0}, net.LinksByCode())

	st := net.Stats()
	require.Equal(s.T(), network.Stats{Nodes: 3, Links: 2, FixedHead: 1, Junctions: 2, TotalLength: 200, TotalDemand: 3.5}, st)
}

// TestEmpty rejects a network without nodes.
func (s *BuildSuite) TestEmpty() {
	_, err := network.Build(nil, nil)
	s.requireKind(err, network.ErrEmptyNetwork)
}

// TestTwoNodesNoLink rejects an isolated junction.
func (s *BuildSuite) TestTwoNodesNoLink() {
	_, err := network.Build([]network.Node{reservoir("R", 50), junction("J", 40, 1)}, nil)
	s.requireKind(err, network.ErrDisconnected, "J")
}

// TestNoFixedHead rejects a network with only junctions.
func (s *BuildSuite) TestNoFixedHead() {
	nodes := []network.Node{junction("A", 10, 1), junction("B", 5, 1)}
	_, err := network.Build(nodes, []network.Link{pipe("P", "A", "B")})
	s.requireKind(err, network.ErrNoFixedHead)
}

// TestRecordRules reports every bad record at once.
func (s *BuildSuite) TestRecordRules() {
	nodes := []network.Node{reservoir("R", 50), junction("J", 40, 1), {ID: "X", Type: "hydrant"}}
	bad := pipe("P1", "R", "J")
	bad.Diameter = 0
	neg := pipe("P2", "R", "J")
	neg.Length = -3
	_, err := network.Build(nodes, []network.Link{bad, neg})
	s.requireKind(err, network.ErrInvalidRecord, "X", "P1", "P2")
}

// TestDuplicates rejects repeated ids.
func (s *BuildSuite) TestDuplicates() {
	_, err := network.Build([]network.Node{reservoir("R", 50), junction("R", 40, 0)}, nil)
	s.requireKind(err, network.ErrDuplicateNode, "R")

	nodes := []network.Node{reservoir("R", 50), junction("J", 40, 1)}
	_, err = network.Build(nodes, []network.Link{pipe("P", "R", "J"), pipe("P", "J", "R")})
	s.requireKind(err, network.ErrDuplicateLink, "P")
}

// TestEndpoints rejects unknown and identical endpoints.
func (s *BuildSuite) TestEndpoints() {
	nodes := []network.Node{reservoir("R", 50), junction("J", 40, 1)}
	_, err := network.Build(nodes, []network.Link{pipe("P1", "R", "J"), pipe("P2", "J", "Z")})
	s.requireKind(err, network.ErrUnknownEndpoint, "P2")

	_, err = network.Build(nodes, []network.Link{pipe("P1", "R", "J"), pipe("P2", "J", "J")})
	s.requireKind(err, network.ErrSelfLoop, "P2")
}

// TestTypeRules rejects demand and fixed head on the wrong node types.
func (s *BuildSuite) TestTypeRules() {
	valve := network.Node{ID: "V", Type: network.Valve, Demand: 2}
	_, err := network.Build([]network.Node{reservoir("R", 50), valve}, []network.Link{pipe("P", "R", "V")})
	s.requireKind(err, network.ErrInvalidDemand, "V")

	fixedJ := junction("J", 40, 0)
	fixedJ.IsFixedHead = true
	_, err = network.Build([]network.Node{fixedJ}, nil)
	s.requireKind(err, network.ErrInvalidFixedHead, "J")
}

// TestDisconnectedComponent names every node cut off from the sources.
func (s *BuildSuite) TestDisconnectedComponent() {
	nodes := []network.Node{reservoir("R", 50), junction("A", 40, 1), junction("B", 40, 1), junction("C", 40, 1)}
	_, err := network.Build(nodes, []network.Link{pipe("P1", "R", "A"), pipe("P2", "B", "C")})
	s.requireKind(err, network.ErrDisconnected, "B", "C")
}

// TestReverseLinkReaches treats links as undirected for reachability.
func (s *BuildSuite) TestReverseLinkReaches() {
	nodes := []network.Node{reservoir("R", 50), junction("A", 40, 1)}
	net, err := network.Build(nodes, []network.Link{pipe("P", "A", "R")})
	require.NoError(s.T(), err)
	require.Equal(s.T(), []bool{true, true}, net.Reachable(0))
	require.Equal(s.T(), []bool{false, false}, net.Reachable(-1, 7))
}

// TestInputNotAliased ensures Build copies its input.
func (s *BuildSuite) TestInputNotAliased() {
	nodes := []network.Node{reservoir("R", 50), junction("A", 40, 1)}
	links := []network.Link{pipe("P", "R", "A")}
	net, err := network.Build(nodes, links)
	require.NoError(s.T(), err)
	nodes[1].Demand = 99
	links[0].Diameter = 1
	require.Equal(s.T(), 1.0, net.Node(1).Demand)
	require.Equal(s.T(), 100.0, net.Link(0).Diameter)
}

func TestBuildSuite(t *testing.T) {
	suite.Run(t, new(BuildSuite))
}

// TestValidateRecord exercises the single-record helpers.
func TestValidateRecord(t *testing.T) {
	require.NoError(t, network.ValidateNode(junction("J", 10, 1)))
	require.ErrorIs(t, network.ValidateNode(network.Node{ID: "T", Type: network.Tank, Level: -1}), network.ErrInvalidRecord)
	require.ErrorIs(t, network.ValidateNode(network.Node{ID: "P", Type: network.Pump, IsFixedHead: true}), network.ErrInvalidFixedHead)

	require.NoError(t, network.ValidateLink(pipe("P", "A", "B")))
	require.ErrorIs(t, network.ValidateLink(pipe("P", "A", "A")), network.ErrSelfLoop)
	require.ErrorIs(t, network.ValidateLink(network.Link{ID: "Q", From: "A", To: "B"}), network.ErrInvalidRecord)
}

// TestValidationErrorMessage checks the rendered message.
func TestValidationErrorMessage(t *testing.T) {
	_, err := network.Build([]network.Node{reservoir("R", 50), junction("J", 40, 1)}, nil)
	require.EqualError(t, err, "network: nodes unreachable from any fixed-head node: 1 of 2 nodes [J]")
}
