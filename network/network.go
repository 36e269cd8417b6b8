// SPDX-License-Identifier: MIT

package network

import (
	"fmt"
	"sort"
)

// Network is an immutable, validated pipe network. Nodes and links are
// addressed by dense integer indices in input order.
type Network struct {
	nodes []Node
	links []Link

	// topology, shared between snapshots and never written after Build
	from, to []int
	incident [][]int
	fixed    []int
	isFixed  []bool
	byCode   []int
	nodeIdx  map[string]int
	linkIdx  map[string]int
}

// Build validates nodes and links and returns the indexed network.
// Any failure is a *ValidationError; no partial network is returned.
//
// Steps:
//  1. Reject an empty node list.
//  2. Check every record against its field rules.
//  3. Index nodes, rejecting duplicate ids.
//  4. Apply node type rules.
//  5. Index links, rejecting duplicate ids, unknown endpoints and self-loops.
//  6. Require at least one fixed-head node.
//  7. Require every node to be reachable from a fixed-head node.
//
// Complexity: O(V + E log E) time, O(V + E) memory.
func Build(nodes []Node, links []Link) (*Network, error) {
	// 1) Empty input
	if len(nodes) == 0 {
		return nil, invalid(ErrEmptyNetwork, nil, "at least one node is required")
	}

	// 2) Field rules, reported together
	var bad []string
	var firstMsg string
	for _, n := range nodes {
		if err := nodeRecord(n); err != nil {
			bad = append(bad, recordID(n.ID, "node"))
			if firstMsg == "" {
				firstMsg = err.Error()
			}
		}
	}
	for _, l := range links {
		if err := linkRecord(l); err != nil {
			bad = append(bad, recordID(l.ID, "link"))
			if firstMsg == "" {
				firstMsg = err.Error()
			}
		}
	}
	if len(bad) > 0 {
		return nil, invalid(ErrInvalidRecord, bad, "%s", firstMsg)
	}

	// 3) Node index
	net := &Network{
		nodes:   append([]Node(nil), nodes...),
		links:   append([]Link(nil), links...),
		nodeIdx: make(map[string]int, len(nodes)),
		linkIdx: make(map[string]int, len(links)),
	}
	var dups []string
	for i, n := range net.nodes {
		if _, seen := net.nodeIdx[n.ID]; seen {
			dups = append(dups, n.ID)
			continue
		}
		net.nodeIdx[n.ID] = i
	}
	if len(dups) > 0 {
		return nil, invalid(ErrDuplicateNode, dups, "node ids must be unique")
	}

	// 4) Type rules
	for _, n := range net.nodes {
		if verr := nodeRole(n); verr != nil {
			return nil, verr
		}
	}

	// 5) Link index and endpoints
	if err := net.indexLinks(); err != nil {
		return nil, err
	}

	// 6) Boundary nodes
	net.isFixed = make([]bool, len(net.nodes))
	for i, n := range net.nodes {
		if n.IsFixedHead {
			net.fixed = append(net.fixed, i)
			net.isFixed[i] = true
		}
	}
	if len(net.fixed) == 0 {
		return nil, invalid(ErrNoFixedHead, nil, "mark a reservoir, tank, cistern or pressure-break chamber as fixed head")
	}

	// 7) Connectivity
	if unreached := net.unreachable(); len(unreached) > 0 {
		ids := make([]string, len(unreached))
		for j, i := range unreached {
			ids[j] = net.nodes[i].ID
		}
		return nil, invalid(ErrDisconnected, ids, "%d of %d nodes", len(ids), len(net.nodes))
	}

	net.byCode = sortedByCode(net.links)
	return net, nil
}

// indexLinks fills linkIdx, from/to and incident, stopping at the first
// failing rule with every offending id for that rule.
func (net *Network) indexLinks() error {
	n, m := len(net.nodes), len(net.links)
	net.from = make([]int, m)
	net.to = make([]int, m)
	net.incident = make([][]int, n)

	var dups, unknown, loops []string
	for k, l := range net.links {
		if _, seen := net.linkIdx[l.ID]; seen {
			dups = append(dups, l.ID)
			continue
		}
		net.linkIdx[l.ID] = k
		u, okU := net.nodeIdx[l.From]
		v, okV := net.nodeIdx[l.To]
		if !okU || !okV {
			unknown = append(unknown, l.ID)
			continue
		}
		if u == v {
			loops = append(loops, l.ID)
			continue
		}
		net.from[k], net.to[k] = u, v
		net.incident[u] = append(net.incident[u], k)
		net.incident[v] = append(net.incident[v], k)
	}
	switch {
	case len(dups) > 0:
		return invalid(ErrDuplicateLink, dups, "link ids must be unique")
	case len(unknown) > 0:
		return invalid(ErrUnknownEndpoint, unknown, "every link needs two existing nodes")
	case len(loops) > 0:
		return invalid(ErrSelfLoop, loops, "a link must join two distinct nodes")
	}
	return nil
}

// sortedByCode orders link indices by label, then id.
func sortedByCode(links []Link) []int {
	order := make([]int, len(links))
	for k := range order {
		order[k] = k
	}
	sort.SliceStable(order, func(a, b int) bool {
		la, lb := links[order[a]], links[order[b]]
		if la.Label() != lb.Label() {
			return la.Label() < lb.Label()
		}
		return la.ID < lb.ID
	})
	return order
}

// NumNodes returns the number of nodes.
func (net *Network) NumNodes() int { return len(net.nodes) }

// NumLinks returns the number of links.
func (net *Network) NumLinks() int { return len(net.links) }

// Node returns the node at index i.
func (net *Network) Node(i int) Node { return net.nodes[i] }

// Link returns the link at index k.
func (net *Network) Link(k int) Link { return net.links[k] }

// Nodes returns a copy of all nodes in index order.
func (net *Network) Nodes() []Node { return append([]Node(nil), net.nodes...) }

// Links returns a copy of all links in index order.
func (net *Network) Links() []Link { return append([]Link(nil), net.links...) }

// NodeIndex resolves a node id.
func (net *Network) NodeIndex(id string) (int, bool) {
	i, ok := net.nodeIdx[id]
	return i, ok
}

// LinkIndex resolves a link id.
func (net *Network) LinkIndex(id string) (int, bool) {
	k, ok := net.linkIdx[id]
	return k, ok
}

// Endpoints returns the node indices of link k in record direction.
func (net *Network) Endpoints(k int) (from, to int) { return net.from[k], net.to[k] }

// Other returns the endpoint of link k opposite to node i.
func (net *Network) Other(k, i int) int {
	if net.from[k] == i {
		return net.to[k]
	}
	return net.from[k]
}

// Incident returns a copy of the link indices touching node i.
func (net *Network) Incident(i int) []int { return append([]int(nil), net.incident[i]...) }

// Neighbors returns the node indices adjacent to i, one per incident link.
func (net *Network) Neighbors(i int) []int {
	out := make([]int, len(net.incident[i]))
	for j, k := range net.incident[i] {
		out[j] = net.Other(k, i)
	}
	return out
}

// FixedHeadNodes returns a copy of the fixed-head node indices.
func (net *Network) FixedHeadNodes() []int { return append([]int(nil), net.fixed...) }

// IsFixed reports whether node i is a fixed-head boundary.
func (net *Network) IsFixed(i int) bool { return net.isFixed[i] }

// FixedHead returns the boundary head of node i (Elevation + Level) in m.
func (net *Network) FixedHead(i int) float64 {
	n := net.nodes[i]
	return n.Elevation + n.Level
}

// LinksByCode returns link indices ordered by code, then id.
func (net *Network) LinksByCode() []int { return append([]int(nil), net.byCode...) }

// Diameters returns a copy of the link diameters in mm, in index order.
func (net *Network) Diameters() []float64 {
	out := make([]float64, len(net.links))
	for k, l := range net.links {
		out[k] = l.Diameter
	}
	return out
}

// TotalDemand sums node demands in L/s.
func (net *Network) TotalDemand() float64 {
	var sum float64
	for _, n := range net.nodes {
		sum += n.Demand
	}
	return sum
}

// Stats summarizes the network.
func (net *Network) Stats() Stats {
	s := Stats{Nodes: len(net.nodes), Links: len(net.links), FixedHead: len(net.fixed)}
	for _, n := range net.nodes {
		if n.Type == Junction {
			s.Junctions++
		}
		s.TotalDemand += n.Demand
	}
	for _, l := range net.links {
		s.TotalLength += l.Length
	}
	return s
}

// String implements fmt.Stringer.
func (net *Network) String() string {
	return fmt.Sprintf("network(nodes=%d links=%d fixed=%d)", len(net.nodes), len(net.links), len(net.fixed))
}
