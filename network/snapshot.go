// SPDX-License-Identifier: MIT

package network

import (
	"fmt"
	"math"
)

// WithDiameters returns a snapshot whose link k has diameter d[k] (mm).
// The receiver is left untouched.
func (net *Network) WithDiameters(d []float64) (*Network, error) {
	if len(d) != len(net.links) {
		return nil, fmt.Errorf("%w: %d diameters for %d links", ErrBadSnapshot, len(d), len(net.links))
	}
	out := net.shallow()
	out.links = append([]Link(nil), net.links...)
	for k, v := range d {
		if !(v > 0) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: link %q diameter %g", ErrBadSnapshot, net.links[k].ID, v)
		}
		out.links[k].Diameter = v
	}
	return out, nil
}

// WithLinkSpecs returns a snapshot with the pipe properties of every link
// replaced by specs[k].
func (net *Network) WithLinkSpecs(specs []LinkSpec) (*Network, error) {
	if len(specs) != len(net.links) {
		return nil, fmt.Errorf("%w: %d specs for %d links", ErrBadSnapshot, len(specs), len(net.links))
	}
	out := net.shallow()
	out.links = append([]Link(nil), net.links...)
	for k, s := range specs {
		l := &out.links[k]
		if !(s.Diameter > 0) || math.IsInf(s.Diameter, 0) {
			return nil, fmt.Errorf("%w: link %q diameter %g", ErrBadSnapshot, l.ID, s.Diameter)
		}
		if s.Roughness < 0 || !finite(s.Roughness) {
			return nil, fmt.Errorf("%w: link %q roughness %g", ErrBadSnapshot, l.ID, s.Roughness)
		}
		l.Diameter = s.Diameter
		if s.Roughness > 0 {
			l.Roughness = s.Roughness
		}
		if s.Material != "" {
			l.Material = s.Material
		}
	}
	return out, nil
}

// WithDemandMultipliers returns a snapshot where each node demand is scaled by
// fn(node). Nodes without demand stay at zero. A negative or non-finite
// multiplier fails with ErrBadSnapshot.
func (net *Network) WithDemandMultipliers(fn func(Node) float64) (*Network, error) {
	out := net.shallow()
	out.nodes = append([]Node(nil), net.nodes...)
	for i := range out.nodes {
		n := &out.nodes[i]
		if n.Demand == 0 {
			continue
		}
		m := fn(*n)
		if m < 0 || !finite(m) {
			return nil, fmt.Errorf("%w: node %q demand multiplier %g", ErrBadSnapshot, n.ID, m)
		}
		n.Demand *= m
	}
	return out, nil
}

// shallow copies the header; slices and maps are shared read-only.
func (net *Network) shallow() *Network {
	cp := *net
	return &cp
}
