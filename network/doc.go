// SPDX-License-Identifier: MIT

// Package network holds the validated, immutable topology of a potable-water
// pipe network: nodes (reservoirs, tanks, junctions, valves, pumps,
// pressure-break chambers, cisterns) joined by pipe links.
//
// What
//
//   - Build turns raw node and link records into a *Network, or rejects them
//     with a *ValidationError naming the offending records.
//   - A Network stores nodes and links in dense slices addressed by integer
//     index, with per-node incident-link lists and the list of fixed-head
//     (boundary) nodes. Numeric code works on indices only.
//   - Diameter or demand changes never mutate a Network: WithDiameters,
//     WithLinkSpecs and WithDemandMultipliers return new snapshots sharing the
//     immutable topology.
//
// Validation order
//
//  1. record fields (struct tags checked by go-playground/validator)
//  2. duplicate node ids
//  3. node type rules (demand only on junctions, fixed head only on storage)
//  4. duplicate link ids, unknown endpoints, self-loops
//  5. at least one fixed-head node
//  6. every node reachable from a fixed-head node (multi-source BFS)
//
// The first failing stage wins; its error lists every offending id found at
// that stage.
//
// Units
//
//	Elevation, Level: m.  Demand: L/s (negative = injection).
//	Length: m.  Diameter: mm.  Roughness: Hazen-Williams C.
//
// Complexity (V = nodes, E = links)
//
//   - Build:         O(V + E log E)  (the log term is the by-code ordering)
//   - WithDiameters: O(E)
//   - accessors:     O(1), except those returning copies
package network
