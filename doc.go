// Package hredes is a toolkit for designing potable-water distribution
// networks: describe pipes and nodes, solve the steady-state hydraulics,
// size every pipe from a commercial catalog and check the result against
// the design code.
//
// What is inside?
//
//	network/    validated nodes and links, immutable snapshots, indices
//	catalog/    commercial diameters with unit costs, lookup with tolerance
//	hydraulic/  Hazen-Williams head loss, GGA solver, extended-period runs
//	iterlog/    iteration recorder, immutable logs and a playback state machine
//	optimize/   least-cost diameter selection (greedy upsizing or exact search)
//	compliance/ urban and rural design limits, alert reports
//	codec/      JSON/YAML project input and result documents
//	config/     flags, HREDES_* environment and hredes.yaml
//	metrics/    Prometheus collectors for solves and optimizations
//	cmd/hredes  command-line front end
//
// Quick ASCII example:
//
//	[R] 100 m ──P1 500 m── [J1] 5 L/s ──P2 400 m── [J2] 3 L/s
//
// Units: lengths and heads in m, diameters in mm, flows in L/s,
// velocities in m/s.
package hredes
