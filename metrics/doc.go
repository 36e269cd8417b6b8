// Package metrics exposes solver and optimizer statistics as prometheus
// collectors on a private registry. A *Registry satisfies both
// hydraulic.Observer and optimize.Observer.
package metrics
