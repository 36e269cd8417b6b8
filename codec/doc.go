// Package codec reads project records and writes result documents as JSON or
// YAML.
//
// Input is one Project document holding the node, link, catalog and pattern
// records. Outputs are the solution, iteration log, optimization and
// compliance documents consumed by presentation and reporting layers.
package codec
