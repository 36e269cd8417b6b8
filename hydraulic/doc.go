// SPDX-License-Identifier: MIT

// Package hydraulic computes steady-state flows and heads in a pipe network.
//
// What
//
//   - Solve finds link flows Q and node heads H such that
//     mass is conserved at every non-fixed node (Σ inflow − Σ outflow = demand)
//     and energy is consistent around every loop (H_from − H_to = h(Q) per link).
//   - Head loss follows Hazen-Williams, h = K·L·|Q|^(n−1)·Q / D^m with
//     K = 10.674 / C^1.852, n = 1.852, m = 4.8704 (SI: Q m³/s, D m, L m).
//   - Every iteration is appended to an iterlog.Log with its convergence
//     metric and flow/head snapshots.
//   - SolvePeriod repeats the solve for each hour of a demand pattern.
//
// Method
//
// Global gradient iteration (Newton on flows and heads together):
//
//  1. Start every link at 1 m/s.
//  2. Linearize each link around its current flow:
//     g = n·r·|Q|^(n−1), p = 1/g, y = h(Q)/g.
//  3. Assemble the nodal system A·H = F over the non-fixed nodes, where
//     A_ii = Σ p over incident links, A_ij = −p for each link i–j, and
//     F_i = Σ_in (Q−y) − Σ_out (Q−y) − demand_i + Σ p·H_fixed.
//  4. Factorize the symmetric positive-definite A (Cholesky) and solve for H.
//  5. Update Q ← Q − y + p·(H_from − H_to). The new flows satisfy continuity
//     exactly; loop energy balance is the fixed point of the iteration.
//  6. Stop when Σ|ΔQ| / Σ|Q| ≤ Tolerance.
//
// Near-singular systems (Cholesky failure or a condition number above
// MaxCondition) are retried with diagonal damping and a shortened flow step,
// at most MaxRelaxations times. This is the only failure retried internally.
//
// Budget
//
// Options.MaxIterations and Options.Ctx bound every solve. Both are checked
// once per iteration; when either runs out the last iterate is returned with
// Converged=false together with a *ConvergenceError (unless AcceptPartial).
//
// Determinism
//
// The numeric path uses slices in network index order only; repeated solves
// of the same network return bit-identical flows and heads.
//
// Complexity (V = non-fixed nodes, E = links, I = iterations)
//
//   - Time:   O(I · (E + V³)) with the dense factorization
//   - Memory: O(V² + E)
package hydraulic
