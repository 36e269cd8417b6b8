// Package optimize assigns commercial catalog diameters to every link so that
// pressure and velocity limits hold at minimum total pipe cost.
//
// Two strategies share one evaluation step (assign diameters, solve, list
// violations):
//
//   - Greedy: start every link at the smallest catalog diameter, solve, map
//     each violation to one link (a fast link to itself; a low-pressure node to
//     the upstream link whose upsizing buys the most head per unit cost),
//     upsize those links one catalog step in ascending link-code order, and
//     repeat. A downsizing pass then walks the links in code order and keeps
//     every one-step reduction that stays feasible, so each link ends at the
//     cheapest entry its local constraints allow.
//   - Exact: depth-first enumeration of every assignment in code order,
//     pruning any partial assignment whose cost already reaches the best
//     feasible cost found. Optimal; used automatically when the search space
//     has at most ExactLimit assignments.
//
// Termination is bounded by Options.MaxIterations (greedy rounds) and
// Options.Ctx. An unsatisfiable instance returns *InfeasibleError carrying
// the best attempt and its violations.
//
// Total cost is Σ length × unit cost of the catalog entry matching each
// link's diameter.
package optimize
