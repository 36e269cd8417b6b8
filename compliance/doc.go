// Package compliance checks a solved network against the design limits of
// the urban and rural drinking-water codes (RNE OS.050, RM 192-2018).
//
// Low and static-high pressure, and velocity above the maximum, are errors;
// non-zero velocity below the minimum and diameters under the scope minimum
// are warnings. Storage and fixed-head nodes are not pressure-checked.
package compliance
