// SPDX-License-Identifier: MIT

package hydraulic

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var errNotPositiveDefinite = errors.New("nodal matrix not positive definite")

// assemble builds A and F for the unknown heads. lambda > 0 scales the
// diagonal by (1+lambda).
func (s *solver) assemble(lambda float64) (*mat.SymDense, *mat.VecDense) {
	n := len(s.rows)
	a := mat.NewSymDense(n, nil)
	f := mat.NewVecDense(n, nil)

	for row, i := range s.rows {
		f.SetVec(row, -s.demand[i])
	}
	for k := range s.q {
		u, v := s.from[k], s.to[k]
		ru, rv := s.unk[u], s.unk[v]
		c := s.q[k] - s.y[k]
		pk := s.p[k]

		if ru >= 0 {
			a.SetSym(ru, ru, a.At(ru, ru)+pk)
			f.SetVec(ru, f.AtVec(ru)-c)
			if rv < 0 {
				f.SetVec(ru, f.AtVec(ru)+pk*s.h[v])
			}
		}
		if rv >= 0 {
			a.SetSym(rv, rv, a.At(rv, rv)+pk)
			f.SetVec(rv, f.AtVec(rv)+c)
			if ru < 0 {
				f.SetVec(rv, f.AtVec(rv)+pk*s.h[u])
			}
		}
		if ru >= 0 && rv >= 0 {
			a.SetSym(ru, rv, a.At(ru, rv)-pk)
		}
	}

	if lambda > 0 {
		for i := 0; i < n; i++ {
			a.SetSym(i, i, a.At(i, i)*(1+lambda))
		}
	}
	return a, f
}

// solveHeads fills hNew from the nodal system. Fixed heads are copied.
func (s *solver) solveHeads(lambda float64) error {
	copy(s.hNew, s.h)
	if len(s.rows) == 0 {
		return nil
	}

	a, f := s.assemble(lambda)

	var chol mat.Cholesky
	if ok := chol.Factorize(a); !ok {
		return errNotPositiveDefinite
	}
	if c := chol.Cond(); c > s.opts.MaxCondition || math.IsNaN(c) {
		return fmt.Errorf("condition number %.3e above %.1e", c, s.opts.MaxCondition)
	}

	x := mat.NewVecDense(len(s.rows), nil)
	if err := chol.SolveVecTo(x, f); err != nil {
		return err
	}
	for row, i := range s.rows {
		v := x.AtVec(row)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite head at node %q", s.net.Node(i).ID)
		}
		s.hNew[i] = v
	}
	return nil
}

// weakestNode returns the id of the unknown node with the smallest total
// conductance Σp, the usual culprit of a singular system.
func (s *solver) weakestNode() []string {
	if len(s.rows) == 0 {
		return nil
	}
	diag := make([]float64, len(s.rows))
	for k := range s.q {
		if ru := s.unk[s.from[k]]; ru >= 0 {
			diag[ru] += s.p[k]
		}
		if rv := s.unk[s.to[k]]; rv >= 0 {
			diag[rv] += s.p[k]
		}
	}
	best := 0
	for row := range diag {
		if diag[row] < diag[best] {
			best = row
		}
	}
	return []string{s.net.Node(s.rows[best]).ID}
}
