// SPDX-License-Identifier: MIT

package hydraulic

import "math"

// Formula is a power-law friction model h = Constant·L·|Q|^(Exponent−1)·Q /
// (C^RoughnessExponent · D^DiameterExponent), in SI units.
type Formula struct {
	Name              string
	Constant          float64
	Exponent          float64
	RoughnessExponent float64
	DiameterExponent  float64
}

// HazenWilliams is the SI Hazen-Williams formula.
var HazenWilliams = Formula{
	Name:              "hazen-williams",
	Constant:          10.674,
	Exponent:          1.852,
	RoughnessExponent: 1.852,
	DiameterExponent:  4.8704,
}

// Coefficient returns K = Constant / C^RoughnessExponent.
func (f Formula) Coefficient(c float64) float64 {
	return f.Constant / math.Pow(c, f.RoughnessExponent)
}

// Resistance returns r = K·L / D^m for a pipe of length m, diameter m and
// roughness c, so that h = r·|Q|^(n−1)·Q.
func (f Formula) Resistance(length, diameter, c float64) float64 {
	return f.Coefficient(c) * length / math.Pow(diameter, f.DiameterExponent)
}

// Loss returns the head loss in m for resistance r and flow q (m³/s). The
// sign follows q.
func (f Formula) Loss(r, q float64) float64 {
	if q == 0 {
		return 0
	}
	return r * math.Pow(math.Abs(q), f.Exponent-1) * q
}

// Gradient returns dh/dQ = n·r·|q|^(n−1).
func (f Formula) Gradient(r, q float64) float64 {
	return f.Exponent * r * math.Pow(math.Abs(q), f.Exponent-1)
}

// HeadLoss returns the Hazen-Williams head loss in m for a pipe given in
// record units: length m, diameter mm, roughness C, flow L/s.
func HeadLoss(length, diameterMM, c, flowLps float64) float64 {
	f := HazenWilliams
	return f.Loss(f.Resistance(length, diameterMM/1000, c), flowLps/1000)
}

// Velocity returns the mean velocity in m/s for a flow in L/s through a
// diameter in mm.
func Velocity(flowLps, diameterMM float64) float64 {
	return math.Abs(flowLps/1000) / area(diameterMM/1000)
}

func area(d float64) float64 { return math.Pi * d * d / 4 }
