package compliance

import (
	"errors"
	"fmt"
	"strings"

	"github.com/katalvlaran/hredes/hydraulic"
	"github.com/katalvlaran/hredes/network"
	"github.com/katalvlaran/hredes/optimize"
)

var (
	// ErrUnknownScope is returned by LimitsFor and ParseScope.
	ErrUnknownScope = errors.New("compliance: unknown scope")

	// ErrMismatch is returned when a result does not belong to the network.
	ErrMismatch = errors.New("compliance: result does not match network")
)

// Scope selects the applicable code.
type Scope string

const (
	Urban Scope = "urban"
	Rural Scope = "rural"
)

// ParseScope accepts "urban" or "rural", case-insensitively.
func ParseScope(s string) (Scope, error) {
	switch sc := Scope(strings.ToLower(strings.TrimSpace(s))); sc {
	case Urban, Rural:
		return sc, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownScope, s)
}

// Limits are the design bounds of one scope. Pressures in m, velocities in
// m/s, diameters in mm.
type Limits struct {
	Scope             Scope   `json:"scope" yaml:"scope"`
	MinPressure       float64 `json:"minPressure" yaml:"minPressure"`
	MinTapPressure    float64 `json:"minTapPressure,omitempty" yaml:"minTapPressure,omitempty"`
	MaxStaticPressure float64 `json:"maxStaticPressure" yaml:"maxStaticPressure"`
	MinVelocity       float64 `json:"minVelocity" yaml:"minVelocity"`
	MaxVelocity       float64 `json:"maxVelocity" yaml:"maxVelocity"`
	MinDiameter       float64 `json:"minDiameter" yaml:"minDiameter"`
	Standard          string  `json:"standard" yaml:"standard"`
}

const (
	urbanStandard = "RNE OS.050"
	ruralStandard = "RM 192-2018"
)

// LimitsFor returns the code limits of scope.
func LimitsFor(scope Scope) (Limits, error) {
	l := Limits{
		Scope:             scope,
		MaxStaticPressure: 50,
		MinVelocity:       0.6,
		MaxVelocity:       3.0,
	}
	switch scope {
	case Urban:
		l.MinPressure, l.MinDiameter, l.Standard = 10, 75, urbanStandard
	case Rural:
		l.MinPressure, l.MinTapPressure, l.MinDiameter, l.Standard = 5, 3.5, 25, ruralStandard
	default:
		return Limits{}, fmt.Errorf("%w: %q", ErrUnknownScope, scope)
	}
	return l, nil
}

// Constraints returns the bounds the optimizer must enforce: the error-level
// limits only. Minimum velocity stays advisory.
func (l Limits) Constraints() optimize.Constraints {
	return optimize.Constraints{
		MinPressure: l.MinPressure,
		MaxPressure: l.MaxStaticPressure,
		MaxVelocity: l.MaxVelocity,
	}
}

// Severity ranks an alert.
type Severity string

const (
	Error   Severity = "error"
	Warning Severity = "warning"
	Info    Severity = "info"
)

// Parameter names the checked quantity.
type Parameter string

const (
	PressureMin Parameter = "pressure_min"
	PressureMax Parameter = "pressure_max"
	VelocityMin Parameter = "velocity_min"
	VelocityMax Parameter = "velocity_max"
	DiameterMin Parameter = "diameter_min"
	PressureTap Parameter = "pressure_tap"
)

const (
	elementNode = "node"
	elementLink = "link"
)

// Alert is one limit breach.
type Alert struct {
	Severity Severity  `json:"severity" yaml:"severity"`
	Param    Parameter `json:"parameter" yaml:"parameter"`
	Element  string    `json:"element" yaml:"element"` // "node" or "link"
	ID       string    `json:"id" yaml:"id"`
	Code     string    `json:"code,omitempty" yaml:"code,omitempty"`
	Value    float64   `json:"value" yaml:"value"`
	Limit    float64   `json:"limit" yaml:"limit"`
	Unit     string    `json:"unit" yaml:"unit"`
	Message  string    `json:"message" yaml:"message"`
	Standard string    `json:"standard" yaml:"standard"`
}

// Report is the outcome of Check. Valid means no error-level alert.
type Report struct {
	Scope    Scope   `json:"scope" yaml:"scope"`
	Valid    bool    `json:"valid" yaml:"valid"`
	Errors   int     `json:"errors" yaml:"errors"`
	Warnings int     `json:"warnings" yaml:"warnings"`
	Alerts   []Alert `json:"alerts" yaml:"alerts"`
}

// BySeverity returns the alerts of one severity.
func (r *Report) BySeverity(s Severity) []Alert {
	var out []Alert
	for _, a := range r.Alerts {
		if a.Severity == s {
			out = append(out, a)
		}
	}
	return out
}

// ByParameter returns the alerts on one quantity.
func (r *Report) ByParameter(p Parameter) []Alert {
	var out []Alert
	for _, a := range r.Alerts {
		if a.Param == p {
			out = append(out, a)
		}
	}
	return out
}

// Check compares res, solved on net, with limits. Nodes are checked in index
// order, then links.
func Check(net *network.Network, res *hydraulic.Result, limits Limits) (*Report, error) {
	if net == nil || res == nil {
		return nil, fmt.Errorf("%w: nil network or result", ErrMismatch)
	}
	if len(res.Nodes) != net.NumNodes() || len(res.Links) != net.NumLinks() {
		return nil, fmt.Errorf("%w: %d/%d nodes, %d/%d links", ErrMismatch,
			len(res.Nodes), net.NumNodes(), len(res.Links), net.NumLinks())
	}

	rep := &Report{Scope: limits.Scope}
	add := func(a Alert) {
		if a.Standard == "" {
			a.Standard = limits.Standard
		}
		rep.Alerts = append(rep.Alerts, a)
	}

	// 1) Pressures
	for i, nr := range res.Nodes {
		n := net.Node(i)
		if net.IsFixed(i) || n.Type.Storage() {
			continue
		}
		label := n.Label()
		if nr.Pressure < limits.MinPressure {
			add(Alert{
				Severity: Error, Param: PressureMin, Element: elementNode, ID: n.ID, Code: n.Code,
				Value: nr.Pressure, Limit: limits.MinPressure, Unit: "m",
				Message: fmt.Sprintf("pressure at node %s (%.2f m) is below the minimum (%g m)", label, nr.Pressure, limits.MinPressure),
			})
			if limits.MinTapPressure > 0 && nr.Pressure >= limits.MinTapPressure {
				add(Alert{
					Severity: Info, Param: PressureTap, Element: elementNode, ID: n.ID, Code: n.Code,
					Value: nr.Pressure, Limit: limits.MinTapPressure, Unit: "m",
					Message: fmt.Sprintf("pressure at node %s (%.2f m) still serves a public tap (%g m)", label, nr.Pressure, limits.MinTapPressure),
				})
			}
		}
		if limits.MaxStaticPressure > 0 && nr.Pressure > limits.MaxStaticPressure {
			add(Alert{
				Severity: Error, Param: PressureMax, Element: elementNode, ID: n.ID, Code: n.Code,
				Value: nr.Pressure, Limit: limits.MaxStaticPressure, Unit: "m", Standard: urbanStandard,
				Message: fmt.Sprintf("pressure at node %s (%.2f m) exceeds the static maximum (%g m)", label, nr.Pressure, limits.MaxStaticPressure),
			})
		}
	}

	// 2) Velocities and diameters
	for k, lr := range res.Links {
		l := net.Link(k)
		label := l.Label()
		if lr.Velocity > 0 && lr.Velocity < limits.MinVelocity {
			add(Alert{
				Severity: Warning, Param: VelocityMin, Element: elementLink, ID: l.ID, Code: l.Code,
				Value: lr.Velocity, Limit: limits.MinVelocity, Unit: "m/s", Standard: urbanStandard,
				Message: fmt.Sprintf("velocity in link %s (%.3f m/s) is below the minimum (%g m/s)", label, lr.Velocity, limits.MinVelocity),
			})
		}
		if limits.MaxVelocity > 0 && lr.Velocity > limits.MaxVelocity {
			add(Alert{
				Severity: Error, Param: VelocityMax, Element: elementLink, ID: l.ID, Code: l.Code,
				Value: lr.Velocity, Limit: limits.MaxVelocity, Unit: "m/s", Standard: urbanStandard,
				Message: fmt.Sprintf("velocity in link %s (%.3f m/s) exceeds the maximum (%g m/s)", label, lr.Velocity, limits.MaxVelocity),
			})
		}
		if l.Diameter < limits.MinDiameter {
			add(Alert{
				Severity: Warning, Param: DiameterMin, Element: elementLink, ID: l.ID, Code: l.Code,
				Value: l.Diameter, Limit: limits.MinDiameter, Unit: "mm",
				Message: fmt.Sprintf("diameter of link %s (%g mm) is below the minimum (%g mm)", label, l.Diameter, limits.MinDiameter),
			})
		}
	}

	for _, a := range rep.Alerts {
		switch a.Severity {
		case Error:
			rep.Errors++
		case Warning:
			rep.Warnings++
		}
	}
	rep.Valid = rep.Errors == 0
	return rep, nil
}
