// SPDX-License-Identifier: MIT

package hydraulic

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-logr/logr"
)

var (
	// ErrNilNetwork is returned when Solve receives a nil network.
	ErrNilNetwork = errors.New("hydraulic: network is nil")

	// ErrOptionViolation is returned for out-of-range Options.
	ErrOptionViolation = errors.New("hydraulic: invalid option supplied")

	// ErrNotConverged is the kind of every *ConvergenceError.
	ErrNotConverged = errors.New("hydraulic: solution did not converge")

	// ErrSingular is the kind of every *SingularError.
	ErrSingular = errors.New("hydraulic: singular nodal system")

	// ErrUnknownPattern is returned by SolvePeriod when a node names a pattern
	// that was not supplied.
	ErrUnknownPattern = errors.New("hydraulic: unknown demand pattern")

	// ErrBadPattern is returned by SolvePeriod for an empty or negative pattern.
	ErrBadPattern = errors.New("hydraulic: invalid demand pattern")
)

// ConvergenceError reports a solve that ran out of iterations or time. The
// accompanying Result holds the last iterate.
type ConvergenceError struct {
	Iterations int
	Residual   float64 // last convergence metric
	Tolerance  float64
	Links      []string // links with the largest final flow correction
	Cause      error    // context error when the budget was a deadline or cancel
}

func (e *ConvergenceError) Error() string {
	msg := fmt.Sprintf("hydraulic: not converged after %d iterations (residual %.3e, tolerance %.1e)", e.Iterations, e.Residual, e.Tolerance)
	if len(e.Links) > 0 {
		msg += " [" + strings.Join(e.Links, ", ") + "]"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes ErrNotConverged and, when set, the context error.
func (e *ConvergenceError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrNotConverged, e.Cause}
	}
	return []error{ErrNotConverged}
}

// SingularError reports a nodal system that stayed singular after every
// damping retry. Nodes names the most weakly connected unknown node.
type SingularError struct {
	Iteration   int
	Relaxations int
	Nodes       []string
}

func (e *SingularError) Error() string {
	return fmt.Sprintf("hydraulic: singular nodal system at iteration %d after %d relaxations [%s]",
		e.Iteration, e.Relaxations, strings.Join(e.Nodes, ", "))
}

// Unwrap returns ErrSingular.
func (e *SingularError) Unwrap() error { return ErrSingular }

// SolveStats is reported to an Observer at the end of every solve.
type SolveStats struct {
	Nodes       int
	Links       int
	Iterations  int
	Relaxations int
	Error       float64
	Converged   bool
	Outcome     string // "converged", "not_converged", "singular", "cancelled"
	Duration    time.Duration
}

// Observer receives solve statistics.
type Observer interface {
	ObserveSolve(SolveStats)
}

// Options tunes a solve.
//   - Tolerance: convergence threshold on the largest relative flow
//     correction max_k |ΔQ_k| / max(|Q_k|, 1e-6 m³/s) (default 1e-6). Links
//     moving more than Tolerance L/s and nodes moving more than Tolerance m
//     are reported as affected in each step.
//   - MaxIterations: iteration budget (default 200).
//   - MaxRelaxations: damping retries per iteration (default 4).
//   - RelaxationFactor: flow step multiplier per retry, in (0,1) (default 0.5).
//   - MaxCondition: condition number treated as singular (default 1e12).
//   - AcceptPartial: return a non-converged result without error.
//   - RecordSnapshots: copy flows and heads into every log step (default true).
type Options struct {
	Ctx              context.Context
	Formula          Formula
	Tolerance        float64
	MaxIterations    int
	MaxRelaxations   int
	RelaxationFactor float64
	MaxCondition     float64
	AcceptPartial    bool
	RecordSnapshots  bool

	Logger   logr.Logger
	Observer Observer
	Clock    func() time.Time
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		Ctx:              context.Background(),
		Formula:          HazenWilliams,
		Tolerance:        1e-6,
		MaxIterations:    200,
		MaxRelaxations:   4,
		RelaxationFactor: 0.5,
		MaxCondition:     1e12,
		RecordSnapshots:  true,
		Clock:            time.Now,
	}
}

// normalize fills zero values from DefaultOptions and rejects invalid ones.
func (o *Options) normalize() error {
	def := DefaultOptions()
	if o.Ctx == nil {
		o.Ctx = def.Ctx
	}
	if o.Formula == (Formula{}) {
		o.Formula = def.Formula
	}
	if o.Clock == nil {
		o.Clock = def.Clock
	}
	if o.MaxCondition == 0 {
		o.MaxCondition = def.MaxCondition
	}
	if o.Logger.GetSink() == nil {
		o.Logger = logr.FromContextOrDiscard(o.Ctx)
	}

	switch {
	case !(o.Tolerance > 0) || math.IsInf(o.Tolerance, 0):
		return fmt.Errorf("%w: Tolerance must be positive (%g)", ErrOptionViolation, o.Tolerance)
	case o.MaxIterations < 1:
		return fmt.Errorf("%w: MaxIterations must be at least 1 (%d)", ErrOptionViolation, o.MaxIterations)
	case o.MaxRelaxations < 0:
		return fmt.Errorf("%w: MaxRelaxations cannot be negative (%d)", ErrOptionViolation, o.MaxRelaxations)
	case !(o.RelaxationFactor > 0 && o.RelaxationFactor < 1):
		return fmt.Errorf("%w: RelaxationFactor must be in (0,1) (%g)", ErrOptionViolation, o.RelaxationFactor)
	case !(o.MaxCondition > 1):
		return fmt.Errorf("%w: MaxCondition must exceed 1 (%g)", ErrOptionViolation, o.MaxCondition)
	case !(o.Formula.Exponent > 1) || !(o.Formula.Constant > 0) || !(o.Formula.DiameterExponent > 0):
		return fmt.Errorf("%w: formula %q", ErrOptionViolation, o.Formula.Name)
	}
	return nil
}

// NodeResult holds the solved state of one node.
type NodeResult struct {
	ID       string  `json:"id" yaml:"id"`
	Code     string  `json:"code,omitempty" yaml:"code,omitempty"`
	Head     float64 `json:"head" yaml:"head"`         // m
	Pressure float64 `json:"pressure" yaml:"pressure"` // m
	Demand   float64 `json:"demand" yaml:"demand"`     // L/s
}

// LinkResult holds the solved state of one link. Flow is positive in record
// direction.
type LinkResult struct {
	ID           string  `json:"id" yaml:"id"`
	Code         string  `json:"code,omitempty" yaml:"code,omitempty"`
	Flow         float64 `json:"flow" yaml:"flow"`                 // L/s
	Velocity     float64 `json:"velocity" yaml:"velocity"`         // m/s
	HeadLoss     float64 `json:"headLoss" yaml:"headLoss"`         // m
	UnitHeadLoss float64 `json:"unitHeadLoss" yaml:"unitHeadLoss"` // m/km
}

// Result is the outcome of a solve. Nodes and Links follow network index
// order.
type Result struct {
	Nodes       []NodeResult  `json:"nodes" yaml:"nodes"`
	Links       []LinkResult  `json:"links" yaml:"links"`
	Converged   bool          `json:"converged" yaml:"converged"`
	Iterations  int           `json:"iterations" yaml:"iterations"`
	Error       float64       `json:"error" yaml:"error"`
	Relaxations int           `json:"relaxations" yaml:"relaxations"`
	Method      string        `json:"method" yaml:"method"`
	Tolerance   float64       `json:"tolerance" yaml:"tolerance"`
	Duration    time.Duration `json:"duration" yaml:"duration"`
}

// Summary holds result extremes.
type Summary struct {
	MinPressure     float64 `json:"minPressure" yaml:"minPressure"`
	MaxPressure     float64 `json:"maxPressure" yaml:"maxPressure"`
	MinPressureNode string  `json:"minPressureNode" yaml:"minPressureNode"`
	MaxPressureNode string  `json:"maxPressureNode" yaml:"maxPressureNode"`
	MinVelocity     float64 `json:"minVelocity" yaml:"minVelocity"`
	MaxVelocity     float64 `json:"maxVelocity" yaml:"maxVelocity"`
	MinVelocityLink string  `json:"minVelocityLink" yaml:"minVelocityLink"`
	MaxVelocityLink string  `json:"maxVelocityLink" yaml:"maxVelocityLink"`
	TotalDemand     float64 `json:"totalDemand" yaml:"totalDemand"`
	Iterations      int     `json:"iterations" yaml:"iterations"`
	Error           float64 `json:"error" yaml:"error"`
	Converged       bool    `json:"converged" yaml:"converged"`
}
