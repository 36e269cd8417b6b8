package optimize

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/katalvlaran/hredes/catalog"
	"github.com/katalvlaran/hredes/hydraulic"
	"github.com/katalvlaran/hredes/iterlog"
)

var (
	// ErrInfeasible is the kind of every *InfeasibleError.
	ErrInfeasible = errors.New("optimize: constraints cannot be satisfied")

	// ErrOptionViolation is returned for invalid Options or Constraints.
	ErrOptionViolation = errors.New("optimize: invalid option supplied")

	// ErrNilInput is returned for a nil network or catalog.
	ErrNilInput = errors.New("optimize: network and catalog are required")
)

// Strategy selects the search method.
type Strategy string

const (
	Auto   Strategy = "auto"
	Greedy Strategy = "greedy"
	Exact  Strategy = "exact"
)

// Constraints bound the solved network. A zero bound is disabled, except
// MinPressure where zero means "no negative pressure".
type Constraints struct {
	MinPressure float64 `json:"minPressure" yaml:"minPressure"` // m
	MaxPressure float64 `json:"maxPressure" yaml:"maxPressure"` // m
	MinVelocity float64 `json:"minVelocity" yaml:"minVelocity"` // m/s
	MaxVelocity float64 `json:"maxVelocity" yaml:"maxVelocity"` // m/s
}

// Validate rejects negative or crossed bounds.
func (c Constraints) Validate() error {
	for name, v := range map[string]float64{
		"MinPressure": c.MinPressure, "MaxPressure": c.MaxPressure,
		"MinVelocity": c.MinVelocity, "MaxVelocity": c.MaxVelocity,
	} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s = %g", ErrOptionViolation, name, v)
		}
	}
	if c.MaxPressure > 0 && c.MaxPressure < c.MinPressure {
		return fmt.Errorf("%w: MaxPressure %g below MinPressure %g", ErrOptionViolation, c.MaxPressure, c.MinPressure)
	}
	if c.MaxVelocity > 0 && c.MaxVelocity < c.MinVelocity {
		return fmt.Errorf("%w: MaxVelocity %g below MinVelocity %g", ErrOptionViolation, c.MaxVelocity, c.MinVelocity)
	}
	return nil
}

// ViolationKind names the bound a violation breaks.
type ViolationKind string

const (
	PressureLow  ViolationKind = "pressure_low"
	PressureHigh ViolationKind = "pressure_high"
	VelocityLow  ViolationKind = "velocity_low"
	VelocityHigh ViolationKind = "velocity_high"
)

// repairable reports whether upsizing can fix the violation.
func (k ViolationKind) repairable() bool { return k == PressureLow || k == VelocityHigh }

// Violation is one broken bound at a node (pressure) or link (velocity).
type Violation struct {
	Kind  ViolationKind `json:"kind" yaml:"kind"`
	ID    string        `json:"id" yaml:"id"`
	Value float64       `json:"value" yaml:"value"`
	Limit float64       `json:"limit" yaml:"limit"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s %s: %.3f vs %.3f", v.Kind, v.ID, v.Value, v.Limit)
}

// LinkChoice is the catalog entry chosen for one link.
type LinkChoice struct {
	ID       string        `json:"id" yaml:"id"`
	Code     string        `json:"code,omitempty" yaml:"code,omitempty"`
	Length   float64       `json:"length" yaml:"length"`
	Diameter float64       `json:"diameter" yaml:"diameter"`
	Entry    catalog.Entry `json:"entry" yaml:"entry"`
	Cost     float64       `json:"cost" yaml:"cost"`
}

// Result is an optimization outcome. Links follow network index order.
type Result struct {
	Links        []LinkChoice      `json:"links" yaml:"links"`
	Solution     *hydraulic.Result `json:"solution" yaml:"solution"`
	TotalCost    float64           `json:"totalCost" yaml:"totalCost"`
	BaselineCost float64           `json:"baselineCost,omitempty" yaml:"baselineCost,omitempty"`
	Savings      float64           `json:"savings,omitempty" yaml:"savings,omitempty"` // fraction of BaselineCost
	Violations   []Violation       `json:"violations" yaml:"violations"`
	Feasible     bool              `json:"feasible" yaml:"feasible"`
	Strategy     Strategy          `json:"strategy" yaml:"strategy"`
	Rounds       int               `json:"rounds" yaml:"rounds"`
	Evaluations  int               `json:"evaluations" yaml:"evaluations"`
	Duration     time.Duration     `json:"duration" yaml:"duration"`
	Log          *iterlog.Log      `json:"-" yaml:"-"`
}

// Diameters returns the chosen diameters in link index order.
func (r *Result) Diameters() []float64 {
	out := make([]float64, len(r.Links))
	for k, lc := range r.Links {
		out[k] = lc.Diameter
	}
	return out
}

// InfeasibleError reports an optimization that ended with violations. Best
// holds the last (greedy) or least-violating (exact) attempt.
type InfeasibleError struct {
	Reason     string
	Links      []string // links that could not be upsized further
	Violations []Violation
	Best       *Result
	Cause      error
}

func (e *InfeasibleError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "optimize: infeasible: %s (%d violations)", e.Reason, len(e.Violations))
	if len(e.Links) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(e.Links, ", "))
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap exposes ErrInfeasible and, when set, the cause.
func (e *InfeasibleError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrInfeasible, e.Cause}
	}
	return []error{ErrInfeasible}
}

// Stats is reported to an Observer at the end of every optimization.
type Stats struct {
	Strategy    Strategy
	Rounds      int
	Evaluations int
	Feasible    bool
	TotalCost   float64
	Duration    time.Duration
}

// Observer receives optimization statistics.
type Observer interface {
	ObserveOptimize(Stats)
}

// Options tunes an optimization.
//   - MaxIterations: greedy upsizing rounds (default 100).
//   - Strategy: Auto (default), Greedy or Exact.
//   - ExactLimit: largest search space Auto hands to Exact, and the largest
//     Exact accepts (default 4096).
//   - Solver: options for every hydraulic evaluation.
type Options struct {
	Ctx           context.Context
	MaxIterations int
	Strategy      Strategy
	ExactLimit    int
	Solver        hydraulic.Options

	Logger   logr.Logger
	Observer Observer
	Clock    func() time.Time
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	solver := hydraulic.DefaultOptions()
	solver.RecordSnapshots = false
	return Options{
		Ctx:           context.Background(),
		MaxIterations: 100,
		Strategy:      Auto,
		ExactLimit:    4096,
		Solver:        solver,
		Clock:         time.Now,
	}
}

func (o *Options) normalize() error {
	if o.Ctx == nil {
		o.Ctx = context.Background()
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.Strategy == "" {
		o.Strategy = Auto
	}
	if o.Logger.GetSink() == nil {
		o.Logger = logr.FromContextOrDiscard(o.Ctx)
	}
	o.Solver.Ctx = o.Ctx
	if o.Solver.Logger.GetSink() == nil {
		o.Solver.Logger = o.Logger
	}

	switch {
	case o.MaxIterations < 1:
		return fmt.Errorf("%w: MaxIterations must be at least 1 (%d)", ErrOptionViolation, o.MaxIterations)
	case o.ExactLimit < 1:
		return fmt.Errorf("%w: ExactLimit must be at least 1 (%d)", ErrOptionViolation, o.ExactLimit)
	case o.Strategy != Auto && o.Strategy != Greedy && o.Strategy != Exact:
		return fmt.Errorf("%w: unknown strategy %q", ErrOptionViolation, o.Strategy)
	}
	return nil
}
