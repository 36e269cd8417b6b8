package iterlog

import (
	"errors"
	"fmt"
	"time"
)

// Severity tags a step for presentation.
type Severity string

const (
	Info    Severity = "info"
	Error   Severity = "error"
	Success Severity = "success"
)

// ErrStepOutOfRange is returned by Log.Step for an invalid index.
var ErrStepOutOfRange = errors.New("iterlog: step index out of range")

// Step is one recorded iteration. Flows (L/s) follow link index order and
// Heads (m) follow node index order of the network that produced them.
type Step struct {
	Index         int       `json:"index" yaml:"index"`
	Description   string    `json:"description" yaml:"description"`
	Severity      Severity  `json:"severity" yaml:"severity"`
	Timestamp     time.Time `json:"timestamp" yaml:"timestamp"`
	Error         float64   `json:"error" yaml:"error"`
	Relaxation    int       `json:"relaxation,omitempty" yaml:"relaxation,omitempty"`
	Flows         []float64 `json:"flows,omitempty" yaml:"flows,omitempty"`
	Heads         []float64 `json:"heads,omitempty" yaml:"heads,omitempty"`
	AffectedNodes []string  `json:"affectedNodeIds,omitempty" yaml:"affectedNodeIds,omitempty"`
	AffectedLinks []string  `json:"affectedLinkIds,omitempty" yaml:"affectedLinkIds,omitempty"`
}

func (s Step) clone() Step {
	s.Flows = cloneSlice(s.Flows)
	s.Heads = cloneSlice(s.Heads)
	s.AffectedNodes = cloneSlice(s.AffectedNodes)
	s.AffectedLinks = cloneSlice(s.AffectedLinks)
	return s
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	return append(make([]T, 0, len(in)), in...)
}

// Row is one line of the iteration table.
type Row struct {
	Iteration int     `json:"iteration" yaml:"iteration"`
	Error     float64 `json:"error" yaml:"error"`
	Converged bool    `json:"converged" yaml:"converged"`
}

// Log is an immutable, ordered sequence of steps. The zero value and nil are
// empty logs.
type Log struct {
	runID string
	steps []Step
}

// RunID identifies the run that produced the log.
func (l *Log) RunID() string {
	if l == nil {
		return ""
	}
	return l.runID
}

// Len returns the number of steps.
func (l *Log) Len() int {
	if l == nil {
		return 0
	}
	return len(l.steps)
}

// Step returns a copy of step i.
func (l *Log) Step(i int) (Step, error) {
	if i < 0 || i >= l.Len() {
		return Step{}, fmt.Errorf("%w: %d of %d", ErrStepOutOfRange, i, l.Len())
	}
	return l.steps[i].clone(), nil
}

// Steps returns a copy of every step.
func (l *Log) Steps() []Step {
	out := make([]Step, l.Len())
	for i := range out {
		out[i] = l.steps[i].clone()
	}
	return out
}

// Last returns the final step, if any.
func (l *Log) Last() (Step, bool) {
	if l.Len() == 0 {
		return Step{}, false
	}
	return l.steps[len(l.steps)-1].clone(), true
}

// Final returns the severity of the last step, or Info for an empty log.
func (l *Log) Final() Severity {
	if s, ok := l.Last(); ok {
		return s.Severity
	}
	return Info
}

// Table returns one row per step with the convergence metric. Converged is
// set on success steps.
func (l *Log) Table() []Row {
	rows := make([]Row, l.Len())
	for i := range rows {
		s := l.steps[i]
		rows[i] = Row{Iteration: s.Index + 1, Error: s.Error, Converged: s.Severity == Success}
	}
	return rows
}

// Concat returns a new log holding the steps of every given log in order,
// re-indexed from zero. The run id is taken from the first non-empty log.
func Concat(logs ...*Log) *Log {
	out := &Log{}
	for _, l := range logs {
		if l.Len() == 0 {
			continue
		}
		if out.runID == "" {
			out.runID = l.runID
		}
		for _, s := range l.steps {
			s = s.clone()
			s.Index = len(out.steps)
			out.steps = append(out.steps, s)
		}
	}
	return out
}
