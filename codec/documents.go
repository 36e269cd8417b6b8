package codec

import (
	"io"

	"github.com/katalvlaran/hredes/compliance"
	"github.com/katalvlaran/hredes/hydraulic"
	"github.com/katalvlaran/hredes/iterlog"
	"github.com/katalvlaran/hredes/network"
	"github.com/katalvlaran/hredes/optimize"
)

// Solution is the solver output document.
type Solution struct {
	Converged  bool                   `json:"converged" yaml:"converged"`
	Iterations int                    `json:"iterations" yaml:"iterations"`
	Error      float64                `json:"error" yaml:"error"`
	Method     string                 `json:"method" yaml:"method"`
	Nodes      []hydraulic.NodeResult `json:"nodes" yaml:"nodes"`
	Links      []hydraulic.LinkResult `json:"links" yaml:"links"`
	Summary    hydraulic.Summary      `json:"summary" yaml:"summary"`
}

// NewSolution assembles the document of res solved on net.
func NewSolution(net *network.Network, res *hydraulic.Result) Solution {
	return Solution{
		Converged:  res.Converged,
		Iterations: res.Iterations,
		Error:      res.Error,
		Method:     res.Method,
		Nodes:      res.Nodes,
		Links:      res.Links,
		Summary:    res.Summary(net),
	}
}

// EncodeSolution writes the solution document of res.
func EncodeSolution(w io.Writer, f Format, net *network.Network, res *hydraulic.Result) error {
	return encode(w, f, NewSolution(net, res))
}

// LogDocument is an iteration log with its summary table.
type LogDocument struct {
	RunID string         `json:"runId" yaml:"runId"`
	Final string         `json:"final" yaml:"final"`
	Steps []iterlog.Step `json:"steps" yaml:"steps"`
	Table []iterlog.Row  `json:"table" yaml:"table"`
}

// EncodeLog writes every step of log and its iteration table.
func EncodeLog(w io.Writer, f Format, log *iterlog.Log) error {
	return encode(w, f, LogDocument{
		RunID: log.RunID(),
		Final: string(log.Final()),
		Steps: log.Steps(),
		Table: log.Table(),
	})
}

// Optimization is the optimizer output document. Solution is omitted when
// the caller has no network at hand.
type Optimization struct {
	Feasible     bool                  `json:"feasible" yaml:"feasible"`
	Strategy     optimize.Strategy     `json:"strategy" yaml:"strategy"`
	Links        []optimize.LinkChoice `json:"links" yaml:"links"`
	TotalCost    float64               `json:"totalCost" yaml:"totalCost"`
	BaselineCost float64               `json:"baselineCost,omitempty" yaml:"baselineCost,omitempty"`
	Savings      float64               `json:"savings,omitempty" yaml:"savings,omitempty"`
	Violations   []optimize.Violation  `json:"violations" yaml:"violations"`
	Rounds       int                   `json:"rounds" yaml:"rounds"`
	Evaluations  int                   `json:"evaluations" yaml:"evaluations"`
	Reason       string                `json:"reason,omitempty" yaml:"reason,omitempty"`
	Solution     *Solution             `json:"solution,omitempty" yaml:"solution,omitempty"`
}

// NewOptimization assembles the document of res. A non-nil net adds the
// solution of the chosen diameters. reason describes an infeasible outcome.
func NewOptimization(net *network.Network, res *optimize.Result, reason string) Optimization {
	doc := Optimization{
		Feasible:     res.Feasible,
		Strategy:     res.Strategy,
		Links:        res.Links,
		TotalCost:    res.TotalCost,
		BaselineCost: res.BaselineCost,
		Savings:      res.Savings,
		Violations:   res.Violations,
		Rounds:       res.Rounds,
		Evaluations:  res.Evaluations,
		Reason:       reason,
	}
	if doc.Violations == nil {
		doc.Violations = []optimize.Violation{}
	}
	if net != nil && res.Solution != nil {
		s := NewSolution(net, res.Solution)
		doc.Solution = &s
	}
	return doc
}

// EncodeOptimization writes the optimization document of res.
func EncodeOptimization(w io.Writer, f Format, net *network.Network, res *optimize.Result, reason string) error {
	return encode(w, f, NewOptimization(net, res, reason))
}

// EncodeCompliance writes a compliance report.
func EncodeCompliance(w io.Writer, f Format, rep *compliance.Report) error {
	if rep.Alerts == nil {
		cp := *rep
		cp.Alerts = []compliance.Alert{}
		rep = &cp
	}
	return encode(w, f, rep)
}

// Hour is one row of an extended-period document.
type Hour struct {
	Hour        int     `json:"hour" yaml:"hour"`
	Converged   bool    `json:"converged" yaml:"converged"`
	Iterations  int     `json:"iterations" yaml:"iterations"`
	TotalDemand float64 `json:"totalDemand" yaml:"totalDemand"`
	MinPressure float64 `json:"minPressure" yaml:"minPressure"`
	MinNode     string  `json:"minPressureNode" yaml:"minPressureNode"`
	MaxVelocity float64 `json:"maxVelocity" yaml:"maxVelocity"`
	MaxLink     string  `json:"maxVelocityLink" yaml:"maxVelocityLink"`
}

// EncodePeriod writes one summary row per solved hour.
func EncodePeriod(w io.Writer, f Format, net *network.Network, hours []hydraulic.HourResult) error {
	rows := make([]Hour, 0, len(hours))
	for _, hr := range hours {
		sm := hr.Result.Summary(net)
		rows = append(rows, Hour{
			Hour:        hr.Hour,
			Converged:   hr.Result.Converged,
			Iterations:  hr.Result.Iterations,
			TotalDemand: sm.TotalDemand,
			MinPressure: sm.MinPressure,
			MinNode:     sm.MinPressureNode,
			MaxVelocity: sm.MaxVelocity,
			MaxLink:     sm.MaxVelocityLink,
		})
	}
	return encode(w, f, map[string][]Hour{"hours": rows})
}
