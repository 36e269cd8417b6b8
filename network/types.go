// SPDX-License-Identifier: MIT

package network

import (
	"errors"
	"fmt"
	"strings"
)

// NodeType classifies a node by its hydraulic role.
type NodeType string

const (
	Reservoir     NodeType = "reservoir"
	Tank          NodeType = "tank"
	Junction      NodeType = "junction"
	Valve         NodeType = "valve"
	Pump          NodeType = "pump"
	PressureBreak NodeType = "pressure_break"
	Cistern       NodeType = "cistern"
)

// Valid reports whether t is one of the known node types.
func (t NodeType) Valid() bool {
	switch t {
	case Reservoir, Tank, Junction, Valve, Pump, PressureBreak, Cistern:
		return true
	}
	return false
}

// Storage reports whether a node of type t may act as a fixed-head boundary.
func (t NodeType) Storage() bool {
	switch t {
	case Reservoir, Tank, Cistern, PressureBreak:
		return true
	}
	return false
}

// Node is a point of the network. Demand is in L/s and only junctions carry
// it; fixed-head nodes impose a head of Elevation+Level.
type Node struct {
	ID          string   `validate:"required" json:"id" yaml:"id"`
	Code        string   `json:"code" yaml:"code"`
	Type        NodeType `validate:"required,oneof=reservoir tank junction valve pump pressure_break cistern" json:"type" yaml:"type"`
	Elevation   float64  `validate:"gte=-500,lte=9000" json:"elevation" yaml:"elevation"`
	Demand      float64  `json:"demand" yaml:"demand"`
	Level       float64  `validate:"gte=0" json:"level" yaml:"level"`
	IsFixedHead bool     `json:"isFixedHead" yaml:"isFixedHead"`
	Pattern     string   `json:"pattern,omitempty" yaml:"pattern,omitempty"`
}

// Label returns Code, falling back to ID when no code was assigned.
func (n Node) Label() string {
	if n.Code != "" {
		return n.Code
	}
	return n.ID
}

// Link is a pipe between two nodes. Diameter is the internal diameter in mm.
type Link struct {
	ID        string  `validate:"required" json:"id" yaml:"id"`
	Code      string  `json:"code" yaml:"code"`
	From      string  `validate:"required" json:"fromNodeId" yaml:"fromNodeId"`
	To        string  `validate:"required" json:"toNodeId" yaml:"toNodeId"`
	Length    float64 `validate:"gt=0" json:"length" yaml:"length"`
	Diameter  float64 `validate:"gt=0" json:"internalDiameter" yaml:"internalDiameter"`
	Roughness float64 `validate:"gt=0" json:"roughnessCoefficient" yaml:"roughnessCoefficient"`
	Material  string  `json:"material,omitempty" yaml:"material,omitempty"`
}

// Label returns Code, falling back to ID when no code was assigned.
func (l Link) Label() string {
	if l.Code != "" {
		return l.Code
	}
	return l.ID
}

// LinkSpec replaces the pipe properties of one link. Zero Roughness keeps the
// current value; empty Material keeps the current material.
type LinkSpec struct {
	Diameter  float64
	Roughness float64
	Material  string
}

// Stats summarizes a network.
type Stats struct {
	Nodes       int
	Links       int
	FixedHead   int
	Junctions   int
	TotalLength float64 // m
	TotalDemand float64 // L/s
}

// ErrValidation matches every *ValidationError through errors.Is.
var ErrValidation = errors.New("network: invalid network")

// Validation kinds. A *ValidationError unwraps to exactly one of them.
var (
	ErrEmptyNetwork     = errors.New("network: no nodes")
	ErrInvalidRecord    = errors.New("network: invalid record")
	ErrDuplicateNode    = errors.New("network: duplicate node id")
	ErrDuplicateLink    = errors.New("network: duplicate link id")
	ErrUnknownEndpoint  = errors.New("network: link references unknown node")
	ErrSelfLoop         = errors.New("network: link connects a node to itself")
	ErrInvalidDemand    = errors.New("network: demand on a non-consumption node")
	ErrInvalidFixedHead = errors.New("network: fixed head on a non-storage node")
	ErrNoFixedHead      = errors.New("network: no fixed-head node")
	ErrDisconnected     = errors.New("network: nodes unreachable from any fixed-head node")
)

// ErrBadSnapshot is returned by the With* snapshot builders for malformed input.
var ErrBadSnapshot = errors.New("network: invalid snapshot input")

// ValidationError reports a rejected topology. IDs lists every offending node
// or link id found by the failing stage.
type ValidationError struct {
	Kind error
	IDs  []string
	Msg  string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if len(e.IDs) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(e.IDs, ", "))
	}
	return b.String()
}

// Unwrap exposes both ErrValidation and the specific kind.
func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.Kind}
}

func invalid(kind error, ids []string, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: kind, IDs: ids, Msg: fmt.Sprintf(format, args...)}
}
