// SPDX-License-Identifier: MIT

package network

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func recordValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateNode checks the field-level and type rules of a single node record.
// It does not look at the rest of the network.
func ValidateNode(n Node) error {
	if err := nodeRecord(n); err != nil {
		return invalid(ErrInvalidRecord, []string{recordID(n.ID, "node")}, "%s", err)
	}
	if err := nodeRole(n); err != nil {
		return err
	}
	return nil
}

// ValidateLink checks the field-level rules of a single link record.
func ValidateLink(l Link) error {
	if err := linkRecord(l); err != nil {
		return invalid(ErrInvalidRecord, []string{recordID(l.ID, "link")}, "%s", err)
	}
	if l.From == l.To {
		return invalid(ErrSelfLoop, []string{l.ID}, "both ends at %q", l.From)
	}
	return nil
}

func nodeRecord(n Node) error {
	if err := checkStruct(n); err != nil {
		return err
	}
	if !finite(n.Elevation, n.Demand, n.Level) {
		return errors.New("non-finite value")
	}
	return nil
}

func linkRecord(l Link) error {
	if err := checkStruct(l); err != nil {
		return err
	}
	if !finite(l.Length, l.Diameter, l.Roughness) {
		return errors.New("non-finite value")
	}
	return nil
}

// nodeRole enforces the per-type rules: only junctions consume, only storage
// nodes impose a head.
func nodeRole(n Node) *ValidationError {
	if n.Demand != 0 && n.Type != Junction {
		return invalid(ErrInvalidDemand, []string{n.ID}, "%s node has demand %g L/s", n.Type, n.Demand)
	}
	if n.IsFixedHead && !n.Type.Storage() {
		return invalid(ErrInvalidFixedHead, []string{n.ID}, "%s node cannot impose a head", n.Type)
	}
	return nil
}

// checkStruct runs the struct tags and flattens validator errors into one
// message of the form "Field: tag".
func checkStruct(v any) error {
	err := recordValidator().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
		}
	}
	return errors.New(strings.Join(parts, "; "))
}

func recordID(id, kind string) string {
	if id == "" {
		return "<" + kind + " without id>"
	}
	return id
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
