// SPDX-License-Identifier: MIT

package hydraulic

import (
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/hredes/iterlog"
	"github.com/katalvlaran/hredes/network"
)

// HoursPerDay is the default extended-period horizon.
const HoursPerDay = 24

// Pattern is a cyclic list of demand multipliers, one per hour.
type Pattern struct {
	ID          string    `json:"id" yaml:"id"`
	Multipliers []float64 `json:"multipliers" yaml:"multipliers"`
}

// At returns the multiplier for hour h, wrapping around the pattern length.
func (p Pattern) At(h int) float64 {
	n := len(p.Multipliers)
	return p.Multipliers[((h%n)+n)%n]
}

// HourResult is the solve of one hour of an extended-period run.
type HourResult struct {
	Hour   int
	Result *Result
	Log    *iterlog.Log
}

// SolvePeriod solves net once per hour in [0, hours), scaling each node's
// demand by its pattern multiplier for that hour (1 when the node has no
// pattern). Hours are independent and solved in parallel; the returned slice
// is ordered by hour.
//
// The first failing hour cancels the rest. Its error is returned wrapped
// with the hour, alongside every hour that finished.
func SolvePeriod(net *network.Network, patterns []Pattern, hours int, opts Options) ([]HourResult, error) {
	if net == nil {
		return nil, ErrNilNetwork
	}
	if hours < 1 {
		return nil, fmt.Errorf("%w: hours must be at least 1 (%d)", ErrOptionViolation, hours)
	}
	if err := opts.normalize(); err != nil {
		return nil, err
	}

	byID := make(map[string]Pattern, len(patterns))
	for _, p := range patterns {
		if len(p.Multipliers) == 0 {
			return nil, fmt.Errorf("%w: %q has no multipliers", ErrBadPattern, p.ID)
		}
		for _, m := range p.Multipliers {
			if m < 0 || math.IsNaN(m) || math.IsInf(m, 0) {
				return nil, fmt.Errorf("%w: %q multiplier %g", ErrBadPattern, p.ID, m)
			}
		}
		byID[p.ID] = p
	}
	for _, n := range net.Nodes() {
		if n.Pattern == "" {
			continue
		}
		if _, ok := byID[n.Pattern]; !ok {
			return nil, fmt.Errorf("%w: node %q uses %q", ErrUnknownPattern, n.ID, n.Pattern)
		}
	}

	out := make([]HourResult, hours)
	g, ctx := errgroup.WithContext(opts.Ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for h := 0; h < hours; h++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			hourNet, err := net.WithDemandMultipliers(func(n network.Node) float64 {
				if n.Pattern == "" {
					return 1
				}
				return byID[n.Pattern].At(h)
			})
			if err != nil {
				return fmt.Errorf("hour %d: %w", h, err)
			}
			hourOpts := opts
			hourOpts.Ctx = ctx
			hourOpts.Logger = opts.Logger.WithValues("hour", h)

			res, log, err := Solve(hourNet, hourOpts)
			out[h] = HourResult{Hour: h, Result: res, Log: log}
			if err != nil {
				return fmt.Errorf("hour %d: %w", h, err)
			}
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		return out, nil
	}

	done := out[:0:0]
	for _, hr := range out {
		if hr.Result != nil {
			done = append(done, hr)
		}
	}
	return done, err
}

// Peak returns the hour with the lowest minimum pressure over non-fixed nodes.
func Peak(net *network.Network, hours []HourResult) (HourResult, bool) {
	best, found := HourResult{}, false
	worst := math.Inf(1)
	for _, hr := range hours {
		if hr.Result == nil {
			continue
		}
		if p := hr.Result.Summary(net).MinPressure; p < worst {
			worst, best, found = p, hr, true
		}
	}
	return best, found
}
