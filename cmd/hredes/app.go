package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/spf13/pflag"

	"github.com/katalvlaran/hredes/catalog"
	"github.com/katalvlaran/hredes/codec"
	"github.com/katalvlaran/hredes/compliance"
	"github.com/katalvlaran/hredes/config"
	"github.com/katalvlaran/hredes/hydraulic"
	"github.com/katalvlaran/hredes/iterlog"
	"github.com/katalvlaran/hredes/metrics"
	"github.com/katalvlaran/hredes/network"
	"github.com/katalvlaran/hredes/optimize"
)

type command func(ctx context.Context, a *app, w io.Writer) error

var commands = map[string]command{
	"solve":    solveCmd,
	"optimize": optimizeCmd,
	"check":    checkCmd,
	"replay":   replayCmd,
}

type app struct {
	cfg    *config.Config
	flags  *pflag.FlagSet
	log    logr.Logger
	reg    *metrics.Registry
	format codec.Format
}

// withOutput runs fn against stdout or the configured output file.
func (a *app) withOutput(stdout io.Writer, fn func(io.Writer) error) error {
	if a.cfg.Output == "" || a.cfg.Output == "-" {
		return fn(stdout)
	}
	f, err := os.Create(a.cfg.Output)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// project is a decoded and validated input file.
type project struct {
	doc *codec.Project
	net *network.Network
	cat *catalog.Catalog
}

func (a *app) load() (*project, error) {
	if a.cfg.Input == "" {
		return nil, errors.New("no project file, use -f")
	}
	f, err := codec.FormatFromPath(a.cfg.Input)
	if err != nil {
		return nil, err
	}
	r, err := os.Open(a.cfg.Input)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	doc, err := codec.DecodeProject(r, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.cfg.Input, err)
	}
	net, cat, err := doc.Build()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.cfg.Input, err)
	}
	a.log.V(1).Info("project loaded", "name", doc.Name, "nodes", net.NumNodes(), "links", net.NumLinks(), "sizes", cat.Len())
	return &project{doc: doc, net: net, cat: cat}, nil
}

// limits returns the compliance limits: the project scope applies unless
// the scope was set explicitly by flag.
func (a *app) limits(p *project) (compliance.Limits, error) {
	if p.doc.Scope != "" && !a.flags.Changed("scope") {
		scope, err := compliance.ParseScope(p.doc.Scope)
		if err != nil {
			return compliance.Limits{}, err
		}
		return compliance.LimitsFor(scope)
	}
	return a.cfg.Limits()
}

func (a *app) solverOptions(ctx context.Context) hydraulic.Options {
	opts := a.cfg.SolverOptions(a.log)
	opts.Ctx = ctx
	opts.Observer = a.reg
	return opts
}

func solveCmd(ctx context.Context, a *app, w io.Writer) error {
	p, err := a.load()
	if err != nil {
		return err
	}
	opts := a.solverOptions(ctx)

	if a.cfg.Hours > 0 {
		opts.RecordSnapshots = false
		hours, err := hydraulic.SolvePeriod(p.net, p.doc.Patterns, a.cfg.Hours, opts)
		if len(hours) == 0 {
			return err
		}
		if peak, ok := hydraulic.Peak(p.net, hours); ok {
			a.log.Info("period solved", "hours", len(hours), "peakHour", peak.Hour)
		}
		if encErr := codec.EncodePeriod(w, a.format, p.net, hours); encErr != nil {
			return errors.Join(err, encErr)
		}
		return a.partial(err)
	}

	res, _, err := hydraulic.Solve(p.net, opts)
	if res == nil {
		return err
	}
	if encErr := codec.EncodeSolution(w, a.format, p.net, res); encErr != nil {
		return errors.Join(err, encErr)
	}
	return a.partial(err)
}

// partial decides the outcome of a numeric failure whose results were
// already written: an error unless partial results were accepted.
func (a *app) partial(err error) error {
	if err == nil {
		return nil
	}
	if a.cfg.Solver.AcceptPartial {
		a.log.Info("partial solution accepted", "reason", err.Error())
		return nil
	}
	return err
}

func optimizeCmd(ctx context.Context, a *app, w io.Writer) error {
	p, err := a.load()
	if err != nil {
		return err
	}
	c, err := a.cfg.Constraints(p.doc.Constraints)
	if err != nil {
		return err
	}
	opts := a.cfg.OptimizeOptions(a.log)
	opts.Ctx = ctx
	opts.Observer = a.reg
	opts.Solver.Observer = a.reg

	res, err := optimize.Optimize(p.net, p.cat, c, opts)
	var ie *optimize.InfeasibleError
	switch {
	case err == nil:
		a.log.Info("optimized", "strategy", res.Strategy, "cost", res.TotalCost, "savings", res.Savings)
		return codec.EncodeOptimization(w, a.format, p.net, res, "")
	case errors.As(err, &ie) && ie.Best != nil:
		if encErr := codec.EncodeOptimization(w, a.format, p.net, ie.Best, ie.Reason); encErr != nil {
			return errors.Join(err, encErr)
		}
		return err
	default:
		return err
	}
}

func checkCmd(ctx context.Context, a *app, w io.Writer) error {
	p, err := a.load()
	if err != nil {
		return err
	}
	limits, err := a.limits(p)
	if err != nil {
		return err
	}
	res, _, err := hydraulic.Solve(p.net, a.solverOptions(ctx))
	if err != nil {
		return err
	}
	rep, err := compliance.Check(p.net, res, limits)
	if err != nil {
		return err
	}
	a.log.Info("compliance checked", "scope", rep.Scope, "errors", rep.Errors, "warnings", rep.Warnings)
	if err := codec.EncodeCompliance(w, a.format, rep); err != nil {
		return err
	}
	if !rep.Valid {
		return errNotCompliant
	}
	return nil
}

// replayCmd solves the project and plays its iteration log as text lines.
// With --hours the hourly logs are played back to back.
func replayCmd(ctx context.Context, a *app, w io.Writer) error {
	p, err := a.load()
	if err != nil {
		return err
	}
	opts := a.solverOptions(ctx)
	opts.RecordSnapshots = true
	opts.AcceptPartial = true

	var lg *iterlog.Log
	if a.cfg.Hours > 0 {
		hours, perr := hydraulic.SolvePeriod(p.net, p.doc.Patterns, a.cfg.Hours, opts)
		logs := make([]*iterlog.Log, len(hours))
		for i, hr := range hours {
			logs[i] = hr.Log
		}
		lg, err = iterlog.Concat(logs...), perr
	} else {
		_, lg, err = hydraulic.Solve(p.net, opts)
	}
	if lg.Len() == 0 {
		return err
	}

	pl := iterlog.NewPlayer()
	if err := pl.Load(lg); err != nil {
		return err
	}
	if err := pl.SetSpeed(a.cfg.Replay.Speed); err != nil {
		return err
	}
	if err := pl.Play(); err != nil {
		return err
	}
	return pl.Run(ctx, func(s iterlog.Step) {
		fmt.Fprintf(w, "%3d %-7s err=%.3e %s\n", s.Index, s.Severity, s.Error, s.Description)
	})
}
