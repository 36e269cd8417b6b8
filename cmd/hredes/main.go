// Command hredes solves, sizes and checks potable-water pipe networks.
//
// Usage:
//
//	hredes solve    -f project.yaml [--hours 24]
//	hredes optimize -f project.yaml [--strategy greedy] [--min-pressure 10]
//	hredes check    -f project.yaml [--scope rural]
//	hredes replay   -f project.yaml [--speed 250ms]
//
// Flags may also come from HREDES_* variables or a hredes.yaml file; see
// package config.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/katalvlaran/hredes/codec"
	"github.com/katalvlaran/hredes/config"
	"github.com/katalvlaran/hredes/metrics"
)

const usage = `usage: hredes <command> [flags]

commands:
  solve     steady-state (or --hours extended-period) hydraulic solution
  optimize  least-cost catalog diameters under pressure and velocity bounds
  check     design-code compliance report of the solved network
  replay    play the solver iteration log step by step
`

// errNotCompliant marks a completed check whose report has errors.
var errNotCompliant = errors.New("network is not compliant")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		fmt.Fprint(stderr, usage)
		return 2
	}
	name := args[0]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "hredes: unknown command %q\n\n%s", name, usage)
		return 2
	}

	fs := config.Flags("hredes " + name)
	fs.SetOutput(stderr)
	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintf(stderr, "hredes: %v\n", err)
		return 2
	}

	zl, err := newLogger(cfg.Log, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "hredes: logger: %v\n", err)
		return 2
	}
	defer func() { _ = zl.Sync() }()
	log := zapr.NewLogger(zl).WithName("hredes")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logr.NewContext(ctx, log)

	a := &app{
		cfg:   cfg,
		flags: fs,
		log:   log,
		reg:   metrics.NewRegistry(),
	}
	if a.format, err = codec.ParseFormat(cfg.Format); err != nil {
		log.Error(err, "output format")
		return 2
	}

	code := 0
	if err := a.withOutput(stdout, func(w io.Writer) error { return cmd(ctx, a, w) }); err != nil {
		if !errors.Is(err, errNotCompliant) {
			log.Error(err, "command failed", "command", name)
		}
		code = 1
	}
	if cfg.MetricsOut != "" {
		if err := a.reg.WriteTextfile(cfg.MetricsOut); err != nil {
			log.Error(err, "writing metrics", "path", cfg.MetricsOut)
			code = 1
		}
	}
	return code
}

// newLogger builds the zap logger. Verbosity v maps to zap level -v so that
// logr V(1) and V(2) messages show up.
func newLogger(c config.LogConfig, w io.Writer) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	if c.Verbosity > 0 {
		level = zapcore.Level(-c.Verbosity)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	enc := zapcore.NewJSONEncoder(encCfg)
	if c.Development {
		encCfg = zap.NewDevelopmentEncoderConfig()
		enc = zapcore.NewConsoleEncoder(encCfg)
	}
	core := zapcore.NewCore(enc, zapcore.AddSync(w), zap.NewAtomicLevelAt(level))
	return zap.New(core), nil
}
