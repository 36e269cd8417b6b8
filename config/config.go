package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/katalvlaran/hredes/compliance"
	"github.com/katalvlaran/hredes/hydraulic"
	"github.com/katalvlaran/hredes/iterlog"
	"github.com/katalvlaran/hredes/optimize"
)

// EnvPrefix prefixes every environment variable, e.g. HREDES_SOLVER_TOLERANCE.
const EnvPrefix = "HREDES"

// ErrInvalidConfig is wrapped by every validation failure of Load.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config is the complete command-line configuration.
type Config struct {
	Input      string         `mapstructure:"input"`
	Output     string         `mapstructure:"output"`
	Format     string         `mapstructure:"format" validate:"oneof=json yaml yml"`
	Scope      string         `mapstructure:"scope" validate:"oneof=urban rural"`
	Hours      int            `mapstructure:"hours" validate:"gte=0,lte=8760"`
	MetricsOut string         `mapstructure:"metrics_out"`
	Solver     SolverConfig   `mapstructure:"solver"`
	Optimize   OptimizeConfig `mapstructure:"optimize"`
	Replay     ReplayConfig   `mapstructure:"replay"`
	Log        LogConfig      `mapstructure:"log"`
}

// SolverConfig maps onto hydraulic.Options.
type SolverConfig struct {
	Tolerance        float64 `mapstructure:"tolerance" validate:"gt=0,lt=1"`
	MaxIterations    int     `mapstructure:"max_iterations" validate:"gte=1"`
	MaxRelaxations   int     `mapstructure:"max_relaxations" validate:"gte=0"`
	RelaxationFactor float64 `mapstructure:"relaxation_factor" validate:"gt=0,lt=1"`
	AcceptPartial    bool    `mapstructure:"accept_partial"`
}

// OptimizeConfig maps onto optimize.Options. Non-zero bounds override the
// project and scope constraints.
type OptimizeConfig struct {
	Strategy    string  `mapstructure:"strategy" validate:"oneof=auto greedy exact"`
	Rounds      int     `mapstructure:"rounds" validate:"gte=1"`
	ExactLimit  int     `mapstructure:"exact_limit" validate:"gte=1"`
	MinPressure float64 `mapstructure:"min_pressure" validate:"gte=0"`
	MaxPressure float64 `mapstructure:"max_pressure" validate:"gte=0"`
	MinVelocity float64 `mapstructure:"min_velocity" validate:"gte=0"`
	MaxVelocity float64 `mapstructure:"max_velocity" validate:"gte=0"`
}

// ReplayConfig drives log playback.
type ReplayConfig struct {
	Speed time.Duration `mapstructure:"speed" validate:"gt=0"`
}

// LogConfig selects the zap logger.
type LogConfig struct {
	Level       string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Verbosity   int    `mapstructure:"verbosity" validate:"gte=0,lte=2"`
	Development bool   `mapstructure:"development"`
}

// flagKeys binds each flag to its configuration key.
var flagKeys = map[string]string{
	"file":              "input",
	"output":            "output",
	"format":            "format",
	"scope":             "scope",
	"hours":             "hours",
	"metrics-out":       "metrics_out",
	"tolerance":         "solver.tolerance",
	"max-iterations":    "solver.max_iterations",
	"max-relaxations":   "solver.max_relaxations",
	"relaxation-factor": "solver.relaxation_factor",
	"accept-partial":    "solver.accept_partial",
	"strategy":          "optimize.strategy",
	"rounds":            "optimize.rounds",
	"exact-limit":       "optimize.exact_limit",
	"min-pressure":      "optimize.min_pressure",
	"max-pressure":      "optimize.max_pressure",
	"min-velocity":      "optimize.min_velocity",
	"max-velocity":      "optimize.max_velocity",
	"speed":             "replay.speed",
	"log-level":         "log.level",
	"verbosity":         "log.verbosity",
	"log-development":   "log.development",
}

func setDefaults(v *viper.Viper) {
	solver := hydraulic.DefaultOptions()
	opt := optimize.DefaultOptions()

	v.SetDefault("output", "-")
	v.SetDefault("format", "json")
	v.SetDefault("scope", string(compliance.Urban))
	v.SetDefault("hours", 0)
	v.SetDefault("metrics_out", "")
	v.SetDefault("solver.tolerance", solver.Tolerance)
	v.SetDefault("solver.max_iterations", solver.MaxIterations)
	v.SetDefault("solver.max_relaxations", solver.MaxRelaxations)
	v.SetDefault("solver.relaxation_factor", solver.RelaxationFactor)
	v.SetDefault("solver.accept_partial", false)
	v.SetDefault("optimize.strategy", string(opt.Strategy))
	v.SetDefault("optimize.rounds", opt.MaxIterations)
	v.SetDefault("optimize.exact_limit", opt.ExactLimit)
	v.SetDefault("optimize.min_pressure", 0.0)
	v.SetDefault("optimize.max_pressure", 0.0)
	v.SetDefault("optimize.min_velocity", 0.0)
	v.SetDefault("optimize.max_velocity", 0.0)
	v.SetDefault("replay.speed", iterlog.DefaultSpeed)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.verbosity", 0)
	v.SetDefault("log.development", false)
}

// Flags returns a flag set declaring every configuration flag with its
// default.
func Flags(name string) *pflag.FlagSet {
	solver := hydraulic.DefaultOptions()
	opt := optimize.DefaultOptions()

	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("config", "", "configuration file (default ./hredes.yaml when present)")
	fs.StringP("file", "f", "", "project file (.yaml, .yml or .json)")
	fs.StringP("output", "o", "-", "output file, - for stdout")
	fs.String("format", "json", "output format: json or yaml")
	fs.String("scope", string(compliance.Urban), "design code scope: urban or rural")
	fs.Int("hours", 0, "extended-period hours to solve (0 for a single steady state)")
	fs.String("metrics-out", "", "write prometheus metrics to this file")

	fs.Float64("tolerance", solver.Tolerance, "convergence tolerance on the relative flow correction")
	fs.Int("max-iterations", solver.MaxIterations, "solver iteration budget")
	fs.Int("max-relaxations", solver.MaxRelaxations, "damping retries per iteration")
	fs.Float64("relaxation-factor", solver.RelaxationFactor, "flow step multiplier per damping retry")
	fs.Bool("accept-partial", false, "report non-converged results without failing")

	fs.String("strategy", string(opt.Strategy), "optimizer strategy: auto, greedy or exact")
	fs.Int("rounds", opt.MaxIterations, "greedy upsizing round budget")
	fs.Int("exact-limit", opt.ExactLimit, "largest search space for exact enumeration")
	fs.Float64("min-pressure", 0, "minimum pressure in m (overrides project and scope)")
	fs.Float64("max-pressure", 0, "maximum pressure in m (overrides project and scope)")
	fs.Float64("min-velocity", 0, "minimum velocity in m/s (overrides project and scope)")
	fs.Float64("max-velocity", 0, "maximum velocity in m/s (overrides project and scope)")

	fs.Duration("speed", iterlog.DefaultSpeed, "replay interval between steps")
	fs.String("log-level", "info", "log level: debug, info, warn or error")
	fs.Int("verbosity", 0, "library log verbosity (0-2)")
	fs.Bool("log-development", false, "human-readable development logging")
	return fs
}

// Load resolves the configuration for an already parsed flag set. Flags
// missing from fs are ignored.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for flag, key := range flagKeys {
			if f := fs.Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("config: bind %s: %w", flag, err)
				}
			}
		}
	}

	if err := readFile(v, fs); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// readFile reads the --config file, or ./hredes.yaml when it exists.
func readFile(v *viper.Viper, fs *pflag.FlagSet) error {
	path := ""
	if fs != nil {
		if f := fs.Lookup("config"); f != nil {
			path = f.Value.String()
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("config: read %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName("hredes")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("config: read hredes.yaml: %w", err)
	}
	return nil
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	validateOnce.Do(func() { validate = validator.New(validator.WithRequiredStructEnabled()) })

	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s: %s=%s (got %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(parts, "; "))
}
