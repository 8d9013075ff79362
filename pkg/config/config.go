// Package config assembles the run configuration from built-in defaults, an
// optional YAML file and ALBUMRANK_* environment variables. Command-line
// flags are applied last by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"albumrank/pkg/data"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. ALBUMRANK_IMPUTER_SEED.
const EnvPrefix = "ALBUMRANK"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid configuration")

// Config is the complete run configuration.
type Config struct {
	Source       string        `yaml:"source" envconfig:"SOURCE"`
	FetchTimeout time.Duration `yaml:"fetch_timeout" envconfig:"FETCH_TIMEOUT"`
	OutputDir    string        `yaml:"output_dir" envconfig:"OUTPUT_DIR"`
	Plots        bool          `yaml:"plots" envconfig:"PLOTS"`

	Imputer    ImputerConfig    `yaml:"imputer" envconfig:"IMPUTER"`
	Evaluation EvaluationConfig `yaml:"evaluation" envconfig:"EVALUATION"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
}

// ImputerConfig tunes the random-forest imputer.
type ImputerConfig struct {
	Trees         int   `yaml:"trees" envconfig:"TREES"`
	MaxIterations int   `yaml:"max_iterations" envconfig:"MAX_ITERATIONS"`
	MinLeaf       int   `yaml:"min_leaf" envconfig:"MIN_LEAF"`
	MaxDepth      int   `yaml:"max_depth" envconfig:"MAX_DEPTH"` // 0 grows trees fully
	Mtry          int   `yaml:"mtry" envconfig:"MTRY"`           // 0 uses max(1, p/3)
	Workers       int   `yaml:"workers" envconfig:"WORKERS"`     // 0 uses GOMAXPROCS
	Seed          int64 `yaml:"seed" envconfig:"SEED"`           // 0 seeds from the clock
}

// EvaluationConfig holds the diagnostic thresholds.
type EvaluationConfig struct {
	CookThreshold float64 `yaml:"cook_threshold" envconfig:"COOK_THRESHOLD"`
	VIFModerate   float64 `yaml:"vif_moderate" envconfig:"VIF_MODERATE"`
	VIFHigh       float64 `yaml:"vif_high" envconfig:"VIF_HIGH"`
	Alpha         float64 `yaml:"alpha" envconfig:"ALPHA"`
}

// LoggingConfig selects the log level and handler.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL"`
	Format string `yaml:"format" envconfig:"FORMAT"` // json or text
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Source:       data.DefaultSource,
		FetchTimeout: 30 * time.Second,
		OutputDir:    "report",
		Plots:        true,
		Imputer: ImputerConfig{
			Trees:         100,
			MaxIterations: 10,
			MinLeaf:       5,
		},
		Evaluation: EvaluationConfig{
			CookThreshold: 1.0,
			VIFModerate:   5,
			VIFHigh:       10,
			Alpha:         0.05,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load layers path (skipped when empty) and the environment over Default.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	// Fields without a variable keep their current value.
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	var problems []string
	if c.Source == "" {
		problems = append(problems, "source is empty")
	}
	if c.FetchTimeout <= 0 {
		problems = append(problems, "fetch_timeout must be positive")
	}
	if c.Imputer.Trees <= 0 {
		problems = append(problems, "imputer.trees must be positive")
	}
	if c.Imputer.MaxIterations <= 0 {
		problems = append(problems, "imputer.max_iterations must be positive")
	}
	if c.Imputer.MinLeaf <= 0 {
		problems = append(problems, "imputer.min_leaf must be positive")
	}
	if c.Imputer.MaxDepth < 0 || c.Imputer.Mtry < 0 || c.Imputer.Workers < 0 {
		problems = append(problems, "imputer.max_depth, mtry and workers must not be negative")
	}
	if c.Evaluation.CookThreshold <= 0 {
		problems = append(problems, "evaluation.cook_threshold must be positive")
	}
	if c.Evaluation.VIFModerate <= 0 || c.Evaluation.VIFHigh < c.Evaluation.VIFModerate {
		problems = append(problems, "evaluation.vif_moderate must be positive and not above vif_high")
	}
	if c.Evaluation.Alpha <= 0 || c.Evaluation.Alpha >= 1 {
		problems = append(problems, "evaluation.alpha must be in (0, 1)")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not json or text", c.Logging.Format))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}
