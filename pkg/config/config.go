package config

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lfsj/RealNerdStats/pkg/types"
)

const defaultIntervalSeconds = 1.0

var (
	ErrInvalidInterval = errors.New("interval must be a positive number of seconds")
	ErrInvalidTopN     = errors.New("number of processes must be positive")
)

// Config is the run configuration. Keys missing from a YAML file keep their defaults.
type Config struct {
	TopN          int     `yaml:"number"`
	Interval      float64 `yaml:"interval"` // seconds
	ExportPath    string  `yaml:"export"`
	NetworkDetail bool    `yaml:"net_detail"`
	Sensors       bool    `yaml:"sensors"`
	HideKernel    bool    `yaml:"hide_kernel"`
	TUI           bool    `yaml:"tui"`
	Count         uint64  `yaml:"count"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		TopN:     types.DefaultTopK,
		Interval: defaultIntervalSeconds,
	}
}

// Load reads path over the defaults. Unknown keys are rejected so typos surface.
func Load(path string) (Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("opening config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("decoding config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports configuration errors that must stop the run before sampling starts.
func (c Config) Validate() error {
	if c.Interval <= 0 || math.IsNaN(c.Interval) || math.IsInf(c.Interval, 0) || c.IntervalDuration() <= 0 {
		return fmt.Errorf("%w (got %v)", ErrInvalidInterval, c.Interval)
	}
	if c.TopN <= 0 {
		return fmt.Errorf("%w (got %d)", ErrInvalidTopN, c.TopN)
	}
	return nil
}

// IntervalDuration converts the interval to a time.Duration.
func (c Config) IntervalDuration() time.Duration {
	return time.Duration(c.Interval * float64(time.Second))
}
