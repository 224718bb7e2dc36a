// Package config loads the planner's runtime configuration.
//
// Configuration comes from built-in defaults, optionally overlaid by a YAML
// file. Command-line flags are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Config contains all runtime settings.
type Config struct {
	// Capacities bounds every arena. Exceeding one aborts the process.
	Capacities CapacityConfig `yaml:"capacities"`

	// Log configures the stderr logger.
	Log LogConfig `yaml:"log"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`

	// Output configures protocol output buffering.
	Output OutputConfig `yaml:"output"`

	// Verify runs a full structural check after every mutating command.
	Verify bool `yaml:"verify"`
}

// CapacityConfig holds the arena sizes.
type CapacityConfig struct {
	Stations  int `yaml:"stations"`
	Cars      int `yaml:"cars"`
	CarParks  int `yaml:"car_parks"`
	PathNodes int `yaml:"path_nodes"`
}

// LogConfig selects the log level and handler format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig holds the listen address for /metrics. Empty disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// OutputConfig controls flushing of protocol responses.
type OutputConfig struct {
	Unbuffered bool `yaml:"unbuffered"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Capacities: CapacityConfig{
			Stations:  300000,
			Cars:      300000,
			CarParks:  200000,
			PathNodes: 1000,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path. An empty
// path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	caps := map[string]int{
		"stations":   c.Capacities.Stations,
		"cars":       c.Capacities.Cars,
		"car_parks":  c.Capacities.CarParks,
		"path_nodes": c.Capacities.PathNodes,
	}
	for _, name := range []string{"stations", "cars", "car_parks", "path_nodes"} {
		if caps[name] <= 0 {
			return fmt.Errorf("%w: capacities.%s must be positive, got %d", ErrInvalid, name, caps[name])
		}
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log.level %q", ErrInvalid, c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log.format %q", ErrInvalid, c.Log.Format)
	}
	return nil
}
