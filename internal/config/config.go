// Package config loads llrt's YAML configuration file. Per the
// external-interfaces constraint (spec.md §6), configuration is
// file-driven only — no environment variables are read anywhere in
// this module.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete system configuration structure, loaded from
// a YAML file via Load.
type Config struct {
	Scheduler struct {
		WorkerCount           int           `yaml:"worker_count"`
		Deterministic         bool          `yaml:"deterministic"`
		SingleThreadThreshold time.Duration `yaml:"single_thread_threshold"`
	} `yaml:"scheduler"`

	Metrics struct {
		Enabled bool `yaml:"enabled"`
		Port    int  `yaml:"port"`
	} `yaml:"metrics"`

	Perf struct {
		Enabled   bool   `yaml:"enabled"`
		TraceFile string `yaml:"trace_file"`
	} `yaml:"perf"`
}

// Default returns the configuration llrt runs with if no config file
// is supplied.
func Default() *Config {
	var cfg Config
	cfg.Scheduler.WorkerCount = 4
	cfg.Scheduler.Deterministic = false
	cfg.Scheduler.SingleThreadThreshold = 30 * time.Microsecond
	cfg.Metrics.Enabled = false
	cfg.Metrics.Port = 9090
	cfg.Perf.Enabled = false
	cfg.Perf.TraceFile = "trace.json"
	return &cfg
}

// Load reads and parses the YAML config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	return cfg, nil
}
