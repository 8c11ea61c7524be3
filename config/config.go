// Package config loads the settings that govern one corevm run: how many
// threads it may spawn, how verbose its lifecycle logging is, and whether
// a fatal error's frame trace is printed to stderr.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// VMConfig controls a Scheduler's behavior (SPEC_FULL.md §2.3). The zero
// value is not Default(): it has TraceFatal false and no ShutdownGrace.
type VMConfig struct {
	// MaxThreads bounds how many Threads a Scheduler will allow to be
	// live at once via StartThread. Zero means unbounded.
	MaxThreads int `yaml:"max_threads"`

	// Verbose turns on per-thread lifecycle logging (spawned/finished).
	Verbose bool `yaml:"verbose"`

	// TraceFatal includes the full CallFrame chain in a fatal-error
	// report rather than only the innermost frame.
	TraceFatal bool `yaml:"trace_fatal"`

	// ShutdownGrace bounds how long ThreadList.StopAndWait waits for
	// running Threads to observe ShouldStop before the Scheduler gives up
	// on a clean join.
	ShutdownGrace time.Duration `yaml:"shutdown_grace"`
}

// Default returns the configuration a Scheduler uses when none is
// supplied explicitly.
func Default() VMConfig {
	return VMConfig{
		MaxThreads:    0,
		Verbose:       false,
		TraceFatal:    true,
		ShutdownGrace: 5 * time.Second,
	}
}

// Load reads a VMConfig from a YAML file at path, starting from Default()
// so a partial file only overrides the fields it names.
func Load(path string) (VMConfig, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings the Scheduler cannot act on.
func (c VMConfig) Validate() error {
	if c.MaxThreads < 0 {
		return fmt.Errorf("max_threads must be >= 0, got %d", c.MaxThreads)
	}
	if c.ShutdownGrace < 0 {
		return fmt.Errorf("shutdown_grace must be >= 0, got %s", c.ShutdownGrace)
	}
	return nil
}
