// Package config provides run configuration loading for neurobench.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	neuroruntime "github.com/neurobench/neuro-runtime"
	"github.com/neurobench/neuro-runtime/lems"
	"github.com/neurobench/neuro-runtime/quantity"
)

// RunConfig describes one simulation run: the model, the backend variant,
// its parameters, and the stimulus protocol.
type RunConfig struct {
	// Model is the path to the declarative model description.
	Model string `yaml:"model"`

	// Backend selects the backend variant: "jNeuroML", "NEURON", or
	// "embedded".
	Backend string `yaml:"backend"`

	// Executable overrides the model compiler command name.
	Executable string `yaml:"executable,omitempty"`

	// StrictComponents rejects model descriptions where more than one
	// component matches the stimulus or cell role, instead of keeping the
	// last match.
	StrictComponents bool `yaml:"strict_components,omitempty"`

	// Attrs are model attributes pushed into the backend before the run.
	Attrs map[string]float64 `yaml:"attrs,omitempty"`

	// Run holds run parameters: t_stop, dt, atol, integration, plus any
	// engine-specific keys.
	Run map[string]any `yaml:"run,omitempty"`

	// Stimulus is the square current injection protocol.
	Stimulus StimulusConfig `yaml:"stimulus"`

	// Archive is the path of the run-history database. Empty disables
	// archiving.
	Archive string `yaml:"archive,omitempty"`
}

// StimulusConfig holds the stimulus protocol as unit-tagged strings, e.g.
// amplitude "-10.0 pA", delay "100.0 ms".
type StimulusConfig struct {
	Amplitude string `yaml:"amplitude"`
	Delay     string `yaml:"delay"`
	Duration  string `yaml:"duration"`
}

// Default returns a RunConfig with the default protocol timing.
func Default() *RunConfig {
	return &RunConfig{
		Backend: "jNeuroML",
		Stimulus: StimulusConfig{
			Delay:    "100.0 ms",
			Duration: "300.0 ms",
		},
	}
}

// LoadFromFile loads a run configuration from a YAML file, applying
// defaults for unset fields and environment overrides on top.
func LoadFromFile(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// Validate checks that the configuration is complete enough to run.
func (c *RunConfig) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model path is required")
	}
	if c.Backend == "" {
		return fmt.Errorf("backend is required")
	}
	if c.Stimulus.Amplitude == "" {
		return fmt.Errorf("stimulus amplitude is required")
	}
	if _, err := c.SquareCurrent(); err != nil {
		return fmt.Errorf("stimulus: %w", err)
	}
	return nil
}

// SquareCurrent parses the configured stimulus protocol.
func (c *RunConfig) SquareCurrent() (quantity.SquareCurrent, error) {
	var s quantity.SquareCurrent
	var err error
	if s.Amplitude, err = quantity.Parse(c.Stimulus.Amplitude); err != nil {
		return quantity.SquareCurrent{}, err
	}
	if s.Delay, err = quantity.Parse(c.Stimulus.Delay); err != nil {
		return quantity.SquareCurrent{}, err
	}
	if s.Duration, err = quantity.Parse(c.Stimulus.Duration); err != nil {
		return quantity.SquareCurrent{}, err
	}
	return s, nil
}

// Policy returns the component classification policy the config selects.
func (c *RunConfig) Policy() lems.Policy {
	if c.StrictComponents {
		return lems.PolicyFail
	}
	return lems.PolicyLastMatch
}

// RunParams returns the configured run parameters as a backend mapping.
func (c *RunConfig) RunParams() neuroruntime.RunParams {
	params := make(neuroruntime.RunParams, len(c.Run))
	for k, v := range c.Run {
		params[k] = v
	}
	return params
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *RunConfig) {
	if v := os.Getenv("NEUROBENCH_BACKEND"); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv("NEUROBENCH_JNML"); v != "" {
		cfg.Executable = v
	}
	if v := os.Getenv("NEUROBENCH_ARCHIVE"); v != "" {
		cfg.Archive = v
	}
}
