package cmd

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/qkd-sim/qkd-sim/qkd"
)

// Scenario describes a preset run configuration in scenarios.yaml.
// Pointer fields distinguish "unset, keep the flag value" from an explicit
// zero.
type Scenario struct {
	Protocol             string   `yaml:"protocol"`
	Qubits               int      `yaml:"qubits"`
	Seed                 *int64   `yaml:"seed"`
	LossProbability      *float64 `yaml:"loss_probability"`
	NoiseProbability     *float64 `yaml:"noise_probability"`
	InterceptProbability *float64 `yaml:"intercept_probability"`
	ErrorThreshold       *float64 `yaml:"error_threshold"`
	SampleFraction       *float64 `yaml:"sample_fraction"`
	Trials               int      `yaml:"trials"`
}

// ScenarioConfig represents the full scenarios.yaml structure.
type ScenarioConfig struct {
	Scenarios map[string]Scenario `yaml:"scenarios"`
}

// GetScenario loads the named scenario preset from a YAML file. Parsing is
// strict: unknown fields (typos) cause errors rather than silent defaults.
func GetScenario(path, name string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenarios file: %w", err)
	}

	var cfg ScenarioConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing scenarios file: %w", err)
	}

	scenario, ok := cfg.Scenarios[name]
	if !ok {
		return nil, fmt.Errorf("scenario %q not found in %s", name, path)
	}
	return &scenario, nil
}

// Apply overlays the scenario's set fields onto a base run configuration.
func (s *Scenario) Apply(base qkd.RunConfig) qkd.RunConfig {
	if s.Protocol != "" {
		base.Protocol = qkd.Protocol(s.Protocol)
	}
	if s.Qubits > 0 {
		base.NumQubits = s.Qubits
	}
	if s.Seed != nil {
		base.Seed = *s.Seed
	}
	if s.LossProbability != nil {
		base.Channel.LossProbability = *s.LossProbability
	}
	if s.NoiseProbability != nil {
		base.Channel.NoiseProbability = *s.NoiseProbability
	}
	if s.InterceptProbability != nil {
		base.Channel.InterceptProbability = *s.InterceptProbability
	}
	if s.ErrorThreshold != nil {
		base.ErrorThreshold = *s.ErrorThreshold
	}
	if s.SampleFraction != nil {
		base.SampleFraction = *s.SampleFraction
	}
	return base
}
