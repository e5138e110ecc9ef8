// Package config holds CLI-level run defaults and the built-in scenario
// presets.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/phystrace/internal/contract"
)

const (
	DefaultDataDir  = ".phystrace"
	DefaultLogLevel = "info"
	DefaultTheme    = "dark"
)

type Config struct {
	Integrator string               `yaml:"integrator"`
	MaxSteps   int                  `yaml:"max_steps"`
	Workers    int                  `yaml:"workers"`
	Bisection  int                  `yaml:"bisection"`
	DataDir    string               `yaml:"data_dir"`
	LogLevel   string               `yaml:"log_level"`
	Theme      string               `yaml:"theme"`
	Tolerances *contract.Tolerances `yaml:"tolerances,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		DataDir:  DefaultDataDir,
		LogLevel: DefaultLogLevel,
		Theme:    DefaultTheme,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Apply writes the configured overrides into a raw contract before it is
// validated. Zero-valued settings leave the contract alone.
func (c *Config) Apply(ct *contract.Contract) {
	if c.Integrator != "" {
		ct.Simulation.Integrator = c.Integrator
	}
	if c.MaxSteps > 0 {
		ct.Simulation.MaxSteps = c.MaxSteps
	}
	if t := c.Tolerances; t != nil {
		dst := &ct.Tolerances
		for _, o := range []struct {
			dst *float64
			v   float64
		}{
			{&dst.EventTime, t.EventTime}, {&dst.EnergyDriftRel, t.EnergyDriftRel},
			{&dst.MomentumDriftRel, t.MomentumDriftRel}, {&dst.Slop, t.Slop},
			{&dst.VelocityEpsilon, t.VelocityEpsilon}, {&dst.RestingVelocity, t.RestingVelocity},
			{&dst.IntegratorTol, t.IntegratorTol}, {&dst.RootTimeTol, t.RootTimeTol},
			{&dst.R2Min, t.R2Min}, {&dst.RatioRel, t.RatioRel},
		} {
			if o.v > 0 {
				*o.dst = o.v
			}
		}
	}
}
