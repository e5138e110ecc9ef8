package config

import (
	"math"
	"path/filepath"
	"sort"
	"testing"

	"github.com/san-kum/phystrace/internal/contract"
	"github.com/san-kum/phystrace/internal/validate"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.DataDir != DefaultDataDir {
		t.Errorf("expected data dir %s, got %s", DefaultDataDir, cfg.DataDir)
	}
	if cfg.Integrator != "" {
		t.Errorf("default config should not override the integrator, got %s", cfg.Integrator)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phystrace.yaml")
	cfg := DefaultConfig()
	cfg.Integrator = contract.IntegratorRK4
	cfg.MaxSteps = 1000
	cfg.Bisection = 40
	cfg.Tolerances = &contract.Tolerances{Slop: 1e-4}

	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Integrator != cfg.Integrator || got.MaxSteps != cfg.MaxSteps || got.Bisection != 40 {
		t.Errorf("round trip lost fields: %+v", got)
	}
	if got.Tolerances == nil || got.Tolerances.Slop != 1e-4 {
		t.Errorf("tolerance overrides lost: %+v", got.Tolerances)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestApply(t *testing.T) {
	c := GetPreset("bouncing_ball")
	c.Tolerances.EventTime = 5e-3

	cfg := &Config{Integrator: contract.IntegratorRK4, MaxSteps: 10, Tolerances: &contract.Tolerances{Slop: 1e-4}}
	cfg.Apply(c)

	if c.Simulation.Integrator != contract.IntegratorRK4 {
		t.Errorf("integrator not applied: %s", c.Simulation.Integrator)
	}
	if c.Simulation.MaxSteps != 10 {
		t.Errorf("max steps not applied: %d", c.Simulation.MaxSteps)
	}
	if c.Tolerances.Slop != 1e-4 {
		t.Errorf("slop not applied: %g", c.Tolerances.Slop)
	}
	if c.Tolerances.EventTime != 5e-3 {
		t.Errorf("unset override changed event_time to %g", c.Tolerances.EventTime)
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if c := GetPreset("nonexistent"); c != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestGetPresetReturnsFreshCopy(t *testing.T) {
	a := GetPreset("bouncing_ball")
	a.Bodies[0].Mass = 42
	b := GetPreset("bouncing_ball")
	if b.Bodies[0].Mass != 1 {
		t.Errorf("presets share state: mass %g", b.Bodies[0].Mass)
	}
}

func TestListPresets(t *testing.T) {
	names := ListPresets()
	if len(names) != 6 {
		t.Fatalf("expected 6 presets, got %d", len(names))
	}
	if !sort.StringsAreSorted(names) {
		t.Errorf("presets not sorted: %v", names)
	}
}

func TestPresetsValidate(t *testing.T) {
	for _, name := range ListPresets() {
		t.Run(name, func(t *testing.T) {
			r := validate.Validate(GetPreset(name))
			if !r.OK {
				t.Fatalf("preset rejected: %v", r.Errors)
			}
			if r.Normalized.Name != name {
				t.Errorf("expected name %s, got %s", name, r.Normalized.Name)
			}
		})
	}
}

func TestInclineNormalized(t *testing.T) {
	r := validate.Validate(GetPreset("incline_static"))
	if !r.OK {
		t.Fatal(r.Errors)
	}
	n := r.Normalized.Surfaces[0].Normal
	want := 20 * 3.141592653589793 / 180
	if got := r.Normalized.Bodies[0].Initial.Angle; got < want-1e-12 || got > want+1e-12 {
		t.Errorf("body angle %g, want %g", got, want)
	}
	if n[1] <= 0 || n[0] >= 0 {
		t.Errorf("ramp normal should point up and back, got %v", n)
	}
}

func TestInclineSlidingRunsTwoSeconds(t *testing.T) {
	c := GetPreset("incline_sliding")
	if c.Simulation.TEnd != 2 {
		t.Errorf("t_end %g, want 2", c.Simulation.TEnd)
	}
	for _, at := range c.AcceptanceTests {
		if at.ID != "acceleration" {
			continue
		}
		if at.Expression != "v_end / 2" {
			t.Errorf("expression %q, want v_end / 2", at.Expression)
		}
		th := inclineDeg * math.Pi / 180
		if a := 9.8 * (math.Sin(th) - 0.15*math.Cos(th)); math.Abs(at.Expected-a) > 1e-4 {
			t.Errorf("expected %g, want %g", at.Expected, a)
		}
		return
	}
	t.Fatal("acceleration test missing")
}
