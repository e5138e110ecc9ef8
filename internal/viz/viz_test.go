package viz

import (
	"strings"
	"testing"

	"github.com/san-kum/phystrace/internal/acceptance"
	"github.com/san-kum/phystrace/internal/config"
	"github.com/san-kum/phystrace/internal/sim"
	"github.com/san-kum/phystrace/internal/validate"
)

func TestCanvasSet(t *testing.T) {
	c := NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	c.Set(-1, 0)
	c.Set(4, 0)
	if got := c.Grid[0][0]; got != blank|0x1 {
		t.Errorf("cell 0 = %U", got)
	}
	if got := c.Grid[0][1]; got != blank|0x80 {
		t.Errorf("cell 1 = %U", got)
	}
}

func TestViewportKeepsAspect(t *testing.T) {
	v := Fit([2]float64{0, 0}, [2]float64{1, 4}, 40, 10)
	x0, y0 := v.Dot([2]float64{0, 0})
	x1, y1 := v.Dot([2]float64{1, 1})
	if dx, dy := x1-x0, y0-y1; absInt(dx-dy) > 1 {
		t.Errorf("unit square maps to %dx%d dots", dx, dy)
	}
}

func TestSceneDrawsEveryPreset(t *testing.T) {
	for _, name := range config.ListPresets() {
		res := validate.Validate(config.GetPreset(name))
		if !res.OK {
			t.Fatalf("%s: %v", name, res.Err())
		}
		tr, err := sim.New().Run(t.Context(), res.Normalized)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		sc := NewScene(res.Normalized, tr, 30, 10)
		c := NewCanvas(30, 10)
		sc.Draw(c, &tr.Frames[0])
		if strings.Trim(c.String(), string(rune(blank))+"\n") == "" {
			t.Errorf("%s: empty drawing", name)
		}
	}
}

func TestReplayStepsAndStops(t *testing.T) {
	res := validate.Validate(config.GetPreset("bouncing_ball"))
	tr, err := sim.New().Run(t.Context(), res.Normalized)
	if err != nil {
		t.Fatal(err)
	}
	m := NewReplay(res.Normalized, tr, GetTheme("dark"), 20, 8)
	m.seekFrame(3)
	if m.frame != 3 || m.clock != tr.Frames[3].Time {
		t.Errorf("seek: frame %d clock %g", m.frame, m.clock)
	}
	m.advance(tr.Duration() + 1)
	if m.frame != len(tr.Frames)-1 || !m.paused {
		t.Errorf("advance past end: frame %d paused %v", m.frame, m.paused)
	}
	if !strings.Contains(m.View(), "bouncing_ball") {
		t.Error("view lacks contract name")
	}
}

func TestSparkline(t *testing.T) {
	got := Sparkline([]float64{0, 7, 0, 7}, 4)
	if got != "▁█▁█" {
		t.Errorf("Sparkline = %q", got)
	}
	if got := Sparkline(nil, 3); got != "───" {
		t.Errorf("empty Sparkline = %q", got)
	}
}

func TestGetThemeFallsBack(t *testing.T) {
	if GetTheme("nope").Name != "dark" {
		t.Error("unknown theme should fall back to dark")
	}
}

func TestRenderReport(t *testing.T) {
	res := validate.Validate(config.GetPreset("bouncing_ball"))
	tr, err := sim.New().Run(t.Context(), res.Normalized)
	if err != nil {
		t.Fatal(err)
	}
	out := NewStyles(GetTheme("minimal")).RenderReport("bouncing_ball", acceptance.Evaluate(res.Normalized, tr))
	for _, want := range []string{"bouncing_ball", "◆", "bounce_time", "restitution"} {
		if !strings.Contains(out, want) {
			t.Errorf("report lacks %q", want)
		}
	}
}

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	if len(names) != len(Themes) || names[0] != "dark" {
		t.Errorf("ThemeNames = %v", names)
	}
	for _, n := range names {
		if GetTheme(n).Name != n {
			t.Errorf("theme %s does not resolve", n)
		}
	}
}
