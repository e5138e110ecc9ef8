package storage

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/phystrace/internal/acceptance"
	"github.com/san-kum/phystrace/internal/config"
	"github.com/san-kum/phystrace/internal/contract"
	"github.com/san-kum/phystrace/internal/sim"
	"github.com/san-kum/phystrace/internal/trace"
	"github.com/san-kum/phystrace/internal/validate"
)

func sampleRun() (*contract.Contract, *trace.Trace, *acceptance.Report) {
	c := &contract.Contract{
		Name:       "drop",
		Units:      contract.SI,
		World:      contract.World{Gravity: contract.Vec2{0, -9.8}},
		Simulation: contract.Simulation{TEnd: 1, Integrator: contract.IntegratorRK45},
		Bodies: []contract.Body{{
			ID: "ball", Mass: 1,
			Shape: contract.Shape{Kind: contract.ShapeCircle, Radius: 0.1},
		}},
	}
	tr := &trace.Trace{
		Name:    "drop",
		BodyIDs: []string{"ball"},
		Status:  trace.StatusOK,
		Frames: []trace.Frame{
			{Time: 0, Q: []float64{0, 1, 0}, V: []float64{0, 0, 0}, Phase: "fall", Energy: 9.8},
			{Time: 0.1, Q: []float64{0, 0.951, 0}, V: []float64{0, -0.98, 0}, Phase: "fall", Energy: 9.8},
		},
		Events:  []trace.Event{{Seq: 0, Time: 0.1, Kind: trace.EventGuard, Participants: []string{"ball"}, Pair: -1, Decl: 0}},
		Metrics: map[string]float64{"energy_drift": 0},
	}
	rep := &acceptance.Report{OK: true, Score: acceptance.Score{Validity: 1, Consistency: 0.9, Stability: 1, Overall: 0.975}, Details: acceptance.NewDetails()}
	rep.Details.Set("stability.trend", "stable")
	return c, tr, rep
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	c, tr, rep := sampleRun()
	runID, err := st.Save(c, tr, rep)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Fatal("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Contract != "drop" || meta.Frames != 2 || meta.Events != 1 {
		t.Errorf("unexpected metadata: %+v", meta)
	}
	if !meta.OK || meta.Score.Overall != 0.975 {
		t.Errorf("report summary lost: %+v", meta)
	}

	back, err := st.LoadTrace(runID)
	if err != nil {
		t.Fatalf("load trace failed: %v", err)
	}
	if back.Fingerprint() != tr.Fingerprint() {
		t.Error("trace changed on the round trip")
	}

	r, err := st.LoadReport(runID)
	if err != nil {
		t.Fatalf("load report failed: %v", err)
	}
	if v, ok := r.Details.Get("stability.trend"); !ok || v != "stable" {
		t.Errorf("details lost: %v", v)
	}

	cc, err := st.LoadContract(runID)
	if err != nil {
		t.Fatalf("load contract failed: %v", err)
	}
	if cc.Bodies[0].Shape.Radius != 0.1 {
		t.Errorf("contract changed: %+v", cc.Bodies[0])
	}
}

func TestLoadFrames(t *testing.T) {
	st := New(t.TempDir())
	c, tr, _ := sampleRun()
	runID, err := st.Save(c, tr, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(st.baseDir, runID, reportFile)); !os.IsNotExist(err) {
		t.Error("no report should be written for an unevaluated run")
	}

	header, rows, phases, err := st.LoadFrames(runID)
	if err != nil {
		t.Fatal(err)
	}
	if len(header) != 1+6+3 {
		t.Errorf("unexpected header %v", header)
	}
	if header[2] != "ball.y" {
		t.Errorf("expected ball.y, got %s", header[2])
	}
	if len(rows) != 2 || rows[1][2] != 0.951 {
		t.Errorf("unexpected rows %v", rows)
	}
	if phases[0] != "fall" {
		t.Errorf("unexpected phases %v", phases)
	}
}

func TestListEmpty(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "missing"))
	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestListNewestFirst(t *testing.T) {
	st := New(t.TempDir())
	c, tr, rep := sampleRun()
	first, err := st.Save(c, tr, rep)
	if err != nil {
		t.Fatal(err)
	}
	second, err := st.Save(c, tr, rep)
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Fatal("run ids collide")
	}

	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Timestamp.Before(runs[1].Timestamp) {
		t.Error("runs not sorted newest first")
	}
}

func TestSaveFailedReport(t *testing.T) {
	c := config.GetPreset("bouncing_ball")
	c.Simulation.TEnd = 0.5
	res := validate.Validate(c)
	if !res.OK {
		t.Fatalf("validate: %v", res.Err())
	}
	tr, err := sim.New().Run(t.Context(), res.Normalized)
	if err != nil {
		t.Fatal(err)
	}
	rep := acceptance.Evaluate(res.Normalized, tr)
	if rep.OK {
		t.Fatal("first_bounce cannot happen before t=0.5")
	}
	bounce, ok := rep.Result("bounce_time")
	if !ok || !math.IsNaN(bounce.Value) {
		t.Fatalf("bounce_time = %+v, want NaN value", bounce)
	}

	st := New(t.TempDir())
	runID, err := st.Save(res.Normalized, tr, rep)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := st.LoadReport(runID)
	if err != nil {
		t.Fatalf("load report failed: %v", err)
	}
	if loaded.OK {
		t.Error("stored report should stay rejected")
	}
	got, ok := loaded.Result("bounce_time")
	if !ok || got.Passed || !math.IsNaN(got.Value) {
		t.Errorf("stored bounce_time = %+v", got)
	}
	if len(loaded.Errors) != len(rep.Errors) {
		t.Errorf("stored %d failures, want %d", len(loaded.Errors), len(rep.Errors))
	}
}

func TestSaveRemovesPartialRun(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)
	c, tr, rep := sampleRun()
	tr.Frames[1].Energy = math.Inf(1)

	if _, err := st.Save(c, tr, rep); err == nil {
		t.Fatal("expected an error for a non-finite frame")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("left %d entries behind", len(entries))
	}
}
