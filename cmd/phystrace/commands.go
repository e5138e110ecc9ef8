package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/phystrace/internal/acceptance"
	"github.com/san-kum/phystrace/internal/config"
	"github.com/san-kum/phystrace/internal/contract"
	"github.com/san-kum/phystrace/internal/export"
	"github.com/san-kum/phystrace/internal/sim"
	"github.com/san-kum/phystrace/internal/storage"
	"github.com/san-kum/phystrace/internal/trace"
	"github.com/san-kum/phystrace/internal/validate"
	"github.com/san-kum/phystrace/internal/viz"
)

var errRejected = errors.New("rejected")

// loadContract reads a contract file, falling back to a preset name.
func loadContract(arg string) (*contract.Contract, error) {
	if _, err := os.Stat(arg); err == nil {
		return contract.Load(arg)
	}
	if c := config.GetPreset(arg); c != nil {
		return c, nil
	}
	return nil, fmt.Errorf("%s: no such file or preset", arg)
}

func validateContract(cmd *cobra.Command, args []string) error {
	c, err := loadContract(args[0])
	if err != nil {
		return err
	}
	cfg.Apply(c)
	res := validate.Validate(c)
	fmt.Print(styles.RenderIssues(res))
	if !res.OK {
		return fmt.Errorf("%s: %w", args[0], errRejected)
	}
	return nil
}

func runContracts(cmd *cobra.Command, args []string) error {
	if integrator != "" {
		cfg.Integrator = integrator
	}
	if maxSteps > 0 {
		cfg.MaxSteps = maxSteps
	}
	if workers > 0 {
		cfg.Workers = workers
	}

	var normalized []*contract.Contract
	for _, arg := range args {
		c, err := loadContract(arg)
		if err != nil {
			return err
		}
		cfg.Apply(c)
		res := validate.Validate(c)
		for _, w := range res.Warnings {
			logger.Warn("contract warning", zap.String("contract", c.Name), zap.String("code", w.Code), zap.String("path", w.Path))
		}
		if !res.OK {
			fmt.Print(styles.RenderIssues(res))
			return fmt.Errorf("%s: %w", arg, errRejected)
		}
		normalized = append(normalized, res.Normalized)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	engine := sim.New(sim.WithLogger(logger), sim.WithBisection(cfg.Bisection))
	start := time.Now()
	traces, err := engine.Batch(ctx, normalized, cfg.Workers)
	if err != nil {
		return err
	}
	logger.Debug("batch finished", zap.Int("contracts", len(traces)), zap.Duration("elapsed", time.Since(start)))

	st := storage.New(dataDir)
	failed := 0
	for i, tr := range traces {
		c := normalized[i]
		rep := acceptance.Evaluate(c, tr)
		if !rep.OK {
			failed++
		}
		fmt.Print(styles.RenderReport(c.Name, rep))
		fmt.Printf("%s %s  %s %d  %s %d  %s %016x\n",
			styles.Label.Render("status"), tr.Status,
			styles.Label.Render("frames"), len(tr.Frames),
			styles.Label.Render("events"), len(tr.Events),
			styles.Label.Render("fingerprint"), tr.Fingerprint())
		if noSave {
			fmt.Println()
			continue
		}
		id, err := st.Save(c, tr, rep)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s\n\n", styles.Label.Render("run id"), styles.Value.Render(id))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d contracts %w", failed, len(traces), errRejected)
	}
	return nil
}

func showReport(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	rep, err := st.LoadReport(args[0])
	if err != nil {
		return err
	}
	if asJSON {
		data, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
	fmt.Print(styles.RenderReport(meta.Contract, rep))
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	fmt.Println(styles.RenderRuns(runs))
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	tr, err := st.LoadTrace(args[0])
	if err != nil {
		return err
	}
	if len(tr.Frames) < 2 {
		return fmt.Errorf("no data to plot")
	}
	b := body
	if b == "" && len(tr.BodyIDs) > 0 && !contract.IsSystemQuantity(quantity) {
		b = tr.BodyIDs[0]
	}
	times, values, err := tr.Signal(b, quantity)
	if err != nil {
		return err
	}

	caption := quantity
	if b != "" {
		caption = b + "." + quantity
	}
	fmt.Println(asciigraph.Plot(values,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("%s over %.3gs", caption, tr.Duration())),
	))

	if svgPath == "" {
		return nil
	}
	marks := make([]float64, 0, len(tr.Events))
	for _, e := range tr.Events {
		if e.Kind != trace.EventPhaseEnter {
			marks = append(marks, e.Time)
		}
	}
	svg := export.SignalSVG(times, values, marks, 800, 300, "#00ccff")
	if err := os.WriteFile(svgPath, []byte(svg), 0644); err != nil {
		return err
	}
	logger.Info("wrote svg", zap.String("path", svgPath))
	return nil
}

func replayRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	stored, err := st.LoadContract(args[0])
	if err != nil {
		return err
	}
	res := validate.Validate(stored)
	if !res.OK {
		return fmt.Errorf("stored contract: %w", res.Err())
	}
	tr, err := st.LoadTrace(args[0])
	if err != nil {
		return err
	}

	if svgPath != "" {
		f, ok := tr.At(atTime)
		if !ok {
			return fmt.Errorf("empty trace")
		}
		const w, h = 60, 20
		canvas := viz.NewCanvas(w, h)
		viz.NewScene(res.Normalized, tr, w, h).Draw(canvas, &f)
		if err := os.WriteFile(svgPath, []byte(export.CanvasSVG(canvas, 4)), 0644); err != nil {
			return err
		}
		logger.Info("wrote svg", zap.String("path", svgPath), zap.Float64("t", f.Time))
		return nil
	}

	m := viz.NewReplay(res.Normalized, tr, viz.GetTheme(themeName), 60, 20)
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func showPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		c := config.GetPreset(args[0])
		if c == nil {
			return fmt.Errorf("unknown preset %q", args[0])
		}
		data, err := contract.Encode(c, contract.FormatYAML)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	}
	for _, name := range config.ListPresets() {
		fmt.Printf("%s  %s\n", styles.Value.Render(fmt.Sprintf("%-18s", name)), config.Presets[name].Description)
	}
	return nil
}
