package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/phystrace/internal/config"
	"github.com/san-kum/phystrace/internal/viz"
)

var (
	dataDir    string
	configFile string
	themeName  string
	verbose    bool

	integrator string
	maxSteps   int
	workers    int
	noSave     bool

	body     string
	quantity string
	svgPath  string
	atTime   float64
	asJSON   bool

	cfg    *config.Config
	logger *zap.Logger
	styles viz.Styles
)

func main() {
	rootCmd := &cobra.Command{
		Use:               "phystrace",
		Short:             "deterministic 2d rigid-body trace engine",
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "data directory (default from config)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&themeName, "theme", "", "color theme: "+strings.Join(viz.ThemeNames(), ", "))
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	validateCmd := &cobra.Command{
		Use:   "validate [contract]",
		Short: "run the pre-sim gate on a contract file or preset",
		Args:  cobra.ExactArgs(1),
		RunE:  validateContract,
	}

	runCmd := &cobra.Command{
		Use:   "run [contract|preset]...",
		Short: "validate, simulate and evaluate contracts",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runContracts,
	}
	runCmd.Flags().StringVar(&integrator, "integrator", "", "override integrator (rk4, rk45, euler, verlet)")
	runCmd.Flags().IntVar(&maxSteps, "max-steps", 0, "override step cap")
	runCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs when several contracts are given")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	reportCmd := &cobra.Command{
		Use:   "report [run_id]",
		Short: "show the acceptance report of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  showReport,
	}
	reportCmd.Flags().BoolVar(&asJSON, "json", false, "print the raw report")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a body or system quantity over time",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&body, "body", "", "body id (default: first body)")
	plotCmd.Flags().StringVar(&quantity, "quantity", "y", "quantity to plot")
	plotCmd.Flags().StringVar(&svgPath, "svg", "", "also write the plot as svg")

	replayCmd := &cobra.Command{
		Use:   "replay [run_id]",
		Short: "play a stored trace back in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  replayRun,
	}
	replayCmd.Flags().StringVar(&svgPath, "svg", "", "write the frame at --at as svg instead of playing")
	replayCmd.Flags().Float64Var(&atTime, "at", 0, "trace time of the svg snapshot")

	presetsCmd := &cobra.Command{
		Use:   "presets [name]",
		Short: "list presets, or print one as yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showPresets,
	}

	rootCmd.AddCommand(validateCmd, runCmd, reportCmd, listCmd, plotCmd, replayCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	cfg = config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if dataDir == "" {
		dataDir = cfg.DataDir
	}
	if themeName == "" {
		themeName = cfg.Theme
	}
	styles = viz.NewStyles(viz.GetTheme(themeName))

	zc := zap.NewProductionConfig()
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err == nil {
		zc.Level = level
	}
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	zc.Encoding = "console"
	zc.OutputPaths = []string{"stderr"}
	logger, err = zc.Build()
	return err
}
