package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/san-kum/rigidlab/internal/experiment"
	"github.com/san-kum/rigidlab/internal/logger"
)

var (
	dataDir  string
	logLevel string

	configFile string
	ticks      int
	timestep   float64
	substeps   int
	seed       int64
	clicks     []string
	noFrames   bool

	theme string
	addr  string

	plotEntity string
	plotAxis   string
	outFile    string
	writeFile  string
	svgFile    string

	withAudio bool

	snapTick int
	cols     int
	rows     int

	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int
	metricName string
	searchGrid []string
	maximize   bool
	trials     int
	perturb    float64
)

var lg *log.Logger

func main() {
	rootCmd := &cobra.Command{
		Use:   "rigidlab",
		Short: "rigid-body scene lab",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := logger.New(os.Stderr, logLevel, "rigidlab")
			if err != nil {
				return fmt.Errorf("--log-level: %w", err)
			}
			lg = l
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// scene menu when no command is given
			return runMenu()
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".rigidlab", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [scene...]",
		Short: "run scenes headless and store the results",
		Args:  cobra.ArbitraryArgs,
		RunE:  runScenes,
	}
	sceneFlags(runCmd)
	runCmd.Flags().IntVar(&ticks, "ticks", 0, "number of ticks")
	runCmd.Flags().StringSliceVar(&clicks, "click", nil, "scripted click tick:x:y (repeatable)")
	runCmd.Flags().BoolVar(&noFrames, "no-frames", false, "do not record poses")

	liveCmd := &cobra.Command{
		Use:   "live [scene]",
		Short: "run a scene in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	sceneFlags(liveCmd)
	liveCmd.Flags().StringVar(&theme, "theme", "cyberpunk", "colour theme")

	guiCmd := &cobra.Command{
		Use:   "gui [scene]",
		Short: "run a scene in a desktop window",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runGUI,
	}
	sceneFlags(guiCmd)
	guiCmd.Flags().BoolVar(&withAudio, "audio", false, "sonify kinetic energy")

	serveCmd := &cobra.Command{
		Use:   "serve [scene]",
		Short: "run a scene in real time and stream frames over websocket",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runServe,
	}
	sceneFlags(serveCmd)
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot an entity coordinate over time",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotEntity, "entity", "", "entity name (default: every dynamic entity, up to 6)")
	plotCmd.Flags().StringVar(&plotAxis, "axis", "y", "coordinate: x, y or z")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata and frames as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run poses as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	scenesCmd := &cobra.Command{
		Use:   "scenes",
		Short: "list bundled scenes and metrics",
		RunE:  listScenes,
	}

	configCmd := &cobra.Command{
		Use:   "config [scene]",
		Short: "print a scene configuration as YAML",
		Args:  cobra.ExactArgs(1),
		RunE:  printConfig,
	}
	configCmd.Flags().StringVarP(&writeFile, "write", "w", "", "write to file instead of stdout")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency, bounce and phase analysis of an entity",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&plotEntity, "entity", "", "entity name (default: first moving entity)")
	analyzeCmd.Flags().StringVar(&plotAxis, "axis", "y", "coordinate: x, y or z")
	analyzeCmd.Flags().StringVar(&svgFile, "svg", "", "also write the trajectory as svg")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [run_id]",
		Short: "render a stored frame in the terminal or as svg",
		Args:  cobra.ExactArgs(1),
		RunE:  snapshotRun,
	}
	snapshotCmd.Flags().IntVar(&snapTick, "tick", -1, "tick to render (default: last)")
	snapshotCmd.Flags().IntVar(&cols, "cols", 80, "canvas columns")
	snapshotCmd.Flags().IntVar(&rows, "rows", 24, "canvas rows")
	snapshotCmd.Flags().StringVar(&svgFile, "svg", "", "write svg to file instead of printing")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted sequence of scenes",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [scene]",
		Short: "vary one parameter and report metrics",
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	sweepCmd.Flags().StringVar(&sweepParam, "param", "gravity.y", "parameter name, e.g. body.sphere.mass")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", -1, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", -20, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of values")
	sweepCmd.Flags().IntVar(&ticks, "ticks", 0, "ticks per run")
	sweepCmd.Flags().StringVar(&metricName, "metric", "lowest_y", "metric to plot")

	searchCmd := &cobra.Command{
		Use:   "search [scene]",
		Short: "grid search parameters for the best metric value",
		Args:  cobra.ExactArgs(1),
		RunE:  runSearch,
	}
	searchCmd.Flags().StringArrayVar(&searchGrid, "grid", nil, "name=v1,v2,... (repeatable)")
	searchCmd.Flags().StringVar(&metricName, "metric", "energy_drift", "metric to optimise")
	searchCmd.Flags().BoolVar(&maximize, "maximize", false, "maximise instead of minimise")
	searchCmd.Flags().IntVar(&ticks, "ticks", 0, "ticks per run")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo [scene]",
		Short: "perturb start positions and count stable runs",
		Args:  cobra.ExactArgs(1),
		RunE:  runMonteCarlo,
	}
	monteCarloCmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	monteCarloCmd.Flags().Float64Var(&perturb, "perturb", 0.5, "max offset per axis")
	monteCarloCmd.Flags().IntVar(&ticks, "ticks", 0, "ticks per run")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", 0, "random seed")

	rootCmd.AddCommand(runCmd, liveCmd, guiCmd, serveCmd, listCmd, plotCmd,
		exportJSONCmd, exportCSVCmd, scenesCmd, configCmd,
		analyzeCmd, snapshotCmd, scenarioCmd, sweepCmd, searchCmd, monteCarloCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func sceneFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "scene file (yaml)")
	cmd.Flags().Float64Var(&timestep, "timestep", 1.0/60, "fixed timestep in seconds")
	cmd.Flags().IntVar(&substeps, "substeps", 0, "solver substeps per tick")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed for picked colours")
}

func sceneName(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "basic"
}

func registry() *experiment.Registry {
	return experiment.NewRegistry()
}
