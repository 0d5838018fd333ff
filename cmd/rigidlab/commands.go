package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/rigidlab/internal/config"
	"github.com/san-kum/rigidlab/internal/events"
	"github.com/san-kum/rigidlab/internal/experiment"
	"github.com/san-kum/rigidlab/internal/gui"
	"github.com/san-kum/rigidlab/internal/picking"
	"github.com/san-kum/rigidlab/internal/sim"
	"github.com/san-kum/rigidlab/internal/storage"
	"github.com/san-kum/rigidlab/internal/transport/ws"
	"github.com/san-kum/rigidlab/internal/viz"
	"github.com/san-kum/rigidlab/internal/world"
)

const maxPlots = 6

func runScenes(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		args = []string{"basic"}
	}
	if configFile != "" && len(args) > 1 {
		return fmt.Errorf("--config runs a single scene")
	}

	reg := registry()
	cfgs := make([]*config.Config, len(args))
	for i, name := range args {
		cfg, err := loadScene(cmd, reg, name)
		if err != nil {
			return err
		}
		cfgs[i] = cfg
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	start := time.Now()
	var results []*experiment.Result
	var runErr error
	if len(cfgs) == 1 {
		exp := experiment.New(cfgs[0], lg)
		exp.RecordFrames(!noFrames)
		if err := exp.Setup(reg.DefaultMetrics()); err != nil {
			return err
		}
		fmt.Printf("running %s (%d ticks)...\n", cfgs[0].Scene, cfgs[0].Ticks)
		res, err := exp.Run(cmd.Context())
		if err != nil {
			return err
		}
		results = append(results, res)
	} else {
		fmt.Printf("running %d scenes in parallel...\n", len(cfgs))
		results, runErr = experiment.RunParallel(cmd.Context(), cfgs, reg, lg)
	}
	elapsed := time.Since(start)

	for i, res := range results {
		if res == nil {
			continue
		}
		runID, err := st.Save(storage.Run{
			Config:  cfgs[i],
			Ticks:   res.Ticks,
			Time:    res.Time,
			Frames:  res.Frames,
			Metrics: res.Metrics,
			Errors:  res.Errors,
		})
		if err != nil {
			return err
		}
		printResult(os.Stdout, runID, res)
	}
	fmt.Printf("completed in %v\n", elapsed.Round(time.Millisecond))
	return runErr
}

func printResult(w io.Writer, runID string, res *experiment.Result) {
	fmt.Fprintf(w, "\nrun id: %s\n", runID)
	fmt.Fprintf(w, "scene: %s\n", res.Scene)
	fmt.Fprintf(w, "ticks: %d (%.2fs simulated)\n", res.Ticks, res.Time)
	if len(res.Errors) > 0 {
		fmt.Fprintf(w, "errors: %d (first: %v)\n", len(res.Errors), res.Errors[0])
	}
	names := make([]string, 0, len(res.Metrics))
	for name := range res.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(w, "metrics:")
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %.6f\n", name, res.Metrics[name])
	}
}

func runMenu() error {
	app := viz.NewApp(registry(), viz.Options{Logger: lg, Theme: theme})
	_, err := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseAllMotion()).Run()
	return err
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadScene(cmd, registry(), sceneName(args))
	if err != nil {
		return err
	}
	m, err := viz.NewModel(viz.Options{Build: builderFor(cfg), Logger: lg, Theme: theme})
	if err != nil {
		return err
	}
	defer m.Close()
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithContext(cmd.Context())).Run()
	return err
}

func runGUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadScene(cmd, registry(), sceneName(args))
	if err != nil {
		return err
	}
	return gui.Run(cmd.Context(), gui.Options{
		Build:  builderFor(cfg),
		Title:  "rigidlab - " + cfg.Scene,
		Audio:  withAudio,
		Logger: lg,
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadScene(cmd, registry(), sceneName(args))
	if err != nil {
		return err
	}
	w, err := world.NewBuilder(lg).Build(cfg)
	if err != nil {
		return err
	}

	bus := events.NewBus()
	loop := sim.New(bus, lg)
	if err := loop.Init(w); err != nil {
		return err
	}
	defer loop.Close()
	if cfg.PickingEnabled() {
		p, err := picking.New(w, lg)
		if err != nil {
			return err
		}
		p.Attach(bus)
		defer p.Detach()
	}

	srv := ws.NewServer(bus, cfg.Scene, cfg.Timestep, lg)
	loop.AddObserver(srv)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- loop.RunRealtime(ctx) }()

	fmt.Printf("streaming %s on ws://%s/ws\n", cfg.Scene, addr)
	serveErr := srv.ListenAndServe(ctx, addr)
	cancel()
	if err := <-errc; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return serveErr
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENE\tTIME\tTICKS\tSIM TIME\tENTITIES\tERRORS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.2fs\t%d\t%d\n",
			run.ID,
			run.Scene,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Ticks,
			run.Time,
			run.Entities,
			len(run.Errors),
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	axis, err := axisIndex(plotAxis)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	frames, err := st.LoadPoses(runID)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("no data to plot")
	}

	names := []string{plotEntity}
	if plotEntity == "" {
		names = plotCandidates(frames)
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scene: %s\n", meta.Scene)
	fmt.Printf("frames: %d\n\n", len(frames))

	for _, name := range names {
		_, values := storage.Trajectory(frames, name, axis)
		if len(values) == 0 {
			return fmt.Errorf("entity %q not found in run %s", name, runID)
		}
		graph := asciigraph.Plot(values,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("%s %s vs tick", name, strings.ToLower(plotAxis))),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

// plotCandidates picks entities whose position changes during the run.
func plotCandidates(frames []world.Frame) []string {
	first, last := frames[0], frames[len(frames)-1]
	start := make(map[string][3]float64, len(first.Entities))
	for _, p := range first.Entities {
		start[p.Name] = p.Position
	}
	var out []string
	for _, p := range last.Entities {
		if s, ok := start[p.Name]; ok && s == p.Position {
			continue
		}
		out = append(out, p.Name)
		if len(out) == maxPlots {
			break
		}
	}
	if len(out) == 0 {
		out = storage.EntityNames(frames)
		if len(out) > maxPlots {
			out = out[:maxPlots]
		}
	}
	return out
}

func output() (io.Writer, func() error, error) {
	if outFile == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(outFile)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	w, done, err := output()
	if err != nil {
		return err
	}
	if err := storage.New(dataDir).ExportJSON(w, args[0]); err != nil {
		done()
		return err
	}
	return done()
}

func exportCSV(cmd *cobra.Command, args []string) error {
	w, done, err := output()
	if err != nil {
		return err
	}
	if err := storage.New(dataDir).ExportCSV(w, args[0]); err != nil {
		done()
		return err
	}
	return done()
}

func listScenes(cmd *cobra.Command, args []string) error {
	reg := registry()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCENE\tTICKS\tENTITIES\tPICKING")
	for _, name := range reg.ListScenes() {
		cfg, err := reg.GetScene(name)
		if err != nil {
			return err
		}
		wld, err := world.NewBuilder(nil).Build(cfg)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%v\n", name, cfg.Ticks, len(wld.Entities), cfg.PickingEnabled())
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nmetrics: %s\n", strings.Join(reg.ListMetrics(), ", "))
	return nil
}

func printConfig(cmd *cobra.Command, args []string) error {
	cfg, err := registry().GetScene(args[0])
	if err != nil {
		return err
	}
	if writeFile != "" {
		if err := config.Save(writeFile, cfg); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", writeFile)
		return nil
	}
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(cfg)
}
