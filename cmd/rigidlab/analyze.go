package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/rigidlab/internal/analysis"
	"github.com/san-kum/rigidlab/internal/export"
	"github.com/san-kum/rigidlab/internal/storage"
	"github.com/san-kum/rigidlab/internal/world"
)

func analyzeRun(cmd *cobra.Command, args []string) error {
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
	if len(frames) < 3 {
		return fmt.Errorf("run %s has too few frames to analyze", runID)
	}

	entity := plotEntity
	if entity == "" {
		entity = plotCandidates(frames)[0]
	}
	times, values := storage.Trajectory(frames, entity, axis)
	if len(values) < 3 {
		return fmt.Errorf("entity %q not found in run %s", entity, runID)
	}
	dt := meta.Timestep

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("entity: %s (%s)\n", entity, plotAxis)
	fmt.Printf("samples: %d at %.4fs\n\n", len(values), dt)

	fmt.Printf("dominant frequency: %.3f Hz\n", analysis.DominantFrequency(values, dt))
	for i, p := range analysis.Peaks(analysis.Spectrum(values, dt), 3) {
		fmt.Printf("  peak %d: %.3f Hz (power %.4g)\n", i+1, p.Freq, p.Power)
	}

	if axis == 1 {
		b := analysis.Bounces(values, 0.01)
		fmt.Printf("\nimpacts: %d\n", len(b.Impacts))
		fmt.Printf("rest height: %.4f\n", b.Rest)
		if len(b.Apexes) > 0 {
			fmt.Printf("apexes: %.3f\n", b.Apexes)
		}
		if b.Restitution > 0 {
			fmt.Printf("restitution estimate: %.3f\n", b.Restitution)
		}
	}

	fmt.Printf("\nphase portrait (%s across, d%s/dt up):\n", plotAxis, plotAxis)
	fmt.Print(analysis.NewPhasePortrait(values, dt).ASCII(70, 20))

	if svgFile != "" {
		svg := export.TrajectoryToSVG(export.TimeSeries(times, values), 800, 300, "#00ffff")
		if err := os.WriteFile(svgFile, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("\nwrote %s\n", svgFile)
	}
	return nil
}

func snapshotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)
	cfg, err := st.LoadConfig(runID)
	if err != nil {
		return err
	}
	frames, err := st.LoadPoses(runID)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("run %s has no frames", runID)
	}

	frame, ok := pickFrame(frames, snapTick)
	if !ok {
		return fmt.Errorf("run %s has no tick %d (0-%d)", runID, snapTick, frames[len(frames)-1].Tick)
	}
	canvas, err := export.RenderFrame(frame, cfg, cols, rows)
	if err != nil {
		return err
	}

	if svgFile != "" {
		if err := os.WriteFile(svgFile, []byte(export.CanvasToSVG(canvas, 4)), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s (tick %d)\n", svgFile, frame.Tick)
		return nil
	}
	fmt.Printf("%s tick %d t=%.3fs\n", cfg.Scene, frame.Tick, frame.Time)
	fmt.Println(canvas.String())
	return nil
}

// pickFrame returns the frame for tick, or the last frame when tick < 0.
func pickFrame(frames []world.Frame, tick int) (world.Frame, bool) {
	if tick < 0 {
		return frames[len(frames)-1], true
	}
	for _, f := range frames {
		if f.Tick == tick {
			return f, true
		}
	}
	return world.Frame{}, false
}
