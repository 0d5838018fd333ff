package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/rigidlab/internal/automation"
	"github.com/san-kum/rigidlab/internal/config"
	"github.com/san-kum/rigidlab/internal/optim"
	"github.com/san-kum/rigidlab/internal/storage"
)

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	fmt.Printf("scenario: %s\n", sc.Name)
	if sc.Description != "" {
		fmt.Printf("%s\n", sc.Description)
	}
	results, err := automation.RunScenario(cmd.Context(), sc, registry(), st, lg)
	for _, r := range results {
		id := r.RunID
		if id == "" {
			id = "-"
		}
		fmt.Printf("  step %d %-16s ticks=%d run=%s\n", r.Step, r.Scene, r.Result.Ticks, id)
	}
	return err
}

func runSweep(cmd *cobra.Command, args []string) error {
	sweep := &automation.ParameterSweep{
		Scene:    args[0],
		Param:    sweepParam,
		Min:      sweepMin,
		Max:      sweepMax,
		NumSteps: sweepSteps,
		Ticks:    ticks,
	}
	results, err := automation.RunSweep(cmd.Context(), sweep, registry(), lg)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\tERRORS\n", strings.ToUpper(sweepParam), strings.ToUpper(metricName))
	series := make([]float64, len(results))
	for i, r := range results {
		v, ok := r.Metrics[metricName]
		if !ok {
			return fmt.Errorf("metric %s not recorded", metricName)
		}
		series[i] = v
		fmt.Fprintf(w, "%.4f\t%.6f\t%d\n", r.ParamValue, v, r.Errors)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if len(series) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(series,
			asciigraph.Height(10),
			asciigraph.Width(60),
			asciigraph.Caption(fmt.Sprintf("%s vs %s", metricName, sweepParam)),
		))
	}
	return nil
}

// parseGrid reads "name=v1,v2,..." entries.
func parseGrid(specs []string) ([]string, [][]float64, error) {
	names := make([]string, 0, len(specs))
	ranges := make([][]float64, 0, len(specs))
	for _, s := range specs {
		name, list, ok := strings.Cut(s, "=")
		if !ok || name == "" || list == "" {
			return nil, nil, fmt.Errorf("grid %q: want name=v1,v2", s)
		}
		var values []float64
		for _, f := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("grid %q: %w", s, err)
			}
			values = append(values, v)
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}
	return names, ranges, nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	if len(searchGrid) == 0 {
		return fmt.Errorf("at least one --grid is required")
	}
	names, ranges, err := parseGrid(searchGrid)
	if err != nil {
		return err
	}
	reg := registry()
	if _, err := reg.GetScene(args[0]); err != nil {
		return err
	}
	base := func() *config.Config {
		cfg, _ := reg.GetScene(args[0])
		if ticks > 0 {
			cfg.Ticks = ticks
		}
		return cfg
	}

	g := optim.NewGridSearch(names, ranges)
	g.Maximize = maximize
	results, err := g.Search(cmd.Context(), base, reg, metricName, lg)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "RANK\tPARAMS\t%s\n", strings.ToUpper(metricName))
	for i, t := range results {
		if i == 10 {
			break
		}
		val := fmt.Sprintf("%.6f", t.Value)
		if t.Err != nil {
			val = "error: " + t.Err.Error()
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", i+1, formatParams(t.Params), val)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if best, ok := optim.Best(results); ok {
		fmt.Printf("\nbest: %s\n", formatParams(best.Params))
	}
	return nil
}

func formatParams(p map[string]float64) string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%g", k, p[k])
	}
	return strings.Join(parts, " ")
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	mc := &automation.MonteCarloConfig{
		Scene:        args[0],
		Perturbation: perturb,
		NumTrials:    trials,
		Ticks:        ticks,
		Seed:         seed,
	}
	results, err := automation.RunMonteCarlo(cmd.Context(), mc, registry(), lg)
	if err != nil {
		return err
	}
	stable, unstable := automation.MonteCarloStats(results)
	fmt.Printf("%s: %d trials, %d stable, %d unstable\n", args[0], len(results), stable, unstable)
	for _, r := range results {
		if !r.Stable {
			fmt.Printf("  trial %d unstable: lowest_y=%.3f stability=%.3f\n",
				r.TrialID, r.Metrics["lowest_y"], r.Metrics["stability"])
		}
	}
	return nil
}
