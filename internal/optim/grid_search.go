// Package optim searches scene parameters for the best value of a metric.
package optim

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/san-kum/rigidlab/internal/config"
	"github.com/san-kum/rigidlab/internal/experiment"
)

// Trial is one evaluated parameter combination.
type Trial struct {
	Params map[string]float64
	Value  float64
	Err    error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	// Maximize picks the largest metric value instead of the smallest.
	Maximize bool
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// combinations expands the grid in row-major order, last parameter fastest.
func (g *GridSearch) combinations() []map[string]float64 {
	out := []map[string]float64{{}}
	for i, name := range g.paramNames {
		next := make([]map[string]float64, 0, len(out)*len(g.ranges[i]))
		for _, base := range out {
			for _, v := range g.ranges[i] {
				p := make(map[string]float64, len(base)+1)
				for k, bv := range base {
					p[k] = bv
				}
				p[name] = v
				next = append(next, p)
			}
		}
		out = next
	}
	return out
}

// Search runs every combination on a fresh copy of the scene and returns
// the trials ordered best first. Trials whose scene fails to build or run
// sort last and keep their error.
func (g *GridSearch) Search(
	ctx context.Context,
	base func() *config.Config,
	reg *experiment.Registry,
	metricName string,
	l *log.Logger,
) ([]Trial, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, fmt.Errorf("optim: %d parameters but %d ranges", len(g.paramNames), len(g.ranges))
	}
	if _, err := reg.GetMetric(metricName); err != nil {
		return nil, err
	}

	combos := g.combinations()
	trials := make([]Trial, len(combos))
	cfgs := make([]*config.Config, 0, len(combos))
	index := make([]int, 0, len(combos))
	for i, params := range combos {
		trials[i].Params = params
		cfg := base()
		for name, v := range params {
			if err := cfg.SetParam(name, v); err != nil {
				return nil, err
			}
		}
		if err := cfg.Validate(); err != nil {
			trials[i].Err = err
			continue
		}
		cfgs = append(cfgs, cfg)
		index = append(index, i)
	}

	results, err := experiment.RunParallel(ctx, cfgs, reg, l)
	for j, res := range results {
		i := index[j]
		if res == nil {
			trials[i].Err = fmt.Errorf("trial %d did not finish", i)
			continue
		}
		v, ok := res.Metrics[metricName]
		if !ok {
			trials[i].Err = fmt.Errorf("metric %s not recorded", metricName)
			continue
		}
		trials[i].Value = v
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil && l != nil {
		l.Warn("some trials failed", "err", err)
	}

	g.rank(trials)
	return trials, nil
}

func (g *GridSearch) rank(trials []Trial) {
	score := func(t Trial) float64 {
		if t.Err != nil || math.IsNaN(t.Value) {
			return math.Inf(1)
		}
		if g.Maximize {
			return -t.Value
		}
		return t.Value
	}
	sort.SliceStable(trials, func(i, j int) bool { return score(trials[i]) < score(trials[j]) })
}

// Best returns the first successful trial.
func Best(trials []Trial) (Trial, bool) {
	for _, t := range trials {
		if t.Err == nil {
			return t, true
		}
	}
	return Trial{}, false
}
