// Package automation runs scripted batches of scenes: scenario files,
// single-parameter sweeps and Monte Carlo perturbation trials.
package automation

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/rigidlab/internal/config"
	"github.com/san-kum/rigidlab/internal/experiment"
	"github.com/san-kum/rigidlab/internal/logger"
	"github.com/san-kum/rigidlab/internal/storage"
)

// Scenario is a named sequence of scene runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep runs one scene. Config, when set, is a scene file and takes
// precedence over Scene.
type ScenarioStep struct {
	Scene  string               `yaml:"scene"`
	Config string               `yaml:"config,omitempty"`
	Ticks  int                  `yaml:"ticks,omitempty"`
	Params map[string]float64   `yaml:"params,omitempty"`
	Clicks []config.ClickConfig `yaml:"clicks,omitempty"`
	Save   bool                 `yaml:"save,omitempty"`
}

type StepResult struct {
	Step   int
	Scene  string
	RunID  string
	Result *experiment.Result
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps", path)
	}
	return &sc, nil
}

func (s ScenarioStep) config(reg *experiment.Registry) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if s.Config != "" {
		cfg, err = config.Load(s.Config)
	} else {
		cfg, err = reg.GetScene(s.Scene)
	}
	if err != nil {
		return nil, err
	}
	if s.Ticks > 0 {
		cfg.Ticks = s.Ticks
	}
	for name, v := range s.Params {
		if err := cfg.SetParam(name, v); err != nil {
			return nil, err
		}
	}
	cfg.Clicks = append(cfg.Clicks, s.Clicks...)
	return cfg, cfg.Validate()
}

// RunScenario executes the steps in order. Steps marked save are written to
// st, which may be nil when nothing is saved.
func RunScenario(ctx context.Context, sc *Scenario, reg *experiment.Registry, st *storage.Store, l *log.Logger) ([]StepResult, error) {
	l = logger.OrDiscard(l)
	results := make([]StepResult, 0, len(sc.Steps))

	for i, step := range sc.Steps {
		cfg, err := step.config(reg)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		l.Info("scenario step", "scenario", sc.Name, "step", i+1, "of", len(sc.Steps), "scene", cfg.Scene)

		exp := experiment.New(cfg, l)
		exp.RecordFrames(step.Save)
		if err := exp.Setup(reg.DefaultMetrics()); err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}
		res, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		sr := StepResult{Step: i + 1, Scene: cfg.Scene, Result: res}
		if step.Save {
			if st == nil {
				return results, fmt.Errorf("step %d: save requested without a store", i+1)
			}
			sr.RunID, err = st.Save(storage.Run{
				Config:  cfg,
				Ticks:   res.Ticks,
				Time:    res.Time,
				Frames:  res.Frames,
				Metrics: res.Metrics,
				Errors:  res.Errors,
			})
			if err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
		}
		results = append(results, sr)
	}
	return results, nil
}

// ParameterSweep varies one parameter linearly between Min and Max.
type ParameterSweep struct {
	Scene    string
	Param    string
	Min, Max float64
	NumSteps int
	Ticks    int
}

type SweepResult struct {
	ParamValue float64
	Metrics    map[string]float64
	Errors     int
}

// Values returns the swept parameter values.
func (s *ParameterSweep) Values() []float64 {
	if s.NumSteps <= 1 {
		return []float64{s.Min}
	}
	step := (s.Max - s.Min) / float64(s.NumSteps-1)
	out := make([]float64, s.NumSteps)
	for i := range out {
		out[i] = s.Min + float64(i)*step
	}
	return out
}

// RunSweep runs every sweep point concurrently.
func RunSweep(ctx context.Context, sweep *ParameterSweep, reg *experiment.Registry, l *log.Logger) ([]SweepResult, error) {
	values := sweep.Values()
	cfgs := make([]*config.Config, len(values))
	for i, v := range values {
		cfg, err := reg.GetScene(sweep.Scene)
		if err != nil {
			return nil, err
		}
		if sweep.Ticks > 0 {
			cfg.Ticks = sweep.Ticks
		}
		if err := cfg.SetParam(sweep.Param, v); err != nil {
			return nil, err
		}
		cfgs[i] = cfg
	}

	runs, err := experiment.RunParallel(ctx, cfgs, reg, l)
	if err != nil {
		return nil, err
	}
	results := make([]SweepResult, len(values))
	for i, res := range runs {
		results[i] = SweepResult{ParamValue: values[i], Metrics: res.Metrics, Errors: len(res.Errors)}
	}
	return results, nil
}

// MonteCarloConfig perturbs the start position of every dynamic body in a
// scene by up to Perturbation along each axis.
type MonteCarloConfig struct {
	Scene        string
	Perturbation float64
	NumTrials    int
	Ticks        int
	// Bound is the distance from the origin a body may reach while the
	// trial still counts as stable.
	Bound float64
	Seed  int64
}

type MonteCarloResult struct {
	TrialID int
	// Offsets maps body name to the applied start offset.
	Offsets map[string]config.Vec3
	Stable  bool
	Metrics map[string]float64
}

func RunMonteCarlo(ctx context.Context, mc *MonteCarloConfig, reg *experiment.Registry, l *log.Logger) ([]MonteCarloResult, error) {
	seed := mc.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	bound := mc.Bound
	if bound <= 0 {
		bound = 100
	}

	cfgs := make([]*config.Config, mc.NumTrials)
	offsets := make([]map[string]config.Vec3, mc.NumTrials)
	for trial := range cfgs {
		cfg, err := reg.GetScene(mc.Scene)
		if err != nil {
			return nil, err
		}
		if mc.Ticks > 0 {
			cfg.Ticks = mc.Ticks
		}
		offsets[trial] = make(map[string]config.Vec3)
		for i := range cfg.Bodies {
			b := &cfg.Bodies[i]
			if b.Mass <= 0 {
				continue
			}
			var d config.Vec3
			for k := range d {
				d[k] = (rng.Float64() - 0.5) * 2 * mc.Perturbation
				b.Position[k] += d[k]
			}
			offsets[trial][b.Name] = d
		}
		cfgs[trial] = cfg
	}

	runs, err := experiment.RunParallel(ctx, cfgs, reg, l)
	if err != nil {
		return nil, err
	}
	results := make([]MonteCarloResult, len(runs))
	for i, res := range runs {
		lowest := res.Metrics["lowest_y"]
		stable := len(res.Errors) == 0 && res.Metrics["stability"] == 1 && lowest > -bound
		results[i] = MonteCarloResult{TrialID: i, Offsets: offsets[i], Stable: stable, Metrics: res.Metrics}
	}
	return results, nil
}

func MonteCarloStats(results []MonteCarloResult) (stable, unstable int) {
	for _, r := range results {
		if r.Stable {
			stable++
		} else {
			unstable++
		}
	}
	return
}
