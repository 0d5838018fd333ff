package experiment

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/rigidlab/internal/config"
	"github.com/san-kum/rigidlab/internal/metrics"
	"github.com/san-kum/rigidlab/internal/sim"
)

var ErrUnknownScene = errors.New("unknown scene")

type Registry struct {
	scenes  map[string]func() *config.Config
	metrics map[string]func() sim.Metric
}

// NewRegistry knows every bundled preset and the standard metrics.
func NewRegistry() *Registry {
	r := &Registry{
		scenes:  make(map[string]func() *config.Config),
		metrics: make(map[string]func() sim.Metric),
	}

	for _, name := range config.ListPresets() {
		name := name
		r.scenes[name] = func() *config.Config { return config.GetPreset(name) }
	}

	r.metrics["kinetic_energy"] = func() sim.Metric { return metrics.NewEnergy() }
	r.metrics["energy_drift"] = func() sim.Metric { return metrics.NewEnergyDrift() }
	r.metrics["stability"] = func() sim.Metric { return metrics.NewStability(100) }
	r.metrics["lowest_y"] = func() sim.Metric { return metrics.NewLowestBody() }
	r.metrics["sync_error"] = func() sim.Metric { return metrics.NewSyncError() }

	return r
}

// Register adds or replaces a scene.
func (r *Registry) Register(name string, fn func() *config.Config) {
	r.scenes[name] = fn
}

func (r *Registry) GetScene(name string) (*config.Config, error) {
	fn, ok := r.scenes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScene, name)
	}
	return fn(), nil
}

func (r *Registry) GetMetric(name string) (sim.Metric, error) {
	fn, ok := r.metrics[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric: %s", name)
	}
	return fn(), nil
}

func (r *Registry) ListScenes() []string {
	return sortedKeys(r.scenes)
}

func (r *Registry) ListMetrics() []string {
	return sortedKeys(r.metrics)
}

// DefaultMetrics returns a fresh instance of every registered metric.
func (r *Registry) DefaultMetrics() []sim.Metric {
	out := make([]sim.Metric, 0, len(r.metrics))
	for _, name := range r.ListMetrics() {
		out = append(out, r.metrics[name]())
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
