package optim

import (
	"context"
	"testing"

	"github.com/san-kum/rigidlab/internal/config"
	"github.com/san-kum/rigidlab/internal/experiment"
)

func shortBasic() *config.Config {
	cfg := config.GetPreset("basic")
	cfg.Ticks = 30
	return cfg
}

func TestCombinations(t *testing.T) {
	g := NewGridSearch([]string{"a", "b"}, [][]float64{{1, 2, 3}, {10, 20}})
	combos := g.combinations()
	if len(combos) != 6 {
		t.Fatalf("expected 6 combinations, got %d", len(combos))
	}
	if combos[0]["a"] != 1 || combos[0]["b"] != 10 || combos[1]["b"] != 20 || combos[5]["a"] != 3 {
		t.Errorf("unexpected order: %v", combos)
	}
}

func TestSearchMinimize(t *testing.T) {
	g := NewGridSearch([]string{"gravity.y"}, [][]float64{{-1, -9.81, -20}})
	trials, err := g.Search(context.Background(), shortBasic, experiment.NewRegistry(), "lowest_y", nil)
	if err != nil {
		t.Fatal(err)
	}
	best, ok := Best(trials)
	if !ok {
		t.Fatal("no successful trial")
	}
	if best.Params["gravity.y"] != -20 {
		t.Errorf("strongest gravity should fall lowest, got %v", best.Params)
	}
}

func TestSearchMaximize(t *testing.T) {
	g := NewGridSearch([]string{"gravity.y"}, [][]float64{{-1, -9.81, -20}})
	g.Maximize = true
	trials, err := g.Search(context.Background(), shortBasic, experiment.NewRegistry(), "lowest_y", nil)
	if err != nil {
		t.Fatal(err)
	}
	if trials[0].Params["gravity.y"] != -1 {
		t.Errorf("weakest gravity should stay highest, got %v", trials[0].Params)
	}
}

func TestSearchInvalidTrialSortsLast(t *testing.T) {
	g := NewGridSearch([]string{"timestep"}, [][]float64{{-1, 1.0 / 60}})
	trials, err := g.Search(context.Background(), shortBasic, experiment.NewRegistry(), "lowest_y", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(trials) != 2 {
		t.Fatalf("expected 2 trials, got %d", len(trials))
	}
	if trials[0].Err != nil || trials[1].Err == nil {
		t.Errorf("invalid timestep should fail and sort last: %+v", trials)
	}
}

func TestSearchErrors(t *testing.T) {
	reg := experiment.NewRegistry()
	if _, err := NewGridSearch([]string{"a"}, nil).Search(context.Background(), shortBasic, reg, "lowest_y", nil); err == nil {
		t.Error("expected error for mismatched ranges")
	}
	if _, err := NewGridSearch(nil, nil).Search(context.Background(), shortBasic, reg, "nope", nil); err == nil {
		t.Error("expected error for unknown metric")
	}
	g := NewGridSearch([]string{"nope"}, [][]float64{{1}})
	if _, err := g.Search(context.Background(), shortBasic, reg, "lowest_y", nil); err == nil {
		t.Error("expected error for unknown parameter")
	}
}
