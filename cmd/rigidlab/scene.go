package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/rigidlab/internal/config"
	"github.com/san-kum/rigidlab/internal/experiment"
	"github.com/san-kum/rigidlab/internal/world"
)

// loadScene resolves a scene from --config or the registry, then applies
// the flags the user actually set.
func loadScene(cmd *cobra.Command, reg *experiment.Registry, name string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if configFile != "" {
		cfg, err = config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	} else {
		cfg, err = reg.GetScene(name)
		if err != nil {
			return nil, fmt.Errorf("%w (available: %s)", err, strings.Join(reg.ListScenes(), ", "))
		}
	}
	if err := applyOverrides(cmd, cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func applyOverrides(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("timestep") {
		cfg.Timestep = timestep
	}
	if flags.Changed("substeps") {
		cfg.Substeps = substeps
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Lookup("ticks") != nil && flags.Changed("ticks") {
		cfg.Ticks = ticks
	}
	if flags.Lookup("click") != nil && flags.Changed("click") {
		parsed, err := parseClicks(clicks)
		if err != nil {
			return err
		}
		cfg.Clicks = append(cfg.Clicks, parsed...)
	}
	return nil
}

// parseClicks reads "tick:x:y" entries.
func parseClicks(specs []string) ([]config.ClickConfig, error) {
	out := make([]config.ClickConfig, 0, len(specs))
	for _, s := range specs {
		parts := strings.Split(s, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("click %q: want tick:x:y", s)
		}
		tick, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, fmt.Errorf("click %q: %w", s, err)
		}
		x, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("click %q: %w", s, err)
		}
		y, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return nil, fmt.Errorf("click %q: %w", s, err)
		}
		out = append(out, config.ClickConfig{Tick: tick, X: x, Y: y})
	}
	return out, nil
}

func builderFor(cfg *config.Config) func() (*world.World, error) {
	return func() (*world.World, error) {
		return world.NewBuilder(lg).Build(cfg)
	}
}

func axisIndex(name string) (int, error) {
	switch strings.ToLower(name) {
	case "x":
		return 0, nil
	case "y":
		return 1, nil
	case "z":
		return 2, nil
	}
	return 0, fmt.Errorf("unknown axis %q (want x, y or z)", name)
}
