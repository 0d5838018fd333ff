package config

import (
	"math"
	"sort"
)

func f64(v float64) *float64 { return &v }

var presets = map[string]func() *Config{
	// boxes and a bouncing sphere over a large wireframe ground
	"basic": func() *Config {
		cfg := DefaultConfig()
		cfg.Scene = "basic"
		cfg.Ground = &GroundConfig{
			HalfExtents: Vec3{15, 15, 0.1},
			Euler:       Vec3{-math.Pi / 2, 0, 0},
			Material:    "ground",
			Color:       0xffffff,
			Wireframe:   true,
			Synced:      true,
		}
		cfg.Bodies = []BodyConfig{
			{
				Name: "box", Shape: "box", HalfExtents: Vec3{1, 1, 1}, Mass: 1,
				Position: Vec3{1, 20, 0}, AngularVelocity: Vec3{0, 10, 0},
				AngularDamping: f64(0.5), Material: "slippery", Color: 0x00ff00, Wireframe: true,
			},
			{
				Name: "sphere", Shape: "sphere", Radius: 2, Mass: 4,
				Position: Vec3{0, 10, 0}, LinearDamping: f64(0.21),
				Material: "sphere", Color: 0xff0000, Wireframe: true,
			},
		}
		cfg.ContactMaterials = []ContactMaterialConfig{
			{A: "ground", B: "slippery", Friction: f64(0.04)},
			{A: "ground", B: "sphere", Restitution: f64(1.0)},
		}
		return cfg
	},
	// click to drop small spheres onto a plane
	"picking": func() *Config {
		cfg := DefaultConfig()
		cfg.Scene = "picking"
		cfg.Camera.Position = Vec3{0, 6, 8}
		cfg.Ground = &GroundConfig{
			HalfExtents: Vec3{5, 5, 0.001},
			Euler:       Vec3{-math.Pi / 2, 0, 0},
			Material:    "ground",
			Color:       0xffffff,
			Synced:      true,
		}
		cfg.Picking = &PickingConfig{
			Enabled:        true,
			Radius:         0.125,
			Mass:           0.3,
			Restitution:    0.5,
			RandomColor:    true,
			GroundMaterial: "ground",
		}
		return cfg
	},
	// lock-constrained boxes held by two anchors
	"chain": func() *Config {
		cfg := chainConfig()
		cfg.Scene = "chain"
		cfg.Chain.ConnectAnchors = true
		return cfg
	},
	// the chain as originally shipped: anchors placed but not attached
	"chain_reference": func() *Config {
		cfg := chainConfig()
		cfg.Scene = "chain_reference"
		cfg.Chain.ConnectAnchors = false
		return cfg
	},
	// particle cloth draped over a static sphere
	"cloth": func() *Config {
		cfg := DefaultConfig()
		cfg.Scene = "cloth"
		cfg.Camera.Position = Vec3{0, 6, 8}
		cfg.Grid = &GridConfig{
			Rows:           15,
			Cols:           15,
			Distance:       0.2,
			Mass:           0.5,
			Height:         4,
			ParticleRadius: 0.1,
			Color:          0xffea00,
		}
		cfg.Bodies = []BodyConfig{
			{Name: "sphere", Shape: "sphere", Radius: 1.5, Mass: 0, Color: 0xa3a3a3},
		}
		return cfg
	},
}

func chainConfig() *Config {
	cfg := DefaultConfig()
	cfg.Camera.Position = Vec3{0, 6, 14}
	cfg.Ground = &GroundConfig{
		HalfExtents: Vec3{7.5, 7.5, 0.001},
		Position:    Vec3{0, -0.6, 0},
		Euler:       Vec3{-math.Pi / 2, 0, 0},
		Material:    "ground",
		Color:       0xffffff,
		Synced:      true,
	}
	cfg.Chain = &ChainConfig{
		Count:   10,
		Size:    0.5,
		Space:   0.05,
		Mass:    1,
		Height:  7,
		Anchors: true,
		Color:   0xffea00,
	}
	return cfg
}

// GetPreset returns a fresh copy of a bundled scene, or nil.
func GetPreset(name string) *Config {
	fn, ok := presets[name]
	if !ok {
		return nil
	}
	return fn()
}

func ListPresets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
