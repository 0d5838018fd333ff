package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultTimestep = 1.0 / 60
	DefaultTicks    = 600
	DefaultSubsteps = 8
	DefaultFOV      = 45.0
	DefaultNear     = 0.1
	DefaultFar      = 1000.0
	DefaultWidth    = 1280.0
	DefaultHeight   = 720.0
)

// StandardGravity is used by every bundled scene.
var StandardGravity = Vec3{0, -9.81, 0}

var ErrInvalidConfig = errors.New("config: invalid scene configuration")

// Vec3 is written as a YAML flow sequence: [x, y, z].
type Vec3 [3]float64

type Config struct {
	Scene    string         `yaml:"scene"`
	Timestep float64        `yaml:"timestep"`
	Ticks    int            `yaml:"ticks"`
	Substeps int            `yaml:"substeps"`
	Seed     int64          `yaml:"seed"`
	Gravity  Vec3           `yaml:"gravity,flow"`
	Camera   CameraConfig   `yaml:"camera"`
	Viewport ViewportConfig `yaml:"viewport"`

	Ground           *GroundConfig           `yaml:"ground,omitempty"`
	Bodies           []BodyConfig            `yaml:"bodies,omitempty"`
	ContactMaterials []ContactMaterialConfig `yaml:"contact_materials,omitempty"`
	Chain            *ChainConfig            `yaml:"chain,omitempty"`
	Grid             *GridConfig             `yaml:"grid,omitempty"`
	Picking          *PickingConfig          `yaml:"picking,omitempty"`

	// Clicks replays pointer clicks during headless runs.
	Clicks []ClickConfig `yaml:"clicks,omitempty"`
}

type CameraConfig struct {
	Position Vec3    `yaml:"position,flow"`
	Target   Vec3    `yaml:"target,flow"`
	FOV      float64 `yaml:"fov"`
	Near     float64 `yaml:"near"`
	Far      float64 `yaml:"far"`
}

type ViewportConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

type GroundConfig struct {
	HalfExtents Vec3   `yaml:"half_extents,flow"`
	Position    Vec3   `yaml:"position,flow"`
	Euler       Vec3   `yaml:"euler,flow"`
	Material    string `yaml:"material"`
	Color       uint32 `yaml:"color"`
	Wireframe   bool   `yaml:"wireframe"`
	Synced      bool   `yaml:"synced"`
}

type BodyConfig struct {
	Name            string   `yaml:"name"`
	Shape           string   `yaml:"shape"`
	HalfExtents     Vec3     `yaml:"half_extents,flow,omitempty"`
	Radius          float64  `yaml:"radius,omitempty"`
	Mass            float64  `yaml:"mass"`
	Position        Vec3     `yaml:"position,flow"`
	Velocity        Vec3     `yaml:"velocity,flow,omitempty"`
	AngularVelocity Vec3     `yaml:"angular_velocity,flow,omitempty"`
	LinearDamping   *float64 `yaml:"linear_damping,omitempty"`
	AngularDamping  *float64 `yaml:"angular_damping,omitempty"`
	Material        string   `yaml:"material,omitempty"`
	Color           uint32   `yaml:"color"`
	Wireframe       bool     `yaml:"wireframe,omitempty"`
}

type ContactMaterialConfig struct {
	A           string   `yaml:"a"`
	B           string   `yaml:"b"`
	Friction    *float64 `yaml:"friction,omitempty"`
	Restitution *float64 `yaml:"restitution,omitempty"`
}

type ChainConfig struct {
	Count          int     `yaml:"count"`
	Size           float64 `yaml:"size"`
	Space          float64 `yaml:"space"`
	Mass           float64 `yaml:"mass"`
	Height         float64 `yaml:"height"`
	Anchors        bool    `yaml:"anchors"`
	ConnectAnchors bool    `yaml:"connect_anchors"`
	Color          uint32  `yaml:"color"`
}

type GridConfig struct {
	Rows           int     `yaml:"rows"`
	Cols           int     `yaml:"cols"`
	Distance       float64 `yaml:"distance"`
	Mass           float64 `yaml:"mass"`
	Height         float64 `yaml:"height"`
	ParticleRadius float64 `yaml:"particle_radius"`
	Color          uint32  `yaml:"color"`
}

type PickingConfig struct {
	Enabled        bool    `yaml:"enabled"`
	Radius         float64 `yaml:"radius"`
	Mass           float64 `yaml:"mass"`
	Restitution    float64 `yaml:"restitution"`
	RandomColor    bool    `yaml:"random_color"`
	Color          uint32  `yaml:"color"`
	GroundMaterial string  `yaml:"ground_material"`
}

type ClickConfig struct {
	Tick int     `yaml:"tick"`
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
}

// DefaultConfig returns an empty scene with the shared simulation settings.
func DefaultConfig() *Config {
	return &Config{
		Scene:    "custom",
		Timestep: DefaultTimestep,
		Ticks:    DefaultTicks,
		Substeps: DefaultSubsteps,
		Gravity:  StandardGravity,
		Camera: CameraConfig{
			Position: Vec3{0, 20, -50},
			FOV:      DefaultFOV,
			Near:     DefaultNear,
			Far:      DefaultFar,
		},
		Viewport: ViewportConfig{Width: DefaultWidth, Height: DefaultHeight},
	}
}

// Load reads a YAML scene. When the file names a bundled scene, the preset is
// used as the base and the file overrides it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var head struct {
		Scene string `yaml:"scene"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return nil, err
	}
	cfg := GetPreset(head.Scene)
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks values the builder cannot recover from. Geometry agreement
// between bodies and meshes is not checked.
func (c *Config) Validate() error {
	if c.Timestep <= 0 || math.IsNaN(c.Timestep) || math.IsInf(c.Timestep, 0) {
		return fmt.Errorf("%w: timestep must be positive, got %v", ErrInvalidConfig, c.Timestep)
	}
	if c.Ticks < 0 {
		return fmt.Errorf("%w: ticks must not be negative", ErrInvalidConfig)
	}
	for i, b := range c.Bodies {
		switch b.Shape {
		case "box", "sphere", "particle":
		default:
			return fmt.Errorf("%w: body %d (%s): unknown shape %q", ErrInvalidConfig, i, b.Name, b.Shape)
		}
		if b.Mass < 0 {
			return fmt.Errorf("%w: body %d (%s): negative mass", ErrInvalidConfig, i, b.Name)
		}
	}
	if c.Chain != nil && c.Chain.Count < 1 {
		return fmt.Errorf("%w: chain needs at least one body", ErrInvalidConfig)
	}
	if c.Grid != nil && (c.Grid.Rows < 1 || c.Grid.Cols < 1) {
		return fmt.Errorf("%w: grid needs at least one row and column", ErrInvalidConfig)
	}
	if c.Picking != nil && c.Picking.Enabled && c.Picking.Radius <= 0 {
		return fmt.Errorf("%w: picking radius must be positive", ErrInvalidConfig)
	}
	known := c.MaterialNames()
	for _, cm := range c.ContactMaterials {
		if !known[cm.A] || !known[cm.B] {
			return fmt.Errorf("%w: contact material %s/%s references an unknown material", ErrInvalidConfig, cm.A, cm.B)
		}
	}
	return nil
}

// MaterialNames lists every material named by the ground and bodies.
func (c *Config) MaterialNames() map[string]bool {
	names := make(map[string]bool)
	if c.Ground != nil && c.Ground.Material != "" {
		names[c.Ground.Material] = true
	}
	for _, b := range c.Bodies {
		if b.Material != "" {
			names[b.Material] = true
		}
	}
	return names
}

// PickingEnabled reports whether clicks spawn bodies in this scene.
func (c *Config) PickingEnabled() bool {
	return c.Picking != nil && c.Picking.Enabled
}
