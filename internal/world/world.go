// Package world builds paired physics bodies and scene meshes from a scene
// configuration.
package world

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/san-kum/rigidlab/internal/config"
	"github.com/san-kum/rigidlab/internal/physics"
	"github.com/san-kum/rigidlab/internal/scene"
)

// Entity owns one body and the mesh that shows it.
type Entity struct {
	ID     uuid.UUID
	Name   string
	Body   *physics.Body
	Mesh   *scene.Mesh
	Synced bool
}

// Sync copies the body pose onto the mesh.
func (e *Entity) Sync() {
	e.Mesh.SetPose(e.Body.Position, e.Body.Quaternion)
}

// InSync reports whether the mesh shows the body's current pose exactly.
func (e *Entity) InSync() bool {
	return e.Mesh.Position == e.Body.Position && e.Mesh.Quaternion == e.Body.Quaternion
}

type World struct {
	Config   *config.Config
	Physics  *physics.World
	Scene    *scene.Scene
	Camera   *scene.Camera
	Viewport scene.Viewport

	Entities []*Entity
	Ground   *Entity

	ChainLinks  []*physics.LockConstraint
	AnchorLinks []*physics.LockConstraint
	GridLinks   []*physics.DistanceConstraint

	materials map[string]*physics.Material
	byName    map[string]*Entity
	log       *log.Logger
}

func newWorld(cfg *config.Config, logger *log.Logger) *World {
	pw := physics.NewWorld(vec(cfg.Gravity))
	if cfg.Substeps > 0 {
		pw.Substeps = cfg.Substeps
	}
	vp := scene.Viewport{Width: cfg.Viewport.Width, Height: cfg.Viewport.Height}

	return &World{
		Config:    cfg,
		Physics:   pw,
		Scene:     scene.New(),
		Camera:    NewCamera(cfg),
		Viewport:  vp,
		Entities:  make([]*Entity, 0),
		materials: make(map[string]*physics.Material),
		byName:    make(map[string]*Entity),
		log:       logger,
	}
}

// NewCamera builds the scene camera for cfg, sized to its viewport.
func NewCamera(cfg *config.Config) *scene.Camera {
	aspect := 1.0
	if cfg.Viewport.Width > 0 && cfg.Viewport.Height > 0 {
		aspect = cfg.Viewport.Width / cfg.Viewport.Height
	}
	cam := scene.NewCamera(cfg.Camera.FOV, aspect, cfg.Camera.Near, cfg.Camera.Far)
	cam.Position = vec(cfg.Camera.Position)
	cam.Target = vec(cfg.Camera.Target)
	return cam
}

// Append registers the body with the physics world and the mesh with the
// scene. On error neither is added.
func (w *World) Append(name string, body *physics.Body, mesh *scene.Mesh, synced bool) (*Entity, error) {
	if body == nil {
		return nil, physics.ErrNilBody
	}
	if mesh == nil {
		return nil, fmt.Errorf("world: entity %q has no mesh", name)
	}
	if err := w.Physics.AddBody(body); err != nil {
		return nil, err
	}
	mesh.Name = name
	mesh.SetPose(body.Position, body.Quaternion)
	w.Scene.Add(mesh)

	e := &Entity{ID: uuid.New(), Name: name, Body: body, Mesh: mesh, Synced: synced}
	w.Entities = append(w.Entities, e)
	if name != "" {
		w.byName[name] = e
	}
	w.log.Debug("entity added", "name", name, "shape", body.Shape.Kind, "mass", body.Mass)
	return e, nil
}

// Entity looks up the most recent entity with the given name.
func (w *World) Entity(name string) (*Entity, bool) {
	e, ok := w.byName[name]
	return e, ok
}

// Material returns the named material, creating it on first use. The empty
// name means no material.
func (w *World) Material(name string) *physics.Material {
	if name == "" {
		return nil
	}
	if m, ok := w.materials[name]; ok {
		return m
	}
	m := physics.NewMaterial(name)
	w.materials[name] = m
	return m
}

// Spawn builds one body/mesh pair from bc and places it at pos.
func (w *World) Spawn(bc config.BodyConfig, pos mgl64.Vec3) (*Entity, error) {
	shape, geom, err := shapeFor(bc)
	if err != nil {
		return nil, err
	}
	body := physics.NewBody(bc.Mass, shape)
	body.Position = pos
	body.Velocity = vec(bc.Velocity)
	body.AngularVelocity = vec(bc.AngularVelocity)
	if bc.LinearDamping != nil {
		body.LinearDamping = *bc.LinearDamping
	}
	if bc.AngularDamping != nil {
		body.AngularDamping = *bc.AngularDamping
	}
	body.Material = w.Material(bc.Material)

	mesh := scene.NewMesh(geom, scene.Material{Color: bc.Color, Wireframe: bc.Wireframe})
	return w.Append(bc.Name, body, mesh, true)
}

// Sync copies every synced body pose onto its mesh and returns how many
// entities were synced.
func (w *World) Sync() int {
	n := 0
	for _, e := range w.Entities {
		if e.Synced {
			e.Sync()
			n++
		}
	}
	return n
}

func shapeFor(bc config.BodyConfig) (physics.Shape, scene.Geometry, error) {
	switch bc.Shape {
	case "box":
		h := vec(bc.HalfExtents)
		return physics.NewBox(h), scene.BoxGeometry(2*h.X(), 2*h.Y(), 2*h.Z()), nil
	case "sphere":
		return physics.NewSphere(bc.Radius), scene.SphereGeometry(bc.Radius), nil
	case "particle":
		r := bc.Radius
		if r <= 0 {
			r = defaultParticleRadius
		}
		return physics.NewParticle(), scene.SphereGeometry(r), nil
	}
	return physics.Shape{}, scene.Geometry{}, fmt.Errorf("%w: unknown shape %q", config.ErrInvalidConfig, bc.Shape)
}

func vec(v config.Vec3) mgl64.Vec3 { return mgl64.Vec3{v[0], v[1], v[2]} }
