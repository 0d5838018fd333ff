package world

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/rigidlab/internal/config"
	"github.com/san-kum/rigidlab/internal/logger"
	"github.com/san-kum/rigidlab/internal/physics"
	"github.com/san-kum/rigidlab/internal/scene"
)

const defaultParticleRadius = 0.1

// Builder turns a scene configuration into a populated World.
type Builder struct {
	log *log.Logger
}

func NewBuilder(l *log.Logger) *Builder {
	return &Builder{log: logger.OrDiscard(l)}
}

// Build creates the ground, named bodies, grid and chain, then registers the
// contact materials. Everything is in place before the first step.
func (b *Builder) Build(cfg *config.Config) (*World, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", config.ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	w := newWorld(cfg, b.log.With("scene", cfg.Scene))

	if cfg.Ground != nil {
		if err := w.addGround(cfg.Ground); err != nil {
			return nil, fmt.Errorf("ground: %w", err)
		}
	}
	for _, bc := range cfg.Bodies {
		if _, err := w.Spawn(bc, vec(bc.Position)); err != nil {
			return nil, fmt.Errorf("body %s: %w", bc.Name, err)
		}
	}
	if cfg.Grid != nil {
		if err := w.addGrid(cfg.Grid); err != nil {
			return nil, fmt.Errorf("grid: %w", err)
		}
	}
	if cfg.Chain != nil {
		if err := w.addChain(cfg.Chain); err != nil {
			return nil, fmt.Errorf("chain: %w", err)
		}
	}
	for _, cmc := range cfg.ContactMaterials {
		cm := physics.NewContactMaterial(w.Material(cmc.A), w.Material(cmc.B), physics.ContactOptions{
			Friction:    cmc.Friction,
			Restitution: cmc.Restitution,
		})
		if err := w.Physics.AddContactMaterial(cm); err != nil {
			return nil, fmt.Errorf("contact material %s/%s: %w", cmc.A, cmc.B, err)
		}
	}

	w.log.Info("scene built",
		"entities", len(w.Entities),
		"constraints", len(w.Physics.Constraints),
		"contact_materials", len(w.Physics.ContactMaterials()))
	return w, nil
}

// addGround creates a static box and shows it as a plane of the same extent.
func (w *World) addGround(gc *config.GroundConfig) error {
	h := vec(gc.HalfExtents)
	body := physics.NewBody(0, physics.NewBox(h))
	body.Position = vec(gc.Position)
	body.Quaternion = mgl64.AnglesToQuat(gc.Euler[0], gc.Euler[1], gc.Euler[2], mgl64.XYZ)
	body.Material = w.Material(gc.Material)

	mesh := scene.NewMesh(scene.PlaneGeometry(2*h.X(), 2*h.Y()),
		scene.Material{Color: gc.Color, Wireframe: gc.Wireframe})
	e, err := w.Append("ground", body, mesh, gc.Synced)
	if err != nil {
		return err
	}
	w.Ground = e
	return nil
}

// GridPosition returns where particle (i, j) of a cols x rows grid starts.
func GridPosition(gc *config.GridConfig, i, j int) mgl64.Vec3 {
	return mgl64.Vec3{
		-(float64(i) - float64(gc.Cols)*0.5) * gc.Distance,
		gc.Height,
		(float64(j) - float64(gc.Rows)*0.5) * gc.Distance,
	}
}

// addGrid lays out particles and ties each to its right and lower neighbour.
func (w *World) addGrid(gc *config.GridConfig) error {
	r := gc.ParticleRadius
	if r <= 0 {
		r = defaultParticleRadius
	}
	particles := make([][]*physics.Body, gc.Cols)
	for i := 0; i < gc.Cols; i++ {
		particles[i] = make([]*physics.Body, gc.Rows)
		for j := 0; j < gc.Rows; j++ {
			body := physics.NewBody(gc.Mass, physics.NewParticle())
			body.Position = GridPosition(gc, i, j)
			mesh := scene.NewMesh(scene.SphereGeometry(r), scene.Material{Color: gc.Color})
			if _, err := w.Append(fmt.Sprintf("particle-%d-%d", i, j), body, mesh, true); err != nil {
				return err
			}
			particles[i][j] = body
		}
	}

	link := func(a, b *physics.Body) error {
		c, err := physics.NewDistanceConstraint(a, b, gc.Distance)
		if err != nil {
			return err
		}
		if err := w.Physics.AddConstraint(c); err != nil {
			return err
		}
		w.GridLinks = append(w.GridLinks, c)
		return nil
	}
	for i := 0; i < gc.Cols; i++ {
		for j := 0; j < gc.Rows; j++ {
			if i < gc.Cols-1 {
				if err := link(particles[i][j], particles[i+1][j]); err != nil {
					return err
				}
			}
			if j < gc.Rows-1 {
				if err := link(particles[i][j], particles[i][j+1]); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// ChainStep is the distance between neighbouring chain box centres.
func ChainStep(cc *config.ChainConfig) float64 {
	return cc.Size*2 + cc.Space*2
}

// ChainX returns the x coordinate of chain box i.
func ChainX(cc *config.ChainConfig, i int) float64 {
	return (float64(i) - float64(cc.Count)/2) * ChainStep(cc)
}

// addChain stacks Count boxes along x, locks each to its predecessor and
// places the two anchors on the floor below the chain ends.
func (w *World) addChain(cc *config.ChainConfig) error {
	half := mgl64.Vec3{cc.Size, cc.Size, cc.Size}
	geom := scene.BoxGeometry(2*cc.Size, 2*cc.Size, 2*cc.Size)

	links := make([]*physics.Body, 0, cc.Count)
	var prev *physics.Body
	for i := 0; i < cc.Count; i++ {
		body := physics.NewBody(cc.Mass, physics.NewBox(half))
		body.Position = mgl64.Vec3{ChainX(cc, i), cc.Height, 0}
		mesh := scene.NewMesh(geom, scene.Material{Color: cc.Color})
		if _, err := w.Append(fmt.Sprintf("link-%d", i), body, mesh, true); err != nil {
			return err
		}
		if prev != nil {
			c, err := physics.NewLockConstraint(body, prev)
			if err != nil {
				return err
			}
			if err := w.Physics.AddConstraint(c); err != nil {
				return err
			}
			w.ChainLinks = append(w.ChainLinks, c)
		}
		links = append(links, body)
		prev = body
	}

	if !cc.Anchors {
		return nil
	}

	step := ChainStep(cc)
	n := float64(cc.Count)
	// left sits under the last box, right under the first
	anchors := []struct {
		name string
		x    float64
		end  *physics.Body
	}{
		{"anchor-left", (n/2 - 1) * step, links[len(links)-1]},
		{"anchor-right", -(n / 2) * step, links[0]},
	}
	for _, a := range anchors {
		body := physics.NewBody(0, physics.NewBox(half))
		body.Position = mgl64.Vec3{a.x, 0, 0}
		mesh := scene.NewMesh(geom, scene.Material{Color: cc.Color})
		if _, err := w.Append(a.name, body, mesh, true); err != nil {
			return err
		}
		if !cc.ConnectAnchors {
			continue
		}
		c, err := physics.NewLockConstraint(body, a.end)
		if err != nil {
			return err
		}
		if err := w.Physics.AddConstraint(c); err != nil {
			return err
		}
		w.AnchorLinks = append(w.AnchorLinks, c)
	}
	if !cc.ConnectAnchors {
		w.log.Warn("chain anchors are placed but not attached; the chain will fall", "count", cc.Count)
	}
	return nil
}
