// Package picking turns pointer input into world points and spawns spheres
// where the user clicks.
package picking

import (
	"fmt"
	"math/rand"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/rigidlab/internal/config"
	"github.com/san-kum/rigidlab/internal/events"
	"github.com/san-kum/rigidlab/internal/logger"
	"github.com/san-kum/rigidlab/internal/physics"
	"github.com/san-kum/rigidlab/internal/scene"
	"github.com/san-kum/rigidlab/internal/world"
)

type Picker struct {
	world *world.World
	cfg   config.PickingConfig
	rng   *rand.Rand

	point   mgl64.Vec3
	spawned []*world.Entity
	subs    events.Subscriptions
	log     *log.Logger
}

// New returns a picker for w using the scene's picking settings.
func New(w *world.World, l *log.Logger) (*Picker, error) {
	if w == nil {
		return nil, fmt.Errorf("picking: nil world")
	}
	if !w.Config.PickingEnabled() {
		return nil, fmt.Errorf("picking: disabled for scene %s", w.Config.Scene)
	}
	return &Picker{
		world:   w,
		cfg:     *w.Config.Picking,
		rng:     rand.New(rand.NewSource(w.Config.Seed)),
		spawned: make([]*world.Entity, 0),
		log:     logger.OrDiscard(l),
	}, nil
}

// Attach subscribes to pointer and click events. A second Attach replaces
// the first.
func (p *Picker) Attach(bus *events.Bus) {
	p.Detach()
	p.subs = events.Subscriptions{
		bus.Subscribe(events.PointerMove, func(e events.Event) { p.Move(e.X, e.Y) }),
		bus.Subscribe(events.Click, func(events.Event) {
			if _, err := p.Click(); err != nil {
				p.log.Error("spawn failed", "err", err)
			}
		}),
	}
}

func (p *Picker) Detach() {
	p.subs.Unsubscribe()
	p.subs = nil
}

// Plane is the pick surface: through the origin, facing the camera.
func (p *Picker) Plane() scene.Plane {
	n := p.world.Camera.Position
	if n.Len() > 0 {
		n = n.Normalize()
	}
	return scene.PlaneFromNormalAndPoint(n, p.world.Scene.Position)
}

// Move casts a ray through viewport pixel (x, y). On a hit the point is
// stored; on a miss the previous point is kept.
func (p *Picker) Move(x, y float64) (mgl64.Vec3, bool) {
	ndc := p.world.Viewport.NDC(x, y)
	var rc scene.Raycaster
	rc.SetFromCamera(ndc, p.world.Camera)
	hit, ok := rc.Ray.IntersectPlane(p.Plane())
	if ok {
		p.point = hit
	}
	return p.point, ok
}

// Point is the last picked point, the origin before any hit.
func (p *Picker) Point() mgl64.Vec3 { return p.point }

// Click spawns a sphere at the last picked point with its own material and
// a bouncy contact against the ground.
func (p *Picker) Click() (*world.Entity, error) {
	n := len(p.spawned)
	name := fmt.Sprintf("pick-%d", n)
	color := p.cfg.Color
	if p.cfg.RandomColor {
		color = uint32(p.rng.Int63()) & 0xffffff
	}

	e, err := p.world.Spawn(config.BodyConfig{
		Name:     name,
		Shape:    "sphere",
		Radius:   p.cfg.Radius,
		Mass:     p.cfg.Mass,
		Material: name,
		Color:    color,
	}, p.point)
	if err != nil {
		return nil, err
	}

	if ground := p.world.Material(p.cfg.GroundMaterial); ground != nil {
		restitution := p.cfg.Restitution
		cm := physics.NewContactMaterial(ground, e.Body.Material, physics.ContactOptions{Restitution: &restitution})
		if err := p.world.Physics.AddContactMaterial(cm); err != nil {
			return nil, err
		}
	}

	p.spawned = append(p.spawned, e)
	p.log.Debug("sphere spawned", "name", name, "x", p.point.X(), "y", p.point.Y(), "z", p.point.Z())
	return e, nil
}

// Spawned lists the spheres created so far, oldest first.
func (p *Picker) Spawned() []*world.Entity { return p.spawned }
