package physics

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

type ShapeKind int

const (
	ShapeParticle ShapeKind = iota
	ShapeSphere
	ShapeBox
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeParticle:
		return "particle"
	case ShapeSphere:
		return "sphere"
	case ShapeBox:
		return "box"
	default:
		return fmt.Sprintf("shape(%d)", int(k))
	}
}

// Shape describes the collision geometry of a body in its local frame.
type Shape struct {
	Kind        ShapeKind
	Radius      float64
	HalfExtents mgl64.Vec3
}

func NewParticle() Shape { return Shape{Kind: ShapeParticle} }

func NewSphere(radius float64) Shape { return Shape{Kind: ShapeSphere, Radius: radius} }

// NewBox takes half extents, so a 2x2x2 visual cube needs NewBox({1, 1, 1}).
func NewBox(halfExtents mgl64.Vec3) Shape { return Shape{Kind: ShapeBox, HalfExtents: halfExtents} }

// radius is the contact radius used for point-like tests; particles are points.
func (s Shape) radius() float64 {
	if s.Kind == ShapeSphere {
		return s.Radius
	}
	return 0
}

// inverseInertia returns the diagonal of the local inverse inertia tensor.
// Particles have no rotational degrees of freedom.
func (s Shape) inverseInertia(mass float64) mgl64.Vec3 {
	if mass <= 0 {
		return mgl64.Vec3{}
	}
	switch s.Kind {
	case ShapeSphere:
		if s.Radius <= 0 {
			return mgl64.Vec3{}
		}
		i := 2.0 / 5.0 * mass * s.Radius * s.Radius
		return mgl64.Vec3{1 / i, 1 / i, 1 / i}
	case ShapeBox:
		h := s.HalfExtents
		ix := mass / 3 * (h.Y()*h.Y() + h.Z()*h.Z())
		iy := mass / 3 * (h.X()*h.X() + h.Z()*h.Z())
		iz := mass / 3 * (h.X()*h.X() + h.Y()*h.Y())
		return mgl64.Vec3{invOrZero(ix), invOrZero(iy), invOrZero(iz)}
	default:
		return mgl64.Vec3{}
	}
}

// corners returns the eight box vertices in the local frame.
func (s Shape) corners() [8]mgl64.Vec3 {
	h := s.HalfExtents
	var out [8]mgl64.Vec3
	for i := 0; i < 8; i++ {
		x, y, z := h.X(), h.Y(), h.Z()
		if i&1 != 0 {
			x = -x
		}
		if i&2 != 0 {
			y = -y
		}
		if i&4 != 0 {
			z = -z
		}
		out[i] = mgl64.Vec3{x, y, z}
	}
	return out
}

func invOrZero(v float64) float64 {
	if v == 0 {
		return 0
	}
	return 1 / v
}
