package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// contact pushes body a along normal away from body b.
type contact struct {
	a, b   *Body
	normal mgl64.Vec3
	rA, rB mgl64.Vec3
	depth  float64

	friction    float64
	restitution float64
	lambda      float64
}

// detectContacts finds contacts for dynamic bodies against static bodies,
// between dynamic spheres and between a dynamic sphere and a dynamic box.
// Dynamic box pairs and particles do not collide with each other.
func (w *World) detectContacts() []*contact {
	contacts := w.contacts[:0]
	for i, a := range w.Bodies {
		if a.IsStatic() {
			continue
		}
		for j, b := range w.Bodies {
			if i == j {
				continue
			}
			if b.IsStatic() {
				contacts = w.collide(contacts, a, b)
				continue
			}
			// dynamic pairs are visited once
			if j < i {
				continue
			}
			switch {
			case a.Shape.Kind == ShapeSphere && b.Shape.Kind == ShapeSphere:
				contacts = w.collide(contacts, a, b)
			case a.Shape.Kind == ShapeSphere && b.Shape.Kind == ShapeBox:
				contacts = w.collide(contacts, a, b)
			case a.Shape.Kind == ShapeBox && b.Shape.Kind == ShapeSphere:
				// the sphere is pushed off the box's closest point, which
				// covers faces, edges and corners
				contacts = w.collide(contacts, b, a)
			}
		}
	}
	w.contacts = contacts
	return contacts
}

func (w *World) collide(out []*contact, a, b *Body) []*contact {
	switch a.Shape.Kind {
	case ShapeSphere, ShapeParticle:
		if c, ok := pointContact(a.Position, a.Shape.radius(), b); ok {
			c.a, c.b = a, b
			c.rA = c.normal.Mul(-a.Shape.radius())
			out = append(out, w.withMaterial(c))
		}
	case ShapeBox:
		for _, corner := range a.Shape.corners() {
			p := a.PointToWorld(corner)
			if c, ok := pointContact(p, 0, b); ok {
				c.a, c.b = a, b
				c.rA = p.Sub(a.Position)
				out = append(out, w.withMaterial(c))
			}
		}
	}
	return out
}

func (w *World) withMaterial(c *contact) *contact {
	cm := w.ContactMaterialFor(c.a.Material, c.b.Material)
	c.friction = cm.Friction
	c.restitution = cm.Restitution
	return c
}

// pointContact tests a sphere of radius r centred at p against body b.
// rB is filled in; rA is left to the caller.
func pointContact(p mgl64.Vec3, r float64, b *Body) (*contact, bool) {
	switch b.Shape.Kind {
	case ShapeSphere:
		d := p.Sub(b.Position)
		dist := d.Len()
		limit := r + b.Shape.Radius
		if dist >= limit {
			return nil, false
		}
		n := mgl64.Vec3{0, 1, 0}
		if dist > epsilon {
			n = d.Mul(1 / dist)
		}
		return &contact{normal: n, depth: limit - dist, rB: n.Mul(b.Shape.Radius)}, true
	case ShapeBox:
		return boxContact(p, r, b)
	default:
		return nil, false
	}
}

func boxContact(p mgl64.Vec3, r float64, b *Body) (*contact, bool) {
	h := b.Shape.HalfExtents
	local := b.PointToLocal(p)
	closest := mgl64.Vec3{
		clamp(local[0], -h[0], h[0]),
		clamp(local[1], -h[1], h[1]),
		clamp(local[2], -h[2], h[2]),
	}

	if closest != local {
		d := local.Sub(closest)
		dist := d.Len()
		if dist >= r || dist < epsilon {
			return nil, false
		}
		n := b.Quaternion.Rotate(d.Mul(1 / dist))
		return &contact{normal: n, depth: r - dist, rB: b.Quaternion.Rotate(closest)}, true
	}

	// inside: leave through the nearest face
	axis, best := 0, math.Inf(1)
	for i := 0; i < 3; i++ {
		if d := h[i] - math.Abs(local[i]); d < best {
			axis, best = i, d
		}
	}
	var nLocal mgl64.Vec3
	nLocal[axis] = 1
	if local[axis] < 0 {
		nLocal[axis] = -1
	}
	surface := local
	surface[axis] = nLocal[axis] * h[axis]
	return &contact{
		normal: b.Quaternion.Rotate(nLocal),
		depth:  best + r,
		rB:     b.Quaternion.Rotate(surface),
	}, true
}

func (c *contact) solvePosition() {
	// recompute penetration along the normal from the current poses
	pA := c.a.Position.Add(c.rA)
	pB := c.b.Position.Add(c.rB)
	depth := pB.Sub(pA).Dot(c.normal)
	if depth <= 0 {
		return
	}
	c.lambda += applyPositionalCorrection(c.a, c.b, c.normal.Mul(-depth), c.rA, c.rB)
}

func (c *contact) solveVelocity(h float64, gravity mgl64.Vec3) {
	if c.lambda == 0 {
		return
	}
	v := c.a.velocityAt(c.rA).Sub(c.b.velocityAt(c.rB))
	vn := c.normal.Dot(v)
	vt := v.Sub(c.normal.Mul(vn))

	dv := mgl64.Vec3{}
	if speed := vt.Len(); speed > epsilon {
		fn := math.Abs(c.lambda) / h
		dv = vt.Mul(-math.Min(c.friction*fn, speed) / speed)
	}

	pre := c.normal.Dot(c.a.preVelocityAt(c.rA).Sub(c.b.preVelocityAt(c.rB)))
	e := c.restitution
	if math.Abs(vn) <= 2*gravity.Len()*h {
		e = 0
	}
	dv = dv.Add(c.normal.Mul(-vn + math.Max(-e*pre, 0)))

	mag := dv.Len()
	if mag < epsilon {
		return
	}
	n := dv.Mul(1 / mag)
	w := c.a.generalizedInverseMass(c.rA, n) + c.b.generalizedInverseMass(c.rB, n)
	if w == 0 {
		return
	}
	p := dv.Mul(1 / w)
	c.a.applyVelocityImpulse(p, c.rA, 1)
	c.b.applyVelocityImpulse(p, c.rB, -1)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
