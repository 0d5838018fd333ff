package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type BodyType int

const (
	Dynamic BodyType = iota
	Static
)

const (
	DefaultLinearDamping  = 0.01
	DefaultAngularDamping = 0.01
)

// Body is a simulated rigid body or particle.
type Body struct {
	ID       int
	Type     BodyType
	Mass     float64
	Shape    Shape
	Material *Material

	Position        mgl64.Vec3
	Quaternion      mgl64.Quat
	Velocity        mgl64.Vec3
	AngularVelocity mgl64.Vec3

	LinearDamping  float64
	AngularDamping float64

	invMass    float64
	invInertia mgl64.Vec3

	prevPosition   mgl64.Vec3
	prevQuaternion mgl64.Quat
	preVelocity    mgl64.Vec3
	preAngular     mgl64.Vec3
}

// NewBody creates a body at the origin with identity orientation. Zero mass
// makes the body static.
func NewBody(mass float64, shape Shape) *Body {
	b := &Body{
		Mass:           mass,
		Shape:          shape,
		Quaternion:     mgl64.QuatIdent(),
		LinearDamping:  DefaultLinearDamping,
		AngularDamping: DefaultAngularDamping,
	}
	b.updateMassProperties()
	return b
}

func (b *Body) IsStatic() bool { return b.Type == Static }

// SetMass changes the mass and the derived body type.
func (b *Body) SetMass(mass float64) {
	b.Mass = mass
	b.updateMassProperties()
}

func (b *Body) updateMassProperties() {
	if b.Mass <= 0 || math.IsInf(b.Mass, 0) || math.IsNaN(b.Mass) {
		b.Type = Static
		b.invMass = 0
		b.invInertia = mgl64.Vec3{}
		return
	}
	b.Type = Dynamic
	b.invMass = 1 / b.Mass
	b.invInertia = b.Shape.inverseInertia(b.Mass)
}

func (b *Body) rotatable() bool {
	return b.invInertia != (mgl64.Vec3{})
}

// PointToWorld converts a point in the body frame to world coordinates.
func (b *Body) PointToWorld(local mgl64.Vec3) mgl64.Vec3 {
	return b.Position.Add(b.Quaternion.Rotate(local))
}

// PointToLocal converts a world point to the body frame.
func (b *Body) PointToLocal(world mgl64.Vec3) mgl64.Vec3 {
	return b.Quaternion.Conjugate().Rotate(world.Sub(b.Position))
}

// KineticEnergy returns the translational plus rotational kinetic energy.
func (b *Body) KineticEnergy() float64 {
	if b.IsStatic() {
		return 0
	}
	e := 0.5 * b.Mass * b.Velocity.LenSqr()
	if b.rotatable() {
		w := b.Quaternion.Conjugate().Rotate(b.AngularVelocity)
		for i := 0; i < 3; i++ {
			if b.invInertia[i] != 0 {
				e += 0.5 * w[i] * w[i] / b.invInertia[i]
			}
		}
	}
	return e
}

// applyInverseInertia computes I^-1 v in world space.
func (b *Body) applyInverseInertia(v mgl64.Vec3) mgl64.Vec3 {
	local := b.Quaternion.Conjugate().Rotate(v)
	local = mgl64.Vec3{local[0] * b.invInertia[0], local[1] * b.invInertia[1], local[2] * b.invInertia[2]}
	return b.Quaternion.Rotate(local)
}

// generalizedInverseMass is w = 1/m + (r x n)^T I^-1 (r x n).
func (b *Body) generalizedInverseMass(r, n mgl64.Vec3) float64 {
	if b.IsStatic() {
		return 0
	}
	w := b.invMass
	if b.rotatable() {
		rn := r.Cross(n)
		w += rn.Dot(b.applyInverseInertia(rn))
	}
	return w
}

// rotate applies a world-space rotation vector to the orientation.
func (b *Body) rotate(dw mgl64.Vec3) {
	angle := dw.Len()
	if angle < 1e-15 {
		return
	}
	dq := mgl64.QuatRotate(angle, dw.Mul(1/angle))
	b.Quaternion = dq.Mul(b.Quaternion).Normalize()
}

func (b *Body) integrate(h float64, gravity mgl64.Vec3) {
	b.prevPosition = b.Position
	b.prevQuaternion = b.Quaternion

	b.Velocity = b.Velocity.Add(gravity.Mul(h))
	b.Velocity = b.Velocity.Mul(math.Pow(1-b.LinearDamping, h))
	b.Position = b.Position.Add(b.Velocity.Mul(h))

	if b.rotatable() {
		b.AngularVelocity = b.AngularVelocity.Mul(math.Pow(1-b.AngularDamping, h))
		b.rotate(b.AngularVelocity.Mul(h))
	}

	b.preVelocity = b.Velocity
	b.preAngular = b.AngularVelocity
}

func (b *Body) deriveVelocity(h float64) {
	b.Velocity = b.Position.Sub(b.prevPosition).Mul(1 / h)
	if !b.rotatable() {
		return
	}
	dq := b.Quaternion.Mul(b.prevQuaternion.Conjugate())
	if dq.W < 0 {
		dq = dq.Scale(-1)
	}
	s := dq.V.Len()
	if s < 1e-15 {
		b.AngularVelocity = dq.V.Mul(2 / h)
		return
	}
	angle := 2 * math.Atan2(s, dq.W)
	b.AngularVelocity = dq.V.Mul(angle / (s * h))
}

// velocityAt returns the world velocity of the point at offset r from the centre.
func (b *Body) velocityAt(r mgl64.Vec3) mgl64.Vec3 {
	return b.Velocity.Add(b.AngularVelocity.Cross(r))
}

func (b *Body) preVelocityAt(r mgl64.Vec3) mgl64.Vec3 {
	return b.preVelocity.Add(b.preAngular.Cross(r))
}

func (b *Body) applyPositionImpulse(p, r mgl64.Vec3, sign float64) {
	if b.IsStatic() {
		return
	}
	b.Position = b.Position.Add(p.Mul(sign * b.invMass))
	if b.rotatable() {
		b.rotate(b.applyInverseInertia(r.Cross(p)).Mul(sign))
	}
}

func (b *Body) applyVelocityImpulse(p, r mgl64.Vec3, sign float64) {
	if b.IsStatic() {
		return
	}
	b.Velocity = b.Velocity.Add(p.Mul(sign * b.invMass))
	if b.rotatable() {
		b.AngularVelocity = b.AngularVelocity.Add(b.applyInverseInertia(r.Cross(p)).Mul(sign))
	}
}
