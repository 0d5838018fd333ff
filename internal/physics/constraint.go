package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const epsilon = 1e-12

// Constraint restricts the relative motion of two bodies.
type Constraint interface {
	Bodies() (*Body, *Body)
	solvePosition(h float64)
}

// DistanceConstraint keeps the centres of two bodies at a fixed separation.
// Rotation is free.
type DistanceConstraint struct {
	A, B     *Body
	Distance float64
}

func NewDistanceConstraint(a, b *Body, distance float64) (*DistanceConstraint, error) {
	if err := checkPair(a, b); err != nil {
		return nil, err
	}
	if distance < 0 || math.IsNaN(distance) {
		return nil, ErrNegativeDistance
	}
	return &DistanceConstraint{A: a, B: b, Distance: distance}, nil
}

func (c *DistanceConstraint) Bodies() (*Body, *Body) {
	if c == nil {
		return nil, nil
	}
	return c.A, c.B
}

func (c *DistanceConstraint) solvePosition(h float64) {
	delta := c.A.Position.Sub(c.B.Position)
	l := delta.Len()
	if l < epsilon {
		return
	}
	corr := delta.Mul((l - c.Distance) / l)
	applyPositionalCorrection(c.A, c.B, corr, mgl64.Vec3{}, mgl64.Vec3{})
}

// LockConstraint removes all relative motion between two bodies. The pivot is
// the midpoint between the two centres at creation time.
type LockConstraint struct {
	A, B *Body

	pivotA, pivotB mgl64.Vec3
	relative       mgl64.Quat
}

func NewLockConstraint(a, b *Body) (*LockConstraint, error) {
	if err := checkPair(a, b); err != nil {
		return nil, err
	}
	mid := a.Position.Add(b.Position).Mul(0.5)
	return &LockConstraint{
		A:        a,
		B:        b,
		pivotA:   a.PointToLocal(mid),
		pivotB:   b.PointToLocal(mid),
		relative: a.Quaternion.Conjugate().Mul(b.Quaternion),
	}, nil
}

func (c *LockConstraint) Bodies() (*Body, *Body) {
	if c == nil {
		return nil, nil
	}
	return c.A, c.B
}

func (c *LockConstraint) solvePosition(h float64) {
	// B's orientation target is A's orientation composed with the stored offset.
	target := c.A.Quaternion.Mul(c.relative)
	dq := target.Mul(c.B.Quaternion.Conjugate())
	phi := dq.V.Mul(2)
	if dq.W < 0 {
		phi = phi.Mul(-1)
	}
	applyAngularCorrection(c.A, c.B, phi)

	rA := c.A.Quaternion.Rotate(c.pivotA)
	rB := c.B.Quaternion.Rotate(c.pivotB)
	delta := c.A.Position.Add(rA).Sub(c.B.Position.Add(rB))
	applyPositionalCorrection(c.A, c.B, delta, rA, rB)
}

func checkPair(a, b *Body) error {
	if a == nil || b == nil {
		return ErrNilBody
	}
	if a == b {
		return ErrSameBody
	}
	return nil
}

// applyPositionalCorrection moves the attachment points of a and b (offsets
// rA and rB from the centres) so that delta = pointA - pointB vanishes. It
// returns the Lagrange multiplier of the correction.
func applyPositionalCorrection(a, b *Body, delta, rA, rB mgl64.Vec3) float64 {
	c := delta.Len()
	if c < epsilon {
		return 0
	}
	n := delta.Mul(1 / c)
	w := a.generalizedInverseMass(rA, n) + b.generalizedInverseMass(rB, n)
	if w == 0 {
		return 0
	}
	lambda := -c / w
	p := n.Mul(lambda)
	a.applyPositionImpulse(p, rA, 1)
	b.applyPositionImpulse(p, rB, -1)
	return lambda
}

// applyAngularCorrection rotates b by phi relative to a, split by inverse inertia.
func applyAngularCorrection(a, b *Body, phi mgl64.Vec3) {
	theta := phi.Len()
	if theta < epsilon {
		return
	}
	n := phi.Mul(1 / theta)
	w := 0.0
	if a.rotatable() {
		w += n.Dot(a.applyInverseInertia(n))
	}
	if b.rotatable() {
		w += n.Dot(b.applyInverseInertia(n))
	}
	if w == 0 {
		return
	}
	p := n.Mul(-theta / w)
	if a.rotatable() {
		a.rotate(a.applyInverseInertia(p))
	}
	if b.rotatable() {
		b.rotate(b.applyInverseInertia(p).Mul(-1))
	}
}
