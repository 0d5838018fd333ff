package physics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dt = 1.0 / 60

func newGround(t *testing.T, w *World, mat *Material) *Body {
	t.Helper()
	ground := NewBody(0, NewBox(mgl64.Vec3{5, 5, 0.1}))
	ground.Quaternion = mgl64.QuatRotate(-math.Pi/2, mgl64.Vec3{1, 0, 0})
	ground.Material = mat
	require.NoError(t, w.AddBody(ground))
	return ground
}

func TestStaticSceneIsUnchanged(t *testing.T) {
	w := NewWorld(mgl64.Vec3{0, -9.81, 0})
	bodies := []*Body{
		NewBody(0, NewBox(mgl64.Vec3{1, 1, 1})),
		NewBody(0, NewSphere(2)),
		NewBody(0, NewParticle()),
	}
	for i, b := range bodies {
		b.Position = mgl64.Vec3{float64(i), float64(2 * i), -1}
		b.Quaternion = mgl64.QuatRotate(0.3*float64(i), mgl64.Vec3{0, 1, 0})
		require.NoError(t, w.AddBody(b))
	}
	a, err := NewLockConstraint(bodies[0], bodies[1])
	require.NoError(t, err)
	require.NoError(t, w.AddConstraint(a))

	before := make([]mgl64.Vec3, len(bodies))
	orient := make([]mgl64.Quat, len(bodies))
	for i, b := range bodies {
		before[i], orient[i] = b.Position, b.Quaternion
	}

	for _, step := range []float64{dt, 0.5, 1e-4} {
		for i := 0; i < 100; i++ {
			require.NoError(t, w.Step(step))
		}
	}

	for i, b := range bodies {
		assert.Equal(t, before[i], b.Position)
		assert.Equal(t, orient[i], b.Quaternion)
		assert.True(t, b.IsStatic())
	}
}

func TestFreeFall(t *testing.T) {
	w := NewWorld(mgl64.Vec3{0, -9.81, 0})
	b := NewBody(1, NewParticle())
	b.LinearDamping = 0
	b.Position = mgl64.Vec3{0, 10, 0}
	require.NoError(t, w.AddBody(b))

	for i := 0; i < 60; i++ {
		require.NoError(t, w.Step(dt))
	}

	assert.InDelta(t, 10-0.5*9.81, b.Position.Y(), 0.05)
	assert.InDelta(t, -9.81, b.Velocity.Y(), 1e-6)
	assert.InDelta(t, 1.0, w.Time(), 1e-9)
	assert.Equal(t, 60, w.StepCount())
}

func TestStepRejectsInvalidTimestep(t *testing.T) {
	w := NewWorld(mgl64.Vec3{0, -9.81, 0})
	for _, bad := range []float64{0, -dt, math.NaN(), math.Inf(1)} {
		assert.ErrorIs(t, w.Step(bad), ErrInvalidTimestep)
	}
	assert.Equal(t, 0, w.StepCount())
}

func TestSphereRestsOnGround(t *testing.T) {
	w := NewWorld(mgl64.Vec3{0, -9.81, 0})
	newGround(t, w, nil)

	ball := NewBody(1, NewSphere(0.5))
	ball.Position = mgl64.Vec3{0, 2, 0}
	require.NoError(t, w.AddBody(ball))

	for i := 0; i < 300; i++ {
		require.NoError(t, w.Step(dt))
	}

	assert.InDelta(t, 0.6, ball.Position.Y(), 0.05)
	assert.Less(t, ball.Velocity.Len(), 0.1)
}

func TestRestitutionBounces(t *testing.T) {
	w := NewWorld(mgl64.Vec3{0, -9.81, 0})
	groundMat, ballMat := NewMaterial("ground"), NewMaterial("ball")
	newGround(t, w, groundMat)
	e := 1.0
	require.NoError(t, w.AddContactMaterial(NewContactMaterial(groundMat, ballMat, ContactOptions{Restitution: &e})))

	ball := NewBody(1, NewSphere(0.5))
	ball.Material = ballMat
	ball.Position = mgl64.Vec3{0, 2, 0}
	require.NoError(t, w.AddBody(ball))

	maxUp := 0.0
	for i := 0; i < 90; i++ {
		require.NoError(t, w.Step(dt))
		maxUp = math.Max(maxUp, ball.Velocity.Y())
	}
	assert.Greater(t, maxUp, 3.0)
}

func TestDistanceConstraintHoldsLength(t *testing.T) {
	w := NewWorld(mgl64.Vec3{0, -9.81, 0})
	pivot := NewBody(0, NewParticle())
	pivot.Position = mgl64.Vec3{0, 5, 0}
	bob := NewBody(1, NewParticle())
	bob.Position = mgl64.Vec3{1, 5, 0}
	require.NoError(t, w.AddBody(pivot))
	require.NoError(t, w.AddBody(bob))

	c, err := NewDistanceConstraint(pivot, bob, 1)
	require.NoError(t, err)
	require.NoError(t, w.AddConstraint(c))

	for i := 0; i < 120; i++ {
		require.NoError(t, w.Step(dt))
		require.InDelta(t, 1.0, bob.Position.Sub(pivot.Position).Len(), 0.02)
	}
	assert.Less(t, bob.Position.Y(), 5.0)
}

func TestLockConstraintHoldsPose(t *testing.T) {
	w := NewWorld(mgl64.Vec3{0, -9.81, 0})
	anchor := NewBody(0, NewBox(mgl64.Vec3{0.5, 0.5, 0.5}))
	box := NewBody(1, NewBox(mgl64.Vec3{0.5, 0.5, 0.5}))
	box.Position = mgl64.Vec3{1.1, 0, 0}
	require.NoError(t, w.AddBody(anchor))
	require.NoError(t, w.AddBody(box))

	lock, err := NewLockConstraint(box, anchor)
	require.NoError(t, err)
	require.NoError(t, w.AddConstraint(lock))

	for i := 0; i < 60; i++ {
		require.NoError(t, w.Step(dt))
	}

	assert.InDelta(t, 1.1, box.Position.X(), 0.02)
	assert.InDelta(t, 0, box.Position.Y(), 0.02)
	assert.InDelta(t, 1, math.Abs(box.Quaternion.W), 1e-3)
}

func TestConstraintValidation(t *testing.T) {
	a := NewBody(1, NewParticle())
	b := NewBody(1, NewParticle())

	_, err := NewLockConstraint(a, a)
	assert.ErrorIs(t, err, ErrSameBody)

	_, err = NewDistanceConstraint(a, nil, 1)
	assert.ErrorIs(t, err, ErrNilBody)

	_, err = NewDistanceConstraint(a, b, -1)
	assert.ErrorIs(t, err, ErrNegativeDistance)

	w := NewWorld(mgl64.Vec3{})
	assert.ErrorIs(t, w.AddBody(nil), ErrNilBody)
	assert.ErrorIs(t, w.AddContactMaterial(&ContactMaterial{A: NewMaterial("x")}), ErrNilMaterial)
}

func TestContactMaterialLookup(t *testing.T) {
	w := NewWorld(mgl64.Vec3{0, -9.81, 0})
	ground, box, other := NewMaterial("ground"), NewMaterial("box"), NewMaterial("other")

	friction := 0.04
	require.NoError(t, w.AddContactMaterial(NewContactMaterial(ground, box, ContactOptions{Friction: &friction})))

	got := w.ContactMaterialFor(box, ground)
	assert.Equal(t, 0.04, got.Friction)
	assert.Equal(t, DefaultRestitution, got.Restitution)

	def := w.ContactMaterialFor(ground, other)
	assert.Equal(t, DefaultFriction, def.Friction)
	assert.Equal(t, 0.0, def.Restitution)

	assert.Equal(t, w.DefaultContactMaterial, w.ContactMaterialFor(nil, ground))
}

func TestAngularDamping(t *testing.T) {
	w := NewWorld(mgl64.Vec3{})
	box := NewBody(1, NewBox(mgl64.Vec3{1, 1, 1}))
	box.AngularVelocity = mgl64.Vec3{0, 10, 0}
	box.AngularDamping = 0.5
	require.NoError(t, w.AddBody(box))

	for i := 0; i < 60; i++ {
		require.NoError(t, w.Step(dt))
	}

	assert.InDelta(t, 5.0, box.AngularVelocity.Y(), 0.05)
	assert.InDelta(t, 0, box.Position.Len(), 1e-9)
}

func TestStaticBodiesHaveNoEnergy(t *testing.T) {
	b := NewBody(0, NewSphere(1))
	b.Velocity = mgl64.Vec3{1, 0, 0}
	assert.Equal(t, 0.0, b.KineticEnergy())

	b.SetMass(2)
	assert.False(t, b.IsStatic())
	assert.InDelta(t, 1.0, b.KineticEnergy(), 1e-12)
}

func TestBoxLandsOnDynamicSphere(t *testing.T) {
	w := NewWorld(mgl64.Vec3{0, -9.81, 0})
	newGround(t, w, nil)

	ball := NewBody(4, NewSphere(1))
	ball.Position = mgl64.Vec3{0, 1.1, 0}
	require.NoError(t, w.AddBody(ball))
	box := NewBody(1, NewBox(mgl64.Vec3{0.5, 0.5, 0.5}))
	box.Position = mgl64.Vec3{0.2, 5, 0}
	require.NoError(t, w.AddBody(box))

	closest := math.Inf(1)
	for i := 0; i < 240; i++ {
		require.NoError(t, w.Step(dt))
		closest = math.Min(closest, box.Position.Sub(ball.Position).Len())
	}

	// face contact puts the centres 1.5 apart
	assert.Greater(t, closest, 1.4)
	assert.Greater(t, ball.Position.Y(), 0.9)
}

func TestAddConstraintRejectsNil(t *testing.T) {
	w := NewWorld(mgl64.Vec3{})

	assert.ErrorIs(t, w.AddConstraint(nil), ErrNilConstraint)
	assert.ErrorIs(t, w.AddConstraint((*LockConstraint)(nil)), ErrNilConstraint)
	assert.ErrorIs(t, w.AddConstraint((*DistanceConstraint)(nil)), ErrNilConstraint)
	assert.ErrorIs(t, w.AddConstraint(&LockConstraint{A: NewBody(1, NewParticle())}), ErrNilBody)
	assert.Empty(t, w.Constraints)
}
