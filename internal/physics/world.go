package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const DefaultSubsteps = 8

// World owns bodies, constraints and contact materials.
type World struct {
	Gravity  mgl64.Vec3
	Substeps int

	Bodies      []*Body
	Constraints []Constraint

	// DefaultContactMaterial applies to material pairs without an override.
	DefaultContactMaterial ContactMaterial

	contactMaterials []*ContactMaterial
	contacts         []*contact

	time   float64
	steps  int
	nextID int
}

func NewWorld(gravity mgl64.Vec3) *World {
	return &World{
		Gravity:                gravity,
		Substeps:               DefaultSubsteps,
		Bodies:                 make([]*Body, 0),
		Constraints:            make([]Constraint, 0),
		DefaultContactMaterial: ContactMaterial{Friction: DefaultFriction, Restitution: 0},
	}
}

// AddBody registers a body and assigns it an id.
func (w *World) AddBody(b *Body) error {
	if b == nil {
		return ErrNilBody
	}
	b.updateMassProperties()
	b.ID = w.nextID
	w.nextID++
	w.Bodies = append(w.Bodies, b)
	return nil
}

func (w *World) AddConstraint(c Constraint) error {
	if c == nil {
		return ErrNilConstraint
	}
	a, b := c.Bodies()
	if a == nil && b == nil {
		return ErrNilConstraint
	}
	if err := checkPair(a, b); err != nil {
		return err
	}
	w.Constraints = append(w.Constraints, c)
	return nil
}

func (w *World) AddContactMaterial(cm *ContactMaterial) error {
	if cm == nil || cm.A == nil || cm.B == nil {
		return ErrNilMaterial
	}
	w.contactMaterials = append(w.contactMaterials, cm)
	return nil
}

// ContactMaterialFor returns the most recently registered override for the
// pair, or the default contact material.
func (w *World) ContactMaterialFor(a, b *Material) ContactMaterial {
	if a != nil && b != nil {
		for i := len(w.contactMaterials) - 1; i >= 0; i-- {
			if w.contactMaterials[i].matches(a, b) {
				return *w.contactMaterials[i]
			}
		}
	}
	return w.DefaultContactMaterial
}

func (w *World) ContactMaterials() []*ContactMaterial { return w.contactMaterials }

// Time returns the simulated time accumulated by Step.
func (w *World) Time() float64 { return w.time }

// StepCount returns the number of completed Step calls.
func (w *World) StepCount() int { return w.steps }

// Step advances the world by dt.
func (w *World) Step(dt float64) error {
	if dt <= 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidTimestep, dt)
	}
	substeps := w.Substeps
	if substeps < 1 {
		substeps = 1
	}
	h := dt / float64(substeps)

	for range substeps {
		for _, b := range w.Bodies {
			if !b.IsStatic() {
				b.integrate(h, w.Gravity)
			}
		}

		contacts := w.detectContacts()

		for _, c := range w.Constraints {
			c.solvePosition(h)
		}
		for _, c := range contacts {
			c.solvePosition()
		}

		for _, b := range w.Bodies {
			if !b.IsStatic() {
				b.deriveVelocity(h)
			}
		}

		for _, c := range contacts {
			c.solveVelocity(h, w.Gravity)
		}
	}

	w.time += dt
	w.steps++
	return nil
}
