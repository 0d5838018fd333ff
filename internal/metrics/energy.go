package metrics

import (
	"math"

	"github.com/san-kum/rigidlab/internal/world"
)

// KineticEnergy sums translational and rotational energy of every body.
func KineticEnergy(w *world.World) float64 {
	total := 0.0
	for _, b := range w.Physics.Bodies {
		total += b.KineticEnergy()
	}
	return total
}

// PotentialEnergy is the gravitational energy relative to the origin.
func PotentialEnergy(w *world.World) float64 {
	total := 0.0
	for _, b := range w.Physics.Bodies {
		if b.IsStatic() {
			continue
		}
		total -= b.Mass * w.Physics.Gravity.Dot(b.Position)
	}
	return total
}

// Energy reports the mean kinetic energy per tick.
type Energy struct {
	name    string
	total   float64
	samples int
}

func NewEnergy() *Energy {
	return &Energy{name: "kinetic_energy"}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(w *world.World, tick int) {
	e.total += KineticEnergy(w)
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

func (e *Energy) Reset() {
	e.total = 0
	e.samples = 0
}

// EnergyDrift reports the largest relative change of total mechanical energy
// against the first observation. Damping and inelastic contacts make it grow;
// a closed scene without contacts keeps it small.
type EnergyDrift struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(w *world.World, tick int) {
	energy := KineticEnergy(w) + PotentialEnergy(w)
	if e.samples == 0 {
		e.initial = energy
	}
	e.samples++

	if e.initial != 0 {
		drift := math.Abs(energy-e.initial) / math.Abs(e.initial)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

func (e *EnergyDrift) Reset() {
	e.initial = 0
	e.maxDrift = 0
	e.samples = 0
}
