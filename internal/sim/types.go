// Package sim drives a built world at a fixed timestep: queued input, physics
// step, pose sync, metrics and rendering, in that order, once per tick.
package sim

import (
	"fmt"

	"github.com/san-kum/rigidlab/internal/world"
)

type State int

const (
	Uninitialized State = iota
	Ready
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Metric accumulates a value over the ticks of a run.
type Metric interface {
	Name() string
	Observe(w *world.World, tick int)
	Value() float64
	Reset()
}

// Observer is notified after every tick, once meshes are in sync.
type Observer interface {
	OnTick(w *world.World, tick int)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(w *world.World, tick int)

func (f ObserverFunc) OnTick(w *world.World, tick int) { f(w, tick) }

type Result struct {
	Ticks   int
	Time    float64
	Metrics map[string]float64
	Errors  []error
}

type SimError struct {
	Tick    int
	Time    float64
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("tick %d (t=%.4f): %s", e.Tick, e.Time, e.Message)
}
