package metrics

import (
	"math"

	"github.com/san-kum/rigidlab/internal/world"
)

// Stability is the fraction of ticks on which every dynamic body stayed
// within threshold of the origin.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(w *world.World, tick int) {
	s.samples++
	for _, b := range w.Physics.Bodies {
		if b.IsStatic() {
			continue
		}
		if b.Position.Len() > s.threshold || math.IsNaN(b.Position.Len()) {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// LowestBody tracks the smallest y reached by any dynamic body.
type LowestBody struct {
	name string
	minY float64
	seen bool
}

func NewLowestBody() *LowestBody {
	return &LowestBody{name: "lowest_y"}
}

func (l *LowestBody) Name() string { return l.name }

func (l *LowestBody) Observe(w *world.World, tick int) {
	for _, b := range w.Physics.Bodies {
		if b.IsStatic() {
			continue
		}
		if !l.seen || b.Position.Y() < l.minY {
			l.minY = b.Position.Y()
			l.seen = true
		}
	}
}

func (l *LowestBody) Value() float64 {
	if !l.seen {
		return 0
	}
	return l.minY
}

func (l *LowestBody) Reset() {
	l.minY = 0
	l.seen = false
}
