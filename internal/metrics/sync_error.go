package metrics

import (
	"math"

	"github.com/san-kum/rigidlab/internal/world"
)

// SyncError is the largest distance between a synced mesh and its body seen
// after any tick. Anything but zero means a pose was not copied.
type SyncError struct {
	name string
	max  float64
}

func NewSyncError() *SyncError {
	return &SyncError{name: "sync_error"}
}

func (s *SyncError) Name() string { return s.name }

func (s *SyncError) Observe(w *world.World, tick int) {
	for _, e := range w.Entities {
		if !e.Synced {
			continue
		}
		d := e.Mesh.Position.Sub(e.Body.Position).Len()
		q := e.Mesh.Quaternion.Sub(e.Body.Quaternion).Len()
		s.max = math.Max(s.max, math.Max(d, q))
	}
}

func (s *SyncError) Value() float64 { return s.max }

func (s *SyncError) Reset() { s.max = 0 }
