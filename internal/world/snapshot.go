package world

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/rigidlab/internal/scene"
)

// Pose is an immutable copy of one entity's visual state.
type Pose struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Shape      string     `json:"shape"`
	Size       [3]float64 `json:"size"`
	Position   [3]float64 `json:"position"`
	Quaternion [4]float64 `json:"quaternion"` // x, y, z, w
	Color      uint32     `json:"color"`
	Wireframe  bool       `json:"wireframe,omitempty"`
}

// Frame is the state of every entity after one tick. Frames share nothing
// with the world and may be handed to other goroutines.
type Frame struct {
	Tick     int     `json:"tick"`
	Time     float64 `json:"time"`
	Entities []Pose  `json:"entities"`
}

// Snapshot copies the current mesh poses.
func (w *World) Snapshot(tick int) Frame {
	f := Frame{
		Tick:     tick,
		Time:     w.Physics.Time(),
		Entities: make([]Pose, 0, len(w.Entities)),
	}
	for _, e := range w.Entities {
		m := e.Mesh
		g := m.Geometry
		size := [3]float64{g.Width, g.Height, g.Depth}
		if g.Radius > 0 {
			size = [3]float64{g.Radius, g.Radius, g.Radius}
		}
		f.Entities = append(f.Entities, Pose{
			ID:         e.ID.String(),
			Name:       e.Name,
			Shape:      g.Kind.String(),
			Size:       size,
			Position:   [3]float64{m.Position.X(), m.Position.Y(), m.Position.Z()},
			Quaternion: [4]float64{m.Quaternion.V[0], m.Quaternion.V[1], m.Quaternion.V[2], m.Quaternion.W},
			Color:      m.Material.Color,
			Wireframe:  m.Material.Wireframe,
		})
	}
	return f
}

// Scene rebuilds meshes from the frame's poses, for rendering stored runs.
// Poses with an unknown shape are skipped.
func (f Frame) Scene() *scene.Scene {
	s := scene.New()
	for _, p := range f.Entities {
		var g scene.Geometry
		switch p.Shape {
		case "box":
			g = scene.BoxGeometry(p.Size[0], p.Size[1], p.Size[2])
		case "sphere":
			g = scene.SphereGeometry(p.Size[0])
		case "plane":
			g = scene.PlaneGeometry(p.Size[0], p.Size[1])
		default:
			continue
		}
		m := scene.NewMesh(g, scene.Material{Color: p.Color, Wireframe: p.Wireframe})
		m.Name = p.Name
		m.SetPose(
			mgl64.Vec3{p.Position[0], p.Position[1], p.Position[2]},
			mgl64.Quat{W: p.Quaternion[3], V: mgl64.Vec3{p.Quaternion[0], p.Quaternion[1], p.Quaternion[2]}},
		)
		s.Add(m)
	}
	return s
}
