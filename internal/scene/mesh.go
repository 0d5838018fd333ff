package scene

import "github.com/go-gl/mathgl/mgl64"

type GeometryKind int

const (
	GeometryBox GeometryKind = iota
	GeometrySphere
	GeometryPlane
)

func (k GeometryKind) String() string {
	switch k {
	case GeometryBox:
		return "box"
	case GeometrySphere:
		return "sphere"
	case GeometryPlane:
		return "plane"
	}
	return "unknown"
}

// Geometry holds full dimensions (not half extents). Planes lie in their
// local XY plane.
type Geometry struct {
	Kind   GeometryKind
	Width  float64
	Height float64
	Depth  float64
	Radius float64
}

func BoxGeometry(w, h, d float64) Geometry {
	return Geometry{Kind: GeometryBox, Width: w, Height: h, Depth: d}
}

func SphereGeometry(r float64) Geometry { return Geometry{Kind: GeometrySphere, Radius: r} }

func PlaneGeometry(w, h float64) Geometry {
	return Geometry{Kind: GeometryPlane, Width: w, Height: h}
}

type Material struct {
	Color     uint32
	Wireframe bool
}

type Mesh struct {
	Name       string
	Geometry   Geometry
	Material   Material
	Position   mgl64.Vec3
	Quaternion mgl64.Quat
	Visible    bool
}

func NewMesh(g Geometry, m Material) *Mesh {
	return &Mesh{Geometry: g, Material: m, Quaternion: mgl64.QuatIdent(), Visible: true}
}

// Clone returns an independent copy sharing geometry and material values.
func (m *Mesh) Clone() *Mesh {
	c := *m
	return &c
}

// SetPose copies a position and orientation onto the mesh.
func (m *Mesh) SetPose(pos mgl64.Vec3, q mgl64.Quat) {
	m.Position = pos
	m.Quaternion = q
}

// ToWorld maps a point from mesh space into world space.
func (m *Mesh) ToWorld(local mgl64.Vec3) mgl64.Vec3 {
	return m.Quaternion.Rotate(local).Add(m.Position)
}

// Corners returns the eight world-space corners of a box mesh; bit 0, 1 and
// 2 of the index select the negative x, y and z side. Planes yield their
// four corners twice.
func (m *Mesh) Corners() [8]mgl64.Vec3 {
	h := mgl64.Vec3{m.Geometry.Width / 2, m.Geometry.Height / 2, m.Geometry.Depth / 2}
	var out [8]mgl64.Vec3
	for i := range out {
		c := h
		if i&1 != 0 {
			c[0] = -c[0]
		}
		if i&2 != 0 {
			c[1] = -c[1]
		}
		if i&4 != 0 {
			c[2] = -c[2]
		}
		out[i] = m.ToWorld(c)
	}
	return out
}

// BoxEdges indexes Corners pairwise.
var BoxEdges = [12][2]int{
	{0, 1}, {1, 3}, {3, 2}, {2, 0},
	{4, 5}, {5, 7}, {7, 6}, {6, 4},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// Scene is the set of meshes drawn each frame.
type Scene struct {
	Position mgl64.Vec3
	Meshes   []*Mesh
}

func New() *Scene {
	return &Scene{Meshes: make([]*Mesh, 0)}
}

func (s *Scene) Add(m *Mesh) {
	if m == nil {
		return
	}
	s.Meshes = append(s.Meshes, m)
}

func (s *Scene) Len() int { return len(s.Meshes) }

// Renderer draws a scene from a camera.
type Renderer interface {
	Render(s *Scene, cam *Camera) error
}
