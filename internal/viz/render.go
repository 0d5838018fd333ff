package viz

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/rigidlab/internal/scene"
)

const planeDivisions = 6

// TerminalRenderer draws mesh outlines onto a braille canvas. It satisfies
// scene.Renderer.
type TerminalRenderer struct {
	Canvas *Canvas
	drawn  int
}

func NewTerminalRenderer(c *Canvas) *TerminalRenderer {
	return &TerminalRenderer{Canvas: c}
}

// Viewport is the canvas size in dots, the unit pointer events use.
func (r *TerminalRenderer) Viewport() scene.Viewport {
	w, h := r.Canvas.PixelSize()
	return scene.Viewport{Width: float64(w), Height: float64(h)}
}

// Drawn returns how many meshes were at least partly visible last frame.
func (r *TerminalRenderer) Drawn() int { return r.drawn }

func (r *TerminalRenderer) Render(s *scene.Scene, cam *scene.Camera) error {
	r.Canvas.Clear()
	r.drawn = 0
	vp := r.Viewport()
	for _, m := range s.Meshes {
		if !m.Visible {
			continue
		}
		var ok bool
		switch m.Geometry.Kind {
		case scene.GeometryBox:
			ok = r.drawBox(m, cam, vp)
		case scene.GeometryPlane:
			ok = r.drawPlane(m, cam, vp)
		case scene.GeometrySphere:
			ok = r.drawSphere(m, cam, vp)
		}
		if ok {
			r.drawn++
		}
	}
	return nil
}

func (r *TerminalRenderer) drawBox(m *scene.Mesh, cam *scene.Camera, vp scene.Viewport) bool {
	corners := m.Corners()
	drew := false
	for _, e := range scene.BoxEdges {
		drew = r.line(corners[e[0]], corners[e[1]], cam, vp) || drew
	}
	return drew
}

// drawPlane outlines the plane; wireframe planes also get interior grid lines.
func (r *TerminalRenderer) drawPlane(m *scene.Mesh, cam *scene.Camera, vp scene.Viewport) bool {
	hw, hh := m.Geometry.Width/2, m.Geometry.Height/2
	div := 1
	if m.Material.Wireframe {
		div = planeDivisions
	}
	drew := false
	for i := 0; i <= div; i++ {
		t := -1 + 2*float64(i)/float64(div)
		drew = r.line(m.ToWorld(mgl64.Vec3{t * hw, -hh, 0}), m.ToWorld(mgl64.Vec3{t * hw, hh, 0}), cam, vp) || drew
		drew = r.line(m.ToWorld(mgl64.Vec3{-hw, t * hh, 0}), m.ToWorld(mgl64.Vec3{hw, t * hh, 0}), cam, vp) || drew
	}
	return drew
}

func (r *TerminalRenderer) drawSphere(m *scene.Mesh, cam *scene.Camera, vp scene.Viewport) bool {
	cx, cy, _, ok := cam.Project(m.Position, vp)
	if !ok {
		return false
	}
	forward := cam.Target.Sub(cam.Position)
	if forward.Len() == 0 {
		return false
	}
	right := forward.Cross(cam.Up)
	if right.Len() == 0 {
		return false
	}
	up := right.Cross(forward).Normalize()
	ex, ey, _, ok := cam.Project(m.Position.Add(up.Mul(m.Geometry.Radius)), vp)
	if !ok {
		return false
	}
	radius := math.Hypot(ex-cx, ey-cy)
	r.Canvas.DrawCircle(int(math.Round(cx)), int(math.Round(cy)), int(math.Round(radius)))
	return true
}

func (r *TerminalRenderer) line(a, b mgl64.Vec3, cam *scene.Camera, vp scene.Viewport) bool {
	x0, y0, _, ok0 := cam.Project(a, vp)
	x1, y1, _, ok1 := cam.Project(b, vp)
	if !ok0 || !ok1 {
		return false
	}
	r.Canvas.DrawLine(int(math.Round(x0)), int(math.Round(y0)), int(math.Round(x1)), int(math.Round(y1)))
	return true
}
