package gui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/rigidlab/internal/scene"
)

var (
	ColBg      = rl.NewColor(10, 10, 10, 255)
	ColText    = rl.NewColor(140, 140, 140, 255)
	ColTextDim = rl.NewColor(60, 60, 60, 255)
)

const (
	sphereRings  = 12
	sphereSlices = 16
	planeGrid    = 10
)

// Renderer draws a scene into the current raylib window. It satisfies
// scene.Renderer and must be used on the window's thread.
type Renderer struct {
	// HUD lines are drawn in the top-left corner after the 3D pass.
	HUD []string
}

func (r *Renderer) Render(s *scene.Scene, cam *scene.Camera) error {
	rl.BeginDrawing()
	defer rl.EndDrawing()

	rl.ClearBackground(ColBg)
	rl.BeginMode3D(toCamera(cam))
	for _, m := range s.Meshes {
		if !m.Visible {
			continue
		}
		switch m.Geometry.Kind {
		case scene.GeometryBox:
			drawBox(m)
		case scene.GeometrySphere:
			drawSphere(m)
		case scene.GeometryPlane:
			drawPlane(m)
		}
	}
	rl.EndMode3D()

	for i, line := range r.HUD {
		rl.DrawText(line, 12, int32(12+i*20), 18, ColText)
	}
	rl.DrawFPS(int32(rl.GetScreenWidth()-90), 12)
	return nil
}

// box faces as corner indices, wound counter-clockwise from outside
var boxFaces = [6][4]int{
	{0, 2, 6, 4}, // +x
	{1, 5, 7, 3}, // -x
	{0, 4, 5, 1}, // +y
	{2, 3, 7, 6}, // -y
	{0, 1, 3, 2}, // +z
	{4, 6, 7, 5}, // -z
}

func drawBox(m *scene.Mesh) {
	c := m.Corners()
	col := toColor(m.Material.Color)
	if m.Material.Wireframe {
		for _, e := range scene.BoxEdges {
			rl.DrawLine3D(vec3(c[e[0]]), vec3(c[e[1]]), col)
		}
		return
	}
	for _, f := range boxFaces {
		a, b, cc, d := vec3(c[f[0]]), vec3(c[f[1]]), vec3(c[f[2]]), vec3(c[f[3]])
		rl.DrawTriangle3D(a, b, cc, col)
		rl.DrawTriangle3D(a, cc, d, col)
	}
}

func drawSphere(m *scene.Mesh) {
	col := toColor(m.Material.Color)
	r := float32(m.Geometry.Radius)
	if m.Material.Wireframe {
		rl.DrawSphereWires(vec3(m.Position), r, sphereRings, sphereSlices, col)
		return
	}
	rl.DrawSphere(vec3(m.Position), r, col)
}

func drawPlane(m *scene.Mesh) {
	col := toColor(m.Material.Color)
	hw, hh := m.Geometry.Width/2, m.Geometry.Height/2
	if m.Material.Wireframe {
		for i := 0; i <= planeGrid; i++ {
			t := -1 + 2*float64(i)/planeGrid
			rl.DrawLine3D(vec3(m.ToWorld(mgl64.Vec3{t * hw, -hh, 0})), vec3(m.ToWorld(mgl64.Vec3{t * hw, hh, 0})), col)
			rl.DrawLine3D(vec3(m.ToWorld(mgl64.Vec3{-hw, t * hh, 0})), vec3(m.ToWorld(mgl64.Vec3{hw, t * hh, 0})), col)
		}
		return
	}
	a := vec3(m.ToWorld(mgl64.Vec3{hw, hh, 0}))
	b := vec3(m.ToWorld(mgl64.Vec3{-hw, hh, 0}))
	c := vec3(m.ToWorld(mgl64.Vec3{-hw, -hh, 0}))
	d := vec3(m.ToWorld(mgl64.Vec3{hw, -hh, 0}))
	// both windings so the plane shows from either side
	rl.DrawTriangle3D(a, b, c, col)
	rl.DrawTriangle3D(a, c, d, col)
	rl.DrawTriangle3D(a, c, b, col)
	rl.DrawTriangle3D(a, d, c, col)
}

func toCamera(c *scene.Camera) rl.Camera3D {
	return rl.NewCamera3D(vec3(c.Position), vec3(c.Target), vec3(c.Up), float32(c.FOV), rl.CameraPerspective)
}

func vec3(v mgl64.Vec3) rl.Vector3 {
	return rl.NewVector3(float32(v.X()), float32(v.Y()), float32(v.Z()))
}

func toColor(rgb uint32) rl.Color {
	return rl.NewColor(uint8(rgb>>16), uint8(rgb>>8), uint8(rgb), 255)
}

func hudLine(label string, value any) string {
	return fmt.Sprintf("%-12s %v", label, value)
}
