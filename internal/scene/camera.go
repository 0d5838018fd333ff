package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Camera is a perspective camera looking at Target.
type Camera struct {
	Position, Target, Up mgl64.Vec3
	FOV                  float64 // vertical, degrees
	Aspect               float64
	Near, Far            float64

	projection mgl64.Mat4
}

func NewCamera(fov, aspect, near, far float64) *Camera {
	c := &Camera{
		Up:     mgl64.Vec3{0, 1, 0},
		FOV:    fov,
		Aspect: aspect,
		Near:   near,
		Far:    far,
	}
	c.UpdateProjectionMatrix()
	return c
}

// UpdateProjectionMatrix must be called after FOV, Aspect, Near or Far change.
func (c *Camera) UpdateProjectionMatrix() {
	aspect := c.Aspect
	if aspect <= 0 || math.IsNaN(aspect) {
		aspect = 1
	}
	c.projection = mgl64.Perspective(mgl64.DegToRad(c.FOV), aspect, c.Near, c.Far)
}

// Resize recomputes the aspect ratio for a new viewport.
func (c *Camera) Resize(v Viewport) {
	if v.Width <= 0 || v.Height <= 0 {
		return
	}
	c.Aspect = v.Width / v.Height
	c.UpdateProjectionMatrix()
}

func (c *Camera) Projection() mgl64.Mat4 { return c.projection }

func (c *Camera) View() mgl64.Mat4 {
	return mgl64.LookAtV(c.Position, c.Target, c.Up)
}

// Unproject maps a normalized device coordinate back into world space.
func (c *Camera) Unproject(ndc mgl64.Vec3) mgl64.Vec3 {
	inv := c.projection.Mul4(c.View()).Inv()
	p := inv.Mul4x1(ndc.Vec4(1))
	if p.W() == 0 {
		return p.Vec3()
	}
	return p.Vec3().Mul(1 / p.W())
}

// Project maps a world point into the viewport. ok is false when the point is
// behind the camera or outside the depth range.
func (c *Camera) Project(p mgl64.Vec3, v Viewport) (x, y, depth float64, ok bool) {
	clip := c.projection.Mul4(c.View()).Mul4x1(p.Vec4(1))
	if clip.W() <= 0 {
		return 0, 0, 0, false
	}
	ndc := clip.Vec3().Mul(1 / clip.W())
	if ndc.Z() < -1 || ndc.Z() > 1 {
		return 0, 0, 0, false
	}
	x = (ndc.X() + 1) / 2 * v.Width
	y = (1 - ndc.Y()) / 2 * v.Height
	return x, y, clip.W(), true
}

// Viewport is the drawable area in pixels (or terminal cells).
type Viewport struct {
	Width, Height float64
}

// NDC converts viewport coordinates into [-1, 1] with Y pointing up.
func (v Viewport) NDC(x, y float64) mgl64.Vec2 {
	if v.Width <= 0 || v.Height <= 0 {
		return mgl64.Vec2{}
	}
	return mgl64.Vec2{
		x/v.Width*2 - 1,
		-(y/v.Height)*2 + 1,
	}
}
