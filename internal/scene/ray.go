package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const parallelEpsilon = 1e-12

// Plane satisfies Normal·p + Constant = 0.
type Plane struct {
	Normal   mgl64.Vec3
	Constant float64
}

func PlaneFromNormalAndPoint(normal, point mgl64.Vec3) Plane {
	return Plane{Normal: normal, Constant: -point.Dot(normal)}
}

func (p Plane) DistanceToPoint(q mgl64.Vec3) float64 {
	return p.Normal.Dot(q) + p.Constant
}

type Ray struct {
	Origin    mgl64.Vec3
	Direction mgl64.Vec3
}

func (r Ray) At(t float64) mgl64.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// IntersectPlane returns the point where the ray meets the plane. A ray lying
// in the plane intersects at its origin; a parallel or receding ray misses.
func (r Ray) IntersectPlane(p Plane) (mgl64.Vec3, bool) {
	denom := p.Normal.Dot(r.Direction)
	if math.Abs(denom) < parallelEpsilon {
		if p.DistanceToPoint(r.Origin) == 0 {
			return r.Origin, true
		}
		return mgl64.Vec3{}, false
	}
	t := -(r.Origin.Dot(p.Normal) + p.Constant) / denom
	if t < 0 {
		return mgl64.Vec3{}, false
	}
	return r.At(t), true
}

// Raycaster builds pick rays from a camera.
type Raycaster struct {
	Ray Ray
}

// SetFromCamera points the ray from the camera through ndc.
func (rc *Raycaster) SetFromCamera(ndc mgl64.Vec2, cam *Camera) {
	target := cam.Unproject(mgl64.Vec3{ndc.X(), ndc.Y(), 0.5})
	rc.Ray = Ray{
		Origin:    cam.Position,
		Direction: target.Sub(cam.Position).Normalize(),
	}
}
