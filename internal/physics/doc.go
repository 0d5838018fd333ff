// Package physics provides the rigid-body world the demo scenes run on.
//
// A [World] owns gravity, a list of [Body] values, constraints between bodies
// and a table of [ContactMaterial] overrides. Each call to [World.Step]
// advances the simulation by a fixed amount using sub-stepped position based
// dynamics:
//
//   - integrate dynamic bodies under gravity and damping
//   - detect contacts against static bodies, between dynamic spheres and
//     between a dynamic sphere and a dynamic box
//   - project constraints and contacts onto valid positions
//   - derive velocities from the corrected poses
//   - apply restitution and dynamic friction
//
// Bodies with zero mass are static. They are never integrated and never moved
// by constraints or contacts.
//
// # Example
//
//	w := physics.NewWorld(mgl64.Vec3{0, -9.81, 0})
//	ball := physics.NewBody(1, physics.NewSphere(0.5))
//	ball.Position = mgl64.Vec3{0, 10, 0}
//	_ = w.AddBody(ball)
//	_ = w.Step(1.0 / 60)
//
// # Thread Safety
//
// A World is not safe for concurrent use. The sync loop owns it.
package physics
