// Package analysis characterises recorded entity trajectories.
//
//   - [Spectrum] and [DominantFrequency]: oscillation content of a coordinate
//   - [PhasePortrait]: position against velocity, rendered as ASCII
//   - [Bounces]: apex heights of a bouncing body and the restitution they imply
//
// All functions take samples at a fixed timestep, as stored by a run.
//
//	times, ys := storage.Trajectory(frames, "sphere", 1)
//	f := analysis.DominantFrequency(ys, dt)
package analysis
