// Package viz draws a running scene in the terminal.
//
// The live view is a Bubble Tea program. Meshes are projected through the
// scene camera onto a braille [Canvas] (2x4 dots per cell) by
// [TerminalRenderer], which the sync loop calls once per tick. Mouse motion
// and clicks over the canvas become pointer and click events on the loop's
// event bus, so picking works exactly as it does in the desktop window.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	.     - Single step while paused
//	C     - Click at the canvas centre
//	R     - Rebuild the scene
//	T     - Cycle color themes
//	?     - Show help
//	Q     - Quit (Esc returns to the scene menu)
package viz
