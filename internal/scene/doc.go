// Package scene is the visual side of a demo: meshes, a perspective camera,
// and the ray casting used to turn pointer positions into world points.
//
// Meshes never move on their own. The sync loop copies each paired body's
// pose onto its mesh after every physics step.
package scene
