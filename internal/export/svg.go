// Package export renders stored frames and trajectories to SVG.
package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/rigidlab/internal/analysis"
	"github.com/san-kum/rigidlab/internal/config"
	"github.com/san-kum/rigidlab/internal/viz"
	"github.com/san-kum/rigidlab/internal/world"
)

const (
	background = "#0a0a0a"
	foreground = "#00ff00"
)

// RenderFrame draws a stored frame onto a new cols x rows braille canvas,
// looking through the camera of the scene it was recorded from.
func RenderFrame(f world.Frame, cfg *config.Config, cols, rows int) (*viz.Canvas, error) {
	canvas := viz.NewCanvas(cols, rows)
	r := viz.NewTerminalRenderer(canvas)
	cam := world.NewCamera(cfg)
	cam.Resize(r.Viewport())
	if err := r.Render(f.Scene(), cam); err != nil {
		return nil, err
	}
	return canvas, nil
}

// CanvasToSVG draws every lit braille dot as a circle. scale is the spacing
// between dots in SVG units.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}
	w, h := canvas.PixelSize()
	width, height := float64(w)*scale, float64(h)*scale

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
<g fill="%s">
`, width, height, width, height, background, foreground)

	r := scale * 0.4
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if canvas.IsSet(x, y) {
				fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n",
					float64(x)*scale+scale/2, float64(y)*scale+scale/2, r)
			}
		}
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// TrajectoryToSVG draws points as a polyline scaled to width x height, with
// 10% padding and y pointing up.
func TrajectoryToSVG(points []analysis.Point, width, height int, stroke string) string {
	if len(points) < 2 {
		return ""
	}
	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}
	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, background, stroke)

	for i, p := range points {
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-minY)/rangeY*float64(height)
		if i > 0 {
			sb.WriteString(" L")
		}
		fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
	}
	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}

// TimeSeries pairs sample times with values for TrajectoryToSVG.
func TimeSeries(times, values []float64) []analysis.Point {
	n := min(len(times), len(values))
	out := make([]analysis.Point, n)
	for i := 0; i < n; i++ {
		out[i] = analysis.Point{X: times[i], Y: values[i]}
	}
	return out
}
