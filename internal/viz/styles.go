package viz

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

const (
	statsWidth = 40

	// the canvas starts below the one-line header, inside canvasStyle padding
	canvasOffsetX = 2
	canvasOffsetY = 2
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2).
			Width(statsWidth)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
)

type styles struct {
	canvas, header, running, paused, failed, graph, hint lipgloss.Style
}

func stylesFor(t Theme) styles {
	return styles{
		canvas:  canvasStyle.Foreground(t.Primary),
		header:  lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		running: lipgloss.NewStyle().Bold(true).Foreground(t.Success),
		paused:  lipgloss.NewStyle().Bold(true).Foreground(t.Warning),
		failed:  lipgloss.NewStyle().Bold(true).Foreground(t.Error),
		graph:   lipgloss.NewStyle().Foreground(t.Accent).Padding(1, 0),
		hint:    lipgloss.NewStyle().Foreground(t.Muted).Italic(true),
	}
}

func statLine(label string, value any) string {
	return labelStyle.Render(label) + valueStyle.Render(fmt.Sprint(value)) + "\n"
}
