package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/rigidlab/internal/config"
	"github.com/san-kum/rigidlab/internal/world"
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
)

var sceneInfo = map[string]string{
	"basic":           "spinning box and bouncing sphere",
	"picking":         "click to drop spheres",
	"chain":           "locked boxes held by anchors",
	"chain_reference": "chain with loose anchors",
	"cloth":           "particle cloth over a sphere",
}

// SceneSource resolves scene names to fresh configurations.
type SceneSource interface {
	ListScenes() []string
	GetScene(name string) (*config.Config, error)
}

const (
	stateMenu = iota
	stateSim
)

// App lets the user pick a scene and then runs it in a live view.
type App struct {
	state  int
	cursor int
	scenes SceneSource
	names  []string
	opts   Options
	live   Model
	err    error
	width  int
	height int
}

// NewApp builds a menu over scenes. opts.Build is replaced per scene.
func NewApp(scenes SceneSource, opts Options) App {
	return App{state: stateMenu, scenes: scenes, names: scenes.ListScenes(), opts: opts}
}

func (a App) Init() tea.Cmd { return nil }

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		a.width, a.height = size.Width, size.Height
	}
	if a.state == stateSim {
		if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
			a.live.Close()
			a.state = stateMenu
			return a, nil
		}
		next, cmd := a.live.Update(msg)
		a.live = next.(Model)
		return a, cmd
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return a, tea.Quit
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(a.names)-1 {
			a.cursor++
		}
	case "enter", " ":
		return a.start()
	}
	return a, nil
}

func (a App) start() (tea.Model, tea.Cmd) {
	if len(a.names) == 0 {
		return a, nil
	}
	name := a.names[a.cursor]
	opts := a.opts
	builder := world.NewBuilder(opts.Logger)
	opts.Build = func() (*world.World, error) {
		cfg, err := a.scenes.GetScene(name)
		if err != nil {
			return nil, err
		}
		return builder.Build(cfg)
	}

	live, err := NewModel(opts)
	if err != nil {
		a.err = err
		return a, nil
	}
	if a.width > 0 {
		live.resize(a.width, a.height)
	}
	a.live = live
	a.err = nil
	a.state = stateSim
	return a, live.Init()
}

func (a App) View() string {
	if a.state == stateSim {
		return a.live.View() + "\n" + dim.Render("esc: back to scenes")
	}

	var s strings.Builder
	s.WriteString(cyan.Bold(true).Render("rigidlab") + dim.Render("  choose a scene") + "\n\n")
	for i, name := range a.names {
		cursor := "  "
		style := white
		if i == a.cursor {
			cursor = yellow.Render("> ")
			style = yellow
		}
		s.WriteString(cursor + style.Render(fmt.Sprintf("%-18s", name)) + " " + dim.Render(sceneInfo[name]) + "\n")
	}
	if a.err != nil {
		s.WriteString("\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(a.err.Error()) + "\n")
	}
	s.WriteString("\n" + dim.Render("up/down select  enter run  q quit"))
	return s.String()
}
