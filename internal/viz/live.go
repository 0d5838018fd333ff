package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/rigidlab/internal/events"
	"github.com/san-kum/rigidlab/internal/logger"
	"github.com/san-kum/rigidlab/internal/metrics"
	"github.com/san-kum/rigidlab/internal/picking"
	"github.com/san-kum/rigidlab/internal/sim"
	"github.com/san-kum/rigidlab/internal/world"
)

const (
	defaultCols     = 80
	defaultRows     = 24
	historyCapacity = 240
)

type TickMsg time.Time

// Options configure a live view.
type Options struct {
	// Build returns a fresh world; it is called again on reset.
	Build  func() (*world.World, error)
	Logger *log.Logger
	Theme  string
	Cols   int
	Rows   int
}

// Model runs one scene inside Bubble Tea. The loop, picker and renderer are
// shared pointers, so copies of Model made by Bubble Tea stay consistent.
type Model struct {
	opts     Options
	bus      *events.Bus
	loop     *sim.Loop
	picker   *picking.Picker
	renderer *TerminalRenderer
	theme    Theme
	styles   styles

	running  bool
	showHelp bool
	energy   []float64
	err      error
	log      *log.Logger
}

func NewModel(opts Options) (Model, error) {
	if opts.Build == nil {
		return Model{}, fmt.Errorf("viz: no scene builder")
	}
	if opts.Cols <= 0 {
		opts.Cols = defaultCols
	}
	if opts.Rows <= 0 {
		opts.Rows = defaultRows
	}
	l := logger.OrDiscard(opts.Logger)
	bus := events.NewBus()
	theme := GetTheme(opts.Theme)

	m := Model{
		opts:     opts,
		bus:      bus,
		loop:     sim.New(bus, l),
		renderer: NewTerminalRenderer(NewCanvas(opts.Cols, opts.Rows)),
		theme:    theme,
		styles:   stylesFor(theme),
		running:  true,
		energy:   make([]float64, 0, historyCapacity),
		log:      l,
	}
	m.loop.SetRenderer(m.renderer)
	if err := m.load(); err != nil {
		return Model{}, err
	}
	return m, nil
}

// load (re)builds the world and hooks the picker to the bus.
func (m *Model) load() error {
	w, err := m.opts.Build()
	if err != nil {
		return err
	}
	if m.picker != nil {
		m.picker.Detach()
		m.picker = nil
	}
	if err := m.loop.Init(w); err != nil {
		return err
	}
	if w.Config.PickingEnabled() {
		m.picker, err = picking.New(w, m.log)
		if err != nil {
			return err
		}
		m.picker.Attach(m.bus)
	}
	vp := m.renderer.Viewport()
	m.bus.Post(events.Event{Kind: events.Resize, X: vp.Width, Y: vp.Height})
	m.energy = m.energy[:0]
	m.err = nil
	return nil
}

// Close releases the loop and picker subscriptions.
func (m Model) Close() {
	if m.picker != nil {
		m.picker.Detach()
	}
	m.loop.Close()
}

func (m Model) Loop() *sim.Loop         { return m.loop }
func (m Model) Bus() *events.Bus        { return m.bus }
func (m Model) Picker() *picking.Picker { return m.picker }
func (m Model) Canvas() *Canvas         { return m.renderer.Canvas }
func (m Model) Running() bool           { return m.running }

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.Close()
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case ".":
			if !m.running {
				m.step()
			}
		case "c":
			vp := m.renderer.Viewport()
			m.bus.Post(events.Event{Kind: events.PointerMove, X: vp.Width / 2, Y: vp.Height / 2})
			m.bus.Post(events.Event{Kind: events.Click, X: vp.Width / 2, Y: vp.Height / 2})
		case "r":
			if err := m.load(); err != nil {
				m.err = err
			}
		case "t":
			m.theme = NextTheme(m.theme)
			m.styles = stylesFor(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		}
	case tea.MouseMsg:
		m.mouse(msg)
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) step() {
	if m.err != nil {
		return
	}
	if err := m.loop.Tick(); err != nil {
		m.err = err
		m.running = false
		m.log.Error("tick failed", "err", err)
		return
	}
	m.energy = append(m.energy, metrics.KineticEnergy(m.loop.World()))
	if len(m.energy) > historyCapacity {
		m.energy = m.energy[1:]
	}
}

// mouse turns terminal cells over the canvas into pointer events in dots.
func (m *Model) mouse(msg tea.MouseMsg) {
	c := m.renderer.Canvas
	col, row := msg.X-canvasOffsetX, msg.Y-canvasOffsetY
	if col < 0 || row < 0 || col >= c.Width || row >= c.Height {
		return
	}
	x, y := c.CellToPixel(col, row)
	px, py := float64(x), float64(y)

	switch msg.Action {
	case tea.MouseActionMotion:
		m.bus.Post(events.Event{Kind: events.PointerMove, X: px, Y: py})
	case tea.MouseActionPress:
		if msg.Button == tea.MouseButtonLeft {
			m.bus.Post(events.Event{Kind: events.PointerMove, X: px, Y: py})
			m.bus.Post(events.Event{Kind: events.Click, X: px, Y: py})
		}
	}
}

func (m *Model) resize(width, height int) {
	cols := width - statsWidth - 2*canvasOffsetX - 2
	rows := height - canvasOffsetY - 3
	if cols < 10 || rows < 5 {
		return
	}
	m.renderer.Canvas = NewCanvas(cols, rows)
	vp := m.renderer.Viewport()
	m.bus.Post(events.Event{Kind: events.Resize, X: vp.Width, Y: vp.Height})
}

func (m Model) View() string {
	w := m.loop.World()
	if w == nil {
		return "no scene loaded\n"
	}

	status := m.styles.running.Render("RUNNING")
	switch {
	case m.err != nil:
		status = m.styles.failed.Render("FAILED")
	case !m.running:
		status = m.styles.paused.Render("PAUSED")
	}
	header := m.styles.header.Render(strings.ToUpper(w.Config.Scene)) + "  " + status

	var s strings.Builder
	s.WriteString(statLine("tick", m.loop.TickCount()))
	s.WriteString(statLine("time", fmt.Sprintf("%.2fs", w.Physics.Time())))
	s.WriteString(statLine("entities", len(w.Entities)))
	s.WriteString(statLine("drawn", m.renderer.Drawn()))
	s.WriteString(statLine("constraints", len(w.Physics.Constraints)))
	s.WriteString(statLine("materials", len(w.Physics.ContactMaterials())))
	if len(m.energy) > 0 {
		s.WriteString(statLine("kinetic", fmt.Sprintf("%.3f J", m.energy[len(m.energy)-1])))
	}
	if m.picker != nil {
		p := m.picker.Point()
		s.WriteString(statLine("pointer", fmt.Sprintf("%.2f %.2f %.2f", p.X(), p.Y(), p.Z())))
		s.WriteString(statLine("spawned", len(m.picker.Spawned())))
	}
	if len(m.energy) > 1 {
		graph := asciigraph.Plot(m.energy,
			asciigraph.Height(6),
			asciigraph.Width(statsWidth-12),
			asciigraph.Caption("kinetic energy"))
		s.WriteString(m.styles.graph.Render(graph))
		s.WriteString("\n")
	}
	if m.err != nil {
		s.WriteString(m.styles.failed.Render(m.err.Error()) + "\n")
	}
	if m.showHelp {
		s.WriteString("\n" + m.styles.hint.Render(
			"space pause  . step  c click centre\nclick canvas to pick  r rebuild\nt theme ("+m.theme.Name+")  q quit"))
	} else {
		s.WriteString("\n" + m.styles.hint.Render("? help"))
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.styles.canvas.Render(m.renderer.Canvas.String()),
		statsStyle.Render(s.String()))
	return header + "\n" + body
}
