// Package gui shows a running scene in a raylib desktop window.
package gui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/rigidlab/internal/audio"
	"github.com/san-kum/rigidlab/internal/events"
	"github.com/san-kum/rigidlab/internal/logger"
	"github.com/san-kum/rigidlab/internal/picking"
	"github.com/san-kum/rigidlab/internal/sim"
	"github.com/san-kum/rigidlab/internal/world"
)

type Options struct {
	Build  func() (*world.World, error)
	Width  int32
	Height int32
	Title  string
	// Audio plays the scene's kinetic energy on the default output device.
	Audio  bool
	Logger *log.Logger
}

type App struct {
	opts     Options
	bus      *events.Bus
	loop     *sim.Loop
	picker   *picking.Picker
	renderer *Renderer
	paused   bool
	mouse    rl.Vector2
	log      *log.Logger
}

func initWindow(o Options) {
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(o.Width, o.Height, o.Title)
	// one tick per frame, so the frame rate sets the simulation pace
	rl.SetTargetFPS(60)
	rl.SetExitKey(0)
}

// Run opens a window and drives the scene until it is closed or ctx ends.
func Run(ctx context.Context, opts Options) error {
	if opts.Build == nil {
		return fmt.Errorf("gui: no scene builder")
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = 1280, 720
	}
	if opts.Title == "" {
		opts.Title = "rigidlab"
	}
	l := logger.OrDiscard(opts.Logger)

	initWindow(opts)
	defer rl.CloseWindow()

	bus := events.NewBus()
	app := &App{
		opts:     opts,
		bus:      bus,
		loop:     sim.New(bus, l),
		renderer: &Renderer{},
		log:      l,
	}
	app.loop.SetRenderer(app.renderer)
	if opts.Audio {
		son := audio.NewSonifier(l)
		if err := son.Start(); err != nil {
			l.Warn("audio unavailable", "err", err)
		} else {
			defer son.Stop()
			app.loop.AddObserver(son)
		}
	}
	if err := app.load(); err != nil {
		return err
	}
	defer app.close()

	for !rl.WindowShouldClose() {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		app.input()
		if app.paused {
			app.renderer.HUD = app.hud()
			if err := app.renderer.Render(app.loop.World().Scene, app.loop.World().Camera); err != nil {
				return err
			}
			continue
		}
		app.renderer.HUD = app.hud()
		if err := app.loop.Tick(); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) load() error {
	w, err := a.opts.Build()
	if err != nil {
		return err
	}
	if a.picker != nil {
		a.picker.Detach()
		a.picker = nil
	}
	if err := a.loop.Init(w); err != nil {
		return err
	}
	if w.Config.PickingEnabled() {
		if a.picker, err = picking.New(w, a.log); err != nil {
			return err
		}
		a.picker.Attach(a.bus)
	}
	a.bus.Post(events.Event{
		Kind: events.Resize,
		X:    float64(rl.GetScreenWidth()),
		Y:    float64(rl.GetScreenHeight()),
	})
	a.log.Info("scene loaded", "scene", w.Config.Scene, "entities", len(w.Entities))
	return nil
}

func (a *App) close() {
	if a.picker != nil {
		a.picker.Detach()
	}
	a.loop.Close()
}

// input turns window input into bus events; they are delivered at the start
// of the next tick.
func (a *App) input() {
	if rl.IsWindowResized() {
		a.bus.Post(events.Event{
			Kind: events.Resize,
			X:    float64(rl.GetScreenWidth()),
			Y:    float64(rl.GetScreenHeight()),
		})
	}

	pos := rl.GetMousePosition()
	if pos != a.mouse {
		a.mouse = pos
		a.bus.Post(events.Event{Kind: events.PointerMove, X: float64(pos.X), Y: float64(pos.Y)})
	}
	if rl.IsMouseButtonPressed(rl.MouseLeftButton) {
		a.bus.Post(events.Event{Kind: events.Click, X: float64(pos.X), Y: float64(pos.Y)})
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		a.paused = !a.paused
	}
	if rl.IsKeyPressed(rl.KeyR) {
		if err := a.load(); err != nil {
			a.log.Error("reload failed", "err", err)
		}
	}
}

func (a *App) hud() []string {
	w := a.loop.World()
	lines := []string{
		w.Config.Scene,
		hudLine("tick", a.loop.TickCount()),
		hudLine("time", fmt.Sprintf("%.2fs", w.Physics.Time())),
		hudLine("entities", len(w.Entities)),
	}
	if a.picker != nil {
		lines = append(lines, hudLine("spawned", len(a.picker.Spawned())))
	}
	if a.paused {
		lines = append(lines, "PAUSED  space resume  r rebuild")
	}
	return lines
}
