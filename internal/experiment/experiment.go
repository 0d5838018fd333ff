package experiment

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/san-kum/rigidlab/internal/config"
	"github.com/san-kum/rigidlab/internal/events"
	"github.com/san-kum/rigidlab/internal/logger"
	"github.com/san-kum/rigidlab/internal/picking"
	"github.com/san-kum/rigidlab/internal/sim"
	"github.com/san-kum/rigidlab/internal/world"
)

type Result struct {
	sim.Result
	Scene  string
	Frames []world.Frame
}

// Experiment is one headless run of a scene, with scripted clicks replayed
// at their configured ticks.
type Experiment struct {
	cfg    *config.Config
	bus    *events.Bus
	loop   *sim.Loop
	world  *world.World
	picker *picking.Picker
	frames []world.Frame
	record bool
	log    *log.Logger
}

func New(cfg *config.Config, l *log.Logger) *Experiment {
	l = logger.OrDiscard(l)
	return &Experiment{
		cfg:    cfg,
		bus:    events.NewBus(),
		record: true,
		log:    l,
	}
}

// RecordFrames turns per-tick snapshots on or off. On by default.
func (e *Experiment) RecordFrames(on bool) { e.record = on }

// Setup builds the world and wires the loop, picker and click script.
func (e *Experiment) Setup(metrics []sim.Metric) error {
	w, err := world.NewBuilder(e.log).Build(e.cfg)
	if err != nil {
		return err
	}
	e.world = w
	e.loop = sim.New(e.bus, e.log)
	for _, m := range metrics {
		e.loop.AddMetric(m)
	}
	if err := e.loop.Init(w); err != nil {
		return err
	}

	if e.cfg.PickingEnabled() {
		e.picker, err = picking.New(w, e.log)
		if err != nil {
			return err
		}
		e.picker.Attach(e.bus)
	} else if len(e.cfg.Clicks) > 0 {
		e.log.Warn("scene has scripted clicks but picking is disabled", "clicks", len(e.cfg.Clicks))
	}

	// clicks scheduled for tick n are delivered at the start of tick n+1
	e.postClicks(0)
	e.loop.AddObserver(sim.ObserverFunc(func(w *world.World, tick int) {
		if e.record {
			e.frames = append(e.frames, w.Snapshot(tick))
		}
		e.postClicks(tick)
	}))
	if e.record {
		e.frames = append(e.frames, w.Snapshot(0))
	}
	return nil
}

func (e *Experiment) postClicks(tick int) {
	for _, c := range e.cfg.Clicks {
		if c.Tick == tick || (tick == 0 && c.Tick < 0) {
			e.bus.Post(events.Event{Kind: events.PointerMove, X: c.X, Y: c.Y})
			e.bus.Post(events.Event{Kind: events.Click, X: c.X, Y: c.Y})
		}
	}
}

func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if e.loop == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	defer e.Close()

	res, err := e.loop.Run(ctx, e.cfg.Ticks)
	if res == nil {
		return nil, err
	}
	e.log.Info("run finished", "scene", e.cfg.Scene, "ticks", res.Ticks, "time", res.Time)
	return &Result{Result: *res, Scene: e.cfg.Scene, Frames: e.frames}, err
}

// Close detaches the picker and the loop from the bus.
func (e *Experiment) Close() {
	if e.picker != nil {
		e.picker.Detach()
	}
	if e.loop != nil {
		e.loop.Close()
	}
}

func (e *Experiment) Loop() *sim.Loop         { return e.loop }
func (e *Experiment) World() *world.World     { return e.world }
func (e *Experiment) Picker() *picking.Picker { return e.picker }
func (e *Experiment) Config() *config.Config  { return e.cfg }

// RunParallel runs independent scenes concurrently. Each scene gets its own
// world, loop and bus; results keep the order of cfgs. The error joins the
// failures of every scene that did not finish.
func RunParallel(ctx context.Context, cfgs []*config.Config, reg *Registry, l *log.Logger) ([]*Result, error) {
	results := make([]*Result, len(cfgs))
	errs := make([]error, len(cfgs))

	var wg sync.WaitGroup
	for i, cfg := range cfgs {
		wg.Add(1)
		go func(idx int, cfg *config.Config) {
			defer wg.Done()

			exp := New(cfg, l)
			if err := exp.Setup(reg.DefaultMetrics()); err != nil {
				errs[idx] = fmt.Errorf("%s: %w", cfg.Scene, err)
				return
			}
			results[idx], errs[idx] = exp.Run(ctx)
		}(i, cfg)
	}

	wg.Wait()

	// failed scenes leave a nil result; the others are still returned
	return results, errors.Join(errs...)
}
