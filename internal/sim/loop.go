package sim

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/san-kum/rigidlab/internal/events"
	"github.com/san-kum/rigidlab/internal/logger"
	"github.com/san-kum/rigidlab/internal/scene"
	"github.com/san-kum/rigidlab/internal/world"
)

// Loop owns the per-frame sequence for one world. All of its methods must be
// called from a single goroutine; other goroutines talk to it through the
// event bus.
type Loop struct {
	state    State
	world    *world.World
	bus      *events.Bus
	renderer scene.Renderer

	dt        float64
	tick      int
	metrics   []Metric
	observers []Observer
	subs      events.Subscriptions
	log       *log.Logger
}

func New(bus *events.Bus, l *log.Logger) *Loop {
	if bus == nil {
		bus = events.NewBus()
	}
	return &Loop{
		bus:       bus,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		log:       logger.OrDiscard(l),
	}
}

func (l *Loop) AddMetric(m Metric)           { l.metrics = append(l.metrics, m) }
func (l *Loop) AddObserver(o Observer)       { l.observers = append(l.observers, o) }
func (l *Loop) SetRenderer(r scene.Renderer) { l.renderer = r }
func (l *Loop) State() State                 { return l.state }
func (l *Loop) World() *world.World          { return l.world }
func (l *Loop) Bus() *events.Bus             { return l.bus }
func (l *Loop) TickCount() int               { return l.tick }
func (l *Loop) Timestep() float64            { return l.dt }

// Init makes the loop Ready for w. Calling it again replaces the world and
// drops the previous subscriptions.
func (l *Loop) Init(w *world.World) error {
	if w == nil {
		return fmt.Errorf("sim: nil world")
	}
	dt := w.Config.Timestep
	if dt <= 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return fmt.Errorf("sim: invalid timestep %v", dt)
	}
	l.subs.Unsubscribe()
	l.subs = events.Subscriptions{l.bus.Subscribe(events.Resize, l.onResize)}

	l.world = w
	l.dt = dt
	l.tick = 0
	for _, m := range l.metrics {
		m.Reset()
	}
	w.Sync()
	l.state = Ready
	l.log.Debug("loop ready", "scene", w.Config.Scene, "dt", dt, "entities", len(w.Entities))
	return nil
}

func (l *Loop) onResize(e events.Event) {
	vp := scene.Viewport{Width: e.X, Height: e.Y}
	if vp.Width <= 0 || vp.Height <= 0 {
		return
	}
	l.world.Viewport = vp
	l.world.Camera.Resize(vp)
}

// Tick advances one fixed step. Before Init it does nothing.
func (l *Loop) Tick() error {
	if l.state != Ready {
		return nil
	}
	l.bus.Drain()

	w := l.world
	if err := w.Physics.Step(l.dt); err != nil {
		return fmt.Errorf("tick %d: %w", l.tick, err)
	}
	l.tick++
	w.Sync()

	if err := l.validate(); err != nil {
		return err
	}
	for _, m := range l.metrics {
		m.Observe(w, l.tick)
	}
	for _, o := range l.observers {
		o.OnTick(w, l.tick)
	}
	if l.renderer != nil {
		if err := l.renderer.Render(w.Scene, w.Camera); err != nil {
			return fmt.Errorf("render: %w", err)
		}
	}
	return nil
}

// Sync copies body poses onto meshes without stepping. Repeated calls with
// no tick in between change nothing.
func (l *Loop) Sync() int {
	if l.state != Ready {
		return 0
	}
	return l.world.Sync()
}

func (l *Loop) validate() error {
	for _, e := range l.world.Entities {
		p := e.Body.Position
		for _, v := range p {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return SimError{
					Tick:    l.tick,
					Time:    l.world.Physics.Time(),
					Message: fmt.Sprintf("invalid position for %s", e.Name),
				}
			}
		}
	}
	return nil
}

// Run ticks n times as fast as possible.
func (l *Loop) Run(ctx context.Context, n int) (*Result, error) {
	if l.state != Ready {
		return nil, fmt.Errorf("sim: loop is %s", l.state)
	}
	result := &Result{Metrics: make(map[string]float64), Errors: make([]error, 0)}

	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			l.finish(result)
			return result, ctx.Err()
		default:
		}
		if err := l.Tick(); err != nil {
			result.Errors = append(result.Errors, err)
			break
		}
		result.Ticks++
	}
	l.finish(result)
	return result, nil
}

func (l *Loop) finish(r *Result) {
	r.Time = l.world.Physics.Time()
	for _, m := range l.metrics {
		r.Metrics[m.Name()] = m.Value()
	}
}

// RunRealtime ticks once per timestep of wall time until ctx is done or a
// tick fails. The step size stays fixed regardless of scheduling jitter.
func (l *Loop) RunRealtime(ctx context.Context) error {
	if l.state != Ready {
		return fmt.Errorf("sim: loop is %s", l.state)
	}
	ticker := time.NewTicker(time.Duration(l.dt * float64(time.Second)))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := l.Tick(); err != nil {
				return err
			}
		}
	}
}

// Close removes the loop's subscriptions and returns it to Uninitialized.
func (l *Loop) Close() {
	l.subs.Unsubscribe()
	l.subs = nil
	l.state = Uninitialized
}
