package sim_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/rigidlab/internal/config"
	"github.com/san-kum/rigidlab/internal/events"
	"github.com/san-kum/rigidlab/internal/metrics"
	"github.com/san-kum/rigidlab/internal/picking"
	"github.com/san-kum/rigidlab/internal/scene"
	"github.com/san-kum/rigidlab/internal/sim"
	"github.com/san-kum/rigidlab/internal/world"
)

type countingRenderer struct {
	frames int
	fail   error
}

func (r *countingRenderer) Render(s *scene.Scene, cam *scene.Camera) error {
	r.frames++
	return r.fail
}

func build(name string) *world.World {
	w, err := world.NewBuilder(nil).Build(config.GetPreset(name))
	Expect(err).NotTo(HaveOccurred())
	return w
}

type pose struct {
	pos mgl64.Vec3
	q   mgl64.Quat
}

func meshPoses(w *world.World) []pose {
	out := make([]pose, 0, len(w.Entities))
	for _, e := range w.Entities {
		out = append(out, pose{e.Mesh.Position, e.Mesh.Quaternion})
	}
	return out
}

var _ = Describe("Loop", func() {
	var (
		bus  *events.Bus
		loop *sim.Loop
	)

	BeforeEach(func() {
		bus = events.NewBus()
		loop = sim.New(bus, nil)
	})

	AfterEach(func() {
		loop.Close()
	})

	Context("before Init", func() {
		It("ignores ticks", func() {
			Expect(loop.State()).To(Equal(sim.Uninitialized))
			Expect(loop.Tick()).To(Succeed())
			Expect(loop.TickCount()).To(BeZero())
			Expect(loop.Sync()).To(BeZero())
		})

		It("refuses to run", func() {
			_, err := loop.Run(context.Background(), 10)
			Expect(err).To(HaveOccurred())
		})

		It("rejects a nil world", func() {
			Expect(loop.Init(nil)).NotTo(Succeed())
			Expect(loop.State()).To(Equal(sim.Uninitialized))
		})
	})

	Context("with the basic scene", func() {
		var w *world.World

		BeforeEach(func() {
			w = build("basic")
			Expect(loop.Init(w)).To(Succeed())
		})

		It("is ready", func() {
			Expect(loop.State()).To(Equal(sim.Ready))
			Expect(loop.Timestep()).To(Equal(config.DefaultTimestep))
		})

		It("keeps every synced mesh on its body", func() {
			for i := 0; i < 30; i++ {
				Expect(loop.Tick()).To(Succeed())
				for _, e := range w.Entities {
					Expect(e.InSync()).To(BeTrue(), e.Name)
				}
			}
			Expect(w.Physics.StepCount()).To(Equal(30))
			Expect(w.Physics.Time()).To(BeNumerically("~", 0.5, 1e-9))
		})

		It("syncs idempotently", func() {
			Expect(loop.Tick()).To(Succeed())
			loop.Sync()
			first := meshPoses(w)
			loop.Sync()
			Expect(meshPoses(w)).To(Equal(first))
		})

		It("renders once per tick", func() {
			r := &countingRenderer{}
			loop.SetRenderer(r)
			for i := 0; i < 5; i++ {
				Expect(loop.Tick()).To(Succeed())
			}
			Expect(r.frames).To(Equal(5))
		})

		It("surfaces render failures", func() {
			loop.SetRenderer(&countingRenderer{fail: errors.New("lost context")})
			Expect(loop.Tick()).To(MatchError(ContainSubstring("lost context")))
		})

		It("applies resize events at the next tick", func() {
			bus.Post(events.Event{Kind: events.Resize, X: 800, Y: 600})
			Expect(w.Camera.Aspect).To(BeNumerically("~", 1280.0/720, 1e-12))

			Expect(loop.Tick()).To(Succeed())
			Expect(w.Camera.Aspect).To(BeNumerically("~", 800.0/600, 1e-12))
			Expect(w.Viewport).To(Equal(scene.Viewport{Width: 800, Height: 600}))
		})

		It("reports metrics from Run", func() {
			loop.AddMetric(metrics.NewSyncError())
			loop.AddMetric(metrics.NewLowestBody())

			res, err := loop.Run(context.Background(), 60)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Ticks).To(Equal(60))
			Expect(res.Time).To(BeNumerically("~", 1.0, 1e-9))
			Expect(res.Metrics).To(HaveKeyWithValue("sync_error", 0.0))
			Expect(res.Metrics["lowest_y"]).To(BeNumerically("<", 10))
		})

		It("notifies observers after syncing", func() {
			var ticks []int
			loop.AddObserver(sim.ObserverFunc(func(w *world.World, tick int) {
				ticks = append(ticks, tick)
				for _, e := range w.Entities {
					Expect(e.InSync()).To(BeTrue())
				}
			}))
			_, err := loop.Run(context.Background(), 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(ticks).To(Equal([]int{1, 2, 3}))
		})

		It("stops on a cancelled context", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			res, err := loop.Run(ctx, 10)
			Expect(err).To(MatchError(context.Canceled))
			Expect(res.Ticks).To(BeZero())
		})

		It("ticks in real time until the context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
			defer cancel()
			Expect(loop.RunRealtime(ctx)).To(Succeed())
			Expect(loop.TickCount()).To(BeNumerically(">", 0))
			Expect(loop.TickCount()).To(BeNumerically("<=", 13))
		})

		It("tears down its subscriptions on Close", func() {
			Expect(bus.Subscribers(events.Resize)).To(Equal(1))
			loop.Close()
			Expect(bus.Subscribers(events.Resize)).To(BeZero())
			Expect(loop.State()).To(Equal(sim.Uninitialized))

			before := w.Physics.StepCount()
			Expect(loop.Tick()).To(Succeed())
			Expect(w.Physics.StepCount()).To(Equal(before))
		})

		It("does not stack subscriptions across re-initialisation", func() {
			Expect(loop.Init(build("basic"))).To(Succeed())
			Expect(bus.Subscribers(events.Resize)).To(Equal(1))
		})
	})

	Context("with only static bodies", func() {
		It("leaves every pose unchanged", func() {
			cfg := config.GetPreset("basic")
			cfg.Bodies = []config.BodyConfig{
				{Name: "rock", Shape: "sphere", Radius: 1, Mass: 0, Position: config.Vec3{0, 3, 0}},
				{Name: "crate", Shape: "box", HalfExtents: config.Vec3{1, 1, 1}, Mass: 0, Position: config.Vec3{4, 1, 0}},
			}
			cfg.ContactMaterials = nil
			w, err := world.NewBuilder(nil).Build(cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(loop.Init(w)).To(Succeed())

			before := meshPoses(w)
			_, err = loop.Run(context.Background(), 60)
			Expect(err).NotTo(HaveOccurred())
			Expect(meshPoses(w)).To(Equal(before))
		})
	})

	Context("with picking", func() {
		var (
			w      *world.World
			picker *picking.Picker
		)

		BeforeEach(func() {
			w = build("picking")
			Expect(loop.Init(w)).To(Succeed())
			var err error
			picker, err = picking.New(w, nil)
			Expect(err).NotTo(HaveOccurred())
			picker.Attach(bus)
		})

		AfterEach(func() {
			picker.Detach()
		})

		It("drops three clicked spheres under gravity", func() {
			clicks := [][2]float64{{400, 150}, {640, 250}, {900, 200}}
			for _, c := range clicks {
				bus.Post(events.Event{Kind: events.PointerMove, X: c[0], Y: c[1]})
				bus.Post(events.Event{Kind: events.Click, X: c[0], Y: c[1]})
			}
			Expect(bus.Drain()).To(Equal(6))

			spawned := picker.Spawned()
			Expect(spawned).To(HaveLen(3))

			spawnY := make([]float64, len(spawned))
			seen := map[mgl64.Vec3]bool{}
			for i, e := range spawned {
				spawnY[i] = e.Body.Position.Y()
				seen[e.Body.Position] = true
			}
			Expect(seen).To(HaveLen(3))

			for i := 0; i < 60; i++ {
				Expect(loop.Tick()).To(Succeed())
			}
			for i, e := range spawned {
				Expect(e.Body.Position.Y()).To(BeNumerically("<", spawnY[i]), e.Name)
				Expect(e.Mesh.Position).To(Equal(e.Body.Position))
				Expect(e.Mesh.Quaternion).To(Equal(e.Body.Quaternion))
			}
		})

		It("spawns at the origin without a pointer move", func() {
			bus.Post(events.Event{Kind: events.Click})
			Expect(loop.Tick()).To(Succeed())
			Expect(picker.Spawned()).To(HaveLen(1))
			Expect(picker.Spawned()[0].Body.Position.X()).To(BeNumerically("~", 0, 1e-9))
		})
	})
})
