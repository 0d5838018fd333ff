package world

import (
	"bytes"
	"errors"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/rigidlab/internal/config"
	"github.com/san-kum/rigidlab/internal/logger"
	"github.com/san-kum/rigidlab/internal/scene"
)

func build(t *testing.T, name string) *World {
	t.Helper()
	cfg := config.GetPreset(name)
	if cfg == nil {
		t.Fatalf("preset %s missing", name)
	}
	w, err := NewBuilder(nil).Build(cfg)
	if err != nil {
		t.Fatalf("build %s failed: %v", name, err)
	}
	return w
}

func TestBuildBasic(t *testing.T) {
	w := build(t, "basic")

	if len(w.Entities) != 3 {
		t.Fatalf("expected 3 entities, got %d", len(w.Entities))
	}
	if w.Scene.Len() != len(w.Entities) || len(w.Physics.Bodies) != len(w.Entities) {
		t.Errorf("meshes %d, bodies %d, entities %d should agree",
			w.Scene.Len(), len(w.Physics.Bodies), len(w.Entities))
	}
	if w.Ground == nil || !w.Ground.Body.IsStatic() {
		t.Fatal("expected a static ground")
	}
	if g := w.Ground.Mesh.Geometry; g.Kind != scene.GeometryPlane || g.Width != 30 || g.Height != 30 {
		t.Errorf("unexpected ground geometry: %+v", g)
	}

	box, ok := w.Entity("box")
	if !ok {
		t.Fatal("box missing")
	}
	if g := box.Mesh.Geometry; g.Width != 2 || g.Height != 2 || g.Depth != 2 {
		t.Errorf("box mesh should be twice the half extents, got %+v", g)
	}
	if box.Body.AngularDamping != 0.5 {
		t.Errorf("expected angular damping 0.5, got %v", box.Body.AngularDamping)
	}
	sphere, _ := w.Entity("sphere")
	if sphere.Mesh.Geometry.Radius != sphere.Body.Shape.Radius {
		t.Error("sphere mesh radius should match body radius")
	}

	ground := w.Material("ground")
	if cm := w.Physics.ContactMaterialFor(ground, w.Material("slippery")); cm.Friction != 0.04 || cm.Restitution != 0.3 {
		t.Errorf("unexpected ground/slippery material: %+v", cm)
	}
	if cm := w.Physics.ContactMaterialFor(w.Material("sphere"), ground); cm.Restitution != 1.0 {
		t.Errorf("unexpected ground/sphere restitution: %v", cm.Restitution)
	}
}

func TestBasicBoxDoesNotPassThroughSphere(t *testing.T) {
	w := build(t, "basic")
	box, _ := w.Entity("box")
	sphere, _ := w.Entity("sphere")

	closest := math.Inf(1)
	for i := 0; i < 300; i++ {
		if err := w.Physics.Step(w.Config.Timestep); err != nil {
			t.Fatal(err)
		}
		d := box.Body.Position.Sub(sphere.Body.Position).Len()
		closest = math.Min(closest, d)
	}

	// half extent 1 plus radius 2, less a little penetration
	if closest < 2.85 {
		t.Errorf("box came within %.3f of the sphere centre", closest)
	}
}

func TestBuildGroundOrientation(t *testing.T) {
	w := build(t, "basic")
	// local +Z of the ground box points up after the -pi/2 turn about X
	up := w.Ground.Body.Quaternion.Rotate(mgl64.Vec3{0, 0, 1})
	if !up.ApproxEqualThreshold(mgl64.Vec3{0, 1, 0}, 1e-9) {
		t.Errorf("expected ground normal +Y, got %v", up)
	}
}

func TestBuildGrid(t *testing.T) {
	w := build(t, "cloth")
	gc := w.Config.Grid
	rows, cols := gc.Rows, gc.Cols

	want := rows*(cols-1) + cols*(rows-1)
	if len(w.GridLinks) != want {
		t.Errorf("expected %d distance constraints, got %d", want, len(w.GridLinks))
	}
	if len(w.Physics.Constraints) != want {
		t.Errorf("physics world holds %d constraints, want %d", len(w.Physics.Constraints), want)
	}
	if len(w.Entities) != rows*cols+1 {
		t.Errorf("expected %d entities, got %d", rows*cols+1, len(w.Entities))
	}
	for _, c := range w.GridLinks {
		if c.Distance != gc.Distance {
			t.Fatalf("rest length %v, want %v", c.Distance, gc.Distance)
		}
		if d := c.A.Position.Sub(c.B.Position).Len(); math.Abs(d-gc.Distance) > 1e-9 {
			t.Fatalf("linked particles start %v apart", d)
		}
	}

	first, ok := w.Entity("particle-0-0")
	if !ok {
		t.Fatal("particle-0-0 missing")
	}
	if !first.Body.Position.ApproxEqual(mgl64.Vec3{1.5, 4, -1.5}) {
		t.Errorf("unexpected first particle position %v", first.Body.Position)
	}
}

func TestBuildGridSmall(t *testing.T) {
	tests := []struct {
		rows, cols int
		want       int
	}{
		{1, 1, 0},
		{1, 4, 3},
		{3, 1, 2},
		{2, 3, 7},
	}
	for _, tt := range tests {
		cfg := config.DefaultConfig()
		cfg.Grid = &config.GridConfig{Rows: tt.rows, Cols: tt.cols, Distance: 0.5, Mass: 1}
		w, err := NewBuilder(nil).Build(cfg)
		if err != nil {
			t.Fatalf("%dx%d: %v", tt.rows, tt.cols, err)
		}
		if len(w.GridLinks) != tt.want {
			t.Errorf("%dx%d: expected %d links, got %d", tt.rows, tt.cols, tt.want, len(w.GridLinks))
		}
	}
}

func TestBuildChain(t *testing.T) {
	w := build(t, "chain")
	cc := w.Config.Chain

	if len(w.ChainLinks) != cc.Count-1 {
		t.Fatalf("expected %d chain links, got %d", cc.Count-1, len(w.ChainLinks))
	}
	for i, c := range w.ChainLinks {
		cur, _ := w.Entity(linkName(i + 1))
		prev, _ := w.Entity(linkName(i))
		if c.A != cur.Body || c.B != prev.Body {
			t.Errorf("link %d does not join consecutive boxes", i)
		}
	}
	if len(w.AnchorLinks) != 2 {
		t.Fatalf("expected 2 anchor links, got %d", len(w.AnchorLinks))
	}

	left, _ := w.Entity("anchor-left")
	right, _ := w.Entity("anchor-right")
	last, _ := w.Entity(linkName(cc.Count - 1))
	first, _ := w.Entity(linkName(0))
	if math.Abs(left.Body.Position.X()-last.Body.Position.X()) > 1e-9 {
		t.Errorf("left anchor x %v, last box x %v", left.Body.Position.X(), last.Body.Position.X())
	}
	if math.Abs(right.Body.Position.X()-first.Body.Position.X()) > 1e-9 {
		t.Errorf("right anchor x %v, first box x %v", right.Body.Position.X(), first.Body.Position.X())
	}
	if !left.Body.IsStatic() || !right.Body.IsStatic() {
		t.Error("anchors should be static")
	}
	if w.AnchorLinks[0].B != last.Body || w.AnchorLinks[1].B != first.Body {
		t.Error("anchors should lock to the chain ends above them")
	}
}

func TestBuildChainReferenceWarns(t *testing.T) {
	var buf bytes.Buffer
	l, err := logger.New(&buf, "warn", "")
	if err != nil {
		t.Fatal(err)
	}
	w, err := NewBuilder(l).Build(config.GetPreset("chain_reference"))
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if len(w.AnchorLinks) != 0 {
		t.Errorf("expected no anchor links, got %d", len(w.AnchorLinks))
	}
	if len(w.ChainLinks) != w.Config.Chain.Count-1 {
		t.Errorf("chain links should still be built")
	}
	if !strings.Contains(buf.String(), "not attached") {
		t.Errorf("expected a warning, got %q", buf.String())
	}
}

func TestSpawnAppendsPair(t *testing.T) {
	w := build(t, "picking")
	before := len(w.Entities)

	e, err := w.Spawn(config.BodyConfig{
		Name: "ball", Shape: "sphere", Radius: 0.125, Mass: 0.3, Material: "ball-0", Color: 0x123456,
	}, mgl64.Vec3{1, 2, 3})
	if err != nil {
		t.Fatalf("spawn failed: %v", err)
	}
	if len(w.Entities) != before+1 || w.Scene.Len() != before+1 || len(w.Physics.Bodies) != before+1 {
		t.Error("spawn should add exactly one body, mesh and entity")
	}
	if !e.InSync() {
		t.Error("a new entity starts in sync")
	}
	if e.Body.Material == nil || e.Body.Material.Name != "ball-0" {
		t.Error("expected the named material")
	}
	if e.Mesh.Material.Color != 0x123456 {
		t.Errorf("unexpected colour %x", e.Mesh.Material.Color)
	}
}

func TestSpawnRejectsUnknownShape(t *testing.T) {
	w := build(t, "picking")
	before := len(w.Entities)
	_, err := w.Spawn(config.BodyConfig{Name: "cone", Shape: "cone", Mass: 1}, mgl64.Vec3{})
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
	if len(w.Entities) != before || len(w.Physics.Bodies) != before {
		t.Error("failed spawn must not add anything")
	}
}

func TestSyncCopiesPose(t *testing.T) {
	w := build(t, "basic")
	if err := w.Physics.Step(1.0 / 60); err != nil {
		t.Fatal(err)
	}
	sphere, _ := w.Entity("sphere")
	if sphere.InSync() {
		t.Fatal("mesh should lag the body until synced")
	}
	if n := w.Sync(); n != len(w.Entities) {
		t.Errorf("expected %d synced, got %d", len(w.Entities), n)
	}
	for _, e := range w.Entities {
		if !e.InSync() {
			t.Errorf("%s out of sync", e.Name)
		}
	}
}

func TestUnsyncedGroundIsSkipped(t *testing.T) {
	cfg := config.GetPreset("basic")
	cfg.Ground.Synced = false
	w, err := NewBuilder(nil).Build(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if n := w.Sync(); n != len(w.Entities)-1 {
		t.Errorf("expected ground to be skipped, synced %d", n)
	}
}

func TestBuildInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Timestep = 0
	if _, err := NewBuilder(nil).Build(cfg); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
	if _, err := NewBuilder(nil).Build(nil); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for nil, got %v", err)
	}
}

func linkName(i int) string {
	return "link-" + strconv.Itoa(i)
}

func TestFrameSceneMatchesMeshes(t *testing.T) {
	w := build(t, "chain")
	for i := 0; i < 10; i++ {
		if err := w.Physics.Step(1.0 / 60); err != nil {
			t.Fatal(err)
		}
	}
	w.Sync()

	s := w.Snapshot(10).Scene()
	if s.Len() != w.Scene.Len() {
		t.Fatalf("expected %d meshes, got %d", w.Scene.Len(), s.Len())
	}
	for i, m := range s.Meshes {
		orig := w.Scene.Meshes[i]
		if m.Geometry != orig.Geometry {
			t.Errorf("%s: geometry %+v, want %+v", m.Name, m.Geometry, orig.Geometry)
		}
		if !m.Position.ApproxEqual(orig.Position) {
			t.Errorf("%s: position %v, want %v", m.Name, m.Position, orig.Position)
		}
		if !m.Quaternion.ApproxEqual(orig.Quaternion) {
			t.Errorf("%s: orientation %v, want %v", m.Name, m.Quaternion, orig.Quaternion)
		}
	}
}
