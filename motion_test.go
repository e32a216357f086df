package scenecast

import (
	"math"
	"testing"
)

// stepMany advances the engine n times with a fixed dt.
func stepMany(m *MotionEngine, n int, dt float64) {
	for i := 0; i < n; i++ {
		m.Advance(dt)
	}
}

func TestMotionNoneNeverMutates(t *testing.T) {
	s := NewScene(200)
	e := testShape(20, 20)
	e.X, e.Y = 50, 60
	s.AddElement(e)
	m := NewMotionEngine(s, 1)
	m.Attach(e, MotionConfig{Type: MotionNone, Speed: 100, Direction: Vec2{1, 0}})

	stepMany(m, 100, 0.05)
	if e.X != 50 || e.Y != 60 {
		t.Errorf("element moved to (%v, %v) under MotionNone", e.X, e.Y)
	}
	if e.Motion != nil {
		t.Error("MotionNone left a motion config attached")
	}
}

func TestBounceReflectsAtBoundary(t *testing.T) {
	// A 100px-wide element at x=0 moving right at 100px/s on a 200px
	// canvas reaches the far edge (x = 200 - 100 = 100) after ~1s and
	// reflects.
	s := NewScene(200)
	e := testShape(100, 20)
	s.AddElement(e)
	m := NewMotionEngine(s, 1)
	m.Attach(e, MotionConfig{
		Type:              MotionBounce,
		Speed:             100,
		Direction:         Vec2{1, 0},
		RespectBoundaries: true,
	})

	stepMany(m, 20, 0.05) // 1s total
	assertNearTol(t, "x at boundary", e.X, 100, 1e-6)

	// The following tick clamps and reflects; the one after travels left.
	stepMany(m, 2, 0.05)
	if e.X >= 100 {
		t.Errorf("x = %v after reflection, want < 100", e.X)
	}
}

func TestBounceWrapsWithoutBoundaries(t *testing.T) {
	s := NewScene(200)
	e := testShape(20, 20)
	e.X = 190
	s.AddElement(e)
	m := NewMotionEngine(s, 1)
	m.Attach(e, MotionConfig{Type: MotionBounce, Speed: 400, Direction: Vec2{1, 0}})

	stepMany(m, 2, 0.05) // carries x past the right edge
	if e.X > 190 {
		t.Errorf("x = %v, want wrapped to the left edge", e.X)
	}
}

func TestBoundedMotionStaysOnCanvas(t *testing.T) {
	// Property: with RespectBoundaries, the scaled box stays within
	// [0, canvas] on both axes after any number of ticks.
	types := []MotionType{MotionBounce, MotionRandom}
	for _, typ := range types {
		s := NewScene(300)
		e := testShape(30, 30)
		e.Scale = 2 // scaled box is 60x60
		e.X, e.Y = 100, 100
		s.AddElement(e)
		m := NewMotionEngine(s, 42)
		m.Attach(e, MotionConfig{
			Type:              typ,
			Speed:             250,
			Direction:         Vec2{0.7, -0.7},
			RespectBoundaries: true,
		})

		for i := 0; i < 1000; i++ {
			m.Advance(0.03)
			w, h := e.ScaledSize()
			if e.X < 0 || e.Y < 0 || e.X+w > 300 || e.Y+h > 300 {
				t.Fatalf("%v: escaped canvas at tick %d: (%v, %v)", typ, i, e.X, e.Y)
			}
		}
	}
}

func TestCircularKeepsRadius(t *testing.T) {
	s := NewScene(400)
	e := testShape(10, 10)
	s.AddElement(e)
	m := NewMotionEngine(s, 1)
	m.Attach(e, MotionConfig{
		Type:   MotionCircular,
		Speed:  2, // radians per second
		Center: Vec2{200, 200},
		Radius: 80,
	})

	for i := 0; i < 200; i++ {
		m.Advance(0.05)
		r := math.Hypot(e.X-200, e.Y-200)
		assertNearTol(t, "orbit radius", r, 80, 1e-6)
	}
}

func TestOrbitMatchesCircular(t *testing.T) {
	cfg := MotionConfig{Speed: 1.3, Center: Vec2{100, 100}, Radius: 40}

	sc := NewScene(400)
	ec := testShape(10, 10)
	sc.AddElement(ec)
	mc := NewMotionEngine(sc, 1)
	cfg.Type = MotionCircular
	mc.Attach(ec, cfg)

	so := NewScene(400)
	eo := testShape(10, 10)
	so.AddElement(eo)
	mo := NewMotionEngine(so, 1)
	cfg.Type = MotionOrbit
	mo.Attach(eo, cfg)

	stepMany(mc, 50, 0.04)
	stepMany(mo, 50, 0.04)
	assertNear(t, "x", eo.X, ec.X)
	assertNear(t, "y", eo.Y, ec.Y)
}

func TestOscillateBoundByAmplitude(t *testing.T) {
	s := NewScene(400)
	e := testShape(10, 10)
	s.AddElement(e)
	m := NewMotionEngine(s, 1)
	m.Attach(e, MotionConfig{
		Type:      MotionOscillate,
		Speed:     3,
		Direction: Vec2{1, 0},
		Center:    Vec2{200, 150},
		Radius:    50,
	})

	for i := 0; i < 300; i++ {
		m.Advance(0.04)
		if math.Abs(e.X-200) > 50+1e-9 {
			t.Fatalf("oscillation escaped amplitude: x = %v", e.X)
		}
		assertNear(t, "y stays on axis", e.Y, 150)
	}
}

func TestSpiralRadiusGrows(t *testing.T) {
	s := NewScene(400)
	e := testShape(10, 10)
	s.AddElement(e)
	m := NewMotionEngine(s, 1)
	m.Attach(e, MotionConfig{
		Type:   MotionSpiral,
		Speed:  4,
		Center: Vec2{200, 200},
		Radius: 10, // growth rate, px/s
	})

	m.Advance(0.5)
	r1 := math.Hypot(e.X-200, e.Y-200)
	stepMany(m, 10, 0.5)
	r2 := math.Hypot(e.X-200, e.Y-200)
	if r2 <= r1 {
		t.Errorf("spiral radius did not grow: %v -> %v", r1, r2)
	}
	assertNearTol(t, "final radius", r2, 10*5.5, 1e-6)
}

func TestWaveWrapsHorizontally(t *testing.T) {
	s := NewScene(200)
	e := testShape(20, 20)
	e.X = 195
	s.AddElement(e)
	m := NewMotionEngine(s, 1)
	m.Attach(e, MotionConfig{
		Type:   MotionWave,
		Speed:  100,
		Center: Vec2{0, 100},
		Radius: 30,
	})

	m.Advance(0.2) // x would be 215, past the canvas
	if e.X > 0 {
		t.Errorf("x = %v, want wrapped left of the canvas", e.X)
	}
	if math.Abs(e.Y-100) > 30+1e-9 {
		t.Errorf("wave bob escaped amplitude: y = %v", e.Y)
	}
}

func TestWaveWrapsLeftward(t *testing.T) {
	s := NewScene(200)
	e := testShape(20, 20)
	e.X = 5
	s.AddElement(e)
	m := NewMotionEngine(s, 1)
	m.Attach(e, MotionConfig{
		Type:   MotionWave,
		Speed:  -100,
		Center: Vec2{0, 100},
		Radius: 30,
	})

	m.Advance(0.5) // x would be -45, past the element's own width
	if e.X != 200 {
		t.Errorf("x = %v, want re-entry from the right edge", e.X)
	}
}

func TestAdvanceAdoptsDeserializedConfigs(t *testing.T) {
	// Deserialized scenes set Motion directly on the element; the engine
	// must pick those up without an explicit Attach.
	s := NewScene(480)
	e := testShape(20, 20)
	e.X = 10
	e.Motion = &MotionConfig{
		Type:              MotionBounce,
		Speed:             60,
		Direction:         Vec2{1, 0},
		RespectBoundaries: true,
	}
	s.AddElement(e)
	m := NewMotionEngine(s, 1)

	stepMany(m, 50, 0.05) // 2.5s
	if e.X == 10 {
		t.Error("element with a preset motion config never moved")
	}
}

func TestMoveSpeedScalesAllMotion(t *testing.T) {
	build := func(moveSpeed float64) float64 {
		s := NewScene(10000)
		s.MoveSpeed = moveSpeed
		e := testShape(10, 10)
		s.AddElement(e)
		m := NewMotionEngine(s, 1)
		m.Attach(e, MotionConfig{Type: MotionBounce, Speed: 100, Direction: Vec2{1, 0}})
		stepMany(m, 10, 0.1)
		return e.X
	}

	x1 := build(1)
	x2 := build(2)
	assertNear(t, "doubled move speed", x2, 2*x1)
}

func TestFirstTickClampsDT(t *testing.T) {
	s := NewScene(1000)
	e := testShape(10, 10)
	s.AddElement(e)
	m := NewMotionEngine(s, 1)
	m.Attach(e, MotionConfig{Type: MotionBounce, Speed: 100, Direction: Vec2{1, 0}})

	m.Advance(0) // no previous tick; clamps to a small positive step
	assertNear(t, "first tick travel", e.X, 100*firstTickDT)
}

func TestDetachStopsMotion(t *testing.T) {
	s := NewScene(200)
	e := testShape(10, 10)
	s.AddElement(e)
	m := NewMotionEngine(s, 1)
	m.Attach(e, MotionConfig{Type: MotionBounce, Speed: 100, Direction: Vec2{1, 0}})
	m.Advance(0.1)
	x := e.X

	m.Detach(e.ID)
	m.Advance(0.1)
	if e.X != x {
		t.Errorf("element moved after Detach: %v -> %v", x, e.X)
	}
	if e.Motion != nil {
		t.Error("Detach left the motion config attached")
	}
}

func TestRemovedElementDropsMotionState(t *testing.T) {
	s := NewScene(200)
	e := testShape(10, 10)
	s.AddElement(e)
	m := NewMotionEngine(s, 1)
	m.Attach(e, MotionConfig{Type: MotionBounce, Speed: 100, Direction: Vec2{1, 0}})

	s.RemoveElement(e.ID)
	m.Advance(0.1)
	if _, ok := m.movers[e.ID]; ok {
		t.Error("mover survived element removal")
	}
}

// --- Trail ---

func TestTrailRingBuffer(t *testing.T) {
	tr := NewTrail(3)
	for i := 1; i <= 5; i++ {
		tr.Push(Vec2{float64(i), 0})
	}
	if tr.Len() != 3 {
		t.Fatalf("Len = %d, want capacity 3", tr.Len())
	}
	got := tr.Positions(nil)
	want := []Vec2{{3, 0}, {4, 0}, {5, 0}}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Positions[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestMotionRecordsTrail(t *testing.T) {
	s := NewScene(1000)
	e := testShape(10, 10)
	s.AddElement(e)
	m := NewMotionEngine(s, 1)
	m.Attach(e, MotionConfig{
		Type:        MotionBounce,
		Speed:       100,
		Direction:   Vec2{1, 0},
		ShowTrail:   true,
		TrailLength: 4,
	})

	stepMany(m, 10, 0.05)
	trail := m.Trail(e.ID)
	if trail == nil {
		t.Fatal("no trail recorded")
	}
	if trail.Len() != 4 {
		t.Errorf("trail.Len = %d, want capacity 4", trail.Len())
	}
	// The newest recorded position is the element's pre-update position.
	positions := trail.Positions(nil)
	last := positions[len(positions)-1]
	assertNear(t, "newest trail entry", last.X, e.X-100*0.05)
}
