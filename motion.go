package scenecast

import (
	"math"
	"math/rand"
)

// MotionConfig describes one element's kinematic pattern. The meaning of
// Radius depends on Type: orbit radius for Circular/Orbit, amplitude for
// Oscillate and Wave, growth rate (pixels per second) for Spiral.
type MotionConfig struct {
	Type      MotionType
	Speed     float64 // pixels/sec for linear motions, radians/sec for angular
	Direction Vec2    // unit vector; Bounce, Oscillate, Random
	Center    Vec2    // Circular, Oscillate, Spiral, Orbit, Wave
	Radius    float64

	// RespectBoundaries clamps or reflects at canvas edges instead of
	// free roaming.
	RespectBoundaries bool

	ShowTrail   bool
	TrailLength int
}

// firstTickDT substitutes for dt on the first tick, when no previous tick
// time exists.
const firstTickDT = 0.016

// randomJitter is the maximum per-tick heading perturbation for MotionRandom,
// in radians.
const randomJitter = 0.35

// Trail is a fixed-capacity ring buffer of past positions, rendered as
// fading markers behind a moving element.
type Trail struct {
	buf  []Vec2
	head int // next write slot
	size int
}

// NewTrail creates a trail holding up to capacity positions.
func NewTrail(capacity int) *Trail {
	if capacity < 1 {
		capacity = 1
	}
	return &Trail{buf: make([]Vec2, capacity)}
}

// Push records a position, evicting the oldest once at capacity.
func (t *Trail) Push(p Vec2) {
	t.buf[t.head] = p
	t.head = (t.head + 1) % len(t.buf)
	if t.size < len(t.buf) {
		t.size++
	}
}

// Len returns the number of recorded positions.
func (t *Trail) Len() int {
	return t.size
}

// Positions appends the recorded positions, oldest first, to dst and
// returns it.
func (t *Trail) Positions(dst []Vec2) []Vec2 {
	start := t.head - t.size
	if start < 0 {
		start += len(t.buf)
	}
	for i := 0; i < t.size; i++ {
		dst = append(dst, t.buf[(start+i)%len(t.buf)])
	}
	return dst
}

// mover is the per-element kinematic state, keyed by element id in the
// engine's component table.
type mover struct {
	elem    *Element
	theta   float64 // accumulated angle for Circular/Orbit/Spiral
	phase   float64 // accumulated phase for Oscillate/Wave
	elapsed float64
	dir     Vec2 // live heading for Bounce/Random
	trail   *Trail
}

// MotionEngine advances every motion-tagged element each tick. Kinematic
// state lives in a component table keyed by stable element id rather than on
// the elements themselves, so serialization round-trips cannot corrupt it.
type MotionEngine struct {
	scene  *Scene
	movers map[string]*mover
	rng    *rand.Rand
}

// NewMotionEngine creates a motion engine for the given scene.
func NewMotionEngine(scene *Scene, seed int64) *MotionEngine {
	return &MotionEngine{
		scene:  scene,
		movers: make(map[string]*mover),
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Attach registers kinematic state for the element, replacing any prior
// state. The config is also stored on the element so persistence can see it.
// MotionNone detaches.
func (m *MotionEngine) Attach(e *Element, cfg MotionConfig) {
	if e == nil {
		panic("scenecast: cannot attach motion to nil element")
	}
	cfgCopy := cfg
	e.Motion = &cfgCopy
	if cfg.Type == MotionNone {
		delete(m.movers, e.ID)
		e.Motion = nil
		return
	}
	m.movers[e.ID] = newMover(e, &cfgCopy)
}

// newMover builds fresh kinematic state for an element's motion config.
func newMover(e *Element, cfg *MotionConfig) *mover {
	mv := &mover{elem: e, dir: normalize(cfg.Direction)}
	if cfg.ShowTrail {
		mv.trail = NewTrail(cfg.TrailLength)
	}
	return mv
}

// Detach removes kinematic state for the element id. Idempotent.
func (m *MotionEngine) Detach(id string) {
	if mv, ok := m.movers[id]; ok {
		mv.elem.Motion = nil
		delete(m.movers, id)
	}
}

// Trail returns the trail for the element id, or nil.
func (m *MotionEngine) Trail(id string) *Trail {
	if mv, ok := m.movers[id]; ok {
		return mv.trail
	}
	return nil
}

// Advance steps every motioned element by dt seconds. Non-positive dt (the
// first tick, or a clock hiccup) is clamped to a small positive step. The
// scene's MoveSpeed multiplies every element's configured speed.
//
// Elements carrying a Motion config that was never passed through Attach
// (deserialized scenes set the config directly) are adopted on the first
// tick, so an imported scene starts moving without extra wiring.
func (m *MotionEngine) Advance(dt float64) {
	if dt <= 0 {
		dt = firstTickDT
	}
	for _, e := range m.scene.elements {
		if e.Motion == nil || e.Motion.Type == MotionNone {
			continue
		}
		if _, ok := m.movers[e.ID]; !ok {
			m.movers[e.ID] = newMover(e, e.Motion)
		}
	}
	for id, mv := range m.movers {
		e := mv.elem
		if _, ok := m.scene.byID[id]; !ok {
			// Element was removed from the scene; drop its state.
			delete(m.movers, id)
			continue
		}
		cfg := e.Motion
		if cfg == nil || cfg.Type == MotionNone {
			continue
		}
		if mv.trail != nil {
			mv.trail.Push(Vec2{e.X, e.Y})
		}
		speed := cfg.Speed * m.scene.MoveSpeed
		mv.elapsed += dt

		switch cfg.Type {
		case MotionBounce:
			m.stepLinear(mv, e, cfg, speed*dt, true)
		case MotionCircular, MotionOrbit:
			mv.theta += speed * dt
			e.X = cfg.Center.X + cfg.Radius*math.Cos(mv.theta)
			e.Y = cfg.Center.Y + cfg.Radius*math.Sin(mv.theta)
		case MotionOscillate:
			mv.phase += speed * dt
			off := cfg.Radius * math.Sin(mv.phase)
			e.X = cfg.Center.X + mv.dir.X*off
			e.Y = cfg.Center.Y + mv.dir.Y*off
		case MotionSpiral:
			mv.theta += speed * dt
			r := cfg.Radius * mv.elapsed
			e.X = cfg.Center.X + r*math.Cos(mv.theta)
			e.Y = cfg.Center.Y + r*math.Sin(mv.theta)
		case MotionRandom:
			jitter := (m.rng.Float64()*2 - 1) * randomJitter
			mv.dir = rotateVec(mv.dir, jitter)
			m.stepLinear(mv, e, cfg, speed*dt, false)
		case MotionWave:
			mv.phase += speed * dt
			e.X += speed * dt
			e.Y = cfg.Center.Y + cfg.Radius*math.Sin(mv.phase)
			w, _ := e.ScaledSize()
			size := float64(m.scene.CanvasSize)
			if e.X > size {
				e.X = -w
			} else if e.X < -w {
				e.X = size
			}
		}
	}
}

// stepLinear integrates position along the mover's heading and handles
// boundary contact. With RespectBoundaries the heading component reflects;
// otherwise Bounce wraps to the opposite edge (wrap=true) and Random roams
// freely.
func (m *MotionEngine) stepLinear(mv *mover, e *Element, cfg *MotionConfig, dist float64, wrap bool) {
	e.X += mv.dir.X * dist
	e.Y += mv.dir.Y * dist

	w, h := e.ScaledSize()
	maxX := float64(m.scene.CanvasSize) - w
	maxY := float64(m.scene.CanvasSize) - h

	if cfg.RespectBoundaries {
		if e.X < 0 {
			e.X = 0
			mv.dir.X = -mv.dir.X
		} else if e.X > maxX {
			e.X = maxX
			mv.dir.X = -mv.dir.X
		}
		if e.Y < 0 {
			e.Y = 0
			mv.dir.Y = -mv.dir.Y
		} else if e.Y > maxY {
			e.Y = maxY
			mv.dir.Y = -mv.dir.Y
		}
		return
	}
	if !wrap {
		return
	}
	size := float64(m.scene.CanvasSize)
	if e.X > size {
		e.X = -w
	} else if e.X < -w {
		e.X = size
	}
	if e.Y > size {
		e.Y = -h
	} else if e.Y < -h {
		e.Y = size
	}
}

// normalize returns v scaled to unit length. A zero vector falls back to
// rightward travel so motion never stalls on a degenerate config.
func normalize(v Vec2) Vec2 {
	l := math.Hypot(v.X, v.Y)
	if l == 0 {
		return Vec2{1, 0}
	}
	return Vec2{v.X / l, v.Y / l}
}

// rotateVec rotates v by the given angle in radians.
func rotateVec(v Vec2, angle float64) Vec2 {
	sin, cos := math.Sincos(angle)
	return Vec2{v.X*cos - v.Y*sin, v.X*sin + v.Y*cos}
}
