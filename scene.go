package scenecast

import (
	"image"
	"sort"
)

// Background describes the scene backdrop, painted behind all elements.
type Background struct {
	Kind         BackgroundKind
	Color        Color
	Color2       Color // second gradient stop
	Direction    GradientDirection
	ImagePath    string
	ImageOpacity float64

	img image.Image
}

// SetImage attaches the decoded backdrop raster for BackgroundImage mode.
func (b *Background) SetImage(img image.Image) {
	b.img = img
}

// Image returns the decoded backdrop raster, or nil.
func (b *Background) Image() image.Image {
	return b.img
}

// Scene owns the element list, their z-order, the backdrop, and the global
// motion speed multiplier. It is the exclusive owner of all Elements; no
// concurrent mutation is permitted (see Scheduler for the threading model).
type Scene struct {
	// CanvasSize is the square canvas edge length in pixels.
	CanvasSize int

	Background Background

	// MoveSpeed is a global scalar multiplying all element motion speeds.
	MoveSpeed float64

	elements []*Element // insertion order
	byID     map[string]*Element
	nextSeq  int

	// Drag session state. Only one drag may be active at a time.
	dragged        *Element
	dragDX, dragDY float64

	drawBuf []*Element // reused z-sorted traversal buffer
}

// NewScene creates an empty scene with the given square canvas size, a solid
// black backdrop, and unit move speed.
func NewScene(canvasSize int) *Scene {
	return &Scene{
		CanvasSize: canvasSize,
		MoveSpeed:  1,
		Background: Background{
			Kind:         BackgroundSolid,
			Color:        ColorBlack,
			ImageOpacity: 1,
		},
		byID: make(map[string]*Element),
	}
}

// AddElement appends an element to the scene and returns its id.
// Panics if e is nil or an element with the same id is already present.
func (s *Scene) AddElement(e *Element) string {
	if e == nil {
		panic("scenecast: cannot add nil element")
	}
	if _, ok := s.byID[e.ID]; ok {
		panic("scenecast: element id already present in scene")
	}
	e.seq = s.nextSeq
	s.nextSeq++
	s.elements = append(s.elements, e)
	s.byID[e.ID] = e
	return e.ID
}

// RemoveElement detaches the element with the given id.
// Returns false if no such element exists.
func (s *Scene) RemoveElement(id string) bool {
	e, ok := s.byID[id]
	if !ok {
		return false
	}
	delete(s.byID, id)
	for i, el := range s.elements {
		if el == e {
			copy(s.elements[i:], s.elements[i+1:])
			s.elements[len(s.elements)-1] = nil
			s.elements = s.elements[:len(s.elements)-1]
			break
		}
	}
	if s.dragged == e {
		s.dragged = nil
	}
	return true
}

// Element returns the element with the given id.
func (s *Scene) Element(id string) (*Element, bool) {
	e, ok := s.byID[id]
	return e, ok
}

// Elements returns the element list in insertion order.
// The returned slice MUST NOT be mutated.
func (s *Scene) Elements() []*Element {
	return s.elements
}

// NumElements returns the number of elements in the scene.
func (s *Scene) NumElements() int {
	return len(s.elements)
}

// SetZIndex changes the draw-order index of the element with the given id.
// Returns false if no such element exists.
func (s *Scene) SetZIndex(id string, z int) bool {
	e, ok := s.byID[id]
	if !ok {
		return false
	}
	e.ZIndex = z
	return true
}

// DrawOrder returns the elements sorted back-to-front: ascending ZIndex,
// ties broken by insertion order. The returned slice is reused across calls
// and MUST NOT be retained.
func (s *Scene) DrawOrder() []*Element {
	s.drawBuf = append(s.drawBuf[:0], s.elements...)
	sort.SliceStable(s.drawBuf, func(i, j int) bool {
		return s.drawBuf[i].ZIndex < s.drawBuf[j].ZIndex
	})
	return s.drawBuf
}

// HitTest walks elements front-to-back and returns the first whose
// transformed content box contains the query point, or nil. The bounding box
// is a coarse filter; containment is decided in the element's local space.
func (s *Scene) HitTest(x, y float64) *Element {
	order := s.DrawOrder()
	for i := len(order) - 1; i >= 0; i-- {
		e := order[i]
		if e.Bounds().Contains(x, y) && e.ContainsPoint(x, y) {
			return e
		}
	}
	return nil
}

// StartDrag begins a drag session on the topmost draggable element under
// (x, y). Any prior session is implicitly ended. Returns the captured
// element, or nil if nothing draggable was hit.
func (s *Scene) StartDrag(x, y float64) *Element {
	s.dragged = nil
	e := s.HitTest(x, y)
	if e == nil || !e.Draggable {
		return nil
	}
	s.dragged = e
	s.dragDX = e.X - x
	s.dragDY = e.Y - y
	return e
}

// DragTo moves the captured element so it tracks the pointer. Non-image
// elements are clamped so their scaled box stays within the canvas; images
// may roam freely, supporting oversized cover-fit backdrops.
func (s *Scene) DragTo(x, y float64) {
	e := s.dragged
	if e == nil {
		return
	}
	e.X = x + s.dragDX
	e.Y = y + s.dragDY
	if e.Kind != KindImage {
		s.clampToCanvas(e)
	}
}

// EndDrag releases the current drag session. Idempotent.
func (s *Scene) EndDrag() {
	s.dragged = nil
}

// Dragged returns the currently captured element, or nil.
func (s *Scene) Dragged() *Element {
	return s.dragged
}

// clampToCanvas keeps the element's scaled box within [0, CanvasSize] on
// both axes.
func (s *Scene) clampToCanvas(e *Element) {
	w, h := e.ScaledSize()
	size := float64(s.CanvasSize)
	e.X = clamp(e.X, 0, size-w)
	e.Y = clamp(e.Y, 0, size-h)
}

// clamp bounds v to [lo, hi]. If hi < lo (element larger than the canvas),
// lo wins.
func clamp(v, lo, hi float64) float64 {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
