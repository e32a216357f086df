package scenecast

// Vec2 is a 2D vector used for positions, offsets, sizes, and directions
// throughout the API.
type Vec2 struct {
	X, Y float64
}

// Add returns the componentwise sum of v and o.
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{v.X + o.X, v.Y + o.Y}
}

// Scale returns v with both components multiplied by f.
func (v Vec2) Scale(f float64) Vec2 {
	return Vec2{v.X * f, v.Y * f}
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// ElementKind distinguishes rendering and serialization behavior for an Element.
type ElementKind uint8

const (
	KindText     ElementKind = iota // static text, solid or gradient fill
	KindImage                       // decoded raster image, rotatable and mirrorable
	KindShape                       // circle or rectangle with fill and stroke
	KindVideo                       // cycles frames out of a VideoCache
	KindLiveText                    // text/bar/gauge driven by a LiveBinding
)

// String returns the serialized name of the kind as used in scene JSON.
func (k ElementKind) String() string {
	switch k {
	case KindText:
		return "Text"
	case KindImage:
		return "Image"
	case KindShape:
		return "Shape"
	case KindVideo:
		return "Video"
	case KindLiveText:
		return "LiveText"
	default:
		return "Unknown"
	}
}

// ShapeKind selects the geometry of a shape element.
type ShapeKind uint8

const (
	ShapeCircle ShapeKind = iota
	ShapeRectangle
)

// MotionType selects the kinematic pattern applied to an element per tick.
type MotionType uint8

const (
	MotionNone      MotionType = iota // no per-tick mutation
	MotionBounce                      // linear travel, reflect or wrap at edges
	MotionCircular                    // fixed-radius orbit around a center point
	MotionOscillate                   // sinusoidal travel along a direction vector
	MotionSpiral                      // orbit whose radius grows with elapsed time
	MotionRandom                      // random walk with per-tick heading jitter
	MotionWave                        // constant horizontal travel with sine bob
	MotionOrbit                       // same math as Circular; satellite semantics
)

// motionTypeNames maps MotionType to its serialized name.
var motionTypeNames = [...]string{"None", "Bounce", "Circular", "Oscillate", "Spiral", "Random", "Wave", "Orbit"}

// String returns the serialized name of the motion type.
func (m MotionType) String() string {
	if int(m) < len(motionTypeNames) {
		return motionTypeNames[m]
	}
	return "Unknown"
}

// LiveKind identifies which sampled value drives a live element.
type LiveKind uint8

const (
	LiveCPUUsage LiveKind = iota
	LiveGPUUsage
	LiveCPUTemperature
	LiveGPUTemperature
	LiveDateTime
)

// liveKindNames maps LiveKind to its serialized name.
var liveKindNames = [...]string{"CpuUsage", "GpuUsage", "CpuTemperature", "GpuTemperature", "DateTime"}

// String returns the serialized name of the live kind.
func (k LiveKind) String() string {
	if int(k) < len(liveKindNames) {
		return liveKindNames[k]
	}
	return "Unknown"
}

// DisplayStyle selects how a live value is visualized.
type DisplayStyle uint8

const (
	StyleText        DisplayStyle = iota // formatted label
	StyleProgressBar                     // fixed-width track with proportional fill
	StyleGauge                           // 240-degree dial with an eased needle
)

// displayStyleNames maps DisplayStyle to its serialized name.
var displayStyleNames = [...]string{"Text", "ProgressBar", "Gauge"}

// String returns the serialized name of the display style.
func (s DisplayStyle) String() string {
	if int(s) < len(displayStyleNames) {
		return displayStyleNames[s]
	}
	return "Unknown"
}

// BackgroundKind selects how the scene backdrop is painted.
type BackgroundKind uint8

const (
	BackgroundNone     BackgroundKind = iota // transparent-over-black backdrop
	BackgroundSolid                          // single color
	BackgroundGradient                       // two-stop linear gradient
	BackgroundImage                          // cover-fit raster image with opacity
)

// GradientDirection orients a two-stop background gradient.
type GradientDirection uint8

const (
	GradientHorizontal GradientDirection = iota
	GradientVertical
	GradientDiagonal
)
