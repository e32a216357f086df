package scenecast

import (
	"image"

	"github.com/google/uuid"
)

// Element is a single positioned, transformable scene member. A single flat
// struct is used for all kinds to avoid interface dispatch on the hot path;
// rendering and serialization switch on Kind.
type Element struct {
	// Identity
	ID   string
	Kind ElementKind

	// Transform
	X, Y      float64
	Scale     float64
	Rotation  float64 // degrees; honored for images only
	MirroredX bool    // honored for images only

	// Presentation
	Opacity   float64 // clamped to [0.1, 1.0]
	ZIndex    int
	Draggable bool

	// Text fields (KindText)
	Text            string
	FontSize        float64
	TextColor       Color
	TextColor2      Color
	UseTextGradient bool

	// Image fields (KindImage)
	ImagePath string

	// Shape fields (KindShape)
	Shape       ShapeKind
	FillColor   Color
	StrokeColor Color
	StrokeWidth float64

	// Video fields (KindVideo). VideoCacheFolder is the frame cache folder
	// name recorded in scene documents; empty means derive from VideoPath.
	VideoPath        string
	VideoCacheFolder string
	Video            *VideoCache

	// Capabilities (1:0..1 compositions owned by the element)
	Motion *MotionConfig
	Live   *LiveBinding

	// Natural (unscaled) size. Set at construction for shapes, on resource
	// load for images and videos, and re-measured on content change for text.
	baseW, baseH float64

	// Current raster content for image and video kinds.
	img image.Image

	// Insertion order, used as the z-order tiebreak.
	seq int
}

// elementDefaults sets the common default field values shared by all constructors.
func elementDefaults(e *Element) {
	e.ID = uuid.NewString()
	e.Scale = 1
	e.Opacity = 1
	e.Draggable = true
}

// NewTextElement creates a static text element with a solid white fill.
func NewTextElement(text string, fontSize float64) *Element {
	e := &Element{
		Kind:      KindText,
		Text:      text,
		FontSize:  fontSize,
		TextColor: ColorWhite,
	}
	elementDefaults(e)
	e.remeasure()
	return e
}

// NewImageElement creates an image element. The natural size is zero until
// SetImage is called with the decoded raster.
func NewImageElement(path string) *Element {
	e := &Element{Kind: KindImage, ImagePath: path}
	elementDefaults(e)
	return e
}

// NewShapeElement creates a circle or rectangle element with the given
// natural size.
func NewShapeElement(shape ShapeKind, w, h float64) *Element {
	e := &Element{
		Kind:      KindShape,
		Shape:     shape,
		FillColor: ColorWhite,
		baseW:     w,
		baseH:     h,
	}
	elementDefaults(e)
	return e
}

// NewVideoElement creates a video element backed by the given cache. The
// element's natural size follows the first decoded frame.
func NewVideoElement(cache *VideoCache) *Element {
	e := &Element{Kind: KindVideo, Video: cache}
	elementDefaults(e)
	if cache != nil {
		e.VideoPath = cache.SourcePath
	}
	return e
}

// NewLiveTextElement creates a live element bound to the given sampled value,
// initially in Text style with a white-to-white theme.
func NewLiveTextElement(kind LiveKind) *Element {
	e := &Element{
		Kind:     KindLiveText,
		FontSize: defaultLiveFontSize,
		Live:     NewLiveBinding(kind),
	}
	elementDefaults(e)
	e.remeasure()
	return e
}

// SetText replaces the text content and re-measures the natural size.
// No-op for non-text kinds.
func (e *Element) SetText(text string) {
	if e.Kind != KindText {
		return
	}
	e.Text = text
	e.remeasure()
}

// SetFontSize changes the font size and re-measures the natural size.
func (e *Element) SetFontSize(size float64) {
	if size <= 0 {
		return
	}
	e.FontSize = size
	e.remeasure()
}

// SetOpacity sets the element opacity, clamped to [0.1, 1.0].
func (e *Element) SetOpacity(v float64) {
	if v < 0.1 {
		v = 0.1
	}
	if v > 1 {
		v = 1
	}
	e.Opacity = v
}

// SetImage attaches decoded raster content and adopts its natural size.
// Used for image elements on resource load and for video elements on each
// frame swap (the natural size is adopted only from the first frame).
func (e *Element) SetImage(img image.Image) {
	e.img = img
	if img == nil {
		return
	}
	if e.Kind == KindImage || (e.Kind == KindVideo && e.baseW == 0) {
		b := img.Bounds()
		e.baseW = float64(b.Dx())
		e.baseH = float64(b.Dy())
	}
}

// Image returns the element's current raster content, or nil.
func (e *Element) Image() image.Image {
	return e.img
}

// BaseSize returns the element's natural (unscaled) size.
func (e *Element) BaseSize() (w, h float64) {
	return e.baseW, e.baseH
}

// ScaledSize returns the element's natural size multiplied by its scale
// factor. Boundary handling in the motion engine uses this, not the raw
// size, so scaled-up elements do not clip at canvas edges.
func (e *Element) ScaledSize() (w, h float64) {
	return e.baseW * e.Scale, e.baseH * e.Scale
}

// Bounds returns the canvas-space axis-aligned bounding box of the fully
// transformed element.
func (e *Element) Bounds() Rect {
	return transformedBounds(computeElementTransform(e), e.baseW, e.baseH)
}

// ContainsPoint reports whether the canvas-space point (x, y) lies on the
// element's transformed content box. The point is inverse-mapped into local
// space, so rotated and mirrored elements test against their true outline
// rather than the axis-aligned bounds.
func (e *Element) ContainsPoint(x, y float64) bool {
	inv := invertAffine(computeElementTransform(e))
	lx, ly := transformPoint(inv, x, y)
	return lx >= 0 && lx <= e.baseW && ly >= 0 && ly <= e.baseH
}

// SetLiveStyle switches a live element's display style and adopts the new
// visual's natural size. No-op for non-live kinds.
func (e *Element) SetLiveStyle(style DisplayStyle) {
	if e.Kind != KindLiveText || e.Live == nil {
		return
	}
	e.Live.SetStyle(style)
	e.remeasure()
}

// remeasure refreshes the natural size from the current content: font
// metrics for text-bearing kinds, fixed visual geometry for bar and gauge
// styles.
func (e *Element) remeasure() {
	if e.Kind == KindLiveText && e.Live != nil {
		switch e.Live.Style {
		case StyleProgressBar:
			_, lh := measureText("", e.FontSize)
			e.baseW = barTrackWidth
			e.baseH = barTrackHeight + 2 + lh
		case StyleGauge:
			e.baseW = gaugeDiameter
			e.baseH = gaugeDiameter
		default:
			e.baseW, e.baseH = measureText(e.Live.Label(), e.FontSize)
		}
		return
	}
	e.baseW, e.baseH = measureText(e.Text, e.FontSize)
}
