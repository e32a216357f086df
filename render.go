package scenecast

import (
	"image"
	stdcolor "image/color"
	"math"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
)

// gaugeDiameter is the natural (unscaled) dial diameter in pixels.
const gaugeDiameter = 120.0

// gaugeTickFontSize is the natural size of the dial's numeric labels.
const gaugeTickFontSize = 10.0

// trailMarkerRadius is the radius of one trail marker in pixels.
const trailMarkerRadius = 3.0

// --- Font cache ---

// fontCache holds the parsed embedded face and per-size instances. Shared
// by measurement (element sizing) and rasterization.
var fontCache struct {
	mu    sync.Mutex
	sfnt  *opentype.Font
	faces map[int]font.Face
}

// face returns a cached font.Face for the given pixel size. Sizes are
// quantized to whole pixels.
func face(size float64) font.Face {
	px := int(math.Round(size))
	if px < 1 {
		px = 1
	}
	fontCache.mu.Lock()
	defer fontCache.mu.Unlock()
	if fontCache.faces == nil {
		fontCache.faces = make(map[int]font.Face)
	}
	if f, ok := fontCache.faces[px]; ok {
		return f
	}
	if fontCache.sfnt == nil {
		parsed, err := opentype.Parse(goregular.TTF)
		if err != nil {
			// The embedded font is a build-time constant; failing to
			// parse it is unrecoverable.
			panic("scenecast: parse embedded font: " + err.Error())
		}
		fontCache.sfnt = parsed
	}
	f, err := opentype.NewFace(fontCache.sfnt, &opentype.FaceOptions{
		Size:    float64(px),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		panic("scenecast: instantiate font face: " + err.Error())
	}
	fontCache.faces[px] = f
	return f
}

// measureText returns the rendered width and line height of s at the given
// font size.
func measureText(s string, size float64) (w, h float64) {
	f := face(size)
	m := f.Metrics()
	h = float64((m.Ascent + m.Descent).Ceil())
	if s == "" {
		return 0, h
	}
	w = float64(font.MeasureString(f, s).Ceil())
	return w, h
}

// --- Renderer ---

// Renderer rasterizes a composed scene into an RGBA canvas. It holds no
// scene state and may be reused across frames; it is not safe for
// concurrent use.
type Renderer struct {
	trailBuf []Vec2
}

// NewRenderer creates a renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render composites the backdrop and every element, back-to-front by
// z-index, onto a CanvasSize x CanvasSize image. Pass the motion engine to
// include trails, or nil to skip them.
func (r *Renderer) Render(s *Scene, motion *MotionEngine) *image.RGBA {
	size := s.CanvasSize
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	r.drawBackground(dst, &s.Background)
	for _, e := range s.DrawOrder() {
		if motion != nil && e.Motion != nil && e.Motion.ShowTrail {
			r.drawTrail(dst, motion, e)
		}
		r.drawElement(dst, e)
	}
	return dst
}

// drawBackground paints the scene backdrop.
func (r *Renderer) drawBackground(dst *image.RGBA, bg *Background) {
	bounds := dst.Bounds()
	switch bg.Kind {
	case BackgroundNone:
		fillRect(dst, bounds, ColorBlack.toNRGBA())
	case BackgroundSolid:
		fillRect(dst, bounds, bg.Color.toNRGBA())
	case BackgroundGradient:
		drawGradient(dst, bg.Color, bg.Color2, bg.Direction)
	case BackgroundImage:
		fillRect(dst, bounds, ColorBlack.toNRGBA())
		if bg.img != nil {
			drawCoverImage(dst, bg.img, bg.ImageOpacity)
		}
	}
}

// drawGradient fills dst with a two-stop linear gradient.
func drawGradient(dst *image.RGBA, from, to Color, dir GradientDirection) {
	b := dst.Bounds()
	w, h := b.Dx(), b.Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var t float64
			switch dir {
			case GradientHorizontal:
				t = float64(x) / float64(w-1)
			case GradientVertical:
				t = float64(y) / float64(h-1)
			default:
				t = (float64(x) + float64(y)) / float64(w+h-2)
			}
			dst.SetRGBA(b.Min.X+x, b.Min.Y+y, toRGBAOpaque(LerpColor(from, to, t)))
		}
	}
}

// drawCoverImage scales src uniformly so it covers dst, centers it, and
// composites it with the given opacity.
func drawCoverImage(dst *image.RGBA, src image.Image, opacity float64) {
	db := dst.Bounds()
	sb := src.Bounds()
	sw, sh := float64(sb.Dx()), float64(sb.Dy())
	if sw == 0 || sh == 0 {
		return
	}
	scale := math.Max(float64(db.Dx())/sw, float64(db.Dy())/sh)
	outW := sw * scale
	outH := sh * scale
	offX := (float64(db.Dx()) - outW) / 2
	offY := (float64(db.Dy()) - outH) / 2
	m := f64.Aff3{scale, 0, offX, 0, scale, offY}
	draw.ApproxBiLinear.Transform(dst, m, src, sb, draw.Over, alphaOptions(opacity))
}

// drawElement dispatches on the element kind.
func (r *Renderer) drawElement(dst *image.RGBA, e *Element) {
	switch e.Kind {
	case KindText:
		r.drawTextElement(dst, e)
	case KindImage, KindVideo:
		r.drawRasterElement(dst, e)
	case KindShape:
		r.drawShapeElement(dst, e)
	case KindLiveText:
		r.drawLiveElement(dst, e)
	}
}

// drawRasterElement composites the element's current raster content through
// its full affine transform. Elements whose content has not loaded yet are
// skipped.
func (r *Renderer) drawRasterElement(dst *image.RGBA, e *Element) {
	if e.img == nil {
		return
	}
	m := computeElementTransform(e)
	aff := f64.Aff3{m[0], m[2], m[4], m[1], m[3], m[5]}
	draw.ApproxBiLinear.Transform(dst, aff, e.img, e.img.Bounds(), draw.Over, alphaOptions(e.Opacity))
}

// drawTextElement renders static text with a solid or two-stop gradient fill.
func (r *Renderer) drawTextElement(dst *image.RGBA, e *Element) {
	to := e.TextColor
	if e.UseTextGradient {
		to = e.TextColor2
	}
	drawString(dst, e.Text, e.X, e.Y, e.FontSize*e.Scale, e.TextColor.WithAlpha(e.Opacity), to.WithAlpha(e.Opacity))
}

// drawShapeElement renders a filled circle or rectangle with an optional
// stroke.
func (r *Renderer) drawShapeElement(dst *image.RGBA, e *Element) {
	w, h := e.ScaledSize()
	fill := e.FillColor.WithAlpha(e.Opacity).toNRGBA()
	stroke := e.StrokeColor.WithAlpha(e.Opacity).toNRGBA()
	sw := e.StrokeWidth * e.Scale
	switch e.Shape {
	case ShapeCircle:
		cx := e.X + w/2
		cy := e.Y + h/2
		radius := math.Min(w, h) / 2
		fillCircle(dst, cx, cy, radius, fill)
		if sw > 0 {
			strokeCircle(dst, cx, cy, radius, sw, stroke)
		}
	case ShapeRectangle:
		rect := image.Rect(int(e.X), int(e.Y), int(e.X+w), int(e.Y+h))
		fillRect(dst, rect, fill)
		if sw > 0 {
			strokeRect(dst, rect, int(math.Max(1, sw)), stroke)
		}
	}
}

// drawLiveElement renders a live binding in its current display style.
func (r *Renderer) drawLiveElement(dst *image.RGBA, e *Element) {
	b := e.Live
	if b == nil {
		return
	}
	switch b.Style {
	case StyleText:
		drawString(dst, b.Label(), e.X, e.Y, e.FontSize*e.Scale,
			b.StartColor.WithAlpha(e.Opacity), b.EndColor.WithAlpha(e.Opacity))
	case StyleProgressBar:
		r.drawBar(dst, e, b)
	case StyleGauge:
		r.drawGauge(dst, e, b)
	}
}

// drawBar renders the fixed-width track, the proportional fill, and the
// label, fill and label sharing the interpolated theme color.
func (r *Renderer) drawBar(dst *image.RGBA, e *Element, b *LiveBinding) {
	sc := e.Scale
	trackW := barTrackWidth * sc
	trackH := barTrackHeight * sc
	track := image.Rect(int(e.X), int(e.Y), int(e.X+trackW), int(e.Y+trackH))
	fillRect(dst, track, b.BarBackgroundColor.WithAlpha(e.Opacity).toNRGBA())

	col := b.ValueColor().WithAlpha(e.Opacity)
	fillW := b.BarFillWidth() * sc
	if fillW > 0 {
		fillRect(dst, image.Rect(int(e.X), int(e.Y), int(e.X+fillW), int(e.Y+trackH)), col.toNRGBA())
	}
	drawString(dst, b.Label(), e.X, e.Y+trackH+2*sc, e.FontSize*sc, col, col)
}

// drawGauge renders the dial ring, tick marks, needle, and value label.
func (r *Renderer) drawGauge(dst *image.RGBA, e *Element, b *LiveBinding) {
	sc := e.Scale
	radius := gaugeDiameter / 2 * sc
	cx := e.X + radius
	cy := e.Y + radius

	strokeCircle(dst, cx, cy, radius, math.Max(1, sc), b.BarBackgroundColor.WithAlpha(e.Opacity).toNRGBA())

	for _, tick := range b.GaugeTicks() {
		rad := tick.Angle * math.Pi / 180
		sin, cos := math.Sincos(rad)
		inner := radius - 3*sc
		if tick.Major {
			inner = radius - 6*sc
		}
		col := tick.Color.WithAlpha(e.Opacity)
		drawLine(dst, cx+inner*cos, cy+inner*sin, cx+radius*cos, cy+radius*sin, math.Max(1, sc), col.toNRGBA())
		if tick.Label != "" {
			lr := radius - 14*sc
			lw, lh := measureText(tick.Label, gaugeTickFontSize*sc)
			drawString(dst, tick.Label, cx+lr*cos-lw/2, cy+lr*sin-lh/2, gaugeTickFontSize*sc, col, col)
		}
	}

	// Needle, drawn at the eased dial angle.
	rad := b.NeedleAngle() * math.Pi / 180
	sin, cos := math.Sincos(rad)
	needleLen := radius * 0.8
	drawLine(dst, cx, cy, cx+needleLen*cos, cy+needleLen*sin, math.Max(1.5, 1.5*sc), b.NeedleColor.WithAlpha(e.Opacity).toNRGBA())

	label := b.Label()
	lw, _ := measureText(label, e.FontSize*sc)
	col := b.ValueColor().WithAlpha(e.Opacity)
	drawString(dst, label, cx-lw/2, cy+radius+4*sc, e.FontSize*sc, col, col)
}

// drawTrail renders the element's past positions as markers fading toward
// the oldest.
func (r *Renderer) drawTrail(dst *image.RGBA, motion *MotionEngine, e *Element) {
	trail := motion.Trail(e.ID)
	if trail == nil || trail.Len() == 0 {
		return
	}
	r.trailBuf = trail.Positions(r.trailBuf[:0])
	w, h := e.ScaledSize()
	col := trailColor(e)
	n := len(r.trailBuf)
	for i, p := range r.trailBuf {
		alpha := 0.6 * float64(i+1) / float64(n)
		fillCircle(dst, p.X+w/2, p.Y+h/2, trailMarkerRadius, col.WithAlpha(alpha).toNRGBA())
	}
}

// trailColor picks a marker color matching the element's own fill.
func trailColor(e *Element) Color {
	switch e.Kind {
	case KindText:
		return e.TextColor
	case KindShape:
		return e.FillColor
	case KindLiveText:
		if e.Live != nil {
			return e.Live.ValueColor()
		}
	}
	return ColorWhite
}

// --- Raster helpers ---

// drawString renders s at (x, y) as the top-left corner, sweeping the fill
// color from 'from' to 'to' across the runes. Equal colors cost a single
// draw.
func drawString(dst *image.RGBA, s string, x, y, size float64, from, to Color) {
	if s == "" {
		return
	}
	f := face(size)
	ascent := f.Metrics().Ascent
	d := font.Drawer{
		Dst:  dst,
		Face: f,
		Dot:  fixed.Point26_6{X: floatFixed(x), Y: floatFixed(y) + ascent},
	}
	if from == to {
		d.Src = image.NewUniform(from.toNRGBA())
		d.DrawString(s)
		return
	}
	total := font.MeasureString(f, s)
	start := d.Dot.X
	for _, r := range s {
		t := 0.0
		if total > 0 {
			t = float64(d.Dot.X-start) / float64(total)
		}
		d.Src = image.NewUniform(LerpColor(from, to, t).toNRGBA())
		d.DrawString(string(r))
	}
}

// fillRect fills the intersection of rect and dst with col using source-over
// blending.
func fillRect(dst *image.RGBA, rect image.Rectangle, col stdcolor.NRGBA) {
	draw.Draw(dst, rect.Intersect(dst.Bounds()), image.NewUniform(col), image.Point{}, draw.Over)
}

// strokeRect draws a border of the given thickness just inside rect.
func strokeRect(dst *image.RGBA, rect image.Rectangle, thickness int, col stdcolor.NRGBA) {
	fillRect(dst, image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+thickness), col)
	fillRect(dst, image.Rect(rect.Min.X, rect.Max.Y-thickness, rect.Max.X, rect.Max.Y), col)
	fillRect(dst, image.Rect(rect.Min.X, rect.Min.Y+thickness, rect.Min.X+thickness, rect.Max.Y-thickness), col)
	fillRect(dst, image.Rect(rect.Max.X-thickness, rect.Min.Y+thickness, rect.Max.X, rect.Max.Y-thickness), col)
}

// fillCircle fills a disc by horizontal scanline spans.
func fillCircle(dst *image.RGBA, cx, cy, radius float64, col stdcolor.NRGBA) {
	if radius <= 0 {
		return
	}
	top := int(math.Floor(cy - radius))
	bottom := int(math.Ceil(cy + radius))
	for y := top; y <= bottom; y++ {
		dy := float64(y) + 0.5 - cy
		span := radius*radius - dy*dy
		if span <= 0 {
			continue
		}
		half := math.Sqrt(span)
		fillRect(dst, image.Rect(int(cx-half), y, int(cx+half)+1, y+1), col)
	}
}

// strokeCircle draws a ring by stepping the circumference.
func strokeCircle(dst *image.RGBA, cx, cy, radius, thickness float64, col stdcolor.NRGBA) {
	if radius <= 0 {
		return
	}
	steps := int(math.Ceil(2 * math.Pi * radius))
	if steps < 16 {
		steps = 16
	}
	for i := 0; i < steps; i++ {
		a := 2 * math.Pi * float64(i) / float64(steps)
		sin, cos := math.Sincos(a)
		plotDot(dst, cx+radius*cos, cy+radius*sin, thickness, col)
	}
}

// drawLine draws a thick segment by sampling along its length.
func drawLine(dst *image.RGBA, x0, y0, x1, y1, thickness float64, col stdcolor.NRGBA) {
	length := math.Hypot(x1-x0, y1-y0)
	steps := int(math.Ceil(length))
	if steps < 1 {
		steps = 1
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		plotDot(dst, x0+(x1-x0)*t, y0+(y1-y0)*t, thickness, col)
	}
}

// plotDot fills a small square of the given edge centered at (x, y).
func plotDot(dst *image.RGBA, x, y, size float64, col stdcolor.NRGBA) {
	half := size / 2
	fillRect(dst, image.Rect(int(x-half), int(y-half), int(x+half)+1, int(y+half)+1), col)
}

// alphaOptions returns draw options applying a uniform source alpha, or nil
// for fully opaque content.
func alphaOptions(opacity float64) *draw.Options {
	if opacity >= 1 {
		return nil
	}
	return &draw.Options{SrcMask: image.NewUniform(stdcolor.Alpha{A: channelByte(opacity)})}
}

// toRGBAOpaque converts a color for direct pixel writes (no blending).
func toRGBAOpaque(c Color) stdcolor.RGBA {
	return stdcolor.RGBA{R: channelByte(c.R), G: channelByte(c.G), B: channelByte(c.B), A: 255}
}

// floatFixed converts a float to 26.6 fixed point.
func floatFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(v * 64))
}
