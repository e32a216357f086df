package scenecast

import (
	"bytes"
	"fmt"
	"image"
	stdcolor "image/color"
	"image/jpeg"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Capture defaults. The stream pipeline encodes at a slightly lower quality
// than the video frame cache; the device link is the bottleneck.
const (
	DefaultCaptureSize    = 480
	DefaultCaptureQuality = 80
)

// FrameSink is the device-transmission side of the streaming pipeline. The
// engine never talks to hardware directly; implementations wrap the actual
// HID link.
type FrameSink interface {
	// QueueJPEGData hands one encoded frame to the device link. The sink
	// may drop frames under backpressure; delivery is best-effort.
	QueueJPEGData(data []byte, tag string)

	// EnableRealTimeDisplay switches the device's live streaming mode on
	// or off. Returns false if the device refused.
	EnableRealTimeDisplay(enabled bool) bool

	// DisplaySuspendMedia sends a single still frame for the device to
	// show while streaming is paused. Returns false on refusal.
	DisplaySuspendMedia(data []byte) bool

	// EnterSuspendMode switches the device into its idle display.
	// Returns false on refusal.
	EnterSuspendMode() bool
}

// CaptureSquareJPEG composites root onto a size x size black canvas,
// uniformly scaled and centered to preserve aspect ratio, and encodes the
// result as a JPEG at the given quality. The output is always exactly
// size x size regardless of root's aspect ratio.
func CaptureSquareJPEG(root image.Image, size, quality int) ([]byte, error) {
	if root == nil {
		return nil, fmt.Errorf("capture: nil root")
	}
	if size <= 0 {
		return nil, fmt.Errorf("capture: invalid size %d", size)
	}
	sb := root.Bounds()
	sw, sh := float64(sb.Dx()), float64(sb.Dy())
	if sw == 0 || sh == 0 {
		return nil, fmt.Errorf("capture: empty root %dx%d", sb.Dx(), sb.Dy())
	}

	canvas := image.NewRGBA(image.Rect(0, 0, size, size))
	fillRect(canvas, canvas.Bounds(), stdcolor.NRGBA{A: 255})

	scale := math.Min(float64(size)/sw, float64(size)/sh)
	outW := sw * scale
	outH := sh * scale
	offX := (float64(size) - outW) / 2
	offY := (float64(size) - outH) / 2
	m := f64.Aff3{scale, 0, offX, 0, scale, offY}
	draw.ApproxBiLinear.Transform(canvas, m, root, sb, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("capture: encode: %w", err)
	}
	return buf.Bytes(), nil
}
