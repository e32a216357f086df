package scenecast

import (
	"image"
	stdcolor "image/color"
	"testing"
)

// testImage builds a solid red RGBA raster.
func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
		img.Pix[i+3] = 255
	}
	return img
}

func TestRenderCanvasSize(t *testing.T) {
	s := NewScene(120)
	frame := NewRenderer().Render(s, nil)
	b := frame.Bounds()
	if b.Dx() != 120 || b.Dy() != 120 {
		t.Errorf("frame = %dx%d, want 120x120", b.Dx(), b.Dy())
	}
}

func TestRenderSolidBackground(t *testing.T) {
	s := NewScene(32)
	s.Background.Kind = BackgroundSolid
	s.Background.Color = Color{0, 0, 1, 1}
	frame := NewRenderer().Render(s, nil)
	got := frame.RGBAAt(16, 16)
	if got.B != 255 || got.R != 0 || got.G != 0 {
		t.Errorf("center pixel = %+v, want pure blue", got)
	}
}

func TestRenderGradientBackgroundEndpoints(t *testing.T) {
	s := NewScene(64)
	s.Background.Kind = BackgroundGradient
	s.Background.Color = Color{0, 0, 0, 1}
	s.Background.Color2 = Color{1, 1, 1, 1}
	s.Background.Direction = GradientHorizontal
	frame := NewRenderer().Render(s, nil)

	left := frame.RGBAAt(0, 32)
	right := frame.RGBAAt(63, 32)
	if left.R != 0 {
		t.Errorf("left edge = %+v, want the first stop", left)
	}
	if right.R != 255 {
		t.Errorf("right edge = %+v, want the second stop", right)
	}
}

func TestRenderShapeFill(t *testing.T) {
	s := NewScene(64)
	e := NewShapeElement(ShapeRectangle, 20, 20)
	e.X, e.Y = 10, 10
	e.FillColor = Color{0, 1, 0, 1}
	s.AddElement(e)

	frame := NewRenderer().Render(s, nil)
	got := frame.RGBAAt(20, 20)
	if got.G != 255 || got.R != 0 {
		t.Errorf("inside shape = %+v, want green", got)
	}
	outside := frame.RGBAAt(50, 50)
	if outside.G != 0 {
		t.Errorf("outside shape = %+v, want backdrop", outside)
	}
}

func TestRenderZOrder(t *testing.T) {
	s := NewScene(64)
	bottom := NewShapeElement(ShapeRectangle, 30, 30)
	bottom.FillColor = Color{1, 0, 0, 1}
	top := NewShapeElement(ShapeRectangle, 30, 30)
	top.FillColor = Color{0, 0, 1, 1}
	s.AddElement(bottom)
	s.AddElement(top)
	s.SetZIndex(top.ID, 1)

	frame := NewRenderer().Render(s, nil)
	got := frame.RGBAAt(15, 15)
	if got.B != 255 {
		t.Errorf("overlap pixel = %+v, want the higher z-index on top", got)
	}
}

func TestRenderImageElement(t *testing.T) {
	s := NewScene(64)
	e := NewImageElement("red.png")
	e.SetImage(testImage(16, 16))
	e.X, e.Y = 24, 24
	s.AddElement(e)

	frame := NewRenderer().Render(s, nil)
	got := frame.RGBAAt(32, 32)
	if got.R < 200 {
		t.Errorf("image pixel = %+v, want red content", got)
	}
}

func TestRenderSkipsUnloadedRaster(t *testing.T) {
	s := NewScene(32)
	s.AddElement(NewImageElement("missing.png"))
	// Must not panic; the element draws nothing until its raster loads.
	NewRenderer().Render(s, nil)
}

func TestRenderTextProducesPixels(t *testing.T) {
	s := NewScene(128)
	e := NewTextElement("Hi", 32)
	e.X, e.Y = 10, 10
	s.AddElement(e)

	frame := NewRenderer().Render(s, nil)
	lit := 0
	for i := 0; i < len(frame.Pix); i += 4 {
		if frame.Pix[i] > 128 {
			lit++
		}
	}
	if lit == 0 {
		t.Error("text rendered no pixels")
	}
}

func TestMeasureTextGrowsWithContent(t *testing.T) {
	w1, h := measureText("a", 20)
	w2, _ := measureText("aaaa", 20)
	if w2 <= w1 {
		t.Errorf("width did not grow: %v vs %v", w1, w2)
	}
	if h <= 0 {
		t.Errorf("line height = %v, want positive", h)
	}
}

func TestFillCircleStaysInBounds(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	// A circle partly off-canvas must clip, not panic.
	fillCircle(img, 0, 0, 15, stdcolor.NRGBA{R: 255, A: 255})
	if img.RGBAAt(2, 2).R == 0 {
		t.Error("circle did not paint the visible quadrant")
	}
}
