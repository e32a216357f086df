package scenecast

import "testing"

func TestNewElementsCarryUniqueIDs(t *testing.T) {
	a := NewTextElement("a", 20)
	b := NewTextElement("b", 20)
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("ids %q / %q, want unique non-empty", a.ID, b.ID)
	}
	if a.Scale != 1 || a.Opacity != 1 || !a.Draggable {
		t.Errorf("defaults = %+v", a)
	}
}

func TestSetImageAdoptsNaturalSize(t *testing.T) {
	e := NewImageElement("p.png")
	if w, h := e.BaseSize(); w != 0 || h != 0 {
		t.Errorf("unloaded size = %vx%v, want zero", w, h)
	}
	e.SetImage(testImage(40, 30))
	if w, h := e.BaseSize(); w != 40 || h != 30 {
		t.Errorf("size = %vx%v, want 40x30", w, h)
	}
	e.Scale = 2
	if w, h := e.ScaledSize(); w != 80 || h != 60 {
		t.Errorf("scaled size = %vx%v, want 80x60", w, h)
	}
}

func TestVideoElementKeepsFirstFrameSize(t *testing.T) {
	e := NewVideoElement(nil)
	e.SetImage(testImage(32, 24))
	e.SetImage(testImage(100, 100))
	if w, h := e.BaseSize(); w != 32 || h != 24 {
		t.Errorf("size = %vx%v, want the first frame's 32x24", w, h)
	}
}

func TestSetTextRemeasures(t *testing.T) {
	e := NewTextElement("a", 20)
	w1, _ := e.BaseSize()
	e.SetText("a much longer line")
	w2, _ := e.BaseSize()
	if w2 <= w1 {
		t.Errorf("width %v -> %v, want growth", w1, w2)
	}

	img := NewImageElement("p.png")
	img.SetImage(testImage(10, 10))
	img.SetText("ignored")
	if w, _ := img.BaseSize(); w != 10 {
		t.Error("SetText touched a non-text element")
	}
}

func TestSetFontSizeRejectsNonPositive(t *testing.T) {
	e := NewTextElement("a", 20)
	e.SetFontSize(0)
	if e.FontSize != 20 {
		t.Errorf("fontSize = %v, want unchanged 20", e.FontSize)
	}
	e.SetFontSize(40)
	if e.FontSize != 40 {
		t.Errorf("fontSize = %v, want 40", e.FontSize)
	}
}

func TestSetLiveStyleAdoptsGeometry(t *testing.T) {
	e := NewLiveTextElement(LiveCPUUsage)
	e.SetLiveStyle(StyleGauge)
	if w, h := e.BaseSize(); w != gaugeDiameter || h != gaugeDiameter {
		t.Errorf("gauge size = %vx%v, want %vx%v", w, h, gaugeDiameter, gaugeDiameter)
	}
	e.SetLiveStyle(StyleProgressBar)
	if w, _ := e.BaseSize(); w != barTrackWidth {
		t.Errorf("bar width = %v, want %v", w, barTrackWidth)
	}

	// No-op on other kinds.
	txt := NewTextElement("x", 20)
	w, _ := txt.BaseSize()
	txt.SetLiveStyle(StyleGauge)
	if got, _ := txt.BaseSize(); got != w {
		t.Error("SetLiveStyle touched a text element")
	}
}

func TestBoundsFollowTransform(t *testing.T) {
	e := NewShapeElement(ShapeRectangle, 10, 20)
	e.X, e.Y = 5, 7
	b := e.Bounds()
	if b.X != 5 || b.Y != 7 || b.Width != 10 || b.Height != 20 {
		t.Errorf("bounds = %+v", b)
	}
	e.Scale = 3
	b = e.Bounds()
	if b.Width != 30 || b.Height != 60 {
		t.Errorf("scaled bounds = %+v", b)
	}
}
