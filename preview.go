package scenecast

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// Preview is an ebiten.Game that mirrors the engine's most recent composed
// frame in a local window. It is the "rendered locally" half of the
// streaming pipeline: useful while HID transfer is disabled, or to watch
// what the device is being sent.
//
// The preview only reads frames; the engine's scheduler keeps driving
// motion, sampling, and streaming independently of the window's own tick.
type Preview struct {
	engine *Engine
	buf    *ebiten.Image
}

// NewPreview creates a preview surface over the engine.
func NewPreview(engine *Engine) *Preview {
	return &Preview{engine: engine}
}

// Update implements ebiten.Game. The engine animates itself; the window
// loop has nothing to advance.
func (p *Preview) Update() error {
	return nil
}

// Draw implements ebiten.Game, blitting the engine's current frame.
func (p *Preview) Draw(screen *ebiten.Image) {
	frame := p.engine.CurrentFrame()
	if frame == nil {
		return
	}
	w := frame.Bounds().Dx()
	h := frame.Bounds().Dy()
	if p.buf == nil || p.buf.Bounds().Dx() != w || p.buf.Bounds().Dy() != h {
		p.buf = ebiten.NewImage(w, h)
	}
	p.buf.WritePixels(frame.Pix)
	screen.DrawImage(p.buf, nil)
}

// Layout implements ebiten.Game: the window renders at canvas resolution.
func (p *Preview) Layout(int, int) (int, int) {
	size := p.engine.Scene().CanvasSize
	return size, size
}

// RunPreview opens a window mirroring the engine's output and blocks until
// the window closes. Must run on the main goroutine.
func RunPreview(engine *Engine, title string) error {
	size := engine.Scene().CanvasSize
	ebiten.SetWindowSize(size, size)
	ebiten.SetWindowTitle(title)
	return ebiten.RunGame(NewPreview(engine))
}
