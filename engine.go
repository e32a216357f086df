package scenecast

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Scheduler task names. Video playback tasks are named videoTaskPrefix plus
// the element id.
const (
	taskLiveSample  = "live-sample"
	taskMotion      = "motion"
	taskStream      = "stream"
	videoTaskPrefix = "video:"
)

// liveSampleInterval is the metrics sampling cadence.
const liveSampleInterval = time.Second

// Engine owns the scene's periodic pipelines: live-value sampling, motion
// integration, capture-and-stream, and per-element video playback. All scene,
// player, and renderer state is confined to the scheduler goroutine; public
// methods are safe to call from any goroutine because they marshal onto it,
// but direct Scene and Element access outside the scheduler is only safe
// before Start and after Dispose. Do not call Engine methods from scheduler
// tasks or posted closures.
type Engine struct {
	opts     Options
	scene    *Scene
	motion   *MotionEngine
	renderer *Renderer
	metrics  MetricsProvider
	sink     FrameSink
	sched    *Scheduler

	players map[string]*Player // by video element id

	mu              sync.Mutex
	lastFrame       *image.RGBA
	hidTransfer     bool
	useSuspendMedia bool
	started         bool
	disposed        bool
}

// NewEngine wires a scene to a metrics provider and a device sink. sink may
// be nil for a local-only engine (frames are rendered but never dispatched).
// Panics if scene or metrics is nil.
func NewEngine(scene *Scene, metrics MetricsProvider, sink FrameSink, opts Options) *Engine {
	if scene == nil {
		panic("scenecast: engine needs a scene")
	}
	if metrics == nil {
		panic("scenecast: engine needs a metrics provider")
	}
	return &Engine{
		opts:     opts,
		scene:    scene,
		motion:   NewMotionEngine(scene, time.Now().UnixNano()),
		renderer: NewRenderer(),
		metrics:  metrics,
		sink:     sink,
		sched:    NewScheduler(),
		players:  make(map[string]*Player),
	}
}

// Scene returns the engine's scene.
func (e *Engine) Scene() *Scene {
	return e.scene
}

// Motion returns the engine's motion component table.
func (e *Engine) Motion() *MotionEngine {
	return e.motion
}

// Scheduler returns the engine's cooperative scheduler, for marshaling
// external work onto the scene thread via Post.
func (e *Engine) Scheduler() *Scheduler {
	return e.sched
}

// Start registers the sampling, motion, and streaming tasks. Idempotent.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.started || e.disposed {
		e.mu.Unlock()
		return
	}
	e.started = true
	e.mu.Unlock()

	e.sched.Every(taskLiveSample, liveSampleInterval, e.sampleTick)
	e.StartAutoRendering(e.opts.AutoRenderFPS)
	e.sched.Every(taskStream, e.opts.StreamInterval, e.streamTick)
}

// StartAutoRendering begins (or retunes) the independent render tick that
// advances motion and re-renders the scene at the target rate, decoupled
// from the capture/stream cadence.
func (e *Engine) StartAutoRendering(fps int) {
	if fps <= 0 {
		fps = 1
	}
	e.sched.Every(taskMotion, time.Second/time.Duration(fps), e.renderTick)
}

// SetAutoRenderingFPS retunes the render tick without restarting it.
func (e *Engine) SetAutoRenderingFPS(fps int) {
	if fps <= 0 {
		fps = 1
	}
	if !e.sched.SetInterval(taskMotion, time.Second/time.Duration(fps)) {
		e.StartAutoRendering(fps)
	}
}

// StopAutoRendering cancels the render tick. Streaming continues serving the
// last rendered frame.
func (e *Engine) StopAutoRendering() {
	e.sched.Cancel(taskMotion)
}

// sampleTick reads the metrics provider and pushes the sample into every
// live-bound element.
func (e *Engine) sampleTick(float64) {
	sample := ReadSample(e.metrics)
	for _, el := range e.scene.Elements() {
		if el.Live == nil {
			continue
		}
		el.Live.Apply(sample)
		el.remeasure()
	}
}

// renderTick advances motion and needle animation, then re-renders the
// composed scene.
func (e *Engine) renderTick(dt float64) {
	e.motion.Advance(dt)
	for _, el := range e.scene.Elements() {
		if el.Live != nil {
			el.Live.AdvanceNeedle(dt)
		}
	}
	frame := e.renderer.Render(e.scene, e.motion)
	e.mu.Lock()
	e.lastFrame = frame
	e.mu.Unlock()
}

// streamTick captures the current frame and forwards it to the sink when
// HID transfer is enabled. Capture and encode failures are swallowed so the
// pipeline keeps running.
func (e *Engine) streamTick(float64) {
	data, err := e.captureCurrent()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[scenecast] stream: %v\n", err)
		return
	}
	e.mu.Lock()
	dispatch := e.hidTransfer && e.sink != nil
	e.mu.Unlock()
	if dispatch {
		e.sink.QueueJPEGData(data, e.opts.StreamTag)
	}
}

// captureCurrent letterbox-encodes the most recent rendered frame, rendering
// one on the spot if the render tick has not produced any yet. Must run on
// the scheduler goroutine: the fallback render shares the renderer and reads
// element state.
func (e *Engine) captureCurrent() ([]byte, error) {
	e.mu.Lock()
	frame := e.lastFrame
	e.mu.Unlock()
	if frame == nil {
		frame = e.renderer.Render(e.scene, e.motion)
		e.mu.Lock()
		e.lastFrame = frame
		e.mu.Unlock()
	}
	return CaptureSquareJPEG(frame, e.opts.CaptureSize, e.opts.CaptureQuality)
}

// CurrentFrame returns the most recently rendered canvas, or nil before the
// first render tick.
func (e *Engine) CurrentFrame() *image.RGBA {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastFrame
}

// EnableHidTransfer gates whether captured frames are dispatched to the
// device or only rendered locally. Disabling with useSuspendMedia true
// pushes the current frame as the device's suspend still and switches the
// device into suspend mode.
func (e *Engine) EnableHidTransfer(enabled, useSuspendMedia bool) {
	e.mu.Lock()
	e.hidTransfer = enabled
	e.useSuspendMedia = useSuspendMedia
	e.mu.Unlock()

	if !enabled && useSuspendMedia && e.sink != nil {
		if e.SendCurrentFrameAsSuspendMedia() {
			e.sink.EnterSuspendMode()
		}
	}
}

// EnableHidRealTimeDisplay toggles the device's live streaming mode.
// Returns false if no sink is attached or the device refused.
func (e *Engine) EnableHidRealTimeDisplay(enabled bool) bool {
	if e.sink == nil {
		return false
	}
	return e.sink.EnableRealTimeDisplay(enabled)
}

// SendCurrentFrameAsSuspendMedia captures the current frame and sends it as
// the device's suspend still. Returns false if capture failed, no sink is
// attached, the engine is disposed, or the device refused.
func (e *Engine) SendCurrentFrameAsSuspendMedia() bool {
	if e.sink == nil {
		return false
	}
	var data []byte
	var err error
	if !e.sched.Invoke(func() { data, err = e.captureCurrent() }) {
		return false
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "[scenecast] suspend media: %v\n", err)
		return false
	}
	return e.sink.DisplaySuspendMedia(data)
}

// SetSuspendMode switches the device into its idle display. Returns false
// if no sink is attached or the device refused.
func (e *Engine) SetSuspendMode() bool {
	if e.sink == nil {
		return false
	}
	return e.sink.EnterSuspendMode()
}

// --- Video playback ---

// VideoCacheDir returns the project's frame cache folder.
func (e *Engine) VideoCacheDir() string {
	return filepath.Join(e.opts.OutputFolder, "Resources", "VideoFrames")
}

// LoadVideoAsync decodes a video on a background goroutine and marshals the
// finished cache back onto the scheduler before onDone runs, so the callback
// may mutate scene state directly.
func (e *Engine) LoadVideoAsync(path string, onDone func(*VideoCache, error)) {
	go func() {
		cache, err := LoadVideo(path, e.VideoCacheDir())
		e.sched.Post(func() { onDone(cache, err) })
	}()
}

// LoadElementVideoAsync decodes the video element's source on a background
// goroutine, reusing the cache folder recorded in the scene document when
// one is present, and attaches the finished cache to the element before
// onDone runs on the scheduler.
func (e *Engine) LoadElementVideoAsync(elementID string, onDone func(error)) {
	var path, folder string
	var err error
	ok := e.sched.Invoke(func() {
		el, found := e.scene.Element(elementID)
		switch {
		case !found:
			err = fmt.Errorf("load video: no element %s", elementID)
		case el.Kind != KindVideo:
			err = fmt.Errorf("load video: element %s is not a video", elementID)
		default:
			path, folder = el.VideoPath, el.VideoCacheFolder
		}
	})
	if !ok {
		return
	}
	if err != nil {
		e.sched.Post(func() { onDone(err) })
		return
	}
	go func() {
		cache, err := LoadVideoInto(path, e.VideoCacheDir(), folder)
		e.sched.Post(func() {
			if err == nil {
				if el, found := e.scene.Element(elementID); found {
					el.Video = cache
				}
			}
			onDone(err)
		})
	}()
}

// PlayVideo starts looping playback for the given video element. Each video
// element owns an independent player, so any number may play concurrently.
// Returns an error if the element is missing, has no cache, or the engine is
// disposed.
func (e *Engine) PlayVideo(elementID string) error {
	var err error
	if !e.sched.Invoke(func() { err = e.playVideo(elementID) }) {
		return fmt.Errorf("play video: engine disposed")
	}
	return err
}

// playVideo is the scheduler-goroutine body of PlayVideo.
func (e *Engine) playVideo(elementID string) error {
	el, ok := e.scene.Element(elementID)
	if !ok {
		return fmt.Errorf("play video: no element %s", elementID)
	}
	if el.Kind != KindVideo || el.Video == nil {
		return fmt.Errorf("play video: element %s has no video cache", elementID)
	}

	player, ok := e.players[elementID]
	if !ok {
		player = NewPlayer(el.Video)
		player.OnFrame = func(_ int, frame []byte) {
			img, err := jpeg.Decode(bytes.NewReader(frame))
			if err != nil {
				// Single-frame decode errors stay local; playback
				// catches up on the next frame.
				fmt.Fprintf(os.Stderr, "[scenecast] video frame: %v\n", err)
				return
			}
			el.SetImage(img)
		}
		e.players[elementID] = player
	}
	player.Play()

	interval := time.Duration(player.FrameInterval() * float64(time.Millisecond))
	e.sched.Every(videoTaskPrefix+elementID, interval, func(float64) { player.Advance() })
	return nil
}

// PauseVideo suspends playback for the element, keeping its cursor.
func (e *Engine) PauseVideo(elementID string) {
	e.sched.Invoke(func() {
		if p, ok := e.players[elementID]; ok {
			p.Pause()
		}
	})
}

// ResumeVideo continues playback for the element.
func (e *Engine) ResumeVideo(elementID string) {
	e.sched.Invoke(func() {
		if p, ok := e.players[elementID]; ok {
			p.Resume()
		}
	})
}

// SeekVideo jumps the element's playback to the given frame index.
func (e *Engine) SeekVideo(elementID string, frame int) {
	e.sched.Invoke(func() {
		if p, ok := e.players[elementID]; ok {
			p.Seek(frame)
		}
	})
}

// VideoPlaying reports whether the element's player exists and is advancing.
func (e *Engine) VideoPlaying(elementID string) bool {
	var playing bool
	e.sched.Invoke(func() {
		if p, ok := e.players[elementID]; ok {
			playing = p.Playing()
		}
	})
	return playing
}

// VideoCursor returns the element's current frame index, or -1 if it has no
// player.
func (e *Engine) VideoCursor(elementID string) int {
	cursor := -1
	e.sched.Invoke(func() {
		if p, ok := e.players[elementID]; ok {
			cursor = p.Cursor()
		}
	})
	return cursor
}

// StopVideo cancels the element's playback task and discards its player.
func (e *Engine) StopVideo(elementID string) {
	e.sched.Cancel(videoTaskPrefix + elementID)
	e.sched.Invoke(func() { delete(e.players, elementID) })
}

// Dispose stops every timer, then releases cached resources. No task runs
// after Dispose returns. Idempotent.
func (e *Engine) Dispose() {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return
	}
	e.disposed = true
	e.mu.Unlock()

	e.sched.Stop()
	for id := range e.players {
		delete(e.players, id)
	}
	e.mu.Lock()
	e.lastFrame = nil
	e.mu.Unlock()
}
