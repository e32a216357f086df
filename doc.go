// Package scenecast composes, animates, and streams 2D scenes to small
// secondary displays such as cooler and peripheral panels.
//
// A [Scene] owns a flat list of [Element] values (text, images, shapes,
// videos, and live-bound readouts) with z-ordering, hit testing, and drag
// sessions. The [MotionEngine] advances motion-tagged elements each tick
// through seven kinematic patterns, the [LiveBinding] machinery maps sampled
// CPU/GPU values onto text, progress-bar, or gauge visuals, and the
// [Renderer] rasterizes the composed scene on the CPU. The [Engine] ties it
// together: it samples metrics at 1 Hz, integrates motion at a configurable
// rate, and captures letterboxed square JPEG frames at ~20 Hz for a
// [FrameSink] wrapping the device's HID link.
//
// # Quick start
//
//	scene := scenecast.NewScene(480)
//	label := scenecast.NewLiveTextElement(scenecast.LiveCPUUsage)
//	label.X, label.Y = 40, 40
//	scene.AddElement(label)
//
//	engine := scenecast.NewEngine(scene, scenecast.NewSystemMetrics(), sink,
//		scenecast.DefaultOptions())
//	engine.Start()
//	engine.EnableHidTransfer(true, false)
//	defer engine.Dispose()
//
// # Threading model
//
// Everything that mutates the scene runs on one goroutine, owned by the
// engine's [Scheduler]. The four periodic pipelines (live sampling, motion
// integration, capture-and-stream, and video playback) are cooperative
// tasks on that goroutine. Long-running work (video decode, scene import)
// runs in the background and marshals its result back with [Scheduler.Post].
//
// # Persistence
//
// [ExportScene] and [ImportScene] round-trip scenes through a JSON document
// whose resource paths are stored relative to a project output folder.
// [SaveConfig] writes named configs, never silently clobbering an existing
// file.
//
// An optional [Preview] window (via [Ebitengine]) mirrors the streamed
// frames locally.
//
// [Ebitengine]: https://ebitengine.org
package scenecast
