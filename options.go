package scenecast

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Options configures an Engine. The zero value is not usable; start from
// DefaultOptions.
type Options struct {
	// CanvasSize is the square scene canvas edge in pixels.
	CanvasSize int `yaml:"canvasSize"`

	// OutputFolder is the project root holding Resources/ and Configs/.
	OutputFolder string `yaml:"outputFolder"`

	// CaptureSize is the streamed frame edge in pixels.
	CaptureSize int `yaml:"captureSize"`

	// CaptureQuality is the JPEG quality of streamed frames.
	CaptureQuality int `yaml:"captureQuality"`

	// StreamInterval is the capture-and-stream cadence.
	StreamInterval time.Duration `yaml:"streamInterval"`

	// AutoRenderFPS is the initial motion/render tick rate.
	AutoRenderFPS int `yaml:"autoRenderFPS"`

	// StreamTag labels queued frames for the device link.
	StreamTag string `yaml:"streamTag"`
}

// DefaultOptions returns the stock engine configuration: a 480px canvas
// streamed at 20 Hz with a 20 Hz render tick.
func DefaultOptions() Options {
	return Options{
		CanvasSize:     DefaultCaptureSize,
		OutputFolder:   "output",
		CaptureSize:    DefaultCaptureSize,
		CaptureQuality: DefaultCaptureQuality,
		StreamInterval: 50 * time.Millisecond,
		AutoRenderFPS:  20,
		StreamTag:      "scene",
	}
}

// LoadOptions reads a YAML options file over the defaults: absent fields
// keep their default values.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("read options %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("parse options %s: %w", path, err)
	}
	if err := opts.validate(); err != nil {
		return opts, fmt.Errorf("options %s: %w", path, err)
	}
	return opts, nil
}

func (o Options) validate() error {
	if o.CanvasSize <= 0 {
		return fmt.Errorf("canvasSize must be positive, got %d", o.CanvasSize)
	}
	if o.CaptureSize <= 0 {
		return fmt.Errorf("captureSize must be positive, got %d", o.CaptureSize)
	}
	if o.CaptureQuality < 1 || o.CaptureQuality > 100 {
		return fmt.Errorf("captureQuality must be in [1, 100], got %d", o.CaptureQuality)
	}
	if o.StreamInterval <= 0 {
		return fmt.Errorf("streamInterval must be positive, got %s", o.StreamInterval)
	}
	if o.AutoRenderFPS <= 0 {
		return fmt.Errorf("autoRenderFPS must be positive, got %d", o.AutoRenderFPS)
	}
	return nil
}
