package scenecast

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeOptionsFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenecast.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadOptionsOverlaysDefaults(t *testing.T) {
	path := writeOptionsFile(t, `
canvasSize: 320
streamInterval: 100ms
streamTag: wall
`)
	opts, err := LoadOptions(path)
	if err != nil {
		t.Fatal(err)
	}
	if opts.CanvasSize != 320 {
		t.Errorf("canvasSize = %d, want 320", opts.CanvasSize)
	}
	if opts.StreamInterval != 100*time.Millisecond {
		t.Errorf("streamInterval = %s, want 100ms", opts.StreamInterval)
	}
	if opts.StreamTag != "wall" {
		t.Errorf("streamTag = %q", opts.StreamTag)
	}
	// Absent fields keep their defaults.
	if opts.CaptureQuality != DefaultCaptureQuality {
		t.Errorf("captureQuality = %d, want the default", opts.CaptureQuality)
	}
	if opts.AutoRenderFPS != 20 {
		t.Errorf("autoRenderFPS = %d, want 20", opts.AutoRenderFPS)
	}
}

func TestLoadOptionsRejectsBadValues(t *testing.T) {
	cases := []struct {
		name, body string
	}{
		{"zero canvas", "canvasSize: 0"},
		{"bad quality", "captureQuality: 101"},
		{"negative interval", "streamInterval: -1s"},
		{"zero fps", "autoRenderFPS: 0"},
		{"not yaml", "canvasSize: [what"},
	}
	for _, tt := range cases {
		path := writeOptionsFile(t, tt.body)
		if _, err := LoadOptions(path); err == nil {
			t.Errorf("%s: accepted", tt.name)
		}
	}
}

func TestLoadOptionsMissingFile(t *testing.T) {
	if _, err := LoadOptions(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("missing file accepted")
	}
}

func TestDefaultOptionsValid(t *testing.T) {
	if err := DefaultOptions().validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}
}
