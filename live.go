package scenecast

import (
	"fmt"
	"math"
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// MetricsProvider yields the live system values a scene can bind to.
// Implementations must be cheap to call; the engine samples once per second.
type MetricsProvider interface {
	CPUName() string
	PrimaryGPUName() string
	CPUUsagePercent() float64
	GPUUsagePercent() float64
	CPUTemperature() float64
	GPUTemperature() float64
}

// Sample is one point-in-time reading from a MetricsProvider.
type Sample struct {
	CPU     float64
	GPU     float64
	CPUTemp float64
	GPUTemp float64
	Now     time.Time
}

// Gauge geometry. Value 0 maps to 150 degrees and value 100 sweeps 240
// degrees clockwise through the top, ending at 390 (= 30) degrees. The
// needle art points up at rest, hence the 270-degree rotation offset.
const (
	gaugeStartAngle  = 150.0
	gaugeSweep       = 240.0
	needleRestOffset = 270.0

	// needleEpsilon suppresses needle retargeting for sub-perceptual
	// angle changes.
	needleEpsilon = 0.05

	// needleTweenDuration is how long a needle swing takes.
	needleTweenDuration = 0.4
)

// barTrackWidth is the fixed progress-bar track width in pixels (unscaled).
const barTrackWidth = 140.0

// barTrackHeight is the progress-bar track height in pixels (unscaled).
const barTrackHeight = 16.0

// defaultLiveFontSize is the label size for freshly created live elements.
const defaultLiveFontSize = 20.0

// defaultDateFormat is a Go reference layout used when a DateTime binding
// has no explicit format.
const defaultDateFormat = "2006-01-02 15:04:05"

// LiveBinding drives an element's visual from a sampled external value.
// It owns the display theme; switching styles rebuilds the visual but never
// loses the binding kind or theme colors.
type LiveBinding struct {
	Kind  LiveKind
	Style DisplayStyle

	StartColor         Color
	EndColor           Color
	NeedleColor        Color
	BarBackgroundColor Color

	// DateFormat is a Go time layout, used by DateTime bindings only.
	DateFormat string

	sample      Sample
	needleAngle float64 // current needle angle in degrees
	needleTween *gween.Tween
}

// NewLiveBinding creates a binding in Text style with a neutral theme.
func NewLiveBinding(kind LiveKind) *LiveBinding {
	return &LiveBinding{
		Kind:               kind,
		Style:              StyleText,
		StartColor:         ColorWhite,
		EndColor:           ColorWhite,
		NeedleColor:        ColorWhite,
		BarBackgroundColor: Color{0.2, 0.2, 0.2, 1},
		needleAngle:        gaugeStartAngle,
	}
}

// SetStyle switches the display style. The old visual subtree is discarded
// and rebuilt from the current theme; kind, theme colors, and the latest
// sample all survive the switch.
func (b *LiveBinding) SetStyle(style DisplayStyle) {
	if b.Style == style {
		return
	}
	b.Style = style
	// Rebuild: reset transient visual state, then re-apply the current
	// sample so the new visual starts at the live value.
	b.needleTween = nil
	b.needleAngle = GaugeAngle(b.Value())
}

// Apply stores a fresh sample and retargets the gauge needle. Needle
// movement below needleEpsilon degrees snaps without animating.
func (b *LiveBinding) Apply(s Sample) {
	b.sample = s
	if b.Style != StyleGauge {
		return
	}
	target := GaugeAngle(b.Value())
	delta := math.Abs(target - b.needleAngle)
	if delta < needleEpsilon {
		return
	}
	b.needleTween = gween.New(float32(b.needleAngle), float32(target), needleTweenDuration, ease.InOutQuad)
}

// AdvanceNeedle steps the needle animation by dt seconds.
func (b *LiveBinding) AdvanceNeedle(dt float64) {
	if b.needleTween == nil {
		return
	}
	v, done := b.needleTween.Update(float32(dt))
	b.needleAngle = float64(v)
	if done {
		b.needleTween = nil
	}
}

// Value returns the latest sample mapped to the 0-100 display scale.
// Temperatures are treated as already normalized to that scale; values
// outside it clamp. DateTime bindings have no numeric value and return 0.
func (b *LiveBinding) Value() float64 {
	var v float64
	switch b.Kind {
	case LiveCPUUsage:
		v = b.sample.CPU
	case LiveGPUUsage:
		v = b.sample.GPU
	case LiveCPUTemperature:
		v = b.sample.CPUTemp
	case LiveGPUTemperature:
		v = b.sample.GPUTemp
	default:
		return 0
	}
	return clamp(v, 0, 100)
}

// Label formats the latest sample for display.
func (b *LiveBinding) Label() string {
	switch b.Kind {
	case LiveCPUUsage:
		return fmt.Sprintf("CPU %d%%", int(math.Round(b.sample.CPU)))
	case LiveGPUUsage:
		return fmt.Sprintf("GPU %d%%", int(math.Round(b.sample.GPU)))
	case LiveCPUTemperature:
		return fmt.Sprintf("%d°C", int(math.Round(b.sample.CPUTemp)))
	case LiveGPUTemperature:
		return fmt.Sprintf("%d°C", int(math.Round(b.sample.GPUTemp)))
	case LiveDateTime:
		layout := b.DateFormat
		if layout == "" {
			layout = defaultDateFormat
		}
		if b.sample.Now.IsZero() {
			return ""
		}
		return b.sample.Now.Format(layout)
	default:
		return ""
	}
}

// ValueColor returns the theme color for the current value: the linear
// interpolation between StartColor and EndColor at t = value/100.
func (b *LiveBinding) ValueColor() Color {
	return LerpColor(b.StartColor, b.EndColor, b.Value()/100)
}

// BarFillWidth returns the filled portion of the progress-bar track in
// pixels (unscaled).
func (b *LiveBinding) BarFillWidth() float64 {
	return barTrackWidth * b.Value() / 100
}

// NeedleAngle returns the current (possibly mid-animation) dial angle in
// degrees.
func (b *LiveBinding) NeedleAngle() float64 {
	return b.needleAngle
}

// NeedleRotation returns the needle's visual rotation in degrees: the dial
// angle minus the rest offset of needle art drawn pointing up.
func (b *LiveBinding) NeedleRotation() float64 {
	return b.needleAngle - needleRestOffset
}

// GaugeAngle maps a 0-100 value to a dial angle in degrees.
func GaugeAngle(value float64) float64 {
	return gaugeStartAngle + gaugeSweep*clamp(value, 0, 100)/100
}

// GaugeTick is one dial tick mark. Major ticks sit at 10% steps, minor at
// 5% steps; every 25% carries a numeric label.
type GaugeTick struct {
	Angle float64 // dial angle in degrees
	Major bool
	Label string // empty for unlabeled ticks
	Color Color
}

// GaugeTicks enumerates the dial's tick marks with theme-interpolated
// colors.
func (b *LiveBinding) GaugeTicks() []GaugeTick {
	ticks := make([]GaugeTick, 0, 21)
	for v := 0; v <= 100; v += 5 {
		tick := GaugeTick{
			Angle: GaugeAngle(float64(v)),
			Major: v%10 == 0,
			Color: LerpColor(b.StartColor, b.EndColor, float64(v)/100),
		}
		if v%25 == 0 {
			tick.Label = fmt.Sprintf("%d", v)
		}
		ticks = append(ticks, tick)
	}
	return ticks
}
