package scenecast

import (
	"fmt"
	stdcolor "image/color"
	"strconv"
	"strings"
)

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
type Color struct {
	R, G, B, A float64
}

// ColorWhite and ColorBlack are the common theme defaults.
var (
	ColorWhite = Color{1, 1, 1, 1}
	ColorBlack = Color{0, 0, 0, 1}
)

// ParseHexColor parses "#RRGGBB" or "#AARRGGBB" into a Color.
// The leading '#' is optional.
func ParseHexColor(s string) (Color, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	var a, r, g, b uint64 = 0xFF, 0, 0, 0
	var err error
	switch len(h) {
	case 6:
		r, g, b, err = parseHexTriplet(h)
	case 8:
		a, err = strconv.ParseUint(h[0:2], 16, 8)
		if err == nil {
			r, g, b, err = parseHexTriplet(h[2:])
		}
	default:
		return Color{}, fmt.Errorf("parse color %q: want 6 or 8 hex digits", s)
	}
	if err != nil {
		return Color{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	return Color{
		R: float64(r) / 255,
		G: float64(g) / 255,
		B: float64(b) / 255,
		A: float64(a) / 255,
	}, nil
}

func parseHexTriplet(h string) (r, g, b uint64, err error) {
	if r, err = strconv.ParseUint(h[0:2], 16, 8); err != nil {
		return
	}
	if g, err = strconv.ParseUint(h[2:4], 16, 8); err != nil {
		return
	}
	b, err = strconv.ParseUint(h[4:6], 16, 8)
	return
}

// Hex formats the color as "#RRGGBB". Alpha is dropped, matching the scene
// JSON schema, which carries opacity separately.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", channelByte(c.R), channelByte(c.G), channelByte(c.B))
}

// LerpColor interpolates componentwise between a and b. t is clamped to [0, 1],
// so t=0 yields exactly a and t=1 yields exactly b.
func LerpColor(a, b Color, t float64) Color {
	if t <= 0 {
		return a
	}
	if t >= 1 {
		return b
	}
	return Color{
		R: a.R + (b.R-a.R)*t,
		G: a.G + (b.G-a.G)*t,
		B: a.B + (b.B-a.B)*t,
		A: a.A + (b.A-a.A)*t,
	}
}

// WithAlpha returns the color with its alpha multiplied by f.
func (c Color) WithAlpha(f float64) Color {
	c.A *= f
	return c
}

// toNRGBA converts to a straight-alpha 8-bit color for rasterization.
func (c Color) toNRGBA() stdcolor.NRGBA {
	return stdcolor.NRGBA{
		R: channelByte(c.R),
		G: channelByte(c.G),
		B: channelByte(c.B),
		A: channelByte(c.A),
	}
}

// channelByte clamps a [0, 1] channel to an 8-bit value.
func channelByte(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v*255 + 0.5)
	}
}
