package player

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// PaletteMode selects which terminal palette colors are quantized into
type PaletteMode int

const (
	// Palette256 is the extended 6x6x6 cube plus 24-step grayscale ramp
	Palette256 PaletteMode = iota
	// Palette8 is the basic 8-color palette
	Palette8
)

func (m PaletteMode) String() string {
	switch m {
	case Palette256:
		return "256"
	case Palette8:
		return "8"
	default:
		return "unknown"
	}
}

// basicPalette is the fixed 8-entry table for Palette8, indexed by the
// standard terminal color order.
var basicPalette = [8]colorful.Color{
	{R: 0, G: 0, B: 0},       // black
	{R: 1, G: 0, B: 0},       // red
	{R: 0, G: 1, B: 0},       // green
	{R: 1, G: 1, B: 0},       // yellow
	{R: 0, G: 0, B: 1},       // blue
	{R: 1, G: 0, B: 1},       // magenta
	{R: 0, G: 1, B: 1},       // cyan
	{R: 1, G: 1, B: 1},       // white
}

// cubeLevels are the channel values of the 6-level color cube
var cubeLevels = [6]float64{0, 95, 135, 175, 215, 255}

// ColorQuantizer maps RGB samples to palette keys and caches the paint
// handle allocated for each key. The cache grows monotonically for the
// session and is bounded by the palette size.
type ColorQuantizer struct {
	mode      PaletteMode
	alloc     PaintAllocator
	paints    map[uint8]Paint
	allocated []uint8
}

// NewColorQuantizer creates a quantizer for the given palette mode that
// allocates paint handles through alloc.
func NewColorQuantizer(mode PaletteMode, alloc PaintAllocator) *ColorQuantizer {
	return &ColorQuantizer{
		mode:   mode,
		alloc:  alloc,
		paints: make(map[uint8]Paint),
	}
}

// Quantize maps an RGB triple to a palette key. Deterministic: the same
// input always yields the same key.
func (q *ColorQuantizer) Quantize(r, g, b uint8) uint8 {
	if q.mode == Palette8 {
		return quantizeBasic(r, g, b)
	}
	return quantizeExtended(r, g, b)
}

// quantizeExtended reproduces the standard xterm 256-color layout: pure
// grays map through the 24-step ramp at 232-255, everything else to the
// 6x6x6 cube starting at 16.
func quantizeExtended(r, g, b uint8) uint8 {
	if r == g && g == b {
		return uint8(232 + int(math.Round(float64(r)/255*23)))
	}
	cube := func(c uint8) int {
		return int(math.Round(float64(c) / 255 * 5))
	}
	return uint8(16 + 36*cube(r) + 6*cube(g) + cube(b))
}

// quantizeBasic picks the nearest of the 8 basic colors by Euclidean
// distance in RGB space.
func quantizeBasic(r, g, b uint8) uint8 {
	c := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
	best := 0
	bestDist := math.Inf(1)
	for i, p := range basicPalette {
		if d := c.DistanceRgb(p); d < bestDist {
			best = i
			bestDist = d
		}
	}
	return uint8(best)
}

// PaintFor returns the paint handle for a palette key, allocating it on
// first use. Allocation is idempotent per key for the session. If the
// backend's handle pool is exhausted the handle of the nearest
// already-allocated key is reused instead of failing the hot path.
func (q *ColorQuantizer) PaintFor(key uint8) (Paint, error) {
	if p, ok := q.paints[key]; ok {
		return p, nil
	}

	p, err := q.alloc.AllocPaint(key)
	if err == ErrPaintPoolExhausted {
		p = q.nearestAllocated(key)
	} else if err != nil {
		return PaintNone, err
	}

	q.paints[key] = p
	q.allocated = append(q.allocated, key)
	return p, nil
}

// nearestAllocated finds the allocated key closest in color to key.
// Only reachable once at least one allocation has succeeded.
func (q *ColorQuantizer) nearestAllocated(key uint8) Paint {
	want := paletteRGB(q.mode, key)
	var best uint8
	bestDist := math.Inf(1)
	for _, k := range q.allocated {
		if d := want.DistanceRgb(paletteRGB(q.mode, k)); d < bestDist {
			best = k
			bestDist = d
		}
	}
	return q.paints[best]
}

// paletteRGB returns the display color of a palette key, used only to
// pick a substitute when the paint pool is full.
func paletteRGB(mode PaletteMode, key uint8) colorful.Color {
	if mode == Palette8 {
		return basicPalette[key%8]
	}
	switch {
	case key >= 232:
		v := float64(8+10*(int(key)-232)) / 255
		return colorful.Color{R: v, G: v, B: v}
	case key >= 16:
		n := int(key) - 16
		return colorful.Color{
			R: cubeLevels[n/36] / 255,
			G: cubeLevels[n/6%6] / 255,
			B: cubeLevels[n%6] / 255,
		}
	default:
		return basicPalette[key%8]
	}
}
