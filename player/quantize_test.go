package player

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAllocator hands out sequential paint handles up to a cap
type fakeAllocator struct {
	calls int
	cap   int
}

func (a *fakeAllocator) AllocPaint(key uint8) (Paint, error) {
	if a.calls >= a.cap {
		return PaintNone, ErrPaintPoolExhausted
	}
	a.calls++
	return Paint(a.calls), nil
}

func TestQuantizeExtendedGrays(t *testing.T) {
	q := NewColorQuantizer(Palette256, &fakeAllocator{cap: 256})

	for v := 0; v <= 255; v++ {
		key := q.Quantize(uint8(v), uint8(v), uint8(v))
		assert.GreaterOrEqual(t, key, uint8(232), "gray %d", v)
	}

	assert.Equal(t, uint8(232), q.Quantize(0, 0, 0))
	assert.Equal(t, uint8(255), q.Quantize(255, 255, 255))
}

func TestQuantizeExtendedCube(t *testing.T) {
	q := NewColorQuantizer(Palette256, &fakeAllocator{cap: 256})

	// 16 + 36R + 6G + B with each channel rounded to a 6-level index
	assert.Equal(t, uint8(16+36*5), q.Quantize(255, 0, 1))
	assert.Equal(t, uint8(16+6*5), q.Quantize(0, 255, 1))
	assert.Equal(t, uint8(16+5), q.Quantize(1, 0, 255))
	assert.Equal(t, uint8(16+36*5+6*5), q.Quantize(255, 255, 0))
}

func TestQuantizeDeterministic(t *testing.T) {
	q := NewColorQuantizer(Palette256, &fakeAllocator{cap: 256})

	for i := 0; i < 3; i++ {
		assert.Equal(t, q.Quantize(12, 200, 90), q.Quantize(12, 200, 90))
	}
}

func TestQuantizeBasicNearest(t *testing.T) {
	q := NewColorQuantizer(Palette8, &fakeAllocator{cap: 8})

	assert.Equal(t, uint8(0), q.Quantize(10, 10, 10))    // black
	assert.Equal(t, uint8(1), q.Quantize(250, 10, 10))   // red
	assert.Equal(t, uint8(2), q.Quantize(10, 250, 10))   // green
	assert.Equal(t, uint8(4), q.Quantize(10, 10, 250))   // blue
	assert.Equal(t, uint8(3), q.Quantize(250, 250, 10))  // yellow
	assert.Equal(t, uint8(7), q.Quantize(250, 250, 250)) // white
}

func TestPaintForIdempotent(t *testing.T) {
	alloc := &fakeAllocator{cap: 256}
	q := NewColorQuantizer(Palette256, alloc)

	p1, err := q.PaintFor(196)
	require.NoError(t, err)
	p2, err := q.PaintFor(196)
	require.NoError(t, err)

	assert.Equal(t, p1, p2, "same key must return the same handle")
	assert.Equal(t, 1, alloc.calls, "second lookup must not allocate")
}

func TestPaintForPoolExhaustedReusesNearest(t *testing.T) {
	alloc := &fakeAllocator{cap: 1}
	q := NewColorQuantizer(Palette256, alloc)

	red, err := q.PaintFor(196) // cube red, the only allocation allowed
	require.NoError(t, err)

	// 197 is the closest thing to 196 the pool still knows about
	p, err := q.PaintFor(197)
	require.NoError(t, err, "exhaustion must not fail the hot path")
	assert.Equal(t, red, p)

	// the substitute is cached like any other handle
	p2, err := q.PaintFor(197)
	require.NoError(t, err)
	assert.Equal(t, red, p2)
	assert.Equal(t, 1, alloc.calls)
}
