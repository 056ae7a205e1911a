package player

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniformImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestTranscodeForcesTargetDimensions(t *testing.T) {
	tr := NewTranscoder(nil, false)

	for _, size := range []struct{ w, h int }{
		{4, 4},
		{1920, 1080},
		{1, 1},
	} {
		src := uniformImage(size.w, size.h, color.RGBA{R: 128, G: 128, B: 128, A: 255})
		frame, err := tr.Transcode(src, 24, 80)
		require.NoError(t, err, "input %dx%d", size.w, size.h)
		assert.Equal(t, 24, frame.Rows(), "input %dx%d", size.w, size.h)
		assert.Equal(t, 80, frame.Cols(), "input %dx%d", size.w, size.h)
	}
}

func TestTranscodeGrayscaleCells(t *testing.T) {
	tr := NewTranscoder(nil, false)

	black := uniformImage(8, 8, color.RGBA{A: 255})
	frame, err := tr.Transcode(black, 4, 10)
	require.NoError(t, err)
	for r := 0; r < frame.Rows(); r++ {
		for c := 0; c < frame.Cols(); c++ {
			cell := frame.Cell(r, c)
			assert.Equal(t, byte('B'), cell.Char)
			assert.Equal(t, PaintNone, cell.Paint)
		}
	}

	white := uniformImage(8, 8, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	frame, err = tr.Transcode(white, 4, 10)
	require.NoError(t, err)
	assert.Equal(t, byte(' '), frame.Cell(0, 0).Char)
}

func TestTranscodeColorCells(t *testing.T) {
	alloc := &fakeAllocator{cap: 256}
	q := NewColorQuantizer(Palette256, alloc)
	tr := NewTranscoder(q, true)

	red := uniformImage(8, 8, color.RGBA{R: 255, A: 255})
	frame, err := tr.Transcode(red, 4, 10)
	require.NoError(t, err)

	cell := frame.Cell(2, 5)
	// character tracks luminance (channel mean 85), paint tracks hue
	assert.Equal(t, CharForLuminance(85), cell.Char)
	assert.NotEqual(t, PaintNone, cell.Paint)

	// a uniform frame needs exactly one paint handle
	assert.Equal(t, 1, alloc.calls)
	for r := 0; r < frame.Rows(); r++ {
		for c := 0; c < frame.Cols(); c++ {
			assert.Equal(t, cell.Paint, frame.Cell(r, c).Paint)
		}
	}
}

func TestTranscodeRejectsBadGrid(t *testing.T) {
	tr := NewTranscoder(nil, false)
	src := uniformImage(4, 4, color.RGBA{A: 255})

	_, err := tr.Transcode(src, 0, 80)
	assert.Error(t, err)
	_, err = tr.Transcode(src, 24, -1)
	assert.Error(t, err)
}
