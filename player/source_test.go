package player

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReader yields n uniform frames then io.EOF
type fakeReader struct {
	n      int
	read   int
	closed bool
}

func (r *fakeReader) ReadNext() (image.Image, error) {
	if r.closed {
		return nil, errors.New("read after close")
	}
	if r.read >= r.n {
		return nil, io.EOF
	}
	// each frame carries its index as its gray level
	lvl := uint8(r.read * 10)
	r.read++
	return uniformImage(6, 6, color.RGBA{R: lvl, G: lvl, B: lvl, A: 255}), nil
}

func TestMemorySourceSetupAndLookup(t *testing.T) {
	reader := &fakeReader{n: 12}
	tr := NewTranscoder(nil, false)

	var lastDone int
	src, err := NewMemorySource(context.Background(), reader, tr, 4, 10, 12, func(done, total int) {
		lastDone = done
		assert.Equal(t, 12, total)
	})
	require.NoError(t, err)
	assert.Equal(t, 12, src.Count())
	assert.Equal(t, 12, lastDone)

	// the decoder is done with: lookups never touch it again
	reader.closed = true
	for i := 0; i < 12; i++ {
		frame, err := src.FrameAt(i)
		require.NoError(t, err, "frame %d", i)
		assert.Equal(t, 4, frame.Rows())
		assert.Equal(t, 10, frame.Cols())
	}

	// distinct frames, not one shared grid
	f0, _ := src.FrameAt(0)
	f9, _ := src.FrameAt(9)
	assert.NotEqual(t, f0.Cell(0, 0).Char, f9.Cell(0, 0).Char)
}

func TestMemorySourceOutOfRange(t *testing.T) {
	src, err := NewMemorySource(context.Background(), &fakeReader{n: 3}, NewTranscoder(nil, false), 2, 2, 3, nil)
	require.NoError(t, err)

	_, err = src.FrameAt(3)
	assert.ErrorIs(t, err, ErrFrameSkipped)
	_, err = src.FrameAt(-1)
	assert.ErrorIs(t, err, ErrFrameSkipped)
}

func TestMemorySourceCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemorySource(ctx, &fakeReader{n: 5}, NewTranscoder(nil, false), 2, 2, 5, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDiskSourceRoundTrip(t *testing.T) {
	cache, err := NewFrameCache(t.TempDir())
	require.NoError(t, err)

	// pre-resized frames, as the extraction pass would store them
	for i := 0; i < 4; i++ {
		lvl := uint8(60 * i)
		img := ResizeForCache(uniformImage(6, 6, color.RGBA{R: lvl, G: lvl, B: lvl, A: 255}), 4, 10)
		require.NoError(t, cache.WriteFrame(i, img))
	}

	src := NewDiskSource(cache, NewTranscoder(nil, false), 4, 10, 4)
	assert.Equal(t, 4, src.Count())

	frame, err := src.FrameAt(0)
	require.NoError(t, err)
	assert.Equal(t, 4, frame.Rows())
	assert.Equal(t, 10, frame.Cols())
	assert.Equal(t, byte('B'), frame.Cell(0, 0).Char)

	frame, err = src.FrameAt(3)
	require.NoError(t, err)
	assert.Equal(t, CharForLuminance(180), frame.Cell(0, 0).Char)
}

func TestDiskSourceMissingFrameSkips(t *testing.T) {
	cache, err := NewFrameCache(t.TempDir())
	require.NoError(t, err)

	src := NewDiskSource(cache, NewTranscoder(nil, false), 4, 10, 10)
	_, err = src.FrameAt(7)
	assert.ErrorIs(t, err, ErrFrameSkipped)
}

// fakeSeekDecoder serves frames by index, failing configured ones
type fakeSeekDecoder struct {
	n      int
	failAt map[int]bool
	seeks  []int
}

func (d *fakeSeekDecoder) SeekRead(index int) (image.Image, error) {
	d.seeks = append(d.seeks, index)
	if index >= d.n || d.failAt[index] {
		return nil, io.EOF
	}
	return uniformImage(6, 6, color.RGBA{R: 100, G: 100, B: 100, A: 255}), nil
}

func TestLiveSourceDecodesOnDemand(t *testing.T) {
	dec := &fakeSeekDecoder{n: 20}
	src := NewLiveSource(dec, NewTranscoder(nil, false), 4, 10, 20)
	assert.Equal(t, 20, src.Count())

	// non-sequential access, as skip-ahead produces
	for _, i := range []int{0, 3, 9, 12} {
		frame, err := src.FrameAt(i)
		require.NoError(t, err)
		assert.Equal(t, 4, frame.Rows())
	}
	assert.Equal(t, []int{0, 3, 9, 12}, dec.seeks)
}

func TestLiveSourceFailureSignalsSkip(t *testing.T) {
	dec := &fakeSeekDecoder{n: 20, failAt: map[int]bool{5: true}}
	src := NewLiveSource(dec, NewTranscoder(nil, false), 4, 10, 20)

	_, err := src.FrameAt(5)
	assert.ErrorIs(t, err, ErrFrameSkipped)

	_, err = src.FrameAt(25)
	assert.ErrorIs(t, err, ErrFrameSkipped, "end of stream is a skip, not an abort")
}
