package player

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocPaintBoundedPool(t *testing.T) {
	r := NewTermRenderer(&bytes.Buffer{}, Palette256)

	seen := make(map[Paint]bool)
	for i := 0; i < maxPaints; i++ {
		p, err := r.AllocPaint(uint8(i))
		require.NoError(t, err, "allocation %d", i)
		assert.NotEqual(t, PaintNone, p)
		assert.False(t, seen[p], "handles must be distinct")
		seen[p] = true
	}

	_, err := r.AllocPaint(42)
	assert.ErrorIs(t, err, ErrPaintPoolExhausted)
}

func TestPaintGridOutput(t *testing.T) {
	var out bytes.Buffer
	r := NewTermRenderer(&out, Palette256)

	f := newGlyphFrame(2, 3)
	for c := 0; c < 3; c++ {
		f.cells[0][c] = GlyphCell{Char: '#'}
		f.cells[1][c] = GlyphCell{Char: '.'}
	}
	require.NoError(t, r.PaintGrid(f))

	s := out.String()
	assert.True(t, strings.HasPrefix(s, "\x1b[?2026h"), "synchronized update start")
	assert.True(t, strings.HasSuffix(s, "\x1b[?2026l"), "synchronized update end")
	assert.Contains(t, s, "\x1b[H", "paints from home")
	assert.Contains(t, s, "###\r\n...")
}

func TestPaintGridBatchesPaintRuns(t *testing.T) {
	var out bytes.Buffer
	r := NewTermRenderer(&out, Palette256)

	p, err := r.AllocPaint(196)
	require.NoError(t, err)

	f := newGlyphFrame(1, 4)
	for c := 0; c < 4; c++ {
		f.cells[0][c] = GlyphCell{Char: '@', Paint: p}
	}
	require.NoError(t, r.PaintGrid(f))

	// one SGR for the whole run, not one per cell
	assert.Equal(t, 1, strings.Count(out.String(), "\x1b[38;5;196m"))
	assert.Contains(t, out.String(), "@@@@")
}

func TestPaintOverlayPositionsText(t *testing.T) {
	var out bytes.Buffer
	r := NewTermRenderer(&out, Palette8)

	p, err := r.AllocPaint(2)
	require.NoError(t, err)
	require.NoError(t, r.PaintOverlay(1, 70, "FPS:12.00", p))

	s := out.String()
	assert.Contains(t, s, "\x1b[1;70H")
	assert.Contains(t, s, "\x1b[32m", "basic palette paint")
	assert.Contains(t, s, "FPS:12.00")
	assert.True(t, strings.HasPrefix(s, "\x1b7"), "cursor saved")
	assert.True(t, strings.HasSuffix(s, "\x1b8"), "cursor restored")
}

func TestPaintSequencesByMode(t *testing.T) {
	r256 := NewTermRenderer(&bytes.Buffer{}, Palette256)
	p, err := r256.AllocPaint(123)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("\x1b[38;5;%dm", 123), r256.seqs[p])

	r8 := NewTermRenderer(&bytes.Buffer{}, Palette8)
	p, err = r8.AllocPaint(5)
	require.NoError(t, err)
	assert.Equal(t, "\x1b[35m", r8.seqs[p])
}
