package player

import (
	"errors"
	"time"

	"github.com/asticode/go-astiav"
)

func init() {
	// Suppress FFmpeg log messages
	astiav.SetLogLevel(astiav.LogLevelQuiet)
}

// FrameSource supplies glyph frames by source-frame index. The scheduler
// depends only on this contract and is agnostic of how frames are acquired.
type FrameSource interface {
	// FrameAt returns the glyph frame for the given source index.
	// A return of ErrFrameSkipped means the index could not be produced
	// and the caller should advance as if it had voluntarily skipped.
	FrameAt(index int) (*GlyphFrame, error)

	// Count returns the total number of source frames
	Count() int
}

// Renderer paints glyph frames and overlay text to the terminal
type Renderer interface {
	// PaintGrid paints a full glyph frame
	PaintGrid(f *GlyphFrame) error

	// PaintOverlay paints text at a 1-indexed cell position with an
	// optional paint (PaintNone for the terminal default)
	PaintOverlay(row, col int, text string, p Paint) error

	// GridSize returns the current terminal size in cells
	GridSize() (rows, cols int, err error)
}

// PaintAllocator allocates renderer-backed paint handles. Handles are a
// bounded resource; allocation fails with ErrPaintPoolExhausted once the
// backend's pool is full.
type PaintAllocator interface {
	AllocPaint(key uint8) (Paint, error)
}

// AudioTransport is the opaque audio player. It runs on its own real-time
// clock; the scheduler only ever issues Play once and Stop once.
type AudioTransport interface {
	Play() error
	Stop()
}

// CaptionProvider resolves the caption to show at a playback time
type CaptionProvider interface {
	CaptionAt(seconds float64) string
}

// VideoMetadata describes the source video, established once per session
type VideoMetadata struct {
	FrameRate  float64
	FrameCount int
}

var (
	// ErrFrameSkipped signals that a frame could not be produced for an
	// index and playback should skip ahead instead of aborting.
	ErrFrameSkipped = errors.New("frame skipped")

	// ErrPaintPoolExhausted is returned by a PaintAllocator once the
	// backend has no more distinct paint handles.
	ErrPaintPoolExhausted = errors.New("paint pool exhausted")
)

// SkipThreshold is how far behind the ideal schedule the renderer may
// fall before the scheduler skips ahead without rendering.
const SkipThreshold = 50 * time.Millisecond
