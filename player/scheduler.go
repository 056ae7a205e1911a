package player

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// Scheduler is the real-time playback loop. It decides, frame by frame,
// whether to render, wait, or skip ahead so the glyph stream stays
// synchronized to the audio transport's clock, which it anchors to by
// capturing one immutable start instant the moment Play is issued.
type Scheduler struct {
	Source   FrameSource
	Renderer Renderer
	Audio    AudioTransport  // optional
	Captions CaptionProvider // optional
	Clock    Clock           // defaults to the wall clock

	SourceFPS           float64
	DisplayFPS          float64 // <= 0 falls back to SourceFPS
	DisableAdaptiveSkip bool

	// DebugFPS shows a live frames-drawn-per-second counter top-right,
	// painted with DebugPaint.
	DebugFPS   bool
	DebugPaint Paint
}

// SkipFactor is the stride, in source-frame units, between consecutive
// displayed frames. It realizes a lower display rate without slowing
// audio. Computed once at session start; adaptive skip reuses the same
// stride rather than computing a larger catch-up jump.
func SkipFactor(sourceFPS, displayFPS float64) int {
	if displayFPS <= 0 {
		return 1
	}
	f := int(math.Round(sourceFPS / displayFPS))
	if f < 1 {
		f = 1
	}
	return f
}

// Run plays every scheduled frame until the source is exhausted or ctx
// is cancelled. Rendered indices are strictly increasing and no index is
// rendered twice. Whatever the exit path, the audio transport is told to
// stop exactly once.
func (s *Scheduler) Run(ctx context.Context) error {
	total := s.Source.Count()
	if total <= 0 {
		return nil
	}

	clock := s.Clock
	if clock == nil {
		clock = NewClock()
	}
	skip := SkipFactor(s.SourceFPS, s.DisplayFPS)

	rows, cols, err := s.Renderer.GridSize()
	if err != nil {
		return fmt.Errorf("grid size: %w", err)
	}

	if s.Audio != nil {
		if err := s.Audio.Play(); err != nil {
			return fmt.Errorf("start audio: %w", err)
		}
		defer s.Audio.Stop()
	}
	start := clock.Now()

	// debug FPS accounting
	windowStart := start
	framesInWindow := 0
	displayedFPS := 0.0

	for idx := 0; idx < total; {
		if err := ctx.Err(); err != nil {
			return err
		}

		ideal := time.Duration(float64(idx) / s.SourceFPS * float64(time.Second))
		actual := clock.Now().Sub(start)

		// behind schedule: advance without rendering to recover sync
		if !s.DisableAdaptiveSkip && actual > ideal+SkipThreshold {
			idx += skip
			continue
		}

		// ahead of schedule: throttle to real time
		if actual < ideal {
			if err := clock.Sleep(ctx, ideal-actual); err != nil {
				return err
			}
		}

		frame, err := s.Source.FrameAt(idx)
		if err != nil {
			if errors.Is(err, ErrFrameSkipped) {
				idx += skip
				continue
			}
			return fmt.Errorf("frame %d: %w", idx, err)
		}

		if err := s.Renderer.PaintGrid(frame); err != nil {
			return fmt.Errorf("render frame %d: %w", idx, err)
		}

		if s.Captions != nil {
			s.paintCaption(rows, cols, float64(idx)/s.SourceFPS)
		}

		framesInWindow++
		if now := clock.Now(); now.Sub(windowStart) >= time.Second {
			displayedFPS = float64(framesInWindow) / now.Sub(windowStart).Seconds()
			framesInWindow = 0
			windowStart = now
		}
		if s.DebugFPS {
			text := fmt.Sprintf("FPS:%.2f", displayedFPS)
			s.Renderer.PaintOverlay(1, cols-len(text), text, s.DebugPaint)
		}

		idx += skip
	}
	return nil
}

// paintCaption centers the current caption on the last terminal row,
// padded to the full width so the previous caption is erased. The
// session reserves that row when a transcript is loaded.
func (s *Scheduler) paintCaption(rows, cols int, seconds float64) {
	text := s.Captions.CaptionAt(seconds)
	if len(text) > cols {
		text = text[:cols]
	}
	left := (cols - len(text)) / 2
	line := make([]byte, cols)
	for i := range line {
		line[i] = ' '
	}
	copy(line[left:], text)
	s.Renderer.PaintOverlay(rows, 1, string(line), PaintNone)
}
