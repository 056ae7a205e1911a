package player

import (
	"context"
	"fmt"
	"io"
)

// greenKey is the palette key used for the debug FPS counter
const greenKey = 2

// Session assembles one playback run: decoder, transcoder, frame source,
// renderer, audio, and scheduler, all wired from one immutable Config.
type Session struct {
	cfg Config

	dec      *FrameDecoder
	meta     VideoMetadata
	renderer *TermRenderer
	tr       *Transcoder
	source   FrameSource
	captions CaptionProvider

	gridRows int
	gridCols int

	debugPaint Paint
}

// NewSession opens the input and captures the terminal grid size.
// Acquisition failures here are fatal: no partial playback is attempted.
func NewSession(cfg Config, out io.Writer) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dec, err := OpenVideo(cfg.Input)
	if err != nil {
		return nil, err
	}

	meta := dec.Metadata()
	if meta.FrameCount > 0 && meta.FrameRate <= 0 {
		dec.Close()
		return nil, fmt.Errorf("source reports %d frames but no frame rate", meta.FrameCount)
	}

	renderer := NewTermRenderer(out, cfg.Palette)
	rows, cols, err := renderer.GridSize()
	if err != nil {
		dec.Close()
		return nil, fmt.Errorf("terminal size: %w", err)
	}

	s := &Session{
		cfg:      cfg,
		dec:      dec,
		meta:     meta,
		renderer: renderer,
		// bottom row is kept free for captions and to avoid scrolling
		// the grid when the last cell is written
		gridRows: max(1, rows-1),
		gridCols: cols,
	}

	var quant *ColorQuantizer
	if cfg.Color {
		quant = NewColorQuantizer(cfg.Palette, renderer)
	}
	s.tr = NewTranscoder(quant, cfg.Color)

	if cfg.TranscriptPath != "" {
		s.captions, err = LoadTranscript(cfg.TranscriptPath)
		if err != nil {
			dec.Close()
			return nil, err
		}
	}

	if cfg.DebugFPS {
		if p, err := renderer.AllocPaint(greenKey); err == nil {
			s.debugPaint = p
		}
	}

	return s, nil
}

// Metadata returns the source video metadata
func (s *Session) Metadata() VideoMetadata {
	return s.meta
}

// Prepare builds the frame source for the configured mode. For the
// memory and pre-extracted disk strategies the decoder is released once
// setup finishes; only live playback keeps it open. progress may be nil.
// Returned warnings are non-fatal (cache metadata mismatches).
func (s *Session) Prepare(ctx context.Context, progress func(done, total int)) ([]string, error) {
	switch s.cfg.Mode {
	case ModeMemory:
		src, err := NewMemorySource(ctx, s.dec, s.tr, s.gridRows, s.gridCols, s.meta.FrameCount, progress)
		if err != nil {
			return nil, err
		}
		s.source = src
		s.closeDecoder()
		return nil, nil

	case ModeDisk:
		return s.prepareDisk(ctx, progress)

	case ModeLive:
		s.source = NewLiveSource(s.dec, s.tr, s.gridRows, s.gridCols, s.meta.FrameCount)
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown mode %d", s.cfg.Mode)
	}
}

func (s *Session) prepareDisk(ctx context.Context, progress func(done, total int)) ([]string, error) {
	cache, err := NewFrameCache(s.cfg.CacheDir)
	if err != nil {
		return nil, err
	}

	want := CacheMetadata{
		Input:      s.cfg.Input,
		SourceFPS:  s.meta.FrameRate,
		DisplayFPS: s.cfg.DisplayFPS,
		FrameCount: s.meta.FrameCount,
	}

	var warnings []string
	count := s.meta.FrameCount

	if s.cfg.UseCachedFrames {
		got, err := cache.ReadMetadata()
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("cache metadata unreadable, playback may desynchronize: %v", err))
		} else {
			warnings = got.Mismatches(want)
			if got.FrameCount > 0 {
				count = got.FrameCount
			}
		}
	} else {
		count, err = s.extractFrames(ctx, cache, progress)
		if err != nil {
			return nil, err
		}
		want.FrameCount = count
		if err := cache.WriteMetadata(want); err != nil {
			return nil, err
		}
	}

	s.source = NewDiskSource(cache, s.tr, s.gridRows, s.gridCols, count)
	s.closeDecoder()
	return warnings, nil
}

// extractFrames decodes the whole video once, pre-resizing each frame to
// the grid and writing it to the cache. Raw frames are discarded as soon
// as the resized copy is stored.
func (s *Session) extractFrames(ctx context.Context, cache *FrameCache, progress func(done, total int)) (int, error) {
	count := 0
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		raw, err := s.dec.ReadNext()
		if err == io.EOF {
			return count, nil
		}
		if err != nil {
			return 0, fmt.Errorf("decode frame %d: %w", count, err)
		}

		resized := ResizeForCache(raw, s.gridRows, s.gridCols)
		if err := cache.WriteFrame(count, resized); err != nil {
			return 0, err
		}
		count++

		if progress != nil {
			progress(count, s.meta.FrameCount)
		}
	}
}

// Play runs the scheduler until the video ends or ctx is cancelled. The
// terminal is set up before the first frame and restored on every exit
// path; the audio transport is stopped by the scheduler itself.
func (s *Session) Play(ctx context.Context) error {
	if s.source == nil {
		return fmt.Errorf("session not prepared")
	}

	var audio AudioTransport
	if !s.cfg.Mute {
		// a video without an audio track still plays, just silent
		if t, err := OpenAudio(s.cfg.Input); err == nil {
			audio = t
		}
	}

	sched := &Scheduler{
		Source:              s.source,
		Renderer:            s.renderer,
		Audio:               audio,
		Captions:            s.captions,
		SourceFPS:           s.meta.FrameRate,
		DisplayFPS:          s.cfg.DisplayFPS,
		DisableAdaptiveSkip: s.cfg.DisableAdaptiveSkip,
		DebugFPS:            s.cfg.DebugFPS,
		DebugPaint:          s.debugPaint,
	}

	if err := s.renderer.Setup(); err != nil {
		return err
	}
	defer s.renderer.Restore()

	return sched.Run(ctx)
}

// Close releases whatever the session still holds
func (s *Session) Close() {
	s.closeDecoder()
}

func (s *Session) closeDecoder() {
	if s.dec != nil {
		s.dec.Close()
		s.dec = nil
	}
}
