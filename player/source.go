package player

import (
	"context"
	"fmt"
	"image"
	"io"
)

// FrameReader is a sequential decode boundary: each call yields the next
// raw video frame, io.EOF at end of stream.
type FrameReader interface {
	ReadNext() (image.Image, error)
}

// SeekDecoder is a random-access decode boundary for the live source.
// Reads are not assumed sequential; skip-ahead jumps indices.
type SeekDecoder interface {
	SeekRead(index int) (image.Image, error)
}

// MemorySource holds every frame fully transcoded up front. FrameAt is an
// O(1) lookup; the decoder is never touched again after setup.
type MemorySource struct {
	frames []*GlyphFrame
}

// NewMemorySource transcodes frames from dec in a single streaming pass,
// discarding each raw frame immediately so peak memory stays at one raw
// frame plus the accumulated glyph output. progress may be nil.
func NewMemorySource(ctx context.Context, dec FrameReader, tr *Transcoder, rows, cols, total int, progress func(done, total int)) (*MemorySource, error) {
	frames := make([]*GlyphFrame, 0, total)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw, err := dec.ReadNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode frame %d: %w", len(frames), err)
		}

		frame, err := tr.Transcode(raw, rows, cols)
		if err != nil {
			return nil, fmt.Errorf("transcode frame %d: %w", len(frames), err)
		}
		frames = append(frames, frame)

		if progress != nil {
			progress(len(frames), total)
		}
	}
	return &MemorySource{frames: frames}, nil
}

func (s *MemorySource) FrameAt(index int) (*GlyphFrame, error) {
	if index < 0 || index >= len(s.frames) {
		return nil, ErrFrameSkipped
	}
	return s.frames[index], nil
}

func (s *MemorySource) Count() int {
	return len(s.frames)
}

// DiskSource reads pre-resized frames from the cache and glyph-maps them
// per call. Nothing is cached between calls; re-decoding is off the
// time-critical path because the resize was already amortized.
type DiskSource struct {
	cache *FrameCache
	tr    *Transcoder
	rows  int
	cols  int
	count int
}

// NewDiskSource creates a source over an extracted frame cache
func NewDiskSource(cache *FrameCache, tr *Transcoder, rows, cols, count int) *DiskSource {
	return &DiskSource{cache: cache, tr: tr, rows: rows, cols: cols, count: count}
}

func (s *DiskSource) FrameAt(index int) (*GlyphFrame, error) {
	img, err := s.cache.ReadFrame(index)
	if err != nil {
		// a missing or corrupt cached frame is recovered by skipping
		return nil, fmt.Errorf("%w: %v", ErrFrameSkipped, err)
	}
	return s.tr.Transcode(img, s.rows, s.cols)
}

func (s *DiskSource) Count() int {
	return s.count
}

// LiveSource seeks, decodes, and transcodes inline with the render loop
type LiveSource struct {
	dec  SeekDecoder
	tr   *Transcoder
	rows int
	cols int
	n    int
}

// NewLiveSource creates a source that pulls frames from dec on demand
func NewLiveSource(dec SeekDecoder, tr *Transcoder, rows, cols, count int) *LiveSource {
	return &LiveSource{dec: dec, tr: tr, rows: rows, cols: cols, n: count}
}

func (s *LiveSource) FrameAt(index int) (*GlyphFrame, error) {
	raw, err := s.dec.SeekRead(index)
	if err != nil {
		// end of stream or a corrupt frame: skip, never abort playback
		return nil, fmt.Errorf("%w: %v", ErrFrameSkipped, err)
	}
	return s.tr.Transcode(raw, s.rows, s.cols)
}

func (s *LiveSource) Count() int {
	return s.n
}
