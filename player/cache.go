package player

import (
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"golang.org/x/image/bmp"
)

// CacheMetadata is the small record stored alongside extracted frames.
// It validates cache reuse across sessions; mismatches are warnings, not
// hard failures.
type CacheMetadata struct {
	Input      string  `json:"input"`
	SourceFPS  float64 `json:"source_fps"`
	DisplayFPS float64 `json:"display_fps"`
	FrameCount int     `json:"frame_count"`
}

// Mismatches compares a stored record against the current request and
// returns one warning per differing field.
func (m CacheMetadata) Mismatches(want CacheMetadata) []string {
	var warnings []string
	if m.Input != want.Input {
		warnings = append(warnings, fmt.Sprintf("cached frames were extracted from %q, not %q", m.Input, want.Input))
	}
	if m.SourceFPS != want.SourceFPS {
		warnings = append(warnings, fmt.Sprintf("cached frame rate %.3f differs from source %.3f", m.SourceFPS, want.SourceFPS))
	}
	if m.DisplayFPS != want.DisplayFPS {
		warnings = append(warnings, fmt.Sprintf("cached display rate %.3f differs from requested %.3f", m.DisplayFPS, want.DisplayFPS))
	}
	if m.FrameCount != want.FrameCount {
		warnings = append(warnings, fmt.Sprintf("cache holds %d frames, source reports %d", m.FrameCount, want.FrameCount))
	}
	return warnings
}

const metadataFile = "metadata.json"

// FrameCache is a directory of sequentially numbered pre-resized frames
// plus a metadata record. Frames are stored as BMP: decode on the
// per-display path must be cheap, so compression is skipped.
type FrameCache struct {
	dir string
}

// NewFrameCache opens a cache rooted at dir, creating it if needed
func NewFrameCache(dir string) (*FrameCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FrameCache{dir: dir}, nil
}

// Dir returns the cache root
func (c *FrameCache) Dir() string {
	return c.dir
}

func (c *FrameCache) framePath(index int) string {
	return filepath.Join(c.dir, fmt.Sprintf("frame%06d.bmp", index))
}

// WriteFrame stores one pre-resized frame
func (c *FrameCache) WriteFrame(index int, img image.Image) error {
	f, err := os.Create(c.framePath(index))
	if err != nil {
		return fmt.Errorf("create frame %d: %w", index, err)
	}
	defer f.Close()

	if err := bmp.Encode(f, img); err != nil {
		return fmt.Errorf("encode frame %d: %w", index, err)
	}
	return nil
}

// ReadFrame loads one pre-resized frame
func (c *FrameCache) ReadFrame(index int) (image.Image, error) {
	f, err := os.Open(c.framePath(index))
	if err != nil {
		return nil, fmt.Errorf("open frame %d: %w", index, err)
	}
	defer f.Close()

	img, err := bmp.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode frame %d: %w", index, err)
	}
	return img, nil
}

// WriteMetadata stores the cache validation record
func (c *FrameCache) WriteMetadata(m CacheMetadata) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(c.dir, metadataFile), data, 0o644); err != nil {
		return fmt.Errorf("write cache metadata: %w", err)
	}
	return nil
}

// ReadMetadata loads the cache validation record
func (c *FrameCache) ReadMetadata() (CacheMetadata, error) {
	var m CacheMetadata
	data, err := os.ReadFile(filepath.Join(c.dir, metadataFile))
	if err != nil {
		return m, fmt.Errorf("read cache metadata: %w", err)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("parse cache metadata: %w", err)
	}
	return m, nil
}
