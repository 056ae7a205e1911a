package player

import (
	"errors"
	"fmt"
)

// Mode selects the frame-supply strategy
type Mode int

const (
	// ModeMemory pre-transcodes every frame into memory before playback
	ModeMemory Mode = iota
	// ModeDisk plays from pre-resized frames on disk
	ModeDisk
	// ModeLive decodes and transcodes inline with playback
	ModeLive
)

func (m Mode) String() string {
	switch m {
	case ModeMemory:
		return "memory"
	case ModeDisk:
		return "disk"
	case ModeLive:
		return "live"
	default:
		return "unknown"
	}
}

// ParseMode parses a -mode flag value
func ParseMode(s string) (Mode, error) {
	switch s {
	case "memory":
		return ModeMemory, nil
	case "disk":
		return ModeDisk, nil
	case "live":
		return ModeLive, nil
	default:
		return 0, fmt.Errorf("unknown mode %q (want memory, disk, or live)", s)
	}
}

// Config is the immutable playback configuration, constructed once at
// startup and passed into every component. No component reads ambient
// process-wide state.
type Config struct {
	// Input is the path to the media file
	Input string

	// Mode is the frame-supply strategy
	Mode Mode

	// UseCachedFrames reuses an existing disk cache instead of
	// extracting frames again (disk mode only)
	UseCachedFrames bool

	// CacheDir is where the disk cache lives
	CacheDir string

	// Color enables colored glyphs; Palette picks the palette
	Color   bool
	Palette PaletteMode

	// DisplayFPS is the requested display rate; <= 0 means the source
	// rate (skip factor 1)
	DisplayFPS float64

	// DisableAdaptiveSkip turns off catch-up skipping; playback may
	// fall out of sync with audio
	DisableAdaptiveSkip bool

	// DebugFPS shows the live frames-per-second counter
	DebugFPS bool

	// TranscriptPath enables captions from a transcript JSON file
	TranscriptPath string

	// Mute disables the audio transport
	Mute bool
}

// Validate reports configuration errors. These are fatal before any
// resource is acquired.
func (c Config) Validate() error {
	if c.Input == "" {
		return errors.New("no input file given")
	}
	if c.UseCachedFrames && c.Mode != ModeDisk {
		return fmt.Errorf("cached frames require disk mode, not %s", c.Mode)
	}
	if c.Mode == ModeDisk && c.CacheDir == "" {
		return errors.New("disk mode requires a cache directory")
	}
	if c.Palette != Palette256 && c.Palette != Palette8 {
		return fmt.Errorf("unknown palette mode %d", c.Palette)
	}
	return nil
}
