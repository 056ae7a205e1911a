package player

import (
	"fmt"
	"math"
	"sync"

	"github.com/asticode/go-astiav"
)

// Demuxer opens a media file and reads its video packets. Audio packets
// are discarded here; the audio transport owns its own demuxer so the
// two clocks stay fully independent.
type Demuxer struct {
	formatCtx   *astiav.FormatContext
	videoStream *astiav.Stream
	videoIdx    int
	timeBase    astiav.Rational

	mu     sync.Mutex
	closed bool
}

// NewDemuxer opens the media at path and locates its video stream
func NewDemuxer(path string) (*Demuxer, error) {
	d := &Demuxer{videoIdx: -1}

	d.formatCtx = astiav.AllocFormatContext()
	if d.formatCtx == nil {
		return nil, fmt.Errorf("failed to allocate format context")
	}

	if err := d.formatCtx.OpenInput(path, nil, nil); err != nil {
		d.formatCtx.Free()
		return nil, fmt.Errorf("failed to open input: %w", err)
	}

	if err := d.formatCtx.FindStreamInfo(nil); err != nil {
		d.Close()
		return nil, fmt.Errorf("failed to find stream info: %w", err)
	}

	for _, stream := range d.formatCtx.Streams() {
		if stream.CodecParameters().MediaType() == astiav.MediaTypeVideo {
			d.videoIdx = stream.Index()
			d.videoStream = stream
			d.timeBase = stream.TimeBase()
			break
		}
	}

	if d.videoIdx == -1 {
		d.Close()
		return nil, fmt.Errorf("no video stream found")
	}

	return d, nil
}

// CodecParameters returns the video codec parameters
func (d *Demuxer) CodecParameters() *astiav.CodecParameters {
	return d.videoStream.CodecParameters()
}

// TimeBase returns the video stream time base
func (d *Demuxer) TimeBase() astiav.Rational {
	return d.timeBase
}

// Metadata reports the source frame rate and frame count. When the
// container does not carry an exact frame count it is estimated from
// the duration.
func (d *Demuxer) Metadata() VideoMetadata {
	rate := d.videoStream.AvgFrameRate()
	fps := 0.0
	if rate.Den() != 0 {
		fps = float64(rate.Num()) / float64(rate.Den())
	}

	count := int(d.videoStream.NbFrames())
	if count == 0 && fps > 0 {
		// formatCtx duration is in microseconds
		seconds := float64(d.formatCtx.Duration()) / 1e6
		if seconds > 0 {
			count = int(math.Round(seconds * fps))
		}
	}

	return VideoMetadata{FrameRate: fps, FrameCount: count}
}

// ReadPacket reads the next video packet, freeing any interleaved
// non-video packets. Returns astiav.ErrEof at end of stream.
func (d *Demuxer) ReadPacket() (*astiav.Packet, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, fmt.Errorf("demuxer closed")
	}

	for {
		pkt := astiav.AllocPacket()
		if pkt == nil {
			return nil, fmt.Errorf("failed to allocate packet")
		}

		if err := d.formatCtx.ReadFrame(pkt); err != nil {
			pkt.Free()
			return nil, err
		}

		if pkt.StreamIndex() == d.videoIdx {
			return pkt, nil
		}
		pkt.Free()
	}
}

// Seek positions the demuxer at the keyframe at or before the given
// source frame index. fps is the source frame rate used to convert the
// index to a stream timestamp.
func (d *Demuxer) Seek(index int, fps float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return fmt.Errorf("demuxer closed")
	}
	if fps <= 0 || d.timeBase.Num() == 0 {
		return fmt.Errorf("cannot seek without timing info")
	}

	seconds := float64(index) / fps
	ts := int64(seconds * float64(d.timeBase.Den()) / float64(d.timeBase.Num()))

	if err := d.formatCtx.SeekFrame(d.videoIdx, ts, astiav.NewSeekFlags(astiav.SeekFlagBackward)); err != nil {
		return fmt.Errorf("seek to frame %d: %w", index, err)
	}
	return nil
}

// Close releases all resources
func (d *Demuxer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	d.closed = true

	if d.formatCtx != nil {
		d.formatCtx.CloseInput()
		d.formatCtx.Free()
		d.formatCtx = nil
	}
}
