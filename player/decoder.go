package player

import (
	"fmt"
	"image"
	"io"

	"github.com/asticode/go-astiav"
)

// FrameDecoder combines the demuxer and video decoder into the decode
// boundary the frame sources consume: sequential reads for the setup
// passes and seeking reads for live playback.
type FrameDecoder struct {
	demux *Demuxer
	dec   *VideoDecoder
	meta  VideoMetadata

	draining bool
	closed   bool
}

// OpenVideo opens the media at path for frame decoding
func OpenVideo(path string) (*FrameDecoder, error) {
	demux, err := NewDemuxer(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open media: %w", err)
	}

	dec, err := NewVideoDecoder(demux.CodecParameters(), demux.TimeBase())
	if err != nil {
		demux.Close()
		return nil, fmt.Errorf("failed to create video decoder: %w", err)
	}

	return &FrameDecoder{
		demux: demux,
		dec:   dec,
		meta:  demux.Metadata(),
	}, nil
}

// Metadata reports the source frame rate and frame count
func (f *FrameDecoder) Metadata() VideoMetadata {
	return f.meta
}

// ReadNext returns the next decodable frame, io.EOF at end of stream.
// Buffered frames are drained after the demuxer runs out of packets.
func (f *FrameDecoder) ReadNext() (image.Image, error) {
	if f.closed {
		return nil, fmt.Errorf("decoder closed")
	}

	for {
		var pkt *astiav.Packet
		if !f.draining {
			var err error
			pkt, err = f.demux.ReadPacket()
			if err == astiav.ErrEof {
				f.draining = true
			} else if err != nil {
				return nil, err
			}
		}

		img, _, err := f.dec.DecodePacket(pkt)
		if pkt != nil {
			pkt.Free()
		}
		if err != nil {
			return nil, err
		}
		if img != nil {
			return img, nil
		}
		if f.draining {
			return nil, io.EOF
		}
	}
}

// SeekRead decodes the frame at the given source index. Reads are not
// sequential: adaptive skip jumps indices, so every call seeks to the
// keyframe at or before the target and decodes forward to it.
func (f *FrameDecoder) SeekRead(index int) (image.Image, error) {
	if f.closed {
		return nil, fmt.Errorf("decoder closed")
	}
	if f.meta.FrameRate <= 0 {
		return nil, fmt.Errorf("unknown frame rate")
	}

	if err := f.demux.Seek(index, f.meta.FrameRate); err != nil {
		return nil, err
	}
	f.dec.Flush()
	f.draining = false

	target := float64(index) / f.meta.FrameRate
	half := 0.5 / f.meta.FrameRate

	// keyframes can sit well before the target; cap the forward scan
	// so a broken stream cannot stall the render loop
	const maxScan = 1024

	for scanned := 0; scanned < maxScan; scanned++ {
		pkt, err := f.demux.ReadPacket()
		if err == astiav.ErrEof {
			return nil, io.EOF
		}
		if err != nil {
			return nil, err
		}

		img, pts, err := f.dec.DecodePacket(pkt)
		pkt.Free()
		if err != nil {
			return nil, err
		}
		if img == nil {
			continue
		}
		// streams without timestamps: take the first decoded frame
		if pts < 0 || pts >= target-half {
			return img, nil
		}
	}

	return nil, fmt.Errorf("no decodable frame near index %d", index)
}

// Close releases the decode session
func (f *FrameDecoder) Close() {
	if f.closed {
		return
	}
	f.closed = true

	if f.dec != nil {
		f.dec.Close()
		f.dec = nil
	}
	if f.demux != nil {
		f.demux.Close()
		f.demux = nil
	}
}
