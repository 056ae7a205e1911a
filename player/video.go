package player

import (
	"fmt"
	"image"
	"sync"

	"github.com/asticode/go-astiav"
)

// VideoDecoder decodes video packets into RGBA images at source size.
// Scaling to the glyph grid happens later in the transcoder.
type VideoDecoder struct {
	codecCtx  *astiav.CodecContext
	swsCtx    *astiav.SoftwareScaleContext
	frame     *astiav.Frame
	rgbaFrame *astiav.Frame

	width    int
	height   int
	timeBase astiav.Rational

	mu     sync.Mutex
	closed bool
}

// NewVideoDecoder creates a video decoder from codec parameters
func NewVideoDecoder(codecParams *astiav.CodecParameters, timeBase astiav.Rational) (*VideoDecoder, error) {
	v := &VideoDecoder{
		timeBase: timeBase,
		width:    codecParams.Width(),
		height:   codecParams.Height(),
	}

	codec := astiav.FindDecoder(codecParams.CodecID())
	if codec == nil {
		return nil, fmt.Errorf("video codec not found: %s", codecParams.CodecID())
	}

	v.codecCtx = astiav.AllocCodecContext(codec)
	if v.codecCtx == nil {
		return nil, fmt.Errorf("failed to allocate video codec context")
	}

	if err := codecParams.ToCodecContext(v.codecCtx); err != nil {
		v.Close()
		return nil, fmt.Errorf("failed to copy video codec params: %w", err)
	}

	if err := v.codecCtx.Open(codec, nil); err != nil {
		v.Close()
		return nil, fmt.Errorf("failed to open video codec: %w", err)
	}

	v.frame = astiav.AllocFrame()
	v.rgbaFrame = astiav.AllocFrame()

	return v, nil
}

func (v *VideoDecoder) initSwsContext() error {
	var err error
	v.swsCtx, err = astiav.CreateSoftwareScaleContext(
		v.width, v.height, v.codecCtx.PixelFormat(),
		v.width, v.height, astiav.PixelFormatRgba,
		astiav.NewSoftwareScaleContextFlags(astiav.SoftwareScaleContextFlagPoint),
	)
	if err != nil {
		return fmt.Errorf("failed to create sws context: %w", err)
	}

	v.rgbaFrame.SetWidth(v.width)
	v.rgbaFrame.SetHeight(v.height)
	v.rgbaFrame.SetPixelFormat(astiav.PixelFormatRgba)

	if err := v.rgbaFrame.AllocBuffer(1); err != nil {
		return fmt.Errorf("failed to allocate RGBA frame buffer: %w", err)
	}

	return nil
}

// DecodePacket feeds one packet to the decoder. Returns (nil, 0, nil)
// when the decoder needs more input before producing a frame. pkt may be
// nil to drain buffered frames at end of stream.
func (v *VideoDecoder) DecodePacket(pkt *astiav.Packet) (*image.RGBA, float64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return nil, 0, fmt.Errorf("video decoder closed")
	}

	if err := v.codecCtx.SendPacket(pkt); err != nil && err != astiav.ErrEof {
		return nil, 0, fmt.Errorf("failed to send video packet: %w", err)
	}

	if err := v.codecCtx.ReceiveFrame(v.frame); err != nil {
		if err == astiav.ErrEof || err == astiav.ErrEagain {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("failed to receive video frame: %w", err)
	}
	defer v.frame.Unref()

	pts := float64(v.frame.Pts()) * float64(v.timeBase.Num()) / float64(v.timeBase.Den())

	if v.swsCtx == nil {
		if err := v.initSwsContext(); err != nil {
			return nil, 0, err
		}
	}

	if err := v.swsCtx.ScaleFrame(v.frame, v.rgbaFrame); err != nil {
		return nil, 0, fmt.Errorf("failed to scale frame: %w", err)
	}

	data, err := v.rgbaFrame.Data().Bytes(1)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get RGBA bytes: %w", err)
	}

	// Copy out: the frame buffer is reused by the next decode
	pix := make([]byte, len(data))
	copy(pix, data)

	img := &image.RGBA{
		Pix:    pix,
		Stride: 4 * v.width,
		Rect:   image.Rect(0, 0, v.width, v.height),
	}
	return img, pts, nil
}

// Flush discards buffered decoder state after a seek
func (v *VideoDecoder) Flush() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.closed {
		v.codecCtx.FlushBuffers()
	}
}

// Close releases all resources
func (v *VideoDecoder) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return
	}
	v.closed = true

	if v.frame != nil {
		v.frame.Free()
		v.frame = nil
	}
	if v.rgbaFrame != nil {
		v.rgbaFrame.Free()
		v.rgbaFrame = nil
	}
	if v.swsCtx != nil {
		v.swsCtx.Free()
		v.swsCtx = nil
	}
	if v.codecCtx != nil {
		v.codecCtx.Free()
		v.codecCtx = nil
	}
}
