package player

import (
	"fmt"
	"sync"
	"time"

	"github.com/asticode/go-astiav"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// audioSampleRate is the rate everything is resampled to for playback
const audioSampleRate = 44100

// maxBufferedBytes caps how far the decode pump runs ahead of playback
// (~5 seconds of s16le stereo)
const maxBufferedBytes = audioSampleRate * 4 * 5

var speakerOnce sync.Once

// BeepTransport plays a file's audio track through the beep speaker. It
// owns its own demuxer and decode goroutine and runs on the speaker's
// real-time clock, fully independent of the render loop.
type BeepTransport struct {
	formatCtx *astiav.FormatContext
	codecCtx  *astiav.CodecContext
	swrCtx    *astiav.SoftwareResampleContext
	frame     *astiav.Frame
	audioIdx  int

	streamer *pcmStreamer
	ctrl     *beep.Ctrl

	sampleBuf []byte
	bufMu     sync.Mutex

	stopCh   chan struct{}
	stopOnce sync.Once
	pumpWg   sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// pcmStreamer implements beep.Streamer over the transport's decoded
// sample buffer, producing silence when the buffer runs dry.
type pcmStreamer struct {
	t *BeepTransport
}

func (s *pcmStreamer) Stream(samples [][2]float64) (int, bool) {
	s.t.bufMu.Lock()
	defer s.t.bufMu.Unlock()

	// 4 bytes = 1 stereo s16le sample
	const bytesPerSample = 4
	const maxInt16 = 32767

	for i := range samples {
		if len(s.t.sampleBuf) < bytesPerSample {
			for j := i; j < len(samples); j++ {
				samples[j][0] = 0
				samples[j][1] = 0
			}
			break
		}

		left := int16(s.t.sampleBuf[0]) | int16(s.t.sampleBuf[1])<<8
		right := int16(s.t.sampleBuf[2]) | int16(s.t.sampleBuf[3])<<8
		samples[i][0] = float64(left) / maxInt16
		samples[i][1] = float64(right) / maxInt16

		s.t.sampleBuf = s.t.sampleBuf[bytesPerSample:]
	}

	return len(samples), true
}

func (s *pcmStreamer) Err() error {
	return nil
}

// OpenAudio opens the audio track of the media at path. Returns an error
// when the file carries no decodable audio stream.
func OpenAudio(path string) (*BeepTransport, error) {
	t := &BeepTransport{
		audioIdx:  -1,
		sampleBuf: make([]byte, 0, maxBufferedBytes),
		stopCh:    make(chan struct{}),
	}

	t.formatCtx = astiav.AllocFormatContext()
	if t.formatCtx == nil {
		return nil, fmt.Errorf("failed to allocate format context")
	}

	if err := t.formatCtx.OpenInput(path, nil, nil); err != nil {
		t.formatCtx.Free()
		return nil, fmt.Errorf("failed to open input: %w", err)
	}

	if err := t.formatCtx.FindStreamInfo(nil); err != nil {
		t.Stop()
		return nil, fmt.Errorf("failed to find stream info: %w", err)
	}

	var codecParams *astiav.CodecParameters
	for _, stream := range t.formatCtx.Streams() {
		if stream.CodecParameters().MediaType() == astiav.MediaTypeAudio {
			t.audioIdx = stream.Index()
			codecParams = stream.CodecParameters()
			break
		}
	}
	if t.audioIdx == -1 {
		t.Stop()
		return nil, fmt.Errorf("no audio stream found")
	}

	codec := astiav.FindDecoder(codecParams.CodecID())
	if codec == nil {
		t.Stop()
		return nil, fmt.Errorf("audio codec not found: %s", codecParams.CodecID())
	}

	t.codecCtx = astiav.AllocCodecContext(codec)
	if t.codecCtx == nil {
		t.Stop()
		return nil, fmt.Errorf("failed to allocate audio codec context")
	}

	if err := codecParams.ToCodecContext(t.codecCtx); err != nil {
		t.Stop()
		return nil, fmt.Errorf("failed to copy audio codec params: %w", err)
	}

	if err := t.codecCtx.Open(codec, nil); err != nil {
		t.Stop()
		return nil, fmt.Errorf("failed to open audio codec: %w", err)
	}

	t.frame = astiav.AllocFrame()

	t.swrCtx = astiav.AllocSoftwareResampleContext()
	if t.swrCtx == nil {
		t.Stop()
		return nil, fmt.Errorf("failed to allocate swr context")
	}

	t.streamer = &pcmStreamer{t: t}
	t.ctrl = &beep.Ctrl{Streamer: t.streamer}

	return t, nil
}

// Play starts the decode pump and the speaker. Issued once per session.
func (t *BeepTransport) Play() error {
	var initErr error
	speakerOnce.Do(func() {
		sr := beep.SampleRate(audioSampleRate)
		initErr = speaker.Init(sr, sr.N(50*time.Millisecond))
	})
	if initErr != nil {
		return fmt.Errorf("init speaker: %w", initErr)
	}

	t.pumpWg.Add(1)
	go t.pump()

	speaker.Play(t.ctrl)
	return nil
}

// Stop halts playback and releases all resources. Safe to call more
// than once and after a failed Open.
func (t *BeepTransport) Stop() {
	t.stopOnce.Do(func() {
		close(t.stopCh)
	})
	speaker.Clear()
	t.pumpWg.Wait()

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	t.closed = true

	if t.frame != nil {
		t.frame.Free()
		t.frame = nil
	}
	if t.swrCtx != nil {
		t.swrCtx.Free()
		t.swrCtx = nil
	}
	if t.codecCtx != nil {
		t.codecCtx.Free()
		t.codecCtx = nil
	}
	if t.formatCtx != nil {
		t.formatCtx.CloseInput()
		t.formatCtx.Free()
		t.formatCtx = nil
	}
}

// pump reads and decodes audio packets ahead of the speaker, pausing
// when the sample buffer is full enough.
func (t *BeepTransport) pump() {
	defer t.pumpWg.Done()

	for {
		select {
		case <-t.stopCh:
			return
		default:
		}

		t.bufMu.Lock()
		buffered := len(t.sampleBuf)
		t.bufMu.Unlock()
		if buffered >= maxBufferedBytes {
			select {
			case <-t.stopCh:
				return
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}

		pkt := astiav.AllocPacket()
		if err := t.formatCtx.ReadFrame(pkt); err != nil {
			pkt.Free()
			return
		}

		if pkt.StreamIndex() == t.audioIdx {
			t.decodePacket(pkt)
		}
		pkt.Free()
	}
}

// decodePacket decodes one packet and appends resampled s16le stereo
// samples to the playback buffer.
func (t *BeepTransport) decodePacket(pkt *astiav.Packet) {
	if err := t.codecCtx.SendPacket(pkt); err != nil {
		return
	}

	for {
		if err := t.codecCtx.ReceiveFrame(t.frame); err != nil {
			return
		}

		outFrame := astiav.AllocFrame()
		outFrame.SetSampleFormat(astiav.SampleFormatS16)
		outFrame.SetSampleRate(audioSampleRate)
		outFrame.SetChannelLayout(astiav.ChannelLayoutStereo)
		outFrame.SetNbSamples(t.frame.NbSamples())

		if err := outFrame.AllocBuffer(0); err != nil {
			t.frame.Unref()
			outFrame.Free()
			continue
		}

		if err := t.swrCtx.ConvertFrame(t.frame, outFrame); err != nil {
			// skip frames that fail to resample instead of erroring
			t.frame.Unref()
			outFrame.Free()
			continue
		}

		if data := outFrame.Data(); data != nil {
			byteSize := outFrame.NbSamples() * 2 * 2 // stereo s16
			if plane, err := data.Bytes(0); err == nil && len(plane) >= byteSize {
				t.bufMu.Lock()
				t.sampleBuf = append(t.sampleBuf, plane[:byteSize]...)
				t.bufMu.Unlock()
			}
		}

		t.frame.Unref()
		outFrame.Free()
	}
}
