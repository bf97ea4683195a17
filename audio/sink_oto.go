package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/gopxl/beep"
	"github.com/lixenwraith/ambience/constant"
)

// oto permits a single context per process; it is created on first Open and reused
var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoErr  error
	otoRate beep.SampleRate
)

// otoBufferSplit halves the buffer between the driver and the player, as beep's speaker does
// The player pulls one buffer per read, so its size bounds how far the graph clock jumps
func otoBufferSplit(sr beep.SampleRate, buf time.Duration) (driver time.Duration, playerBytes int) {
	frames := sr.N(buf) / 2
	if frames < 1 {
		frames = 1
	}
	return sr.D(frames), frames * constant.AudioFloatBytesPerFrame
}

func sharedOtoContext(sr beep.SampleRate, buf time.Duration) (*oto.Context, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   int(sr),
			ChannelCount: constant.AudioChannels,
			Format:       oto.FormatFloat32LE,
			BufferSize:   buf,
		}

		ctx, ready, err := oto.NewContext(op)
		if err != nil {
			otoErr = err
			return
		}
		<-ready
		otoCtx = ctx
		otoRate = sr
	})

	if otoErr != nil {
		return nil, otoErr
	}
	if otoRate != sr {
		return nil, fmt.Errorf("oto context fixed at %d Hz, requested %d Hz", otoRate, sr)
	}
	return otoCtx, nil
}

// pcmReader adapts a beep.Streamer to the io.Reader oto pulls float32 LE frames from
type pcmReader struct {
	src beep.Streamer
	buf [][2]float64
}

func (r *pcmReader) Read(p []byte) (int, error) {
	frames := len(p) / constant.AudioFloatBytesPerFrame
	if frames == 0 {
		return 0, nil
	}
	if cap(r.buf) < frames {
		r.buf = make([][2]float64, frames)
	}
	buf := r.buf[:frames]

	n, _ := r.src.Stream(buf)
	floatToFloat32Bytes(buf[:n], p)
	return n * constant.AudioFloatBytesPerFrame, nil
}

// otoSink plays through an oto player reading the graph directly
type otoSink struct {
	mu             sync.Mutex
	bufferDuration time.Duration
	ctx            *oto.Context
	player         *oto.Player
}

func newOtoSink(buf time.Duration) *otoSink {
	return &otoSink{bufferDuration: buf}
}

func (s *otoSink) Name() string { return BackendOto.String() }

func (s *otoSink) Open(src beep.Streamer, sr beep.SampleRate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.player != nil {
		return nil
	}

	driverBuf, playerBytes := otoBufferSplit(sr, s.bufferDuration)
	ctx, err := sharedOtoContext(sr, driverBuf)
	if err != nil {
		return fmt.Errorf("oto context: %w", err)
	}
	if err := ctx.Resume(); err != nil {
		return fmt.Errorf("oto resume: %w", err)
	}

	s.ctx = ctx
	s.player = ctx.NewPlayer(&pcmReader{src: src})
	s.player.SetBufferSize(playerBytes)
	s.player.Play()
	return nil
}

func (s *otoSink) Suspend() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx == nil {
		return ErrSinkNotOpen
	}
	return s.ctx.Suspend()
}

func (s *otoSink) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx == nil {
		return ErrSinkNotOpen
	}
	return s.ctx.Resume()
}

func (s *otoSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.player == nil {
		return nil
	}
	err := s.player.Close()
	s.player = nil
	s.ctx = nil
	return err
}
