package audio

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
	"github.com/lixenwraith/ambience/constant"
	"github.com/lixenwraith/ambience/core"
)

// pump pulls fixed-size chunks from a streamer on a ticker and writes encoded PCM
// Drives sinks that have no device callback of their own (pipe, null)
type pump struct {
	src        beep.Streamer
	out        io.Writer
	interval   time.Duration
	frames     int
	frameBytes int
	encode     func([][2]float64, []byte)

	stopChan chan struct{}
	stopped  atomic.Bool
	paused   atomic.Bool

	// Error signaling
	errChan chan error
	done    chan struct{} // closed when loop returns
}

func newPump(src beep.Streamer, out io.Writer, sr beep.SampleRate, interval time.Duration) *pump {
	return &pump{
		src:        src,
		out:        out,
		interval:   interval,
		frames:     sr.N(interval),
		frameBytes: constant.AudioBytesPerFrame,
		encode:     floatToBytes,
		stopChan:   make(chan struct{}),
		errChan:    make(chan error, 1),
		done:       make(chan struct{}),
	}
}

// Start begins the pump loop
func (p *pump) Start() {
	core.Go(p.loop)
}

// signalStop asks the loop to exit without waiting
func (p *pump) signalStop() {
	if p.stopped.CompareAndSwap(false, true) {
		close(p.stopChan)
	}
}

// wait blocks until the loop exits or timeout elapses
// Returns false on timeout, leaving the loop to exit once its Write returns
func (p *pump) wait(timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-p.done:
		return true
	case <-timer.C:
		return false
	}
}

// Errors returns channel for write errors
func (p *pump) Errors() <-chan error {
	return p.errChan
}

func (p *pump) loop() {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	buf := make([][2]float64, p.frames)
	out := make([]byte, p.frames*p.frameBytes)

	for {
		select {
		case <-p.stopChan:
			return

		case <-ticker.C:
			if p.paused.Load() {
				continue
			}

			n, _ := p.src.Stream(buf)
			p.encode(buf[:n], out)

			if _, err := p.out.Write(out[:n*p.frameBytes]); err != nil {
				select {
				case p.errChan <- fmt.Errorf("%w: %v", ErrPipeClosed, err):
				default:
				}
				return
			}
		}
	}
}
