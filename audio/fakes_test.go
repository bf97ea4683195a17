package audio

import (
	"errors"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
)

var quietLogger = log.New(io.Discard, "", 0)

// fakeClock is a settable audio clock
type fakeClock struct {
	mu  sync.Mutex
	now float64
}

func (c *fakeClock) CurrentTime() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t float64) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type spawnCall struct {
	freq, start, dur, vel float64
}

// fakeSpawner records Spawn calls and fails on demand
type fakeSpawner struct {
	mu    sync.Mutex
	calls []spawnCall
	fail  bool
}

func (s *fakeSpawner) Spawn(frequency, startTime, duration, velocity float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return ErrGraphClosed
	}
	s.calls = append(s.calls, spawnCall{frequency, startTime, duration, velocity})
	return nil
}

func (s *fakeSpawner) SetFail(fail bool) {
	s.mu.Lock()
	s.fail = fail
	s.mu.Unlock()
}

func (s *fakeSpawner) Calls() []spawnCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]spawnCall, len(s.calls))
	copy(out, s.calls)
	return out
}

// chanTicker fires only when the test sends on ch
type chanTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func (t *chanTicker) C() <-chan time.Time { return t.ch }
func (t *chanTicker) Stop()               { t.stopped.Store(true) }

func manualTickerFunc(time.Duration) Ticker { return manualTicker{} }

// fakeSink records lifecycle calls without touching a device
type fakeSink struct {
	mu       sync.Mutex
	src      beep.Streamer
	openErr  error
	opens    int
	suspends int
	resumes  int
	closes   int
	lost     atomic.Bool
}

func (s *fakeSink) Name() string { return "fake" }

func (s *fakeSink) Broken() bool { return s.lost.Load() }

func (s *fakeSink) Open(src beep.Streamer, sr beep.SampleRate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.openErr != nil {
		return s.openErr
	}
	s.src = src
	s.opens++
	return nil
}

func (s *fakeSink) Suspend() error {
	s.mu.Lock()
	s.suspends++
	s.mu.Unlock()
	return nil
}

func (s *fakeSink) Resume() error {
	s.mu.Lock()
	s.resumes++
	s.mu.Unlock()
	return nil
}

func (s *fakeSink) Close() error {
	s.mu.Lock()
	s.closes++
	s.mu.Unlock()
	return nil
}

// pull renders n frames from the opened source, standing in for a device callback
func (s *fakeSink) pull(n int) [][2]float64 {
	s.mu.Lock()
	src := s.src
	s.mu.Unlock()

	buf := make([][2]float64, n)
	if src != nil {
		src.Stream(buf)
	}
	return buf
}

var errFakeDevice = errors.New("fake device unavailable")

// syncBuffer is a goroutine-safe writer counting bytes
type syncBuffer struct {
	mu  sync.Mutex
	n   int
	err error
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return 0, b.err
	}
	b.n += len(p)
	return len(p), nil
}

func (b *syncBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.n
}
