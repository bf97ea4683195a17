package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

// speakerDevice is beep's package-level speaker
// speaker.Init succeeds once per process and speaker.Close keeps the oto context, so the
// device is initialized on first Open and sinks only add and clear streamers afterwards
type speakerDevice struct {
	once sync.Once
	err  error
	rate beep.SampleRate

	init    func(sr beep.SampleRate, bufferSize int) error
	play    func(s ...beep.Streamer)
	clear   func()
	suspend func() error
	resume  func() error
}

var defaultSpeaker = &speakerDevice{
	init:    speaker.Init,
	play:    speaker.Play,
	clear:   speaker.Clear,
	suspend: speaker.Suspend,
	resume:  speaker.Resume,
}

// acquire initializes the speaker on first use; later calls must ask for the same rate
func (d *speakerDevice) acquire(sr beep.SampleRate, bufferSize int) error {
	d.once.Do(func() {
		d.err = d.init(sr, bufferSize)
		d.rate = sr
	})
	if d.err != nil {
		return d.err
	}
	if d.rate != sr {
		return fmt.Errorf("speaker fixed at %d Hz, requested %d Hz", d.rate, sr)
	}
	return nil
}

// speakerSink plays through beep's speaker package
type speakerSink struct {
	mu             sync.Mutex
	bufferDuration time.Duration
	device         *speakerDevice
	open           bool
	suspended      bool
}

func newSpeakerSink(buf time.Duration) *speakerSink {
	return &speakerSink{bufferDuration: buf, device: defaultSpeaker}
}

func (s *speakerSink) Name() string { return BackendSpeaker.String() }

// Open initializes the speaker if needed and adds the graph to its mixer
func (s *speakerSink) Open(src beep.Streamer, sr beep.SampleRate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.open {
		return nil
	}

	if err := s.device.acquire(sr, sr.N(s.bufferDuration)); err != nil {
		return fmt.Errorf("speaker init: %w", err)
	}

	s.device.play(src)
	s.open = true
	return nil
}

func (s *speakerSink) Suspend() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return ErrSinkNotOpen
	}
	if err := s.device.suspend(); err != nil {
		return err
	}
	s.suspended = true
	return nil
}

func (s *speakerSink) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return ErrSinkNotOpen
	}
	if err := s.device.resume(); err != nil {
		return err
	}
	s.suspended = false
	return nil
}

// Close detaches the graph from the speaker mixer; the device stays initialized for the
// next Open. A suspended device is resumed so a later engine is audible
func (s *speakerSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return nil
	}
	s.device.clear()
	s.open = false

	if s.suspended {
		s.suspended = false
		if err := s.device.resume(); err != nil {
			return fmt.Errorf("speaker resume: %w", err)
		}
	}
	return nil
}
