package audio

import (
	"fmt"
	"io"

	"github.com/gopxl/beep"
	"github.com/lixenwraith/ambience/constant"
)

// Sink binds the graph output to an audio device
// Open starts pulling from src; Suspend stops rendering without tearing down the binding
type Sink interface {
	Name() string
	Open(src beep.Streamer, sr beep.SampleRate) error
	Suspend() error
	Resume() error
	Close() error
}

// HealthReporter is implemented by sinks whose output can go away after Open
type HealthReporter interface {
	Broken() bool
}

// SinkFactory builds the sink for a configuration
type SinkFactory func(cfg *AudioConfig) (Sink, error)

// NewSink returns the sink selected by cfg.Backend
func NewSink(cfg *AudioConfig) (Sink, error) {
	buf := cfg.BufferDuration
	if buf <= 0 {
		buf = constant.AudioBufferDuration
	}

	switch cfg.Backend {
	case BackendAuto:
		return &autoSink{candidates: []Sink{newSpeakerSink(buf), newPipeSink()}}, nil
	case BackendSpeaker:
		return newSpeakerSink(buf), nil
	case BackendOto:
		return newOtoSink(buf), nil
	case BackendPipe:
		return newPipeSink(), nil
	case BackendNull:
		return newNullSink(), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownBackend, cfg.Backend)
	}
}

// autoSink opens the first candidate that works
type autoSink struct {
	candidates []Sink
	active     Sink
}

func (s *autoSink) Name() string {
	if s.active != nil {
		return s.active.Name()
	}
	return BackendAuto.String()
}

func (s *autoSink) Open(src beep.Streamer, sr beep.SampleRate) error {
	var errs []error
	for _, c := range s.candidates {
		if err := c.Open(src, sr); err != nil {
			errs = append(errs, fmt.Errorf("%s: %v", c.Name(), err))
			continue
		}
		s.active = c
		return nil
	}
	return fmt.Errorf("%w: %v", ErrNoAudioBackend, errs)
}

// Broken reports the active candidate's health
func (s *autoSink) Broken() bool {
	if h, ok := s.active.(HealthReporter); ok {
		return h.Broken()
	}
	return false
}

func (s *autoSink) Suspend() error {
	if s.active == nil {
		return ErrSinkNotOpen
	}
	return s.active.Suspend()
}

func (s *autoSink) Resume() error {
	if s.active == nil {
		return ErrSinkNotOpen
	}
	return s.active.Resume()
}

func (s *autoSink) Close() error {
	if s.active == nil {
		return nil
	}
	err := s.active.Close()
	s.active = nil
	return err
}

// nullSink renders in real time into io.Discard, keeping the clock moving without a device
type nullSink struct {
	pump *pump
}

func newNullSink() *nullSink {
	return &nullSink{}
}

func (s *nullSink) Name() string { return BackendNull.String() }

func (s *nullSink) Open(src beep.Streamer, sr beep.SampleRate) error {
	s.pump = newPump(src, io.Discard, sr, constant.AudioPumpInterval)
	s.pump.Start()
	return nil
}

func (s *nullSink) Suspend() error {
	if s.pump == nil {
		return ErrSinkNotOpen
	}
	s.pump.paused.Store(true)
	return nil
}

func (s *nullSink) Resume() error {
	if s.pump == nil {
		return ErrSinkNotOpen
	}
	s.pump.paused.Store(false)
	return nil
}

func (s *nullSink) Close() error {
	if s.pump == nil {
		return nil
	}
	s.pump.signalStop()
	s.pump.wait(constant.AudioDrainTimeout)
	s.pump = nil
	return nil
}
