package audio

import (
	"errors"
	"log"
	"sync"
	"sync/atomic"

	"github.com/lixenwraith/ambience/service"
)

// ServiceName is the hub name of the audio service
const ServiceName = "audio"

// AudioService wraps Engine as a Service
// Handles graceful degradation when no audio backend is available
type AudioService struct {
	mu       sync.Mutex
	engine   *Engine
	opts     []EngineOption
	logger   *log.Logger
	disabled atomic.Bool
	lastErr  error // why the last Start left audio disabled
}

var (
	_ service.Service   = (*AudioService)(nil)
	_ service.Transport = (*Engine)(nil)
)

// NewService creates a new audio service; opts are forwarded to the engine
func NewService(opts ...EngineOption) *AudioService {
	return &AudioService{opts: opts, logger: log.Default()}
}

// Name implements Service
func (s *AudioService) Name() string {
	return ServiceName
}

// Dependencies implements Service
func (s *AudioService) Dependencies() []string {
	return nil
}

// Init implements Service
// args[0]: *AudioConfig, otherwise configuration is loaded from the environment
func (s *AudioService) Init(args ...any) error {
	cfg := LoadAudioConfig()
	if len(args) > 0 {
		if c, ok := args[0].(*AudioConfig); ok && c != nil {
			cfg = c
		}
	}

	s.mu.Lock()
	s.engine = NewEngine(cfg, s.opts...)
	s.lastErr = nil
	s.mu.Unlock()
	s.disabled.Store(false)
	return nil
}

// Start implements Service
// Acquires the device; sets disabled on failure (no error returned)
// A later Start retries the device unless audio is disabled by configuration
func (s *AudioService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine == nil || errors.Is(s.lastErr, ErrAudioDisabled) {
		return nil
	}

	err := s.engine.Initialize()
	if err != nil && !errors.Is(err, ErrAudioDisabled) {
		s.logger.Printf("audio: disabled: %v", err)
	}
	s.lastErr = err
	s.disabled.Store(err != nil)
	return nil
}

// Err returns the reason audio is disabled, nil while the engine is usable
func (s *AudioService) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Stop implements Service
func (s *AudioService) Stop() error {
	s.mu.Lock()
	eng := s.engine
	s.mu.Unlock()

	if eng == nil {
		return nil
	}
	return eng.Shutdown()
}

// IsDisabled returns true if audio is unavailable
func (s *AudioService) IsDisabled() bool {
	return s.disabled.Load()
}

// Engine returns the underlying Engine (nil before Init)
func (s *AudioService) Engine() *Engine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine
}

// Transport returns the playback control surface, nil if audio is disabled
func (s *AudioService) Transport() service.Transport {
	if s.disabled.Load() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil {
		return nil
	}
	return s.engine
}
