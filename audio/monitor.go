package audio

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/lixenwraith/ambience/constant"
	"github.com/lixenwraith/ambience/core"
	"github.com/lixenwraith/ambience/service"
)

// MonitorName is the hub name of the monitor service
const MonitorName = "monitor"

// MonitorOption customizes a MonitorService
type MonitorOption func(*MonitorService)

// WithMonitorLogger sets the monitor logger
func WithMonitorLogger(l *log.Logger) MonitorOption {
	return func(m *MonitorService) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithMonitorTicker replaces the wall-clock ticker
func WithMonitorTicker(fn TickerFunc) MonitorOption {
	return func(m *MonitorService) {
		if fn != nil {
			m.newTicker = fn
		}
	}
}

// MonitorService samples the audio engine periodically and logs playback health:
// a lost output, failed voice spawns, and a progress line while playing
type MonitorService struct {
	audio     *AudioService
	interval  time.Duration
	logger    *log.Logger
	newTicker TickerFunc

	mu       sync.Mutex
	stopChan chan struct{}
	wg       sync.WaitGroup

	lostReported bool
	lastFailed   uint64
}

var _ service.Service = (*MonitorService)(nil)

// NewMonitorService watches the engine owned by audio
func NewMonitorService(audio *AudioService, opts ...MonitorOption) *MonitorService {
	m := &MonitorService{
		audio:     audio,
		interval:  constant.AudioMonitorInterval,
		logger:    log.Default(),
		newTicker: NewTimeTicker,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name implements Service
func (m *MonitorService) Name() string {
	return MonitorName
}

// Dependencies implements Service
func (m *MonitorService) Dependencies() []string {
	return []string{ServiceName}
}

// Init implements Service
func (m *MonitorService) Init(args ...any) error {
	if m.audio == nil {
		return errors.New("monitor: no audio service")
	}
	return nil
}

// Start implements Service; idempotent while running
func (m *MonitorService) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopChan != nil {
		return nil
	}
	m.stopChan = make(chan struct{})

	ticker := m.newTicker(m.interval)
	stop := m.stopChan
	m.wg.Add(1)
	core.Go(func() {
		defer m.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C():
				m.Check()
			}
		}
	})
	return nil
}

// Stop implements Service
func (m *MonitorService) Stop() error {
	m.mu.Lock()
	stop := m.stopChan
	m.stopChan = nil
	m.mu.Unlock()

	if stop == nil {
		return nil
	}
	close(stop)
	m.wg.Wait()
	return nil
}

// Check samples the engine once and logs what changed since the previous sample
func (m *MonitorService) Check() Status {
	eng := m.audio.Engine()
	if eng == nil {
		return Status{}
	}
	st := eng.Status()

	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case st.SinkBroken && !m.lostReported:
		m.lostReported = true
		m.logger.Printf("audio: output %s lost at %.2fs", st.Backend, st.ClockTime)
	case !st.SinkBroken:
		m.lostReported = false
	}

	// Counters restart with each engine initialization
	if st.Scheduler.Failed < m.lastFailed {
		m.lastFailed = 0
	}
	if n := st.Scheduler.Failed - m.lastFailed; n > 0 {
		m.logger.Printf("audio: %d voices failed to spawn", n)
	}
	m.lastFailed = st.Scheduler.Failed

	if st.Running {
		m.logger.Printf("audio: %.1fs on %s, step %d, %d voices", st.ClockTime, st.Backend, st.Position, st.ActiveVoices)
	}
	return st
}
