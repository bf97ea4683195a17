package audio

import (
	"fmt"
	"log"
	"math/rand"
	"sync"

	"github.com/gopxl/beep"
	"github.com/lixenwraith/ambience/parameter"
)

// EngineOption customizes an Engine
type EngineOption func(*Engine)

// WithSinkFactory replaces the device binding, used by tests and headless hosts
func WithSinkFactory(f SinkFactory) EngineOption {
	return func(e *Engine) {
		if f != nil {
			e.newSink = f
		}
	}
}

// WithLogger sets the engine and scheduler logger
func WithLogger(l *log.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithRandSource fixes the velocity jitter source, overriding cfg.Seed
func WithRandSource(src rand.Source) EngineOption {
	return func(e *Engine) {
		e.randSrc = src
	}
}

// WithSchedulerTicker replaces the scheduler's wall-clock ticker
func WithSchedulerTicker(fn TickerFunc) EngineOption {
	return func(e *Engine) {
		e.ticker = fn
	}
}

// Status is a point-in-time view for the UI
type Status struct {
	Initialized  bool
	Running      bool // false once the sink reports its output lost
	SinkBroken   bool
	Volume       int
	Backend      string
	Pattern      string
	Tempo        float64
	ClockTime    float64
	Cursor       Cursor
	Position     int    // cursor step within the pattern
	Beats        []bool // IsBeatOne per pattern step
	ActiveVoices int
	Scheduler    SchedulerStats
}

// Engine owns the device graph, the output sink, the drone and the scheduler
// Construct one per session; nothing is shared between engines
type Engine struct {
	mu sync.Mutex

	config  *AudioConfig
	newSink SinkFactory
	logger  *log.Logger
	randSrc rand.Source
	ticker  TickerFunc

	// Live state, nil until Initialize succeeds
	graph     *Graph
	sink      Sink
	synth     *Synth
	drone     *Voice
	scheduler *Scheduler

	running bool
	volume  int // percent
}

// NewEngine creates an uninitialized engine; no device is touched until Initialize
func NewEngine(cfg *AudioConfig, opts ...EngineOption) *Engine {
	if cfg == nil {
		cfg = DefaultAudioConfig()
	}

	e := &Engine{
		config:  cfg,
		newSink: NewSink,
		logger:  log.Default(),
		volume:  ClampVolume(cfg.Volume),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Initialize builds the graph, binds the sink, starts the drone and the scheduler
// Idempotent while an engine is live. A missing or failing device is returned as a soft
// error and logged; the engine stays uninitialized and the caller keeps running
func (e *Engine) Initialize() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.graph != nil {
		return nil
	}

	if !e.config.Enabled {
		return ErrAudioDisabled
	}

	table, err := LookupPattern(e.config.Pattern)
	if err != nil {
		e.logger.Printf("audio: %v, using %s", err, PatternSynthwave)
		table = DefaultPatternTable()
	}

	sink, err := e.newSink(e.config)
	if err != nil {
		e.logger.Printf("audio: sink unavailable: %v (continuing without audio)", err)
		return fmt.Errorf("audio sink: %w", err)
	}

	graph := NewGraph(beep.SampleRate(e.config.SampleRate), float64(e.volume)/100)
	synth := NewSynth(graph, DefaultVoiceConfig())

	drone, err := synth.SpawnDrone(parameter.DroneFrequency, parameter.DroneGain)
	if err != nil {
		graph.Close()
		return err
	}

	if err := sink.Open(graph, graph.SampleRate()); err != nil {
		graph.Close()
		e.logger.Printf("audio: open %s failed: %v (continuing without audio)", sink.Name(), err)
		return fmt.Errorf("open %s: %w", sink.Name(), err)
	}

	opts := []SchedulerOption{WithSchedulerLogger(e.logger), WithTicker(e.ticker)}
	if e.randSrc != nil {
		opts = append(opts, WithRand(e.randSrc))
	} else if e.config.Seed != 0 {
		opts = append(opts, WithRand(rand.NewSource(e.config.Seed)))
	}
	scheduler := NewScheduler(graph, synth, table, e.config.SchedulerConfig(), opts...)
	scheduler.Start()

	e.graph = graph
	e.sink = sink
	e.synth = synth
	e.drone = drone
	e.scheduler = scheduler
	e.running = true

	e.logger.Printf("audio: engine started on %s at %d Hz, pattern %s, %.0f BPM",
		sink.Name(), e.config.SampleRate, table.Name(), e.config.SchedulerConfig().Tempo)
	return nil
}

// Toggle suspends or resumes output, pausing the scheduler in lockstep
// No-op before Initialize
func (e *Engine) Toggle() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.graph == nil {
		return
	}

	if e.running {
		e.scheduler.Pause()
		e.graph.Suspend()
		if err := e.sink.Suspend(); err != nil {
			e.logger.Printf("audio: suspend %s: %v", e.sink.Name(), err)
		}
		e.running = false
		return
	}

	if err := e.sink.Resume(); err != nil {
		e.logger.Printf("audio: resume %s: %v", e.sink.Name(), err)
	}
	e.graph.Resume()
	e.scheduler.Resume()
	e.running = true
}

// SetVolume clamps percent to [0, 100] and sets master gain to percent/100
// Before Initialize the value is stored and applied when the graph is built
func (e *Engine) SetVolume(percent int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.volume = ClampVolume(percent)
	if e.graph != nil {
		e.graph.Master().SetGain(float64(e.volume) / 100)
	}
}

// Volume returns the volume percent
func (e *Engine) Volume() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume
}

// MasterGain returns the linear master gain
func (e *Engine) MasterGain() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.graph == nil {
		return float64(e.volume) / 100
	}
	return e.graph.Master().Gain()
}

// IsRunning returns true while producing sound
func (e *Engine) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running && !e.sinkBroken()
}

// sinkBroken reports a sink whose player or device went away; caller holds mu
func (e *Engine) sinkBroken() bool {
	if h, ok := e.sink.(HealthReporter); ok {
		return h.Broken()
	}
	return false
}

// Initialized reports whether a live graph exists
func (e *Engine) Initialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graph != nil
}

// Shutdown stops the scheduler and releases graph and sink
// The engine can be initialized again afterwards
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.graph == nil {
		return nil
	}

	e.scheduler.Stop()
	err := e.sink.Close()
	e.graph.Close()

	connected, released := e.graph.GetStats()
	e.logger.Printf("audio: engine stopped, %d voices connected, %d released", connected, released)

	e.graph = nil
	e.sink = nil
	e.synth = nil
	e.drone = nil
	e.scheduler = nil
	e.running = false

	if err != nil {
		return fmt.Errorf("close sink: %w", err)
	}
	return nil
}

// Status returns a snapshot of transport and scheduler state
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := Status{
		Initialized: e.graph != nil,
		Running:     e.running,
		Volume:      e.volume,
		Pattern:     e.config.Pattern,
		Tempo:       e.config.SchedulerConfig().Tempo,
	}
	if e.graph == nil {
		return st
	}

	table := e.scheduler.Table()
	st.SinkBroken = e.sinkBroken()
	st.Running = e.running && !st.SinkBroken
	st.Backend = e.sink.Name()
	st.Pattern = table.Name()
	st.ClockTime = e.graph.CurrentTime()
	st.Cursor = e.scheduler.Cursor()
	st.Position = table.StepAt(st.Cursor.StepIndex).Index
	st.Beats = make([]bool, table.Len())
	for i := range st.Beats {
		st.Beats[i] = table.StepAt(i).IsBeatOne
	}
	st.ActiveVoices = e.graph.ActiveVoices()
	st.Scheduler = e.scheduler.Stats()
	return st
}
