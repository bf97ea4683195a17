package audio

import (
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/lixenwraith/ambience/core"
	"github.com/lixenwraith/ambience/parameter"
)

// Clock is a sample-accurate monotonic time source in seconds
type Clock interface {
	CurrentTime() float64
}

// Ticker delivers coarse periodic ticks
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc constructs a Ticker firing every d
type TickerFunc func(d time.Duration) Ticker

type timeTicker struct {
	t *time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTimeTicker wraps time.Ticker
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// SchedulerState is the scheduler lifecycle phase
type SchedulerState int

const (
	SchedulerIdle SchedulerState = iota
	SchedulerRunning
	SchedulerPaused
	SchedulerStopped
)

func (s SchedulerState) String() string {
	switch s {
	case SchedulerIdle:
		return "idle"
	case SchedulerRunning:
		return "running"
	case SchedulerPaused:
		return "paused"
	case SchedulerStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Cursor is the scheduler position
// NextStepTime never decreases; it moves by exactly one step duration per dispatched step
type Cursor struct {
	NextStepTime float64 // audio clock seconds
	StepIndex    int     // steps dispatched so far, wrapped by the pattern table on lookup
}

// SchedulerConfig holds tempo, look-ahead and note shaping
type SchedulerConfig struct {
	Tempo        float64 // BPM
	Lookahead    time.Duration
	TickInterval time.Duration

	NoteDuration   float64 // seconds
	VelocityBase   float64
	VelocityJitter float64

	BassDuration float64
	BassVelocity float64
	BassPitchDiv float64
}

// DefaultSchedulerConfig returns 120 BPM eighth notes with 100ms look-ahead on a 25ms tick
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Tempo:          parameter.DefaultBPM,
		Lookahead:      parameter.SchedulerLookahead,
		TickInterval:   parameter.SchedulerTickInterval,
		NoteDuration:   parameter.NoteDuration,
		VelocityBase:   parameter.NoteVelocityBase,
		VelocityJitter: parameter.NoteVelocityJitter,
		BassDuration:   parameter.BassDuration,
		BassVelocity:   parameter.BassVelocity,
		BassPitchDiv:   parameter.BassPitchDiv,
	}
}

// SchedulerStats counts dispatch outcomes
type SchedulerStats struct {
	Steps  uint64 // steps consumed from the pattern
	Voices uint64 // voices spawned successfully
	Failed uint64 // spawns that returned an error
}

// SchedulerOption customizes a Scheduler
type SchedulerOption func(*Scheduler)

// WithRand sets the velocity jitter source
func WithRand(src rand.Source) SchedulerOption {
	return func(s *Scheduler) {
		s.rng = rand.New(src)
	}
}

// WithSchedulerLogger sets the logger for skipped steps
func WithSchedulerLogger(l *log.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTicker replaces the wall-clock ticker
func WithTicker(fn TickerFunc) SchedulerOption {
	return func(s *Scheduler) {
		if fn != nil {
			s.newTicker = fn
		}
	}
}

// Scheduler is the look-ahead note dispatcher
// A coarse tick decides which steps are due; each note is stamped with the audio clock
// so host timer jitter never reaches playback timing
type Scheduler struct {
	mu sync.Mutex

	clock Clock
	synth Spawner
	table *PatternTable
	cfg   SchedulerConfig

	stepDuration float64
	lookahead    float64

	rng       *rand.Rand
	logger    *log.Logger
	newTicker TickerFunc

	cursor Cursor
	state  SchedulerState
	stats  SchedulerStats

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewScheduler creates an idle scheduler reading clock and dispatching to synth
func NewScheduler(clock Clock, synth Spawner, table *PatternTable, cfg SchedulerConfig, opts ...SchedulerOption) *Scheduler {
	if cfg.Tempo < parameter.MinBPM {
		cfg.Tempo = parameter.MinBPM
	} else if cfg.Tempo > parameter.MaxBPM {
		cfg.Tempo = parameter.MaxBPM
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = parameter.SchedulerTickInterval
	}
	if cfg.BassPitchDiv <= 0 {
		cfg.BassPitchDiv = parameter.BassPitchDiv
	}
	if table == nil {
		table = DefaultPatternTable()
	}

	s := &Scheduler{
		clock:        clock,
		synth:        synth,
		table:        table,
		cfg:          cfg,
		stepDuration: parameter.StepDuration(cfg.Tempo),
		lookahead:    cfg.Lookahead.Seconds(),
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:       log.Default(),
		newTicker:    NewTimeTicker,
		stopChan:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StepDuration returns seconds per step
func (s *Scheduler) StepDuration() float64 {
	return s.stepDuration
}

// Table returns the pattern being played
func (s *Scheduler) Table() *PatternTable {
	return s.table
}

// Start anchors the cursor at the current audio time and launches the tick loop
// Only valid from Idle
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != SchedulerIdle {
		return
	}
	s.cursor.NextStepTime = s.clock.CurrentTime()
	s.state = SchedulerRunning

	ticker := s.newTicker(s.cfg.TickInterval)
	s.wg.Add(1)
	core.Go(func() { s.loop(ticker) })
}

// loop runs Tick on every ticker fire until Stop
func (s *Scheduler) loop(ticker Ticker) {
	defer s.wg.Done()
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C():
			s.Tick()
		}
	}
}

// Tick dispatches every step whose start falls before now + lookahead
// Returns the number of steps dispatched; no-op unless running
func (s *Scheduler) Tick() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != SchedulerRunning {
		return 0
	}

	horizon := s.clock.CurrentTime() + s.lookahead
	n := 0
	for s.cursor.NextStepTime < horizon {
		s.dispatch(s.cursor.StepIndex, s.cursor.NextStepTime)
		s.cursor.NextStepTime += s.stepDuration
		s.cursor.StepIndex++
		s.stats.Steps++
		n++
	}
	return n
}

// dispatch spawns the melodic voice and, on beat one, the bass hit
// Failures are logged and counted; the caller advances the cursor regardless
func (s *Scheduler) dispatch(index int, at float64) {
	step := s.table.StepAt(index)

	vel := s.cfg.VelocityBase + s.rng.Float64()*s.cfg.VelocityJitter
	s.spawn(index, step.Frequency, at, s.cfg.NoteDuration, vel)

	if step.IsBeatOne {
		s.spawn(index, step.Frequency/s.cfg.BassPitchDiv, at, s.cfg.BassDuration, s.cfg.BassVelocity)
	}
}

func (s *Scheduler) spawn(index int, freq, at, dur, vel float64) {
	if err := s.synth.Spawn(freq, at, dur, vel); err != nil {
		s.stats.Failed++
		s.logger.Printf("scheduler: step %d at %.3fs skipped: %v", index, at, err)
		return
	}
	s.stats.Voices++
}

// Pause holds the tick loop without losing the cursor
func (s *Scheduler) Pause() {
	s.mu.Lock()
	if s.state == SchedulerRunning {
		s.state = SchedulerPaused
	}
	s.mu.Unlock()
}

// Resume continues from the held cursor
func (s *Scheduler) Resume() {
	s.mu.Lock()
	if s.state == SchedulerPaused {
		s.state = SchedulerRunning
	}
	s.mu.Unlock()
}

// Stop halts the tick loop; terminal
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.state = SchedulerStopped
		s.mu.Unlock()

		close(s.stopChan)
		s.wg.Wait()
	})
}

// State returns the lifecycle phase
func (s *Scheduler) State() SchedulerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsRunning reports whether ticks dispatch notes
func (s *Scheduler) IsRunning() bool {
	return s.State() == SchedulerRunning
}

// Cursor returns the current position
func (s *Scheduler) Cursor() Cursor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Stats returns dispatch counters
func (s *Scheduler) Stats() SchedulerStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
