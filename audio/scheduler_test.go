package audio

import (
	"math/rand"
	"testing"
	"time"
)

func newTestScheduler(clock Clock, sp Spawner, cfg SchedulerConfig, seed int64) *Scheduler {
	return NewScheduler(clock, sp, DefaultPatternTable(), cfg,
		WithRand(rand.NewSource(seed)),
		WithSchedulerLogger(quietLogger),
		WithTicker(manualTickerFunc),
	)
}

// TestSchedulerFirstTick verifies step 0 is dispatched alone on the first tick
func TestSchedulerFirstTick(t *testing.T) {
	clock := &fakeClock{}
	sp := &fakeSpawner{}
	s := newTestScheduler(clock, sp, DefaultSchedulerConfig(), 1)
	defer s.Stop()

	s.Start()
	clock.Set(0.025)

	if n := s.Tick(); n != 1 {
		t.Fatalf("Expected 1 step dispatched, got %d", n)
	}

	cur := s.Cursor()
	if cur.NextStepTime != 0.25 || cur.StepIndex != 1 {
		t.Errorf("Expected cursor {0.25 1}, got %+v", cur)
	}

	calls := sp.Calls()
	if len(calls) != 2 {
		t.Fatalf("Expected melodic and bass voices, got %d calls", len(calls))
	}

	step0 := DefaultPatternTable().StepAt(0)
	melodic, bass := calls[0], calls[1]
	if melodic.freq != step0.Frequency || melodic.start != 0 || melodic.dur != 0.3 {
		t.Errorf("Unexpected melodic voice %+v", melodic)
	}
	if melodic.vel < 0.1 || melodic.vel >= 0.15 {
		t.Errorf("Expected velocity in [0.1, 0.15), got %f", melodic.vel)
	}
	if bass.freq != step0.Frequency/2 || bass.start != 0 || bass.dur != 0.4 || bass.vel != 0.2 {
		t.Errorf("Unexpected bass voice %+v", bass)
	}

	// Same clock, nothing new is due
	if n := s.Tick(); n != 0 {
		t.Errorf("Expected no dispatch on repeated tick, got %d", n)
	}
}

// TestSchedulerCursorAdvance verifies each step moves the cursor by one step duration
func TestSchedulerCursorAdvance(t *testing.T) {
	clock := &fakeClock{}
	sp := &fakeSpawner{}
	s := newTestScheduler(clock, sp, DefaultSchedulerConfig(), 1)
	defer s.Stop()

	s.Start()
	step := s.StepDuration()
	if step != 0.25 {
		t.Fatalf("Expected step duration 0.25 at 120 BPM, got %f", step)
	}

	prev := s.Cursor()
	for i := 1; i <= 200; i++ {
		clock.Set(float64(i) * 0.025)
		n := s.Tick()
		cur := s.Cursor()

		if cur.StepIndex != prev.StepIndex+n {
			t.Fatalf("tick %d: index %d after %d steps from %d", i, cur.StepIndex, n, prev.StepIndex)
		}
		if want := prev.NextStepTime + float64(n)*step; cur.NextStepTime != want {
			t.Fatalf("tick %d: expected next step %f, got %f", i, want, cur.NextStepTime)
		}
		if cur.NextStepTime < prev.NextStepTime {
			t.Fatalf("tick %d: cursor moved backwards", i)
		}
		prev = cur
	}

	// 5.0s + 0.1 lookahead covers steps at 0.0 .. 5.0
	if prev.StepIndex != 21 {
		t.Errorf("Expected 21 steps by 5s, got %d", prev.StepIndex)
	}
}

// TestSchedulerLoopWraps verifies step 16 lands at 4.0s and repeats step 0
func TestSchedulerLoopWraps(t *testing.T) {
	clock := &fakeClock{}
	sp := &fakeSpawner{}
	s := newTestScheduler(clock, sp, DefaultSchedulerConfig(), 1)
	defer s.Stop()

	s.Start()
	for i := 1; i <= 200; i++ {
		clock.Set(float64(i) * 0.025)
		s.Tick()
	}

	step0 := DefaultPatternTable().StepAt(0)
	var melodic, bass bool
	for _, c := range sp.Calls() {
		if c.start != 4.0 {
			continue
		}
		switch c.freq {
		case step0.Frequency:
			melodic = true
		case step0.Frequency / 2:
			bass = true
		}
	}
	if !melodic {
		t.Error("Expected step 0 melody repeated at 4.0s")
	}
	if !bass {
		t.Error("Expected beat-one bass at 4.0s")
	}
}

// TestSchedulerBassOnlyOnBeatOne verifies bass hits follow IsBeatOne
func TestSchedulerBassOnlyOnBeatOne(t *testing.T) {
	clock := &fakeClock{}
	sp := &fakeSpawner{}
	s := newTestScheduler(clock, sp, DefaultSchedulerConfig(), 1)
	defer s.Stop()

	s.Start()
	clock.Set(3.9) // steps 0..15
	if n := s.Tick(); n != 16 {
		t.Fatalf("Expected 16 steps, got %d", n)
	}

	bass := 0
	for _, c := range sp.Calls() {
		if c.dur == 0.4 {
			bass++
		}
	}
	if bass != 4 {
		t.Errorf("Expected 4 bass hits per loop, got %d", bass)
	}
	if len(sp.Calls()) != 20 {
		t.Errorf("Expected 20 voices per loop, got %d", len(sp.Calls()))
	}
}

// TestSchedulerSpawnFailure verifies failures are skipped without stalling the cursor
func TestSchedulerSpawnFailure(t *testing.T) {
	clock := &fakeClock{}
	sp := &fakeSpawner{fail: true}
	s := newTestScheduler(clock, sp, DefaultSchedulerConfig(), 1)
	defer s.Stop()

	s.Start()
	clock.Set(0.025)
	if n := s.Tick(); n != 1 {
		t.Fatalf("Expected step dispatched despite failure, got %d", n)
	}

	st := s.Stats()
	if st.Failed != 2 || st.Voices != 0 {
		t.Errorf("Expected 2 failed, 0 voices, got %+v", st)
	}

	sp.SetFail(false)
	clock.Set(0.2)
	if n := s.Tick(); n != 1 {
		t.Fatalf("Expected next step after recovery, got %d", n)
	}

	cur := s.Cursor()
	if cur.StepIndex != 2 || cur.NextStepTime != 0.5 {
		t.Errorf("Expected cursor {0.5 2}, got %+v", cur)
	}
	if st := s.Stats(); st.Voices != 1 || st.Steps != 2 {
		t.Errorf("Expected 1 voice over 2 steps, got %+v", st)
	}
}

// TestSchedulerPauseResume verifies paused ticks dispatch nothing and the cursor holds
func TestSchedulerPauseResume(t *testing.T) {
	clock := &fakeClock{}
	sp := &fakeSpawner{}
	s := newTestScheduler(clock, sp, DefaultSchedulerConfig(), 1)
	defer s.Stop()

	s.Start()
	clock.Set(0.025)
	s.Tick()

	s.Pause()
	if s.State() != SchedulerPaused {
		t.Fatalf("Expected paused, got %s", s.State())
	}
	held := s.Cursor()
	clock.Set(1.0)
	if n := s.Tick(); n != 0 {
		t.Errorf("Expected no dispatch while paused, got %d", n)
	}
	if s.Cursor() != held {
		t.Errorf("Expected cursor held at %+v, got %+v", held, s.Cursor())
	}

	s.Resume()
	if !s.IsRunning() {
		t.Fatal("Expected running after Resume")
	}
	if n := s.Tick(); n == 0 {
		t.Error("Expected dispatch after Resume")
	}
}

// TestSchedulerStop verifies Stop is terminal and idempotent
func TestSchedulerStop(t *testing.T) {
	clock := &fakeClock{}
	s := newTestScheduler(clock, &fakeSpawner{}, DefaultSchedulerConfig(), 1)

	s.Start()
	s.Stop()
	s.Stop()

	if s.State() != SchedulerStopped {
		t.Errorf("Expected stopped, got %s", s.State())
	}
	clock.Set(1.0)
	if n := s.Tick(); n != 0 {
		t.Errorf("Expected no dispatch after Stop, got %d", n)
	}
	s.Resume()
	if s.IsRunning() {
		t.Error("Expected Resume to be ignored after Stop")
	}
}

// TestSchedulerStartOnce verifies Start only anchors from Idle
func TestSchedulerStartOnce(t *testing.T) {
	clock := &fakeClock{now: 1.5}
	s := newTestScheduler(clock, &fakeSpawner{}, DefaultSchedulerConfig(), 1)
	defer s.Stop()

	if s.State() != SchedulerIdle {
		t.Fatalf("Expected idle, got %s", s.State())
	}
	if n := s.Tick(); n != 0 {
		t.Errorf("Expected no dispatch before Start, got %d", n)
	}

	s.Start()
	if c := s.Cursor(); c.NextStepTime != 1.5 {
		t.Errorf("Expected cursor anchored at 1.5, got %f", c.NextStepTime)
	}

	clock.Set(3)
	s.Start()
	if c := s.Cursor(); c.NextStepTime != 1.5 {
		t.Errorf("Expected second Start ignored, got %f", c.NextStepTime)
	}
}

// TestSchedulerSeededVelocity verifies a fixed seed reproduces velocities
func TestSchedulerSeededVelocity(t *testing.T) {
	run := func() []float64 {
		clock := &fakeClock{}
		sp := &fakeSpawner{}
		s := newTestScheduler(clock, sp, DefaultSchedulerConfig(), 42)
		defer s.Stop()

		s.Start()
		clock.Set(2)
		s.Tick()

		var vels []float64
		for _, c := range sp.Calls() {
			vels = append(vels, c.vel)
		}
		return vels
	}

	a, b := run(), run()
	if len(a) == 0 || len(a) != len(b) {
		t.Fatalf("Expected equal non-empty runs, got %d and %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("voice %d: velocity %f != %f", i, a[i], b[i])
		}
	}
}

// TestSchedulerTempo verifies step duration and tempo clamping
func TestSchedulerTempo(t *testing.T) {
	tests := []struct {
		tempo float64
		want  float64
	}{
		{120, 0.25},
		{60, 0.5},
		{1000, 0.125}, // clamped to 240
		{10, 0.75},    // clamped to 40
	}
	for _, tt := range tests {
		cfg := DefaultSchedulerConfig()
		cfg.Tempo = tt.tempo
		s := NewScheduler(&fakeClock{}, &fakeSpawner{}, nil, cfg)
		if got := s.StepDuration(); got != tt.want {
			t.Errorf("tempo %.0f: expected %f, got %f", tt.tempo, tt.want, got)
		}
		if s.Table() == nil {
			t.Error("Expected default table for nil")
		}
	}
}

// TestSchedulerTickLoop verifies the ticker drives Tick and is stopped on Stop
func TestSchedulerTickLoop(t *testing.T) {
	clock := &fakeClock{now: 0.025}
	sp := &fakeSpawner{}
	tk := &chanTicker{ch: make(chan time.Time)}

	s := NewScheduler(clock, sp, nil, DefaultSchedulerConfig(),
		WithSchedulerLogger(quietLogger),
		WithTicker(func(time.Duration) Ticker { return tk }),
	)
	s.Start()

	// The loop is single-threaded: the second send completes only after the first Tick returns
	tk.ch <- time.Now()
	tk.ch <- time.Now()

	if st := s.Stats(); st.Steps == 0 {
		t.Error("Expected ticker to dispatch steps")
	}

	s.Stop()
	if !tk.stopped.Load() {
		t.Error("Expected ticker stopped")
	}
}

// TestSchedulerStateString verifies state names
func TestSchedulerStateString(t *testing.T) {
	tests := map[SchedulerState]string{
		SchedulerIdle:      "idle",
		SchedulerRunning:   "running",
		SchedulerPaused:    "paused",
		SchedulerStopped:   "stopped",
		SchedulerState(99): "unknown",
	}
	for s, want := range tests {
		if s.String() != want {
			t.Errorf("Expected %s, got %s", want, s.String())
		}
	}
}
