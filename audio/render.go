package audio

import (
	"fmt"
	"io"
	"log"
	"math/rand"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
	"github.com/lixenwraith/ambience/parameter"
)

// manualTicker never fires; the render driver calls Tick directly
type manualTicker struct{}

func (manualTicker) C() <-chan time.Time { return nil }
func (manualTicker) Stop()               {}

// tickDriver runs one scheduler tick per tick interval of rendered audio
type tickDriver struct {
	src   beep.Streamer
	sched *Scheduler
	chunk int
	pos   int
}

func (d *tickDriver) Stream(samples [][2]float64) (int, bool) {
	total := 0
	for total < len(samples) {
		if d.pos == 0 {
			d.sched.Tick()
		}
		want := d.chunk - d.pos
		if rest := len(samples) - total; rest < want {
			want = rest
		}
		n, ok := d.src.Stream(samples[total : total+want])
		total += n
		d.pos = (d.pos + n) % d.chunk
		if !ok {
			return total, total > 0
		}
	}
	return total, true
}

func (d *tickDriver) Err() error {
	return d.src.Err()
}

// RenderWAV renders duration of the engine output to w as 16-bit stereo WAV
// The scheduler is ticked against the rendered frame clock, so the file is
// deterministic for a fixed cfg.Seed
func RenderWAV(w io.WriteSeeker, cfg *AudioConfig, duration time.Duration) error {
	if cfg == nil {
		cfg = DefaultAudioConfig()
	}
	if duration <= 0 {
		return fmt.Errorf("render duration must be positive, got %v", duration)
	}

	table, err := LookupPattern(cfg.Pattern)
	if err != nil {
		return err
	}

	sr := beep.SampleRate(cfg.SampleRate)
	graph := NewGraph(sr, float64(ClampVolume(cfg.Volume))/100)
	defer graph.Close()

	synth := NewSynth(graph, DefaultVoiceConfig())
	if _, err := synth.SpawnDrone(parameter.DroneFrequency, parameter.DroneGain); err != nil {
		return err
	}

	schedCfg := cfg.SchedulerConfig()
	sched := NewScheduler(graph, synth, table, schedCfg,
		WithRand(rand.NewSource(cfg.Seed)),
		WithSchedulerLogger(log.New(io.Discard, "", 0)),
		WithTicker(func(time.Duration) Ticker { return manualTicker{} }),
	)
	sched.Start()
	defer sched.Stop()

	chunk := sr.N(schedCfg.TickInterval)
	if chunk < 1 {
		chunk = 1
	}
	driver := &tickDriver{src: graph, sched: sched, chunk: chunk}

	format := beep.Format{
		SampleRate:  sr,
		NumChannels: 2,
		Precision:   2,
	}
	if err := wav.Encode(w, beep.Take(sr.N(duration), driver), format); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	return nil
}
