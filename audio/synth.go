package audio

import (
	"fmt"
	"math"

	"github.com/lixenwraith/ambience/parameter"
)

// Spawner creates fire-and-forget voices stamped with audio clock times
type Spawner interface {
	Spawn(frequency, startTime, duration, velocity float64) error
}

// VoiceConfig shapes every transient voice
type VoiceConfig struct {
	Waveform      Waveform
	FilterStartHz float64 // cutoff at note start
	FilterEndHz   float64 // cutoff at note end, reached exponentially
	FilterQ       float64
	Attack        float64 // seconds, linear rise to velocity
	EnvelopeFloor float64 // exponential decay target at note end
}

// DefaultVoiceConfig returns the saw-through-lowpass pluck
func DefaultVoiceConfig() VoiceConfig {
	return VoiceConfig{
		Waveform:      WaveSawtooth,
		FilterStartHz: parameter.FilterStartHz,
		FilterEndHz:   parameter.FilterEndHz,
		FilterQ:       parameter.FilterQ,
		Attack:        parameter.EnvelopeAttack,
		EnvelopeFloor: parameter.EnvelopeFloor,
	}
}

// Synth builds voices and connects them into a graph's master gain
type Synth struct {
	graph *Graph
	cfg   VoiceConfig
}

// NewSynth creates a voice synthesizer bound to graph
func NewSynth(graph *Graph, cfg VoiceConfig) *Synth {
	return &Synth{graph: graph, cfg: cfg}
}

// Spawn schedules one note: saw -> swept lowpass -> attack/decay envelope -> master
// The synth keeps no reference; the graph releases the voice after startTime+duration
func (s *Synth) Spawn(frequency, startTime, duration, velocity float64) error {
	if !(frequency > 0) || !(duration > 0) || !(velocity >= 0) || math.IsInf(frequency, 0) {
		return fmt.Errorf("%w: freq=%.2f dur=%.3f vel=%.3f", ErrInvalidVoice, frequency, duration, velocity)
	}

	sr := int(s.graph.SampleRate())
	end := startTime + duration

	osc := NewOscillator(s.cfg.Waveform, frequency, sr)

	filter := NewLowpass(s.cfg.FilterStartHz, s.cfg.FilterQ, sr)
	filter.Cutoff.
		SetValueAtTime(s.cfg.FilterStartHz, startTime).
		ExponentialRampToValueAtTime(s.cfg.FilterEndHz, end)

	attackEnd := startTime + math.Min(s.cfg.Attack, duration)
	env := NewParam(0)
	env.SetValueAtTime(0, startTime).
		LinearRampToValueAtTime(velocity, attackEnd).
		ExponentialRampToValueAtTime(s.cfg.EnvelopeFloor, end)

	v := NewVoice(osc, filter, env, startTime, end)
	if err := s.graph.Connect(v); err != nil {
		return fmt.Errorf("spawn %.2fHz at %.3fs: %w", frequency, startTime, err)
	}
	return nil
}

// SpawnDrone connects a continuous unfiltered triangle voice at constant gain
// The returned voice lives until the graph is closed
func (s *Synth) SpawnDrone(frequency, gain float64) (*Voice, error) {
	if !(frequency > 0) || gain < 0 {
		return nil, fmt.Errorf("%w: drone freq=%.2f gain=%.3f", ErrInvalidVoice, frequency, gain)
	}

	sr := int(s.graph.SampleRate())
	v := NewVoice(
		NewOscillator(WaveTriangle, frequency, sr),
		nil,
		NewParam(gain),
		s.graph.CurrentTime(),
		math.Inf(1),
	)
	if err := s.graph.Connect(v); err != nil {
		return nil, fmt.Errorf("drone: %w", err)
	}
	return v, nil
}
