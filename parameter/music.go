package parameter

import "time"

// Tempo and Timing
const (
	DefaultBPM   = 120
	MinBPM       = 40
	MaxBPM       = 240
	StepsPerBeat = 2 // eighth notes
	BeatOneEvery = 4 // steps 0, 4, 8, 12 carry the bass hit
)

// Look-ahead scheduling
const (
	// SchedulerTickInterval is the coarse decision cadence
	SchedulerTickInterval = 25 * time.Millisecond

	// SchedulerLookahead is how far past the audio clock notes are dispatched
	SchedulerLookahead = 100 * time.Millisecond
)

// StepDuration returns seconds per sequencer step at bpm
func StepDuration(bpm float64) float64 {
	return 60 / bpm / StepsPerBeat
}

// Melodic voice
const (
	NoteDuration       = 0.3  // seconds
	NoteVelocityBase   = 0.1  // envelope peak before jitter
	NoteVelocityJitter = 0.05 // uniform [0, jitter) added per note
)

// Bass hit on beat one
const (
	BassDuration = 0.4
	BassVelocity = 0.2
	BassPitchDiv = 2.0 // one octave below the step
)

// Voice shaping
const (
	FilterStartHz  = 400.0
	FilterEndHz    = 100.0
	FilterQ        = 1.0
	EnvelopeAttack = 0.05 // seconds, linear
	EnvelopeFloor  = 0.01 // exponential decay target
)

// Drone layer
const (
	DroneFrequency = 55.0 // A1
	DroneGain      = 0.1
)

// Master volume
const (
	DefaultVolume = 30 // percent
	MinVolume     = 0
	MaxVolume     = 100
)
