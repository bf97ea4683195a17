package audio

import "math"

// Voice is one sound-producing unit: oscillator -> optional lowpass -> envelope
// Ownership passes to the Graph on Connect; the Graph releases it once the clock reaches its stop time
type Voice struct {
	osc      *Oscillator
	filter   *Lowpass // nil for unfiltered voices (drone)
	Envelope *Param

	start float64
	stop  float64 // +Inf for voices that never stop

	onEnded func()
	ended   bool
}

// NewVoice assembles a voice that sounds from start until stop (audio clock seconds)
func NewVoice(osc *Oscillator, filter *Lowpass, envelope *Param, start, stop float64) *Voice {
	return &Voice{
		osc:      osc,
		filter:   filter,
		Envelope: envelope,
		start:    start,
		stop:     stop,
	}
}

// StartTime returns the scheduled start in audio clock seconds
func (v *Voice) StartTime() float64 {
	return v.start
}

// StopTime returns the scheduled stop, +Inf for continuous voices
func (v *Voice) StopTime() float64 {
	return v.stop
}

// Duration returns stop - start
func (v *Voice) Duration() float64 {
	return v.stop - v.start
}

// Continuous reports whether the voice has no stop time
func (v *Voice) Continuous() bool {
	return math.IsInf(v.stop, 1)
}

// Frequency returns the oscillator frequency
func (v *Voice) Frequency() float64 {
	return v.osc.Frequency()
}

// OnEnded registers fn to run once when the voice is released
// Must be set before Connect; runs on the render goroutine
func (v *Voice) OnEnded(fn func()) {
	v.onEnded = fn
}

// Sample renders the voice at clock time t, silent before start
func (v *Voice) Sample(t float64) float64 {
	if t < v.start || t >= v.stop {
		return 0
	}
	x := v.osc.Next()
	if v.filter != nil {
		x = v.filter.Process(x, t)
	}
	return x * v.Envelope.ValueAt(t)
}

// Finished reports whether the clock has passed the stop time
func (v *Voice) Finished(t float64) bool {
	return t >= v.stop
}

// release fires the ended callback exactly once
func (v *Voice) release() {
	if v.ended {
		return
	}
	v.ended = true
	if v.onEnded != nil {
		v.onEnded()
	}
}
