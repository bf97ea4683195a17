package audio

import (
	"math"
)

// Waveform defines oscillator wave shapes
type Waveform int

const (
	WaveSine Waveform = iota
	WaveSquare
	WaveSawtooth
	WaveTriangle
)

// Oscillator generates a raw periodic wave at a fixed frequency
type Oscillator struct {
	wave     Waveform
	freq     float64
	phase    float64 // 0-1
	phaseInc float64
}

// NewOscillator creates an oscillator for freq at the given sample rate
func NewOscillator(wave Waveform, freq float64, sampleRate int) *Oscillator {
	return &Oscillator{
		wave:     wave,
		freq:     freq,
		phaseInc: freq / float64(sampleRate),
	}
}

// Frequency returns the oscillator frequency in Hz
func (o *Oscillator) Frequency() float64 {
	return o.freq
}

// Next returns the current sample and advances the phase by one frame
func (o *Oscillator) Next() float64 {
	var val float64
	switch o.wave {
	case WaveSine:
		val = math.Sin(2 * math.Pi * o.phase)
	case WaveSquare:
		if o.phase < 0.5 {
			val = 1.0
		} else {
			val = -1.0
		}
	case WaveSawtooth:
		val = 2.0 * (o.phase - 0.5)
	case WaveTriangle:
		val = 1.0 - 4.0*math.Abs(o.phase-0.5)
	}

	o.phase += o.phaseInc
	o.phase -= math.Floor(o.phase) // Keep in [0, 1)
	return val
}

// Lowpass is a 12dB/oct biquad lowpass whose cutoff follows a Param
// Coefficients use the RBJ audio-EQ cookbook and are recomputed only when cutoff moves
type Lowpass struct {
	Cutoff *Param
	q      float64
	sr     float64

	lastCutoff float64
	b0, b1, b2 float64
	a1, a2     float64

	x1, x2, y1, y2 float64
}

// NewLowpass creates a lowpass with a constant cutoff until automated
func NewLowpass(cutoff, q float64, sampleRate int) *Lowpass {
	return &Lowpass{
		Cutoff:     NewParam(cutoff),
		q:          q,
		sr:         float64(sampleRate),
		lastCutoff: -1,
	}
}

// Process filters one input sample at clock time t
func (f *Lowpass) Process(x, t float64) float64 {
	fc := f.Cutoff.ValueAt(t)
	if fc != f.lastCutoff {
		f.update(fc)
	}

	y := f.b0*x + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
	f.x2, f.x1 = f.x1, x
	f.y2, f.y1 = f.y1, y
	return y
}

func (f *Lowpass) update(fc float64) {
	f.lastCutoff = fc

	// Clamp below Nyquist and above DC
	nyquist := f.sr / 2
	if fc >= nyquist {
		fc = nyquist * 0.999
	} else if fc < 1 {
		fc = 1
	}

	w0 := 2 * math.Pi * fc / f.sr
	cosW0 := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * f.q)

	a0 := 1 + alpha
	f.b0 = (1 - cosW0) / 2 / a0
	f.b1 = (1 - cosW0) / a0
	f.b2 = f.b0
	f.a1 = -2 * cosW0 / a0
	f.a2 = (1 - alpha) / a0
}
