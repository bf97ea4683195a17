package audio

import (
	"math"
	"sync"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

// MasterGain is the shared gain stage every voice routes through before the sink
// Wraps effects.Volume so the linear gain maps onto beep's log-base volume
type MasterGain struct {
	mu   sync.Mutex
	gain float64
	vol  *effects.Volume
}

func newMasterGain(s beep.Streamer, gain float64) *MasterGain {
	m := &MasterGain{vol: &effects.Volume{Streamer: s, Base: 2}}
	m.SetGain(gain)
	return m
}

// SetGain sets linear gain, 0 = silent
func (m *MasterGain) SetGain(gain float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.gain = gain
	// math.Log2(0) is -Inf, so zero gain maps to Silent
	if gain <= 0 {
		m.vol.Volume = 0
		m.vol.Silent = true
		return
	}
	m.vol.Volume = math.Log2(gain)
	m.vol.Silent = false
}

// Gain returns the linear gain last set
func (m *MasterGain) Gain() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gain
}

func (m *MasterGain) Stream(samples [][2]float64) (n int, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.vol.Stream(samples)
}

func (m *MasterGain) Err() error {
	return nil
}

// Graph is the device graph: connected voices summed into the master gain
// It is an endless beep.Streamer; the number of frames it has rendered is the audio clock
type Graph struct {
	mu         sync.Mutex
	sampleRate beep.SampleRate
	frame      int64

	// Accessed by the render path under mu
	voices []*Voice

	master    *MasterGain
	suspended bool
	closed    bool

	connected uint64
	released  uint64
}

// NewGraph creates a graph rendering at sr with the master gain preset
func NewGraph(sr beep.SampleRate, gain float64) *Graph {
	g := &Graph{
		sampleRate: sr,
		voices:     make([]*Voice, 0, 16),
	}
	g.master = newMasterGain(beep.StreamerFunc(g.render), gain)
	return g
}

// SampleRate returns the render rate
func (g *Graph) SampleRate() beep.SampleRate {
	return g.sampleRate
}

// Master returns the master volume node
func (g *Graph) Master() *MasterGain {
	return g.master
}

// CurrentTime returns the sample-accurate clock in seconds
// Advances only while frames are rendered, frozen while suspended
func (g *Graph) CurrentTime() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return float64(g.frame) / float64(g.sampleRate)
}

// Connect hands a voice to the render path
func (g *Graph) Connect(v *Voice) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return ErrGraphClosed
	}
	g.voices = append(g.voices, v)
	g.connected++
	return nil
}

// Suspend freezes the clock; rendering yields silence
func (g *Graph) Suspend() {
	g.mu.Lock()
	g.suspended = true
	g.mu.Unlock()
}

// Resume restarts clock advancement
func (g *Graph) Resume() {
	g.mu.Lock()
	g.suspended = false
	g.mu.Unlock()
}

// IsSuspended returns suspension state
func (g *Graph) IsSuspended() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.suspended
}

// Close drops all voices; later Connect calls fail
func (g *Graph) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return
	}
	g.closed = true
	for i := range g.voices {
		g.voices[i] = nil
	}
	g.voices = g.voices[:0]
}

// ActiveVoices returns the number of voices owned by the render path
func (g *Graph) ActiveVoices() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.voices)
}

// GetStats returns connected and released voice counts
func (g *Graph) GetStats() (connected, released uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.connected, g.released
}

// Stream renders through the master gain
func (g *Graph) Stream(samples [][2]float64) (n int, ok bool) {
	return g.master.Stream(samples)
}

func (g *Graph) Err() error {
	return nil
}

// render mixes connected voices frame by frame, then releases finished ones
func (g *Graph) render(samples [][2]float64) (int, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.suspended || g.closed {
		for i := range samples {
			samples[i] = [2]float64{}
		}
		return len(samples), true
	}

	sr := float64(g.sampleRate)
	for i := range samples {
		t := float64(g.frame) / sr
		sum := 0.0
		for _, v := range g.voices {
			sum += v.Sample(t)
		}
		samples[i][0] = sum
		samples[i][1] = sum
		g.frame++
	}

	g.prune(float64(g.frame) / sr)
	return len(samples), true
}

// prune releases voices whose stop time has passed
func (g *Graph) prune(now float64) {
	remaining := g.voices[:0]
	for _, v := range g.voices {
		if v.Finished(now) {
			v.release()
			g.released++
			continue
		}
		remaining = append(remaining, v)
	}
	for i := len(remaining); i < len(g.voices); i++ {
		g.voices[i] = nil
	}
	g.voices = remaining
}
