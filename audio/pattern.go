package audio

import (
	"fmt"
	"sort"
	"sync"

	"github.com/lixenwraith/ambience/parameter"
)

// PatternStep is one immutable entry of a pattern table
type PatternStep struct {
	Index     int
	Frequency float64 // Hz
	IsBeatOne bool    // also triggers the bass hit
}

// PatternTable is a fixed cyclic sequence of steps, read-only after construction
type PatternTable struct {
	name  string
	steps []PatternStep
}

// NewPatternTable builds a table from frequencies; every beatEvery-th step is a beat one
func NewPatternTable(name string, freqs []float64, beatEvery int) (*PatternTable, error) {
	if len(freqs) == 0 {
		return nil, fmt.Errorf("pattern %q: no steps", name)
	}
	if beatEvery <= 0 {
		return nil, fmt.Errorf("pattern %q: beat interval %d", name, beatEvery)
	}

	steps := make([]PatternStep, len(freqs))
	for i, f := range freqs {
		if !(f > 0) {
			return nil, fmt.Errorf("pattern %q: step %d frequency %.2f", name, i, f)
		}
		steps[i] = PatternStep{
			Index:     i,
			Frequency: f,
			IsBeatOne: i%beatEvery == 0,
		}
	}
	return &PatternTable{name: name, steps: steps}, nil
}

// Name returns the registry name
func (p *PatternTable) Name() string {
	return p.name
}

// Len returns the number of steps in one cycle
func (p *PatternTable) Len() int {
	return len(p.steps)
}

// StepAt returns the step at index mod Len, negative indices wrap backwards
func (p *PatternTable) StepAt(index int) PatternStep {
	n := len(p.steps)
	i := index % n
	if i < 0 {
		i += n
	}
	return p.steps[i]
}

// Steps returns a copy of all steps
func (p *PatternTable) Steps() []PatternStep {
	out := make([]PatternStep, len(p.steps))
	copy(out, p.steps)
	return out
}

// Built-in pattern names
const (
	PatternSynthwave = "synthwave"
	PatternDrift     = "drift"
)

var (
	patterns  = make(map[string]*PatternTable)
	patternMu sync.RWMutex
)

// RegisterPattern adds a table to the registry, replacing any with the same name
func RegisterPattern(p *PatternTable) {
	patternMu.Lock()
	patterns[p.name] = p
	patternMu.Unlock()
}

// LookupPattern retrieves a table by name
func LookupPattern(name string) (*PatternTable, error) {
	patternMu.RLock()
	defer patternMu.RUnlock()

	p, ok := patterns[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPattern, name)
	}
	return p, nil
}

// PatternNames lists registered tables in sorted order
func PatternNames() []string {
	patternMu.RLock()
	defer patternMu.RUnlock()

	names := make([]string, 0, len(patterns))
	for n := range patterns {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DefaultPatternTable returns the A-minor synthwave loop
func DefaultPatternTable() *PatternTable {
	p, _ := LookupPattern(PatternSynthwave)
	return p
}

func mustPattern(name string, freqs []float64) *PatternTable {
	p, err := NewPatternTable(name, freqs, parameter.BeatOneEvery)
	if err != nil {
		panic(err)
	}
	return p
}

func init() {
	// A minor arpeggio, then over F, each half ending on G3
	RegisterPattern(mustPattern(PatternSynthwave, []float64{
		110.00, 130.81, 164.81, 220.00,
		110.00, 130.81, 164.81, 196.00, // G3
		87.31, 130.81, 174.61, 220.00, // F
		87.31, 130.81, 174.61, 196.00,
	}))

	// D dorian drift, built from MIDI notes
	drift := []int{50, 57, 62, 65, 50, 57, 64, 69, 48, 55, 60, 64, 53, 60, 65, 69}
	freqs := make([]float64, len(drift))
	for i, n := range drift {
		freqs[i] = roundHz(NoteFreq(n))
	}
	RegisterPattern(mustPattern(PatternDrift, freqs))
}
