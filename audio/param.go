package audio

import (
	"math"
	"sort"
)

// automationKind selects how a Param reaches an event's value
type automationKind int

const (
	automationSet automationKind = iota
	automationLinear
	automationExponential
)

type automationEvent struct {
	kind  automationKind
	time  float64
	value float64
}

// Param is a time-automated value read by the render path at clock time t
// Events are kept sorted by time; a ramp interpolates from the preceding event
// (or the default value at t=0) up to its own time and value
type Param struct {
	value  float64
	events []automationEvent
}

// NewParam creates a parameter holding value until automation says otherwise
func NewParam(value float64) *Param {
	return &Param{value: value}
}

// SetValue sets the default value and drops all automation
func (p *Param) SetValue(v float64) {
	p.value = v
	p.events = p.events[:0]
}

// Value returns the default value
func (p *Param) Value() float64 {
	return p.value
}

// SetValueAtTime jumps to v at time t
func (p *Param) SetValueAtTime(v, t float64) *Param {
	p.insert(automationEvent{kind: automationSet, time: t, value: v})
	return p
}

// LinearRampToValueAtTime ramps linearly from the previous event to v, arriving at t
func (p *Param) LinearRampToValueAtTime(v, t float64) *Param {
	p.insert(automationEvent{kind: automationLinear, time: t, value: v})
	return p
}

// ExponentialRampToValueAtTime ramps geometrically from the previous event to v, arriving at t
// Holds the previous value for the ramp duration when either endpoint is non-positive
func (p *Param) ExponentialRampToValueAtTime(v, t float64) *Param {
	p.insert(automationEvent{kind: automationExponential, time: t, value: v})
	return p
}

// insert keeps events ordered; equal times preserve insertion order
func (p *Param) insert(ev automationEvent) {
	i := sort.Search(len(p.events), func(i int) bool {
		return p.events[i].time > ev.time
	})
	p.events = append(p.events, automationEvent{})
	copy(p.events[i+1:], p.events[i:])
	p.events[i] = ev
}

// ValueAt evaluates the automation timeline at time t
func (p *Param) ValueAt(t float64) float64 {
	if len(p.events) == 0 {
		return p.value
	}

	// First event strictly after t
	next := sort.Search(len(p.events), func(i int) bool {
		return p.events[i].time > t
	})

	prevTime, prevValue := 0.0, p.value
	if next > 0 {
		prev := p.events[next-1]
		prevTime, prevValue = prev.time, prev.value
	}

	if next == len(p.events) {
		return prevValue
	}

	ev := p.events[next]
	switch ev.kind {
	case automationLinear:
		span := ev.time - prevTime
		if span <= 0 {
			return ev.value
		}
		frac := (t - prevTime) / span
		return prevValue + (ev.value-prevValue)*frac

	case automationExponential:
		span := ev.time - prevTime
		if span <= 0 {
			return ev.value
		}
		if prevValue <= 0 || ev.value <= 0 {
			return prevValue
		}
		frac := (t - prevTime) / span
		return prevValue * math.Pow(ev.value/prevValue, frac)

	default:
		// Set events take effect only at their own time
		return prevValue
	}
}
