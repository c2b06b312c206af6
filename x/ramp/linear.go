package ramp

import (
	"time"

	"pixelstick-go/x/mathx"
)

// Step sets the new logical level in [0..top].
type Step func(level uint16)

// Tick waits for d and reports whether to continue (false => cancelled).
type Tick func(d time.Duration) bool

// Linear describes an integer ramp from From to To in Steps increments,
// saturating at Top.
type Linear struct {
	From, To, Top uint16
	Steps         uint16
}

// At returns the level after i steps. Error is spread so that the final
// step lands exactly on To.
func (l Linear) At(i uint16) uint16 {
	if l.Steps == 0 || i >= l.Steps {
		return mathx.Min(l.To, l.Top)
	}
	d := int32(l.To) - int32(l.From)
	v := int32(l.From) + d*int32(i)/int32(l.Steps)
	return uint16(mathx.Clamp(v, 0, int32(l.Top)))
}

// Run drives the ramp synchronously; call it from a goroutine.
// durationMs==0 snaps to To.
func (l Linear) Run(durationMs uint32, tick Tick, set Step) {
	if l.Steps == 0 || durationMs == 0 {
		set(l.At(l.Steps))
		return
	}
	stepDur := time.Duration(mathx.Max(durationMs/uint32(l.Steps), 1)) * time.Millisecond
	last := l.At(0)
	for i := uint16(1); i < l.Steps; i++ {
		if !tick(stepDur) {
			return
		}
		if v := l.At(i); v != last {
			last = v
			set(v)
		}
	}
	set(l.At(l.Steps))
}

// Triangle maps phase i of a period onto 0..top..0.
func Triangle(i, period, top uint16) uint16 {
	if period < 2 {
		return top
	}
	i %= period
	half := period / 2
	if i <= half {
		return Linear{To: top, Top: top, Steps: half}.At(i)
	}
	return Linear{From: top, Top: top, Steps: period - half}.At(i - half)
}
