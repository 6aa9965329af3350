// Derived measurements over the display window. Statistics that need at
// least two trigger locations report NaN when the last scan found fewer;
// that is an undefined value, not an error.
package core

import (
	"fmt"
	"math"
)

// Period returns the mean spacing of consecutive trigger locations in
// seconds, or NaN when the last cycle recorded fewer than two triggers.
func (s *Scope) Period() float64 {
	if len(s.locs) < 2 {
		return math.NaN()
	}
	var sum float64
	for i := 0; i < len(s.locs)-1; i++ {
		sum += float64(s.locs[i+1]-s.locs[i]) / SampleRate
	}
	return sum / float64(len(s.locs)-1)
}

// MeanFull returns the arithmetic mean of the display buffer in mV.
func (s *Scope) MeanFull() float64 {
	var sum float64
	for _, v := range s.display {
		sum += float64(v)
	}
	return sum / DisplaySize
}

// RMSFull returns the root-mean-square of the display buffer in mV.
func (s *Scope) RMSFull() float64 {
	var sum float64
	for _, v := range s.display {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum / DisplaySize)
}

// MeanCycle returns the mean over the samples between the first and last
// trigger location, or NaN when no full cycle was captured.
func (s *Scope) MeanCycle() float64 {
	lo, hi, ok := s.cycleRange()
	if !ok {
		return math.NaN()
	}
	var sum float64
	for i := lo; i < hi; i++ {
		sum += float64(s.display[i])
	}
	return sum / float64(hi-lo)
}

// RMSCycle returns the RMS over the samples between the first and last
// trigger location, or NaN when no full cycle was captured.
func (s *Scope) RMSCycle() float64 {
	lo, hi, ok := s.cycleRange()
	if !ok {
		return math.NaN()
	}
	var sum float64
	for i := lo; i < hi; i++ {
		sum += float64(s.display[i]) * float64(s.display[i])
	}
	return math.Sqrt(sum / float64(hi-lo))
}

// MinMax stores the display-buffer extrema in mV into the provided
// destinations. Both destinations must be non-nil.
func (s *Scope) MinMax(min, max *float64) error {
	if min == nil || max == nil {
		return fmt.Errorf("%w: nil min/max destination", ErrInvalidParam)
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range s.display {
		f := float64(v)
		if f > hi {
			hi = f
		}
		if f < lo {
			lo = f
		}
	}
	*min, *max = lo, hi
	return nil
}

// cycleRange is the half-open display-buffer index range spanned by the
// first and last trigger location, clamped to the buffer. Trigger locations
// are raw-window indices and can point past the display window; an empty
// clamped range means no usable cycle.
func (s *Scope) cycleRange() (lo, hi int, ok bool) {
	if len(s.locs) < 2 {
		return 0, 0, false
	}
	lo = s.locs[0]
	hi = s.locs[len(s.locs)-1]
	if hi > DisplaySize {
		hi = DisplaySize
	}
	if lo < 0 || lo >= hi {
		return 0, 0, false
	}
	return lo, hi, true
}
