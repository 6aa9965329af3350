// Edge-trigger search with hysteresis and sub-sample interpolation.
package core

type scanState uint8

const (
	scanIdle    scanState = iota // waiting for the signal to leave the band downward
	scanArmed                    // below lower threshold, watching for the upper crossing
	scanPending                  // inside the dead band, candidate crossing remembered
)

// edgeScanner detects qualifying edge crossings one sample at a time.
// Falling-edge mode is handled by negating samples before they reach Step,
// which mirrors the thresholds around the level.
type edgeScanner struct {
	upper, lower int16
	state        scanState
	pending      int
}

func newEdgeScanner(cfg TriggerConfig) edgeScanner {
	return edgeScanner{
		upper: cfg.Level + cfg.Hysteresis/2,
		lower: cfg.Level - cfg.Hysteresis/2,
	}
}

// Step feeds one sample to the state machine. When a crossing completes it
// returns the trigger location and ok=true. A crossing that lingered in the
// dead band is placed at the integer midpoint of the dead-band entry index
// and the upper-threshold crossing index; a dead-band excursion that falls
// back below the lower threshold is a false start and is discarded.
func (e *edgeScanner) Step(mv int16, i int) (loc int, ok bool) {
	switch e.state {
	case scanIdle:
		if mv < e.lower {
			e.state = scanArmed
		}
	case scanArmed:
		if mv > e.upper {
			e.state = scanIdle
			return i, true
		}
		if mv > e.lower && mv < e.upper {
			e.state = scanPending
			e.pending = i
		}
	case scanPending:
		if mv < e.lower {
			e.state = scanArmed
		} else if mv > e.upper {
			e.state = scanIdle
			return (e.pending + i) / 2, true
		}
	}
	return 0, false
}

// scanTriggers walks the raw window, records up to MaxTriggers trigger
// locations and extracts the snapshot at the first location with a usable
// window around it. It reports whether that extraction happened.
func (s *Scope) scanTriggers() (triggered bool) {
	es := newEdgeScanner(s.cfg)
	negate := s.cfg.Condition == FallingEdge
	for i := 0; i < RawWindowSize; i++ {
		mv := rawToMillivolts(s.raw[i])
		if negate {
			mv = -mv
		}
		loc, ok := es.Step(mv, i)
		if !ok {
			continue
		}
		if !triggered {
			triggered = s.copyWindow(loc)
		}
		if len(s.locs) < MaxTriggers {
			s.locs = append(s.locs, loc)
		}
	}
	return triggered
}
