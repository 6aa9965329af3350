package core

import (
	"fmt"
	"time"
)

// calTolerance is how far, in codes, the measured DC mean may sit from
// midscale and still be adopted as the correction value.
const calTolerance = 10

// Calibrate runs the single-shot DC-offset correction: zero the offset
// register, restart the packager, let the hardware settle, capture one raw
// window bypassing the trigger engine, and adopt the measured mean code
// when it sits within the tolerance band around midscale. A mean outside
// the band is deliberately not chased; the register falls back to the
// midpoint so one noisy window cannot start an oscillation.
func (s *Scope) Calibrate() error {
	s.drv.SetOffset(0)
	s.drv.PulseRestart()
	time.Sleep(s.Settle)

	if err := s.readWindow(); err != nil {
		s.drv.SetOffset(DCMidpoint)
		return fmt.Errorf("calibration capture: %w", err)
	}

	var sum uint64
	for _, c := range s.raw {
		sum += uint64(uint8(c))
	}
	mean := int(sum / RawWindowSize)

	d := mean - DCMidpoint
	if d < 0 {
		d = -d
	}
	if d < calTolerance {
		s.drv.SetOffset(uint8(mean))
	} else {
		s.drv.SetOffset(DCMidpoint)
	}
	return nil
}
