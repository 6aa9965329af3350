package core

import (
	"errors"
	"testing"
)

// mockDriver implements DMADriver for tests. The raw window itself is
// filled directly by each test; the mock only tracks the side effects.
type mockDriver struct {
	buf       []int8
	length    int
	lenErr    error
	starts    int
	pulses    int
	fences    int
	offset    uint8
	offsetLog []uint8
}

func newMockDriver() *mockDriver {
	return &mockDriver{length: RawWindowSize}
}

func (m *mockDriver) StartCyclic(buf []int8) error {
	m.buf = buf
	m.starts++
	return nil
}

func (m *mockDriver) ActualLength() (int, error) {
	return m.length, m.lenErr
}

func (m *mockDriver) InvalidateCache(buf []int8) {
	m.fences++
}

func (m *mockDriver) PulseRestart() {
	m.pulses++
}

func (m *mockDriver) SetOffset(code uint8) {
	m.offset = code
	m.offsetLog = append(m.offsetLog, code)
}

func (m *mockDriver) Offset() uint8 {
	return m.offset
}

// newTestScope builds a Scope on a mock driver with no settle delay.
func newTestScope(drv *mockDriver) *Scope {
	s := NewScope(drv, nil)
	s.Settle = 0
	return s
}

// fillSquare writes a square wave with the given period into the raw
// window: +amp for the first half of each period, -amp for the second.
func fillSquare(s *Scope, period int, amp int8) {
	for i := range s.raw {
		if i%period < period/2 {
			s.raw[i] = amp
		} else {
			s.raw[i] = -amp
		}
	}
}

func TestAcquireCycleTriggered(t *testing.T) {
	drv := newMockDriver()
	s := newTestScope(drv)
	fillSquare(s, 512, 100)

	display, triggered, err := s.AcquireCycle()
	if err != nil {
		t.Fatalf("AcquireCycle failed: %v", err)
	}
	if !triggered {
		t.Error("expected triggered snapshot")
	}
	if len(display) != DisplaySize {
		t.Errorf("display length %d, want %d", len(display), DisplaySize)
	}
	if drv.pulses != 1 {
		t.Errorf("restart pulses %d, want 1", drv.pulses)
	}
	if drv.fences != 1 {
		t.Errorf("cache fences %d, want 1", drv.fences)
	}

	// The trigger lands at the positive crossing sample, so the sample at
	// the configured position offset must be the positive level.
	want := rawToMillivolts(100)
	if display[s.cfg.Position] != want {
		t.Errorf("display[%d] = %d mV, want %d", s.cfg.Position, display[s.cfg.Position], want)
	}
}

func TestAcquireCycleLengthMismatch(t *testing.T) {
	drv := newMockDriver()
	drv.length = 100
	s := newTestScope(drv)
	for i := range s.raw {
		s.raw[i] = 10
	}

	display, triggered, err := s.AcquireCycle()
	if !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("error = %v, want ErrLengthMismatch", err)
	}
	if triggered {
		t.Error("mismatch cycle must not report a triggered snapshot")
	}
	if len(display) != DisplaySize {
		t.Fatalf("display length %d, want %d", len(display), DisplaySize)
	}
	// Fallback snapshot over the stale raw window.
	want := rawToMillivolts(10)
	for i, v := range display {
		if v != want {
			t.Fatalf("display[%d] = %d, want %d", i, v, want)
		}
	}
	if drv.pulses != 1 {
		t.Errorf("restart pulses %d, want 1 even on failure", drv.pulses)
	}
	if len(s.TriggerLocations()) != 0 {
		t.Errorf("trigger locations = %d, want 0", len(s.TriggerLocations()))
	}
}

func TestAcquireCycleNoTriggerFallback(t *testing.T) {
	drv := newMockDriver()
	s := newTestScope(drv)
	// Constant signal inside the dead band never triggers.
	for i := range s.raw {
		s.raw[i] = 0
	}

	display, triggered, err := s.AcquireCycle()
	if err != nil {
		t.Fatalf("AcquireCycle failed: %v", err)
	}
	if triggered {
		t.Error("constant signal must not trigger")
	}
	for i, v := range display {
		if v != 0 {
			t.Fatalf("display[%d] = %d, want 0", i, v)
		}
	}
}

func TestAcquireCycleUnusableTriggerFallsBack(t *testing.T) {
	drv := newMockDriver()
	s := newTestScope(drv)
	// One rising edge at index 100, well before the position offset, so
	// the window around it does not fit.
	for i := range s.raw {
		if i < 100 {
			s.raw[i] = -100
		} else {
			s.raw[i] = 100
		}
	}

	_, triggered, err := s.AcquireCycle()
	if err != nil {
		t.Fatalf("AcquireCycle failed: %v", err)
	}
	if triggered {
		t.Error("edge too close to the buffer start must use the fallback path")
	}
	if n := len(s.TriggerLocations()); n != 1 {
		t.Errorf("trigger locations = %d, want 1", n)
	}
}

func TestInitArmsAndCalibrates(t *testing.T) {
	drv := newMockDriver()
	s := newTestScope(drv)
	if err := s.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if drv.starts != 1 {
		t.Errorf("cyclic capture started %d times, want 1", drv.starts)
	}
	if len(drv.offsetLog) == 0 || drv.offsetLog[0] != 0 {
		t.Errorf("calibration must zero the offset first, log = %v", drv.offsetLog)
	}
	// Zeroed raw window has unsigned mean 0, far from midscale.
	if got := drv.offset; got != DCMidpoint {
		t.Errorf("offset = %d, want fallback %d", got, DCMidpoint)
	}
}

func TestConfigRoundTrip(t *testing.T) {
	drv := newMockDriver()
	s := newTestScope(drv)

	s.SetTriggerLevel(-1500)
	if got := s.TriggerLevel(); got != -1500 {
		t.Errorf("TriggerLevel = %d, want -1500", got)
	}
	if err := s.SetTriggerHysteresis(350); err != nil {
		t.Fatalf("SetTriggerHysteresis failed: %v", err)
	}
	if got := s.TriggerHysteresis(); got != 350 {
		t.Errorf("TriggerHysteresis = %d, want 350", got)
	}
	if err := s.SetTriggerCondition(FallingEdge); err != nil {
		t.Fatalf("SetTriggerCondition failed: %v", err)
	}
	if got := s.TriggerCondition(); got != FallingEdge {
		t.Errorf("TriggerCondition = %d, want FallingEdge", got)
	}
	if err := s.SetTriggerPosition(1000); err != nil {
		t.Fatalf("SetTriggerPosition failed: %v", err)
	}
	if got := s.TriggerPosition(); got != 1000 {
		t.Errorf("TriggerPosition = %d, want 1000", got)
	}
	s.SetOffset(131)
	if got := s.Offset(); got != 131 {
		t.Errorf("Offset = %d, want 131", got)
	}
}

func TestConfigValidation(t *testing.T) {
	drv := newMockDriver()
	s := newTestScope(drv)

	if err := s.SetTriggerHysteresis(-1); !errors.Is(err, ErrInvalidParam) {
		t.Errorf("negative hysteresis: err = %v, want ErrInvalidParam", err)
	}
	if got := s.TriggerHysteresis(); got != 200 {
		t.Errorf("rejected setter mutated hysteresis to %d", got)
	}

	if err := s.SetTriggerCondition(Condition(7)); !errors.Is(err, ErrInvalidParam) {
		t.Errorf("bogus condition: err = %v, want ErrInvalidParam", err)
	}
	if got := s.TriggerCondition(); got != RisingEdge {
		t.Errorf("rejected setter mutated condition to %d", got)
	}

	for _, pos := range []int{-1, DisplaySize, DisplaySize + 5} {
		if err := s.SetTriggerPosition(pos); !errors.Is(err, ErrInvalidParam) {
			t.Errorf("position %d: err = %v, want ErrInvalidParam", pos, err)
		}
	}
	if got := s.TriggerPosition(); got != 2048 {
		t.Errorf("rejected setter mutated position to %d", got)
	}
}
