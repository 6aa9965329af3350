// Acquisition core for a single-channel digital storage oscilloscope.
//
// A Scope turns the cyclic DMA sample stream into stable triggered waveform
// snapshots plus derived measurements (period, mean, RMS, min/max). Capture
// hardware is reached through the DMADriver interface only.
package core

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	// RawWindowSize is the size of the cyclic DMA capture buffer in samples.
	RawWindowSize = 8192

	// DisplaySize is the length of one extracted display window in samples.
	DisplaySize = 4096

	// MaxTriggers caps how many trigger locations one scan records.
	// Crossings beyond the cap are silently dropped.
	MaxTriggers = 128

	// SampleRate is the fixed ADC sample rate in Hz.
	SampleRate = 30e6

	// DCMidpoint is the midscale raw code, the calibration fallback value.
	DCMidpoint = 128
)

var (
	// ErrLengthMismatch reports a DMA transfer whose actual length does not
	// match the raw window size. The cycle still completes, producing a
	// fallback snapshot over the stale raw window.
	ErrLengthMismatch = errors.New("dma transfer length mismatch")

	// ErrInvalidParam reports a rejected configuration value or a missing
	// output destination. No state is mutated.
	ErrInvalidParam = errors.New("invalid parameter")
)

// Condition selects the trigger edge direction.
type Condition uint8

const (
	RisingEdge Condition = iota
	FallingEdge
)

// TriggerConfig holds the edge-trigger policy. It is read-only during a
// scan; setters take effect on the next cycle.
type TriggerConfig struct {
	Level      int16 // trigger level, mV
	Hysteresis int16 // dead band height, mV, non-negative
	Condition  Condition
	Position   int // trigger offset inside the display window, samples
}

// Scope owns one channel's acquisition state: the raw capture window, the
// display buffer, the trigger configuration and the trigger locations of
// the last scan. It performs no internal locking; callers that reconfigure
// against an in-flight cycle must serialize externally.
type Scope struct {
	drv    DMADriver
	logger *zap.Logger

	cfg TriggerConfig

	raw     [RawWindowSize]int8
	display [DisplaySize]int16

	locs    []int
	locsBuf [MaxTriggers]int

	// Settle is the delay calibration grants the hardware after the
	// restart pulse before reading the raw window.
	Settle time.Duration
}

// NewScope wires a Scope to its capture hardware. A nil logger disables
// logging.
func NewScope(drv DMADriver, logger *zap.Logger) *Scope {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scope{
		drv:    drv,
		logger: logger,
		cfg: TriggerConfig{
			Hysteresis: 200,
			Condition:  RisingEdge,
			Position:   2048,
		},
		Settle: time.Millisecond,
	}
	s.locs = s.locsBuf[:0]
	return s
}

// Init arms cyclic capture and performs one calibration pass. Call it
// exactly once, before the first acquisition cycle.
func (s *Scope) Init() error {
	if err := s.drv.StartCyclic(s.raw[:]); err != nil {
		return fmt.Errorf("starting cyclic capture: %w", err)
	}
	return s.Calibrate()
}

// AcquireCycle runs one full acquisition: raw read, trigger scan, snapshot
// extraction. The returned slice aliases the Scope's display buffer and is
// valid until the next cycle. triggered reports whether the snapshot came
// from a detected trigger rather than the fallback window. A length
// mismatch is returned as the error while the cycle still completes with a
// fallback snapshot.
func (s *Scope) AcquireCycle() (display []int16, triggered bool, err error) {
	s.locs = s.locsBuf[:0]
	if err = s.readWindow(); err == nil {
		triggered = s.scanTriggers()
	}
	if !triggered {
		s.copyWindow(s.cfg.Position)
	}
	return s.display[:], triggered, err
}

// readWindow captures the most recently completed raw window: fence on the
// transfer descriptor, length check, data-range fence. The restart pulse
// fires after every read, successful or not, so the packager re-arms.
func (s *Scope) readWindow() error {
	defer s.drv.PulseRestart()
	n, err := s.drv.ActualLength()
	if err != nil {
		return fmt.Errorf("reading transfer descriptor: %w", err)
	}
	if n != RawWindowSize {
		s.logger.Warn("capture length mismatch, raw window is stale",
			zap.Int("got", n), zap.Int("want", RawWindowSize))
		return ErrLengthMismatch
	}
	s.drv.InvalidateCache(s.raw[:])
	return nil
}

// TriggerLocations returns the trigger locations recorded by the last
// cycle, in temporal order. The slice aliases internal storage.
func (s *Scope) TriggerLocations() []int {
	return s.locs
}

// SetTriggerLevel sets the trigger level in mV.
func (s *Scope) SetTriggerLevel(level int16) {
	s.cfg.Level = level
}

// TriggerLevel returns the trigger level in mV.
func (s *Scope) TriggerLevel() int16 {
	return s.cfg.Level
}

// SetTriggerHysteresis sets the dead band height in mV.
func (s *Scope) SetTriggerHysteresis(hysteresis int16) error {
	if hysteresis < 0 {
		return fmt.Errorf("%w: hysteresis %d mV", ErrInvalidParam, hysteresis)
	}
	s.cfg.Hysteresis = hysteresis
	return nil
}

// TriggerHysteresis returns the dead band height in mV.
func (s *Scope) TriggerHysteresis() int16 {
	return s.cfg.Hysteresis
}

// SetTriggerCondition sets the trigger edge direction.
func (s *Scope) SetTriggerCondition(c Condition) error {
	if c != RisingEdge && c != FallingEdge {
		return fmt.Errorf("%w: trigger condition %d", ErrInvalidParam, c)
	}
	s.cfg.Condition = c
	return nil
}

// TriggerCondition returns the trigger edge direction.
func (s *Scope) TriggerCondition() Condition {
	return s.cfg.Condition
}

// SetTriggerPosition sets the trigger offset inside the display window.
func (s *Scope) SetTriggerPosition(pos int) error {
	if pos < 0 || pos >= DisplaySize {
		return fmt.Errorf("%w: trigger position %d", ErrInvalidParam, pos)
	}
	s.cfg.Position = pos
	return nil
}

// TriggerPosition returns the trigger offset inside the display window.
func (s *Scope) TriggerPosition() int {
	return s.cfg.Position
}

// SetOffset writes the DC-offset correction code to the hardware register.
func (s *Scope) SetOffset(code uint8) {
	s.drv.SetOffset(code)
}

// Offset reads the DC-offset correction code back from the hardware.
func (s *Scope) Offset() uint8 {
	return s.drv.Offset()
}
