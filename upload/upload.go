// Waveform upload service.
//
// The service is the surrounding task that drives the acquisition core:
// each tick it runs one cycle, collects the derived measurements and ships
// the snapshot as one protocol frame over the serial link to the desktop
// tool.
package upload

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"goscope/core"
	"goscope/protocol"
	"goscope/serial"
)

// Service couples one Scope to one upload link.
type Service struct {
	scope    *core.Scope
	port     serial.Port
	logger   *zap.Logger
	interval time.Duration

	seq int // frame sequence counter
	out *protocol.ScratchOutput
}

// NewService returns a Service that uploads one frame per interval. A nil
// logger disables logging.
func NewService(scope *core.Scope, port serial.Port, logger *zap.Logger, interval time.Duration) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		scope:    scope,
		port:     port,
		logger:   logger,
		interval: interval,
		out:      protocol.NewScratchOutput(),
	}
}

// Run uploads frames until ctx is cancelled. Cycle-level failures are
// logged and the loop keeps going; only a dead link stops it.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("upload service stopping")
			return nil
		case <-ticker.C:
			if err := s.Cycle(); err != nil {
				return fmt.Errorf("uploading frame %d: %w", s.seq, err)
			}
		}
	}
}

// Cycle runs one acquisition and writes the resulting frame to the port.
func (s *Service) Cycle() error {
	display, triggered, err := s.scope.AcquireCycle()
	captureErr := err != nil
	if captureErr && !errors.Is(err, core.ErrLengthMismatch) {
		return err
	}

	var min, max float64
	if err := s.scope.MinMax(&min, &max); err != nil {
		return err
	}

	w := &protocol.Waveform{
		Seq:          uint32(s.seq),
		Triggered:    triggered,
		CaptureErr:   captureErr,
		TriggerCount: uint32(len(s.scope.TriggerLocations())),
		PeriodNs:     protocol.StatToWire(s.scope.Period(), 1e9),
		MeanUV:       protocol.StatToWire(s.scope.MeanFull(), 1e3),
		MeanCycleUV:  protocol.StatToWire(s.scope.MeanCycle(), 1e3),
		RMSUV:        protocol.StatToWire(s.scope.RMSFull(), 1e3),
		RMSCycleUV:   protocol.StatToWire(s.scope.RMSCycle(), 1e3),
		MinUV:        protocol.StatToWire(min, 1e3),
		MaxUV:        protocol.StatToWire(max, 1e3),
		Samples:      display,
	}
	if w.PeriodNs == protocol.StatUndefined {
		w.PeriodNs = protocol.PeriodUndefined
	}

	s.out.Reset()
	protocol.EncodeWaveform(s.out, w)
	if err := s.writeAll(s.out.Result()); err != nil {
		return err
	}

	s.logger.Debug("frame uploaded",
		zap.Int("seq", s.seq),
		zap.Bool("triggered", triggered),
		zap.Bool("captureErr", captureErr),
		zap.Uint32("triggers", w.TriggerCount),
		zap.Int("bytes", s.out.Len()))
	s.seq++
	return nil
}

// writeAll pushes the whole frame out even when the port takes it in
// pieces.
func (s *Service) writeAll(data []byte) error {
	written := 0
	for written < len(data) {
		n, err := s.port.Write(data[written:])
		if err != nil {
			return fmt.Errorf("writing to upload port: %w", err)
		}
		written += n
	}
	return nil
}
