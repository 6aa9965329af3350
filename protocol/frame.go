package protocol

import (
	"errors"
	"fmt"
	"io"
	"math"
)

const (
	// FrameSync marks the start of a frame; receivers scan for it to
	// resynchronize after garbage.
	FrameSync = 0x7E

	// FrameWaveform is the frame type carrying one acquisition cycle.
	FrameWaveform = 0x01

	// StatUndefined is the wire value for an undefined measurement (NaN).
	StatUndefined = math.MinInt32

	// PeriodUndefined is the wire value for an undefined period.
	PeriodUndefined = -1
)

var (
	// ErrBadCRC reports a payload checksum mismatch.
	ErrBadCRC = errors.New("frame checksum mismatch")

	// ErrFrameTooLarge reports a length field beyond ScratchMax.
	ErrFrameTooLarge = errors.New("frame length too large")

	// ErrUnknownFrame reports an unrecognized frame type byte.
	ErrUnknownFrame = errors.New("unknown frame type")
)

// Waveform is one acquisition cycle as carried on the wire. Voltages are
// microvolts, the period is nanoseconds; undefined measurements use the
// sentinel values above.
type Waveform struct {
	Seq          uint32
	Triggered    bool
	CaptureErr   bool
	TriggerCount uint32
	PeriodNs     int32
	MeanUV       int32
	MeanCycleUV  int32
	RMSUV        int32
	RMSCycleUV   int32
	MinUV        int32
	MaxUV        int32
	Samples      []int16 // mV
}

const (
	flagTriggered  = 1 << 0
	flagCaptureErr = 1 << 1
)

// StatToWire converts a measurement in mV (or the period in seconds when
// scale is 1e9) to its wire representation.
func StatToWire(v float64, scale float64) int32 {
	if math.IsNaN(v) {
		return StatUndefined
	}
	return int32(math.Round(v * scale))
}

// StatFromWire converts a wire value back to a float, mapping the
// undefined sentinel to NaN.
func StatFromWire(v int32, scale float64) float64 {
	if v == StatUndefined {
		return math.NaN()
	}
	return float64(v) / scale
}

// EncodeWaveform appends one framed waveform message to out. Samples are
// stored as a first absolute value followed by deltas, which keeps slowly
// moving traces to one byte per sample.
func EncodeWaveform(out OutputBuffer, w *Waveform) {
	payload := NewScratchOutput()
	EncodeVLQUint(payload, w.Seq)

	var flags uint32
	if w.Triggered {
		flags |= flagTriggered
	}
	if w.CaptureErr {
		flags |= flagCaptureErr
	}
	EncodeVLQUint(payload, flags)
	EncodeVLQUint(payload, w.TriggerCount)
	EncodeVLQInt(payload, w.PeriodNs)
	EncodeVLQInt(payload, w.MeanUV)
	EncodeVLQInt(payload, w.MeanCycleUV)
	EncodeVLQInt(payload, w.RMSUV)
	EncodeVLQInt(payload, w.RMSCycleUV)
	EncodeVLQInt(payload, w.MinUV)
	EncodeVLQInt(payload, w.MaxUV)

	EncodeVLQUint(payload, uint32(len(w.Samples)))
	prev := int32(0)
	for _, s := range w.Samples {
		EncodeVLQInt(payload, int32(s)-prev)
		prev = int32(s)
	}

	body := payload.Result()
	out.Output([]byte{FrameSync, FrameWaveform})
	EncodeVLQUint(out, uint32(len(body)))
	out.Output(body)
	crc := CRC16(body)
	out.Output([]byte{byte(crc >> 8), byte(crc)})
}

// DecodeWaveform parses a waveform payload (the bytes between the length
// field and the checksum).
func DecodeWaveform(data []byte) (*Waveform, error) {
	w := &Waveform{}

	seq, err := DecodeVLQUint(&data)
	if err != nil {
		return nil, err
	}
	w.Seq = seq

	flags, err := DecodeVLQUint(&data)
	if err != nil {
		return nil, err
	}
	w.Triggered = flags&flagTriggered != 0
	w.CaptureErr = flags&flagCaptureErr != 0

	if w.TriggerCount, err = DecodeVLQUint(&data); err != nil {
		return nil, err
	}
	for _, dst := range []*int32{
		&w.PeriodNs, &w.MeanUV, &w.MeanCycleUV,
		&w.RMSUV, &w.RMSCycleUV, &w.MinUV, &w.MaxUV,
	} {
		if *dst, err = DecodeVLQInt(&data); err != nil {
			return nil, err
		}
	}

	count, err := DecodeVLQUint(&data)
	if err != nil {
		return nil, err
	}
	if count > ScratchMax {
		return nil, fmt.Errorf("%w: %d samples", ErrFrameTooLarge, count)
	}
	w.Samples = make([]int16, count)
	prev := int32(0)
	for i := range w.Samples {
		d, err := DecodeVLQInt(&data)
		if err != nil {
			return nil, err
		}
		prev += d
		w.Samples[i] = int16(prev)
	}
	return w, nil
}

// ReadFrame reads the next waveform frame from r, skipping to the next
// sync byte first. It blocks until a complete frame arrives or r fails.
func ReadFrame(r io.ByteReader) (*Waveform, error) {
	for {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if b == FrameSync {
			break
		}
	}

	typ, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if typ != FrameWaveform {
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnknownFrame, typ)
	}

	length, err := readVLQUint(r)
	if err != nil {
		return nil, err
	}
	if length > ScratchMax {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, length)
	}

	body := make([]byte, length)
	for i := range body {
		if body[i], err = r.ReadByte(); err != nil {
			return nil, err
		}
	}

	hi, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	lo, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if CRC16(body) != uint16(hi)<<8|uint16(lo) {
		return nil, ErrBadCRC
	}

	return DecodeWaveform(body)
}

// readVLQUint is the streaming twin of DecodeVLQUint.
func readVLQUint(r io.ByteReader) (uint32, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	c := uint32(b)
	v := c & 0x7F
	if (c & 0x60) == 0x60 {
		v |= ^uint32(0x1F)
	}
	for c&0x80 != 0 {
		if b, err = r.ReadByte(); err != nil {
			return 0, err
		}
		c = uint32(b)
		v = (v << 7) | (c & 0x7F)
	}
	return v, nil
}
