package protocol

import (
	"bytes"
	"errors"
	"math"
	"testing"
)

func sampleWaveform() *Waveform {
	samples := make([]int16, 4096)
	for i := range samples {
		if i%512 < 256 {
			samples[i] = 3906
		} else {
			samples[i] = -3906
		}
	}
	return &Waveform{
		Seq:          42,
		Triggered:    true,
		TriggerCount: 15,
		PeriodNs:     17067,
		MeanUV:       0,
		MeanCycleUV:  StatUndefined,
		RMSUV:        3906000,
		RMSCycleUV:   StatUndefined,
		MinUV:        -3906000,
		MaxUV:        3906000,
		Samples:      samples,
	}
}

func encodeFrame(t *testing.T, w *Waveform) []byte {
	t.Helper()
	out := NewScratchOutput()
	EncodeWaveform(out, w)
	if out.Len() == 0 {
		t.Fatal("encoder produced no bytes")
	}
	return out.Result()
}

func TestWaveformRoundTrip(t *testing.T) {
	w := sampleWaveform()
	frame := encodeFrame(t, w)

	got, err := ReadFrame(bytes.NewReader(frame))
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}

	if got.Seq != w.Seq || got.Triggered != w.Triggered || got.CaptureErr != w.CaptureErr {
		t.Errorf("header mismatch: got %+v", got)
	}
	if got.TriggerCount != w.TriggerCount || got.PeriodNs != w.PeriodNs {
		t.Errorf("trigger fields mismatch: got count=%d period=%d", got.TriggerCount, got.PeriodNs)
	}
	if got.MeanCycleUV != StatUndefined || got.RMSCycleUV != StatUndefined {
		t.Error("undefined stats must survive the round trip")
	}
	if len(got.Samples) != len(w.Samples) {
		t.Fatalf("sample count = %d, want %d", len(got.Samples), len(w.Samples))
	}
	for i := range got.Samples {
		if got.Samples[i] != w.Samples[i] {
			t.Fatalf("sample %d = %d, want %d", i, got.Samples[i], w.Samples[i])
		}
	}
}

func TestReadFrameSkipsGarbage(t *testing.T) {
	frame := encodeFrame(t, sampleWaveform())
	stream := append([]byte{0x00, 0x13, 0x47}, frame...)

	got, err := ReadFrame(bytes.NewReader(stream))
	if err != nil {
		t.Fatalf("ReadFrame failed after garbage prefix: %v", err)
	}
	if got.Seq != 42 {
		t.Errorf("Seq = %d, want 42", got.Seq)
	}
}

func TestReadFrameBadCRC(t *testing.T) {
	frame := encodeFrame(t, sampleWaveform())
	// Flip a payload byte well past the header.
	frame[len(frame)/2] ^= 0xFF

	if _, err := ReadFrame(bytes.NewReader(frame)); !errors.Is(err, ErrBadCRC) {
		t.Errorf("err = %v, want ErrBadCRC", err)
	}
}

func TestReadFrameUnknownType(t *testing.T) {
	stream := []byte{FrameSync, 0x77, 0x00}
	if _, err := ReadFrame(bytes.NewReader(stream)); !errors.Is(err, ErrUnknownFrame) {
		t.Errorf("err = %v, want ErrUnknownFrame", err)
	}
}

func TestDecodeWaveformTruncated(t *testing.T) {
	frame := encodeFrame(t, sampleWaveform())
	// Strip framing to get at the payload, then cut it short.
	data := frame[2:]
	length, err := DecodeVLQUint(&data)
	if err != nil {
		t.Fatalf("decoding length: %v", err)
	}
	payload := data[:length/2]

	if _, err := DecodeWaveform(payload); !errors.Is(err, ErrBufferTooSmall) {
		t.Errorf("err = %v, want ErrBufferTooSmall", err)
	}
}

func TestStatWireMapping(t *testing.T) {
	if got := StatToWire(math.NaN(), 1e3); got != StatUndefined {
		t.Errorf("StatToWire(NaN) = %d, want StatUndefined", got)
	}
	if got := StatFromWire(StatUndefined, 1e3); !math.IsNaN(got) {
		t.Errorf("StatFromWire(StatUndefined) = %g, want NaN", got)
	}
	if got := StatToWire(123.456, 1e3); got != 123456 {
		t.Errorf("StatToWire(123.456 mV) = %d, want 123456", got)
	}
	if got := StatFromWire(123456, 1e3); math.Abs(got-123.456) > 1e-9 {
		t.Errorf("StatFromWire(123456) = %g, want 123.456", got)
	}
}
