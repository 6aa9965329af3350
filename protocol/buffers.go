// Wire format for waveform upload frames.
//
// One frame carries one acquisition cycle: sequence number, derived
// measurements and the display window as VLQ-coded sample deltas, CRC16
// protected and sync-byte framed so the receiver can resynchronize on a
// corrupted link.
package protocol

// ScratchMax bounds one encoded frame. The worst case is a full display
// window whose deltas all need three VLQ bytes.
const ScratchMax = 16384

// OutputBuffer is the sink the encoders write to.
type OutputBuffer interface {
	// Output appends data to the buffer.
	Output(data []byte)
}

// ScratchOutput implements OutputBuffer on a fixed-size scratch buffer;
// nothing is allocated per frame.
type ScratchOutput struct {
	buf [ScratchMax]byte
	pos int
}

// NewScratchOutput returns an empty ScratchOutput.
func NewScratchOutput() *ScratchOutput {
	return &ScratchOutput{}
}

func (s *ScratchOutput) Output(data []byte) {
	n := copy(s.buf[s.pos:], data)
	s.pos += n
}

// Result returns the accumulated bytes. The slice aliases the scratch
// buffer and is valid until the next Reset.
func (s *ScratchOutput) Result() []byte {
	return s.buf[:s.pos]
}

// Len returns the number of accumulated bytes.
func (s *ScratchOutput) Len() int {
	return s.pos
}

// Reset discards the accumulated bytes.
func (s *ScratchOutput) Reset() {
	s.pos = 0
}
