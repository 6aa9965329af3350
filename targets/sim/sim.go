// Synthetic capture driver.
//
// Stands in for the AXI DMA engine during bench work: every restart pulse
// regenerates the raw window from a test signal, with the phase advancing
// so successive windows look like a live free-running capture.
package sim

import (
	"math"

	"goscope/core"
)

var _ core.DMADriver = (*Driver)(nil)

// Wave selects the generated test signal.
type Wave uint8

const (
	Square Wave = iota
	Sine
)

// Driver implements core.DMADriver over a generated signal.
type Driver struct {
	// Wave is the generated signal shape.
	Wave Wave

	// Period is the signal period in samples.
	Period int

	// Amplitude is the peak raw code of the signal.
	Amplitude int8

	// Bias is a raw-code DC error added to every sample, emulating an
	// uncalibrated front end.
	Bias int

	// ShortBy truncates the reported transfer length, forcing the length
	// mismatch path.
	ShortBy int

	buf    []int8
	phase  int
	offset uint8
}

// NewSquare returns a square-wave driver.
func NewSquare(period int, amplitude int8) *Driver {
	return &Driver{Wave: Square, Period: period, Amplitude: amplitude}
}

// NewSine returns a sine-wave driver.
func NewSine(period int, amplitude int8) *Driver {
	return &Driver{Wave: Sine, Period: period, Amplitude: amplitude}
}

func (d *Driver) StartCyclic(buf []int8) error {
	d.buf = buf
	d.fill()
	return nil
}

func (d *Driver) ActualLength() (int, error) {
	return len(d.buf) - d.ShortBy, nil
}

func (d *Driver) InvalidateCache(buf []int8) {}

// PulseRestart regenerates the window, advancing the phase by a quarter
// period so consecutive captures are visibly unaligned.
func (d *Driver) PulseRestart() {
	if d.Period > 0 {
		d.phase = (d.phase + d.Period/4) % d.Period
	}
	d.fill()
}

func (d *Driver) SetOffset(code uint8) { d.offset = code }
func (d *Driver) Offset() uint8        { return d.offset }

func (d *Driver) fill() {
	if d.buf == nil || d.Period <= 0 {
		return
	}
	amp := int(d.Amplitude)
	for i := range d.buf {
		pos := (i + d.phase) % d.Period
		var code int
		switch d.Wave {
		case Sine:
			code = int(float64(amp) * math.Sin(2*math.Pi*float64(pos)/float64(d.Period)))
		default:
			if pos < d.Period/2 {
				code = amp
			} else {
				code = -amp
			}
		}
		code += d.Bias
		if code > 127 {
			code = 127
		}
		if code < -128 {
			code = -128
		}
		d.buf[i] = int8(code)
	}
}
