//go:build linux

// Zynq capture driver.
//
// Reaches the capture hardware through /dev/mem: the S2MM buffer
// descriptor that the PL completes cyclically, the reserved DMA sample
// window it fills, and the AXI4-IO register block carrying the DC-offset
// correction register and the packager restart line. The descriptor chain
// itself is programmed by the PL bitstream at boot; this driver only
// observes completion and drives the register-mapped side effects.
package zynq

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"goscope/core"
)

var _ core.DMADriver = (*Driver)(nil)

const (
	// AXI4-IO slave registers.
	regOffset  = 0x00 // slv_reg0: DC-offset correction code
	regRestart = 0x0C // slv_reg3: packager restart line

	restartAssert = 2

	// S2MM buffer descriptor status word and its transferred-length field.
	bdStatus = 0x28
	lenMask  = 0x03FFFFFF

	mapLen = 0x1000
)

// Config locates the three physical windows the driver maps.
type Config struct {
	MemPath string // defaults to /dev/mem
	IOBase  int64  // AXI4-IO register block
	BDBase  int64  // S2MM buffer descriptor
	BufBase int64  // reserved DMA sample window
	BufSize int    // sample window size in bytes
}

// Driver implements core.DMADriver over the mapped hardware.
type Driver struct {
	fd  int
	io  []byte
	bd  []byte
	win []byte
}

// Open maps the register blocks and the sample window.
func Open(cfg Config) (*Driver, error) {
	path := cfg.MemPath
	if path == "" {
		path = "/dev/mem"
	}
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	d := &Driver{fd: fd}
	if d.io, err = mmap(fd, cfg.IOBase, mapLen); err != nil {
		d.Close()
		return nil, fmt.Errorf("mapping AXI4-IO block: %w", err)
	}
	if d.bd, err = mmap(fd, cfg.BDBase, mapLen); err != nil {
		d.Close()
		return nil, fmt.Errorf("mapping buffer descriptor: %w", err)
	}
	if d.win, err = mmap(fd, cfg.BufBase, cfg.BufSize); err != nil {
		d.Close()
		return nil, fmt.Errorf("mapping sample window: %w", err)
	}
	return d, nil
}

// Close unmaps the hardware windows.
func (d *Driver) Close() error {
	for _, m := range [][]byte{d.io, d.bd, d.win} {
		if m != nil {
			unix.Munmap(m)
		}
	}
	d.io, d.bd, d.win = nil, nil, nil
	if d.fd >= 0 {
		err := unix.Close(d.fd)
		d.fd = -1
		return err
	}
	return nil
}

// StartCyclic verifies the mapped window matches the caller's buffer and
// kicks the packager so the pre-programmed cyclic chain starts completing.
func (d *Driver) StartCyclic(buf []int8) error {
	if len(buf) != len(d.win) {
		return fmt.Errorf("sample window is %d bytes, caller expects %d", len(d.win), len(buf))
	}
	d.PulseRestart()
	return nil
}

// ActualLength reads the transferred length from the descriptor status
// word.
func (d *Driver) ActualLength() (int, error) {
	return int(d.reg32(d.bd, bdStatus) & lenMask), nil
}

// InvalidateCache refreshes buf from the mapped window. The mapping is
// uncached, so the copy itself is the coherency fence.
func (d *Driver) InvalidateCache(buf []int8) {
	n := len(buf)
	if n > len(d.win) {
		n = len(d.win)
	}
	for i := 0; i < n; i++ {
		buf[i] = int8(d.win[i])
	}
}

// PulseRestart asserts then deasserts the packager restart line.
func (d *Driver) PulseRestart() {
	d.setReg32(d.io, regRestart, restartAssert)
	d.setReg32(d.io, regRestart, 0)
}

// SetOffset writes the DC-offset correction register.
func (d *Driver) SetOffset(code uint8) {
	d.setReg32(d.io, regOffset, uint32(code))
}

// Offset reads the DC-offset correction register.
func (d *Driver) Offset() uint8 {
	return uint8(d.reg32(d.io, regOffset))
}

func (d *Driver) reg32(m []byte, off int) uint32 {
	return *(*uint32)(unsafe.Pointer(&m[off]))
}

func (d *Driver) setReg32(m []byte, off int, v uint32) {
	*(*uint32)(unsafe.Pointer(&m[off])) = v
}

func mmap(fd int, base int64, length int) ([]byte, error) {
	return unix.Mmap(fd, base, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
}
