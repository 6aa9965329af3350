package core

// DMADriver is the abstract capture-hardware interface that core code uses.
// Target-specific implementations (targets/zynq, targets/sim) own the DMA
// engine and the AXI4-IO register block; the acquisition pipeline only ever
// talks to this interface, so it runs unchanged against synthetic windows
// in tests.
type DMADriver interface {
	// StartCyclic arms the DMA engine in free-running cyclic mode, writing
	// into buf indefinitely. Called exactly once, before the first cycle.
	StartCyclic(buf []int8) error

	// ActualLength reads the transferred length of the most recently
	// completed window from the hardware descriptor.
	ActualLength() (int, error)

	// InvalidateCache performs the cache-coherency fence over buf so the
	// CPU observes what the DMA engine wrote.
	InvalidateCache(buf []int8)

	// PulseRestart asserts then deasserts the packager restart line so the
	// upstream packaging logic re-arms for the next window.
	PulseRestart()

	// SetOffset writes the DC-offset correction register.
	SetOffset(code uint8)

	// Offset reads the DC-offset correction register back.
	Offset() uint8
}
