//go:build linux

package main

import (
	"flag"

	"goscope/core"
	"goscope/targets/zynq"
)

var (
	ioBase  = flag.Int64("io-base", 0x43C00000, "AXI4-IO register block physical address")
	bdBase  = flag.Int64("bd-base", 0x4FFFE000, "S2MM buffer descriptor physical address")
	bufBase = flag.Int64("buf-base", 0x4FFF0000, "DMA sample window physical address")
)

func openHardware() (core.DMADriver, error) {
	return zynq.Open(zynq.Config{
		IOBase:  *ioBase,
		BDBase:  *bdBase,
		BufBase: *bufBase,
		BufSize: core.RawWindowSize,
	})
}
