//go:build !linux

package main

import (
	"fmt"

	"goscope/core"
)

func openHardware() (core.DMADriver, error) {
	return nil, fmt.Errorf("hardware capture is only available on linux, use -sim")
}
