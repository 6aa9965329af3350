package serial

import (
	"io"
)

// Port represents a serial port interface
// This abstraction allows for different implementations:
// - Native serial (using github.com/tarm/serial)
// - Mock ports in tests
type Port interface {
	io.ReadWriteCloser

	// Flush flushes any buffered data
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyPS1", "COM3")
	Device string

	// Baud rate (ignored for USB CDC links)
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// DefaultConfig returns the configuration of the waveform upload link
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        921600, // Fast enough for ~5 frames/s of full windows
		ReadTimeout: 100,    // 100ms read timeout
	}
}
