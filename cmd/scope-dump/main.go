// scope-dump is the host-side receiver: it reads waveform frames from the
// upload link, prints the derived measurements and optionally dumps the
// samples as CSV.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"goscope/protocol"
	"goscope/serial"
)

var (
	device = flag.String("device", "/dev/ttyUSB0", "Serial device path")
	baud   = flag.Int("baud", 921600, "Baud rate")
	count  = flag.Int("count", 0, "Frames to read before exiting (0 = forever)")
	csv    = flag.Bool("csv", false, "Dump samples of each frame as CSV on stdout")
)

func main() {
	flag.Parse()

	// ReadTimeout stays zero: the reader blocks until frames arrive.
	port, err := serial.Open(&serial.Config{Device: *device, Baud: *baud})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer port.Close()

	r := bufio.NewReaderSize(port, protocol.ScratchMax)
	read := 0
	for *count == 0 || read < *count {
		w, err := protocol.ReadFrame(r)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
			continue
		}
		printFrame(w)
		if *csv {
			dumpCSV(w)
		}
		read++
	}
}

func printFrame(w *protocol.Waveform) {
	fmt.Printf("frame %d: triggered=%v captureErr=%v triggers=%d",
		w.Seq, w.Triggered, w.CaptureErr, w.TriggerCount)
	if w.PeriodNs >= 0 {
		fmt.Printf(" period=%.3fus", float64(w.PeriodNs)/1e3)
	}
	fmt.Printf(" mean=%.2fmV rms=%.2fmV min=%.2fmV max=%.2fmV\n",
		protocol.StatFromWire(w.MeanUV, 1e3),
		protocol.StatFromWire(w.RMSUV, 1e3),
		protocol.StatFromWire(w.MinUV, 1e3),
		protocol.StatFromWire(w.MaxUV, 1e3))
}

func dumpCSV(w *protocol.Waveform) {
	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()
	for i, s := range w.Samples {
		fmt.Fprintf(out, "%d,%d,%d\n", w.Seq, i, s)
	}
}
