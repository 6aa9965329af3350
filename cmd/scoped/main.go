// scoped is the instrument daemon: it calibrates the front end, runs the
// acquisition pipeline and streams waveform frames over the upload link.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"goscope/core"
	"goscope/serial"
	"goscope/targets/sim"
	"goscope/upload"
)

var (
	device    = flag.String("device", "/dev/ttyPS1", "Upload serial device path")
	baud      = flag.Int("baud", 921600, "Upload baud rate")
	interval  = flag.Duration("interval", 200*time.Millisecond, "Acquisition interval")
	simulate  = flag.Bool("sim", false, "Use the synthetic capture driver")
	simPeriod = flag.Int("sim-period", 512, "Synthetic signal period in samples")
	simAmp    = flag.Int("sim-amplitude", 100, "Synthetic signal amplitude in raw codes")
	level     = flag.Int("level", 0, "Trigger level in mV")
	hyst      = flag.Int("hysteresis", 200, "Trigger hysteresis in mV")
	position  = flag.Int("position", 2048, "Trigger position offset in samples")
	falling   = flag.Bool("falling", false, "Trigger on falling edges")
	debug     = flag.Bool("debug", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	logger := newLogger(*debug)
	defer logger.Sync()

	var drv core.DMADriver
	if *simulate {
		drv = sim.NewSquare(*simPeriod, int8(*simAmp))
		logger.Info("using synthetic capture driver",
			zap.Int("period", *simPeriod), zap.Int("amplitude", *simAmp))
	} else {
		var err error
		if drv, err = openHardware(); err != nil {
			logger.Fatal("opening capture hardware", zap.Error(err))
		}
	}

	scope := core.NewScope(drv, logger.Named("core"))
	configureTrigger(scope, logger)

	if err := scope.Init(); err != nil {
		logger.Fatal("initializing acquisition", zap.Error(err))
	}
	logger.Info("calibrated", zap.Uint8("offset", scope.Offset()))

	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud
	port, err := serial.Open(cfg)
	if err != nil {
		logger.Fatal("opening upload link", zap.Error(err))
	}
	defer port.Close()

	svc := upload.NewService(scope, port, logger.Named("upload"), *interval)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := svc.Run(ctx); err != nil {
		logger.Fatal("upload service failed", zap.Error(err))
	}
}

func configureTrigger(scope *core.Scope, logger *zap.Logger) {
	scope.SetTriggerLevel(int16(*level))
	if err := scope.SetTriggerHysteresis(int16(*hyst)); err != nil {
		logger.Fatal("bad hysteresis", zap.Error(err))
	}
	if err := scope.SetTriggerPosition(*position); err != nil {
		logger.Fatal("bad trigger position", zap.Error(err))
	}
	cond := core.RisingEdge
	if *falling {
		cond = core.FallingEdge
	}
	if err := scope.SetTriggerCondition(cond); err != nil {
		logger.Fatal("bad trigger condition", zap.Error(err))
	}
}

func newLogger(debug bool) *zap.Logger {
	var logger *zap.Logger
	var err error
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return logger
}
