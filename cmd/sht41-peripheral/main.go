package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/daemon"
	"github.com/juju/errors"
	isatty "github.com/mattn/go-isatty"

	"github.com/theMossCode/sht41-peripheral/internal/sensor"
	"github.com/theMossCode/sht41-peripheral/internal/state"
	"github.com/theMossCode/sht41-peripheral/internal/telemetry"
	"github.com/theMossCode/sht41-peripheral/log2"
)

var BuildVersion string = "unknown" // set by ldflags -X

func main() {
	flagConfig := flag.String("config", "sht41-peripheral.hcl", "")
	flagVersion := flag.Bool("version", false, "")
	flag.Parse()
	if *flagVersion {
		os.Stdout.WriteString("sht41-peripheral " + BuildVersion + "\n")
		return
	}

	log := log2.NewStderr(log2.LDebug)
	if sdnotify("STATUS=starting") {
		// under systemd assume journal logging, skip timestamp
		log.SetFlags(log2.LServiceFlags)
	} else if isatty.IsTerminal(os.Stderr.Fd()) {
		log.SetFlags(log2.LInteractiveFlags)
	} else {
		log.SetFlags(log2.LStdFlags)
	}
	log.Infof("hello version=%s", BuildVersion)

	ctx, g := state.NewContext(log)
	g.BuildVersion = BuildVersion

	config := state.MustReadConfig(log, state.NewOsFullReader(), *flagConfig)
	log.Debugf("config=%+v", config)
	g.MustInit(ctx, config)

	timings := config.Timing.Timings()
	cycle := telemetry.NewCycle(log, g.Ble(), g.Sensor(), timings)
	cycle.SetOutcomeFunc(func(o telemetry.Outcome, r sensor.Reading) {
		g.Tele.Outcome(o, r)
	})
	if err := cycle.Init(); err != nil {
		log.Fatal(errors.ErrorStack(errors.Annotate(err, "cycle init")))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigCh
		log.Infof("signal=%v", s)
		g.Alive.Stop()
	}()

	// one wake is armed up front so the loop makes progress from boot
	cycle.Timer().Arm(timings.WakeInterval, 0)
	go cycle.Loop(g.Alive)

	sdnotify(daemon.SdNotifyReady)
	log.Infof("init complete, running")
	g.Alive.Wait()
	g.Tele.Close()
	log.Infof("stopped")
}

func sdnotify(s string) bool {
	ok, err := daemon.SdNotify(false, s)
	if err != nil {
		log2.NewStderr(log2.LError).Fatal("sdnotify: ", errors.ErrorStack(err))
	}
	return ok
}
