// Package cmd is the trackpal process entrypoint: flag parsing, the
// startup banner, and the daemon's own signal-driven lifecycle
// (spec.md §1, §8), in the same shape as cmd/neko/main.go's
// cmd.Execute() call.
package cmd

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	internalconfig "github.com/jason5545/TrackPal/internal/config"
	"github.com/jason5545/TrackPal/internal/engine"
	"github.com/jason5545/TrackPal/pkg/clock"
	"github.com/jason5545/TrackPal/pkg/inject"
	"github.com/jason5545/TrackPal/pkg/touchsrc"
)

// Version is overridden at build time via -ldflags "-X ... cmd.Version=...".
var Version = "dev"

// Header is printed once at startup, occupying the same spot
// cmd/neko/main.go's neko.Header banner does.
const Header = "trackpal %s - trackpad touch-intent engine\n"

// frameInterval stands in for the host's display-refresh callback
// (spec.md §4.6); 60Hz is a reasonable default absent a real refresh
// signal to hook.
const frameInterval = time.Second / 60

// Execute parses flags, wires the engine, and blocks until the process
// receives a termination signal (daemon mode) or, with -check, runs a
// startup self-test and returns immediately.
func Execute() error {
	var (
		devicePath = flag.String("device", "", "multitouch device node (autodetected if empty)")
		display    = flag.String("display", "", "X11 display name (uses $DISPLAY if empty)")
		checkOnly  = flag.Bool("check", false, "open the device and display, then exit")
		verbose    = flag.Bool("verbose", false, "enable debug logging")
	)
	flag.Parse()

	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	source, err := openSource(*devicePath)
	if err != nil {
		return fmt.Errorf("opening multitouch source: %w", err)
	}

	sink, err := inject.NewX11Sink(*display)
	if err != nil {
		return fmt.Errorf("opening X11 sink: %w", err)
	}
	defer sink.Close()

	store := internalconfig.New()
	e := engine.New(source, sink, nil, clock.NewTicker(frameInterval), store)

	tap, err := inject.NewX11Tap(*display, onTapScroll(e), onTapMove(e))
	if err != nil {
		log.Warn().Err(err).Msg("event tap unavailable, native scroll suppression disabled")
	} else {
		e.SetTap(tap)
		defer tap.Close()
	}

	if *checkOnly {
		log.Info().Msg("trackpal self-test OK")
		return nil
	}

	e.Start()
	defer e.Stop()

	waitForSignal()
	return nil
}

func openSource(path string) (touchsrc.Source, error) {
	if path == "" {
		discovered, err := touchsrc.DiscoverTrackpad()
		if err != nil {
			return nil, err
		}
		path = discovered
	}
	return touchsrc.NewEvdevSource(path), nil
}

// onTapScroll adapts the X11 tap's raw wheel-button callback
// (button 4-7) into the engine's InterceptScroll entry point.
func onTapScroll(e *engine.Ctx) func(button int) inject.Decision {
	return func(button int) inject.Decision {
		var ev inject.ScrollEvent
		switch button {
		case 4:
			ev.LineDeltaY = 1
		case 5:
			ev.LineDeltaY = -1
		case 6:
			ev.LineDeltaX = -1
		case 7:
			ev.LineDeltaX = 1
		}
		return e.InterceptScroll(ev)
	}
}

func onTapMove(e *engine.Ctx) func() inject.Decision {
	return func() inject.Decision {
		return e.InterceptMouseMove(inject.MouseMoveEvent{})
	}
}

func waitForSignal() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	<-ch
}
