package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/eiannone/keyboard"

	"elevatorsim/src/config"
	"elevatorsim/src/controller"
	"elevatorsim/src/engine"
	"elevatorsim/src/scheduler"
	"elevatorsim/src/types"
)

func main() {
	challengePath := flag.String("challenge", "", "Path to a challenge YAML file (built-in demo if empty)")
	program := flag.String("controller", "simple", "Built-in controller name (idle, simple, nearest) or path to an executable speaking the wire protocol")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "Spawn RNG seed")
	speed := flag.Float64("speed", config.DefaultTimeScale, "Initial time scale")
	headless := flag.Bool("headless", false, "Run on a synthetic clock without keyboard control")
	maxTime := flag.Float64("maxtime", 600, "Simulated seconds before a headless run gives up")
	flag.Parse()

	InitLogger()

	cfg := config.Demo()
	if *challengePath != "" {
		loaded, err := config.Load(*challengePath)
		if err != nil {
			slog.Error("Loading challenge failed", "path", *challengePath, "err", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	eng, err := engine.Initialize(cfg, *seed)
	if err != nil {
		slog.Error("Initialization failed", "err", err)
		os.Exit(1)
	}
	eng.Subscribe(logEvents)

	prog, cleanup, err := resolveController(*program)
	if err != nil {
		slog.Error("Resolving controller failed", "controller", *program, "err", err)
		os.Exit(1)
	}
	defer cleanup()

	sched := scheduler.New(eng, prog)
	sched.SetTimeScale(*speed)

	if *headless {
		runHeadless(sched, eng, *maxTime)
	} else {
		runInteractive(sched)
	}

	s := eng.Stats()
	slog.Info("Final stats",
		"outcome", eng.Outcome(),
		"transported", s.TransportedCount,
		"elapsed", fmt.Sprintf("%.1fs", s.ElapsedTime),
		"avgWait", fmt.Sprintf("%.1fs", s.AvgWaitTime),
		"maxWait", fmt.Sprintf("%.1fs", s.MaxWaitTime),
		"moves", s.MoveCount)
	if eng.Outcome() == types.Failure {
		os.Exit(1)
	}
}

// resolveController picks a built-in control program by name, or launches
// the executable at the given path over a stdin/stdout pipe.
func resolveController(name string) (engine.ControlProgram, func(), error) {
	if _, err := os.Stat(name); err == nil {
		pipe, err := controller.StartPipe(name)
		if err != nil {
			return nil, nil, err
		}
		return pipe, func() { pipe.Close() }, nil
	}
	prog, err := controller.Builtin(name)
	if err != nil {
		return nil, nil, err
	}
	return prog, func() {}, nil
}

// runHeadless drives frames from a synthetic clock as fast as possible
// until the challenge ends or the simulated time budget runs out.
func runHeadless(sched *scheduler.Scheduler, eng *engine.Engine, maxTime float64) {
	ctx := context.Background()
	frameMs := 1000 * config.DtMax
	for t := 0.0; ; t += frameMs {
		switch sched.Frame(ctx, t) {
		case scheduler.Ended:
			return
		case scheduler.Paused:
			// Headless runs have nobody to fix a broken control program.
			slog.Error("Run paused with no operator, giving up")
			return
		}
		if eng.Stats().ElapsedTime >= maxTime {
			slog.Info("Simulated time budget exhausted", "maxtime", maxTime)
			return
		}
	}
}

// runInteractive feeds the scheduler from a wall-clock ticker while polling
// the keyboard: space pauses, +/- change time scale, q quits.
func runInteractive(sched *scheduler.Scheduler) {
	if err := keyboard.Open(); err != nil {
		slog.Error("Opening keyboard failed", "err", err)
		os.Exit(1)
	}
	defer keyboard.Close()

	keys := make(chan rune)
	go func() {
		for {
			char, key, err := keyboard.GetKey()
			if err != nil {
				return
			}
			if key == keyboard.KeySpace {
				char = ' '
			}
			if key == keyboard.KeyCtrlC {
				char = 'q'
			}
			keys <- char
		}
	}()

	ctx := context.Background()
	start := time.Now()
	ticker := time.NewTicker(16 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if sched.Frame(ctx, float64(time.Since(start).Microseconds())/1000) == scheduler.Ended {
				return
			}
		case char := <-keys:
			switch char {
			case ' ':
				sched.TogglePause()
				slog.Info("Toggled pause", "state", sched.State())
			case '+':
				sched.SetTimeScale(sched.TimeScale() * 2)
				slog.Info("Time scale changed", "scale", sched.TimeScale())
			case '-':
				sched.SetTimeScale(sched.TimeScale() / 2)
				slog.Info("Time scale changed", "scale", sched.TimeScale())
			case 'q':
				sched.Stop()
			}
		}
	}
}

// logEvents narrates notifications a real presentation layer would render.
func logEvents(ev types.Event) {
	switch ev := ev.(type) {
	case types.PassengerSpawnedEvent:
		slog.Debug("Passenger waiting",
			"id", ev.Passenger.ID,
			"origin", ev.Passenger.OriginFloor,
			"destination", ev.Passenger.DestinationFloor)
	case types.PassengersExitedEvent:
		slog.Debug("Passengers exited", "count", len(ev.Passengers))
	case types.ChallengeEndedEvent:
		slog.Info("Challenge ended", "succeeded", ev.Succeeded)
	case types.ControlProgramErrorEvent:
		slog.Error("Control program error, paused", "err", ev.Err)
	}
}

// InitLogger sets up global logging configuration with compact time format.
func InitLogger() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:     slog.LevelInfo,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.Format("15:04:05"))
				}
			}
			if a.Key == slog.SourceKey {
				if source, ok := a.Value.Any().(*slog.Source); ok {
					file := source.File
					if lastSlash := strings.LastIndexByte(file, '/'); lastSlash >= 0 {
						file = file[lastSlash+1:]
					}
					a.Value = slog.StringValue(fmt.Sprintf("%s:%d", file, source.Line))
				}
			}
			return a
		},
	})
	slog.SetDefault(slog.New(handler))
}
