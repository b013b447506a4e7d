package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"pupiltrack/internal/logger"
	"pupiltrack/internal/pupil"
	"pupiltrack/internal/trackloop"

	"github.com/rs/zerolog"
)

func main() {
	configureRuntime()

	source := flag.String("source", "0", "video source: camera index or file path")
	verbose := flag.Bool("verbose", false, "enable debug-level logging")
	maxFrames := flag.Int("max-frames", 0, "stop after N frames (0 = run until source ends)")
	debugDir := flag.String("debug-dir", "", "write a cropped pupil thumbnail per detected frame to this directory")
	thumbSide := flag.Int("debug-thumb-size", 64, "thumbnail side length in pixels, used with -debug-dir")
	flag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := logger.NewConsoleLogger(level)

	ctx, cancel := context.WithCancel(context.Background())
	setupGracefulShutdown(cancel)

	if err := run(ctx, *source, *maxFrames, *debugDir, *thumbSide, log); err != nil {
		fmt.Fprintln(os.Stderr, "pupiltrack:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, source string, maxFrames int, debugDir string, thumbSide int, log logger.Logger) error {
	loop, err := trackloop.NewLoop(source, pupil.DefaultConfig(), log)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	defer loop.Close()

	if debugDir != "" {
		snaps, err := trackloop.NewSnapshotWriter(debugDir, thumbSide, log)
		if err != nil {
			return fmt.Errorf("run: %w", err)
		}
		defer snaps.Close()
		loop.SetFrameHook(snaps.Hook())
	}

	frames := 0
	for {
		select {
		case <-ctx.Done():
			log.Info("cmd", "shutdown requested, stopping loop", nil)
			return nil
		default:
		}

		state, ok, err := loop.Next(ctx)
		if err != nil {
			log.Warning("cmd", "frame error, continuing", map[string]interface{}{"error": err.Error()})
		}
		if !ok {
			log.Info("cmd", "video source exhausted", map[string]interface{}{"frames": frames})
			return nil
		}

		frames++
		if state.PupilDetected {
			log.Debug("cmd", "pupil located", map[string]interface{}{
				"x":             state.XPosExact,
				"y":             state.YPosExact,
				"circumference": state.CircumferenceExact,
			})
		}

		if maxFrames > 0 && frames >= maxFrames {
			log.Info("cmd", "reached max-frames, stopping", map[string]interface{}{"frames": frames})
			return nil
		}
	}
}

func configureRuntime() {
	runtime.GOMAXPROCS(runtime.NumCPU())
}

func setupGracefulShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		sig := <-sigChan
		log.Printf("received signal: %v, initiating graceful shutdown", sig)
		cancel()
	}()
}
