// Resolution-aware viewer
//
// Finds a working camera (indices 0-3), probes which frame sizes the driver
// honors exactly, prefers 1920x1080 and shows the colour and gray images.
// Press q in any window to quit.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teslashibe/go-cvtemplate/internal/config"
	"github.com/teslashibe/go-cvtemplate/internal/log"
	"github.com/teslashibe/go-cvtemplate/pkg/camera"
	"github.com/teslashibe/go-cvtemplate/pkg/debug"
	"github.com/teslashibe/go-cvtemplate/pkg/detection"
	"github.com/teslashibe/go-cvtemplate/pkg/pipeline"
	"github.com/teslashibe/go-cvtemplate/pkg/viewer"
)

// Pause after an empty frame before reading again.
const emptyFrameDelay = 50 * time.Millisecond

func main() {
	debugFlag := flag.Bool("debug", false, "Enable verbose debug logging")
	debugMarkers := flag.Bool("debug-markers", false, "Log every detected marker")
	logLevel := flag.String("log-level", config.LogLevel(), "Log level: debug, info, warn, error")
	flag.Parse()

	debug.Enabled = *debugFlag
	debug.Markers = *debugMarkers
	if *debugFlag {
		*logLevel = "debug"
	}
	log.Init("resviewer", *logLevel)
	logger := log.L()

	fmt.Println("📐 Resolution-Aware Viewer")
	fmt.Println("==========================")

	// The device is released by Use before any fatal exit below.
	err := camera.Use(camera.OpenDevice, camera.FallbackIndices, logger, func(dev camera.Device, index int) error {
		return run(dev, index, logger)
	})
	if errors.Is(err, camera.ErrNoCamera) {
		fmt.Fprintln(os.Stderr, "Error: could not open any camera (indices 0-3).")
		log.Fatal("no camera", "error", err)
	}
	if err != nil {
		log.Fatal("viewer stopped", "error", err)
	}
	fmt.Println("👋 Goodbye!")
}

func run(dev camera.Device, index int, logger *slog.Logger) error {
	logger.Info("camera opened", "index", index)

	prober := camera.NewProber(camera.DefaultConfig())
	neg := prober.Negotiate(dev, logger)
	debug.Log("negotiation: supported=%v selected=%v (%v) actual=%v\n",
		neg.Supported, neg.Selected, neg.Reason, neg.Actual)

	detector, err := detection.New(detection.DefaultConfig())
	if err != nil {
		return fmt.Errorf("create marker detector: %w", err)
	}
	defer detector.Close()

	pipe, err := pipeline.New(pipeline.GrayConfig(), detector)
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}
	defer pipe.Close()

	display := viewer.OpenDisplay(viewer.GrayLayout, viewer.NewGocvWindow, logger)
	defer display.Close()

	// Handle Ctrl+C
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loop := viewer.NewLoop(dev, pipe, display, logger)
	loop.RetryDelay = emptyFrameDelay

	fmt.Println("🔄 Running (press q in a window to quit)")
	stats, err := loop.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("viewer finished", "frames", stats.Frames, "skipped", stats.Skipped,
		"errors", stats.Errors, "render_errors", stats.RenderErrors)
	return nil
}
