// Live viewer - ArUco markers and Canny edges from a local webcam
//
// Shows the colour frame with marker overlays, the blurred gray image and
// the edge map, and prints instantaneous FPS. Press q in any window to quit.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-cvtemplate/internal/config"
	"github.com/teslashibe/go-cvtemplate/internal/log"
	"github.com/teslashibe/go-cvtemplate/pkg/calibration"
	"github.com/teslashibe/go-cvtemplate/pkg/camera"
	"github.com/teslashibe/go-cvtemplate/pkg/debug"
	"github.com/teslashibe/go-cvtemplate/pkg/detection"
	"github.com/teslashibe/go-cvtemplate/pkg/pipeline"
	"github.com/teslashibe/go-cvtemplate/pkg/viewer"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable verbose debug logging")
	debugMarkers := flag.Bool("debug-markers", false, "Log every detected marker (id, center, range)")
	undistort := flag.Bool("undistort", false, "Correct lens distortion with the calibration before processing")
	logLevel := flag.String("log-level", config.LogLevel(), "Log level: debug, info, warn, error")
	flag.Parse()

	debug.Enabled = *debugFlag
	debug.Markers = *debugMarkers
	if *debugFlag {
		*logLevel = "debug"
	}
	log.Init("viewer", *logLevel)
	logger := log.L()

	fmt.Println("📷 Live Viewer - ArUco + Canny")
	fmt.Println("==============================")

	calibPath := config.CalibrationFile()
	calib, err := calibration.Load(calibPath)
	if err != nil {
		log.Fatal("failed to load calibration", "path", calibPath, "error", err)
	}
	fx, fy := calib.FocalLength()
	logger.Info("calibration loaded", "path", calibPath, "fx", fx, "fy", fy)

	index, err := config.CameraIndex()
	if err != nil {
		log.Fatal("bad camera index", "error", err)
	}

	// Everything holding the camera runs inside run so its defers fire
	// before a fatal exit.
	err = camera.Use(camera.OpenDevice, []int{index}, logger, func(dev camera.Device, opened int) error {
		return run(dev, opened, calib, *undistort, logger)
	})
	if err != nil {
		log.Fatal("viewer stopped", "index", index, "error", err)
	}
	fmt.Println("👋 Goodbye!")
}

func run(dev camera.Device, index int, calib *calibration.Calibration, undistort bool, logger *slog.Logger) error {
	camera.Request(dev, camera.Preferred)
	logger.Info("camera opened", "index", index, "requested", camera.Preferred, "reported", camera.Current(dev))

	detCfg := detection.DefaultConfig()
	detector, err := detection.New(detCfg)
	if err != nil {
		return fmt.Errorf("create marker detector: %w", err)
	}
	defer detector.Close()

	opts := []pipeline.Option{pipeline.WithCalibration(calib, detCfg.MarkerSizeMM)}
	if undistort {
		opts = append(opts, pipeline.WithUndistort(calib))
	}
	pipe, err := pipeline.New(pipeline.LiveConfig(), detector, opts...)
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}
	defer pipe.Close()

	display := viewer.OpenDisplay(viewer.LiveLayout, viewer.NewGocvWindow, logger)
	defer display.Close()

	// Handle Ctrl+C
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loop := viewer.NewLoop(dev, pipe, display, logger)
	loop.PrintFPS = true

	fmt.Println("🔄 Running (press q in a window to quit)")
	stats, err := loop.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("viewer finished", "frames", stats.Frames, "skipped", stats.Skipped,
		"errors", stats.Errors, "render_errors", stats.RenderErrors)
	return nil
}
