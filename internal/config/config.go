// Package config provides configuration helpers for the camera demo commands.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Fixed defaults shared by both viewers.
const (
	DefaultCameraIndex     = 0
	DefaultCalibrationFile = "Sample_Calibration.yaml"
	DefaultLogLevel        = "info"
)

// CameraIndex returns the camera index from CAMERA_INDEX env var.
// Falls back to DefaultCameraIndex if unset; an unparsable value is an error.
func CameraIndex() (int, error) {
	v := os.Getenv("CAMERA_INDEX")
	if v == "" {
		return DefaultCameraIndex, nil
	}
	idx, err := strconv.Atoi(v)
	if err != nil || idx < 0 {
		return 0, fmt.Errorf("invalid CAMERA_INDEX %q", v)
	}
	return idx, nil
}

// CalibrationFile returns the calibration path from CALIBRATION_FILE env var
// or the default sample file.
func CalibrationFile() string {
	if p := os.Getenv("CALIBRATION_FILE"); p != "" {
		return p
	}
	return DefaultCalibrationFile
}

// LogLevel returns LOG_LEVEL or the default level.
func LogLevel() string {
	if l := os.Getenv("LOG_LEVEL"); l != "" {
		return l
	}
	return DefaultLogLevel
}
