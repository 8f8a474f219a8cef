package camera

import (
	"errors"
	"fmt"
	"log/slog"

	"gocv.io/x/gocv"
)

// ErrNoCamera is returned when no device index could be opened.
var ErrNoCamera = errors.New("could not open any camera")

// Device is the subset of a capture handle used by the viewers.
// *gocv.VideoCapture satisfies it.
type Device interface {
	IsOpened() bool
	Set(prop gocv.VideoCaptureProperties, param float64)
	Get(prop gocv.VideoCaptureProperties) float64
	Read(m *gocv.Mat) bool
	Close() error
}

// OpenFunc opens the capture device at index.
type OpenFunc func(index int) (Device, error)

// OpenDevice opens a local camera through OpenCV.
func OpenDevice(index int) (Device, error) {
	vc, err := gocv.OpenVideoCapture(index)
	if err != nil {
		return nil, err
	}
	return vc, nil
}

// Open opens a single index. A handle that reports it is not opened is
// closed and treated as a failure.
func Open(open OpenFunc, index int) (Device, error) {
	dev, err := open(index)
	if err != nil {
		return nil, fmt.Errorf("open camera %d: %w", index, err)
	}
	if dev == nil || !dev.IsOpened() {
		if dev != nil {
			dev.Close()
		}
		return nil, fmt.Errorf("open camera %d: device not opened", index)
	}
	return dev, nil
}

// OpenWithFallback tries indices strictly in order and returns the first
// device that opens along with its index. Each index is tried once.
func OpenWithFallback(open OpenFunc, indices []int, logger *slog.Logger) (Device, int, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var lastErr error
	for i, idx := range indices {
		dev, err := Open(open, idx)
		if err == nil {
			if i > 0 {
				logger.Info("opened camera index", "index", idx)
			}
			return dev, idx, nil
		}
		lastErr = err
		if i == 0 && len(indices) > 1 {
			logger.Warn("camera not opened, trying other indices", "index", idx, "error", err)
		} else {
			logger.Debug("camera not opened", "index", idx, "error", err)
		}
	}

	if lastErr == nil {
		return nil, -1, ErrNoCamera
	}
	return nil, -1, fmt.Errorf("%w (indices %s): %w", ErrNoCamera, indexRange(indices), lastErr)
}

func indexRange(indices []int) string {
	switch len(indices) {
	case 0:
		return "none"
	case 1:
		return fmt.Sprintf("%d", indices[0])
	}
	return fmt.Sprintf("%d-%d", indices[0], indices[len(indices)-1])
}

// Use opens the first working index, runs fn with the device and releases
// the device when fn returns, whatever the outcome. fn is not called when no
// device opens.
func Use(open OpenFunc, indices []int, logger *slog.Logger, fn func(dev Device, index int) error) error {
	dev, idx, err := OpenWithFallback(open, indices, logger)
	if err != nil {
		return err
	}
	defer dev.Close()

	return fn(dev, idx)
}
