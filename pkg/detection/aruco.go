package detection

import (
	"fmt"
	"sync"

	"github.com/lucasb-eyer/go-colorful"
	"gocv.io/x/gocv"

	"github.com/teslashibe/go-cvtemplate/pkg/debug"
)

// Config holds detector configuration
type Config struct {
	Dictionary   gocv.ArucoDictionaryCode // Predefined marker family
	MarkerSizeMM float64                  // Printed marker side length
	BorderColor  string                   // Overlay colour as #RRGGBB
}

// DefaultConfig returns the 4x4_50 family with 40mm markers and a green overlay
func DefaultConfig() Config {
	return Config{
		Dictionary:   gocv.ArucoDict4x4_50,
		MarkerSizeMM: 40,
		BorderColor:  "#00FF00",
	}
}

// ParseColor converts a hex colour to a BGR scalar for OpenCV drawing calls
func ParseColor(hex string) (gocv.Scalar, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return gocv.Scalar{}, fmt.Errorf("parse colour %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return gocv.NewScalar(float64(b), float64(g), float64(r), 0), nil
}

// ArucoDetector wraps OpenCV's ArUco detector
type ArucoDetector struct {
	detector gocv.ArucoDetector
	border   gocv.Scalar
	config   Config
	mu       sync.Mutex
}

// New creates a detector for cfg.Dictionary with default detector parameters
func New(cfg Config) (*ArucoDetector, error) {
	border, err := ParseColor(cfg.BorderColor)
	if err != nil {
		return nil, err
	}

	dict := gocv.GetPredefinedDictionary(cfg.Dictionary)
	params := gocv.NewArucoDetectorParameters()

	return &ArucoDetector{
		detector: gocv.NewArucoDetectorWithParams(dict, params),
		border:   border,
		config:   cfg,
	}, nil
}

// Config returns the detector configuration
func (d *ArucoDetector) Config() Config {
	return d.config
}

// Detect finds markers in img (normally the grayscale frame).
// No markers is not an error.
func (d *ArucoDetector) Detect(img gocv.Mat) Markers {
	d.mu.Lock()
	defer d.mu.Unlock()

	if img.Empty() {
		return Markers{}
	}

	corners, ids, _ := d.detector.DetectMarkers(img)
	m := NewMarkers(corners, ids)

	if !m.Empty() {
		debug.MarkerLog("🔲 ArUco found %d marker(s): %v\n", m.Len(), m.IDs)
	}

	return m
}

// Draw outlines markers on img. Nothing is drawn when m is empty.
func (d *ArucoDetector) Draw(img *gocv.Mat, m Markers) error {
	if m.Empty() || img.Empty() {
		return nil
	}
	if err := gocv.ArucoDrawDetectedMarkers(*img, m.Corners, m.IDs, d.border); err != nil {
		return fmt.Errorf("draw markers: %w", err)
	}
	return nil
}

// Close releases the detector resources
func (d *ArucoDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.detector.Close()
	return nil
}
