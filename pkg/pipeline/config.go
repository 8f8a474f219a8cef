// Package pipeline runs the per-frame image processing chain: grayscale
// conversion, ArUco detection and overlay, Gaussian blur and Canny edges.
package pipeline

import "fmt"

// Window names the pipeline renders into.
const (
	WindowFrame = "frame-image"
	WindowGray  = "gray-image"
	WindowCanny = "canny-image"
)

// Config holds the tunable parameters of one pipeline.
type Config struct {
	Detect bool // Run ArUco detection and draw overlays

	// Blur and edges
	Blur       bool    // Gaussian blur the gray image before edge detection
	BlurKernel int     // Odd kernel size (square)
	Canny      bool    // Run Canny on the blurred image
	CannyLow   float32 // Hysteresis low threshold
	CannyHigh  float32 // Hysteresis high threshold
}

// LiveConfig returns the full chain used by the live viewer.
func LiveConfig() Config {
	return Config{
		Detect:     true,
		Blur:       true,
		BlurKernel: 5,
		Canny:      true,
		CannyLow:   100,
		CannyHigh:  200,
	}
}

// GrayConfig returns a detection-only chain without blur or edges.
func GrayConfig() Config {
	return Config{
		Detect: true,
	}
}

// Validate checks the config values. Returns a list of problems, or nil if valid.
func (c Config) Validate() []string {
	var errors []string

	if c.Canny && !c.Blur {
		errors = append(errors, "canny requires blur")
	}
	if c.Blur && (c.BlurKernel < 1 || c.BlurKernel%2 == 0) {
		errors = append(errors, fmt.Sprintf("blur kernel must be a positive odd number, got %d", c.BlurKernel))
	}
	if c.Canny {
		if c.CannyLow < 0 || c.CannyHigh < 0 {
			errors = append(errors, "canny thresholds must be non-negative")
		}
		if c.CannyLow > c.CannyHigh {
			errors = append(errors, "canny low threshold must not exceed high threshold")
		}
	}

	return errors
}
