// Package camera opens capture devices and negotiates the frame size they honor.
// Drivers may silently clamp or round a requested size, so every setting is
// read back before it is trusted.
package camera

import (
	"fmt"
	"time"
)

// Resolution is a frame size in pixels.
type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// String formats the resolution as WxH.
func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// Pixels returns the pixel count of one frame.
func (r Resolution) Pixels() int {
	return r.Width * r.Height
}

// Negotiation defaults.
const (
	// SettleDelay is the pause between requesting a size and reading it back.
	SettleDelay = 100 * time.Millisecond
)

var (
	// Preferred is the resolution chosen whenever the device honors it.
	Preferred = Resolution{Width: 1920, Height: 1080}

	// Fallback is used when no candidate matched exactly.
	Fallback = Resolution{Width: 640, Height: 480}

	// FallbackIndices are the device indices tried, in order, when opening a camera.
	FallbackIndices = []int{0, 1, 2, 3}
)

// Config holds the negotiation parameters.
type Config struct {
	Candidates  []Resolution  // Probe order, highest first
	Preferred   Resolution    // Chosen when supported
	Fallback    Resolution    // Chosen when nothing matched
	SettleDelay time.Duration // Wait after each request
}

// DefaultConfig returns the fixed negotiation parameters.
func DefaultConfig() Config {
	return Config{
		Candidates:  Candidates(),
		Preferred:   Preferred,
		Fallback:    Fallback,
		SettleDelay: SettleDelay,
	}
}
