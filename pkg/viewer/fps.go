package viewer

import (
	"fmt"
	"time"
)

// FPSMeter measures instantaneous frames per second from one iteration.
type FPSMeter struct {
	now   func() time.Time
	start time.Time
}

// NewFPSMeter creates a meter using the wall clock.
func NewFPSMeter() *FPSMeter {
	return &FPSMeter{now: time.Now}
}

// Start marks the beginning of an iteration.
func (m *FPSMeter) Start() {
	m.start = m.now()
}

// Stop returns the rate implied by the time since Start, or 0 if no time passed.
func (m *FPSMeter) Stop() float64 {
	elapsed := m.now().Sub(m.start)
	if elapsed <= 0 {
		return 0
	}
	return float64(time.Second) / float64(elapsed)
}

// FormatFPS renders a rate the way the live viewer prints it.
func FormatFPS(fps float64) string {
	return fmt.Sprintf("%4.1f", fps)
}
