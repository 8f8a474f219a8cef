package camera

import (
	"log/slog"
	"time"

	"gocv.io/x/gocv"
)

// Reason records which branch of the selection policy picked a resolution.
type Reason int

const (
	ReasonPreferred Reason = iota
	ReasonFirstSupported
	ReasonDefault
)

func (r Reason) String() string {
	switch r {
	case ReasonPreferred:
		return "preferred"
	case ReasonFirstSupported:
		return "first-supported"
	case ReasonDefault:
		return "default"
	}
	return "unknown"
}

// Prober requests frame sizes from a device and reads back what it accepted.
// Every wait uses Config.SettleDelay.
type Prober struct {
	Config Config
	Sleep  func(time.Duration) // nil uses time.Sleep
}

// NewProber creates a prober for cfg.
func NewProber(cfg Config) *Prober {
	return &Prober{Config: cfg}
}

func (p *Prober) settle() {
	d := p.Config.SettleDelay
	if d <= 0 {
		return
	}
	if p.Sleep != nil {
		p.Sleep(d)
		return
	}
	time.Sleep(d)
}

// Request sets the frame size without verifying it.
func Request(dev Device, r Resolution) {
	dev.Set(gocv.VideoCaptureFrameWidth, float64(r.Width))
	dev.Set(gocv.VideoCaptureFrameHeight, float64(r.Height))
}

// Current reads the frame size the device reports.
func Current(dev Device) Resolution {
	return Resolution{
		Width:  int(dev.Get(gocv.VideoCaptureFrameWidth)),
		Height: int(dev.Get(gocv.VideoCaptureFrameHeight)),
	}
}

// Probe requests each candidate in order and returns those the device
// reported back exactly, preserving candidate order.
func (p *Prober) Probe(dev Device, candidates []Resolution) []Resolution {
	supported := make([]Resolution, 0, len(candidates))
	for _, want := range candidates {
		Request(dev, want)
		p.settle()
		if Current(dev) == want {
			supported = append(supported, want)
		}
	}
	return supported
}

// Apply requests r, waits for the driver and returns the size actually in use.
func (p *Prober) Apply(dev Device, r Resolution) Resolution {
	Request(dev, r)
	p.settle()
	return Current(dev)
}

// Select picks the operating resolution: preferred if supported, else the
// first supported entry, else fallback.
func Select(supported []Resolution, preferred, fallback Resolution) (Resolution, Reason) {
	for _, r := range supported {
		if r == preferred {
			return preferred, ReasonPreferred
		}
	}
	if len(supported) > 0 {
		return supported[0], ReasonFirstSupported
	}
	return fallback, ReasonDefault
}

// Negotiation is the outcome of Negotiate.
type Negotiation struct {
	Supported []Resolution
	Selected  Resolution
	Reason    Reason
	Actual    Resolution
}

// Negotiate probes the configured candidates, selects a resolution, applies
// it and reports what the device ended up using.
func (p *Prober) Negotiate(dev Device, logger *slog.Logger) Negotiation {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := p.Config

	logger.Info("probing common resolutions", "candidates", len(cfg.Candidates))
	supported := p.Probe(dev, cfg.Candidates)
	logger.Info("supported resolutions (exact matches)", "resolutions", supported)

	selected, reason := Select(supported, cfg.Preferred, cfg.Fallback)
	switch reason {
	case ReasonFirstSupported:
		logger.Warn("preferred resolution not supported, falling back",
			"preferred", cfg.Preferred, "using", selected)
	case ReasonDefault:
		logger.Warn("no exact-match supported resolutions found, falling back",
			"using", selected)
	}

	actual := p.Apply(dev, selected)
	logger.Info("camera using resolution", "resolution", actual)

	return Negotiation{
		Supported: supported,
		Selected:  selected,
		Reason:    reason,
		Actual:    actual,
	}
}
