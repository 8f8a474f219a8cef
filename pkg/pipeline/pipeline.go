package pipeline

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-cvtemplate/pkg/calibration"
	"github.com/teslashibe/go-cvtemplate/pkg/debug"
	"github.com/teslashibe/go-cvtemplate/pkg/detection"
)

var (
	// ErrEmptyFrame is returned for a frame with no pixels.
	ErrEmptyFrame = errors.New("empty frame")

	// ErrColorConversion is returned when the frame cannot be converted to gray.
	ErrColorConversion = errors.New("color conversion failed")
)

// Detector finds and draws markers. *detection.ArucoDetector satisfies it.
type Detector interface {
	Detect(img gocv.Mat) detection.Markers
	Draw(img *gocv.Mat, m detection.Markers) error
}

// Pipeline processes one frame at a time. It is not safe for concurrent use.
type Pipeline struct {
	cfg      Config
	detector Detector

	calib        *calibration.Calibration
	markerSizeMM float64

	// Lens correction, set by WithUndistort
	undistort  bool
	cameraMat  gocv.Mat
	distortion gocv.Mat
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithCalibration enables range and optical-axis offset estimates for
// detected markers in debug logs.
func WithCalibration(c *calibration.Calibration, markerSizeMM float64) Option {
	return func(p *Pipeline) {
		p.calib = c
		p.markerSizeMM = markerSizeMM
	}
}

// WithUndistort corrects lens distortion on every frame before processing.
func WithUndistort(c *calibration.Calibration) Option {
	return func(p *Pipeline) {
		p.undistort = true
		p.cameraMat, p.distortion = c.Mats()
	}
}

// New creates a pipeline. detector may be nil when cfg.Detect is false.
func New(cfg Config, detector Detector, opts ...Option) (*Pipeline, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid pipeline config: %v", errs)
	}
	if cfg.Detect && detector == nil {
		return nil, errors.New("invalid pipeline config: detection enabled without a detector")
	}

	p := &Pipeline{cfg: cfg, detector: detector}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// Close releases the calibration matrices held for undistortion.
func (p *Pipeline) Close() error {
	if p.undistort {
		p.cameraMat.Close()
		p.distortion.Close()
		p.undistort = false
	}
	return nil
}

func grayCode(channels int) (gocv.ColorConversionCode, bool) {
	switch channels {
	case 3:
		return gocv.ColorBGRToGray, true
	case 4:
		return gocv.ColorBGRAToGray, true
	}
	return 0, false
}

// Process runs the chain on frame. Marker overlays (and undistortion, when
// enabled) are applied to frame in place. The caller owns the returned
// Result and must Close it.
func (p *Pipeline) Process(frame *gocv.Mat) (*Result, error) {
	if frame == nil || frame.Empty() {
		return nil, ErrEmptyFrame
	}

	if p.undistort {
		if err := p.correct(frame); err != nil {
			return nil, err
		}
	}

	res := &Result{Gray: gocv.NewMat()}
	if err := p.process(frame, res); err != nil {
		res.Close()
		return nil, err
	}
	return res, nil
}

func (p *Pipeline) correct(frame *gocv.Mat) error {
	fixed := gocv.NewMat()
	defer fixed.Close()

	if err := gocv.Undistort(*frame, &fixed, p.cameraMat, p.distortion, p.cameraMat); err != nil {
		return fmt.Errorf("undistort: %w", err)
	}
	if err := fixed.CopyTo(frame); err != nil {
		return fmt.Errorf("undistort: %w", err)
	}
	return nil
}

func (p *Pipeline) process(frame *gocv.Mat, res *Result) error {
	switch ch := frame.Channels(); ch {
	case 1:
		if err := frame.CopyTo(&res.Gray); err != nil {
			return fmt.Errorf("%w: %v", ErrColorConversion, err)
		}
	default:
		code, ok := grayCode(ch)
		if !ok {
			return fmt.Errorf("%w: unsupported channel count %d", ErrColorConversion, ch)
		}
		if err := gocv.CvtColor(*frame, &res.Gray, code); err != nil {
			return fmt.Errorf("%w: %v", ErrColorConversion, err)
		}
	}
	if res.Gray.Empty() {
		return ErrColorConversion
	}

	if p.cfg.Detect {
		res.Markers = p.detector.Detect(res.Gray)
		if !res.Markers.Empty() {
			if err := p.detector.Draw(frame, res.Markers); err != nil {
				return err
			}
			p.logMarkers(res.Markers)
		}
	}

	if !p.cfg.Blur {
		return nil
	}

	blurred := gocv.NewMat()
	res.Display = &blurred
	k := p.cfg.BlurKernel
	if err := gocv.GaussianBlur(res.Gray, &blurred, image.Pt(k, k), 0, 0, gocv.BorderDefault); err != nil {
		return fmt.Errorf("blur: %w", err)
	}

	if p.cfg.Canny {
		edges := gocv.NewMat()
		res.Edges = &edges
		if err := gocv.Canny(blurred, &edges, p.cfg.CannyLow, p.cfg.CannyHigh); err != nil {
			return fmt.Errorf("canny: %w", err)
		}
	}

	// Overlays are coloured, so draw in BGR and convert back for the gray window.
	if !res.Markers.Empty() {
		bgr := gocv.NewMat()
		defer bgr.Close()
		if err := gocv.CvtColor(blurred, &bgr, gocv.ColorGrayToBGR); err != nil {
			return fmt.Errorf("%w: %v", ErrColorConversion, err)
		}
		if err := p.detector.Draw(&bgr, res.Markers); err != nil {
			return err
		}
		if err := gocv.CvtColor(bgr, &blurred, gocv.ColorBGRToGray); err != nil {
			return fmt.Errorf("%w: %v", ErrColorConversion, err)
		}
	}

	return nil
}

func (p *Pipeline) logMarkers(m detection.Markers) {
	if !debug.Markers {
		return
	}
	for _, mk := range m.List() {
		x, y := mk.Center()
		if p.calib == nil {
			debug.MarkerLog("   id=%d center=(%.0f,%.0f)\n", mk.ID, x, y)
			continue
		}
		cx, cy := p.calib.Principal()
		dist := p.calib.EstimateDistance(mk.SideLength(), p.markerSizeMM)
		debug.MarkerLog("   id=%d center=(%.0f,%.0f) offset=(%+.0f,%+.0f) range≈%.0fmm\n",
			mk.ID, x, y, x-cx, y-cy, dist)
	}
}

// Result holds the images produced for one frame.
type Result struct {
	Gray    gocv.Mat  // Grayscale frame
	Display *gocv.Mat // Blurred gray with overlays (nil without blur)
	Edges   *gocv.Mat // Canny edges (nil without Canny)
	Markers detection.Markers
}

// View returns the image to render in window name. frame is the captured
// colour frame, which the Result does not own.
func (r *Result) View(name string, frame gocv.Mat) (gocv.Mat, bool) {
	switch name {
	case WindowFrame:
		return frame, true
	case WindowGray:
		if r.Display != nil {
			return *r.Display, true
		}
		return r.Gray, true
	case WindowCanny:
		if r.Edges != nil {
			return *r.Edges, true
		}
	}
	return gocv.Mat{}, false
}

// Close releases every image the Result owns.
func (r *Result) Close() {
	r.Gray.Close()
	if r.Display != nil {
		r.Display.Close()
		r.Display = nil
	}
	if r.Edges != nil {
		r.Edges.Close()
		r.Edges = nil
	}
}
