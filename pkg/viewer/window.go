// Package viewer drives the capture-process-display loop shared by both
// camera demos.
package viewer

import (
	"log/slog"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-cvtemplate/pkg/pipeline"
)

// Pane is a named window at a fixed screen position.
type Pane struct {
	Name string
	X, Y int
}

// LiveLayout places the colour, gray and edge windows.
var LiveLayout = []Pane{
	{Name: pipeline.WindowFrame, X: 0, Y: 100},
	{Name: pipeline.WindowGray, X: 640, Y: 100},
	{Name: pipeline.WindowCanny, X: 200, Y: 100},
}

// GrayLayout places the colour and gray windows side by side.
var GrayLayout = []Pane{
	{Name: pipeline.WindowFrame, X: 0, Y: 100},
	{Name: pipeline.WindowGray, X: 640, Y: 100},
}

// Window is an on-screen image display. *gocv.Window satisfies it.
type Window interface {
	IMShow(img gocv.Mat) error
	WaitKey(delay int) int
	Close() error
}

var _ Window = (*gocv.Window)(nil)

// WindowFactory creates the window for a pane.
type WindowFactory func(p Pane) Window

// NewGocvWindow opens an autosized HighGUI window at the pane's position.
// Placement failures are logged; the window stays usable at its default spot.
func NewGocvWindow(p Pane) Window {
	w := gocv.NewWindow(p.Name)
	if err := w.SetWindowProperty(gocv.WindowPropertyAutosize, gocv.WindowAutosize); err != nil {
		slog.Warn("window autosize failed", "window", p.Name, "error", err)
	}
	if err := w.MoveWindow(p.X, p.Y); err != nil {
		slog.Warn("window move failed", "window", p.Name, "error", err)
	}
	return w
}

// Display is the set of open windows for one layout.
type Display struct {
	panes   []Pane
	windows []Window
	logger  *slog.Logger
}

// OpenDisplay creates one window per pane, in layout order.
func OpenDisplay(layout []Pane, factory WindowFactory, logger *slog.Logger) *Display {
	if factory == nil {
		factory = NewGocvWindow
	}
	if logger == nil {
		logger = slog.Default()
	}
	d := &Display{panes: layout, logger: logger}
	for _, p := range layout {
		d.windows = append(d.windows, factory(p))
	}
	return d
}

// Panes returns the layout.
func (d *Display) Panes() []Pane {
	return d.panes
}

// Show renders each pane's view and returns how many panes failed to render.
// Panes without a view are left unchanged. A failing pane does not stop the others.
func (d *Display) Show(res *pipeline.Result, frame gocv.Mat) int {
	failed := 0
	for i, p := range d.panes {
		img, ok := res.View(p.Name, frame)
		if !ok || img.Empty() {
			continue
		}
		if err := d.windows[i].IMShow(img); err != nil {
			failed++
			d.logger.Warn("render failed", "window", p.Name, "error", err)
		}
	}
	return failed
}

// WaitKey polls the keyboard for delayMs milliseconds. Returns -1 with no
// windows open.
func (d *Display) WaitKey(delayMs int) int {
	if len(d.windows) == 0 {
		return -1
	}
	return d.windows[0].WaitKey(delayMs)
}

// Close destroys every window.
func (d *Display) Close() {
	for _, w := range d.windows {
		w.Close()
	}
	d.windows = nil
	d.panes = nil
}
