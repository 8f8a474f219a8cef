// Package detection finds ArUco fiducial markers in camera frames
package detection

import (
	"math"

	"gocv.io/x/gocv"
)

// Marker is one detected fiducial
type Marker struct {
	ID      int
	Corners [4]gocv.Point2f // Clockwise from top-left, in pixels
}

// Center returns the mean of the four corners
func (m Marker) Center() (x, y float64) {
	for _, p := range m.Corners {
		x += float64(p.X)
		y += float64(p.Y)
	}
	return x / 4, y / 4
}

// SideLength returns the mean edge length in pixels
func (m Marker) SideLength() float64 {
	var total float64
	for i := range m.Corners {
		a := m.Corners[i]
		b := m.Corners[(i+1)%4]
		total += math.Hypot(float64(b.X-a.X), float64(b.Y-a.Y))
	}
	return total / 4
}

// Markers is the raw output of one detection pass, in the shape OpenCV's
// drawing call expects. Corners and IDs always have the same length.
type Markers struct {
	Corners [][]gocv.Point2f
	IDs     []int
}

// NewMarkers pairs corner sets with ids, trimming to the shorter list.
func NewMarkers(corners [][]gocv.Point2f, ids []int) Markers {
	n := len(corners)
	if len(ids) < n {
		n = len(ids)
	}
	return Markers{Corners: corners[:n], IDs: ids[:n]}
}

// Len returns the number of markers
func (m Markers) Len() int {
	return len(m.IDs)
}

// Empty reports whether nothing was detected
func (m Markers) Empty() bool {
	return m.Len() == 0
}

// List converts to per-marker values. Corner sets that are not quadrilaterals are skipped.
func (m Markers) List() []Marker {
	out := make([]Marker, 0, m.Len())
	for i, id := range m.IDs {
		if len(m.Corners[i]) != 4 {
			continue
		}
		mk := Marker{ID: id}
		copy(mk.Corners[:], m.Corners[i])
		out = append(out, mk)
	}
	return out
}
