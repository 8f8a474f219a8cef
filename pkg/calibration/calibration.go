// Package calibration loads camera intrinsics (camera matrix and distortion
// coefficients) from a YAML file.
//
// Expected layout:
//
//	CM:
//	  - [fx, 0, cx]
//	  - [0, fy, cy]
//	  - [0, 0, 1]
//	dist_coef: [k1, k2, p1, p2, k3]
package calibration

import (
	"errors"
	"fmt"
	"os"

	"gocv.io/x/gocv"
	"gopkg.in/yaml.v3"
)

// ErrInvalidCalibration is returned when the file parses but its shape is wrong.
var ErrInvalidCalibration = errors.New("invalid calibration")

// Calibration holds lens geometry for one camera.
type Calibration struct {
	CameraMatrix [3][3]float64
	Distortion   []float64
}

type fileFormat struct {
	CM       [][]float64 `yaml:"CM"`
	DistCoef yaml.Node   `yaml:"dist_coef"`
}

// Load reads and validates a calibration file.
func Load(path string) (*Calibration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read calibration: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes calibration YAML.
func Parse(data []byte) (*Calibration, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse calibration: %w", err)
	}

	if len(f.CM) != 3 {
		return nil, fmt.Errorf("%w: CM has %d rows, want 3", ErrInvalidCalibration, len(f.CM))
	}
	var c Calibration
	for i, row := range f.CM {
		if len(row) != 3 {
			return nil, fmt.Errorf("%w: CM row %d has %d columns, want 3", ErrInvalidCalibration, i, len(row))
		}
		copy(c.CameraMatrix[i][:], row)
	}
	if fx, fy := c.FocalLength(); fx <= 0 || fy <= 0 {
		return nil, fmt.Errorf("%w: focal length must be positive (fx=%g fy=%g)", ErrInvalidCalibration, fx, fy)
	}

	dist, err := decodeCoefficients(&f.DistCoef)
	if err != nil {
		return nil, err
	}
	c.Distortion = dist

	return &c, nil
}

// decodeCoefficients accepts a flat list or a single nested row ([[k1, ...]]),
// the shape OpenCV's calibrateCamera produces.
func decodeCoefficients(n *yaml.Node) ([]float64, error) {
	if n.Kind == 0 {
		return nil, fmt.Errorf("%w: dist_coef missing", ErrInvalidCalibration)
	}

	var flat []float64
	if err := n.Decode(&flat); err != nil {
		var nested [][]float64
		if nerr := n.Decode(&nested); nerr != nil || len(nested) != 1 {
			return nil, fmt.Errorf("%w: dist_coef must be a list of numbers", ErrInvalidCalibration)
		}
		flat = nested[0]
	}

	switch len(flat) {
	case 4, 5, 8, 12, 14:
		return flat, nil
	}
	return nil, fmt.Errorf("%w: dist_coef has %d values, want 4, 5, 8, 12 or 14", ErrInvalidCalibration, len(flat))
}

// FocalLength returns fx and fy in pixels.
func (c *Calibration) FocalLength() (fx, fy float64) {
	return c.CameraMatrix[0][0], c.CameraMatrix[1][1]
}

// Principal returns the principal point in pixels.
func (c *Calibration) Principal() (cx, cy float64) {
	return c.CameraMatrix[0][2], c.CameraMatrix[1][2]
}

// EstimateDistance returns the pinhole range to a square marker of sizeMM
// whose side spans sidePx pixels. The result is in the marker's unit.
func (c *Calibration) EstimateDistance(sidePx, sizeMM float64) float64 {
	if sidePx <= 0 {
		return 0
	}
	fx, fy := c.FocalLength()
	return (fx + fy) / 2 * sizeMM / sidePx
}

// Mats returns the camera matrix (3x3) and distortion coefficients (1xN) as
// CV_64F matrices. The caller must Close both.
func (c *Calibration) Mats() (cm, dist gocv.Mat) {
	cm = gocv.NewMatWithSize(3, 3, gocv.MatTypeCV64F)
	for r := 0; r < 3; r++ {
		for col := 0; col < 3; col++ {
			cm.SetDoubleAt(r, col, c.CameraMatrix[r][col])
		}
	}

	dist = gocv.NewMatWithSize(1, len(c.Distortion), gocv.MatTypeCV64F)
	for i, v := range c.Distortion {
		dist.SetDoubleAt(0, i, v)
	}
	return cm, dist
}
