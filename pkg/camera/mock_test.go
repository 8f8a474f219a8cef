package camera

import (
	"errors"

	"gocv.io/x/gocv"
)

// mockDevice emulates a driver that clamps unsupported requests.
type mockDevice struct {
	opened    bool
	supported map[Resolution]bool
	echoAll   bool
	fixed     *Resolution

	requested Resolution
	current   Resolution
	sets      int
	gets      int
	reads     int
	closed    bool
}

func newMockDevice(supported ...Resolution) *mockDevice {
	m := &mockDevice{
		opened:    true,
		supported: make(map[Resolution]bool),
		current:   Fallback,
	}
	for _, r := range supported {
		m.supported[r] = true
	}
	return m
}

func (m *mockDevice) IsOpened() bool { return m.opened }

func (m *mockDevice) Set(prop gocv.VideoCaptureProperties, v float64) {
	m.sets++
	switch prop {
	case gocv.VideoCaptureFrameWidth:
		m.requested.Width = int(v)
	case gocv.VideoCaptureFrameHeight:
		m.requested.Height = int(v)
		m.apply()
	}
}

func (m *mockDevice) apply() {
	switch {
	case m.fixed != nil:
		m.current = *m.fixed
	case m.echoAll || m.supported[m.requested]:
		m.current = m.requested
	}
}

func (m *mockDevice) Get(prop gocv.VideoCaptureProperties) float64 {
	m.gets++
	switch prop {
	case gocv.VideoCaptureFrameWidth:
		return float64(m.current.Width)
	case gocv.VideoCaptureFrameHeight:
		return float64(m.current.Height)
	}
	return 0
}

func (m *mockDevice) Read(*gocv.Mat) bool {
	m.reads++
	return false
}

func (m *mockDevice) Close() error {
	m.closed = true
	return nil
}

func (m *mockDevice) ops() int {
	return m.sets + m.gets + m.reads
}

// mockOpener records the order of open attempts.
type mockOpener struct {
	devices  map[int]*mockDevice
	attempts []int
}

func (o *mockOpener) open(index int) (Device, error) {
	o.attempts = append(o.attempts, index)
	dev, ok := o.devices[index]
	if !ok {
		return nil, errors.New("no such device")
	}
	return dev, nil
}
