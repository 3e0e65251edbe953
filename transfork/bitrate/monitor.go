package bitrate

import "sync"

// Monitor records the latest reported bitrate and runs it through a
// ShiftDetector. It is safe for concurrent use.
type Monitor struct {
	mu       sync.Mutex
	detector ShiftDetector
	latest   uint64
	shifts   int
}

// NewMonitor returns a Monitor using detector.
// If detector is nil, an EWMA detector with alpha 0.2, a 30% threshold and
// 3 warm-up samples is used.
func NewMonitor(detector ShiftDetector) *Monitor {
	if detector == nil {
		detector = NewEWMAShiftDetector(0.2, 0.3, 3)
	}
	return &Monitor{detector: detector}
}

// Record stores bps and reports whether it is a shift.
func (m *Monitor) Record(bps uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.latest = bps
	if m.detector.Detect(float64(bps)) {
		m.shifts++
		return true
	}
	return false
}

// Latest returns the last recorded bitrate, or 0 before the first sample.
func (m *Monitor) Latest() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.latest
}

// Shifts returns the number of shifts detected.
func (m *Monitor) Shifts() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.shifts
}
