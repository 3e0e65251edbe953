package bitrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockShiftDetector struct {
	mock.Mock
}

func (m *MockShiftDetector) Detect(bps float64) bool {
	args := m.Called(bps)
	return args.Bool(0)
}

func TestMonitor_Record(t *testing.T) {
	detector := &MockShiftDetector{}
	detector.On("Detect", float64(1000)).Return(false)
	detector.On("Detect", float64(5000)).Return(true)

	m := NewMonitor(detector)
	assert.Equal(t, uint64(0), m.Latest())

	assert.False(t, m.Record(1000))
	assert.Equal(t, uint64(1000), m.Latest())
	assert.Equal(t, 0, m.Shifts())

	assert.True(t, m.Record(5000))
	assert.Equal(t, uint64(5000), m.Latest())
	assert.Equal(t, 1, m.Shifts())

	detector.AssertNumberOfCalls(t, "Detect", 2)
}

func TestMonitor_DefaultDetector(t *testing.T) {
	m := NewMonitor(nil)

	for range 3 {
		assert.False(t, m.Record(1000))
	}
	assert.False(t, m.Record(1100))
	assert.True(t, m.Record(4000))
	assert.Equal(t, 1, m.Shifts())
}
