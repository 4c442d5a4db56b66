package kpi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"cranewatch/internal/models"
)

func TestOperatingTimeFlushesOpenSpan(t *testing.T) {
	end := base.Add(time.Hour)
	samples := []models.IOStatus{
		hoistUpAt(0),
		hoistUpAt(10 * time.Minute),
	}

	// Motion never observed stopping, so the span runs to the window edge.
	assert.Equal(t, time.Hour, OperatingTime(samples, end))
}

func TestOperatingTimeClosedSpans(t *testing.T) {
	end := base.Add(time.Hour)
	samples := []models.IOStatus{
		hoistUpAt(0),
		idleAt(10 * time.Minute),
		ioAt(30*time.Minute, func(s *models.IOStatus) { s.LTForward = true }),
		idleAt(45 * time.Minute),
	}

	assert.Equal(t, 25*time.Minute, OperatingTime(samples, end))
}

func TestOperatingTimeStartStopAreNotMotion(t *testing.T) {
	end := base.Add(time.Hour)
	samples := []models.IOStatus{
		ioAt(0, func(s *models.IOStatus) { s.Start = true }),
		ioAt(10*time.Minute, func(s *models.IOStatus) { s.Stop = true }),
	}

	assert.Equal(t, time.Duration(0), OperatingTime(samples, end))
}

func TestAvailabilityBounds(t *testing.T) {
	end := base.Add(time.Hour)

	assert.Equal(t, 0.0, Availability(nil, base, end))

	alwaysOn := []models.IOStatus{hoistUpAt(0)}
	assert.Equal(t, 100.0, Availability(alwaysOn, base, end))

	assert.Equal(t, 0.0, Availability(alwaysOn, end, base))
}

func TestPerformanceCapped(t *testing.T) {
	end := base.Add(time.Hour)

	assert.InDelta(t, 50.0, Performance(30, base, end), 1e-9)
	assert.Equal(t, 100.0, Performance(120, base, end))
	assert.Equal(t, 0.0, Performance(30, base, base))
}

func TestComputeOEEIdleWindow(t *testing.T) {
	end := base.Add(time.Hour)
	m := ComputeOEE(nil, base, end)

	assert.Equal(t, 0.0, m.Availability)
	assert.Equal(t, 0.0, m.Performance)
	assert.Equal(t, 99.0, m.Quality)
	assert.Equal(t, 0.0, m.OEE)
}

func TestComputeOEEBusyWindow(t *testing.T) {
	end := base.Add(time.Hour)
	samples := make([]models.IOStatus, 0, 60)
	for i := 0; i < 60; i++ {
		samples = append(samples, hoistUpAt(time.Duration(i)*time.Minute))
	}

	m := ComputeOEE(samples, base, end)
	assert.Equal(t, 100.0, m.Availability)
	assert.Equal(t, 100.0, m.Performance)
	assert.Equal(t, 99.0, m.Quality)
	assert.InDelta(t, 99.0, m.OEE, 1e-9)
}

func TestComputeOEEWithinBounds(t *testing.T) {
	end := base.Add(time.Hour)
	samples := []models.IOStatus{
		hoistUpAt(0),
		idleAt(30 * time.Minute),
	}

	m := ComputeOEE(samples, base, end)
	assert.InDelta(t, 50.0, m.Availability, 1e-9)
	assert.InDelta(t, 100.0/60.0, m.Performance, 1e-9)
	assert.InDelta(t, m.Availability*m.Performance*99.0/10000, m.OEE, 1e-9)
}
