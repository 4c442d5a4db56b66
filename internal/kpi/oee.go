package kpi

import (
	"time"

	"cranewatch/internal/models"
)

// Quality has no measured signal yet; the constant is a documented
// placeholder, not derived from any input.
const qualityConstant = 99.0

// nominalCyclesPerHour is the fixed ideal cycle rate used by the
// performance figure.
const nominalCyclesPerHour = 60.0

// Metrics are the four OEE figures, each in [0, 100].
type Metrics struct {
	Availability float64
	Performance  float64
	Quality      float64
	OEE          float64
}

// isOperating reports whether any of the six motion flags is set.
// Start/stop are control signals, not motion.
func isOperating(s *models.IOStatus) bool {
	return s.HoistUp || s.HoistDown || s.CTLeft || s.CTRight || s.LTForward || s.LTReverse
}

// OperatingTime accrues time spent in any motion state over ordered
// samples. Unlike OperationDurations this reducer DOES flush a span
// still open at the window's right edge, crediting it up to end. The
// two reducers intentionally differ in edge handling; callers depend on
// each behavior separately.
func OperatingTime(samples []models.IOStatus, end time.Time) time.Duration {
	var total time.Duration
	var openedAt time.Time
	open := false

	for i := range samples {
		operating := isOperating(&samples[i])
		switch {
		case operating && !open:
			openedAt = samples[i].Timestamp
			open = true
		case !operating && open:
			total += samples[i].Timestamp.Sub(openedAt)
			open = false
		}
	}
	if open {
		total += end.Sub(openedAt)
	}
	return total
}

// Availability is operating time over planned time as a percentage,
// capped at 100. Planned time defaults to the whole window.
func Availability(samples []models.IOStatus, start, end time.Time) float64 {
	planned := end.Sub(start)
	if planned <= 0 {
		return 0
	}
	operating := OperatingTime(samples, end)
	pct := operating.Seconds() / planned.Seconds() * 100
	if pct > 100 {
		return 100
	}
	return pct
}

// Performance compares observed hoist-up samples against the nominal
// cycle rate for the window, capped at 100.
func Performance(hoistUpSamples int, start, end time.Time) float64 {
	hours := end.Sub(start).Hours()
	if hours <= 0 {
		return 0
	}
	ideal := nominalCyclesPerHour * hours
	pct := float64(hoistUpSamples) / ideal * 100
	if pct > 100 {
		return 100
	}
	return pct
}

// ComputeOEE derives the four figures for [start, end) from ordered
// samples. OEE = Availability x Performance x Quality / 10000.
func ComputeOEE(samples []models.IOStatus, start, end time.Time) Metrics {
	hoistUp := 0
	for i := range samples {
		if samples[i].HoistUp {
			hoistUp++
		}
	}
	m := Metrics{
		Availability: Availability(samples, start, end),
		Performance:  Performance(hoistUp, start, end),
		Quality:      qualityConstant,
	}
	m.OEE = m.Availability * m.Performance * m.Quality / 10000
	return m
}
