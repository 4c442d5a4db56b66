package kpi

import (
	"time"

	"cranewatch/internal/models"
)

// Operation is one of the mutually-exclusive discrete motion states
// inferred from the I/O flags.
type Operation string

const (
	OpHoistUp   Operation = "hoist_up"
	OpHoistDown Operation = "hoist_down"
	OpCTLeft    Operation = "ct_left"
	OpCTRight   Operation = "ct_right"
	OpLTForward Operation = "lt_forward"
	OpLTReverse Operation = "lt_reverse"
	OpStop      Operation = "stop"
)

// Operations lists every tracked operation in priority order.
var Operations = []Operation{
	OpHoistUp, OpHoistDown, OpCTLeft, OpCTRight, OpLTForward, OpLTReverse, OpStop,
}

// liftDebounce treats hoist-up samples closer together than this as one
// continuous lift.
const liftDebounce = 5 * time.Second

// ActiveOperation resolves a sample to at most one operation by testing
// flags in fixed priority order. Multiple set flags still resolve to a
// single operation; the empty string means no flag was set.
func ActiveOperation(s *models.IOStatus) Operation {
	switch {
	case s.HoistUp:
		return OpHoistUp
	case s.HoistDown:
		return OpHoistDown
	case s.CTLeft:
		return OpCTLeft
	case s.CTRight:
		return OpCTRight
	case s.LTForward:
		return OpLTForward
	case s.LTReverse:
		return OpLTReverse
	case s.Stop:
		return OpStop
	default:
		return ""
	}
}

// OperationDurations reduces ordered samples into per-operation accrued
// time. A transition closes the span opened by the previous differing
// sample and credits it to the previous operation. A span still open
// after the last sample is NOT closed: time only accrues when a
// differing sample is observed. Unobserved operations stay at zero.
func OperationDurations(samples []models.IOStatus) map[Operation]time.Duration {
	durations := make(map[Operation]time.Duration, len(Operations))
	for _, op := range Operations {
		durations[op] = 0
	}

	var current Operation
	var openedAt time.Time
	opened := false

	for i := range samples {
		next := ActiveOperation(&samples[i])
		if !opened {
			current = next
			openedAt = samples[i].Timestamp
			opened = true
			continue
		}
		if next == current {
			continue
		}
		if current != "" {
			durations[current] += samples[i].Timestamp.Sub(openedAt)
		}
		current = next
		openedAt = samples[i].Timestamp
	}
	return durations
}

// CountLifts counts discrete lift cycles from the hoist-up samples in
// the given ordered window. Samples within the debounce gap belong to
// the same lift; the first sample only initializes state, so N
// well-separated bursts count as N-1.
func CountLifts(samples []models.IOStatus) int {
	count := 0
	var last time.Time
	seen := false
	for i := range samples {
		if !samples[i].HoistUp {
			continue
		}
		if !seen {
			seen = true
			last = samples[i].Timestamp
			continue
		}
		if samples[i].Timestamp.Sub(last) > liftDebounce {
			count++
		}
		last = samples[i].Timestamp
	}
	return count
}

// TotalMassMoved estimates tonnage lifted from ordered load samples:
// whenever the load rises above the previous sample the full current
// load is added (not the delta), and the reference always follows the
// current sample. The running kg total converts to tonnes.
func TotalMassMoved(samples []models.LoadMeasurement) float64 {
	totalKG := 0.0
	lastLoad := 0.0
	for i := range samples {
		if samples[i].Load > lastLoad {
			totalKG += samples[i].Load
		}
		lastLoad = samples[i].Load
	}
	return totalKG / 1000
}

// AverageLoadPerLift is mass per lift, zero when no lifts occurred.
func AverageLoadPerLift(massTonnes float64, lifts int) float64 {
	if lifts <= 0 {
		return 0
	}
	return massTonnes / float64(lifts)
}
