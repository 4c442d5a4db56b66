package kpi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"cranewatch/internal/models"
)

func motorAt(offset time.Duration, totalPower float64) models.MotorMeasurement {
	return models.MotorMeasurement{CraneID: 7, TotalPower: totalPower, Timestamp: base.Add(offset)}
}

func TestEnergyKWhTrapezoidal(t *testing.T) {
	samples := []models.MotorMeasurement{
		motorAt(0, 10),
		motorAt(time.Hour, 20),
	}
	assert.InDelta(t, 15.0, EnergyKWh(samples), 1e-9)
}

func TestEnergyKWhUnevenSpacing(t *testing.T) {
	samples := []models.MotorMeasurement{
		motorAt(0, 10),
		motorAt(30*time.Minute, 20),
		motorAt(90*time.Minute, 0),
	}
	// 15 kW for 0.5 h plus 10 kW for 1 h.
	assert.InDelta(t, 17.5, EnergyKWh(samples), 1e-9)
}

func TestEnergyKWhNeedsAPair(t *testing.T) {
	assert.Equal(t, 0.0, EnergyKWh(nil))
	assert.Equal(t, 0.0, EnergyKWh([]models.MotorMeasurement{motorAt(0, 50)}))
}

func TestEnergyCost(t *testing.T) {
	assert.InDelta(t, 2.25, EnergyCost(15, 0.15), 1e-9)
}

func TestEnergyPerTon(t *testing.T) {
	assert.InDelta(t, 3.0, EnergyPerTon(15, 5), 1e-9)
	assert.Equal(t, 0.0, EnergyPerTon(15, 0))
}

func TestSystemEfficiency(t *testing.T) {
	assert.InDelta(t, 50.0, SystemEfficiency(2.0, 1.0), 1e-9)
	assert.Equal(t, 100.0, SystemEfficiency(0.5, 1.0))
	assert.Equal(t, 0.0, SystemEfficiency(0, 1.0))
	assert.Equal(t, 0.0, SystemEfficiency(2.0, 0))
}
