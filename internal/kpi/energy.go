package kpi

import "cranewatch/internal/models"

// EnergyKWh integrates total power over ordered motor samples with the
// trapezoidal rule. A lone sample contributes nothing; integration
// needs a pair. TotalPower is always materialized at write time, so a
// subsystem missing from a message already contributed zero.
func EnergyKWh(samples []models.MotorMeasurement) float64 {
	total := 0.0
	for i := 1; i < len(samples); i++ {
		dtHours := samples[i].Timestamp.Sub(samples[i-1].Timestamp).Hours()
		avgPower := (samples[i-1].TotalPower + samples[i].TotalPower) / 2
		total += avgPower * dtHours
	}
	return total
}

// EnergyCost prices consumed energy at the unit tariff.
func EnergyCost(energyKWh, tariffRate float64) float64 {
	return energyKWh * tariffRate
}

// EnergyPerTon is consumption per tonne moved, zero when nothing moved.
func EnergyPerTon(energyKWh, massTonnes float64) float64 {
	if massTonnes <= 0 {
		return 0
	}
	return energyKWh / massTonnes
}

// SystemEfficiency compares actual against target energy-per-ton,
// capped at 100. Zero when either figure is unusable.
func SystemEfficiency(actualEnergyPerTon, targetEnergyPerTon float64) float64 {
	if targetEnergyPerTon <= 0 || actualEnergyPerTon <= 0 {
		return 0
	}
	efficiency := targetEnergyPerTon / actualEnergyPerTon * 100
	if efficiency > 100 {
		return 100
	}
	return efficiency
}
