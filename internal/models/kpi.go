package models

import "time"

// HourlyKPI is the per-crane aggregate for one wall-clock hour bucket.
// Unique per (crane, hour_start); rollup re-runs replace the row.
type HourlyKPI struct {
	ID        int64     `db:"id" json:"id"`
	CraneID   int64     `db:"crane_id" json:"crane_id"`
	HourStart time.Time `db:"hour_start" json:"hour_start"`
	HourEnd   time.Time `db:"hour_end" json:"hour_end"`

	HoistUpTime     time.Duration `db:"hoist_up_time" json:"hoist_up_time"`
	HoistDownTime   time.Duration `db:"hoist_down_time" json:"hoist_down_time"`
	CTLeftTime      time.Duration `db:"ct_left_time" json:"ct_left_time"`
	CTRightTime     time.Duration `db:"ct_right_time" json:"ct_right_time"`
	LTForwardTime   time.Duration `db:"lt_forward_time" json:"lt_forward_time"`
	LTReverseTime   time.Duration `db:"lt_reverse_time" json:"lt_reverse_time"`
	StopTime        time.Duration `db:"stop_time" json:"stop_time"`
	TotalMotionTime time.Duration `db:"total_motion_time" json:"total_motion_time"`

	HoistUpCount   int `db:"hoist_up_count" json:"hoist_up_count"`
	HoistDownCount int `db:"hoist_down_count" json:"hoist_down_count"`
	CTLeftCount    int `db:"ct_left_count" json:"ct_left_count"`
	CTRightCount   int `db:"ct_right_count" json:"ct_right_count"`
	LTForwardCount int `db:"lt_forward_count" json:"lt_forward_count"`
	LTReverseCount int `db:"lt_reverse_count" json:"lt_reverse_count"`
	StopCount      int `db:"stop_count" json:"stop_count"`

	TotalLifts           int     `db:"total_lifts" json:"total_lifts"`
	TotalMassMovedTonnes float64 `db:"total_mass_moved_tonnes" json:"total_mass_moved_tonnes"`
	AverageLoadPerLift   float64 `db:"average_load_per_lift" json:"average_load_per_lift"`

	TotalEnergyKWh   float64 `db:"total_energy_kwh" json:"total_energy_kwh"`
	HourlyEnergyCost float64 `db:"hourly_energy_cost" json:"hourly_energy_cost"`
	EnergyPerTon     float64 `db:"energy_per_ton" json:"energy_per_ton"`
	SystemEfficiency float64 `db:"system_efficiency" json:"system_efficiency"`

	Availability float64 `db:"availability" json:"availability"`
	Performance  float64 `db:"performance" json:"performance"`
	Quality      float64 `db:"quality" json:"quality"`
	OEE          float64 `db:"oee" json:"oee"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// DailyKPI aggregates the hourly rows of one date for one crane.
// Unique per (crane, date, shift). Shift partitioning beyond the single
// fixed "day" value is an extension point, not implemented.
type DailyKPI struct {
	ID      int64     `db:"id" json:"id"`
	CraneID int64     `db:"crane_id" json:"crane_id"`
	Date    time.Time `db:"date" json:"date"`
	Shift   string    `db:"shift" json:"shift"`

	TotalOperationTime   time.Duration `db:"total_operation_time" json:"total_operation_time"`
	TotalLifts           int           `db:"total_lifts" json:"total_lifts"`
	TotalMassMovedTonnes float64       `db:"total_mass_moved_tonnes" json:"total_mass_moved_tonnes"`

	TotalEnergyKWh      float64 `db:"total_energy_kwh" json:"total_energy_kwh"`
	TotalEnergyCost     float64 `db:"total_energy_cost" json:"total_energy_cost"`
	AverageEnergyPerTon float64 `db:"average_energy_per_ton" json:"average_energy_per_ton"`
	AverageEfficiency   float64 `db:"average_efficiency" json:"average_efficiency"`

	PeakLoad           float64 `db:"peak_load" json:"peak_load"`
	AveragePowerDemand float64 `db:"average_power_demand" json:"average_power_demand"`

	Availability float64 `db:"availability" json:"availability"`
	Performance  float64 `db:"performance" json:"performance"`
	Quality      float64 `db:"quality" json:"quality"`
	OEE          float64 `db:"oee" json:"oee"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ShiftDay is the only shift value currently written by the rollup.
const ShiftDay = "day"
