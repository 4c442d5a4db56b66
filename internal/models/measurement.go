package models

import "time"

// Load status values derived from load/capacity ratio.
const (
	LoadStatusNormal   = "normal"
	LoadStatusWarning  = "warning"
	LoadStatusOverload = "overload"
)

// Alarm severity values.
const (
	AlarmSeverityLow  = "low"
	AlarmSeverityHigh = "high"
)

// MotorMeasurement is one electrical snapshot across the three motor
// subsystems. Per-subsystem fields are nil when absent from the source
// message; totals sum only the fields that were present.
type MotorMeasurement struct {
	ID      int64 `db:"id" json:"id"`
	CraneID int64 `db:"crane_id" json:"crane_id"`

	HoistVoltage   *float64 `db:"hoist_voltage" json:"hoist_voltage,omitempty"`
	HoistCurrent   *float64 `db:"hoist_current" json:"hoist_current,omitempty"`
	HoistPower     *float64 `db:"hoist_power" json:"hoist_power,omitempty"`
	HoistFrequency *float64 `db:"hoist_frequency" json:"hoist_frequency,omitempty"`

	CTVoltage   *float64 `db:"ct_voltage" json:"ct_voltage,omitempty"`
	CTCurrent   *float64 `db:"ct_current" json:"ct_current,omitempty"`
	CTPower     *float64 `db:"ct_power" json:"ct_power,omitempty"`
	CTFrequency *float64 `db:"ct_frequency" json:"ct_frequency,omitempty"`

	LTVoltage   *float64 `db:"lt_voltage" json:"lt_voltage,omitempty"`
	LTCurrent   *float64 `db:"lt_current" json:"lt_current,omitempty"`
	LTPower     *float64 `db:"lt_power" json:"lt_power,omitempty"`
	LTFrequency *float64 `db:"lt_frequency" json:"lt_frequency,omitempty"`

	TotalPower   float64 `db:"total_power" json:"total_power"`
	TotalCurrent float64 `db:"total_current" json:"total_current"`

	Timestamp time.Time `db:"timestamp" json:"timestamp"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// IOStatus is a point sample of the discrete operation flags. Durations
// are derived by comparing consecutive samples, never stored here.
type IOStatus struct {
	ID      int64 `db:"id" json:"id"`
	CraneID int64 `db:"crane_id" json:"crane_id"`

	Start     bool `db:"start" json:"start"`
	Stop      bool `db:"stop" json:"stop"`
	HoistUp   bool `db:"hoist_up" json:"hoist_up"`
	HoistDown bool `db:"hoist_down" json:"hoist_down"`
	CTLeft    bool `db:"ct_left" json:"ct_left"`
	CTRight   bool `db:"ct_right" json:"ct_right"`
	LTForward bool `db:"lt_forward" json:"lt_forward"`
	LTReverse bool `db:"lt_reverse" json:"lt_reverse"`

	Timestamp time.Time `db:"timestamp" json:"timestamp"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// LoadMeasurement is one load-cell reading paired with the capacity that
// was in effect when it arrived. Percentage and status are recomputed at
// write time from load and capacity.
type LoadMeasurement struct {
	ID             int64     `db:"id" json:"id"`
	CraneID        int64     `db:"crane_id" json:"crane_id"`
	Load           float64   `db:"load" json:"load"`
	Capacity       float64   `db:"capacity" json:"capacity"`
	LoadPercentage float64   `db:"load_percentage" json:"load_percentage"`
	Status         string    `db:"status" json:"status"`
	Timestamp      time.Time `db:"timestamp" json:"timestamp"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Alarm is one snapshot of the three alarm lines with the derived
// summary and severity. Acknowledgement is mutated externally only.
type Alarm struct {
	ID             int64     `db:"id" json:"id"`
	CraneID        int64     `db:"crane_id" json:"crane_id"`
	AlarmOne       bool      `db:"alarm_one" json:"alarm_one"`
	AlarmTwo       bool      `db:"alarm_two" json:"alarm_two"`
	AlarmThree     bool      `db:"alarm_three" json:"alarm_three"`
	Message        string    `db:"alarm_message" json:"alarm_message"`
	Severity       string    `db:"alarm_severity" json:"alarm_severity"`
	IsAcknowledged bool      `db:"is_acknowledged" json:"is_acknowledged"`
	Timestamp      time.Time `db:"timestamp" json:"timestamp"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Active reports whether any alarm line is set.
func (a *Alarm) Active() bool {
	return a.AlarmOne || a.AlarmTwo || a.AlarmThree
}
