package models

import "time"

// Crane represents one monitored lifting unit.
type Crane struct {
	ID             int64     `db:"id" json:"id"`
	Name           string    `db:"crane_name" json:"crane_name"`
	Type           string    `db:"crane_type" json:"crane_type"`
	CapacityTonnes float64   `db:"capacity_tonnes" json:"capacity_tonnes"`
	Location       string    `db:"location" json:"location"`
	Status         string    `db:"status" json:"status"`
	IsActive       bool      `db:"is_active" json:"is_active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// TopicBinding maps an ingress MQTT topic to its owning crane.
// At most one active binding exists per crane.
type TopicBinding struct {
	ID        int64     `db:"id" json:"id"`
	CraneID   int64     `db:"crane_id" json:"crane_id"`
	Topic     string    `db:"mqtt_topic" json:"mqtt_topic"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CraneConfiguration holds per-crane tariff, capacity and KPI targets.
// Read-only input to the KPI engine; mutated only by configuration
// actions and by capacity values observed in telemetry.
type CraneConfiguration struct {
	CraneID            int64     `db:"crane_id" json:"crane_id"`
	TariffRate         float64   `db:"tariff_rate" json:"tariff_rate"`
	Currency           string    `db:"currency" json:"currency"`
	TargetEnergyPerTon float64   `db:"target_energy_per_ton" json:"target_energy_per_ton"`
	MaxLoadCapacity    float64   `db:"max_load_capacity" json:"max_load_capacity"`
	WarningThreshold   float64   `db:"warning_threshold" json:"warning_threshold"`
	OverloadThreshold  float64   `db:"overload_threshold" json:"overload_threshold"`
	TargetAvailability float64   `db:"target_availability" json:"target_availability"`
	TargetPerformance  float64   `db:"target_performance" json:"target_performance"`
	TargetQuality      float64   `db:"target_quality" json:"target_quality"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// Defaults used when a crane has no configuration row.
const (
	DefaultTariffRate         = 0.15
	DefaultTargetEnergyPerTon = 1.0
	DefaultWarningThreshold   = 80.0
	DefaultOverloadThreshold  = 95.0
)

// FieldMapping is an explicit per-crane override of the generic
// substring field router: incoming payload field name to canonical slot.
type FieldMapping struct {
	ID            int64  `db:"id" json:"id"`
	CraneID       int64  `db:"crane_id" json:"crane_id"`
	IncomingField string `db:"incoming_field_name" json:"incoming_field_name"`
	MappedField   string `db:"mapped_field_name" json:"mapped_field_name"`
	FieldType     string `db:"field_type" json:"field_type"`
	IsActive      bool   `db:"is_active" json:"is_active"`
}
