package repository

import (
	"context"
	"database/sql"
	"errors"

	"cranewatch/internal/models"
)

// ConfigRepository owns the per-crane configuration rows.
type ConfigRepository struct {
	db *sql.DB
}

// NewConfigRepository returns repository.
func NewConfigRepository(db *sql.DB) *ConfigRepository {
	return &ConfigRepository{db: db}
}

// GetOrCreate returns the crane's configuration, creating a defaults
// row when none exists. The capacity of a fresh row comes from the
// crane's rated tonnage.
func (r *ConfigRepository) GetOrCreate(ctx context.Context, craneID int64) (*models.CraneConfiguration, error) {
	const insert = `
		INSERT INTO crane_configurations (
			crane_id, tariff_rate, currency, target_energy_per_ton, max_load_capacity,
			warning_threshold, overload_threshold,
			target_availability, target_performance, target_quality, updated_at
		)
		SELECT c.id, $2, 'USD', $3, c.capacity_tonnes * 1000, $4, $5, 90.0, 95.0, 99.0, NOW()
		FROM cranes c
		WHERE c.id = $1
		ON CONFLICT (crane_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, insert, craneID,
		models.DefaultTariffRate, models.DefaultTargetEnergyPerTon,
		models.DefaultWarningThreshold, models.DefaultOverloadThreshold); err != nil {
		return nil, err
	}

	const query = `
		SELECT crane_id, tariff_rate, currency, target_energy_per_ton, max_load_capacity,
		       warning_threshold, overload_threshold,
		       target_availability, target_performance, target_quality, updated_at
		FROM crane_configurations
		WHERE crane_id = $1
	`
	var cfg models.CraneConfiguration
	err := r.db.QueryRowContext(ctx, query, craneID).Scan(
		&cfg.CraneID, &cfg.TariffRate, &cfg.Currency, &cfg.TargetEnergyPerTon, &cfg.MaxLoadCapacity,
		&cfg.WarningThreshold, &cfg.OverloadThreshold,
		&cfg.TargetAvailability, &cfg.TargetPerformance, &cfg.TargetQuality, &cfg.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		// Crane row missing entirely; callers fall back to defaults.
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MaxLoadCapacity returns the configured capacity in kg; found is false
// when the crane has no configuration row.
func (r *ConfigRepository) MaxLoadCapacity(ctx context.Context, craneID int64) (float64, bool, error) {
	const query = `SELECT max_load_capacity FROM crane_configurations WHERE crane_id = $1`
	var capacity float64
	err := r.db.QueryRowContext(ctx, query, craneID).Scan(&capacity)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return capacity, true, nil
}
