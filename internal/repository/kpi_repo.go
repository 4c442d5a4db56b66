package repository

import (
	"context"
	"database/sql"
	"time"

	"cranewatch/internal/models"
)

// KPIRepository owns the hourly and daily aggregate rows. Upserts are
// keyed so rollup re-runs replace rather than duplicate.
type KPIRepository struct {
	db *sql.DB
}

// NewKPIRepository returns repository.
func NewKPIRepository(db *sql.DB) *KPIRepository {
	return &KPIRepository{db: db}
}

// Durations are stored as fractional seconds.
func secs(d time.Duration) float64 { return d.Seconds() }

func dur(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

// UpsertHourly inserts or replaces the row for (crane, hour_start).
func (r *KPIRepository) UpsertHourly(ctx context.Context, row *models.HourlyKPI) error {
	const query = `
		INSERT INTO crane_hourly_kpis (
			crane_id, hour_start, hour_end,
			hoist_up_time, hoist_down_time, ct_left_time, ct_right_time,
			lt_forward_time, lt_reverse_time, stop_time, total_motion_time,
			hoist_up_count, hoist_down_count, ct_left_count, ct_right_count,
			lt_forward_count, lt_reverse_count, stop_count,
			total_lifts, total_mass_moved_tonnes, average_load_per_lift,
			total_energy_kwh, hourly_energy_cost, energy_per_ton, system_efficiency,
			availability, performance, quality, oee, created_at
		) VALUES (
			$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,
			$19,$20,$21,$22,$23,$24,$25,$26,$27,$28,$29,NOW()
		)
		ON CONFLICT (crane_id, hour_start) DO UPDATE SET
			hour_end = EXCLUDED.hour_end,
			hoist_up_time = EXCLUDED.hoist_up_time,
			hoist_down_time = EXCLUDED.hoist_down_time,
			ct_left_time = EXCLUDED.ct_left_time,
			ct_right_time = EXCLUDED.ct_right_time,
			lt_forward_time = EXCLUDED.lt_forward_time,
			lt_reverse_time = EXCLUDED.lt_reverse_time,
			stop_time = EXCLUDED.stop_time,
			total_motion_time = EXCLUDED.total_motion_time,
			hoist_up_count = EXCLUDED.hoist_up_count,
			hoist_down_count = EXCLUDED.hoist_down_count,
			ct_left_count = EXCLUDED.ct_left_count,
			ct_right_count = EXCLUDED.ct_right_count,
			lt_forward_count = EXCLUDED.lt_forward_count,
			lt_reverse_count = EXCLUDED.lt_reverse_count,
			stop_count = EXCLUDED.stop_count,
			total_lifts = EXCLUDED.total_lifts,
			total_mass_moved_tonnes = EXCLUDED.total_mass_moved_tonnes,
			average_load_per_lift = EXCLUDED.average_load_per_lift,
			total_energy_kwh = EXCLUDED.total_energy_kwh,
			hourly_energy_cost = EXCLUDED.hourly_energy_cost,
			energy_per_ton = EXCLUDED.energy_per_ton,
			system_efficiency = EXCLUDED.system_efficiency,
			availability = EXCLUDED.availability,
			performance = EXCLUDED.performance,
			quality = EXCLUDED.quality,
			oee = EXCLUDED.oee
		RETURNING id
	`
	return r.db.QueryRowContext(ctx, query,
		row.CraneID, row.HourStart, row.HourEnd,
		secs(row.HoistUpTime), secs(row.HoistDownTime), secs(row.CTLeftTime), secs(row.CTRightTime),
		secs(row.LTForwardTime), secs(row.LTReverseTime), secs(row.StopTime), secs(row.TotalMotionTime),
		row.HoistUpCount, row.HoistDownCount, row.CTLeftCount, row.CTRightCount,
		row.LTForwardCount, row.LTReverseCount, row.StopCount,
		row.TotalLifts, row.TotalMassMovedTonnes, row.AverageLoadPerLift,
		row.TotalEnergyKWh, row.HourlyEnergyCost, row.EnergyPerTon, row.SystemEfficiency,
		row.Availability, row.Performance, row.Quality, row.OEE,
	).Scan(&row.ID)
}

// HourlyForDay returns the hourly rows whose bucket starts inside the
// given UTC day, ordered by hour.
func (r *KPIRepository) HourlyForDay(ctx context.Context, craneID int64, day time.Time) ([]models.HourlyKPI, error) {
	const query = `
		SELECT id, crane_id, hour_start, hour_end,
		       hoist_up_time, hoist_down_time, ct_left_time, ct_right_time,
		       lt_forward_time, lt_reverse_time, stop_time, total_motion_time,
		       hoist_up_count, hoist_down_count, ct_left_count, ct_right_count,
		       lt_forward_count, lt_reverse_count, stop_count,
		       total_lifts, total_mass_moved_tonnes, average_load_per_lift,
		       total_energy_kwh, hourly_energy_cost, energy_per_ton, system_efficiency,
		       availability, performance, quality, oee
		FROM crane_hourly_kpis
		WHERE crane_id = $1 AND hour_start >= $2 AND hour_start < $3
		ORDER BY hour_start
	`
	dayStart := day.UTC().Truncate(24 * time.Hour)
	rows, err := r.db.QueryContext(ctx, query, craneID, dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.HourlyKPI
	for rows.Next() {
		var (
			row models.HourlyKPI
			d   [8]float64
		)
		if err := rows.Scan(&row.ID, &row.CraneID, &row.HourStart, &row.HourEnd,
			&d[0], &d[1], &d[2], &d[3], &d[4], &d[5], &d[6], &d[7],
			&row.HoistUpCount, &row.HoistDownCount, &row.CTLeftCount, &row.CTRightCount,
			&row.LTForwardCount, &row.LTReverseCount, &row.StopCount,
			&row.TotalLifts, &row.TotalMassMovedTonnes, &row.AverageLoadPerLift,
			&row.TotalEnergyKWh, &row.HourlyEnergyCost, &row.EnergyPerTon, &row.SystemEfficiency,
			&row.Availability, &row.Performance, &row.Quality, &row.OEE); err != nil {
			return nil, err
		}
		row.HoistUpTime = dur(d[0])
		row.HoistDownTime = dur(d[1])
		row.CTLeftTime = dur(d[2])
		row.CTRightTime = dur(d[3])
		row.LTForwardTime = dur(d[4])
		row.LTReverseTime = dur(d[5])
		row.StopTime = dur(d[6])
		row.TotalMotionTime = dur(d[7])
		out = append(out, row)
	}
	return out, rows.Err()
}

// UpsertDaily inserts or replaces the row for (crane, date, shift).
func (r *KPIRepository) UpsertDaily(ctx context.Context, row *models.DailyKPI) error {
	const query = `
		INSERT INTO crane_daily_kpis (
			crane_id, "date", shift,
			total_operation_time, total_lifts, total_mass_moved_tonnes,
			total_energy_kwh, total_energy_cost, average_energy_per_ton, average_efficiency,
			peak_load, average_power_demand,
			availability, performance, quality, oee, created_at, updated_at
		) VALUES (
			$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,NOW(),NOW()
		)
		ON CONFLICT (crane_id, "date", shift) DO UPDATE SET
			total_operation_time = EXCLUDED.total_operation_time,
			total_lifts = EXCLUDED.total_lifts,
			total_mass_moved_tonnes = EXCLUDED.total_mass_moved_tonnes,
			total_energy_kwh = EXCLUDED.total_energy_kwh,
			total_energy_cost = EXCLUDED.total_energy_cost,
			average_energy_per_ton = EXCLUDED.average_energy_per_ton,
			average_efficiency = EXCLUDED.average_efficiency,
			peak_load = EXCLUDED.peak_load,
			average_power_demand = EXCLUDED.average_power_demand,
			availability = EXCLUDED.availability,
			performance = EXCLUDED.performance,
			quality = EXCLUDED.quality,
			oee = EXCLUDED.oee,
			updated_at = NOW()
		RETURNING id
	`
	return r.db.QueryRowContext(ctx, query,
		row.CraneID, row.Date, row.Shift,
		secs(row.TotalOperationTime), row.TotalLifts, row.TotalMassMovedTonnes,
		row.TotalEnergyKWh, row.TotalEnergyCost, row.AverageEnergyPerTon, row.AverageEfficiency,
		row.PeakLoad, row.AveragePowerDemand,
		row.Availability, row.Performance, row.Quality, row.OEE,
	).Scan(&row.ID)
}
