package kpi

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"cranewatch/internal/models"
)

// Store is the persistence surface the rollup engine works against: it
// reads measurement rows and upserts aggregate rows, nothing else.
type Store interface {
	ActiveCranes(ctx context.Context) ([]models.Crane, error)

	IOStatuses(ctx context.Context, craneID int64, start, end time.Time) ([]models.IOStatus, error)
	MotorMeasurements(ctx context.Context, craneID int64, start, end time.Time) ([]models.MotorMeasurement, error)
	LoadMeasurements(ctx context.Context, craneID int64, start, end time.Time) ([]models.LoadMeasurement, error)
	// CountOperation counts samples with the given operation flag set,
	// independently of the duration reducer.
	CountOperation(ctx context.Context, craneID int64, op Operation, start, end time.Time) (int, error)

	UpsertHourly(ctx context.Context, row *models.HourlyKPI) error
	HourlyForDay(ctx context.Context, craneID int64, day time.Time) ([]models.HourlyKPI, error)
	UpsertDaily(ctx context.Context, row *models.DailyKPI) error
}

// ConfigSource supplies per-crane configuration with get-or-create
// semantics.
type ConfigSource interface {
	GetOrCreate(ctx context.Context, craneID int64) (*models.CraneConfiguration, error)
}

// Engine orchestrates the windowed reducers per crane per bucket and
// upserts the aggregate rows. Re-running a bucket with unchanged
// measurements reproduces the same rows.
type Engine struct {
	store   Store
	configs ConfigSource
	logger  *zap.Logger
	now     func() time.Time
}

// NewEngine returns a rollup engine using the wall clock.
func NewEngine(store Store, configs ConfigSource, logger *zap.Logger) *Engine {
	return &Engine{store: store, configs: configs, logger: logger, now: time.Now}
}

// ComputeHourly rolls up the current wall-clock hour for every active
// crane. One crane's failure is logged and isolated; the command fails
// only when the crane listing itself is unavailable.
func (e *Engine) ComputeHourly(ctx context.Context) error {
	hourStart := e.now().UTC().Truncate(time.Hour)
	hourEnd := hourStart.Add(time.Hour)

	cranes, err := e.store.ActiveCranes(ctx)
	if err != nil {
		return fmt.Errorf("list active cranes: %w", err)
	}

	for i := range cranes {
		if err := e.craneHourly(ctx, &cranes[i], hourStart, hourEnd); err != nil {
			e.logger.Error("hourly rollup failed",
				zap.Int64("crane_id", cranes[i].ID),
				zap.String("crane_name", cranes[i].Name),
				zap.Time("hour_start", hourStart),
				zap.Error(err))
			continue
		}
		e.logger.Info("hourly rollup complete",
			zap.Int64("crane_id", cranes[i].ID), zap.Time("hour_start", hourStart))
	}
	return nil
}

func (e *Engine) craneHourly(ctx context.Context, crane *models.Crane, hourStart, hourEnd time.Time) error {
	ioSamples, err := e.store.IOStatuses(ctx, crane.ID, hourStart, hourEnd)
	if err != nil {
		return fmt.Errorf("read io statuses: %w", err)
	}
	motors, err := e.store.MotorMeasurements(ctx, crane.ID, hourStart, hourEnd)
	if err != nil {
		return fmt.Errorf("read motor measurements: %w", err)
	}
	loads, err := e.store.LoadMeasurements(ctx, crane.ID, hourStart, hourEnd)
	if err != nil {
		return fmt.Errorf("read load measurements: %w", err)
	}

	durations := OperationDurations(ioSamples)
	lifts := CountLifts(ioSamples)
	massTonnes := TotalMassMoved(loads)
	energyKWh := EnergyKWh(motors)
	cfg := e.configOrDefaults(ctx, crane.ID)

	energyPerTon := EnergyPerTon(energyKWh, massTonnes)
	row := &models.HourlyKPI{
		CraneID:   crane.ID,
		HourStart: hourStart,
		HourEnd:   hourEnd,

		HoistUpTime:   durations[OpHoistUp],
		HoistDownTime: durations[OpHoistDown],
		CTLeftTime:    durations[OpCTLeft],
		CTRightTime:   durations[OpCTRight],
		LTForwardTime: durations[OpLTForward],
		LTReverseTime: durations[OpLTReverse],
		StopTime:      durations[OpStop],

		TotalLifts:           lifts,
		TotalMassMovedTonnes: massTonnes,
		AverageLoadPerLift:   AverageLoadPerLift(massTonnes, lifts),

		TotalEnergyKWh:   energyKWh,
		HourlyEnergyCost: EnergyCost(energyKWh, cfg.TariffRate),
		EnergyPerTon:     energyPerTon,
		SystemEfficiency: SystemEfficiency(energyPerTon, cfg.TargetEnergyPerTon),
	}
	for _, d := range durations {
		row.TotalMotionTime += d
	}

	counts := map[Operation]*int{
		OpHoistUp:   &row.HoistUpCount,
		OpHoistDown: &row.HoistDownCount,
		OpCTLeft:    &row.CTLeftCount,
		OpCTRight:   &row.CTRightCount,
		OpLTForward: &row.LTForwardCount,
		OpLTReverse: &row.LTReverseCount,
		OpStop:      &row.StopCount,
	}
	for _, op := range Operations {
		n, err := e.store.CountOperation(ctx, crane.ID, op, hourStart, hourEnd)
		if err != nil {
			return fmt.Errorf("count %s samples: %w", op, err)
		}
		*counts[op] = n
	}

	oee := ComputeOEE(ioSamples, hourStart, hourEnd)
	row.Availability = oee.Availability
	row.Performance = oee.Performance
	row.Quality = oee.Quality
	row.OEE = oee.OEE

	if err := e.store.UpsertHourly(ctx, row); err != nil {
		return fmt.Errorf("upsert hourly row: %w", err)
	}
	return nil
}

// ComputeDaily aggregates the current date's hourly rows per active
// crane. Cranes without hourly rows for the day are skipped entirely.
func (e *Engine) ComputeDaily(ctx context.Context) error {
	day := e.now().UTC().Truncate(24 * time.Hour)

	cranes, err := e.store.ActiveCranes(ctx)
	if err != nil {
		return fmt.Errorf("list active cranes: %w", err)
	}

	for i := range cranes {
		if err := e.craneDaily(ctx, &cranes[i], day); err != nil {
			e.logger.Error("daily rollup failed",
				zap.Int64("crane_id", cranes[i].ID),
				zap.String("crane_name", cranes[i].Name),
				zap.Time("date", day),
				zap.Error(err))
		}
	}
	return nil
}

func (e *Engine) craneDaily(ctx context.Context, crane *models.Crane, day time.Time) error {
	rows, err := e.store.HourlyForDay(ctx, crane.ID, day)
	if err != nil {
		return fmt.Errorf("read hourly rows: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}

	daily := &models.DailyKPI{
		CraneID: crane.ID,
		Date:    day,
		Shift:   models.ShiftDay,
	}
	var (
		sumEnergyPerTon float64
		sumEfficiency   float64
		sumAvailability float64
		sumPerformance  float64
		sumQuality      float64
		sumOEE          float64
	)
	for i := range rows {
		r := &rows[i]
		daily.TotalOperationTime += r.TotalMotionTime
		daily.TotalLifts += r.TotalLifts
		daily.TotalMassMovedTonnes += r.TotalMassMovedTonnes
		daily.TotalEnergyKWh += r.TotalEnergyKWh
		daily.TotalEnergyCost += r.HourlyEnergyCost

		sumEnergyPerTon += r.EnergyPerTon
		sumEfficiency += r.SystemEfficiency
		sumAvailability += r.Availability
		sumPerformance += r.Performance
		sumQuality += r.Quality
		sumOEE += r.OEE

		// Peak load is the max of mass moved per hour, not the max
		// instantaneous load reading; the naming mismatch is inherited
		// and deliberate.
		if r.TotalMassMovedTonnes > daily.PeakLoad {
			daily.PeakLoad = r.TotalMassMovedTonnes
		}
	}

	n := float64(len(rows))
	daily.AverageEnergyPerTon = sumEnergyPerTon / n
	daily.AverageEfficiency = sumEfficiency / n
	daily.Availability = sumAvailability / n
	daily.Performance = sumPerformance / n
	daily.Quality = sumQuality / n
	daily.OEE = sumOEE / n
	daily.AveragePowerDemand = daily.TotalEnergyKWh / n * 4

	if err := e.store.UpsertDaily(ctx, daily); err != nil {
		return fmt.Errorf("upsert daily row: %w", err)
	}
	e.logger.Info("daily rollup complete",
		zap.Int64("crane_id", crane.ID), zap.Time("date", day), zap.Int("hourly_rows", len(rows)))
	return nil
}

// configOrDefaults never fails the computation: a crane without a
// configuration row (or an unreachable config store) falls back to the
// documented defaults.
func (e *Engine) configOrDefaults(ctx context.Context, craneID int64) *models.CraneConfiguration {
	cfg, err := e.configs.GetOrCreate(ctx, craneID)
	if err != nil || cfg == nil {
		if err != nil {
			e.logger.Warn("configuration unavailable, using defaults",
				zap.Int64("crane_id", craneID), zap.Error(err))
		}
		return &models.CraneConfiguration{
			CraneID:            craneID,
			TariffRate:         models.DefaultTariffRate,
			TargetEnergyPerTon: models.DefaultTargetEnergyPerTon,
			WarningThreshold:   models.DefaultWarningThreshold,
			OverloadThreshold:  models.DefaultOverloadThreshold,
		}
	}
	return cfg
}
