package kpi

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cranewatch/internal/models"
)

type rollupStore struct {
	cranes    []models.Crane
	cranesErr error

	ios    map[int64][]models.IOStatus
	motors map[int64][]models.MotorMeasurement
	loads  map[int64][]models.LoadMeasurement
	ioErr  map[int64]error

	hourly map[int64]map[time.Time]models.HourlyKPI
	daily  []models.DailyKPI
}

func newRollupStore() *rollupStore {
	return &rollupStore{
		ios:    make(map[int64][]models.IOStatus),
		motors: make(map[int64][]models.MotorMeasurement),
		loads:  make(map[int64][]models.LoadMeasurement),
		ioErr:  make(map[int64]error),
		hourly: make(map[int64]map[time.Time]models.HourlyKPI),
	}
}

func (s *rollupStore) ActiveCranes(context.Context) ([]models.Crane, error) {
	return s.cranes, s.cranesErr
}

func inWindow(ts, start, end time.Time) bool {
	return !ts.Before(start) && ts.Before(end)
}

func (s *rollupStore) IOStatuses(_ context.Context, craneID int64, start, end time.Time) ([]models.IOStatus, error) {
	if err := s.ioErr[craneID]; err != nil {
		return nil, err
	}
	var out []models.IOStatus
	for _, v := range s.ios[craneID] {
		if inWindow(v.Timestamp, start, end) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *rollupStore) MotorMeasurements(_ context.Context, craneID int64, start, end time.Time) ([]models.MotorMeasurement, error) {
	var out []models.MotorMeasurement
	for _, v := range s.motors[craneID] {
		if inWindow(v.Timestamp, start, end) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *rollupStore) LoadMeasurements(_ context.Context, craneID int64, start, end time.Time) ([]models.LoadMeasurement, error) {
	var out []models.LoadMeasurement
	for _, v := range s.loads[craneID] {
		if inWindow(v.Timestamp, start, end) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *rollupStore) CountOperation(_ context.Context, craneID int64, op Operation, start, end time.Time) (int, error) {
	n := 0
	for _, v := range s.ios[craneID] {
		if !inWindow(v.Timestamp, start, end) {
			continue
		}
		set := map[Operation]bool{
			OpHoistUp:   v.HoistUp,
			OpHoistDown: v.HoistDown,
			OpCTLeft:    v.CTLeft,
			OpCTRight:   v.CTRight,
			OpLTForward: v.LTForward,
			OpLTReverse: v.LTReverse,
			OpStop:      v.Stop,
		}
		if set[op] {
			n++
		}
	}
	return n, nil
}

func (s *rollupStore) UpsertHourly(_ context.Context, row *models.HourlyKPI) error {
	byHour, ok := s.hourly[row.CraneID]
	if !ok {
		byHour = make(map[time.Time]models.HourlyKPI)
		s.hourly[row.CraneID] = byHour
	}
	byHour[row.HourStart] = *row
	return nil
}

func (s *rollupStore) HourlyForDay(_ context.Context, craneID int64, day time.Time) ([]models.HourlyKPI, error) {
	var out []models.HourlyKPI
	for _, row := range s.hourly[craneID] {
		if inWindow(row.HourStart, day, day.Add(24*time.Hour)) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *rollupStore) UpsertDaily(_ context.Context, row *models.DailyKPI) error {
	for i := range s.daily {
		if s.daily[i].CraneID == row.CraneID && s.daily[i].Date.Equal(row.Date) && s.daily[i].Shift == row.Shift {
			s.daily[i] = *row
			return nil
		}
	}
	s.daily = append(s.daily, *row)
	return nil
}

type fakeConfigSource struct {
	cfg *models.CraneConfiguration
	err error
}

func (f *fakeConfigSource) GetOrCreate(context.Context, int64) (*models.CraneConfiguration, error) {
	return f.cfg, f.err
}

func newTestEngine(store *rollupStore, configs ConfigSource, at time.Time) *Engine {
	e := NewEngine(store, configs, zap.NewNop())
	e.now = func() time.Time { return at }
	return e
}

func TestComputeHourlyProducesRow(t *testing.T) {
	hour := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	store := newRollupStore()
	store.cranes = []models.Crane{{ID: 7, Name: "Crane 7"}}
	store.ios[7] = []models.IOStatus{
		hoistUpAt(0),
		idleAt(10 * time.Minute),
		hoistUpAt(20 * time.Minute),
		idleAt(25 * time.Minute),
	}
	store.motors[7] = []models.MotorMeasurement{
		motorAt(0, 10),
		motorAt(time.Hour-time.Second, 10),
	}
	store.loads[7] = []models.LoadMeasurement{
		loadAt(0, 500),
		loadAt(5*time.Minute, 0),
	}

	engine := newTestEngine(store, &fakeConfigSource{
		cfg: &models.CraneConfiguration{CraneID: 7, TariffRate: 0.2, TargetEnergyPerTon: 1.0},
	}, hour.Add(30*time.Minute))
	require.NoError(t, engine.ComputeHourly(context.Background()))

	row, ok := store.hourly[7][hour]
	require.True(t, ok)
	assert.Equal(t, hour.Add(time.Hour), row.HourEnd)
	assert.Equal(t, 15*time.Minute, row.HoistUpTime)
	assert.Equal(t, 15*time.Minute, row.TotalMotionTime)
	assert.Equal(t, 1, row.TotalLifts)
	assert.Equal(t, 2, row.HoistUpCount)
	assert.InDelta(t, 0.5, row.TotalMassMovedTonnes, 1e-9)
	assert.InDelta(t, 0.5, row.AverageLoadPerLift, 1e-9)
	assert.InDelta(t, 10.0*(3599.0/3600.0), row.TotalEnergyKWh, 1e-6)
	assert.InDelta(t, row.TotalEnergyKWh*0.2, row.HourlyEnergyCost, 1e-9)
	assert.InDelta(t, 25.0, row.Availability, 1e-6)
	assert.InDelta(t, 2.0/60.0*100, row.Performance, 1e-9)
	assert.Equal(t, 99.0, row.Quality)
}

func TestComputeHourlyIdempotent(t *testing.T) {
	hour := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	store := newRollupStore()
	store.cranes = []models.Crane{{ID: 7}}
	store.ios[7] = []models.IOStatus{hoistUpAt(0), idleAt(5 * time.Minute)}

	engine := newTestEngine(store, &fakeConfigSource{}, hour.Add(45*time.Minute))
	require.NoError(t, engine.ComputeHourly(context.Background()))
	first := store.hourly[7][hour]

	require.NoError(t, engine.ComputeHourly(context.Background()))
	second := store.hourly[7][hour]

	assert.Equal(t, first, second)
	assert.Len(t, store.hourly[7], 1)
}

func TestComputeHourlyIsolatesCraneFailure(t *testing.T) {
	hour := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	store := newRollupStore()
	store.cranes = []models.Crane{{ID: 7}, {ID: 8}}
	store.ioErr[7] = errors.New("partition offline")
	store.ios[8] = []models.IOStatus{hoistUpAt(0), idleAt(time.Minute)}

	engine := newTestEngine(store, &fakeConfigSource{}, hour.Add(30*time.Minute))
	require.NoError(t, engine.ComputeHourly(context.Background()))

	_, ok := store.hourly[7][hour]
	assert.False(t, ok)
	_, ok = store.hourly[8][hour]
	assert.True(t, ok)
}

func TestComputeHourlyFailsOnlyOnCraneListing(t *testing.T) {
	store := newRollupStore()
	store.cranesErr = errors.New("db down")

	engine := newTestEngine(store, &fakeConfigSource{}, time.Now())
	assert.Error(t, engine.ComputeHourly(context.Background()))
}

func TestComputeHourlyDefaultsOnConfigError(t *testing.T) {
	hour := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	store := newRollupStore()
	store.cranes = []models.Crane{{ID: 7}}
	store.motors[7] = []models.MotorMeasurement{motorAt(0, 10), motorAt(time.Hour-time.Minute, 10)}

	engine := newTestEngine(store, &fakeConfigSource{err: errors.New("no config")}, hour.Add(30*time.Minute))
	require.NoError(t, engine.ComputeHourly(context.Background()))

	row := store.hourly[7][hour]
	assert.InDelta(t, row.TotalEnergyKWh*models.DefaultTariffRate, row.HourlyEnergyCost, 1e-9)
}

func TestComputeDailyAggregates(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	store := newRollupStore()
	store.cranes = []models.Crane{{ID: 7}}
	store.hourly[7] = map[time.Time]models.HourlyKPI{}
	for i, mass := range []float64{1, 3, 2} {
		h := day.Add(time.Duration(10+i) * time.Hour)
		store.hourly[7][h] = models.HourlyKPI{
			CraneID:              7,
			HourStart:            h,
			HourEnd:              h.Add(time.Hour),
			TotalMotionTime:      10 * time.Minute,
			TotalLifts:           2,
			TotalMassMovedTonnes: mass,
			TotalEnergyKWh:       6,
			HourlyEnergyCost:     0.9,
			EnergyPerTon:         2,
			SystemEfficiency:     50,
			Availability:         40,
			Performance:          10,
			Quality:              99,
			OEE:                  3.96,
		}
	}

	engine := newTestEngine(store, &fakeConfigSource{}, day.Add(23*time.Hour))
	require.NoError(t, engine.ComputeDaily(context.Background()))

	require.Len(t, store.daily, 1)
	d := store.daily[0]
	assert.Equal(t, models.ShiftDay, d.Shift)
	assert.Equal(t, 30*time.Minute, d.TotalOperationTime)
	assert.Equal(t, 6, d.TotalLifts)
	assert.InDelta(t, 6.0, d.TotalMassMovedTonnes, 1e-9)
	assert.InDelta(t, 18.0, d.TotalEnergyKWh, 1e-9)
	assert.InDelta(t, 2.7, d.TotalEnergyCost, 1e-9)
	assert.InDelta(t, 3.0, d.PeakLoad, 1e-9)
	assert.InDelta(t, 2.0, d.AverageEnergyPerTon, 1e-9)
	assert.InDelta(t, 40.0, d.Availability, 1e-9)
	assert.InDelta(t, 99.0, d.Quality, 1e-9)
	assert.InDelta(t, 18.0/3*4, d.AveragePowerDemand, 1e-9)
}

func TestComputeDailySkipsCraneWithoutRows(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	store := newRollupStore()
	store.cranes = []models.Crane{{ID: 7}}

	engine := newTestEngine(store, &fakeConfigSource{}, day.Add(time.Hour))
	require.NoError(t, engine.ComputeDaily(context.Background()))
	assert.Empty(t, store.daily)
}

func TestComputeDailyIdempotent(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	store := newRollupStore()
	store.cranes = []models.Crane{{ID: 7}}
	h := day.Add(10 * time.Hour)
	store.hourly[7] = map[time.Time]models.HourlyKPI{
		h: {CraneID: 7, HourStart: h, HourEnd: h.Add(time.Hour), TotalEnergyKWh: 5, Quality: 99},
	}

	engine := newTestEngine(store, &fakeConfigSource{}, day.Add(23*time.Hour))
	require.NoError(t, engine.ComputeDaily(context.Background()))
	require.NoError(t, engine.ComputeDaily(context.Background()))

	assert.Len(t, store.daily, 1)
}
