package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cranewatch/internal/ingest"
	"cranewatch/internal/kpi"
	"cranewatch/internal/models"
)

// MeasurementRepository persists and reads the four measurement kinds.
// The ingestion pipeline is the only writer; the rollup engine only
// reads.
type MeasurementRepository struct {
	db *sql.DB
}

// NewMeasurementRepository returns repository.
func NewMeasurementRepository(db *sql.DB) *MeasurementRepository {
	return &MeasurementRepository{db: db}
}

// InsertBatch writes every record assembled from one message, plus the
// capacity configuration update when present, in a single transaction
// so the message's writes appear atomic to the rollup engine.
func (r *MeasurementRepository) InsertBatch(ctx context.Context, batch *ingest.Batch) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for i := range batch.Motors {
		if err := insertMotor(ctx, tx, &batch.Motors[i]); err != nil {
			return fmt.Errorf("insert motor measurement: %w", err)
		}
	}
	for i := range batch.IOs {
		if err := insertIO(ctx, tx, &batch.IOs[i]); err != nil {
			return fmt.Errorf("insert io status: %w", err)
		}
	}
	for i := range batch.Loads {
		if err := insertLoad(ctx, tx, &batch.Loads[i]); err != nil {
			return fmt.Errorf("insert load measurement: %w", err)
		}
	}
	for i := range batch.Alarms {
		if err := insertAlarm(ctx, tx, &batch.Alarms[i]); err != nil {
			return fmt.Errorf("insert alarm: %w", err)
		}
	}
	if batch.CapacityUpdate != nil {
		if err := upsertCapacity(ctx, tx, batch.CraneID, *batch.CapacityUpdate); err != nil {
			return fmt.Errorf("update capacity: %w", err)
		}
	}

	return tx.Commit()
}

func insertMotor(ctx context.Context, tx *sql.Tx, m *models.MotorMeasurement) error {
	const query = `
		INSERT INTO crane_motor_measurements (
			crane_id,
			hoist_voltage, hoist_current, hoist_power, hoist_frequency,
			ct_voltage, ct_current, ct_power, ct_frequency,
			lt_voltage, lt_current, lt_power, lt_frequency,
			total_power, total_current, "timestamp", created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,NOW())
		RETURNING id
	`
	return tx.QueryRowContext(ctx, query,
		m.CraneID,
		m.HoistVoltage, m.HoistCurrent, m.HoistPower, m.HoistFrequency,
		m.CTVoltage, m.CTCurrent, m.CTPower, m.CTFrequency,
		m.LTVoltage, m.LTCurrent, m.LTPower, m.LTFrequency,
		m.TotalPower, m.TotalCurrent, m.Timestamp,
	).Scan(&m.ID)
}

func insertIO(ctx context.Context, tx *sql.Tx, s *models.IOStatus) error {
	const query = `
		INSERT INTO crane_io_statuses (
			crane_id, "start", "stop", hoist_up, hoist_down,
			ct_left, ct_right, lt_forward, lt_reverse, "timestamp", created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW())
		RETURNING id
	`
	return tx.QueryRowContext(ctx, query,
		s.CraneID, s.Start, s.Stop, s.HoistUp, s.HoistDown,
		s.CTLeft, s.CTRight, s.LTForward, s.LTReverse, s.Timestamp,
	).Scan(&s.ID)
}

func insertLoad(ctx context.Context, tx *sql.Tx, l *models.LoadMeasurement) error {
	const query = `
		INSERT INTO crane_load_measurements (
			crane_id, "load", capacity, load_percentage, status, "timestamp", created_at
		) VALUES ($1,$2,$3,$4,$5,$6,NOW())
		RETURNING id
	`
	return tx.QueryRowContext(ctx, query,
		l.CraneID, l.Load, l.Capacity, l.LoadPercentage, l.Status, l.Timestamp,
	).Scan(&l.ID)
}

func insertAlarm(ctx context.Context, tx *sql.Tx, a *models.Alarm) error {
	const query = `
		INSERT INTO crane_alarms (
			crane_id, alarm_one, alarm_two, alarm_three,
			alarm_message, alarm_severity, is_acknowledged, "timestamp", created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW())
		RETURNING id
	`
	return tx.QueryRowContext(ctx, query,
		a.CraneID, a.AlarmOne, a.AlarmTwo, a.AlarmThree,
		a.Message, a.Severity, a.IsAcknowledged, a.Timestamp,
	).Scan(&a.ID)
}

func upsertCapacity(ctx context.Context, tx *sql.Tx, craneID int64, capacity float64) error {
	const query = `
		INSERT INTO crane_configurations (crane_id, max_load_capacity, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (crane_id) DO UPDATE
		SET max_load_capacity = EXCLUDED.max_load_capacity, updated_at = NOW()
	`
	_, err := tx.ExecContext(ctx, query, craneID, capacity)
	return err
}

// IOStatuses returns samples in [start, end) ordered ascending.
func (r *MeasurementRepository) IOStatuses(ctx context.Context, craneID int64, start, end time.Time) ([]models.IOStatus, error) {
	const query = `
		SELECT id, crane_id, "start", "stop", hoist_up, hoist_down,
		       ct_left, ct_right, lt_forward, lt_reverse, "timestamp"
		FROM crane_io_statuses
		WHERE crane_id = $1 AND "timestamp" >= $2 AND "timestamp" < $3
		ORDER BY "timestamp"
	`
	rows, err := r.db.QueryContext(ctx, query, craneID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.IOStatus
	for rows.Next() {
		var s models.IOStatus
		if err := rows.Scan(&s.ID, &s.CraneID, &s.Start, &s.Stop, &s.HoistUp, &s.HoistDown,
			&s.CTLeft, &s.CTRight, &s.LTForward, &s.LTReverse, &s.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// MotorMeasurements returns samples in [start, end) ordered ascending.
func (r *MeasurementRepository) MotorMeasurements(ctx context.Context, craneID int64, start, end time.Time) ([]models.MotorMeasurement, error) {
	const query = `
		SELECT id, crane_id,
		       hoist_voltage, hoist_current, hoist_power, hoist_frequency,
		       ct_voltage, ct_current, ct_power, ct_frequency,
		       lt_voltage, lt_current, lt_power, lt_frequency,
		       total_power, total_current, "timestamp"
		FROM crane_motor_measurements
		WHERE crane_id = $1 AND "timestamp" >= $2 AND "timestamp" < $3
		ORDER BY "timestamp"
	`
	rows, err := r.db.QueryContext(ctx, query, craneID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.MotorMeasurement
	for rows.Next() {
		var m models.MotorMeasurement
		if err := rows.Scan(&m.ID, &m.CraneID,
			&m.HoistVoltage, &m.HoistCurrent, &m.HoistPower, &m.HoistFrequency,
			&m.CTVoltage, &m.CTCurrent, &m.CTPower, &m.CTFrequency,
			&m.LTVoltage, &m.LTCurrent, &m.LTPower, &m.LTFrequency,
			&m.TotalPower, &m.TotalCurrent, &m.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// LoadMeasurements returns samples in [start, end) ordered ascending.
func (r *MeasurementRepository) LoadMeasurements(ctx context.Context, craneID int64, start, end time.Time) ([]models.LoadMeasurement, error) {
	const query = `
		SELECT id, crane_id, "load", capacity, load_percentage, status, "timestamp"
		FROM crane_load_measurements
		WHERE crane_id = $1 AND "timestamp" >= $2 AND "timestamp" < $3
		ORDER BY "timestamp"
	`
	rows, err := r.db.QueryContext(ctx, query, craneID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.LoadMeasurement
	for rows.Next() {
		var l models.LoadMeasurement
		if err := rows.Scan(&l.ID, &l.CraneID, &l.Load, &l.Capacity, &l.LoadPercentage, &l.Status, &l.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// operationColumns whitelists the flag column per operation; operation
// names never reach the SQL text directly.
var operationColumns = map[kpi.Operation]string{
	kpi.OpHoistUp:   "hoist_up",
	kpi.OpHoistDown: "hoist_down",
	kpi.OpCTLeft:    "ct_left",
	kpi.OpCTRight:   "ct_right",
	kpi.OpLTForward: "lt_forward",
	kpi.OpLTReverse: "lt_reverse",
	kpi.OpStop:      `"stop"`,
}

// CountOperation counts samples in [start, end) with the operation's
// flag set.
func (r *MeasurementRepository) CountOperation(ctx context.Context, craneID int64, op kpi.Operation, start, end time.Time) (int, error) {
	column, ok := operationColumns[op]
	if !ok {
		return 0, fmt.Errorf("unknown operation %q", op)
	}
	query := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM crane_io_statuses
		WHERE crane_id = $1 AND "timestamp" >= $2 AND "timestamp" < $3 AND %s
	`, column)
	var n int
	if err := r.db.QueryRowContext(ctx, query, craneID, start, end).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
