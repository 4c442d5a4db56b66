package repository

import (
	"context"
	"database/sql"
	"errors"

	"cranewatch/internal/models"
)

// CraneRepository reads crane identity, topic bindings and per-crane
// field mapping overrides.
type CraneRepository struct {
	db *sql.DB
}

// NewCraneRepository returns repository.
func NewCraneRepository(db *sql.DB) *CraneRepository {
	return &CraneRepository{db: db}
}

// CraneByTopic resolves the crane owning an ingress topic through its
// active binding. Returns (nil, nil) when no binding exists.
func (r *CraneRepository) CraneByTopic(ctx context.Context, topic string) (*models.Crane, error) {
	const query = `
		SELECT c.id, c.crane_name, c.crane_type, c.capacity_tonnes, c.location, c.status, c.is_active
		FROM cranes c
		JOIN crane_topic_bindings b ON b.crane_id = c.id
		WHERE b.mqtt_topic = $1 AND b.is_active
		LIMIT 1
	`
	var c models.Crane
	err := r.db.QueryRowContext(ctx, query, topic).Scan(
		&c.ID, &c.Name, &c.Type, &c.CapacityTonnes, &c.Location, &c.Status, &c.IsActive,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ActiveCranes lists every crane still in service.
func (r *CraneRepository) ActiveCranes(ctx context.Context) ([]models.Crane, error) {
	const query = `
		SELECT id, crane_name, crane_type, capacity_tonnes, location, status, is_active
		FROM cranes
		WHERE is_active
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Crane
	for rows.Next() {
		var c models.Crane
		if err := rows.Scan(&c.ID, &c.Name, &c.Type, &c.CapacityTonnes, &c.Location, &c.Status, &c.IsActive); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ActiveBindings lists every active topic binding, used to build the
// MQTT subscription set at startup.
func (r *CraneRepository) ActiveBindings(ctx context.Context) ([]models.TopicBinding, error) {
	const query = `
		SELECT id, crane_id, mqtt_topic, is_active
		FROM crane_topic_bindings
		WHERE is_active
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TopicBinding
	for rows.Next() {
		var b models.TopicBinding
		if err := rows.Scan(&b.ID, &b.CraneID, &b.Topic, &b.IsActive); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// FieldMappings returns the active router overrides for a crane.
func (r *CraneRepository) FieldMappings(ctx context.Context, craneID int64) ([]models.FieldMapping, error) {
	const query = `
		SELECT id, crane_id, incoming_field_name, mapped_field_name, field_type, is_active
		FROM crane_field_mappings
		WHERE crane_id = $1 AND is_active
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, craneID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.FieldMapping
	for rows.Next() {
		var m models.FieldMapping
		if err := rows.Scan(&m.ID, &m.CraneID, &m.IncomingField, &m.MappedField, &m.FieldType, &m.IsActive); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
