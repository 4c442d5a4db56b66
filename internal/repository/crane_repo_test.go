package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCraneByTopicResolvesBinding(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{
		"id", "crane_name", "crane_type", "capacity_tonnes", "location", "status", "is_active",
	}).AddRow(int64(7), "Crane 7", "gantry", 10.0, "bay 2", "operational", true)

	mock.ExpectQuery("JOIN crane_topic_bindings").
		WithArgs("factory/crane7").
		WillReturnRows(rows)

	repo := NewCraneRepository(db)
	crane, err := repo.CraneByTopic(context.Background(), "factory/crane7")
	require.NoError(t, err)
	require.NotNil(t, crane)
	assert.Equal(t, int64(7), crane.ID)
	assert.Equal(t, "Crane 7", crane.Name)
	assert.Equal(t, 10.0, crane.CapacityTonnes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCraneByTopicNoBinding(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("JOIN crane_topic_bindings").
		WithArgs("factory/unknown").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "crane_name", "crane_type", "capacity_tonnes", "location", "status", "is_active",
		}))

	repo := NewCraneRepository(db)
	crane, err := repo.CraneByTopic(context.Background(), "factory/unknown")
	require.NoError(t, err)
	assert.Nil(t, crane)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActiveBindings(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "crane_id", "mqtt_topic", "is_active"}).
		AddRow(int64(1), int64(7), "factory/crane7", true).
		AddRow(int64(2), int64(8), "factory/crane8", true)

	mock.ExpectQuery("FROM crane_topic_bindings").WillReturnRows(rows)

	repo := NewCraneRepository(db)
	bindings, err := repo.ActiveBindings(context.Background())
	require.NoError(t, err)
	require.Len(t, bindings, 2)
	assert.Equal(t, "factory/crane7", bindings[0].Topic)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFieldMappings(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{
		"id", "crane_id", "incoming_field_name", "mapped_field_name", "field_type", "is_active",
	}).AddRow(int64(1), int64(7), "spreader_weight", "load", "load", true)

	mock.ExpectQuery("FROM crane_field_mappings").
		WithArgs(int64(7)).
		WillReturnRows(rows)

	repo := NewCraneRepository(db)
	mappings, err := repo.FieldMappings(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, mappings, 1)
	assert.Equal(t, "spreader_weight", mappings[0].IncomingField)
	assert.Equal(t, "load", mappings[0].MappedField)
	assert.NoError(t, mock.ExpectationsWereMet())
}
