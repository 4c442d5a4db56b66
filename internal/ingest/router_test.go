package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cranewatch/internal/models"
)

func TestRouteSubstringContainment(t *testing.T) {
	r := NewRouter(nil)

	cases := []struct {
		name string
		kind Kind
		slot string
	}{
		{"hoist_power", KindMotor, "hoist_power"},
		{"crane1_hoist_power_kw", KindMotor, "hoist_power"},
		{"lt_frequency", KindMotor, "lt_frequency"},
		{"hoist_up", KindIO, "hoist_up"},
		{"emergency_stop", KindIO, "stop"},
		{"load", KindLoad, "load"},
		{"overload_detect", KindLoad, "load"},
		{"max_capacity", KindLoad, "capacity"},
		{"alarm_two", KindAlarm, "alarm_two"},
	}
	for _, tc := range cases {
		route, ok := r.Route(tc.name)
		require.True(t, ok, "field %q", tc.name)
		assert.Equal(t, tc.kind, route.Kind, "field %q", tc.name)
		assert.Equal(t, tc.slot, route.Slot, "field %q", tc.name)
	}
}

func TestRouteCaseInsensitive(t *testing.T) {
	r := NewRouter(nil)

	route, ok := r.Route("Hoist_Power")
	require.True(t, ok)
	assert.Equal(t, KindMotor, route.Kind)
	assert.Equal(t, "hoist_power", route.Slot)
}

func TestRouteUnknownField(t *testing.T) {
	r := NewRouter(nil)

	_, ok := r.Route("humidity")
	assert.False(t, ok)
}

func TestRouteRuleOrderMotorBeforeIO(t *testing.T) {
	r := NewRouter(nil)

	route, ok := r.Route("ct_power_status")
	require.True(t, ok)
	assert.Equal(t, KindMotor, route.Kind)
	assert.Equal(t, "ct_power", route.Slot)
}

func TestRouteOverrideBeatsRules(t *testing.T) {
	r := NewRouter([]models.FieldMapping{
		{IncomingField: "overload_detect", MappedField: "alarm_one", FieldType: "alarm", IsActive: true},
	})

	route, ok := r.Route("overload_detect")
	require.True(t, ok)
	assert.Equal(t, KindAlarm, route.Kind)
	assert.Equal(t, "alarm_one", route.Slot)

	// Other fields still fall through to the substring rules.
	route, ok = r.Route("overload_warning")
	require.True(t, ok)
	assert.Equal(t, KindLoad, route.Kind)
}

func TestRouteInactiveOverrideIgnored(t *testing.T) {
	r := NewRouter([]models.FieldMapping{
		{IncomingField: "overload_detect", MappedField: "alarm_one", FieldType: "alarm", IsActive: false},
	})

	route, ok := r.Route("overload_detect")
	require.True(t, ok)
	assert.Equal(t, KindLoad, route.Kind)
	assert.Equal(t, "load", route.Slot)
}

func TestRouteOverrideUnknownTypeIgnored(t *testing.T) {
	r := NewRouter([]models.FieldMapping{
		{IncomingField: "weird", MappedField: "somewhere", FieldType: "bogus", IsActive: true},
	})

	_, ok := r.Route("weird")
	assert.False(t, ok)
}
