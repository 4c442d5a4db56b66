package ingest

import (
	"strings"

	"cranewatch/internal/models"
)

// Kind is the measurement family a routed field belongs to.
type Kind int

const (
	KindUnknown Kind = iota
	KindMotor
	KindIO
	KindLoad
	KindAlarm
)

func (k Kind) String() string {
	switch k {
	case KindMotor:
		return "motor"
	case KindIO:
		return "io"
	case KindLoad:
		return "load"
	case KindAlarm:
		return "alarm"
	default:
		return "unknown"
	}
}

// Route is the resolved destination for one payload field.
type Route struct {
	Kind Kind
	Slot string
}

type rule struct {
	substr string
	kind   Kind
	slot   string
}

// Routing is ordered substring containment, not exact match: a field
// named "overload_detect" matches "load". The first matching rule wins,
// so rule order is part of the contract.
var routingRules = []rule{
	{"hoist_voltage", KindMotor, "hoist_voltage"},
	{"hoist_current", KindMotor, "hoist_current"},
	{"hoist_power", KindMotor, "hoist_power"},
	{"hoist_frequency", KindMotor, "hoist_frequency"},
	{"ct_voltage", KindMotor, "ct_voltage"},
	{"ct_current", KindMotor, "ct_current"},
	{"ct_power", KindMotor, "ct_power"},
	{"ct_frequency", KindMotor, "ct_frequency"},
	{"lt_voltage", KindMotor, "lt_voltage"},
	{"lt_current", KindMotor, "lt_current"},
	{"lt_power", KindMotor, "lt_power"},
	{"lt_frequency", KindMotor, "lt_frequency"},

	{"start", KindIO, "start"},
	{"stop", KindIO, "stop"},
	{"hoist_up", KindIO, "hoist_up"},
	{"hoist_down", KindIO, "hoist_down"},
	{"ct_left", KindIO, "ct_left"},
	{"ct_right", KindIO, "ct_right"},
	{"lt_forward", KindIO, "lt_forward"},
	{"lt_reverse", KindIO, "lt_reverse"},

	{"load", KindLoad, "load"},
	{"capacity", KindLoad, "capacity"},

	{"alarm_one", KindAlarm, "alarm_one"},
	{"alarm_two", KindAlarm, "alarm_two"},
	{"alarm_three", KindAlarm, "alarm_three"},
}

// Router resolves payload field names to measurement slots. Active
// per-crane mapping overrides are consulted before the generic
// substring rules.
type Router struct {
	overrides map[string]Route
}

// NewRouter compiles the per-crane overrides. Inactive mappings and
// mappings with an unknown field type are skipped.
func NewRouter(overrides []models.FieldMapping) *Router {
	r := &Router{overrides: make(map[string]Route, len(overrides))}
	for _, m := range overrides {
		if !m.IsActive {
			continue
		}
		kind := kindForFieldType(m.FieldType)
		if kind == KindUnknown {
			continue
		}
		r.overrides[strings.ToLower(m.IncomingField)] = Route{Kind: kind, Slot: strings.ToLower(m.MappedField)}
	}
	return r
}

// Route resolves a field name, case-insensitively. The second return is
// false when no override and no substring rule matches.
func (r *Router) Route(name string) (Route, bool) {
	lower := strings.ToLower(name)
	if r != nil && r.overrides != nil {
		if route, ok := r.overrides[lower]; ok {
			return route, true
		}
	}
	for _, rl := range routingRules {
		if strings.Contains(lower, rl.substr) {
			return Route{Kind: rl.kind, Slot: rl.slot}, true
		}
	}
	return Route{}, false
}

func kindForFieldType(fieldType string) Kind {
	switch strings.ToLower(fieldType) {
	case "motor_voltage", "motor_current", "motor_power", "motor_frequency":
		return KindMotor
	case "io_status":
		return KindIO
	case "load", "capacity":
		return KindLoad
	case "alarm":
		return KindAlarm
	default:
		return KindUnknown
	}
}
