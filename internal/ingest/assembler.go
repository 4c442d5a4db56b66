package ingest

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"cranewatch/internal/models"
)

// Batch is everything one message writes: up to one record per kind per
// timestamp, plus an optional capacity update. The whole batch persists
// atomically.
type Batch struct {
	CraneID        int64
	Motors         []models.MotorMeasurement
	IOs            []models.IOStatus
	Loads          []models.LoadMeasurement
	Alarms         []models.Alarm
	CapacityUpdate *float64
}

// Empty reports whether the batch carries nothing to persist.
func (b *Batch) Empty() bool {
	return len(b.Motors) == 0 && len(b.IOs) == 0 && len(b.Loads) == 0 &&
		len(b.Alarms) == 0 && b.CapacityUpdate == nil
}

// Assemble groups routed fields sharing a timestamp into composite
// records. resolveCapacity supplies the cached/fallback capacity and is
// only consulted when the message itself does not carry one. The second
// return lists field names that routed nowhere; they never block
// sibling fields.
func Assemble(craneID int64, cls Classified, router *Router, resolveCapacity func() float64) (Batch, []string) {
	batch := Batch{CraneID: craneID}
	var unknown []string

	type groupKey struct {
		kind Kind
		ts   time.Time
	}
	groups := make(map[groupKey]map[string]any)
	var order []groupKey

	var explicitCapacity *float64
	for _, f := range cls.Fields {
		route, ok := router.Route(f.Name)
		if !ok {
			unknown = append(unknown, f.Name)
			continue
		}
		if route.Kind == KindLoad && route.Slot == "capacity" {
			if v, ok := toFloat(f.Value); ok {
				explicitCapacity = &v
			}
			continue
		}
		key := groupKey{kind: route.Kind, ts: f.Timestamp}
		g, exists := groups[key]
		if !exists {
			g = make(map[string]any)
			groups[key] = g
			order = append(order, key)
		}
		g[route.Slot] = f.Value
	}

	sort.SliceStable(order, func(i, j int) bool { return order[i].ts.Before(order[j].ts) })

	for _, key := range order {
		slots := groups[key]
		switch key.kind {
		case KindMotor:
			if m, ok := assembleMotor(craneID, key.ts, slots); ok {
				batch.Motors = append(batch.Motors, m)
			}
		case KindIO:
			if io, ok := assembleIO(craneID, key.ts, slots); ok {
				batch.IOs = append(batch.IOs, io)
			}
		case KindLoad:
			if lm, ok := assembleLoad(craneID, key.ts, slots, explicitCapacity, resolveCapacity); ok {
				batch.Loads = append(batch.Loads, lm)
			}
		case KindAlarm:
			if a, ok := assembleAlarm(craneID, key.ts, slots); ok {
				batch.Alarms = append(batch.Alarms, a)
			}
		}
	}

	batch.CapacityUpdate = explicitCapacity
	return batch, unknown
}

func assembleMotor(craneID int64, ts time.Time, slots map[string]any) (models.MotorMeasurement, bool) {
	m := models.MotorMeasurement{CraneID: craneID, Timestamp: ts}
	present := false
	set := func(dst **float64, slot string) {
		if raw, ok := slots[slot]; ok {
			if v, ok := toFloat(raw); ok {
				*dst = &v
				present = true
			}
		}
	}
	set(&m.HoistVoltage, "hoist_voltage")
	set(&m.HoistCurrent, "hoist_current")
	set(&m.HoistPower, "hoist_power")
	set(&m.HoistFrequency, "hoist_frequency")
	set(&m.CTVoltage, "ct_voltage")
	set(&m.CTCurrent, "ct_current")
	set(&m.CTPower, "ct_power")
	set(&m.CTFrequency, "ct_frequency")
	set(&m.LTVoltage, "lt_voltage")
	set(&m.LTCurrent, "lt_current")
	set(&m.LTPower, "lt_power")
	set(&m.LTFrequency, "lt_frequency")

	// Totals sum only the subsystems present in this message; an absent
	// subsystem contributes zero.
	for _, p := range []*float64{m.HoistPower, m.CTPower, m.LTPower} {
		if p != nil {
			m.TotalPower += *p
		}
	}
	for _, c := range []*float64{m.HoistCurrent, m.CTCurrent, m.LTCurrent} {
		if c != nil {
			m.TotalCurrent += *c
		}
	}
	return m, present
}

func assembleIO(craneID int64, ts time.Time, slots map[string]any) (models.IOStatus, bool) {
	io := models.IOStatus{CraneID: craneID, Timestamp: ts}
	present := false
	set := func(dst *bool, slot string) {
		if raw, ok := slots[slot]; ok {
			*dst = toBool(raw)
			present = true
		}
	}
	set(&io.Start, "start")
	set(&io.Stop, "stop")
	set(&io.HoistUp, "hoist_up")
	set(&io.HoistDown, "hoist_down")
	set(&io.CTLeft, "ct_left")
	set(&io.CTRight, "ct_right")
	set(&io.LTForward, "lt_forward")
	set(&io.LTReverse, "lt_reverse")
	return io, present
}

func assembleLoad(craneID int64, ts time.Time, slots map[string]any, explicitCapacity *float64, resolveCapacity func() float64) (models.LoadMeasurement, bool) {
	raw, ok := slots["load"]
	if !ok {
		return models.LoadMeasurement{}, false
	}
	load, ok := toFloat(raw)
	if !ok {
		return models.LoadMeasurement{}, false
	}
	capacity := 0.0
	if explicitCapacity != nil {
		capacity = *explicitCapacity
	} else if resolveCapacity != nil {
		capacity = resolveCapacity()
	}
	lm := models.LoadMeasurement{
		CraneID:   craneID,
		Load:      load,
		Capacity:  capacity,
		Timestamp: ts,
	}
	lm.LoadPercentage, lm.Status = DeriveLoadStatus(load, capacity)
	return lm, true
}

// DeriveLoadStatus recomputes percentage and the 3-level status from
// load and capacity: overload at >=95%, warning at >=80%, else normal.
func DeriveLoadStatus(load, capacity float64) (float64, string) {
	if capacity <= 0 {
		return 0, models.LoadStatusNormal
	}
	pct := load / capacity * 100
	switch {
	case pct >= models.DefaultOverloadThreshold:
		return pct, models.LoadStatusOverload
	case pct >= models.DefaultWarningThreshold:
		return pct, models.LoadStatusWarning
	default:
		return pct, models.LoadStatusNormal
	}
}

func assembleAlarm(craneID int64, ts time.Time, slots map[string]any) (models.Alarm, bool) {
	a := models.Alarm{CraneID: craneID, Timestamp: ts, Severity: models.AlarmSeverityLow}
	present := false
	set := func(dst *bool, slot string) {
		if raw, ok := slots[slot]; ok {
			*dst = toBool(raw)
			present = true
		}
	}
	set(&a.AlarmOne, "alarm_one")
	set(&a.AlarmTwo, "alarm_two")
	set(&a.AlarmThree, "alarm_three")

	var active []string
	if a.AlarmOne {
		active = append(active, "Alarm One")
	}
	if a.AlarmTwo {
		active = append(active, "Alarm Two")
	}
	if a.AlarmThree {
		active = append(active, "Alarm Three")
	}
	if len(active) > 0 {
		a.Message = "Active alarms: " + strings.Join(active, ", ")
		a.Severity = models.AlarmSeverityHigh
	}
	return a, present
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func toBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(t)); err == nil {
			return b
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return f != 0
		}
		return false
	default:
		return false
	}
}
