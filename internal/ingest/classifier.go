package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Shape is the payload shape the classifier resolved. A message that
// satisfies several shape predicates resolves to the earliest one in
// declaration order: ArrayTriplet, then EmbeddedJSON, then SingleScalar.
type Shape int

const (
	ShapeUnrecognized Shape = iota
	ShapeArrayTriplet
	ShapeEmbeddedJSON
	ShapeSingleScalar
)

func (s Shape) String() string {
	switch s {
	case ShapeArrayTriplet:
		return "array_triplet"
	case ShapeEmbeddedJSON:
		return "embedded_json"
	case ShapeSingleScalar:
		return "single_scalar"
	default:
		return "unrecognized"
	}
}

// Field is one decoded top-level payload field, in payload order.
type Field struct {
	Name  string
	Value any
}

// ScalarField is one extracted leaf value ready for routing. Timestamp
// is the per-field timestamp for array-triplet and embedded-JSON shapes,
// or the message timestamp otherwise.
type ScalarField struct {
	Name      string
	Value     any
	Timestamp time.Time
}

// Classified is the classifier output for one message.
type Classified struct {
	Shape     Shape
	Timestamp time.Time
	Fields    []ScalarField
}

// Control fields that never carry telemetry on their own. A body whose
// only field is one of these does not qualify as a single-scalar message.
var reservedControlFields = map[string]struct{}{
	"device_token": {},
	"gateway_id":   {},
	"timestamp":    {},
}

// DecodeBody parses a JSON object while preserving field order, which
// the classifier depends on (the message timestamp comes from the first
// triplet-shaped field).
func DecodeBody(payload []byte) ([]Field, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("decode body: expected object, got %v", tok)
	}

	var fields []Field
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode body: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("decode body: non-string key %v", keyTok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode body: field %q: %w", key, err)
		}
		var value any
		if err := json.Unmarshal(raw, &value); err != nil {
			return nil, fmt.Errorf("decode body: field %q: %w", key, err)
		}
		fields = append(fields, Field{Name: key, Value: value})
	}
	return fields, nil
}

// Classify resolves the payload shape and extracts scalar fields with
// their timestamps. receivedAt is the pipeline receipt time used when
// the payload carries no timestamp of its own.
func Classify(fields []Field, receivedAt time.Time) Classified {
	if c, ok := classifyArrayTriplet(fields, receivedAt); ok {
		return c
	}
	if c, ok := classifyEmbeddedJSON(fields, receivedAt); ok {
		return c
	}
	if c, ok := classifySingleScalar(fields, receivedAt); ok {
		return c
	}
	return Classified{Shape: ShapeUnrecognized, Timestamp: receivedAt}
}

// classifyArrayTriplet matches fields shaped [name, value, unixTimestamp, ...].
// The message timestamp comes from the first such sequence; fields whose
// sequence carries its own timestamp keep it.
func classifyArrayTriplet(fields []Field, receivedAt time.Time) (Classified, bool) {
	matched := false
	msgTS := receivedAt
	for _, f := range fields {
		if seq, ok := f.Value.([]any); ok && len(seq) >= 3 {
			matched = true
			if ts, ok := parseTimestamp(seq[2]); ok {
				msgTS = ts
			}
			break
		}
	}
	if !matched {
		return Classified{}, false
	}

	out := Classified{Shape: ShapeArrayTriplet, Timestamp: msgTS}
	for _, f := range fields {
		seq, ok := f.Value.([]any)
		if !ok || len(seq) < 2 {
			continue
		}
		ts := msgTS
		if len(seq) >= 3 {
			if own, ok := parseTimestamp(seq[2]); ok {
				ts = own
			}
		}
		out.Fields = append(out.Fields, ScalarField{Name: f.Name, Value: seq[1], Timestamp: ts})
	}
	return out, true
}

// classifyEmbeddedJSON matches fields whose value is a string beginning
// with "{" and containing "timestamp". Each such field re-parses
// independently into its own value and embedded timestamp.
func classifyEmbeddedJSON(fields []Field, receivedAt time.Time) (Classified, bool) {
	out := Classified{Shape: ShapeEmbeddedJSON, Timestamp: receivedAt}
	for _, f := range fields {
		s, ok := f.Value.(string)
		if !ok || !strings.HasPrefix(s, "{") || !strings.Contains(s, "timestamp") {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(s), &obj); err != nil {
			continue
		}
		ts := receivedAt
		if raw, present := obj["timestamp"]; present {
			if parsed, ok := parseTimestamp(raw); ok {
				ts = parsed
			}
		}
		value, ok := embeddedValue(obj)
		if !ok {
			continue
		}
		out.Fields = append(out.Fields, ScalarField{Name: f.Name, Value: value, Timestamp: ts})
	}
	if len(out.Fields) == 0 {
		return Classified{}, false
	}
	out.Timestamp = out.Fields[0].Timestamp
	return out, true
}

// embeddedValue picks the payload value out of a re-parsed embedded
// object: a "value" key when present, otherwise the first key that is
// not the timestamp.
func embeddedValue(obj map[string]any) (any, bool) {
	if v, ok := obj["value"]; ok {
		return v, true
	}
	for k, v := range obj {
		if k != "timestamp" {
			return v, true
		}
	}
	return nil, false
}

// classifySingleScalar matches a body with exactly one non-reserved
// field carrying a plain scalar. A top-level "timestamp" field takes
// precedence over the receipt time.
func classifySingleScalar(fields []Field, receivedAt time.Time) (Classified, bool) {
	ts := receivedAt
	var scalar *Field
	for i, f := range fields {
		name := strings.ToLower(f.Name)
		if name == "timestamp" {
			if parsed, ok := parseTimestamp(f.Value); ok {
				ts = parsed
			}
			continue
		}
		if _, reserved := reservedControlFields[name]; reserved {
			continue
		}
		if scalar != nil {
			return Classified{}, false
		}
		scalar = &fields[i]
	}
	if scalar == nil {
		return Classified{}, false
	}
	switch scalar.Value.(type) {
	case map[string]any, []any:
		return Classified{}, false
	}
	return Classified{
		Shape:     ShapeSingleScalar,
		Timestamp: ts,
		Fields:    []ScalarField{{Name: scalar.Name, Value: scalar.Value, Timestamp: ts}},
	}, true
}

// parseTimestamp accepts unix seconds (integer or fractional) and
// RFC3339 strings.
func parseTimestamp(v any) (time.Time, bool) {
	switch t := v.(type) {
	case float64:
		if t <= 0 {
			return time.Time{}, false
		}
		sec := int64(t)
		nsec := int64((t - float64(sec)) * float64(time.Second))
		return time.Unix(sec, nsec).UTC(), true
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed.UTC(), true
		}
		if sec, err := strconv.ParseFloat(t, 64); err == nil && sec > 0 {
			return parseTimestamp(sec)
		}
	}
	return time.Time{}, false
}
