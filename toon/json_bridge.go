package toon

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	json "github.com/goccy/go-json"
)

// ============================================================
// JSON Bridge
// ============================================================
//
// Converts between JSON text and the Value tree. Mapping order follows the
// document, and numbers keep the int/float distinction: a JSON number
// without '.' or an exponent becomes an int.

// FromJSON parses JSON bytes into a Value tree.
func FromJSON(data []byte) (*Value, error) {
	raw, err := readJSON(data)
	if err != nil {
		return nil, fmt.Errorf("toon: json parse: %w", err)
	}
	return fromJSONValue(raw)
}

func fromJSONValue(raw jsonValue) (*Value, error) {
	switch val := raw.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(val), nil
	case json.Number:
		return numberToValue(val)
	case string:
		return Str(val), nil
	case []jsonValue:
		items := make([]*Value, len(val))
		for i, elem := range val {
			v, err := fromJSONValue(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			items[i] = v
		}
		return Seq(items...), nil
	case *jsonObject:
		entries := make([]Entry, val.len())
		for i, key := range val.keys {
			v, err := fromJSONValue(val.vals[i])
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", key, err)
			}
			entries[i] = Entry{Key: key, Value: v}
		}
		return Map(entries...), nil
	default:
		return nil, fmt.Errorf("unsupported JSON value %T", raw)
	}
}

func numberToValue(num json.Number) (*Value, error) {
	s := string(num)
	if !strings.ContainsAny(s, ".eE") {
		if n, err := num.Int64(); err == nil {
			return Int(n), nil
		}
		// Out of int64 range: fall through to float.
	}
	f, err := num.Float64()
	if err != nil {
		return nil, fmt.Errorf("bad number %q: %w", s, err)
	}
	return Float(f), nil
}

// ToJSON renders a Value tree as compact JSON. Mapping order is preserved.
// Non-finite floats are rejected.
func ToJSON(v *Value) ([]byte, error) {
	raw, err := toJSONValue(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := writeJSON(&buf, raw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toJSONValue(v *Value) (jsonValue, error) {
	if v.IsNull() {
		return nil, nil
	}
	switch v.kind {
	case KindBool:
		return v.boolVal, nil
	case KindInt:
		return v.intVal, nil
	case KindFloat:
		if math.IsNaN(v.floatVal) || math.IsInf(v.floatVal, 0) {
			return nil, fmt.Errorf("toon: NaN/Infinity not representable in JSON")
		}
		return v.floatVal, nil
	case KindStr:
		return v.strVal, nil
	case KindSeq:
		items := make([]jsonValue, len(v.seqVal))
		for i, elem := range v.seqVal {
			raw, err := toJSONValue(elem)
			if err != nil {
				return nil, err
			}
			items[i] = raw
		}
		return items, nil
	case KindMap:
		obj := newJSONObject(len(v.mapVal))
		for _, e := range v.mapVal {
			raw, err := toJSONValue(e.Value)
			if err != nil {
				return nil, err
			}
			obj.set(e.Key, raw)
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("toon: unsupported value kind %s", v.kind)
	}
}

// MarshalJSON implements json.Marshaler for Value.
func (v *Value) MarshalJSON() ([]byte, error) {
	return ToJSON(v)
}

// UnmarshalJSON implements json.Unmarshaler for Value.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := FromJSON(data)
	if err != nil {
		return err
	}
	*v = *parsed
	return nil
}
