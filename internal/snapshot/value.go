package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// Value is a sealed interface over the JSON-shaped types a form snapshot may
// contain. Only Null, String, Number, Bool, Array, and Object implement it.
// Hosts build snapshots with FromJSON or the typed constructors; the engine
// treats the result as opaque.
type Value interface {
	value() // sealed
}

// Null represents an empty form field.
type Null struct{}

func (Null) value() {}

// String represents a text field value.
type String string

func (String) value() {}

// Number represents a numeric field value (readings, counts, measurements).
type Number float64

func (Number) value() {}

// Bool represents a checkbox or pass/fail field value.
type Bool bool

func (Bool) value() {}

// Array represents a repeated field group (e.g. photo references).
type Array []Value

func (Array) value() {}

// Object represents a keyed group of fields (a section, or the whole form).
// Use SortedKeys for deterministic iteration.
type Object map[string]Value

func (Object) value() {}

// SortedKeys returns the object's keys in ascending byte order. Ordering
// only needs to be self-consistent across serializations, so plain string
// comparison is sufficient.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// FromJSON decodes arbitrary JSON into a Value. Numbers become Number,
// null becomes Null. This is the host-facing entry point for turning a
// serialized form state into a snapshot.
func FromJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}

	// Reject trailing garbage after the first value.
	if dec.More() {
		return nil, fmt.Errorf("trailing data after JSON value")
	}

	return fromAny(raw)
}

// fromAny recursively converts a decoded JSON value to a Value.
func fromAny(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("number out of range: %s", val)
		}
		return Number(f), nil
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			sv, err := fromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = sv
		}
		return arr, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			sv, err := fromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			obj[k] = sv
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported JSON type: %T", v)
	}
}

// UnmarshalJSON implements json.Unmarshaler for Object so snapshots embedded
// in other structures (scenario files, store rows) decode directly.
func (obj *Object) UnmarshalJSON(data []byte) error {
	v, err := FromJSON(data)
	if err != nil {
		return err
	}
	o, ok := v.(Object)
	if !ok {
		return fmt.Errorf("expected JSON object, got %T", v)
	}
	*obj = o
	return nil
}

// MarshalJSON implements json.Marshaler for Object using canonical form.
func (obj Object) MarshalJSON() ([]byte, error) {
	return MarshalCanonical(obj)
}
