package jsonmap

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// JSONMap represents a JSON object as a map.
type JSONMap map[string]interface{}

// ToJSON serializes the JSONMap to JSON.
func (m *JSONMap) ToJSON() ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("JSONMap is nil")
	}

	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSONMap: %w", err)
	}

	var temp JSONMap
	if err := json.Unmarshal(data, &temp); err != nil {
		return nil, fmt.Errorf("failed to validate serialization: %w", err)
	}
	return data, nil
}

// FromJSON parses JSON bytes into a JSONMap.
func FromJSON(data []byte) (JSONMap, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("JSON string is empty")
	}

	var m JSONMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSONMap: %w", err)
	}
	return m, nil
}

// Clone returns a deep copy of the JSONMap. Values are copied through a
// JSON round trip so nested maps and slices do not alias the original.
func (m JSONMap) Clone() (JSONMap, error) {
	if m == nil {
		return nil, nil
	}

	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSONMap for clone: %w", err)
	}

	var out JSONMap
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSONMap clone: %w", err)
	}
	return out, nil
}

// Equal reports whether two JSON values are deeply equal after
// normalizing through JSON encoding, so int64(1) and float64(1) from
// different decode paths compare equal.
func Equal(a, b interface{}) bool {
	na, err := normalize(a)
	if err != nil {
		return false
	}
	nb, err := normalize(b)
	if err != nil {
		return false
	}
	return reflect.DeepEqual(na, nb)
}

func normalize(v interface{}) (interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
